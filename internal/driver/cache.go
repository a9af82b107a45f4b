package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"dxfaudit/internal/diag"
	"dxfaudit/internal/dxf"
)

// Current schema version - increment when cachedReport format changes
const cacheSchemaVersion uint16 = 2

// Digest - фиксированный 256 битный хеш содержимого снимка
type Digest [32]byte

// DiskCache stores audit results keyed by snapshot content and audit
// options, so unchanged files are not decoded and audited again.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

type cachedReport struct {
	Schema      uint16
	Version     string
	Diagnostics []cachedDiagnostic
}

type cachedDiagnostic struct {
	Code     uint16
	Message  string
	Handle   string
	DXFType  string
	DataKind dataKind
	DataStr  string
	DataInt  int64
}

// dataKind keeps the Go type of Diagnostic.Data across the msgpack round
// trip, which would otherwise narrow an int to int8..int64.
type dataKind uint8

const (
	dataNone dataKind = iota
	dataString
	dataInt
)

func encodeData(d *cachedDiagnostic, data any) {
	switch v := data.(type) {
	case nil:
	case string:
		d.DataKind, d.DataStr = dataString, v
	case int:
		d.DataKind, d.DataInt = dataInt, int64(v)
	default:
		d.DataKind, d.DataStr = dataString, fmt.Sprint(v)
	}
}

func (d *cachedDiagnostic) data() any {
	switch d.DataKind {
	case dataString:
		return d.DataStr
	case dataInt:
		return int(d.DataInt)
	}
	return nil
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir, creating it when needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// CacheKey hashes the snapshot content together with the options that change
// audit results.
func CacheKey(content []byte, strictZero bool) Digest {
	h := sha256.New()
	var hdr [3]byte
	hdr[0] = byte(cacheSchemaVersion >> 8)
	hdr[1] = byte(cacheSchemaVersion)
	if strictZero {
		hdr[2] = 1
	}
	_, _ = h.Write(hdr[:])
	_, _ = h.Write(content)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "reports", hexKey[:2], hexKey+".mp")
}

// Put stores the findings of one audited document.
func (c *DiskCache) Put(key Digest, version dxf.Version, diags []diag.Diagnostic) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload := cachedReport{
		Schema:      cacheSchemaVersion,
		Version:     version.String(),
		Diagnostics: make([]cachedDiagnostic, len(diags)),
	}
	for i, d := range diags {
		payload.Diagnostics[i] = cachedDiagnostic{
			Code:    uint16(d.Code),
			Message: d.Message,
			Handle:  d.Entity.Handle,
			DXFType: d.Entity.DXFType,
		}
		encodeData(&payload.Diagnostics[i], d.Data)
	}

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get returns the cached findings for key. A payload written by another
// schema version is a miss.
func (c *DiskCache) Get(key Digest) (dxf.Version, []diag.Diagnostic, bool, error) {
	if c == nil {
		return "", nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, false, nil
		}
		return "", nil, false, err
	}
	defer f.Close()

	var payload cachedReport
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return "", nil, false, err
	}
	if payload.Schema != cacheSchemaVersion {
		return "", nil, false, nil
	}
	sink := diag.NewSink()
	for _, d := range payload.Diagnostics {
		sink.Add(diag.Code(d.Code), d.Message, diag.EntityRef{Handle: d.Handle, DXFType: d.DXFType}, d.data())
	}
	return dxf.Version(payload.Version), sink.Items(), true, nil
}

// DropAll invalidates the cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
