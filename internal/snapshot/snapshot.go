// Package snapshot loads document snapshots: a flat list of records with
// their audited attributes and raw tags, serialized as YAML for hand-written
// fixtures or msgpack for machine-produced dumps.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownFormat is returned for file extensions without a decoder.
	ErrUnknownFormat = errors.New("unknown snapshot format")
	// ErrDuplicateHandle is returned when two records share a handle.
	ErrDuplicateHandle = errors.New("duplicate handle")
	// ErrInvalid wraps every other structural problem of a snapshot.
	ErrInvalid = errors.New("invalid snapshot")
)

// Snapshot is the serialized form of one document.
type Snapshot struct {
	Version  string       `yaml:"version" msgpack:"version"`
	Root     string       `yaml:"root,omitempty" msgpack:"root,omitempty"`
	Entities []EntitySpec `yaml:"entities" msgpack:"entities"`
}

// EntitySpec describes one record. Attributes the record type does not
// support are ignored.
type EntitySpec struct {
	Handle   string            `yaml:"handle" msgpack:"handle"`
	Type     string            `yaml:"type" msgpack:"type"`
	Owner    string            `yaml:"owner,omitempty" msgpack:"owner,omitempty"`
	Name     string            `yaml:"name,omitempty" msgpack:"name,omitempty"`
	Layer    string            `yaml:"layer,omitempty" msgpack:"layer,omitempty"`
	Linetype string            `yaml:"linetype,omitempty" msgpack:"linetype,omitempty"`
	Style    string            `yaml:"style,omitempty" msgpack:"style,omitempty"`
	DimStyle string            `yaml:"dimstyle,omitempty" msgpack:"dimstyle,omitempty"`
	Color    *int              `yaml:"color,omitempty" msgpack:"color,omitempty"`
	Entries  map[string]string `yaml:"entries,omitempty" msgpack:"entries,omitempty"`
	Tags     []TagSpec         `yaml:"tags,omitempty" msgpack:"tags,omitempty"`
}

// TagSpec is a raw (group code, value) pair.
type TagSpec struct {
	Code  int    `yaml:"code" msgpack:"code"`
	Value string `yaml:"value" msgpack:"value"`
}

// Format identifies the serialization of a snapshot file.
type Format uint8

const (
	FormatYAML Format = iota + 1
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatMsgpack:
		return "msgpack"
	}
	return "unknown"
}

// Extensions lists the file extensions Load understands.
var Extensions = []string{".yaml", ".yml", ".dxfmp", ".msgpack"}

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".dxfmp", ".msgpack":
		return FormatMsgpack, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Read decodes a snapshot without building a document.
func Read(r io.Reader, format Format) (*Snapshot, error) {
	var s Snapshot
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: empty document", ErrInvalid)
			}
			return nil, fmt.Errorf("failed to decode yaml: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode msgpack: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return &s, nil
}

// Write encodes s in the given format.
func Write(w io.Writer, s *Snapshot, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case FormatMsgpack:
		if err := msgpack.NewEncoder(w).Encode(s); err != nil {
			return fmt.Errorf("failed to encode msgpack: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

// ReadFile reads the snapshot stored at path.
func ReadFile(path string) (*Snapshot, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
