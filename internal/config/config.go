// Package config loads dxfaudit.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"dxfaudit/internal/diag"
)

// FileName is the name of the project configuration file.
const FileName = "dxfaudit.toml"

// ErrNotFound is returned by Load when the file does not exist.
var ErrNotFound = errors.New("config file not found")

// Config mirrors dxfaudit.toml.
type Config struct {
	Audit  AuditConfig  `toml:"audit"`
	Report ReportConfig `toml:"report"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
	meta toml.MetaData
}

type AuditConfig struct {
	StrictZeroPointers bool `toml:"strict_zero_pointers"`
	Jobs               int  `toml:"jobs"` // 0 - GOMAXPROCS
	Cache              bool `toml:"cache"`
}

type ReportConfig struct {
	Format string   `toml:"format"`
	Color  string   `toml:"color"` // auto|on|off
	Width  int      `toml:"width"`
	Only   []string `toml:"only"`
}

// Default returns the configuration used without a dxfaudit.toml.
func Default() Config {
	return Config{
		Report: ReportConfig{
			Format: "text",
			Color:  "auto",
		},
	}
}

// Find walks up from startDir to locate dxfaudit.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest dxfaudit.toml above startDir, or returns the
// defaults when there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load reads path on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	cfg.Path = path
	cfg.meta = meta
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// IsDefined reports whether key was set explicitly in the file.
func (c Config) IsDefined(key ...string) bool {
	return c.meta.IsDefined(key...)
}

func (c Config) validate() error {
	if c.IsDefined("audit", "jobs") && c.Audit.Jobs < 0 {
		return fmt.Errorf("[audit].jobs must not be negative, got %d", c.Audit.Jobs)
	}
	if c.IsDefined("report", "format") {
		switch strings.ToLower(c.Report.Format) {
		case "text", "short", "json":
		default:
			return fmt.Errorf("[report].format must be text, short or json, got %q", c.Report.Format)
		}
	}
	if c.IsDefined("report", "color") {
		if _, err := ParseColorMode(c.Report.Color); err != nil {
			return fmt.Errorf("[report].color: %w", err)
		}
	}
	if c.IsDefined("report", "width") && c.Report.Width < 0 {
		return fmt.Errorf("[report].width must not be negative, got %d", c.Report.Width)
	}
	if _, err := c.OnlyCodes(); err != nil {
		return fmt.Errorf("[report].only: %w", err)
	}
	return nil
}

// OnlyCodes parses Report.Only. An empty list means every code.
func (c Config) OnlyCodes() ([]diag.Code, error) {
	return ParseCodes(c.Report.Only)
}

// ParseCodes parses diagnostic code names or IDs, dropping duplicates.
func ParseCodes(names []string) ([]diag.Code, error) {
	var out []diag.Code
	seen := make(map[diag.Code]struct{}, len(names))
	for _, name := range names {
		code, err := diag.ParseCode(name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out, nil
}

// ColorMode controls colored output.
type ColorMode uint8

const (
	ColorAuto ColorMode = iota
	ColorOn
	ColorOff
)

// ParseColorMode accepts auto|on|off (and always|never).
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "":
		return ColorAuto, nil
	case "on", "always", "true":
		return ColorOn, nil
	case "off", "never", "false":
		return ColorOff, nil
	}
	return ColorAuto, fmt.Errorf("invalid color mode %q (expected auto|on|off)", s)
}
