package diagfmt

import (
	"fmt"
	"strings"

	"dxfaudit/internal/observ"
)

// Format selects the report renderer.
type Format uint8

const (
	// FormatText is the numbered, human readable report.
	FormatText Format = iota
	// FormatShort prints one line per diagnostic.
	FormatShort
	FormatJSON
)

// TextOpts configures the text report.
type TextOpts struct {
	Color bool
	Width int // максимальная ширина сообщения, 0 - не ограничено
}

// JSONOpts configures JSON output of a report.
type JSONOpts struct {
	RunID   string
	Source  string // файл, из которого загружен документ
	Version string
	Max     int // обрезка вывода, не Sink
	Timings *observ.Report
}

// ParseFormat converts a flag value (text|short|json) to Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "pretty", "":
		return FormatText, nil
	case "short":
		return FormatShort, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown format: %s (expected text|short|json)", s)
}

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatShort:
		return "short"
	case FormatJSON:
		return "json"
	}
	return "unknown"
}
