package diagfmt

import (
	"encoding/json"
	"io"

	"dxfaudit/internal/diag"
	"dxfaudit/internal/observ"
)

// EntityJSON identifies the offending record.
type EntityJSON struct {
	Type   string `json:"type"`
	Handle string `json:"handle"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Index   int         `json:"index"`
	ID      string      `json:"id"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Entity  *EntityJSON `json:"entity,omitempty"`
	Data    any         `json:"data,omitempty"`
}

// ReportJSON is the JSON form of one audited document.
type ReportJSON struct {
	RunID       string           `json:"run_id,omitempty"`
	Source      string           `json:"source,omitempty"`
	Version     string           `json:"dxf_version,omitempty"`
	Error       string           `json:"error,omitempty"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Timings     *observ.Report   `json:"timings,omitempty"`
}

// BuildReport формирует структуру JSON-вывода без сериализации.
// Count is the number of diagnostics before truncation to opts.Max.
func BuildReport(diags []diag.Diagnostic, opts JSONOpts) ReportJSON {
	n := len(diags)
	if opts.Max > 0 && opts.Max < n {
		n = opts.Max
	}
	out := ReportJSON{
		RunID:       opts.RunID,
		Source:      opts.Source,
		Version:     opts.Version,
		Diagnostics: make([]DiagnosticJSON, 0, n),
		Count:       len(diags),
		Timings:     opts.Timings,
	}
	for i := range n {
		d := diags[i]
		dj := DiagnosticJSON{
			Index:   i + 1,
			ID:      d.Code.ID(),
			Code:    d.Code.String(),
			Message: d.Message,
			Data:    d.Data,
		}
		if d.HasEntity() {
			dj.Entity = &EntityJSON{Type: d.Entity.DXFType, Handle: d.Entity.Handle}
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	return out
}

// JSON writes a single report.
func JSON(w io.Writer, diags []diag.Diagnostic, opts JSONOpts) error {
	return EncodeJSON(w, BuildReport(diags, opts))
}

// EncodeJSON writes v as indented JSON.
func EncodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// SummaryJSON counts the outcome of a batch.
type SummaryJSON struct {
	Files  int `json:"files"`
	Failed int `json:"failed"`
	Issues int `json:"issues"`
}

// BatchJSON is the JSON form of several audited documents.
type BatchJSON struct {
	RunID   string       `json:"run_id,omitempty"`
	Tool    string       `json:"tool"`
	Version string       `json:"version"`
	Files   []ReportJSON `json:"files"`
	Summary SummaryJSON  `json:"summary"`
}
