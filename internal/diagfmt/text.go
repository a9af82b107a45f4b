package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"dxfaudit/internal/diag"
)

type palette struct {
	header *color.Color
	code   *color.Color
	entity *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		header: color.New(color.Bold),
		code:   color.New(color.FgRed, color.Bold),
		entity: color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.header, p.code, p.entity} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// stickyWriter remembers the first write error and drops later writes.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (s *stickyWriter) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

// Text writes the numbered report:
//
//	2 issues found.
//
//	   1. Issue code [INVALID_COLOR_INDEX] in DXF entity LINE, handle: #1A
//	   Invalid color index: 300
//
// An empty report is the single line "No issues found.". The first write
// error is returned.
func Text(w io.Writer, diags []diag.Diagnostic, opts TextOpts) error {
	out := &stickyWriter{w: w}
	p := newPalette(opts.Color)

	if len(diags) == 0 {
		out.printf("%s\n\n", p.header.Sprint("No issues found."))
		return out.err
	}

	out.printf("%s\n\n", p.header.Sprintf("%d issues found.", len(diags)))
	for i, d := range diags {
		code := p.code.Sprintf("[%s]", d.Code)
		if d.HasEntity() {
			out.printf("%4d. Issue code %s in DXF entity %s, handle: #%s\n",
				i+1, code, p.entity.Sprint(d.Entity.DXFType), d.Entity.Handle)
		} else {
			out.printf("%4d. Issue code %s\n", i+1, code)
		}
		out.printf("   %s\n\n", truncate(d.Message, opts.Width))
	}
	return out.err
}

// PrintReport writes the plain text report of a sink.
func PrintReport(w io.Writer, sink *diag.Sink) error {
	return Text(w, sink.Items(), TextOpts{})
}

func truncate(msg string, width int) string {
	if width <= 0 || runewidth.StringWidth(msg) <= width {
		return msg
	}
	return runewidth.Truncate(msg, width, "…")
}
