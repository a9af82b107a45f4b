package diagfmt

import (
	"io"
	"strings"

	"dxfaudit/internal/diag"
)

// Short writes one line per diagnostic, prefixed with source when it is not
// empty:
//
//	drawing.yaml: AUD0006 LINE#1A Invalid color index: 300
func Short(w io.Writer, source string, diags []diag.Diagnostic) error {
	out := &stickyWriter{w: w}
	for _, d := range diags {
		if source != "" {
			out.printf("%s: ", source)
		}
		where := "-"
		if d.HasEntity() {
			where = d.Entity.DXFType + "#" + d.Entity.Handle
		}
		out.printf("%s %s %s\n", d.Code.ID(), where, sanitizeMessage(d.Message))
	}
	return out.err
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
