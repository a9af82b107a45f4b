// Package diag defines the diagnostic model produced by the document auditor.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Code – closed enum (see codes.go) with a stable ID ("AUD0008") and an
//     upper-snake name ("POINTER_TARGET_NOT_EXISTS").
//   - Message – human oriented text built at detection time, including the
//     offending value.
//   - Entity – optional EntityRef (handle + DXF type). It is a name, not a
//     pointer: the document outlives the auditor and consumers re-resolve
//     the handle if they need the record.
//   - Data – optional opaque payload, e.g. the missing target handle.
//
// # Sink
//
// Sink keeps diagnostics in detection order, so two runs over the same
// document produce the same sequence. It also owns the per-run set of pointer
// targets already reported as missing; this set is never package-level state.
//
// Package diag does not perform any formatting or IO. Rendering lives in
// internal/diagfmt.
package diag
