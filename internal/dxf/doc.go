// Package dxf is the in-memory document graph the auditor reads.
//
// A Document holds a format version, an entity database keyed by handle,
// name-keyed tables (layers, linetypes, ...) and, for R13+ documents, a root
// dictionary. Records are not a type hierarchy: every Record has a Kind that
// says which named attributes it supports, and callers probe Supports before
// reading an attribute.
//
// The package never parses DXF text. Documents are assembled by a loader
// (see internal/snapshot) or by tests through package dxftest.
package dxf
