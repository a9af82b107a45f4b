package dxf

import (
	"fmt"
	"strings"

	"dxfaudit/internal/diag"
)

// Table names in audit order. BlockRecords only exists in R13+ documents.
const (
	TableLayers       = "layers"
	TableLinetypes    = "linetypes"
	TableStyles       = "styles"
	TableDimStyles    = "dimstyles"
	TableUCS          = "ucs"
	TableAppIDs       = "appids"
	TableViews        = "views"
	TableViewports    = "vports"
	TableBlockRecords = "block_records"
)

// entryTypes maps a table name to the DXF type of its entries.
var entryTypes = map[string]string{
	TableLayers:       "LAYER",
	TableLinetypes:    "LTYPE",
	TableStyles:       "STYLE",
	TableDimStyles:    "DIMSTYLE",
	TableUCS:          "UCS",
	TableAppIDs:       "APPID",
	TableViews:        "VIEW",
	TableViewports:    "VPORT",
	TableBlockRecords: "BLOCK_RECORD",
}

// TableForEntryType returns the table name holding entries of dxftype.
func TableForEntryType(dxftype string) (string, bool) {
	dxftype = strings.ToUpper(dxftype)
	for name, t := range entryTypes {
		if t == dxftype {
			return name, true
		}
	}
	return "", false
}

// Reporter receives findings from table audits. The auditor implements it.
type Reporter interface {
	AddError(code diag.Code, msg string, e Entity, data any)
}

// LayerNameValidator is implemented by reporters that replace
// IsValidLayerName for layer table entries.
type LayerNameValidator interface {
	ValidLayerName(name string) bool
}

// Table is a name-keyed collection of table entries. Names compare
// case-insensitively, as in DXF symbol tables.
type Table struct {
	name    string
	head    *Record
	order   []string
	entries map[string]*Record
}

// NewTable creates an empty table. head may be nil for documents without
// TABLE head records.
func NewTable(name string, head *Record) *Table {
	return &Table{
		name:    name,
		head:    head,
		entries: make(map[string]*Record),
	}
}

func tableKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (t *Table) Name() string { return t.name }

func (t *Table) Head() *Record { return t.head }

// EntryType is the DXF type entries of this table have.
func (t *Table) EntryType() string { return entryTypes[t.name] }

// Add inserts an entry keyed by its name attribute.
func (t *Table) Add(entry *Record) error {
	key := tableKey(entry.Name())
	if _, ok := t.entries[key]; ok {
		return fmt.Errorf("%s: duplicate entry %q", t.name, entry.Name())
	}
	t.order = append(t.order, key)
	t.entries[key] = entry
	return nil
}

// Contains reports whether an entry named name exists. A nil table contains
// nothing.
func (t *Table) Contains(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.entries[tableKey(name)]
	return ok
}

func (t *Table) Get(name string) (*Record, bool) {
	if t == nil {
		return nil, false
	}
	e, ok := t.entries[tableKey(name)]
	return e, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Entries returns the entries in insertion order.
func (t *Table) Entries() []*Record {
	if t == nil {
		return nil
	}
	out := make([]*Record, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.entries[k])
	}
	return out
}

// Audit checks the table's own invariants and reports findings to r:
// layer entries must have valid names, and entries must be owned by the
// table head when the document has owner handles.
func (t *Table) Audit(r Reporter) {
	validName := IsValidLayerName
	if v, ok := r.(LayerNameValidator); ok {
		validName = v.ValidLayerName
	}
	for _, entry := range t.Entries() {
		if t.name == TableLayers && !validName(entry.Name()) {
			r.AddError(diag.InvalidLayerName,
				fmt.Sprintf("Invalid layer name: %s", entry.Name()), entry, nil)
		}
		if t.head == nil || !entry.Supports(AttrOwner) {
			continue
		}
		if owner := entry.Owner(); owner != t.head.Handle() {
			r.AddError(diag.InvalidOwnerHandle,
				fmt.Sprintf("Table entry owner #%s is not the %s table head #%s", owner, t.name, t.head.Handle()),
				entry, string(owner))
		}
	}
}

// Tables holds the symbol tables of a document in insertion order.
type Tables struct {
	order  []string
	tables map[string]*Table
}

func NewTables() *Tables {
	return &Tables{tables: make(map[string]*Table)}
}

// Add registers t, replacing nothing: a second table with the same name is
// an error.
func (ts *Tables) Add(t *Table) error {
	if _, ok := ts.tables[t.name]; ok {
		return fmt.Errorf("duplicate table %q", t.name)
	}
	ts.order = append(ts.order, t.name)
	ts.tables[t.name] = t
	return nil
}

func (ts *Tables) Contains(name string) bool {
	if ts == nil {
		return false
	}
	_, ok := ts.tables[name]
	return ok
}

// Get returns the named table or nil.
func (ts *Tables) Get(name string) *Table {
	if ts == nil {
		return nil
	}
	return ts.tables[name]
}

func (ts *Tables) Names() []string {
	if ts == nil {
		return nil
	}
	return append([]string(nil), ts.order...)
}
