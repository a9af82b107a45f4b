package dxf

// RootDict is the root DICTIONARY of an R13+ document: named top-level
// entries pointing at other objects.
type RootDict struct {
	*Record
	names   []string
	entries map[string]Handle
}

// RequiredRootDictEntries must exist in the root dictionary of R13+ documents.
var RequiredRootDictEntries = []string{"ACAD_GROUP", "ACAD_PLOTSTYLENAME"}

// NewRootDict wraps a DICTIONARY record.
func NewRootDict(rec *Record) *RootDict {
	return &RootDict{Record: rec, entries: make(map[string]Handle)}
}

// Set adds or replaces an entry. Names are case-sensitive.
func (d *RootDict) Set(name string, target Handle) {
	if _, ok := d.entries[name]; !ok {
		d.names = append(d.names, name)
	}
	d.entries[name] = target
}

func (d *RootDict) Contains(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.entries[name]
	return ok
}

func (d *RootDict) Lookup(name string) (Handle, bool) {
	if d == nil {
		return "", false
	}
	h, ok := d.entries[name]
	return h, ok
}

// Names returns entry names in insertion order.
func (d *RootDict) Names() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.names...)
}

// Document is a loaded drawing.
type Document struct {
	version Version
	db      *EntityDB
	tables  *Tables
	root    *RootDict
}

// NewDocument assembles a document from its parts. root may be nil for
// legacy documents.
func NewDocument(version Version, db *EntityDB, tables *Tables, root *RootDict) *Document {
	return &Document{
		version: version,
		db:      db,
		tables:  tables,
		root:    root,
	}
}

func (d *Document) Version() Version { return d.version }

func (d *Document) EntityDB() *EntityDB { return d.db }

func (d *Document) Tables() *Tables { return d.tables }

func (d *Document) RootDict() *RootDict { return d.root }

func (d *Document) Layers() *Table { return d.tables.Get(TableLayers) }

func (d *Document) Linetypes() *Table { return d.tables.Get(TableLinetypes) }

func (d *Document) Styles() *Table { return d.tables.Get(TableStyles) }

func (d *Document) DimStyles() *Table { return d.tables.Get(TableDimStyles) }
