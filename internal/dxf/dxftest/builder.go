// Package dxftest builds in-memory documents for tests.
package dxftest

import (
	"fmt"

	"dxfaudit/internal/dxf"
)

// Builder assembles a document. Methods panic on inconsistent input; it is
// meant for fixtures only.
type Builder struct {
	version dxf.Version
	db      *dxf.EntityDB
	tables  *dxf.Tables
	root    *dxf.RootDict
	next    int

	// ModelSpace is the default owner of graphic entities in modern documents.
	ModelSpace dxf.Handle
}

// New returns a builder for an empty document of the given version.
func New(version dxf.Version) *Builder {
	return &Builder{
		version: version,
		db:      dxf.NewEntityDB(),
		tables:  dxf.NewTables(),
		next:    0x10,
	}
}

// Modern returns an R2000 builder pre-populated with a consistent skeleton:
// root dictionary with the required entries, the standard tables and their
// default entries, and a *Model_Space block record.
func Modern() *Builder {
	b := New(dxf.R2000)
	b.RootDict(dxf.RequiredRootDictEntries...)
	b.standardTables()
	b.Table(dxf.TableBlockRecords)
	ms := b.Entry(dxf.TableBlockRecords, "*Model_Space")
	b.Entry(dxf.TableBlockRecords, "*Paper_Space")
	b.ModelSpace = ms.Handle()
	return b
}

// Legacy returns an R12 builder with the standard tables but no root
// dictionary and no owners.
func Legacy() *Builder {
	b := New(dxf.R12)
	b.standardTables()
	return b
}

func (b *Builder) standardTables() {
	for _, name := range []string{
		dxf.TableViewports, dxf.TableLinetypes, dxf.TableLayers, dxf.TableStyles,
		dxf.TableViews, dxf.TableUCS, dxf.TableAppIDs, dxf.TableDimStyles,
	} {
		b.Table(name)
	}
	b.Entry(dxf.TableLinetypes, "ByBlock")
	b.Entry(dxf.TableLinetypes, "ByLayer")
	b.Entry(dxf.TableLinetypes, "Continuous")
	b.Entry(dxf.TableLayers, "0")
	b.Entry(dxf.TableStyles, "Standard")
	b.Entry(dxf.TableDimStyles, "Standard")
	b.Entry(dxf.TableAppIDs, "ACAD")
	b.Entry(dxf.TableViewports, "*Active")
}

// NextHandle allocates a fresh handle.
func (b *Builder) NextHandle() dxf.Handle {
	h := dxf.Handle(fmt.Sprintf("%X", b.next))
	b.next++
	return h
}

func (b *Builder) add(rec *dxf.Record) *dxf.Record {
	if err := b.db.Add(rec); err != nil {
		panic(err)
	}
	return rec
}

func (b *Builder) record(dxftype string, h dxf.Handle, owner dxf.Handle) *dxf.Record {
	rec := dxf.NewRecord(dxftype, h, b.version)
	if rec.Supports(dxf.AttrOwner) {
		rec.Set(dxf.AttrOwner, dxf.StringValue(string(owner)))
		rec.AppendTags(dxf.Tag{Code: 330, Value: string(owner)})
	}
	return rec
}

// RootDict creates the root dictionary with one DICTIONARY object per name.
// The root dictionary itself has no owner.
func (b *Builder) RootDict(names ...string) *dxf.RootDict {
	rec := dxf.NewRecord("DICTIONARY", b.NextHandle(), b.version)
	rec.DetachOwner()
	b.add(rec)
	b.root = dxf.NewRootDict(rec)
	for _, n := range names {
		target := b.add(b.record("DICTIONARY", b.NextHandle(), rec.Handle()))
		b.root.Set(n, target.Handle())
		rec.AppendTags(dxf.Tag{Code: 3, Value: n}, dxf.Tag{Code: 350, Value: string(target.Handle())})
	}
	return b.root
}

// Root returns the root dictionary, nil when none was created.
func (b *Builder) Root() *dxf.RootDict { return b.root }

// Table creates an empty table with a TABLE head record.
func (b *Builder) Table(name string) *dxf.Table {
	head := b.add(b.record("TABLE", b.NextHandle(), dxf.NullHandle))
	head.Set(dxf.AttrName, dxf.StringValue(name))
	t := dxf.NewTable(name, head)
	if err := b.tables.Add(t); err != nil {
		panic(err)
	}
	return t
}

// Entry adds a named entry to an existing table, owned by the table head.
func (b *Builder) Entry(table, name string, opts ...Opt) *dxf.Record {
	t := b.tables.Get(table)
	if t == nil {
		panic(fmt.Sprintf("dxftest: no table %q", table))
	}
	rec := b.record(t.EntryType(), b.NextHandle(), t.Head().Handle())
	rec.Set(dxf.AttrName, dxf.StringValue(name))
	rec.AppendTags(dxf.Tag{Code: 2, Value: name})
	for _, o := range opts {
		o(rec)
	}
	b.add(rec)
	if err := t.Add(rec); err != nil {
		panic(err)
	}
	return rec
}

// Entity adds a record of any type, owned by model space in modern documents.
// Without a model space (New instead of Modern) the owner is "0".
func (b *Builder) Entity(dxftype string, opts ...Opt) *dxf.Record {
	owner := b.ModelSpace
	if owner == "" {
		owner = dxf.NullHandle
	}
	rec := b.record(dxftype, b.NextHandle(), owner)
	for _, o := range opts {
		o(rec)
	}
	return b.add(rec)
}

// Build returns the document.
func (b *Builder) Build() *dxf.Document {
	return dxf.NewDocument(b.version, b.db, b.tables, b.root)
}

// Opt customizes a record before it is stored.
type Opt func(*dxf.Record)

func set(a dxf.Attr, v dxf.Value) Opt {
	return func(r *dxf.Record) {
		if r.Set(a, v) {
			r.AppendTags(dxf.Tag{Code: a.GroupCode(), Value: v.Str()})
		}
	}
}

func Layer(name string) Opt    { return set(dxf.AttrLayer, dxf.StringValue(name)) }
func Linetype(name string) Opt { return set(dxf.AttrLinetype, dxf.StringValue(name)) }
func Style(name string) Opt    { return set(dxf.AttrStyle, dxf.StringValue(name)) }
func DimStyle(name string) Opt { return set(dxf.AttrDimStyle, dxf.StringValue(name)) }
func Color(aci int) Opt        { return set(dxf.AttrColor, dxf.IntValue(aci)) }

// Owner replaces the owner handle and its 330 tag.
func Owner(h dxf.Handle) Opt {
	return func(r *dxf.Record) {
		if !r.Set(dxf.AttrOwner, dxf.StringValue(string(h))) {
			return
		}
		tags := r.Tags()
		for i := range tags {
			if tags[i].Code == 330 {
				tags[i].Value = string(h)
				return
			}
		}
		r.AppendTags(dxf.Tag{Code: 330, Value: string(h)})
	}
}

// Pointer appends a pointer-valued tag.
func Pointer(code int, target dxf.Handle) Opt {
	return func(r *dxf.Record) {
		r.AppendTags(dxf.Tag{Code: code, Value: string(target)})
	}
}

// Tag appends an arbitrary tag.
func Tag(code int, value string) Opt {
	return func(r *dxf.Record) {
		r.AppendTags(dxf.Tag{Code: code, Value: value})
	}
}
