package snapshot

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"fortio.org/safecast"

	"dxfaudit/internal/dxf"
)

// tableNames maps the name of a TABLE head as written in DXF files to the
// document table it heads.
var tableNames = map[string]string{
	"LAYER":        dxf.TableLayers,
	"LTYPE":        dxf.TableLinetypes,
	"STYLE":        dxf.TableStyles,
	"DIMSTYLE":     dxf.TableDimStyles,
	"UCS":          dxf.TableUCS,
	"APPID":        dxf.TableAppIDs,
	"VIEW":         dxf.TableViews,
	"VPORT":        dxf.TableViewports,
	"BLOCK_RECORD": dxf.TableBlockRecords,
}

// Load reads the snapshot at path and builds its document.
func Load(path string) (*dxf.Document, error) {
	s, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Build(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode reads a snapshot from r and builds its document.
func Decode(r io.Reader, format Format) (*dxf.Document, error) {
	s, err := Read(r, format)
	if err != nil {
		return nil, err
	}
	return Build(s)
}

// Build turns a snapshot into a document. TABLE records become table heads;
// table entries are attached to the table their owner points at, or to the
// table of their type when the owner is not a table head. The root
// dictionary is taken from s.Root.
//
// Owner (330) and dictionary entry (350) tags are synthesized when the
// snapshot does not list them, so pointer checks see the same references
// a loaded DXF file would carry.
func Build(s *Snapshot) (*dxf.Document, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalid)
	}
	version := dxf.Version(strings.ToUpper(strings.TrimSpace(s.Version)))
	if version == "" {
		return nil, fmt.Errorf("%w: missing version", ErrInvalid)
	}

	db := dxf.NewEntityDB()
	records := make([]*dxf.Record, 0, len(s.Entities))
	byHandle := make(map[dxf.Handle]int, len(s.Entities))
	for i := range s.Entities {
		rec, err := buildRecord(&s.Entities[i], version)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
		if db.Contains(rec.Handle()) {
			return nil, fmt.Errorf("%w: #%s", ErrDuplicateHandle, rec.Handle())
		}
		if err := db.Add(rec); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		byHandle[rec.Handle()] = i
		records = append(records, rec)
	}

	tables, err := buildTables(records)
	if err != nil {
		return nil, err
	}

	var root *dxf.RootDict
	if s.Root != "" {
		h := dxf.NormalizeHandle(s.Root)
		i, ok := byHandle[h]
		if !ok {
			return nil, fmt.Errorf("%w: root dictionary #%s does not exist", ErrInvalid, h)
		}
		records[i].DetachOwner()
		root = dxf.NewRootDict(records[i])
		for _, name := range sortedKeys(s.Entities[i].Entries) {
			root.Set(name, dxf.NormalizeHandle(s.Entities[i].Entries[name]))
		}
	}
	return dxf.NewDocument(version, db, tables, root), nil
}

func buildRecord(spec *EntitySpec, version dxf.Version) (*dxf.Record, error) {
	h := dxf.NormalizeHandle(spec.Handle)
	if h == "" || h.IsNull() {
		return nil, fmt.Errorf("%w: invalid handle %q", ErrInvalid, spec.Handle)
	}
	if strings.TrimSpace(spec.Type) == "" {
		return nil, fmt.Errorf("%w: #%s has no type", ErrInvalid, h)
	}
	rec := dxf.NewRecord(spec.Type, h, version)

	for a, v := range map[dxf.Attr]string{
		dxf.AttrName:     spec.Name,
		dxf.AttrLayer:    spec.Layer,
		dxf.AttrLinetype: spec.Linetype,
		dxf.AttrStyle:    spec.Style,
		dxf.AttrDimStyle: spec.DimStyle,
	} {
		if v != "" {
			rec.Set(a, dxf.StringValue(v))
		}
	}
	if spec.Color != nil {
		aci, err := safecast.Conv[int16](*spec.Color)
		if err != nil {
			return nil, fmt.Errorf("%w: #%s color %d: %w", ErrInvalid, h, *spec.Color, err)
		}
		rec.Set(dxf.AttrColor, dxf.IntValue(int(aci)))
	}

	tags := make(dxf.Tags, 0, len(spec.Tags)+1+2*len(spec.Entries))
	for _, t := range spec.Tags {
		tags = append(tags, dxf.Tag{Code: t.Code, Value: t.Value})
	}
	if spec.Owner != "" {
		owner := dxf.NormalizeHandle(spec.Owner)
		if rec.Set(dxf.AttrOwner, dxf.StringValue(string(owner))) {
			if _, ok := tags.Find(330); !ok {
				tags = append(dxf.Tags{{Code: 330, Value: string(owner)}}, tags...)
			}
		}
	}
	if _, ok := tags.Find(350); !ok {
		for _, name := range sortedKeys(spec.Entries) {
			tags = append(tags,
				dxf.Tag{Code: 3, Value: name},
				dxf.Tag{Code: 350, Value: spec.Entries[name]})
		}
	}
	rec.AppendTags(tags...)
	return rec, nil
}

func buildTables(records []*dxf.Record) (*dxf.Tables, error) {
	tables := dxf.NewTables()
	heads := make(map[dxf.Handle]*dxf.Table)
	for _, rec := range records {
		if rec.DXFType() != "TABLE" {
			continue
		}
		name, ok := tableName(rec.Name())
		if !ok {
			return nil, fmt.Errorf("%w: #%s unknown table %q", ErrInvalid, rec.Handle(), rec.Name())
		}
		t := dxf.NewTable(name, rec)
		if err := tables.Add(t); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		heads[rec.Handle()] = t
	}

	for _, rec := range records {
		name, ok := dxf.TableForEntryType(rec.DXFType())
		if !ok {
			continue
		}
		t := heads[rec.Owner()]
		if t == nil || t.Name() != name {
			t = tables.Get(name)
		}
		if t == nil {
			t = dxf.NewTable(name, nil)
			if err := tables.Add(t); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
			}
		}
		if err := t.Add(rec); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return tables, nil
}

// tableName accepts both the DXF spelling ("LAYER") and the document
// table name ("layers").
func tableName(s string) (string, bool) {
	if name, ok := tableNames[strings.ToUpper(s)]; ok {
		return name, true
	}
	for _, name := range tableNames {
		if strings.EqualFold(name, s) {
			return name, true
		}
	}
	return "", false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// FromDocument produces the snapshot of doc. Attributes are written only
// when set explicitly; table entries and heads keep their names.
func FromDocument(doc *dxf.Document) *Snapshot {
	s := &Snapshot{Version: doc.Version().String()}
	if root := doc.RootDict(); root != nil {
		s.Root = root.Handle().String()
	}
	for h, e := range doc.EntityDB().All() {
		spec := EntitySpec{Handle: h.String(), Type: e.DXFType()}
		if rec, ok := e.(*dxf.Record); ok {
			fillSpec(&spec, rec)
		}
		for _, t := range e.Tags() {
			spec.Tags = append(spec.Tags, TagSpec{Code: t.Code, Value: t.Value})
		}
		if root := doc.RootDict(); root != nil && root.Handle() == h {
			spec.Entries = make(map[string]string)
			for _, name := range root.Names() {
				target, _ := root.Lookup(name)
				spec.Entries[name] = target.String()
			}
		}
		s.Entities = append(s.Entities, spec)
	}
	return s
}

func fillSpec(spec *EntitySpec, rec *dxf.Record) {
	str := func(a dxf.Attr) string {
		if !rec.IsSet(a) {
			return ""
		}
		v, _ := rec.Get(a)
		return v.Str()
	}
	spec.Owner = str(dxf.AttrOwner)
	spec.Name = str(dxf.AttrName)
	spec.Layer = str(dxf.AttrLayer)
	spec.Linetype = str(dxf.AttrLinetype)
	spec.Style = str(dxf.AttrStyle)
	spec.DimStyle = str(dxf.AttrDimStyle)
	if rec.IsSet(dxf.AttrColor) {
		v, _ := rec.Get(dxf.AttrColor)
		aci := v.Int()
		spec.Color = &aci
	}
}
