package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dxfaudit/internal/audit"
	"dxfaudit/internal/diag"
	"dxfaudit/internal/dxf"
	"dxfaudit/internal/dxf/dxftest"
)

func codesOf(t *testing.T, doc *dxf.Document) []diag.Code {
	t.Helper()
	a, err := audit.Run(doc)
	require.NoError(t, err)
	var out []diag.Code
	for d := range a.Sink().All() {
		out = append(out, d.Code)
	}
	return out
}

func TestLoadModernYAML(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "drawing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, dxf.R2000, doc.Version())
	assert.Equal(t, 10, doc.EntityDB().Len())
	require.NotNil(t, doc.RootDict())
	assert.Equal(t, []string{"ACAD_GROUP"}, doc.RootDict().Names())
	assert.Equal(t, 1, doc.Layers().Len())
	assert.True(t, doc.Linetypes().Contains("continuous"))
	assert.Equal(t, dxf.Handle("3"), doc.Layers().Head().Handle())
	assert.Nil(t, doc.Styles())

	root, ok := doc.EntityDB().Get("1")
	require.True(t, ok)
	assert.False(t, root.Supports(dxf.AttrOwner), "the root dictionary has no owner")

	line, ok := doc.EntityDB().Get("20")
	require.True(t, ok)
	tag, ok := line.Tags().Find(330)
	require.True(t, ok, "owner tag is synthesized")
	assert.Equal(t, "8", tag.Value)

	a, err := audit.Run(doc)
	require.NoError(t, err)
	items := a.Diagnostics()
	require.Len(t, items, 4)

	assert.Equal(t, diag.MissingRequiredRootDictEntry, items[0].Code)
	assert.Equal(t, "Missing root dict entry: ACAD_PLOTSTYLENAME", items[0].Message)
	assert.Equal(t, diag.EntityRef{Handle: "1", DXFType: "DICTIONARY"}, items[0].Entity)

	assert.Equal(t, diag.InvalidColorIndex, items[1].Code)
	assert.Equal(t, "20", items[1].Entity.Handle)
	assert.Equal(t, diag.UndefinedLinetype, items[2].Code)
	assert.Equal(t, "Undefined linetype: DASHED", items[2].Message)
	assert.Equal(t, diag.PointerTargetNotExists, items[3].Code)
	assert.Equal(t, "Pointer target does not exist: #FF", items[3].Message)
}

func TestLoadLegacyYAML(t *testing.T) {
	doc, err := Load(filepath.Join("testdata", "legacy.yaml"))
	require.NoError(t, err)
	assert.Nil(t, doc.RootDict())

	layer, ok := doc.Layers().Get("0")
	require.True(t, ok)
	assert.False(t, layer.Supports(dxf.AttrOwner), "legacy records have no owner")

	assert.Equal(t, []diag.Code{diag.InvalidLayerName, diag.UndefinedTextStyle}, codesOf(t, doc))
}

func TestMsgpackMatchesYAML(t *testing.T) {
	s, err := ReadFile(filepath.Join("testdata", "drawing.yaml"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s, FormatMsgpack))
	fromMsgpack, err := Decode(&buf, FormatMsgpack)
	require.NoError(t, err)

	fromYAML, err := Build(s)
	require.NoError(t, err)

	a1, err := audit.Run(fromYAML)
	require.NoError(t, err)
	a2, err := audit.Run(fromMsgpack)
	require.NoError(t, err)
	assert.Equal(t, a1.Diagnostics(), a2.Diagnostics())
}

func TestLoadMsgpackFile(t *testing.T) {
	s, err := ReadFile(filepath.Join("testdata", "legacy.yaml"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "legacy.dxfmp")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, Write(f, s, FormatMsgpack))
	require.NoError(t, f.Close())

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dxf.R12, doc.Version())
	assert.Equal(t, []diag.Code{diag.InvalidLayerName, diag.UndefinedTextStyle}, codesOf(t, doc))
}

func TestFromDocumentRoundTrip(t *testing.T) {
	b := dxftest.Modern()
	b.Entity("LINE", dxftest.Color(-3), dxftest.Pointer(340, "BEEF"))
	b.Entity("MTEXT", dxftest.Style("Nope"))
	doc := b.Build()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FromDocument(doc), FormatYAML))
	restored, err := Decode(&buf, FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, doc.EntityDB().Keys(), restored.EntityDB().Keys())
	assert.Equal(t, doc.Tables().Names(), restored.Tables().Names())
	assert.Equal(t, codesOf(t, doc), codesOf(t, restored))
}

func TestBuildErrors(t *testing.T) {
	big := 70000
	tests := []struct {
		name string
		snap *Snapshot
		want error
	}{
		{"nil", nil, ErrInvalid},
		{"no version", &Snapshot{}, ErrInvalid},
		{"duplicate", &Snapshot{Version: "AC1015", Entities: []EntitySpec{
			{Handle: "a", Type: "LINE"}, {Handle: "A", Type: "CIRCLE"},
		}}, ErrDuplicateHandle},
		{"null handle", &Snapshot{Version: "AC1015", Entities: []EntitySpec{
			{Handle: "0", Type: "LINE"},
		}}, ErrInvalid},
		{"no type", &Snapshot{Version: "AC1015", Entities: []EntitySpec{
			{Handle: "1"},
		}}, ErrInvalid},
		{"color overflow", &Snapshot{Version: "AC1015", Entities: []EntitySpec{
			{Handle: "1", Type: "LINE", Color: &big},
		}}, ErrInvalid},
		{"unknown table", &Snapshot{Version: "AC1015", Entities: []EntitySpec{
			{Handle: "1", Type: "TABLE", Name: "WIDGETS"},
		}}, ErrInvalid},
		{"missing root", &Snapshot{Version: "AC1015", Root: "9"}, ErrInvalid},
		{"duplicate entry", &Snapshot{Version: "AC1009", Entities: []EntitySpec{
			{Handle: "1", Type: "LAYER", Name: "A"}, {Handle: "2", Type: "LAYER", Name: "a"},
		}}, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.snap)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUnknownTypeIsGeneric(t *testing.T) {
	doc, err := Build(&Snapshot{Version: "AC1015", Root: "1", Entities: []EntitySpec{
		{Handle: "1", Type: "DICTIONARY", Owner: "0", Entries: map[string]string{
			"ACAD_GROUP": "1", "ACAD_PLOTSTYLENAME": "1",
		}},
		{Handle: "2", Type: "acme_widget", Owner: "1", Layer: "ignored"},
	}})
	require.NoError(t, err)

	e, ok := doc.EntityDB().Get("2")
	require.True(t, ok)
	assert.Equal(t, "ACME_WIDGET", e.DXFType())
	assert.False(t, e.Supports(dxf.AttrLayer))
	assert.Empty(t, codesOf(t, doc))
}

func TestFormatForPath(t *testing.T) {
	for path, want := range map[string]Format{
		"a.yaml": FormatYAML, "b.YML": FormatYAML, "c.dxfmp": FormatMsgpack, "d.msgpack": FormatMsgpack,
	} {
		got, err := FormatForPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := FormatForPath("drawing.dxf")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load("drawing.dxf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestReadRejectsUnknownFields(t *testing.T) {
	_, err := Read(strings.NewReader("version: AC1015\nentites: []\n"), FormatYAML)
	assert.Error(t, err)

	_, err = Read(strings.NewReader(""), FormatYAML)
	assert.ErrorIs(t, err, ErrInvalid)
}
