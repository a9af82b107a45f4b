package audit

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dxfaudit/internal/diag"
	"dxfaudit/internal/dxf"
	"dxfaudit/internal/dxf/dxftest"
	"dxfaudit/internal/observ"
)

func mustRun(t *testing.T, doc *dxf.Document, opts ...Option) *Auditor {
	t.Helper()
	a, err := Run(doc, opts...)
	require.NoError(t, err)
	return a
}

func codes(a *Auditor) []diag.Code {
	var out []diag.Code
	for _, d := range a.Diagnostics() {
		out = append(out, d.Code)
	}
	return out
}

func TestCleanDocumentsHaveNoIssues(t *testing.T) {
	t.Run("modern", func(t *testing.T) {
		b := dxftest.Modern()
		b.Entity("LINE", dxftest.Layer("0"))
		b.Entity("TEXT", dxftest.Style("standard"), dxftest.Color(0))
		b.Entity("DIMENSION", dxftest.DimStyle("Standard"), dxftest.Color(256))
		b.Entity("CIRCLE", dxftest.Linetype("Continuous"))
		a := mustRun(t, b.Build())
		assert.True(t, a.Empty(), "%v", a.Diagnostics())
	})

	t.Run("legacy", func(t *testing.T) {
		b := dxftest.Legacy()
		b.Entity("LINE", dxftest.Layer("0"))
		b.Entity("TEXT", dxftest.Style("Standard"))
		a := mustRun(t, b.Build())
		assert.True(t, a.Empty(), "%v", a.Diagnostics())
	})
}

func TestPointerTargetReportedOncePerTarget(t *testing.T) {
	b := dxftest.Modern()
	var first *dxf.Record
	for i := range 50 {
		rec := b.Entity("LINE", dxftest.Pointer(340, "FFFF"))
		if i == 0 {
			first = rec
		}
	}
	b.Entity("LINE", dxftest.Pointer(360, "EEEE"), dxftest.Pointer(340, "FFFF"))
	a := mustRun(t, b.Build())

	got := slices.Collect(a.Filter(diag.PointerTargetNotExists))
	require.Len(t, got, 2)
	assert.Equal(t, string(first.Handle()), got[0].Entity.Handle)
	assert.Equal(t, "LINE", got[0].Entity.DXFType)
	assert.Equal(t, "Pointer target does not exist: #FFFF", got[0].Message)
	assert.Equal(t, "FFFF", got[0].Data)
	assert.Equal(t, "EEEE", got[1].Data)
	assert.Equal(t, 2, a.Len())
}

func TestNullPointer(t *testing.T) {
	build := func() *dxf.Document {
		b := dxftest.Modern()
		b.Entity("INSERT", dxftest.Pointer(340, dxf.NullHandle), dxftest.Pointer(350, "0"))
		return b.Build()
	}

	t.Run("default skips the sentinel", func(t *testing.T) {
		a := mustRun(t, build())
		assert.Zero(t, a.Sink().Count(diag.PointerTargetNotExists))
	})

	t.Run("padded zeros are ordinary handles", func(t *testing.T) {
		b := dxftest.Modern()
		b.Entity("LINE", dxftest.Pointer(340, "00"), dxftest.Pointer(340, "000"))
		a := mustRun(t, b.Build())
		got := slices.Collect(a.Filter(diag.PointerTargetNotExists))
		require.Len(t, got, 2)
		assert.Equal(t, "00", got[0].Data)
		assert.Equal(t, "000", got[1].Data)
	})

	t.Run("strict reports it once", func(t *testing.T) {
		a := mustRun(t, build(), WithStrictZeroPointers(true))
		got := slices.Collect(a.Filter(diag.PointerTargetNotExists))
		require.Len(t, got, 1)
		assert.Equal(t, "0", got[0].Data)
	})
}

func TestColorIndexRange(t *testing.T) {
	tests := []struct {
		color   int
		invalid bool
	}{
		{-1, true},
		{0, false},
		{7, false},
		{256, false},
		{257, true},
	}
	for _, tt := range tests {
		b := dxftest.Modern()
		b.Entity("LINE", dxftest.Color(tt.color))
		a := mustRun(t, b.Build())
		n := a.Sink().Count(diag.InvalidColorIndex)
		if tt.invalid {
			assert.Equal(t, 1, n, "color %d", tt.color)
		} else {
			assert.Zero(t, n, "color %d", tt.color)
		}
	}
}

func TestLinetype(t *testing.T) {
	for _, lt := range []string{"BYLAYER", "ByLayer", "bylayer", "BYBLOCK", "byBlock"} {
		b := dxftest.Modern()
		b.Entity("LINE", dxftest.Linetype(lt))
		doc := b.Build()
		a := mustRun(t, doc)
		assert.Zero(t, a.Sink().Count(diag.UndefinedLinetype), lt)
	}

	t.Run("special names need no table at all", func(t *testing.T) {
		b := dxftest.New(dxf.R12)
		b.Entity("LINE", dxftest.Linetype("BYLAYER"))
		b.Entity("LINE", dxftest.Linetype("DASHED"))
		a := mustRun(t, b.Build())
		got := slices.Collect(a.Filter(diag.UndefinedLinetype))
		require.Len(t, got, 1)
		assert.Equal(t, "Undefined linetype: DASHED", got[0].Message)
	})

	t.Run("table lookup ignores case", func(t *testing.T) {
		b := dxftest.Modern()
		b.Entity("LINE", dxftest.Linetype("CONTINUOUS"))
		a := mustRun(t, b.Build())
		assert.True(t, a.Empty())
	})
}

func TestUndefinedStyles(t *testing.T) {
	b := dxftest.Modern()
	text := b.Entity("MTEXT", dxftest.Style("Romans"))
	dim := b.Entity("DIMENSION", dxftest.DimStyle("ISO-25"))
	b.Entity("LINE")
	a := mustRun(t, b.Build())

	require.Equal(t, []diag.Code{diag.UndefinedTextStyle, diag.UndefinedDimensionStyle}, codes(a))
	ds := a.Diagnostics()
	assert.Equal(t, string(text.Handle()), ds[0].Entity.Handle)
	assert.Equal(t, "Undefined text style: Romans", ds[0].Message)
	assert.Equal(t, string(dim.Handle()), ds[1].Entity.Handle)
	assert.Equal(t, "Undefined dimstyle: ISO-25", ds[1].Message)
}

func TestInvalidLayerName(t *testing.T) {
	b := dxftest.Modern()
	b.Entity("LINE", dxftest.Layer("Walls:Exterior"))
	b.Entry(dxf.TableLayers, "bad*name")
	a := mustRun(t, b.Build())

	got := slices.Collect(a.Filter(diag.InvalidLayerName))
	require.Len(t, got, 2)
	// the layers table is audited before the database walk
	assert.Equal(t, "LAYER", got[0].Entity.DXFType)
	assert.Equal(t, "Invalid layer name: bad*name", got[0].Message)
	assert.Equal(t, "LINE", got[1].Entity.DXFType)

	t.Run("custom validator", func(t *testing.T) {
		a := mustRun(t, b.Build(), WithLayerNameValidator(func(string) bool { return true }))
		assert.Zero(t, a.Sink().Count(diag.InvalidLayerName))

		b := dxftest.Modern()
		b.Entry(dxf.TableLayers, "Walls")
		a = mustRun(t, b.Build(), WithLayerNameValidator(func(name string) bool { return name == "0" }))
		got := slices.Collect(a.Filter(diag.InvalidLayerName))
		require.Len(t, got, 1)
		assert.Equal(t, "Invalid layer name: Walls", got[0].Message)
	})
}

func TestOwnerHandle(t *testing.T) {
	b := dxftest.Modern()
	orphan := b.Entity("LINE", dxftest.Owner("ABCD"))
	a := mustRun(t, b.Build())

	owners := slices.Collect(a.Filter(diag.InvalidOwnerHandle))
	require.Len(t, owners, 1)
	assert.Equal(t, string(orphan.Handle()), owners[0].Entity.Handle)
	assert.Equal(t, "Invalid owner handle: #ABCD", owners[0].Message)
	// the owner is also a 330 pointer tag
	assert.Equal(t, 1, a.Sink().Count(diag.PointerTargetNotExists))

	t.Run("null owner", func(t *testing.T) {
		b := dxftest.Modern()
		line := b.Entity("LINE", dxftest.Owner(dxf.NullHandle))
		for _, strict := range []bool{false, true} {
			a := mustRun(t, b.Build(), WithStrictZeroPointers(strict))
			owners := slices.Collect(a.Filter(diag.InvalidOwnerHandle))
			require.Len(t, owners, 1, "strict=%v", strict)
			assert.Equal(t, string(line.Handle()), owners[0].Entity.Handle)
			assert.Equal(t, "Invalid owner handle: #0", owners[0].Message)
		}
	})

	t.Run("top level objects have no owner", func(t *testing.T) {
		doc := dxftest.Modern().Build()
		root := doc.RootDict()
		assert.False(t, root.Supports(dxf.AttrOwner))
		assert.False(t, doc.Layers().Head().Supports(dxf.AttrOwner))
		a := mustRun(t, doc, WithStrictZeroPointers(true))
		assert.True(t, a.Empty(), "%v", a.Diagnostics())
	})

	t.Run("unowned record without model space", func(t *testing.T) {
		b := dxftest.New(dxf.R2000)
		b.RootDict(dxf.RequiredRootDictEntries...)
		b.Entity("LINE")
		a := mustRun(t, b.Build())
		assert.Equal(t, []diag.Code{diag.InvalidOwnerHandle}, codes(a))
	})

	t.Run("legacy records have no owner", func(t *testing.T) {
		b := dxftest.Legacy()
		b.Entity("LINE", dxftest.Owner("ABCD"))
		a := mustRun(t, b.Build())
		assert.True(t, a.Empty())
	})
}

func TestRootDict(t *testing.T) {
	t.Run("modern missing ACAD_GROUP", func(t *testing.T) {
		b := dxftest.New(dxf.R2000)
		root := b.RootDict("ACAD_PLOTSTYLENAME")
		a := mustRun(t, b.Build())

		got := slices.Collect(a.Filter(diag.MissingRequiredRootDictEntry))
		require.Len(t, got, 1)
		assert.Equal(t, string(root.Handle()), got[0].Entity.Handle)
		assert.Equal(t, "DICTIONARY", got[0].Entity.DXFType)
		assert.Equal(t, "Missing root dict entry: ACAD_GROUP", got[0].Message)
		assert.Equal(t, "ACAD_GROUP", got[0].Data)

		e, ok := a.Resolve(got[0])
		require.True(t, ok)
		assert.Equal(t, root.Handle(), e.Handle())
	})

	t.Run("modern with empty root dict", func(t *testing.T) {
		b := dxftest.New(dxf.R2018)
		b.RootDict()
		a := mustRun(t, b.Build())
		assert.Equal(t, 2, a.Sink().Count(diag.MissingRequiredRootDictEntry))
	})

	t.Run("legacy never checks", func(t *testing.T) {
		b := dxftest.New(dxf.R12)
		b.RootDict()
		a := mustRun(t, b.Build())
		assert.True(t, a.Empty())

		a = mustRun(t, dxftest.Legacy().Build())
		assert.True(t, a.Empty())
	})
}

func TestTablesAreAuditedInOrder(t *testing.T) {
	b := dxftest.Modern()
	b.Entry(dxf.TableBlockRecords, "*U1", dxftest.Owner("1"))
	b.Entry(dxf.TableStyles, "Romans", dxftest.Owner("2"))
	b.Entry(dxf.TableLayers, "L1", dxftest.Owner("3"))
	a := mustRun(t, b.Build())

	var tableFindings []string
	for _, d := range a.Diagnostics() {
		if d.Code == diag.InvalidOwnerHandle && strings.HasPrefix(d.Message, "Table entry") {
			tableFindings = append(tableFindings, d.Entity.DXFType)
		}
	}
	assert.Equal(t, []string{"LAYER", "STYLE", "BLOCK_RECORD"}, tableFindings)
}

func TestRunIsDeterministic(t *testing.T) {
	b := dxftest.Modern()
	b.Entity("LINE", dxftest.Color(300), dxftest.Pointer(340, "F00"))
	b.Entity("TEXT", dxftest.Style("X"), dxftest.Layer("a|b"))
	b.Entity("LINE", dxftest.Pointer(340, "F00"), dxftest.Linetype("HIDDEN"))
	a := New(b.Build())

	require.NoError(t, a.Run())
	first := a.Diagnostics()
	require.NotEmpty(t, first)

	require.NoError(t, a.Run())
	assert.Equal(t, first, a.Diagnostics())

	a.Sink().Reset()
	require.NoError(t, a.Run())
	assert.Equal(t, first, a.Diagnostics())
}

func TestRuleOrderWithinEntity(t *testing.T) {
	b := dxftest.Modern()
	b.Entity("TEXT",
		dxftest.Linetype("HIDDEN"),
		dxftest.Style("Nope"),
		dxftest.Layer("x?"),
		dxftest.Color(-1),
		dxftest.Owner("BEEF"),
	)
	a := mustRun(t, b.Build())
	assert.Equal(t, []diag.Code{
		diag.UndefinedLinetype,
		diag.UndefinedTextStyle,
		diag.InvalidLayerName,
		diag.InvalidColorIndex,
		diag.InvalidOwnerHandle,
		diag.PointerTargetNotExists,
	}, codes(a))
}

func TestBrokenDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  *dxf.Document
	}{
		{"nil document", nil},
		{"no database", dxf.NewDocument(dxf.R12, nil, dxf.NewTables(), nil)},
		{"modern without root", dxf.NewDocument(dxf.R2000, dxf.NewEntityDB(), dxf.NewTables(), nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Run(tt.doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrBrokenDocument))
			assert.True(t, a.Empty())
		})
	}
}

func TestTimerRecordsPhases(t *testing.T) {
	tm := observ.NewTimer()
	mustRun(t, dxftest.Modern().Build(), WithTimer(tm))
	var names []string
	for _, p := range tm.Report().Phases {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"root_dict", "tables", "entities"}, names)

	tm.Reset()
	mustRun(t, dxftest.Legacy().Build(), WithTimer(tm))
	names = names[:0]
	for _, p := range tm.Report().Phases {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"tables", "entities"}, names)
}

type countingReporter struct{ n int }

func (c *countingReporter) AddError(diag.Code, string, dxf.Entity, any) { c.n++ }

func TestAuditorIsTableReporter(t *testing.T) {
	var _ dxf.Reporter = (*Auditor)(nil)
	var _ dxf.LayerNameValidator = (*Auditor)(nil)

	b := dxftest.Modern()
	b.Entry(dxf.TableLayers, "x=y")
	doc := b.Build()
	rep := &countingReporter{}
	doc.Layers().Audit(rep)
	assert.Equal(t, 1, rep.n)
}
