package audit

import (
	"fmt"
	"strings"

	"dxfaudit/internal/diag"
	"dxfaudit/internal/dxf"
)

type entityRule func(a *Auditor, e dxf.Entity)

// entityRules run against every record in this order.
var entityRules = []entityRule{
	checkLinetypeExists,
	checkTextStyleExists,
	checkDimStyleExists,
	checkLayerName,
	checkColorIndex,
	checkOwnerExists,
	checkPointerTargets,
}

// checkLinetypeExists: AutoCAD refuses to load files that use undefined
// linetypes. BYLAYER and BYBLOCK need no table entry.
func checkLinetypeExists(a *Auditor, e dxf.Entity) {
	v, ok := e.Get(dxf.AttrLinetype)
	if !ok {
		return
	}
	linetype := v.Str()
	switch strings.ToLower(linetype) {
	case "bylayer", "byblock":
		return
	}
	if a.doc.Linetypes().Contains(linetype) {
		return
	}
	a.AddError(diag.UndefinedLinetype,
		fmt.Sprintf("Undefined linetype: %s", linetype), e, linetype)
}

func checkTextStyleExists(a *Auditor, e dxf.Entity) {
	v, ok := e.Get(dxf.AttrStyle)
	if !ok {
		return
	}
	style := v.Str()
	if a.doc.Styles().Contains(style) {
		return
	}
	a.AddError(diag.UndefinedTextStyle,
		fmt.Sprintf("Undefined text style: %s", style), e, style)
}

func checkDimStyleExists(a *Auditor, e dxf.Entity) {
	v, ok := e.Get(dxf.AttrDimStyle)
	if !ok {
		return
	}
	dimstyle := v.Str()
	if a.doc.DimStyles().Contains(dimstyle) {
		return
	}
	a.AddError(diag.UndefinedDimensionStyle,
		fmt.Sprintf("Undefined dimstyle: %s", dimstyle), e, dimstyle)
}

func checkLayerName(a *Auditor, e dxf.Entity) {
	v, ok := e.Get(dxf.AttrLayer)
	if !ok {
		return
	}
	name := v.Str()
	if a.validLayer(name) {
		return
	}
	a.AddError(diag.InvalidLayerName,
		fmt.Sprintf("Invalid layer name: %s", name), e, name)
}

// checkColorIndex: 0 (BYBLOCK) and 256 (BYLAYER) are valid ACI values.
func checkColorIndex(a *Auditor, e dxf.Entity) {
	v, ok := e.Get(dxf.AttrColor)
	if !ok {
		return
	}
	color := v.Int()
	if color >= dxf.ColorByBlock && color <= dxf.ColorByLayer {
		return
	}
	a.AddError(diag.InvalidColorIndex,
		fmt.Sprintf("Invalid color index: %d", color), e, color)
}

// checkOwnerExists reports owners missing from the database, "0" included.
// Top level objects (root dictionary, table heads) carry no owner.
func checkOwnerExists(a *Auditor, e dxf.Entity) {
	v, ok := e.Get(dxf.AttrOwner)
	if !ok {
		return
	}
	owner := dxf.NormalizeHandle(v.Str())
	if a.doc.EntityDB().Contains(owner) {
		return
	}
	a.AddError(diag.InvalidOwnerHandle,
		fmt.Sprintf("Invalid owner handle: #%s", owner), e, string(owner))
}

// checkPointerTargets reports every missing pointer target once per run,
// attributed to the first record that points at it.
func checkPointerTargets(a *Auditor, e dxf.Entity) {
	db := a.doc.EntityDB()
	for target := range e.Tags().Pointers() {
		if db.Contains(target) {
			continue
		}
		if target.IsNull() && !a.strictZero {
			continue
		}
		if a.sink.HasReportedTarget(string(target)) {
			continue
		}
		a.AddError(diag.PointerTargetNotExists,
			fmt.Sprintf("Pointer target does not exist: #%s", target), e, string(target))
		a.sink.MarkTargetReported(string(target))
	}
}
