package dxf

import (
	"slices"
	"strings"
)

// AttrSet is a bit set of supported attributes.
type AttrSet uint16

const (
	hasOwner AttrSet = 1 << iota
	hasName
	hasLayer
	hasLinetype
	hasStyle
	hasDimStyle
	hasColor
)

var attrBit = map[Attr]AttrSet{
	AttrOwner:    hasOwner,
	AttrName:     hasName,
	AttrLayer:    hasLayer,
	AttrLinetype: hasLinetype,
	AttrStyle:    hasStyle,
	AttrDimStyle: hasDimStyle,
	AttrColor:    hasColor,
}

// Has reports whether a is in the set. AttrHandle is always supported.
func (s AttrSet) Has(a Attr) bool {
	if a == AttrHandle {
		return true
	}
	bit, ok := attrBit[a]
	return ok && s&bit != 0
}

// Without returns s minus a.
func (s AttrSet) Without(a Attr) AttrSet {
	return s &^ attrBit[a]
}

// Kind describes one DXF record type: its name, the attributes it supports
// and the default values of supported attributes that were never set.
type Kind struct {
	Name     string
	Attrs    AttrSet
	Defaults map[Attr]Value
}

// Supports reports whether records of this kind carry attribute a.
func (k *Kind) Supports(a Attr) bool {
	return k != nil && k.Attrs.Has(a)
}

const graphic = hasOwner | hasLayer | hasLinetype | hasColor

var graphicDefaults = map[Attr]Value{
	AttrOwner:    StringValue(string(NullHandle)),
	AttrLayer:    StringValue("0"),
	AttrLinetype: StringValue("BYLAYER"),
	AttrColor:    IntValue(ColorByLayer),
	AttrStyle:    StringValue("Standard"),
	AttrDimStyle: StringValue("Standard"),
}

var ownerDefaults = map[Attr]Value{
	AttrOwner: StringValue(string(NullHandle)),
}

var layerEntryDefaults = map[Attr]Value{
	AttrOwner:    StringValue(string(NullHandle)),
	AttrLinetype: StringValue("Continuous"),
	AttrColor:    IntValue(7),
}

var kinds = map[string]*Kind{}

func register(attrs AttrSet, defaults map[Attr]Value, names ...string) {
	for _, n := range names {
		kinds[n] = &Kind{Name: n, Attrs: attrs, Defaults: defaults}
	}
}

func init() {
	register(graphic, graphicDefaults,
		"LINE", "POINT", "CIRCLE", "ARC", "ELLIPSE", "SPLINE",
		"LWPOLYLINE", "POLYLINE", "VERTEX", "SEQEND",
		"SOLID", "TRACE", "3DFACE", "3DSOLID", "BODY", "REGION",
		"HATCH", "INSERT", "IMAGE", "RAY", "XLINE", "MESH", "VIEWPORT", "WIPEOUT")
	register(graphic|hasStyle, graphicDefaults,
		"TEXT", "MTEXT", "ATTRIB", "ATTDEF", "SHAPE")
	register(graphic|hasDimStyle, graphicDefaults,
		"DIMENSION", "LEADER", "TOLERANCE")
	register(hasOwner|hasLayer, graphicDefaults,
		"BLOCK", "ENDBLK")

	register(hasOwner|hasName|hasColor|hasLinetype, layerEntryDefaults, "LAYER")
	// TABLE heads sit directly in the TABLES section and have no owner
	register(hasName, nil, "TABLE")
	register(hasOwner|hasName, ownerDefaults,
		"LTYPE", "STYLE", "DIMSTYLE", "UCS", "APPID", "VIEW", "VPORT", "BLOCK_RECORD")

	register(hasOwner, ownerDefaults,
		"DICTIONARY", "ACDBDICTIONARYWDFLT", "XRECORD", "GROUP", "LAYOUT",
		"PLOTSETTINGS", "MLINESTYLE", "DICTIONARYVAR", "ACDBPLACEHOLDER",
		"LAYER_INDEX", "SPATIAL_INDEX", "SORTENTSTABLE", "MATERIAL", "VISUALSTYLE")
}

// genericKind serves record types without a registered capability set.
var genericKind = &Kind{Name: "", Attrs: hasOwner, Defaults: ownerDefaults}

// LookupKind returns the kind registered for dxftype (case-insensitive).
// Unknown types get a kind that only supports an owner.
func LookupKind(dxftype string) *Kind {
	name := strings.ToUpper(strings.TrimSpace(dxftype))
	if k, ok := kinds[name]; ok {
		return k
	}
	return &Kind{Name: name, Attrs: genericKind.Attrs, Defaults: genericKind.Defaults}
}

// KnownTypes lists the registered record types, sorted.
func KnownTypes() []string {
	out := make([]string, 0, len(kinds))
	for n := range kinds {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// ACI color indices with special meaning.
const (
	ColorByBlock = 0
	ColorByLayer = 256
)
