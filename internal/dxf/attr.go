package dxf

import (
	"strconv"
	"strings"
)

// Attr names a DXF attribute a record may support.
type Attr string

const (
	AttrHandle   Attr = "handle"
	AttrOwner    Attr = "owner"
	AttrName     Attr = "name"
	AttrLayer    Attr = "layer"
	AttrLinetype Attr = "linetype"
	AttrStyle    Attr = "style"
	AttrDimStyle Attr = "dimstyle"
	AttrColor    Attr = "color"
)

// Group codes the attributes are stored under.
var attrGroupCode = map[Attr]int{
	AttrHandle:   5,
	AttrOwner:    330,
	AttrName:     2,
	AttrLayer:    8,
	AttrLinetype: 6,
	AttrStyle:    7,
	AttrDimStyle: 3,
	AttrColor:    62,
}

// GroupCode returns the group code of the attribute, or -1.
func (a Attr) GroupCode() int {
	if c, ok := attrGroupCode[a]; ok {
		return c
	}
	return -1
}

// Value is an attribute value: a string or an integer.
type Value struct {
	s   string
	i   int
	num bool
}

func StringValue(s string) Value { return Value{s: s} }

func IntValue(i int) Value { return Value{i: i, num: true} }

func (v Value) IsInt() bool { return v.num }

// Str returns the value as text; integers are formatted in base 10.
func (v Value) Str() string {
	if v.num {
		return strconv.Itoa(v.i)
	}
	return v.s
}

// Int returns the integer value; text values are parsed, 0 on failure.
func (v Value) Int() int {
	if v.num {
		return v.i
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.s))
	if err != nil {
		return 0
	}
	return n
}

func (v Value) String() string { return v.Str() }
