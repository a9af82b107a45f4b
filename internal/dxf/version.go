package dxf

import "strings"

// Version is the $ACADVER marker of a document, e.g. "AC1015".
type Version string

const (
	R12   Version = "AC1009"
	R2000 Version = "AC1015"
	R2004 Version = "AC1018"
	R2007 Version = "AC1021"
	R2010 Version = "AC1024"
	R2013 Version = "AC1027"
	R2018 Version = "AC1032"
)

// LegacyVersion is the newest marker of the pre-R13 format family.
const LegacyVersion = R12

// IsModern reports whether the document belongs to the R13+ family, which has
// owner handles, a root dictionary and a BLOCK_RECORD table. Markers compare
// lexically, "AC1012" > "AC1009".
func (v Version) IsModern() bool {
	return strings.ToUpper(string(v)) > string(LegacyVersion)
}

func (v Version) String() string {
	return string(v)
}
