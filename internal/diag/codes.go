package diag

import (
	"fmt"
	"strings"
)

// Code identifies the kind of a structural problem found by the auditor.
// The set is closed: every diagnostic carries one of the constants below.
type Code uint16

const (
	// UnknownCode is never emitted; it is the zero value of Code.
	UnknownCode Code = 0

	// Root dictionary
	MissingRequiredRootDictEntry Code = 1

	// Name references into tables
	UndefinedLinetype       Code = 2
	UndefinedTextStyle      Code = 3
	UndefinedDimensionStyle Code = 4

	// Attribute values
	InvalidLayerName  Code = 5
	InvalidColorIndex Code = 6

	// Handle references
	InvalidOwnerHandle     Code = 7
	PointerTargetNotExists Code = 8
)

// Codes lists every emitted code in ID order.
var Codes = []Code{
	MissingRequiredRootDictEntry,
	UndefinedLinetype,
	UndefinedTextStyle,
	UndefinedDimensionStyle,
	InvalidLayerName,
	InvalidColorIndex,
	InvalidOwnerHandle,
	PointerTargetNotExists,
}

var (
	codeName = map[Code]string{
		UnknownCode:                  "UNKNOWN",
		MissingRequiredRootDictEntry: "MISSING_REQUIRED_ROOT_DICT_ENTRY",
		UndefinedLinetype:            "UNDEFINED_LINETYPE",
		UndefinedTextStyle:           "UNDEFINED_TEXT_STYLE",
		UndefinedDimensionStyle:      "UNDEFINED_DIMENSION_STYLE",
		InvalidLayerName:             "INVALID_LAYER_NAME",
		InvalidColorIndex:            "INVALID_COLOR_INDEX",
		InvalidOwnerHandle:           "INVALID_OWNER_HANDLE",
		PointerTargetNotExists:       "POINTER_TARGET_NOT_EXISTS",
	}

	codeDescription = map[Code]string{
		UnknownCode:                  "Unknown issue",
		MissingRequiredRootDictEntry: "Required root dictionary entry is missing",
		UndefinedLinetype:            "Linetype is not defined in the LTYPE table",
		UndefinedTextStyle:           "Text style is not defined in the STYLE table",
		UndefinedDimensionStyle:      "Dimension style is not defined in the DIMSTYLE table",
		InvalidLayerName:             "Layer name contains invalid characters",
		InvalidColorIndex:            "Color index outside of 0..256",
		InvalidOwnerHandle:           "Owner handle does not resolve",
		PointerTargetNotExists:       "Pointer target does not exist",
	}
)

// ID returns the stable short identifier, e.g. "AUD0008".
func (c Code) ID() string {
	if _, ok := codeName[c]; !ok || c == UnknownCode {
		return "AUD0000"
	}
	return fmt.Sprintf("AUD%04d", uint16(c))
}

// Title returns a one-line description of the code.
func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

// String returns the upper-snake name, e.g. "POINTER_TARGET_NOT_EXISTS".
func (c Code) String() string {
	name, ok := codeName[c]
	if !ok {
		return codeName[UnknownCode]
	}
	return name
}

// ParseCode accepts either the name ("INVALID_COLOR_INDEX", any case) or the
// ID ("AUD0006").
func ParseCode(s string) (Code, error) {
	s = strings.TrimSpace(s)
	for _, c := range Codes {
		if strings.EqualFold(s, c.String()) || strings.EqualFold(s, c.ID()) {
			return c, nil
		}
	}
	return UnknownCode, fmt.Errorf("unknown diagnostic code: %q", s)
}
