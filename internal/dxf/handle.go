package dxf

import "strings"

// Handle is the hex identifier of a record inside one document.
type Handle string

// NullHandle is the value of an unset pointer.
const NullHandle Handle = "0"

// NormalizeHandle upper-cases and trims a handle. Leading zeros are kept, so
// only the literal "0" is the null handle.
func NormalizeHandle(s string) Handle {
	return Handle(strings.ToUpper(strings.TrimSpace(s)))
}

func (h Handle) IsNull() bool {
	return h == NullHandle
}

func (h Handle) String() string {
	return string(h)
}
