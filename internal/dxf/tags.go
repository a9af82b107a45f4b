package dxf

import "iter"

// Tag is one (group code, value) pair of a record.
type Tag struct {
	Code  int
	Value string
}

// Tags is the ordered raw tag sequence of a record.
type Tags []Tag

// IsPointerCode reports whether values of the group code are handles of other
// records: 320-369 (soft/hard pointers and owners), 390-399, 480-481 and the
// extended-data handle 1005.
func IsPointerCode(code int) bool {
	switch {
	case code >= 320 && code <= 369:
		return true
	case code >= 390 && code <= 399:
		return true
	case code == 480, code == 481, code == 1005:
		return true
	}
	return false
}

// Pointers yields the values of all pointer-valued tags in order.
func (t Tags) Pointers() iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		for _, tag := range t {
			if !IsPointerCode(tag.Code) {
				continue
			}
			if !yield(NormalizeHandle(tag.Value)) {
				return
			}
		}
	}
}

// Find returns the first tag with the given code.
func (t Tags) Find(code int) (Tag, bool) {
	for _, tag := range t {
		if tag.Code == code {
			return tag, true
		}
	}
	return Tag{}, false
}
