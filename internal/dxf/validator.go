package dxf

import "strings"

const invalidLayerNameChars = "<>/\\\":;?*|='"

// IsValidLayerName reports whether name avoids the characters AutoCAD rejects
// in symbol table names: < > / \ " : ; ? * | = '
func IsValidLayerName(name string) bool {
	return !strings.ContainsAny(name, invalidLayerNameChars)
}
