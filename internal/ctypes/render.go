package ctypes

import (
	"strings"

	"martianoff/cshape/cshapeerr"
)

// Render returns the text of t as it appears in emitted declarations.
// Array declarators contain a "{var}" placeholder for the variable name.
// Rendering anything outside the closed set of type values is an invariant
// violation and panics.
func Render(t Type) string {
	switch v := t.(type) {
	case *Primitive:
		if v == nil {
			break
		}
		return v.String()
	case *FixedArray:
		if v == nil {
			break
		}
		return v.String()
	case *DynamicArray:
		if v == nil {
			break
		}
		return v.String()
	case *Map:
		if v == nil {
			break
		}
		return v.String()
	case *Record:
		if v == nil {
			break
		}
		return v.String()
	}
	panic(cshapeerr.NewInternalError("cannot render type value %#v", t))
}

// Declare renders a declaration of name with type t.
func Declare(t Type, name string) string {
	text := Render(t)
	if strings.Contains(text, "{var}") {
		return strings.ReplaceAll(text, "{var}", name)
	}
	if strings.HasSuffix(text, "*") {
		return text + name
	}
	return text + " " + name
}
