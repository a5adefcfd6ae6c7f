// Package ctypes models the static target types the inference engine
// assigns to source variables: primitives, fixed and dynamic arrays,
// string-keyed dictionaries and structurally deduplicated records.
package ctypes

import (
	"fmt"
	"strings"
)

// Type is a target type value. The set of implementations is closed.
type Type interface {
	fmt.Stringer
	// Key is the identity form: two types are the same iff their keys are equal.
	Key() string
	isType()
}

// PrimitiveKind enumerates scalar and fallback types.
type PrimitiveKind int

const (
	KindString PrimitiveKind = iota
	KindInteger
	KindBoolean
	KindVoid
	KindPointer
	KindUniversal
)

// Primitive is a scalar type or one of the two fallback markers.
type Primitive struct {
	Kind PrimitiveKind
}

var (
	String  = &Primitive{Kind: KindString}
	Integer = &Primitive{Kind: KindInteger}
	Boolean = &Primitive{Kind: KindBoolean}
	Void    = &Primitive{Kind: KindVoid}

	// Pointer is the opaque "unknown yet" marker.
	Pointer = &Primitive{Kind: KindPointer}
	// Universal needs a tagged runtime value because no static type was derivable.
	Universal = &Primitive{Kind: KindUniversal}
)

func (p *Primitive) String() string {
	switch p.Kind {
	case KindString:
		return "const char *"
	case KindInteger:
		return "int16_t"
	case KindBoolean:
		return "uint8_t"
	case KindVoid:
		return "void"
	case KindPointer:
		return "void *"
	case KindUniversal:
		return "struct js_var"
	}
	return fmt.Sprintf("primitive(%d)", int(p.Kind))
}

func (p *Primitive) Key() string { return p.String() }
func (p *Primitive) isType()     {}

// FixedArray is an array whose capacity is known at construction.
type FixedArray struct {
	Elem     Type
	Capacity int
}

func (a *FixedArray) String() string { return render(a, false) }
func (a *FixedArray) Key() string    { return render(a, true) }
func (a *FixedArray) isType()        {}

// DynamicArray is a heap-growable array.
type DynamicArray struct {
	Elem Type
}

func (a *DynamicArray) String() string { return render(a, false) }
func (a *DynamicArray) Key() string    { return render(a, true) }
func (a *DynamicArray) isType()        {}

// Map is a homogeneous dictionary keyed by arbitrary strings.
type Map struct {
	Elem Type
}

func (m *Map) String() string { return render(m, false) }
func (m *Map) Key() string    { return render(m, true) }
func (m *Map) isType()        {}

// Property is one named field of a record.
type Property struct {
	Name string
	Type Type
}

// Record is a named product type. Records are created through a Registry,
// which guarantees one Record per canonical property list.
type Record struct {
	id    int
	hint  string
	name  string
	Props []Property
}

// ID returns the registration ordinal, starting at 1.
func (r *Record) ID() int { return r.id }

// Hint returns the identifier the record was first registered for, if any.
func (r *Record) Hint() string { return r.hint }

// Name returns the struct name. Before Registry.Finalize it is provisional.
func (r *Record) Name() string {
	if r.name != "" {
		return r.name
	}
	if r.hint != "" {
		return r.hint + "_t"
	}
	return fmt.Sprintf("struct_%d_t", r.id)
}

// Property looks up a property type by name.
func (r *Record) Property(name string) (Type, bool) {
	for _, p := range r.Props {
		if p.Name == name {
			return p.Type, true
		}
	}
	return nil, false
}

// Empty reports whether the record has no properties.
func (r *Record) Empty() bool { return len(r.Props) == 0 }

func (r *Record) String() string { return render(r, false) }
func (r *Record) Key() string    { return render(r, true) }
func (r *Record) isType()        {}

// IsFallback reports whether t carries no usable static information:
// nil, the opaque pointer marker or the universal value.
func IsFallback(t Type) bool {
	if t == nil {
		return true
	}
	p, ok := t.(*Primitive)
	return ok && (p.Kind == KindPointer || p.Kind == KindUniversal)
}

// Same compares two types by identity key.
func Same(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// ElementType returns the element type of arrays and maps.
func ElementType(t Type) (Type, bool) {
	switch v := t.(type) {
	case *FixedArray:
		return v.Elem, true
	case *DynamicArray:
		return v.Elem, true
	case *Map:
		return v.Elem, true
	}
	return nil, false
}

// IsArray reports whether t is a fixed or dynamic array.
func IsArray(t Type) bool {
	switch t.(type) {
	case *FixedArray, *DynamicArray:
		return true
	}
	return false
}

// RequiresAllocation reports whether values of t always live on the heap.
// Records depend on how their owner was constructed and report false here.
func RequiresAllocation(t Type) bool {
	switch t.(type) {
	case *DynamicArray, *Map:
		return true
	}
	return false
}

func render(t Type, keyed bool) string {
	switch v := t.(type) {
	case *Primitive:
		return v.String()
	case *FixedArray:
		elem := renderElem(v.Elem, keyed)
		if strings.Contains(elem, "{var}") {
			return strings.Replace(elem, "{var}", fmt.Sprintf("{var}[%d]", v.Capacity), 1)
		}
		return fmt.Sprintf("static %s {var}[%d]", elem, v.Capacity)
	case *DynamicArray:
		return "ARRAY(" + renderElem(v.Elem, keyed) + ")"
	case *Map:
		return "DICT(" + renderElem(v.Elem, keyed) + ")"
	case *Record:
		if keyed {
			return fmt.Sprintf("struct @%d *", v.id)
		}
		return "struct " + v.Name() + " *"
	}
	return ""
}

func renderElem(t Type, keyed bool) string {
	if t == nil {
		return Pointer.String()
	}
	return render(t, keyed)
}
