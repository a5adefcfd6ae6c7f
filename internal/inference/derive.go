package inference

import (
	"martianoff/cshape/internal/ctypes"
	"martianoff/cshape/internal/frontend"
)

// determineType derives the candidate type of an expression from its shape or
// its apparent type. It returns ok=false when the answer is a fallback for an
// expression whose own type may still become known; callers then record a
// promise over the expression instead.
func (e *Engine) determineType(hint string, id frontend.NodeID) (ctypes.Type, bool) {
	n := e.prog.Node(id)
	if n == nil {
		return ctypes.Pointer, true
	}
	switch n.Kind {
	case frontend.KindObjectLiteral:
		return e.objectType(hint, n), true
	case frontend.KindArrayLiteral:
		return e.arrayType(n), true
	}
	if e.defers(id) {
		return nil, false
	}
	a := e.prog.ApparentType(id)
	t := e.convert(hint, a)
	if t == ctypes.Universal {
		e.info(id, "no static type for %q (%s), using %s", e.prog.Text(id), a, ctypes.Universal)
	}
	return t, true
}

// defers reports whether the type of id must come from the resolved state of
// what it reads. Identifiers, accesses and calls defer when their apparent type
// is a fallback, and always for arrays and objects, whose layout (capacity,
// added properties) only the referenced variable or function knows.
func (e *Engine) defers(id frontend.NodeID) bool {
	n := e.prog.Node(id)
	if n == nil {
		return false
	}
	switch n.Kind {
	case frontend.KindIdentifier, frontend.KindPropertyAccess, frontend.KindElementAccess, frontend.KindCall:
	default:
		return false
	}
	a := e.prog.ApparentType(id)
	switch a.Kind {
	case frontend.ApparentArray, frontend.ApparentObject:
		return true
	}
	return ctypes.IsFallback(e.convert("", a))
}

// objectType registers the record of an object literal.
func (e *Engine) objectType(hint string, n *frontend.Node) ctypes.Type {
	if t, ok := e.literals[n.ID]; ok {
		return t
	}
	if e.building.Contains(n.ID) {
		return ctypes.Pointer
	}
	e.building.Insert(n.ID)
	defer e.building.Remove(n.ID)

	props := make([]ctypes.Property, 0, len(n.List))
	for _, pid := range n.List {
		prop := e.prog.Node(pid)
		if prop.Kind != frontend.KindProperty || prop.Name == "" || prop.Unsupported {
			continue
		}
		props = append(props, ctypes.Property{Name: prop.Name, Type: e.propertyType(prop.Name, prop.Expr)})
	}
	rec := e.reg.Register(hint, props)
	e.literals[n.ID] = rec
	return rec
}

// propertyType is the type of a property value inside a literal. Nested empty
// collections and deferred values stay unknown until a write refines them.
func (e *Engine) propertyType(name string, value frontend.NodeID) ctypes.Type {
	vn := e.prog.Node(value)
	if vn == nil || vn.Kind == frontend.KindFunction {
		return ctypes.Pointer
	}
	if (vn.Kind == frontend.KindObjectLiteral || vn.Kind == frontend.KindArrayLiteral) && len(vn.List) == 0 {
		return ctypes.Pointer
	}
	t, ok := e.determineType(name, value)
	if !ok {
		return ctypes.Pointer
	}
	return t
}

// arrayType builds a fixed array from the first element and the literal length.
func (e *Engine) arrayType(n *frontend.Node) ctypes.Type {
	if t, ok := e.literals[n.ID]; ok {
		return t
	}
	if e.building.Contains(n.ID) {
		return ctypes.Pointer
	}
	e.building.Insert(n.ID)
	defer e.building.Remove(n.ID)

	var elem ctypes.Type = ctypes.Pointer
	if len(n.List) > 0 {
		if first := e.prog.Node(n.List[0]); first.Kind != frontend.KindOther {
			if t, ok := e.determineType("", first.ID); ok {
				elem = t
			}
		}
	}
	arr := e.reg.FixedArray(elem, len(n.List))
	e.literals[n.ID] = arr
	return arr
}

// convert maps an apparent type onto a type value.
func (e *Engine) convert(hint string, a frontend.Apparent) ctypes.Type {
	switch a.Kind {
	case frontend.ApparentString:
		return ctypes.String
	case frontend.ApparentNumber:
		return ctypes.Integer
	case frontend.ApparentBoolean:
		return ctypes.Boolean
	case frontend.ApparentVoid:
		return ctypes.Void
	case frontend.ApparentAny:
		return ctypes.Pointer
	case frontend.ApparentObject:
		if len(a.Members) == 0 {
			break
		}
		props := make([]ctypes.Property, 0, len(a.Members))
		for _, m := range a.Members {
			var t ctypes.Type
			if mn := e.prog.Node(m.Node); mn != nil && (mn.Kind == frontend.KindObjectLiteral || mn.Kind == frontend.KindArrayLiteral) {
				t = e.propertyType(m.Name, m.Node)
			} else {
				t = e.convert(m.Name, m.Type)
			}
			props = append(props, ctypes.Property{Name: m.Name, Type: t})
		}
		return e.reg.Register(hint, props)
	case frontend.ApparentArray:
		if a.Elem == nil {
			return ctypes.Pointer
		}
		elem := e.convert("", *a.Elem)
		if ctypes.IsFallback(elem) {
			return ctypes.Pointer
		}
		return e.reg.DynamicArray(elem)
	}
	return ctypes.Universal
}
