package inference

import (
	"martianoff/cshape/internal/ctypes"
	"martianoff/cshape/internal/frontend"
)

var stringResultMethods = map[string]bool{
	"charAt":      true,
	"substring":   true,
	"substr":      true,
	"slice":       true,
	"toUpperCase": true,
	"toLowerCase": true,
	"trim":        true,
	"concat":      true,
}

// typeOf returns the current type of an expression from the state resolved so
// far, or nil while it is still unknown. It never records evidence.
func (e *Engine) typeOf(id frontend.NodeID) ctypes.Type {
	t := e.currentType(id)
	if ctypes.IsFallback(t) {
		return nil
	}
	return t
}

func (e *Engine) currentType(id frontend.NodeID) ctypes.Type {
	n := e.prog.Node(id)
	if n == nil {
		return nil
	}
	switch n.Kind {
	case frontend.KindString, frontend.KindTemplate:
		return ctypes.String
	case frontend.KindNumber:
		return ctypes.Integer
	case frontend.KindBoolean:
		return ctypes.Boolean
	case frontend.KindObjectLiteral, frontend.KindArrayLiteral:
		if t, ok := e.literals[id]; ok {
			return t
		}
		t, _ := e.determineType("", id)
		return t
	case frontend.KindIdentifier, frontend.KindVarDecl, frontend.KindParameter:
		if v := e.varOf(id); v != nil {
			return v.winner
		}
		if n.Kind == frontend.KindIdentifier && e.prog.Declaration(id) != frontend.NoNode {
			return nil
		}
	case frontend.KindFunction:
		if fs := e.byFunc[id]; fs != nil {
			return fs.returnType()
		}
	case frontend.KindElementAccess:
		return e.elementType(n)
	case frontend.KindPropertyAccess:
		return e.propertyAccessType(n)
	case frontend.KindCall:
		return e.callType(n)
	case frontend.KindAssign:
		if n.Value == "=" {
			return e.currentType(n.Expr)
		}
	case frontend.KindBinary:
		if t := e.binaryType(n); t != nil {
			return t
		}
	}
	t, _ := e.quietType(id)
	return t
}

// quietType converts the apparent type of id without reporting diagnostics.
func (e *Engine) quietType(id frontend.NodeID) (ctypes.Type, bool) {
	t := e.convert("", e.prog.ApparentType(id))
	return t, !ctypes.IsFallback(t)
}

// binaryType types arithmetic and concatenation over resolved operands.
func (e *Engine) binaryType(n *frontend.Node) ctypes.Type {
	switch n.Value {
	case "+":
		l, r := e.currentType(n.Target), e.currentType(n.Expr)
		if l == ctypes.String || r == ctypes.String {
			return ctypes.String
		}
		if l == ctypes.Integer && r == ctypes.Integer {
			return ctypes.Integer
		}
	case "-", "*", "/", "%", "**", "<<", ">>", ">>>", "&", "|", "^":
		return ctypes.Integer
	case "<", ">", "<=", ">=", "==", "!=", "===", "!==", "in", "instanceof":
		return ctypes.Boolean
	}
	return nil
}

func (e *Engine) elementType(n *frontend.Node) ctypes.Type {
	recv := e.currentType(n.Target)
	switch r := recv.(type) {
	case *ctypes.Record:
		if key := e.prog.Node(n.Expr); key != nil && key.Kind == frontend.KindString {
			if t, ok := r.Property(key.Value); ok {
				return t
			}
		}
		return nil
	case *ctypes.Primitive:
		if r == ctypes.String {
			return ctypes.String
		}
		return nil
	}
	if elem, ok := ctypes.ElementType(recv); ok {
		return elem
	}
	t, _ := e.quietType(n.ID)
	return t
}

func (e *Engine) propertyAccessType(n *frontend.Node) ctypes.Type {
	recv := e.currentType(n.Target)
	if n.Name == "length" && (recv == ctypes.String || ctypes.IsArray(recv)) {
		return ctypes.Integer
	}
	if rec, ok := recv.(*ctypes.Record); ok {
		if t, ok := rec.Property(n.Name); ok {
			return t
		}
		return nil
	}
	t, _ := e.quietType(n.ID)
	return t
}

func (e *Engine) callType(n *frontend.Node) ctypes.Type {
	callee := e.prog.Node(n.Target)
	if callee == nil {
		return nil
	}
	if callee.Kind == frontend.KindPropertyAccess {
		recv := e.currentType(callee.Target)
		switch {
		case ctypes.IsArray(recv):
			switch callee.Name {
			case "pop", "shift":
				elem, _ := ctypes.ElementType(recv)
				return elem
			case "push", "unshift", "indexOf", "lastIndexOf":
				return ctypes.Integer
			}
		case recv == ctypes.String:
			if callee.Name == "indexOf" || callee.Name == "lastIndexOf" {
				return ctypes.Integer
			}
			if stringResultMethods[callee.Name] {
				return ctypes.String
			}
		}
		t, _ := e.quietType(n.ID)
		return t
	}
	if fs := e.byFunc[e.prog.FunctionOf(callee.ID)]; fs != nil {
		return fs.returnType()
	}
	t, _ := e.quietType(n.ID)
	return t
}

// returnType is the resolved return type, void for functions that never
// return a value, or nil while pending. A returned record stays pending until
// its deferred properties settle.
func (fs *funcState) returnType() ctypes.Type {
	if fs.ret != nil {
		if fs.shaping() {
			return nil
		}
		return fs.ret
	}
	if !fs.valued {
		return ctypes.Void
	}
	return nil
}

func (fs *funcState) shaping() bool {
	for _, p := range fs.retProps {
		if !p.resolved {
			return true
		}
	}
	return false
}
