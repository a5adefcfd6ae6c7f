package inference

import (
	"martianoff/cshape/internal/ctypes"
	"martianoff/cshape/internal/frontend"
)

// collect walks every node once, in pre-order, and records evidence.
func (e *Engine) collect() {
	for _, decl := range e.prog.Declarations() {
		n := e.prog.Node(decl)
		v := &varState{
			decl:    decl,
			name:    n.Name,
			fn:      n.Func,
			param:   n.Kind == frontend.KindParameter,
			ordinal: n.Ordinal,
		}
		if v.param {
			v.fn = n.Parent
		}
		e.vars = append(e.vars, v)
		e.byDecl[decl] = v
	}
	for _, n := range e.prog.Nodes() {
		if n.Kind != frontend.KindFunction {
			continue
		}
		fs := &funcState{node: n.ID, name: n.Name, params: n.List}
		fs.args = make([]slot, len(fs.params))
		e.funcs = append(e.funcs, fs)
		e.byFunc[n.ID] = fs
	}

	for _, n := range e.prog.Nodes() {
		if n.Unsupported {
			e.warn(n.ID, "unsupported construct %s skipped", n.Value)
			continue
		}
		switch n.Kind {
		case frontend.KindVarDecl:
			e.collectDecl(n)
		case frontend.KindParameter:
			if v := e.byDecl[n.ID]; v != nil && n.Expr != frontend.NoNode {
				e.addEvidence(v, n.Expr)
			}
		case frontend.KindForOf, frontend.KindForIn:
			if target := e.prog.Node(n.Target); target != nil && target.Kind == frontend.KindIdentifier {
				if v := e.varOf(target.ID); v != nil {
					e.collectLoopBinding(v, n)
				}
			}
		case frontend.KindAssign:
			e.collectAssign(n)
		case frontend.KindCall:
			e.collectCall(n)
		case frontend.KindReturn:
			e.collectReturn(n)
		case frontend.KindArrayLiteral, frontend.KindObjectLiteral:
			if _, ok := e.literals[n.ID]; !ok {
				e.determineType("", n.ID)
			}
		}
	}
}

func (e *Engine) collectDecl(n *frontend.Node) {
	v := e.varOf(n.ID)
	if v == nil {
		return
	}
	if parent := e.prog.Node(n.Parent); parent != nil && parent.Target == n.ID &&
		(parent.Kind == frontend.KindForOf || parent.Kind == frontend.KindForIn) {
		e.collectLoopBinding(v, parent)
		return
	}
	if n.Expr != frontend.NoNode {
		e.addEvidence(v, n.Expr)
	}
}

func (e *Engine) collectLoopBinding(v *varState, loop *frontend.Node) {
	if loop.Kind == frontend.KindForIn {
		v.addCandidate(ctypes.String)
		return
	}
	v.promises = append(v.promises, &promise{node: loop.Expr, mode: modeElementOf})
}

// addEvidence records the type of an initializer or assigned value.
func (e *Engine) addEvidence(v *varState, expr frontend.NodeID) {
	n := e.prog.Node(expr)
	if n == nil || n.Kind == frontend.KindFunction {
		return
	}
	if n.Kind == frontend.KindObjectLiteral {
		v.objLiteral = true
		for _, pid := range n.List {
			prop := e.prog.Node(pid)
			if prop.Kind != frontend.KindProperty || prop.Name == "" || prop.Unsupported {
				continue
			}
			if e.selfRef(v, prop.Expr) {
				continue
			}
			if e.defers(prop.Expr) {
				v.promises = append(v.promises, &promise{node: prop.Expr, property: prop.Name})
			}
		}
	}
	t, ok := e.determineType(v.name, expr)
	if !ok {
		v.promises = append(v.promises, &promise{node: expr})
		return
	}
	v.addCandidate(t)
}

func (e *Engine) collectAssign(n *frontend.Node) {
	if n.Value != "=" {
		return
	}
	target := e.prog.Node(n.Target)
	if target == nil {
		return
	}
	switch target.Kind {
	case frontend.KindIdentifier:
		if v := e.varOf(target.ID); v != nil {
			e.addEvidence(v, n.Expr)
		}
	case frontend.KindPropertyAccess:
		if v := e.ownerOf(target.Target); v != nil {
			e.addProperty(v, target.Name, n.Expr)
		}
	case frontend.KindElementAccess:
		v := e.ownerOf(target.Target)
		if v == nil {
			return
		}
		key := e.prog.Node(target.Expr)
		switch {
		case key == nil:
		case key.Kind == frontend.KindString:
			e.addProperty(v, key.Value, n.Expr)
		case key.Kind == frontend.KindNumber || e.prog.ApparentType(key.ID).Kind == frontend.ApparentNumber:
			e.elementWrite(v, n.Expr)
		default:
			e.dictWrite(v, n.Expr)
		}
	}
}

// selfRef reports whether value reads v itself.
func (e *Engine) selfRef(v *varState, value frontend.NodeID) bool {
	return e.ownerOf(value) == v
}

// ownerOf returns the variable an identifier expression refers to.
func (e *Engine) ownerOf(id frontend.NodeID) *varState {
	n := e.prog.Node(id)
	if n == nil || n.Kind != frontend.KindIdentifier {
		return nil
	}
	return e.varOf(id)
}

func (e *Engine) addProperty(v *varState, name string, value frontend.NodeID) {
	if v.isDict {
		e.dictWrite(v, value)
		return
	}
	if e.selfRef(v, value) {
		v.setSelf(name)
		return
	}
	t, ok := e.determineType(name, value)
	if !ok {
		v.reserve(name)
		v.promises = append(v.promises, &promise{node: value, property: name})
		return
	}
	v.setAdded(name, t)
}

func (e *Engine) elementWrite(v *varState, value frontend.NodeID) {
	t, ok := e.determineType("", value)
	if !ok {
		v.promises = append(v.promises, &promise{node: value, mode: modeIndexed})
		return
	}
	e.refineElements(v, t)
}

// refineElements gives array candidates with an unknown element type the
// element type t. An empty fixed array written by index becomes dynamic.
func (e *Engine) refineElements(v *varState, t ctypes.Type) bool {
	if ctypes.IsFallback(t) {
		return false
	}
	changed := false
	for i, c := range v.candidates {
		switch a := c.(type) {
		case *ctypes.FixedArray:
			if !ctypes.IsFallback(a.Elem) {
				continue
			}
			if a.Capacity == 0 {
				v.candidates[i] = e.reg.DynamicArray(t)
			} else {
				v.candidates[i] = e.reg.FixedArray(t, a.Capacity)
			}
			changed = true
		case *ctypes.DynamicArray:
			if ctypes.IsFallback(a.Elem) {
				v.candidates[i] = e.reg.DynamicArray(t)
				changed = true
			}
		}
	}
	return changed
}

// dictWrite converts v into a dictionary. Record candidates and every property
// recorded so far are dropped.
func (e *Engine) dictWrite(v *varState, value frontend.NodeID) {
	if !v.isDict {
		v.isDict = true
		v.added = nil
		for _, p := range v.promises {
			if p.property != "" {
				p.resolved = true
			}
		}
		kept := v.candidates[:0]
		for _, c := range v.candidates {
			if _, ok := c.(*ctypes.Record); !ok {
				kept = append(kept, c)
			}
		}
		v.candidates = kept
	}
	t, ok := e.determineType("", value)
	if !ok {
		v.promises = append(v.promises, &promise{node: value, mode: modeMapOf})
		return
	}
	v.addCandidate(e.reg.Map(t))
}

func (e *Engine) collectCall(n *frontend.Node) {
	callee := e.prog.Node(n.Target)
	if callee == nil {
		return
	}
	if callee.Kind == frontend.KindPropertyAccess {
		e.collectMethodCall(n, callee)
		return
	}
	fs := e.byFunc[e.prog.FunctionOf(callee.ID)]
	if fs == nil {
		return
	}
	fs.calls++
	for i, arg := range n.List {
		if i >= len(fs.args) {
			break
		}
		hint := e.prog.Node(fs.params[i]).Name
		t, ok := e.determineType(hint, arg)
		if !ok {
			fs.args[i].promises = append(fs.args[i].promises, &promise{node: arg})
			continue
		}
		if fs.args[i].typ == nil && !ctypes.IsFallback(t) {
			fs.args[i].typ = t
		}
	}
}

func (e *Engine) collectMethodCall(n, callee *frontend.Node) {
	switch callee.Name {
	case "push", "unshift":
		var arg frontend.NodeID
		if len(n.List) > 0 {
			arg = n.List[0]
		}
		if v := e.ownerOf(callee.Target); v != nil {
			e.pushTo(v, arg)
			return
		}
		// x.prop.push(value)
		recv := e.prog.Node(callee.Target)
		if recv == nil || recv.Kind != frontend.KindPropertyAccess || arg == frontend.NoNode {
			return
		}
		v := e.ownerOf(recv.Target)
		if v == nil || v.isDict {
			return
		}
		t, ok := e.determineType("", arg)
		if !ok {
			v.reserve(recv.Name)
			v.promises = append(v.promises, &promise{node: arg, mode: modeArrayOf, property: recv.Name})
			return
		}
		v.setAdded(recv.Name, e.reg.DynamicArray(t))
	case "pop", "shift":
		if v := e.ownerOf(callee.Target); v != nil {
			v.isDynamicArray = true
		}
	}
}

func (e *Engine) pushTo(v *varState, arg frontend.NodeID) {
	v.isDynamicArray = true
	if arg == frontend.NoNode {
		return
	}
	t, ok := e.determineType("", arg)
	if !ok {
		v.promises = append(v.promises, &promise{node: arg, mode: modeArrayOf})
		return
	}
	e.addPushed(v, t)
}

// addPushed adds DynamicArray(t), promoting fixed arrays of the same or of an
// unknown element type.
func (e *Engine) addPushed(v *varState, t ctypes.Type) bool {
	dyn := e.reg.DynamicArray(t)
	changed := false
	for i, c := range v.candidates {
		fa, ok := c.(*ctypes.FixedArray)
		if ok && (ctypes.Same(fa.Elem, t) || ctypes.IsFallback(fa.Elem)) {
			v.candidates[i] = dyn
			changed = true
		}
	}
	if changed {
		v.candidates = dedupe(v.candidates)
		return true
	}
	return v.addCandidate(dyn)
}

func dedupe(ts []ctypes.Type) []ctypes.Type {
	var out []ctypes.Type
	for _, t := range ts {
		dup := false
		for _, o := range out {
			if ctypes.Same(o, t) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

func (e *Engine) collectReturn(n *frontend.Node) {
	fs := e.byFunc[n.Func]
	if fs == nil {
		return
	}
	fs.hasReturn = true
	if n.Expr == frontend.NoNode {
		return
	}
	fs.valued = true
	if expr := e.prog.Node(n.Expr); expr.Kind == frontend.KindFunction {
		return
	}
	t, ok := e.determineType("", n.Expr)
	if !ok || ctypes.IsFallback(t) {
		fs.retPromise = append(fs.retPromise, &promise{node: n.Expr})
		return
	}
	if fs.ret != nil {
		return
	}
	fs.ret = t
	if expr := e.prog.Node(n.Expr); expr.Kind == frontend.KindObjectLiteral {
		for _, pid := range expr.List {
			prop := e.prog.Node(pid)
			if prop.Kind != frontend.KindProperty || prop.Name == "" || prop.Unsupported {
				continue
			}
			if e.defers(prop.Expr) {
				fs.retProps = append(fs.retProps, &promise{node: prop.Expr, property: prop.Name})
			}
		}
	}
}
