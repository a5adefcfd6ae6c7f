package inference

import (
	"martianoff/cshape/internal/ctypes"
	"martianoff/cshape/internal/frontend"
)

// resolve iterates collapse, discharge and propagation until a full pass
// changes nothing. It reports the number of passes and whether the loop
// settled before the iteration bound.
func (e *Engine) resolve() (int, bool) {
	for i := 1; i <= e.opts.MaxIterations; i++ {
		changed := false
		for _, v := range e.vars {
			if e.collapse(v) {
				changed = true
			}
		}
		for _, v := range e.vars {
			if e.discharge(v) {
				changed = true
			}
		}
		for _, fs := range e.funcs {
			if e.dischargeFunc(fs) {
				changed = true
			}
			if e.propagate(fs) {
				changed = true
			}
		}
		if !changed && !e.settleReturns() {
			return i, true
		}
	}
	for _, v := range e.vars {
		e.collapse(v)
	}
	e.warn(frontend.NoNode, "inference did not converge after %d iterations", e.opts.MaxIterations)
	return e.opts.MaxIterations, false
}

// collapse picks the winning type of v from its candidates.
func (e *Engine) collapse(v *varState) bool {
	var kept []ctypes.Type
	for _, c := range v.candidates {
		if ctypes.IsFallback(c) {
			continue
		}
		if _, ok := c.(*ctypes.Record); ok && v.isDict {
			continue
		}
		if fa, ok := c.(*ctypes.FixedArray); ok && v.isDynamicArray {
			c = e.reg.DynamicArray(fa.Elem)
		}
		kept = appendDistinct(kept, c)
	}

	var winner ctypes.Type
	alloc := false
	v.conflicts = nil
	switch len(kept) {
	case 0:
		winner = ctypes.Pointer
	case 1:
		winner = kept[0]
		if rec, ok := winner.(*ctypes.Record); ok {
			winner = e.extend(v, rec)
			alloc = v.objLiteral
		} else {
			alloc = ctypes.RequiresAllocation(winner)
		}
	default:
		winner = ctypes.Universal
		alloc = true
		v.conflicts = kept
	}

	changed := !ctypes.Same(v.winner, winner)
	v.winner = winner
	v.alloc = alloc
	return changed
}

// extend merges the resolved added properties of v into rec.
func (e *Engine) extend(v *varState, rec *ctypes.Record) *ctypes.Record {
	var props []ctypes.Property
	var self []string
	for _, p := range v.added {
		switch {
		case p.self:
			self = append(self, p.name)
		case p.typ != nil:
			props = append(props, ctypes.Property{Name: p.name, Type: p.typ})
		}
	}
	hint := rec.Hint()
	if hint == "" {
		hint = v.name
	}
	return e.reg.Extend(rec, hint, props, self...)
}

func appendDistinct(ts []ctypes.Type, t ctypes.Type) []ctypes.Type {
	for _, o := range ts {
		if ctypes.Same(o, t) {
			return ts
		}
	}
	return append(ts, t)
}

// discharge settles the promises of v whose node has a type by now.
func (e *Engine) discharge(v *varState) bool {
	progressed := false
	for _, p := range v.promises {
		if p.resolved {
			continue
		}
		t := e.typeOf(p.node)
		if t == nil {
			continue
		}
		if e.apply(v, p, t) {
			p.resolved = true
			progressed = true
		}
	}
	return progressed
}

func (e *Engine) apply(v *varState, p *promise, t ctypes.Type) bool {
	switch p.mode {
	case modeSame:
		if p.property != "" {
			v.setAdded(p.property, t)
			return true
		}
		v.addCandidate(t)
		return true
	case modeElementOf:
		var elem ctypes.Type
		switch {
		case t == ctypes.String:
			elem = ctypes.String
		case ctypes.IsArray(t):
			elem, _ = ctypes.ElementType(t)
		}
		if ctypes.IsFallback(elem) {
			return false
		}
		v.addCandidate(elem)
		return true
	case modeArrayOf:
		if p.property != "" {
			v.setAdded(p.property, e.reg.DynamicArray(t))
			return true
		}
		e.addPushed(v, t)
		return true
	case modeMapOf:
		v.addCandidate(e.reg.Map(t))
		return true
	case modeIndexed:
		return e.refineElements(v, t)
	}
	return false
}

// dischargeFunc settles argument and return promises of fs.
func (e *Engine) dischargeFunc(fs *funcState) bool {
	progressed := false
	for i := range fs.args {
		s := &fs.args[i]
		for _, p := range s.promises {
			if p.resolved {
				continue
			}
			if t := e.typeOf(p.node); t != nil {
				p.resolved = true
				progressed = true
				if s.typ == nil {
					s.typ = t
				}
			}
		}
	}
	for _, p := range fs.retProps {
		if p.resolved {
			continue
		}
		t := e.typeOf(p.node)
		if t == nil {
			continue
		}
		p.resolved = true
		progressed = true
		if rec, ok := fs.ret.(*ctypes.Record); ok {
			fs.ret = e.reg.Extend(rec, "", []ctypes.Property{{Name: p.property, Type: t}})
		}
	}
	for _, p := range fs.retPromise {
		if p.resolved {
			continue
		}
		if t := e.typeOf(p.node); t != nil {
			p.resolved = true
			progressed = true
			if fs.ret == nil {
				fs.ret = t
			}
		}
	}
	return progressed
}

// settleReturns gives up on returned properties that never received a type,
// so callers waiting on the record can proceed. It reports whether any did.
func (e *Engine) settleReturns() bool {
	settled := false
	for _, fs := range e.funcs {
		for _, p := range fs.retProps {
			if !p.resolved {
				p.resolved = true
				settled = true
			}
		}
	}
	return settled
}

// propagate feeds call-site argument types into the parameters of fs.
func (e *Engine) propagate(fs *funcState) bool {
	changed := false
	for i, s := range fs.args {
		if s.typ == nil {
			continue
		}
		if v := e.varOf(fs.params[i]); v != nil && v.addCandidate(s.typ) {
			changed = true
		}
	}
	return changed
}
