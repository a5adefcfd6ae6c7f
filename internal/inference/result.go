package inference

import (
	"fmt"
	"strings"

	"martianoff/cshape/cshapeerr"
	"martianoff/cshape/internal/ctypes"
	"martianoff/cshape/internal/frontend"

	"github.com/dop251/goja/file"
)

type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "info"
}

// Diagnostic is a best-effort note about a construct inference could not
// characterize precisely. Diagnostics never abort a run.
type Diagnostic struct {
	Severity Severity
	Message  string
	Node     frontend.NodeID
	Position file.Position
}

func (d Diagnostic) String() string {
	if d.Position.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", d.Position.Filename, d.Position.Line, d.Position.Column, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

func (e *Engine) warn(id frontend.NodeID, format string, args ...any) {
	e.report(SeverityWarning, id, format, args...)
}

func (e *Engine) info(id frontend.NodeID, format string, args ...any) {
	e.report(SeverityInfo, id, format, args...)
}

func (e *Engine) report(sev Severity, id frontend.NodeID, format string, args ...any) {
	e.diags = append(e.diags, Diagnostic{
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Node:     id,
		Position: e.prog.Position(id),
	})
}

// Binding is the resolved type of one variable or parameter declaration.
type Binding struct {
	Decl            frontend.NodeID
	Name            string
	Type            ctypes.Type
	NeedsAllocation bool
	References      []frontend.NodeID
	// Func and Ordinal are set for parameters only.
	Func    frontend.NodeID
	Param   bool
	Ordinal int
}

// Function is the resolved signature of a function that is called or returns.
type Function struct {
	Node      frontend.NodeID
	Name      string
	Params    []*Binding
	Return    ctypes.Type
	CallSites int
}

// Result is the outcome of one inference run.
type Result struct {
	// Variables are in declaration order.
	Variables []*Binding
	// Records are the deduplicated non-empty records reachable from any
	// resolved type, in registration order, with final names.
	Records     []*ctypes.Record
	Functions   []*Function
	Diagnostics []Diagnostic
	Iterations  int
	Converged   bool

	engine *Engine
	byDecl map[frontend.NodeID]*Binding
}

func (e *Engine) result(iterations int, converged bool) *Result {
	res := &Result{
		Iterations: iterations,
		Converged:  converged,
		engine:     e,
		byDecl:     make(map[frontend.NodeID]*Binding, len(e.vars)),
	}
	roots := make([]ctypes.Type, 0, len(e.vars)+len(e.funcs))
	for _, v := range e.vars {
		winner := v.winner
		if winner == nil {
			winner = ctypes.Pointer
		}
		b := &Binding{
			Decl:            v.decl,
			Name:            v.name,
			Type:            winner,
			NeedsAllocation: v.alloc,
			References:      e.prog.References(v.decl),
		}
		if v.param {
			b.Func = v.fn
			b.Param = true
			b.Ordinal = v.ordinal
		}
		res.Variables = append(res.Variables, b)
		res.byDecl[v.decl] = b
		roots = append(roots, winner)
		if len(v.conflicts) > 0 {
			e.info(v.decl, "%s has conflicting types %s, using %s", v.name, joinTypes(v.conflicts), ctypes.Universal)
		}
	}
	for _, fs := range e.funcs {
		if fs.calls == 0 && !fs.hasReturn {
			continue
		}
		f := &Function{
			Node:      fs.node,
			Name:      fs.name,
			Return:    fs.returnType(),
			CallSites: fs.calls,
		}
		if f.Return == nil {
			f.Return = fs.ret
		}
		if f.Return == nil {
			f.Return = ctypes.Pointer
		}
		for _, p := range fs.params {
			if b := res.byDecl[e.prog.Declaration(p)]; b != nil {
				f.Params = append(f.Params, b)
			}
		}
		res.Functions = append(res.Functions, f)
		roots = append(roots, f.Return)
	}
	res.Records = e.reg.Finalize(roots)
	res.Diagnostics = e.diags
	return res
}

func joinTypes(ts []ctypes.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// Binding returns the binding of a declaration node, or nil.
func (r *Result) Binding(decl frontend.NodeID) *Binding {
	return r.byDecl[r.engine.prog.Declaration(decl)]
}

// Lookup returns the first binding declared under name.
func (r *Result) Lookup(name string) *Binding {
	for _, b := range r.Variables {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Function returns the signature of the named function, or nil.
func (r *Result) Function(name string) *Function {
	for _, f := range r.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// TypeOf evaluates the type of any expression against the resolved state. It
// returns nil when no informative type is known.
func (r *Result) TypeOf(id frontend.NodeID) ctypes.Type {
	return r.engine.typeOf(id)
}

// Err returns the warnings of the run as one error, or nil.
func (r *Result) Err() error {
	var errs []error
	for _, d := range r.Diagnostics {
		if d.Severity != SeverityWarning {
			continue
		}
		errs = append(errs, cshapeerr.NewSemanticErrorInFile(d.Position.Filename, d.Position.Line, d.Position.Column, d.Message))
	}
	if len(errs) == 0 {
		return nil
	}
	return &cshapeerr.MultiError{Errors: errs}
}
