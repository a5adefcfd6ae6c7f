// Package inference reconstructs static shapes for the variables, parameters
// and return values of a dynamically typed program.
//
// A run collects evidence in one pass over the program, then iterates until
// no promise discharges and no variable changes its winning type.
package inference

import (
	"github.com/dop251/goja/file"
	"github.com/hashicorp/go-set/v3"

	"martianoff/cshape/internal/ctypes"
	"martianoff/cshape/internal/frontend"
)

// Program is the front-end view the engine reads. *frontend.Program
// implements it.
type Program interface {
	Nodes() []*frontend.Node
	Node(id frontend.NodeID) *frontend.Node
	Declarations() []frontend.NodeID
	Declaration(id frontend.NodeID) frontend.NodeID
	References(decl frontend.NodeID) []frontend.NodeID
	FunctionOf(callee frontend.NodeID) frontend.NodeID
	ApparentType(id frontend.NodeID) frontend.Apparent
	Position(id frontend.NodeID) file.Position
	Text(id frontend.NodeID) string
}

var _ Program = (*frontend.Program)(nil)

const DefaultMaxIterations = 64

// Options tunes a run.
type Options struct {
	// MaxIterations bounds the fixed-point loop.
	MaxIterations int
}

func DefaultOptions() Options {
	return Options{MaxIterations: DefaultMaxIterations}
}

type promiseMode uint8

const (
	// modeSame: the owner has the type of the node.
	modeSame promiseMode = iota
	// modeElementOf: the owner has the element type of the node.
	modeElementOf
	// modeArrayOf: the owner is a dynamic array of the node's type.
	modeArrayOf
	// modeMapOf: the owner is a dictionary of the node's type.
	modeMapOf
	// modeIndexed: the node's type refines unknown array elements.
	modeIndexed
)

// promise defers a type decision until node has a non-fallback type.
type promise struct {
	node frontend.NodeID
	mode promiseMode
	// property names the added property the result goes to, if any.
	property string
	resolved bool
}

type addedProp struct {
	name string
	// typ is nil while the property waits on a promise.
	typ ctypes.Type
	// self marks a property that holds its owner.
	self bool
}

// varState is the evidence set of one declaration.
type varState struct {
	decl    frontend.NodeID
	name    string
	fn      frontend.NodeID
	param   bool
	ordinal int

	candidates []ctypes.Type
	added      []addedProp
	promises   []*promise

	objLiteral     bool
	isDynamicArray bool
	isDict         bool

	winner    ctypes.Type
	alloc     bool
	conflicts []ctypes.Type
}

func (v *varState) addCandidate(t ctypes.Type) bool {
	if t == nil {
		return false
	}
	for _, c := range v.candidates {
		if ctypes.Same(c, t) {
			return false
		}
	}
	v.candidates = append(v.candidates, t)
	return true
}

// reserve fixes the position of a property whose type is not known yet.
func (v *varState) reserve(name string) {
	for _, p := range v.added {
		if p.name == name {
			return
		}
	}
	v.added = append(v.added, addedProp{name: name})
}

// setSelf records a property that points back at its owner.
func (v *varState) setSelf(name string) {
	for i, p := range v.added {
		if p.name != name {
			continue
		}
		if p.typ == nil || p.self {
			v.added[i].self = true
		} else {
			v.added[i].typ = ctypes.Universal
		}
		return
	}
	v.added = append(v.added, addedProp{name: name, self: true})
}

// setAdded records a property type. Conflicting writes make it universal.
func (v *varState) setAdded(name string, t ctypes.Type) {
	for i, p := range v.added {
		if p.name != name {
			continue
		}
		switch {
		case p.self:
			if _, ok := t.(*ctypes.Record); !ok {
				v.added[i].self = false
				v.added[i].typ = ctypes.Universal
			}
		case refines(p.typ, t):
			v.added[i].typ = t
		case refines(t, p.typ):
		case !ctypes.Same(p.typ, t):
			v.added[i].typ = ctypes.Universal
		}
		return
	}
	v.added = append(v.added, addedProp{name: name, typ: t})
}

// refines reports whether t carries strictly more information than old: old
// is unknown, or an array of unknown elements that t gives an element type.
func refines(old, t ctypes.Type) bool {
	if ctypes.IsFallback(t) {
		return false
	}
	if old == nil || old == ctypes.Pointer {
		return true
	}
	if !ctypes.IsArray(old) || !ctypes.IsArray(t) {
		return false
	}
	oldElem, _ := ctypes.ElementType(old)
	elem, _ := ctypes.ElementType(t)
	return ctypes.IsFallback(oldElem) && !ctypes.IsFallback(elem)
}

type slot struct {
	typ      ctypes.Type
	promises []*promise
}

// funcState is the call-site and return evidence of one function.
type funcState struct {
	node       frontend.NodeID
	name       string
	params     []frontend.NodeID
	args       []slot
	ret        ctypes.Type
	retPromise []*promise
	// retProps refine the properties of a returned object literal.
	retProps []*promise
	calls      int
	hasReturn  bool
	// valued is set once a return statement carries a value.
	valued bool
}

// Engine holds all mutable state of one inference run.
type Engine struct {
	prog Program
	opts Options
	reg  *ctypes.Registry

	vars   []*varState
	byDecl map[frontend.NodeID]*varState
	funcs  []*funcState
	byFunc map[frontend.NodeID]*funcState

	literals map[frontend.NodeID]ctypes.Type
	// building holds the literals whose type is being derived.
	building *set.Set[frontend.NodeID]
	diags    []Diagnostic
	res      *Result
}

func New(prog Program, opts Options) *Engine {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	return &Engine{
		prog:     prog,
		opts:     opts,
		reg:      ctypes.NewRegistry(),
		byDecl:   make(map[frontend.NodeID]*varState),
		byFunc:   make(map[frontend.NodeID]*funcState),
		literals: make(map[frontend.NodeID]ctypes.Type),
		building: set.New[frontend.NodeID](8),
	}
}

// Infer runs a fresh engine over prog.
func Infer(prog Program, opts Options) *Result {
	return New(prog, opts).Run()
}

// Run collects evidence, resolves it to a fixed point and returns the result.
// An engine runs once; later calls return the first result.
func (e *Engine) Run() *Result {
	if e.res == nil {
		e.collect()
		iterations, converged := e.resolve()
		e.res = e.result(iterations, converged)
	}
	return e.res
}

func (e *Engine) varOf(id frontend.NodeID) *varState {
	return e.byDecl[e.prog.Declaration(id)]
}
