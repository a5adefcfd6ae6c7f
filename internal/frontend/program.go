package frontend

import (
	"cmp"

	"github.com/dop251/goja/file"
	"github.com/hashicorp/go-set/v3"
)

// Program is the read-only view of one lowered source file.
type Program struct {
	file    *file.File
	nodes   []*Node
	decls   map[NodeID]NodeID
	refs    map[NodeID][]NodeID
	returns map[NodeID][]NodeID
	order   []NodeID

	apparentMemo map[NodeID]Apparent
	visiting     *set.Set[NodeID]
	cycle        bool
}

// Root returns the program node.
func (p *Program) Root() *Node {
	return p.nodes[0]
}

// Len returns the number of nodes.
func (p *Program) Len() int {
	return len(p.nodes)
}

// Node returns the node for id, or nil when id is out of range.
func (p *Program) Node(id NodeID) *Node {
	if id == NoNode || int(id) > len(p.nodes) {
		return nil
	}
	return p.nodes[id-1]
}

// Nodes returns every node in pre-order.
func (p *Program) Nodes() []*Node {
	return p.nodes
}

// Children returns the direct children of id in source order.
func (p *Program) Children(id NodeID) []NodeID {
	n := p.Node(id)
	if n == nil {
		return nil
	}
	return n.children()
}

// Declarations returns every canonical variable and parameter declaration in
// source order.
func (p *Program) Declarations() []NodeID {
	return p.order
}

// Declaration returns the canonical declaration an identifier refers to. For a
// declaration node it returns the first declaration of the same binding, which
// differs from id only for redeclared vars. NoNode means unresolved.
func (p *Program) Declaration(id NodeID) NodeID {
	n := p.Node(id)
	if n == nil {
		return NoNode
	}
	switch n.Kind {
	case KindIdentifier:
		return p.decls[id]
	case KindVarDecl, KindParameter, KindFunction:
		if canonical, ok := p.decls[id]; ok {
			return canonical
		}
		return id
	}
	return NoNode
}

// References returns the identifiers resolved to decl, in source order.
func (p *Program) References(decl NodeID) []NodeID {
	return p.refs[p.Declaration(decl)]
}

// FunctionOf returns the function node a callee expression denotes: a function
// literal, an identifier bound to a function declaration, or an identifier
// bound to a variable initialized with a function expression.
func (p *Program) FunctionOf(callee NodeID) NodeID {
	n := p.Node(callee)
	if n == nil {
		return NoNode
	}
	switch n.Kind {
	case KindFunction:
		return n.ID
	case KindIdentifier:
		decl := p.Node(p.Declaration(callee))
		if decl == nil {
			return NoNode
		}
		if decl.Kind == KindFunction {
			return decl.ID
		}
		if decl.Kind == KindVarDecl {
			if init := p.Node(decl.Expr); init != nil && init.Kind == KindFunction {
				return init.ID
			}
		}
	}
	return NoNode
}

// Returns lists the return statements belonging to fn, nested functions
// excluded.
func (p *Program) Returns(fn NodeID) []NodeID {
	return p.returns[fn]
}

// VisibleNames returns, sorted, every name bound in the scope chain at id.
func (p *Program) VisibleNames(id NodeID) []string {
	n := p.Node(id)
	if n == nil {
		return nil
	}
	names := set.NewTreeSet[string](cmp.Compare[string])
	for s := n.scope; s != nil; s = s.parent {
		for name := range s.names {
			names.Insert(name)
		}
	}
	return names.Slice()
}

// Position returns the source position of a node's first character.
func (p *Program) Position(id NodeID) file.Position {
	n := p.Node(id)
	if n == nil || p.file == nil || n.Idx0 == 0 {
		return file.Position{}
	}
	return p.file.Position(int(n.Idx0) - p.file.Base())
}

// Text returns the source text a node was lowered from.
func (p *Program) Text(id NodeID) string {
	n := p.Node(id)
	if n == nil || p.file == nil {
		return ""
	}
	src := p.file.Source()
	from, to := int(n.Idx0)-p.file.Base(), int(n.Idx1)-p.file.Base()
	if from < 0 || to > len(src) || from >= to {
		return ""
	}
	return src[from:to]
}

// Filename returns the name the source was parsed under.
func (p *Program) Filename() string {
	if p.file == nil {
		return ""
	}
	return p.file.Name()
}
