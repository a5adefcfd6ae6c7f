package frontend

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
	"github.com/hashicorp/go-set/v3"
)

type scope struct {
	parent *scope
	owner  NodeID
	fn     bool
	names  map[string]NodeID
}

// function returns the nearest function (or program) scope.
func (s *scope) function() *scope {
	for s.parent != nil && !s.fn {
		s = s.parent
	}
	return s
}

func (s *scope) lookup(name string) (NodeID, bool) {
	for ; s != nil; s = s.parent {
		if id, ok := s.names[name]; ok {
			return id, true
		}
	}
	return NoNode, false
}

type builder struct {
	nodes   []*Node
	cur     *scope
	fn      NodeID
	decls   map[NodeID]NodeID
	pending []NodeID
	returns map[NodeID][]NodeID
}

// Build lowers a goja program into a node arena and resolves its bindings.
func Build(prog *ast.Program) *Program {
	b := &builder{
		decls:   make(map[NodeID]NodeID),
		returns: make(map[NodeID][]NodeID),
	}
	var src ast.Node
	if len(prog.Body) > 0 {
		src = prog
	}
	root := b.add(KindProgram, NoNode, src)
	b.pushScope(root.ID, true)
	for _, st := range prog.Body {
		root.List = appendIf(root.List, b.stmt(st, root.ID))
	}
	b.popScope()

	p := &Program{
		file:         prog.File,
		nodes:        b.nodes,
		decls:        b.decls,
		refs:         make(map[NodeID][]NodeID),
		returns:      b.returns,
		apparentMemo: make(map[NodeID]Apparent),
		visiting:     set.New[NodeID](0),
	}
	for _, id := range b.pending {
		n := p.Node(id)
		decl, ok := n.scope.lookup(n.Name)
		if !ok {
			continue
		}
		if canonical, ok := b.decls[decl]; ok {
			decl = canonical
		}
		p.decls[id] = decl
		p.refs[decl] = append(p.refs[decl], id)
	}
	for _, n := range p.nodes {
		if (n.Kind == KindVarDecl || n.Kind == KindParameter) && !n.Unsupported && p.Declaration(n.ID) == n.ID {
			p.order = append(p.order, n.ID)
		}
	}
	return p
}

func (b *builder) add(kind Kind, parent NodeID, src ast.Node) *Node {
	value, err := safecast.Conv[uint32](len(b.nodes) + 1)
	if err != nil {
		panic(fmt.Errorf("node index overflow: %w", err))
	}
	n := &Node{
		ID:     NodeID(value),
		Kind:   kind,
		Parent: parent,
		Func:   b.fn,
		scope:  b.cur,
	}
	if src != nil {
		n.Idx0, n.Idx1 = src.Idx0(), src.Idx1()
	}
	b.nodes = append(b.nodes, n)
	return n
}

func (b *builder) other(parent NodeID, src ast.Node, what string, supported bool) *Node {
	n := b.add(KindOther, parent, src)
	n.Value = what
	n.Unsupported = !supported
	return n
}

func (b *builder) pushScope(owner NodeID, fn bool) {
	b.cur = &scope{
		parent: b.cur,
		owner:  owner,
		fn:     fn,
		names:  make(map[string]NodeID),
	}
}

func (b *builder) popScope() {
	if b.cur != nil {
		b.cur = b.cur.parent
	}
}

// declare binds name in s. A second declaration of the same name in the same
// scope aliases the first.
func (b *builder) declare(s *scope, name string, id NodeID) {
	if name == "" {
		return
	}
	if existing, ok := s.names[name]; ok {
		b.decls[id] = existing
		return
	}
	s.names[name] = id
}

func (b *builder) stmt(s ast.Statement, parent NodeID) NodeID {
	switch s := s.(type) {
	case nil:
		return NoNode
	case *ast.BlockStatement:
		return b.block(s, parent, true)
	case *ast.ExpressionStatement:
		n := b.add(KindExprStmt, parent, s)
		n.Expr = b.expr(s.Expression, n.ID)
		return n.ID
	case *ast.VariableStatement:
		n := b.add(KindVarStatement, parent, s)
		n.Value = "var"
		for _, bd := range s.List {
			n.List = appendIf(n.List, b.binding(bd, n.ID, "var"))
		}
		return n.ID
	case *ast.LexicalDeclaration:
		return b.lexical(s, parent)
	case *ast.FunctionDeclaration:
		return b.function(s.Function, parent, true)
	case *ast.IfStatement:
		n := b.add(KindIf, parent, s)
		n.Expr = b.expr(s.Test, n.ID)
		n.List = appendIf(n.List, b.stmt(s.Consequent, n.ID))
		n.List = appendIf(n.List, b.stmt(s.Alternate, n.ID))
		return n.ID
	case *ast.ForStatement:
		n := b.add(KindLoop, parent, s)
		n.Value = "for"
		b.pushScope(n.ID, false)
		defer b.popScope()
		switch init := s.Initializer.(type) {
		case *ast.ForLoopInitializerExpression:
			n.List = appendIf(n.List, b.expr(init.Expression, n.ID))
		case *ast.ForLoopInitializerVarDeclList:
			vs := b.add(KindVarStatement, n.ID, init)
			vs.Value = "var"
			for _, bd := range init.List {
				vs.List = appendIf(vs.List, b.binding(bd, vs.ID, "var"))
			}
			n.List = append(n.List, vs.ID)
		case *ast.ForLoopInitializerLexicalDecl:
			n.List = append(n.List, b.lexical(&init.LexicalDeclaration, n.ID))
		}
		n.List = appendIf(n.List, b.expr(s.Test, n.ID))
		n.List = appendIf(n.List, b.expr(s.Update, n.ID))
		n.List = appendIf(n.List, b.stmt(s.Body, n.ID))
		return n.ID
	case *ast.WhileStatement:
		n := b.add(KindLoop, parent, s)
		n.Value = "while"
		n.List = appendIf(n.List, b.expr(s.Test, n.ID))
		n.List = appendIf(n.List, b.stmt(s.Body, n.ID))
		return n.ID
	case *ast.DoWhileStatement:
		n := b.add(KindLoop, parent, s)
		n.Value = "do"
		n.List = appendIf(n.List, b.stmt(s.Body, n.ID))
		n.List = appendIf(n.List, b.expr(s.Test, n.ID))
		return n.ID
	case *ast.ForOfStatement:
		return b.forEach(KindForOf, s.Into, s.Source, s.Body, parent, s)
	case *ast.ForInStatement:
		return b.forEach(KindForIn, s.Into, s.Source, s.Body, parent, s)
	case *ast.ReturnStatement:
		n := b.add(KindReturn, parent, s)
		n.Expr = b.expr(s.Argument, n.ID)
		b.returns[b.fn] = append(b.returns[b.fn], n.ID)
		return n.ID
	case *ast.TryStatement:
		n := b.other(parent, s, "try", true)
		n.List = appendIf(n.List, b.block(s.Body, n.ID, true))
		if s.Catch != nil {
			n.List = append(n.List, b.catch(s.Catch, n.ID))
		}
		if s.Finally != nil {
			n.List = append(n.List, b.block(s.Finally, n.ID, true))
		}
		return n.ID
	case *ast.ThrowStatement:
		n := b.other(parent, s, "throw", true)
		n.List = appendIf(n.List, b.expr(s.Argument, n.ID))
		return n.ID
	case *ast.SwitchStatement:
		n := b.other(parent, s, "switch", true)
		n.List = appendIf(n.List, b.expr(s.Discriminant, n.ID))
		b.pushScope(n.ID, false)
		defer b.popScope()
		for _, c := range s.Body {
			cn := b.other(n.ID, c, "case", true)
			cn.List = appendIf(cn.List, b.expr(c.Test, cn.ID))
			for _, st := range c.Consequent {
				cn.List = appendIf(cn.List, b.stmt(st, cn.ID))
			}
			n.List = append(n.List, cn.ID)
		}
		return n.ID
	case *ast.LabelledStatement:
		return b.stmt(s.Statement, parent)
	case *ast.WithStatement:
		n := b.other(parent, s, "with statement", false)
		n.List = appendIf(n.List, b.expr(s.Object, n.ID))
		n.List = appendIf(n.List, b.stmt(s.Body, n.ID))
		return n.ID
	case *ast.ClassDeclaration:
		return b.other(parent, s, "class declaration", false).ID
	case *ast.EmptyStatement, *ast.BranchStatement, *ast.DebuggerStatement:
		return NoNode
	}
	return b.other(parent, s, fmt.Sprintf("%T", s), false).ID
}

// block lowers a block statement. Function bodies share the function scope
// with the parameters; every other block opens its own.
func (b *builder) block(s *ast.BlockStatement, parent NodeID, scoped bool) NodeID {
	if s == nil {
		return NoNode
	}
	n := b.add(KindBlock, parent, s)
	if scoped {
		b.pushScope(n.ID, false)
		defer b.popScope()
	}
	for _, st := range s.List {
		n.List = appendIf(n.List, b.stmt(st, n.ID))
	}
	return n.ID
}

func (b *builder) catch(c *ast.CatchStatement, parent NodeID) NodeID {
	n := b.add(KindBlock, parent, c)
	n.Value = "catch"
	b.pushScope(n.ID, false)
	defer b.popScope()
	if c.Parameter != nil {
		n.List = appendIf(n.List, b.binding(&ast.Binding{Target: c.Parameter}, n.ID, "catch"))
	}
	if c.Body != nil {
		for _, st := range c.Body.List {
			n.List = appendIf(n.List, b.stmt(st, n.ID))
		}
	}
	return n.ID
}

func (b *builder) lexical(s *ast.LexicalDeclaration, parent NodeID) NodeID {
	n := b.add(KindVarStatement, parent, s)
	n.Value = "let"
	if s.Token == token.CONST {
		n.Value = "const"
	}
	for _, bd := range s.List {
		n.List = appendIf(n.List, b.binding(bd, n.ID, n.Value))
	}
	return n.ID
}

func (b *builder) binding(bd *ast.Binding, parent NodeID, kind string) NodeID {
	ident, ok := bd.Target.(*ast.Identifier)
	if !ok {
		n := b.other(parent, bd.Target, "destructuring declaration", false)
		n.List = appendIf(n.List, b.expr(bd.Initializer, n.ID))
		return n.ID
	}
	n := b.add(KindVarDecl, parent, ident)
	n.Name = ident.Name.String()
	n.Value = kind
	s := b.cur
	if kind == "var" {
		s = s.function()
	}
	b.declare(s, n.Name, n.ID)
	if bd.Initializer != nil {
		n.Idx1 = bd.Initializer.Idx1()
		n.Expr = b.expr(bd.Initializer, n.ID)
	}
	return n.ID
}

func (b *builder) forEach(kind Kind, into ast.ForInto, source ast.Expression, body ast.Statement, parent NodeID, src ast.Node) NodeID {
	n := b.add(kind, parent, src)
	b.pushScope(n.ID, false)
	defer b.popScope()
	switch into := into.(type) {
	case *ast.ForIntoVar:
		n.Target = b.binding(into.Binding, n.ID, "var")
	case *ast.ForDeclaration:
		decl := "let"
		if into.IsConst {
			decl = "const"
		}
		n.Target = b.binding(&ast.Binding{Target: into.Target}, n.ID, decl)
	case *ast.ForIntoExpression:
		n.Target = b.expr(into.Expression, n.ID)
	}
	n.Expr = b.expr(source, n.ID)
	n.List = appendIf(n.List, b.stmt(body, n.ID))
	return n.ID
}

func (b *builder) function(fl *ast.FunctionLiteral, parent NodeID, declared bool) NodeID {
	n := b.add(KindFunction, parent, fl)
	if fl.Name != nil {
		n.Name = fl.Name.Name.String()
	}
	if declared {
		b.declare(b.cur.function(), n.Name, n.ID)
	}
	restore := b.enter(n, fl.ParameterList)
	defer restore()
	if !declared {
		b.declare(b.cur, n.Name, n.ID)
	}
	n.Expr = b.block(fl.Body, n.ID, false)
	return n.ID
}

func (b *builder) arrow(al *ast.ArrowFunctionLiteral, parent NodeID) NodeID {
	n := b.add(KindFunction, parent, al)
	n.Value = "arrow"
	restore := b.enter(n, al.ParameterList)
	defer restore()
	switch body := al.Body.(type) {
	case *ast.BlockStatement:
		n.Expr = b.block(body, n.ID, false)
	case *ast.ExpressionBody:
		blk := b.add(KindBlock, n.ID, body)
		ret := b.add(KindReturn, blk.ID, body)
		ret.Expr = b.expr(body.Expression, ret.ID)
		b.returns[n.ID] = append(b.returns[n.ID], ret.ID)
		blk.List = []NodeID{ret.ID}
		n.Expr = blk.ID
	}
	return n.ID
}

// enter opens the scope of fn and lowers its parameters into it.
func (b *builder) enter(fn *Node, params *ast.ParameterList) func() {
	prev := b.fn
	b.fn = fn.ID
	b.pushScope(fn.ID, true)
	if params != nil {
		for i, bd := range params.List {
			fn.List = append(fn.List, b.param(bd.Target, bd.Initializer, fn.ID, i))
		}
		if params.Rest != nil {
			p := b.param(params.Rest, nil, fn.ID, len(params.List))
			b.nodes[p-1].Value = "rest"
			fn.List = append(fn.List, p)
		}
	}
	return func() {
		b.popScope()
		b.fn = prev
	}
}

func (b *builder) param(target, init ast.Expression, parent NodeID, ordinal int) NodeID {
	n := b.add(KindParameter, parent, target)
	n.Ordinal = ordinal
	if ident, ok := target.(*ast.Identifier); ok {
		n.Name = ident.Name.String()
		b.declare(b.cur, n.Name, n.ID)
	} else {
		n.Unsupported = true
		n.Value = "destructuring parameter"
	}
	n.Expr = b.expr(init, n.ID)
	return n.ID
}

func (b *builder) expr(e ast.Expression, parent NodeID) NodeID {
	switch e := e.(type) {
	case nil:
		return NoNode
	case *ast.Identifier:
		n := b.add(KindIdentifier, parent, e)
		n.Name = e.Name.String()
		b.pending = append(b.pending, n.ID)
		return n.ID
	case *ast.NumberLiteral:
		n := b.add(KindNumber, parent, e)
		n.Value = e.Literal
		return n.ID
	case *ast.StringLiteral:
		n := b.add(KindString, parent, e)
		n.Value = e.Value.String()
		return n.ID
	case *ast.BooleanLiteral:
		n := b.add(KindBoolean, parent, e)
		n.Value = strconv.FormatBool(e.Value)
		return n.ID
	case *ast.NullLiteral:
		return b.add(KindNull, parent, e).ID
	case *ast.TemplateLiteral:
		n := b.add(KindTemplate, parent, e)
		n.Target = b.expr(e.Tag, n.ID)
		for _, sub := range e.Expressions {
			n.List = appendIf(n.List, b.expr(sub, n.ID))
		}
		return n.ID
	case *ast.RegExpLiteral:
		return b.other(parent, e, "regexp", true).ID
	case *ast.ArrayLiteral:
		n := b.add(KindArrayLiteral, parent, e)
		for _, el := range e.Value {
			if el == nil {
				n.List = append(n.List, b.other(n.ID, nil, "hole", true).ID)
				continue
			}
			n.List = append(n.List, b.expr(el, n.ID))
		}
		return n.ID
	case *ast.ObjectLiteral:
		n := b.add(KindObjectLiteral, parent, e)
		for _, prop := range e.Value {
			n.List = append(n.List, b.property(prop, n.ID))
		}
		return n.ID
	case *ast.DotExpression:
		n := b.add(KindPropertyAccess, parent, e)
		n.Name = e.Identifier.Name.String()
		n.Target = b.expr(e.Left, n.ID)
		return n.ID
	case *ast.BracketExpression:
		n := b.add(KindElementAccess, parent, e)
		n.Target = b.expr(e.Left, n.ID)
		n.Expr = b.expr(e.Member, n.ID)
		return n.ID
	case *ast.CallExpression:
		n := b.add(KindCall, parent, e)
		n.Target = b.expr(e.Callee, n.ID)
		for _, arg := range e.ArgumentList {
			n.List = append(n.List, b.expr(arg, n.ID))
		}
		return n.ID
	case *ast.NewExpression:
		n := b.add(KindNew, parent, e)
		n.Target = b.expr(e.Callee, n.ID)
		for _, arg := range e.ArgumentList {
			n.List = append(n.List, b.expr(arg, n.ID))
		}
		return n.ID
	case *ast.AssignExpression:
		n := b.add(KindAssign, parent, e)
		n.Value = "="
		if e.Operator != token.ASSIGN {
			n.Value = e.Operator.String() + "="
		}
		n.Target = b.expr(e.Left, n.ID)
		n.Expr = b.expr(e.Right, n.ID)
		return n.ID
	case *ast.BinaryExpression:
		n := b.add(KindBinary, parent, e)
		n.Value = e.Operator.String()
		n.Target = b.expr(e.Left, n.ID)
		n.Expr = b.expr(e.Right, n.ID)
		return n.ID
	case *ast.UnaryExpression:
		n := b.add(KindUnary, parent, e)
		n.Value = e.Operator.String()
		n.Expr = b.expr(e.Operand, n.ID)
		return n.ID
	case *ast.ConditionalExpression:
		n := b.add(KindConditional, parent, e)
		n.Expr = b.expr(e.Test, n.ID)
		n.List = append(n.List, b.expr(e.Consequent, n.ID), b.expr(e.Alternate, n.ID))
		return n.ID
	case *ast.FunctionLiteral:
		return b.function(e, parent, false)
	case *ast.ArrowFunctionLiteral:
		return b.arrow(e, parent)
	case *ast.OptionalChain:
		return b.expr(e.Expression, parent)
	case *ast.Optional:
		return b.expr(e.Expression, parent)
	case *ast.SequenceExpression:
		n := b.other(parent, e, "sequence", true)
		for _, el := range e.Sequence {
			n.List = appendIf(n.List, b.expr(el, n.ID))
		}
		return n.ID
	case *ast.ThisExpression:
		return b.other(parent, e, "this", true).ID
	case *ast.AwaitExpression:
		n := b.other(parent, e, "await", true)
		n.List = appendIf(n.List, b.expr(e.Argument, n.ID))
		return n.ID
	case *ast.YieldExpression:
		n := b.other(parent, e, "yield", true)
		n.List = appendIf(n.List, b.expr(e.Argument, n.ID))
		return n.ID
	case *ast.SpreadElement:
		n := b.other(parent, e, "spread element", false)
		n.List = appendIf(n.List, b.expr(e.Expression, n.ID))
		return n.ID
	case *ast.ClassLiteral:
		return b.other(parent, e, "class expression", false).ID
	case *ast.ObjectPattern, *ast.ArrayPattern:
		return b.other(parent, e, "destructuring pattern", false).ID
	}
	return b.other(parent, e, fmt.Sprintf("%T", e), false).ID
}

func (b *builder) property(prop ast.Property, parent NodeID) NodeID {
	switch prop := prop.(type) {
	case *ast.PropertyKeyed:
		n := b.add(KindProperty, parent, prop)
		if prop.Kind == ast.PropertyKindGet || prop.Kind == ast.PropertyKindSet {
			n.Unsupported = true
			n.Value = string(prop.Kind)
		}
		if prop.Computed {
			n.Target = b.expr(prop.Key, n.ID)
		} else {
			n.Name = propertyName(prop.Key)
		}
		n.Expr = b.expr(prop.Value, n.ID)
		return n.ID
	case *ast.PropertyShort:
		n := b.add(KindProperty, parent, prop)
		n.Name = prop.Name.Name.String()
		n.Expr = b.expr(&prop.Name, n.ID)
		return n.ID
	}
	return b.other(parent, prop, "spread property", false).ID
}

func propertyName(key ast.Expression) string {
	switch k := key.(type) {
	case *ast.StringLiteral:
		return k.Value.String()
	case *ast.NumberLiteral:
		return k.Literal
	case *ast.Identifier:
		return k.Name.String()
	}
	return ""
}
