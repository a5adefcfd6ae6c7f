// Package frontend lowers a parsed JavaScript program into an arena of
// nodes with stable integer handles, resolves identifiers to their
// declarations and answers apparent-type and scope queries about them.
package frontend

import (
	"github.com/dop251/goja/file"
)

// NodeID is a stable handle into a Program's node arena. Handles are assigned
// in pre-order starting at 1; NoNode marks an absent child.
type NodeID uint32

const NoNode NodeID = 0

// Kind discriminates nodes.
type Kind uint8

const (
	KindOther Kind = iota
	KindProgram
	KindBlock
	KindVarStatement
	KindExprStmt
	KindIf
	KindLoop
	KindForOf
	KindForIn
	KindReturn
	KindFunction
	KindVarDecl
	KindParameter
	KindIdentifier
	KindNumber
	KindString
	KindBoolean
	KindNull
	KindTemplate
	KindArrayLiteral
	KindObjectLiteral
	KindProperty
	KindPropertyAccess
	KindElementAccess
	KindCall
	KindNew
	KindAssign
	KindBinary
	KindUnary
	KindConditional
)

var kindNames = [...]string{
	KindOther:          "other",
	KindProgram:        "program",
	KindBlock:          "block",
	KindVarStatement:   "var-statement",
	KindExprStmt:       "expression-statement",
	KindIf:             "if",
	KindLoop:           "loop",
	KindForOf:          "for-of",
	KindForIn:          "for-in",
	KindReturn:         "return",
	KindFunction:       "function",
	KindVarDecl:        "variable",
	KindParameter:      "parameter",
	KindIdentifier:     "identifier",
	KindNumber:         "number",
	KindString:         "string",
	KindBoolean:        "boolean",
	KindNull:           "null",
	KindTemplate:       "template",
	KindArrayLiteral:   "array-literal",
	KindObjectLiteral:  "object-literal",
	KindProperty:       "property",
	KindPropertyAccess: "property-access",
	KindElementAccess:  "element-access",
	KindCall:           "call",
	KindNew:            "new",
	KindAssign:         "assign",
	KindBinary:         "binary",
	KindUnary:          "unary",
	KindConditional:    "conditional",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node is one lowered syntax node. Field meaning depends on Kind:
//
//	Program, Block, VarStatement  List: statements / declarations
//	ExprStmt                      Expr: expression
//	If                            Expr: test; List: consequent[, alternate]
//	Loop                          List: init, test, update, body (present ones)
//	ForOf, ForIn                  Target: binding; Expr: source; List: body
//	Return                        Expr: argument or NoNode
//	Function                      Name; List: parameters; Expr: body block
//	VarDecl                       Name; Value: var|let|const|catch; Expr: initializer
//	Parameter                     Name; Ordinal; Expr: default value
//	Identifier                    Name
//	Number, String, Boolean       Value: literal value
//	Template                      List: substitutions
//	ArrayLiteral                  List: elements
//	ObjectLiteral                 List: properties
//	Property                      Name (empty when computed); Target: computed key; Expr: value
//	PropertyAccess                Target: object; Name
//	ElementAccess                 Target: object; Expr: index
//	Call, New                     Target: callee; List: arguments
//	Assign                        Value: operator; Target: left; Expr: right
//	Binary                        Value: operator; Target: left; Expr: right
//	Unary                         Value: operator; Expr: operand
//	Conditional                   Expr: test; List: consequent, alternate
//	Other                         Value: description; List: children
type Node struct {
	ID     NodeID
	Kind   Kind
	Parent NodeID
	// Func is the innermost enclosing function, NoNode at top level.
	Func NodeID
	Idx0 file.Idx
	Idx1 file.Idx

	Name    string
	Value   string
	Target  NodeID
	Expr    NodeID
	List    []NodeID
	Ordinal int

	// Unsupported marks constructs the lowering skipped over.
	Unsupported bool

	scope *scope
}

// IsLiteral reports whether the node is a primitive literal.
func (n *Node) IsLiteral() bool {
	switch n.Kind {
	case KindNumber, KindString, KindBoolean, KindNull, KindTemplate:
		return true
	}
	return false
}

// children returns every child handle in source order.
func (n *Node) children() []NodeID {
	var out []NodeID
	switch n.Kind {
	case KindForOf, KindForIn, KindPropertyAccess, KindElementAccess, KindCall, KindNew, KindAssign, KindBinary, KindProperty:
		out = appendIf(out, n.Target)
		out = appendIf(out, n.Expr)
		out = append(out, n.List...)
	case KindIf, KindConditional, KindUnary, KindExprStmt, KindReturn, KindVarDecl, KindParameter:
		out = appendIf(out, n.Expr)
		out = append(out, n.List...)
	case KindFunction:
		out = append(out, n.List...)
		out = appendIf(out, n.Expr)
	default:
		out = appendIf(out, n.Target)
		out = append(out, n.List...)
		out = appendIf(out, n.Expr)
	}
	return out
}

func appendIf(ids []NodeID, id NodeID) []NodeID {
	if id == NoNode {
		return ids
	}
	return append(ids, id)
}
