package frontend

import (
	"strings"
)

// ApparentKind classifies the widened static type a node would have under a
// TypeScript-like checker.
type ApparentKind uint8

const (
	ApparentAny ApparentKind = iota
	ApparentString
	ApparentNumber
	ApparentBoolean
	ApparentVoid
	ApparentNull
	ApparentUndefined
	ApparentObject
	ApparentArray
	ApparentFunction
)

var apparentNames = [...]string{
	ApparentAny:       "any",
	ApparentString:    "string",
	ApparentNumber:    "number",
	ApparentBoolean:   "boolean",
	ApparentVoid:      "void",
	ApparentNull:      "null",
	ApparentUndefined: "undefined",
	ApparentObject:    "object",
	ApparentArray:     "array",
	ApparentFunction:  "function",
}

func (k ApparentKind) String() string {
	if int(k) < len(apparentNames) {
		return apparentNames[k]
	}
	return "unknown"
}

// Member is one named member of an apparent object type.
type Member struct {
	Name string
	Type Apparent
	// Node is the property value the member was inferred from.
	Node NodeID
}

// Apparent is a widened static type: a kind plus the members of an object or
// the element of an array.
type Apparent struct {
	Kind    ApparentKind
	Members []Member
	Elem    *Apparent
}

var (
	anyType     = Apparent{Kind: ApparentAny}
	stringType  = Apparent{Kind: ApparentString}
	numberType  = Apparent{Kind: ApparentNumber}
	booleanType = Apparent{Kind: ApparentBoolean}
	voidType    = Apparent{Kind: ApparentVoid}
)

func arrayOf(elem Apparent) Apparent {
	return Apparent{Kind: ApparentArray, Elem: &elem}
}

func (a Apparent) String() string {
	switch a.Kind {
	case ApparentArray:
		if a.Elem == nil {
			return "any[]"
		}
		return a.Elem.String() + "[]"
	case ApparentObject:
		parts := make([]string, 0, len(a.Members))
		for _, m := range a.Members {
			parts = append(parts, m.Name+": "+m.Type.String())
		}
		return "{" + strings.Join(parts, "; ") + "}"
	}
	return a.Kind.String()
}

// Member looks up an object member by name.
func (a Apparent) Member(name string) (Apparent, bool) {
	for _, m := range a.Members {
		if m.Name == name {
			return m.Type, true
		}
	}
	return Apparent{}, false
}

// Equal reports structural equality.
func (a Apparent) Equal(b Apparent) bool {
	return a.String() == b.String()
}

// ApparentType returns the widened static type of a node. Results that were
// computed through a reference cycle are not cached.
func (p *Program) ApparentType(id NodeID) Apparent {
	if a, ok := p.apparentMemo[id]; ok {
		return a
	}
	if p.visiting.Contains(id) {
		p.cycle = true
		return anyType
	}
	p.visiting.Insert(id)
	outer := p.cycle
	p.cycle = false
	a := p.apparent(id)
	if !p.cycle {
		p.apparentMemo[id] = a
	}
	p.cycle = p.cycle || outer
	p.visiting.Remove(id)
	return a
}

func (p *Program) apparent(id NodeID) Apparent {
	n := p.Node(id)
	if n == nil {
		return anyType
	}
	switch n.Kind {
	case KindNumber:
		return numberType
	case KindString, KindTemplate:
		return stringType
	case KindBoolean:
		return booleanType
	case KindNull:
		return Apparent{Kind: ApparentNull}
	case KindFunction:
		return Apparent{Kind: ApparentFunction}
	case KindIdentifier:
		decl := p.Declaration(id)
		if decl == NoNode {
			if n.Name == "undefined" {
				return Apparent{Kind: ApparentUndefined}
			}
			return anyType
		}
		return p.ApparentType(decl)
	case KindVarDecl:
		return p.declared(n)
	case KindParameter:
		if n.Expr != NoNode {
			return p.ApparentType(n.Expr)
		}
		return anyType
	case KindArrayLiteral:
		if len(n.List) == 0 {
			return arrayOf(anyType)
		}
		return arrayOf(p.ApparentType(n.List[0]))
	case KindObjectLiteral:
		obj := Apparent{Kind: ApparentObject}
		for _, pid := range n.List {
			prop := p.Node(pid)
			if prop.Kind != KindProperty || prop.Name == "" || prop.Unsupported {
				continue
			}
			obj.Members = append(obj.Members, Member{Name: prop.Name, Type: p.ApparentType(prop.Expr), Node: prop.Expr})
		}
		return obj
	case KindPropertyAccess:
		recv := p.ApparentType(n.Target)
		if n.Name == "length" && (recv.Kind == ApparentString || recv.Kind == ApparentArray) {
			return numberType
		}
		if recv.Kind == ApparentObject {
			if m, ok := recv.Member(n.Name); ok {
				return m
			}
		}
		return anyType
	case KindElementAccess:
		recv := p.ApparentType(n.Target)
		switch recv.Kind {
		case ApparentArray:
			if recv.Elem != nil {
				return *recv.Elem
			}
		case ApparentString:
			return stringType
		case ApparentObject:
			if key := p.Node(n.Expr); key != nil && key.Kind == KindString {
				if m, ok := recv.Member(key.Value); ok {
					return m
				}
			}
		}
		return anyType
	case KindCall:
		return p.call(n)
	case KindAssign:
		if n.Value == "=" {
			return p.ApparentType(n.Expr)
		}
		return p.binary(strings.TrimSuffix(n.Value, "="), n.Target, n.Expr)
	case KindBinary:
		return p.binary(n.Value, n.Target, n.Expr)
	case KindUnary:
		switch n.Value {
		case "!", "delete":
			return booleanType
		case "typeof":
			return stringType
		case "void":
			return Apparent{Kind: ApparentUndefined}
		}
		return numberType
	case KindConditional:
		return p.agree(n.List)
	}
	return anyType
}

func (p *Program) declared(decl *Node) Apparent {
	if parent := p.Node(decl.Parent); parent != nil && parent.Target == decl.ID {
		switch parent.Kind {
		case KindForIn:
			return stringType
		case KindForOf:
			src := p.ApparentType(parent.Expr)
			switch src.Kind {
			case ApparentArray:
				if src.Elem != nil {
					return *src.Elem
				}
			case ApparentString:
				return stringType
			}
			return anyType
		}
	}
	if decl.Expr == NoNode {
		return anyType
	}
	return p.ApparentType(decl.Expr)
}

func (p *Program) binary(op string, left, right NodeID) Apparent {
	switch op {
	case "+":
		l, r := p.ApparentType(left), p.ApparentType(right)
		if l.Kind == ApparentString || r.Kind == ApparentString {
			return stringType
		}
		if l.Kind == ApparentNumber && r.Kind == ApparentNumber {
			return numberType
		}
		return anyType
	case "-", "*", "/", "%", "**", "<<", ">>", ">>>", "&", "|", "^":
		return numberType
	case "<", ">", "<=", ">=", "==", "!=", "===", "!==", "in", "instanceof":
		return booleanType
	case "&&", "||", "??":
		return p.agree([]NodeID{left, right})
	}
	return anyType
}

// agree returns the apparent type shared by every node, or any.
func (p *Program) agree(ids []NodeID) Apparent {
	if len(ids) == 0 {
		return anyType
	}
	first := p.ApparentType(ids[0])
	for _, id := range ids[1:] {
		if !p.ApparentType(id).Equal(first) {
			return anyType
		}
	}
	return first
}

var (
	stringMethods = map[string]Apparent{
		"charAt":      stringType,
		"substring":   stringType,
		"substr":      stringType,
		"slice":       stringType,
		"toUpperCase": stringType,
		"toLowerCase": stringType,
		"trim":        stringType,
		"concat":      stringType,
		"replace":     stringType,
		"repeat":      stringType,
		"padStart":    stringType,
		"padEnd":      stringType,
		"indexOf":     numberType,
		"lastIndexOf": numberType,
		"charCodeAt":  numberType,
		"search":      numberType,
		"startsWith":  booleanType,
		"endsWith":    booleanType,
		"includes":    booleanType,
		"split":       arrayOf(stringType),
	}
	globalFunctions = map[string]Apparent{
		"parseInt":   numberType,
		"parseFloat": numberType,
		"Number":     numberType,
		"String":     stringType,
		"Boolean":    booleanType,
	}
)

func (p *Program) call(n *Node) Apparent {
	callee := p.Node(n.Target)
	if callee == nil {
		return anyType
	}
	if callee.Kind == KindPropertyAccess {
		if obj := p.Node(callee.Target); obj != nil && obj.Kind == KindIdentifier && obj.Name == "Math" && p.Declaration(obj.ID) == NoNode {
			return numberType
		}
		recv := p.ApparentType(callee.Target)
		switch recv.Kind {
		case ApparentString:
			if t, ok := stringMethods[callee.Name]; ok {
				return t
			}
		case ApparentArray:
			return arrayMethod(recv, callee.Name)
		}
		return anyType
	}
	if fn := p.FunctionOf(callee.ID); fn != NoNode {
		return p.returnType(fn)
	}
	if callee.Kind == KindIdentifier && p.Declaration(callee.ID) == NoNode {
		if t, ok := globalFunctions[callee.Name]; ok {
			return t
		}
	}
	return anyType
}

func arrayMethod(recv Apparent, name string) Apparent {
	switch name {
	case "push", "unshift", "indexOf", "lastIndexOf":
		return numberType
	case "pop", "shift":
		if recv.Elem != nil {
			return *recv.Elem
		}
	case "join":
		return stringType
	case "slice", "concat", "reverse", "sort", "filter":
		return recv
	case "includes", "some", "every":
		return booleanType
	}
	return anyType
}

// returnType is the apparent type every return of fn agrees on: void without
// returns, any when they disagree.
func (p *Program) returnType(fn NodeID) Apparent {
	rets := p.Returns(fn)
	if len(rets) == 0 {
		return voidType
	}
	var result *Apparent
	for _, r := range rets {
		t := voidType
		if expr := p.Node(r).Expr; expr != NoNode {
			t = p.ApparentType(expr)
		}
		if result == nil {
			result = &t
			continue
		}
		if !result.Equal(t) {
			return anyType
		}
	}
	return *result
}
