package naming

import (
	"testing"

	"github.com/dop251/goja/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/cshape/internal/frontend"
)

func build(t *testing.T, src string) *frontend.Program {
	t.Helper()
	ast, err := parser.ParseFile(nil, "naming.js", src, 0)
	require.NoError(t, err)
	return frontend.Build(ast)
}

func decl(t *testing.T, p *frontend.Program, name string) frontend.NodeID {
	t.Helper()
	for _, n := range p.Nodes() {
		if n.Kind == frontend.KindVarDecl && n.Name == name {
			return n.ID
		}
	}
	t.Fatalf("no declaration %q", name)
	return frontend.NoNode
}

const program = `
let i = 0;
function f(j) {
  let body = 1;
  for (let k = 0; k < 3; k++) {}
}
function g() { let x = 1; }
`

func TestLoopCounter(t *testing.T) {
	p := build(t, program)
	a := New(p)

	body := decl(t, p, "body")
	assert.Equal(t, "k", a.LoopCounter(body))
	assert.Equal(t, "l", a.LoopCounter(body))

	x := decl(t, p, "x")
	assert.Equal(t, "j", a.LoopCounter(x), "allocations in f do not leak into g")

	global := decl(t, p, "i")
	assert.Equal(t, "j", a.LoopCounter(global))
	assert.Equal(t, "k", a.LoopCounter(global))
}

func TestLoopCounterExhausted(t *testing.T) {
	p := build(t, `let i, j, k, l, m, n, i_2;`)
	a := New(p)
	at := decl(t, p, "n")

	assert.Equal(t, "i_3", a.LoopCounter(at))
	assert.Equal(t, "i_4", a.LoopCounter(at))
}

func TestTemporary(t *testing.T) {
	p := build(t, program)
	a := New(p)
	body := decl(t, p, "body")

	tests := []struct {
		proposed string
		want     string
	}{
		{proposed: "tmp", want: "tmp"},
		{proposed: "tmp", want: "tmp_2"},
		{proposed: "body", want: "body_2"},
		{proposed: "body", want: "body_3"},
		{proposed: "j", want: "j_2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.Temporary(body, tt.proposed), "proposed %q", tt.proposed)
	}
}

func TestNoNodeIsGlobal(t *testing.T) {
	p := build(t, `let tmp = 1;`)
	a := New(p)
	assert.Equal(t, "tmp", a.Temporary(frontend.NoNode, "tmp"))
	assert.Equal(t, "tmp_2", a.Temporary(frontend.NoNode, "tmp"))
	assert.Equal(t, "tmp_3", a.Temporary(decl(t, p, "tmp"), "tmp"))
}
