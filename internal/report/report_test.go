package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/dop251/goja/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"martianoff/cshape/internal/frontend"
	"martianoff/cshape/internal/inference"
)

const source = `function area(w, h) { return w * h; }
let box = {w: 2, h: 3};
let a = area(box.w, box.h);
let names = [];
names.push("x");
const twice = (n) => n * 2;
twice(4);
`

func buildReport(t *testing.T) *Report {
	t.Helper()
	ast, err := parser.ParseFile(nil, "report.js", source, 0)
	require.NoError(t, err)
	prog := frontend.Build(ast)
	return Build(prog, inference.Infer(prog, inference.DefaultOptions()))
}

func TestBuild(t *testing.T) {
	r := buildReport(t)
	assert.Equal(t, "report.js", r.File)
	assert.True(t, r.Converged)

	require.Len(t, r.Records, 1)
	assert.Equal(t, Record{Name: "box_t", Fields: []Field{{Name: "w", Type: "int16_t"}, {Name: "h", Type: "int16_t"}}}, r.Records[0])

	require.Len(t, r.Functions, 2)
	assert.Equal(t, Function{
		Name:      "area",
		Line:      1,
		Return:    "int16_t",
		Params:    []Field{{Name: "w", Type: "int16_t"}, {Name: "h", Type: "int16_t"}},
		CallSites: 1,
	}, r.Functions[0])
	assert.Equal(t, "twice", r.Functions[1].Name)
	assert.Equal(t, "int16_t", r.Functions[1].Return)

	byName := map[string]Variable{}
	for _, v := range r.Variables {
		byName[v.Name] = v
	}
	box := byName["box"]
	assert.Equal(t, 2, box.Line)
	assert.Equal(t, 5, box.Column)
	assert.Equal(t, "struct box_t *box", box.Declaration)
	assert.True(t, box.Allocate)
	assert.Equal(t, 2, box.References)

	assert.Equal(t, "ARRAY(const char *) names", byName["names"].Declaration)
	assert.True(t, byName["w"].Parameter)
	assert.Equal(t, "area", byName["w"].Function)
	assert.Equal(t, "twice", byName["n"].Function)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, buildReport(t)))

	want := `/* report.js */

struct box_t {
    int16_t w;
    int16_t h;
};

int16_t area(int16_t w, int16_t h);
int16_t twice(int16_t n);

struct box_t *box; /* heap */
int16_t a;
ARRAY(const char *) names; /* heap */
void *twice;
`
	assert.Equal(t, want, buf.String())
}

func TestWriteStructured(t *testing.T) {
	r := buildReport(t)

	var out bytes.Buffer
	require.NoError(t, Write(&out, "yaml", r))
	var fromYAML Report
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &fromYAML))
	assert.Equal(t, *r, fromYAML)
	assert.Contains(t, out.String(), "name: box_t")

	out.Reset()
	require.NoError(t, Write(&out, "json", r))
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &fromJSON))
	assert.Equal(t, "report.js", fromJSON["file"])
	assert.Equal(t, true, fromJSON["converged"])

	assert.Error(t, Write(&out, "xml", r))
}

func TestDeclare(t *testing.T) {
	tests := []struct {
		typ, name, want string
	}{
		{"int16_t", "x", "int16_t x"},
		{"const char *", "s", "const char *s"},
		{"static int16_t {var}[3]", "arr", "static int16_t arr[3]"},
		{"DICT(int16_t)", "d", "DICT(int16_t) d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, declare(tt.typ, tt.name))
	}
}
