package ctypes_test

import (
	"testing"

	"martianoff/cshape/cshapeerr"
	"martianoff/cshape/internal/ctypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	reg := ctypes.NewRegistry()
	foo := reg.Register("foo", []ctypes.Property{{Name: "a", Type: ctypes.Integer}})

	tests := []struct {
		name string
		typ  ctypes.Type
		want string
	}{
		{name: "string", typ: ctypes.String, want: "const char *"},
		{name: "integer", typ: ctypes.Integer, want: "int16_t"},
		{name: "boolean", typ: ctypes.Boolean, want: "uint8_t"},
		{name: "void", typ: ctypes.Void, want: "void"},
		{name: "pointer", typ: ctypes.Pointer, want: "void *"},
		{name: "universal", typ: ctypes.Universal, want: "struct js_var"},
		{name: "fixed array", typ: reg.FixedArray(ctypes.String, 4), want: "static const char * {var}[4]"},
		{name: "nested fixed array", typ: reg.FixedArray(reg.FixedArray(ctypes.Integer, 2), 3), want: "static int16_t {var}[3][2]"},
		{name: "dynamic array", typ: reg.DynamicArray(ctypes.Integer), want: "ARRAY(int16_t)"},
		{name: "map of record", typ: reg.Map(foo), want: "DICT(struct foo_t *)"},
		{name: "record", typ: foo, want: "struct foo_t *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ctypes.Render(tt.typ))
		})
	}
}

func TestRenderMalformedPanics(t *testing.T) {
	assert.PanicsWithError(t, "[InternalError] cannot render type value <nil>", func() {
		ctypes.Render(nil)
	})

	var nilRecord *ctypes.Record
	assert.Panics(t, func() { ctypes.Render(nilRecord) })

	defer func() {
		r := recover()
		require.NotNil(t, r)
		_, ok := r.(*cshapeerr.InternalError)
		assert.True(t, ok)
	}()
	ctypes.Render(nil)
}

func TestDeclare(t *testing.T) {
	reg := ctypes.NewRegistry()
	tests := []struct {
		name string
		typ  ctypes.Type
		want string
	}{
		{name: "pointer text", typ: ctypes.String, want: "const char *s"},
		{name: "scalar", typ: ctypes.Integer, want: "int16_t s"},
		{name: "fixed array", typ: reg.FixedArray(ctypes.Integer, 3), want: "static int16_t s[3]"},
		{name: "dynamic array", typ: reg.DynamicArray(ctypes.Boolean), want: "ARRAY(uint8_t) s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ctypes.Declare(tt.typ, "s"))
		})
	}
}

func TestRegisterDeduplicatesByShape(t *testing.T) {
	reg := ctypes.NewRegistry()
	props := []ctypes.Property{{Name: "a", Type: ctypes.Integer}, {Name: "b", Type: ctypes.String}}

	first := reg.Register("point", props)
	second := reg.Register("other", []ctypes.Property{{Name: "a", Type: ctypes.Integer}, {Name: "b", Type: ctypes.String}})
	reordered := reg.Register("point", []ctypes.Property{{Name: "b", Type: ctypes.String}, {Name: "a", Type: ctypes.Integer}})

	assert.Same(t, first, second)
	assert.NotSame(t, first, reordered)
	assert.Equal(t, "point", second.Hint())
	assert.Equal(t, "int16_t a;const char * b;", reg.Canonical(first))
	assert.Len(t, reg.Records(), 2)
}

func TestRegisterNestedRecords(t *testing.T) {
	reg := ctypes.NewRegistry()
	inner1 := reg.Register("pos", []ctypes.Property{{Name: "x", Type: ctypes.Integer}})
	inner2 := reg.Register("where", []ctypes.Property{{Name: "x", Type: ctypes.Integer}})
	outer1 := reg.Register("a", []ctypes.Property{{Name: "pos", Type: inner1}})
	outer2 := reg.Register("b", []ctypes.Property{{Name: "pos", Type: inner2}})

	assert.Same(t, inner1, inner2)
	assert.Same(t, outer1, outer2)
}

func TestInterningIsIdempotent(t *testing.T) {
	reg := ctypes.NewRegistry()
	rec := reg.Register("r", []ctypes.Property{{Name: "v", Type: ctypes.Boolean}})

	assert.Same(t, reg.FixedArray(ctypes.Integer, 3), reg.FixedArray(ctypes.Integer, 3))
	assert.NotSame(t, reg.FixedArray(ctypes.Integer, 3), reg.FixedArray(ctypes.Integer, 4))
	assert.Same(t, reg.DynamicArray(rec), reg.DynamicArray(rec))
	assert.Same(t, reg.Map(ctypes.String), reg.Map(ctypes.String))

	again := reg.Register("r", []ctypes.Property{{Name: "v", Type: ctypes.Boolean}})
	assert.Same(t, rec, again)
	assert.True(t, ctypes.Same(reg.DynamicArray(rec), reg.DynamicArray(again)))
}

func TestExtend(t *testing.T) {
	reg := ctypes.NewRegistry()
	base := reg.Register("obj", nil)

	grown := reg.Extend(base, "obj", []ctypes.Property{{Name: "name", Type: ctypes.String}})
	require.NotSame(t, base, grown)
	assert.Equal(t, "const char * name;", reg.Canonical(grown))

	overridden := reg.Extend(grown, "", []ctypes.Property{{Name: "name", Type: ctypes.Integer}, {Name: "ok", Type: ctypes.Boolean}})
	assert.Equal(t, "int16_t name;uint8_t ok;", reg.Canonical(overridden))
	assert.Equal(t, "obj", overridden.Hint())

	assert.Same(t, grown, reg.Extend(grown, "obj", []ctypes.Property{{Name: "name", Type: ctypes.String}}))
	assert.Same(t, grown, reg.Extend(grown, "obj", nil))
}

func TestExtendSelfReference(t *testing.T) {
	reg := ctypes.NewRegistry()
	base := reg.Register("node", nil)

	linked := reg.Extend(base, "node", []ctypes.Property{{Name: "v", Type: ctypes.Integer}}, "next")
	next, ok := linked.Property("next")
	require.True(t, ok)
	assert.Same(t, linked, next)
	assert.Same(t, linked, reg.Extend(base, "node", []ctypes.Property{{Name: "v", Type: ctypes.Integer}}, "next"))

	records := reg.Finalize([]ctypes.Type{linked})
	require.Len(t, records, 1)
	assert.Equal(t, "int16_t v;struct node_t * next;", reg.Canonical(linked))
}

func TestFinalizeNaming(t *testing.T) {
	reg := ctypes.NewRegistry()
	a := reg.Register("obj", []ctypes.Property{{Name: "a", Type: ctypes.Integer}})
	b := reg.Register("obj", []ctypes.Property{{Name: "b", Type: ctypes.String}})
	anon := reg.Register("", []ctypes.Property{{Name: "c", Type: ctypes.Boolean}})
	empty := reg.Register("", nil)
	unreachable := reg.Register("lost", []ctypes.Property{{Name: "d", Type: ctypes.Integer}})
	nested := reg.Register("outer", []ctypes.Property{{Name: "inner", Type: reg.DynamicArray(anon)}})

	out := reg.Finalize([]ctypes.Type{a, b, empty, nested, ctypes.Integer})

	assert.Equal(t, []*ctypes.Record{a, b, anon, nested}, out)
	assert.Equal(t, "obj_t", a.Name())
	assert.Equal(t, "obj_2_t", b.Name())
	assert.Equal(t, "struct_0_t", anon.Name())
	assert.Equal(t, "struct_1_t", empty.Name())
	assert.Equal(t, "outer_t", nested.Name())
	assert.Equal(t, "lost_t", unreachable.Name())
	assert.Equal(t, "struct outer_t *", ctypes.Render(nested))
}

func TestHintSanitized(t *testing.T) {
	reg := ctypes.NewRegistry()
	rec := reg.Register("$el", []ctypes.Property{{Name: "x", Type: ctypes.Integer}})
	reg.Finalize([]ctypes.Type{rec})
	assert.Equal(t, "_el_t", rec.Name())
}

func TestFallbackHelpers(t *testing.T) {
	reg := ctypes.NewRegistry()
	assert.True(t, ctypes.IsFallback(nil))
	assert.True(t, ctypes.IsFallback(ctypes.Pointer))
	assert.True(t, ctypes.IsFallback(ctypes.Universal))
	assert.False(t, ctypes.IsFallback(ctypes.Void))

	elem, ok := ctypes.ElementType(reg.Map(ctypes.Integer))
	assert.True(t, ok)
	assert.Equal(t, ctypes.Integer, elem)
	_, ok = ctypes.ElementType(ctypes.String)
	assert.False(t, ok)

	assert.True(t, ctypes.RequiresAllocation(reg.DynamicArray(ctypes.Integer)))
	assert.True(t, ctypes.RequiresAllocation(reg.Map(ctypes.Integer)))
	assert.False(t, ctypes.RequiresAllocation(reg.FixedArray(ctypes.Integer, 2)))
	assert.True(t, ctypes.IsArray(reg.FixedArray(ctypes.Integer, 2)))
	assert.False(t, ctypes.IsArray(reg.Map(ctypes.Integer)))
}
