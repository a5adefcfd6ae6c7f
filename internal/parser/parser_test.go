package parser

import (
	"errors"
	"testing"

	"martianoff/cshape/cshapeerr"
	"martianoff/cshape/internal/frontend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSParser(t *testing.T) {
	p := NewJSParser()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "Basic let declaration",
			input:   `let x = 10;`,
			wantErr: false,
		},
		{
			name:    "Function declaration",
			input:   `function add(a, b) { return a + b; }`,
			wantErr: false,
		},
		{
			name:    "Arrow function",
			input:   `const f = (x) => x * x;`,
			wantErr: false,
		},
		{
			name: "Loops over collections",
			input: `let arr = [1, 2, 3];
for (const v of arr) { arr.push(v); }
for (let k in {a: 1}) {}`,
			wantErr: false,
		},
		{
			name:    "Regular expression literal",
			input:   `let r = /(?=a)b/;`,
			wantErr: false,
		},
		{
			name:    "Empty program",
			input:   ``,
			wantErr: false,
		},
		{
			name:    "Unterminated object literal",
			input:   `let o = {a: 1`,
			wantErr: true,
		},
		{
			name:    "Invalid assignment target",
			input:   `1 = x;`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := p.Parse("input.js", tt.input)
			if tt.wantErr {
				assert.Error(t, err, "Expected error for input: %s", tt.input)
				assert.Nil(t, prog)
			} else {
				assert.NoError(t, err, "Unexpected error for input: %s", tt.input)
				require.NotNil(t, prog)
				assert.Equal(t, frontend.KindProgram, prog.Root().Kind)
			}
		})
	}
}

func TestSyntaxErrorsCarryPositions(t *testing.T) {
	_, err := NewJSParser().Parse("broken.js", "let a = 1;\nlet b = ;")
	require.Error(t, err)

	var multi *cshapeerr.MultiError
	require.True(t, errors.As(err, &multi))
	require.NotEmpty(t, multi.Errors)
	assert.Equal(t, cshapeerr.TypeSyntax, multi.Type())

	var syntaxErr *cshapeerr.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, "broken.js", syntaxErr.FilePath)
	assert.Equal(t, 2, syntaxErr.Line)
	assert.Contains(t, syntaxErr.Error(), "broken.js:2:")
}
