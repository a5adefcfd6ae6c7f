package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/cshape/internal/inference"
	"martianoff/cshape/internal/parser"
)

func TestReportGenerator_Generate(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		source   string
		expected string
		wantErr  bool
	}{
		{
			name:   "Record and array",
			format: "text",
			source: `let p = {x: 1};
let xs = [1, 2];`,
			expected: `/* gen.js */

struct p_t {
    int16_t x;
};

struct p_t *p; /* heap */
static int16_t xs[2];
`,
		},
		{
			name:   "Function prototype",
			format: "text",
			source: `function id(s) { return s; }
id("a");`,
			expected: `/* gen.js */

const char *id(const char *s);
`,
		},
		{
			name:    "Unknown format",
			format:  "xml",
			source:  `let x = 1;`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := parser.NewJSParser().Parse("gen.js", tt.source)
			require.NoError(t, err)
			res := inference.Infer(prog, inference.DefaultOptions())

			got, err := NewReportGenerator(tt.format).Generate(prog, res)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
