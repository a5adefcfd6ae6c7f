package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/cshape/internal/config"
)

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvMaxIterations, "")
	t.Chdir(t.TempDir())
	inferInput, inferOutput, inferFormat, inferConfig = "", "", "text", ""
	inferVerbose, inferDump, inferStrict = false, false, false
	for _, cmd := range []*cobra.Command{rootCmd, inferCmd} {
		if f := cmd.Flags().Lookup("format"); f != nil {
			f.Changed = false
		}
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.js")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestInferCommand(t *testing.T) {
	path := writeSource(t, "let p = {x: 1};\nlet n = p.x;\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "Shorthand", args: []string{path}, want: "struct p_t *p; /* heap */"},
		{name: "Input flag", args: []string{"-i", path}, want: "int16_t n;"},
		{name: "Subcommand yaml", args: []string{"infer", path, "-f", "yaml"}, want: "name: p_t"},
		{name: "Subcommand json", args: []string{"infer", path, "--format", "json"}, want: `"converged": true`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, stdout, tt.want)
		})
	}
}

func TestInferWritesOutputFile(t *testing.T) {
	path := writeSource(t, "let s = \"a\";\n")
	out := filepath.Join(t.TempDir(), "main.h")

	stdout, _, err := execute(t, "infer", path, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Inferred shapes saved to")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "const char *s;")
}

func TestInferVerboseAndStrict(t *testing.T) {
	path := writeSource(t, "class A {}\nlet x = 1;\n")

	stdout, stderr, err := execute(t, "infer", path, "--verbose", "--dump")
	require.NoError(t, err)
	assert.Contains(t, stdout, "int16_t x;")
	assert.Contains(t, stderr, "warning: unsupported construct class declaration skipped")
	assert.Contains(t, stderr, "converged: true")
	assert.Contains(t, stderr, "report.Report")

	_, _, err = execute(t, "infer", path, "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inference failed")
}

func TestInferErrors(t *testing.T) {
	broken := writeSource(t, "let = ;\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "Missing input", args: []string{"infer"}, want: "no input file specified"},
		{name: "Unreadable input", args: []string{"infer", "missing.js"}, want: "failed to read input file"},
		{name: "Syntax error", args: []string{"infer", broken}, want: "SyntaxError"},
		{name: "Bad format", args: []string{"infer", broken, "-f", "xml"}, want: `unknown format "xml"`},
		{name: "Unknown argument", args: []string{"main.txt"}, want: `unknown command "main.txt"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cshape version dev\n", stdout)
}

func TestReplSession(t *testing.T) {
	var out, errOut bytes.Buffer
	s := newSession(config.DefaultConfig(), &out, &errOut)

	assert.True(t, s.handle("let xs = [1];"))
	assert.True(t, s.handle("xs.push(2);"))
	assert.True(t, s.handle(":show"))
	assert.Contains(t, out.String(), "xs.push(2);")

	out.Reset()
	assert.True(t, s.handle(""))
	assert.Contains(t, out.String(), "ARRAY(int16_t) xs; /* heap */")

	assert.True(t, s.handle(":reset"))
	assert.Empty(t, s.lines)
	assert.True(t, s.handle("let = ;"))
	assert.True(t, s.handle(""))
	assert.Contains(t, errOut.String(), "SyntaxError")

	out.Reset()
	assert.True(t, s.handle(":nope"))
	assert.Contains(t, out.String(), "unknown command")
	assert.False(t, s.handle(":quit"))
}
