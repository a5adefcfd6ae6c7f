package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/cshape/internal/inference"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cshape.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, inference.DefaultMaxIterations, cfg.MaxIterations)
	assert.Equal(t, "text", cfg.Format)
	assert.False(t, cfg.Verbose)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, inference.DefaultOptions(), cfg.Options())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     string
		want    Config
		wantErr string
	}{
		{
			name:    "Full file",
			content: "max_iterations: 10\nformat: yaml\nverbose: true\ndump: true\n",
			want:    Config{MaxIterations: 10, Format: "yaml", Verbose: true, Dump: true},
		},
		{
			name:    "Partial file keeps defaults",
			content: "format: json\n",
			want:    Config{MaxIterations: inference.DefaultMaxIterations, Format: "json"},
		},
		{
			name:    "Environment overrides file",
			content: "max_iterations: 10\n",
			env:     "3",
			want:    Config{MaxIterations: 3, Format: "text"},
		},
		{
			name:    "Bad environment value",
			content: "",
			env:     "many",
			wantErr: EnvMaxIterations,
		},
		{
			name:    "Non-positive bound",
			content: "max_iterations: 0\n",
			wantErr: "max_iterations must be positive",
		},
		{
			name:    "Unknown format",
			content: "format: xml\n",
			wantErr: `unknown format "xml"`,
		},
		{
			name:    "Malformed YAML",
			content: "max_iterations: [\n",
			wantErr: "parsing config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvMaxIterations, tt.env)
			cfg, err := Load(writeConfig(t, tt.content))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(EnvMaxIterations, "")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")

	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFromWorkingDirectory(t *testing.T) {
	t.Setenv(EnvMaxIterations, "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("verbose: true\n"), 0644))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
}
