package transpiler_test

import (
	"os"
	"path/filepath"

	"github.com/bazelbuild/rules_go/go/tools/bazel"
)

// fixturePath returns the path of a file under testdata.
// In Bazel tests, it uses runfiles to find the file.
// Outside of Bazel, it falls back to finding go.mod and joining from the module root.
func fixturePath(name string) string {
	rel := filepath.Join("internal", "transpiler", "testdata", name)
	if path, err := bazel.Runfile(rel); err == nil {
		return path
	}

	// Fallback: walk up to find go.mod (works when running outside Bazel)
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join("testdata", name)
	}

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, rel)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return filepath.Join("testdata", name)
}
