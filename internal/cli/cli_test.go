package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/pagestack/pkg/observability"
)

// captureStdout redirects user-facing output to a buffer for the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

// isolate points the config and cache directories at temp dirs.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Cleanup(observability.Reset)
}

// run executes the command line non-interactively and returns stdout and
// the log output.
func run(t *testing.T, args ...string) (out, logs string, err error) {
	t.Helper()
	return runContext(t, context.Background(), args...)
}

func runContext(t *testing.T, ctx context.Context, args ...string) (out, logs string, err error) {
	t.Helper()
	buf := captureStdout(t)
	var logBuf bytes.Buffer

	c := New(&logBuf, LogInfo)
	c.interactive = false
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetErr(&logBuf)
	err = root.ExecuteContext(ctx)
	return buf.String(), logBuf.String(), err
}

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// fivePages is a text document with five form-feed separated pages.
const fivePages = "one\ftwo\fthree\ffour\ffive"
