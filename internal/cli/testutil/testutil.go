// Package testutil holds helpers shared by the CLI command tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsieve/internal/cli/output"
)

// SetupTestScripts writes scripts, keyed by slash-separated relative path,
// into a fresh temporary directory and returns it.
func SetupTestScripts(t *testing.T, scripts map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range scripts {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
	return dir
}

// ReadScript returns the current content of a script written by
// SetupTestScripts.
func ReadScript(t *testing.T, dir, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

// TestRenderer is a Renderer whose output lands in buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a buffered renderer. Text mode pretends to write
// to a terminal; every other mode does not.
func NewTestRenderer(mode output.OutputMode) *TestRenderer {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, mode == output.ModeText, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns everything written to stdout so far.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI fails when s carries terminal escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	assert.False(t, ansiPattern.MatchString(s), "unexpected ANSI escape codes in %q", s)
}

// AssertValidMarkdown checks that code fences are balanced and that no
// heading is empty.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	assert.Zero(t, strings.Count(md, "```")%2, "unbalanced code fences")
	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			assert.NotEmpty(t, strings.TrimLeft(trimmed, "# "), "empty heading at line %d", i+1)
		}
	}
}

// AssertOutputMode checks the buffered output against what mode allows.
// Only text mode may style its output.
func AssertOutputMode(t *testing.T, tr *TestRenderer, mode output.OutputMode) {
	t.Helper()
	if mode != output.ModeText {
		AssertNoANSI(t, tr.Output()+tr.ErrOut.String())
	}
}
