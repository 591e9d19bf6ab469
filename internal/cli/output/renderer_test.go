package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode(t *testing.T) {
	assert.Equal(t, ModeJSON, Mode("json"))
	assert.Equal(t, ModeMarkdown, Mode("md"))
	assert.Equal(t, ModeText, Mode("text"))
	assert.Equal(t, ModeAuto, Mode(""))
	assert.Equal(t, ModeAuto, Mode("fancy"))
}

func TestEffectiveMode(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, ModeText, NewRendererWithTTY(&out, &errOut, true, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeMarkdown, NewRendererWithTTY(&out, &errOut, false, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeJSON, NewRendererWithTTY(&out, &errOut, true, ModeJSON).EffectiveMode())

	// a buffer is never a terminal
	r := NewRenderer(&out, &errOut, ModeAuto)
	assert.False(t, r.IsTTY())
}

func TestRendererMarkdownHasNoANSI(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeAuto)

	r.Header("Results")
	r.Success("all good")
	r.Muted("quiet")
	r.Warning("careful")
	r.Error("broken")

	assert.Equal(t, "## Results\n\nall good\nquiet\n", out.String())
	assert.Equal(t, "warning: careful\nerror: broken\n", errOut.String())
	assert.NotContains(t, out.String()+errOut.String(), "\x1b[")
}

func TestRendererJSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &out, false, ModeJSON)
	require.NoError(t, r.JSON(CheckSummary{FilesChecked: 2, TotalIssues: 1}))
	assert.JSONEq(t, `{"files_checked":2,"files_failed":0,"syntax_errors":0,"total_issues":1}`, out.String())
	assert.Same(t, &out, r.Writer())
}

func TestRendererStatusLine(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &out, false, ModeMarkdown)
	r.StatusLine("leapsieve.yaml", "success", "")
	r.StatusLine("filters/a.sieve", "failed", "syntax error")
	assert.Equal(t, "- [x] leapsieve.yaml\n- [ ] filters/a.sieve (syntax error)\n", out.String())

	out.Reset()
	r = NewRendererWithTTY(&out, &out, false, ModeText)
	r.StatusLine("leapsieve.yaml", "success", "")
	assert.Equal(t, "  ✓ leapsieve.yaml\n", out.String())
}
