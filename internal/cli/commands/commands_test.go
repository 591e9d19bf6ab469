// Package commands_test provides tests for CLI command creation.
package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapsieve/internal/cli/config"
	"github.com/leapstack-labs/leapsieve/internal/cli/output"
	"github.com/leapstack-labs/leapsieve/internal/cli/testutil"
)

// runCommand executes cmd in-process with the given stdin and arguments.
func runCommand(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	config.ResetConfig()

	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewFmtCommand(), "fmt [path...]", []string{"write", "check", "watch"}},
		{NewCheckCommand(), "check [path...]", []string{"format", "table"}},
		{NewTokensCommand(), "tokens [file]", []string{"mode"}},
		{NewTreeCommand(), "tree [file]", []string{"format"}},
		{NewCapsCommand(), "caps", []string{"offered"}},
		{NewDoctorCommand(), "doctor [path...]", []string{"format"}},
		{NewLSPCommand("dev"), "lsp", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestFmtCommand_Stdin(t *testing.T) {
	out, _, err := runCommand(t, NewFmtCommand(), `if true{keep;}`)
	require.NoError(t, err)
	assert.Equal(t, "if true {\n\tkeep;\n}\n", out)

	out, _, err = runCommand(t, NewFmtCommand(), `keep;`, "-")
	require.NoError(t, err)
	assert.Equal(t, "keep;\n", out)

	_, _, err = runCommand(t, NewFmtCommand(), `keep`)
	assert.Error(t, err)

	_, _, err = runCommand(t, NewFmtCommand(), `keep;`, "--write", "-")
	assert.Error(t, err)
}

func TestFmtCommand_Files(t *testing.T) {
	dir := testutil.SetupTestScripts(t, map[string]string{
		"messy.sieve": `if true{keep;}`,
		"clean.sieve": "stop;\n",
	})
	messy := filepath.Join(dir, "messy.sieve")

	t.Run("print", func(t *testing.T) {
		out, _, err := runCommand(t, NewFmtCommand(), "", messy)
		require.NoError(t, err)
		assert.Equal(t, "if true {\n\tkeep;\n}\n", out)

		assert.Equal(t, `if true{keep;}`, testutil.ReadScript(t, dir, "messy.sieve"))
	})

	t.Run("check", func(t *testing.T) {
		out, _, err := runCommand(t, NewFmtCommand(), "", "--check", dir)
		assert.ErrorIs(t, err, errNotCanonical)
		assert.Contains(t, out, "messy.sieve")
		assert.NotContains(t, out, "clean.sieve")

		_, _, err = runCommand(t, NewFmtCommand(), "", "--check", filepath.Join(dir, "clean.sieve"))
		assert.NoError(t, err)
	})

	t.Run("write", func(t *testing.T) {
		out, _, err := runCommand(t, NewFmtCommand(), "", "--write", dir)
		require.NoError(t, err)
		assert.Contains(t, out, "formatted "+messy)

		assert.Equal(t, "if true {\n\tkeep;\n}\n", testutil.ReadScript(t, dir, "messy.sieve"))

		_, _, err = runCommand(t, NewFmtCommand(), "", "--check", dir)
		assert.NoError(t, err)
	})

	t.Run("check and write conflict", func(t *testing.T) {
		_, _, err := runCommand(t, NewFmtCommand(), "", "--check", "--write", dir)
		assert.Error(t, err)
	})
}

func TestFmtCommand_SyntaxError(t *testing.T) {
	dir := testutil.SetupTestScripts(t, map[string]string{"bad.sieve": "keep"})
	_, errOut, err := runCommand(t, NewFmtCommand(), "", "--write", dir)
	assert.EqualError(t, err, "1 files could not be formatted")
	assert.Contains(t, errOut, "bad.sieve")
}

func TestCheckCommand(t *testing.T) {
	dir := testutil.SetupTestScripts(t, map[string]string{
		"good.sieve":   "require \"fileinto\";\nfileinto \"Archive\";\n",
		"bad.sieve":    "fileinto \"Archive\";\nfrobnicate;\n",
		"broken.sieve": "if true {\n",
	})

	t.Run("clean file", func(t *testing.T) {
		out, _, err := runCommand(t, NewCheckCommand(), "", filepath.Join(dir, "good.sieve"))
		require.NoError(t, err)
		assert.Contains(t, out, "1 scripts checked, no issues found")
	})

	t.Run("markdown", func(t *testing.T) {
		out, _, err := runCommand(t, NewCheckCommand(), "", dir)
		assert.EqualError(t, err, "check failed: 3 issues found")
		testutil.AssertNoANSI(t, out)
		assert.Contains(t, out, filepath.Join(dir, "bad.sieve"))
		assert.Contains(t, out, "missing-capability")
		assert.Contains(t, out, "unknown-command")
		assert.Contains(t, out, "syntax-error")
		assert.Contains(t, out, "Summary: 3 issues (1 Missing Capability, 1 Syntax Error, 1 Unknown Command) in 2 of 3 files")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := runCommand(t, NewCheckCommand(), "", "-f", "json", dir)
		assert.Error(t, err)

		var result output.CheckOutput
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, 3, result.Summary.FilesChecked)
		assert.Equal(t, 2, result.Summary.FilesFailed)
		assert.Equal(t, 1, result.Summary.SyntaxErrors)
		assert.Equal(t, 3, result.Summary.TotalIssues)

		require.Len(t, result.Files, 3)
		bad := result.Files[0]
		assert.Equal(t, filepath.Join(dir, "bad.sieve"), bad.Path)
		require.Len(t, bad.Diagnostics, 2)
		assert.Equal(t, "missing-capability", bad.Diagnostics[0].Kind)
		assert.Equal(t, "fileinto", bad.Diagnostics[0].Extension)
		assert.Equal(t, 1, bad.Diagnostics[0].Line)

		broken := result.Files[1]
		require.NotNil(t, broken.SyntaxError)
		assert.Equal(t, "syntax-error", broken.SyntaxError.Kind)
		assert.Equal(t, 2, broken.SyntaxError.Line)
	})

	t.Run("table", func(t *testing.T) {
		out, _, err := runCommand(t, NewCheckCommand(), "", "--table", filepath.Join(dir, "bad.sieve"))
		assert.Error(t, err)
		assert.Contains(t, out, "|")
		assert.Contains(t, out, "unknown-command")
	})

	t.Run("stdin", func(t *testing.T) {
		out, _, err := runCommand(t, NewCheckCommand(), "keep;", "-")
		require.NoError(t, err)
		assert.Contains(t, out, "no issues found")
	})

	t.Run("missing path", func(t *testing.T) {
		_, errOut, err := runCommand(t, NewCheckCommand(), "", filepath.Join(dir, "nope.sieve"))
		assert.Error(t, err)
		assert.Contains(t, errOut, "nope.sieve")
	})
}

func TestTokensCommand(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"all values", `["a", "b"] "c" # comment`, nil, `[["a","b"],"c"]`},
		{"first value", "text:\nhello\n..dot\n.\n", []string{"--mode", "1"}, `"hello\n.dot"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCommand(t, NewTokensCommand(), tt.stdin, tt.args...)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, out)
		})
	}

	_, _, err := runCommand(t, NewTokensCommand(), `"a"`, "--mode", "3")
	assert.ErrorContains(t, err, "invalid mode 3")

	_, _, err = runCommand(t, NewTokensCommand(), `"abc`)
	assert.Error(t, err)
}

func TestTreeCommand(t *testing.T) {
	src := `require "fileinto";
# rule:[Archive]
if header :is "x-list" "dev" { fileinto "Dev"; } # done`

	t.Run("yaml", func(t *testing.T) {
		out, _, err := runCommand(t, NewTreeCommand(), src)
		require.NoError(t, err)

		var dump treeScript
		require.NoError(t, yaml.Unmarshal([]byte(out), &dump))
		assert.Equal(t, []string{"fileinto"}, dump.Require)
		require.Len(t, dump.Commands, 2)

		ifCmd := dump.Commands[1]
		assert.Equal(t, "if", ifCmd.Name)
		assert.Equal(t, "control", ifCmd.Role)
		assert.Equal(t, "Archive", ifCmd.Rule)
		assert.Equal(t, "3:1", ifCmd.Pos)
		assert.Contains(t, ifCmd.Comments, "# done")

		require.Len(t, ifCmd.Args, 1)
		test := ifCmd.Args[0].Test
		require.NotNil(t, test)
		assert.Equal(t, "header", test.Name)
		assert.Equal(t, "is", test.Args[0].Tag)
		assert.Equal(t, "x-list", *test.Args[1].String)

		require.Len(t, ifCmd.Block, 1)
		assert.Equal(t, "fileinto", ifCmd.Block[0].Name)
		assert.Equal(t, "action", ifCmd.Block[0].Role)
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := runCommand(t, NewTreeCommand(), `setflag ["\\Seen"]; x_custom 5K;`, "--format", "json")
		require.NoError(t, err)

		var dump treeScript
		require.NoError(t, json.Unmarshal([]byte(out), &dump))
		require.Len(t, dump.Commands, 2)
		assert.Equal(t, []string{`\Seen`}, dump.Commands[0].Args[0].List)
		assert.Equal(t, "unknown", dump.Commands[1].Role)
		assert.Equal(t, "5K", dump.Commands[1].Args[0].Number)
	})

	t.Run("bad format", func(t *testing.T) {
		_, _, err := runCommand(t, NewTreeCommand(), `keep;`, "--format", "xml")
		assert.ErrorContains(t, err, "unknown dump format")
	})
}

func TestCapsCommand(t *testing.T) {
	out, _, err := runCommand(t, NewCapsCommand(), "")
	require.NoError(t, err)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "## Extensions")
	assert.Contains(t, out, "fileinto")
	assert.Contains(t, out, "vacation")
}

func TestCapabilityInfos(t *testing.T) {
	infos := capabilityInfos(nil, []string{"fileinto"}, false)
	byName := make(map[string]output.CapabilityInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}

	require.Contains(t, byName, "fileinto")
	assert.True(t, byName["fileinto"].Offered)
	assert.Contains(t, byName["fileinto"].Unlocks, "fileinto")
	require.Contains(t, byName, "vacation")
	assert.False(t, byName["vacation"].Offered)

	offered := capabilityInfos(nil, []string{"fileinto"}, true)
	require.Len(t, offered, 1)
	assert.Equal(t, "fileinto", offered[0].Name)

	all := capabilityInfos(nil, nil, true)
	assert.Len(t, all, len(infos))
}
