package commands

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsieve/internal/cli/output"
	"github.com/leapstack-labs/leapsieve/internal/cli/testutil"
)

func TestVersionCommand(t *testing.T) {
	for _, version := range []string{"0.1.0", "1.2.3", "dev"} {
		t.Run(version, func(t *testing.T) {
			out, _, err := runCommand(t, NewVersionCommand(version), "")
			require.NoError(t, err)
			assert.Contains(t, out, "leapsieve v"+version+"\n")
			assert.Contains(t, out, runtime.Version())
		})
	}
}

func TestRenderVersion_JSON(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeJSON)
	want := VersionInfo{Version: "1.2.3", GoVersion: "go1.24.0", Extensions: 7}
	require.NoError(t, renderVersion(tr.Renderer, want))

	var got VersionInfo
	require.NoError(t, json.Unmarshal([]byte(tr.Output()), &got))
	assert.Equal(t, want, got)
}

func TestVersionCommand_RejectsArgs(t *testing.T) {
	_, _, err := runCommand(t, NewVersionCommand("dev"), "", "extra")
	assert.Error(t, err)
}
