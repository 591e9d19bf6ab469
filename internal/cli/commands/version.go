package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsieve/internal/cli/output"
	"github.com/leapstack-labs/leapsieve/pkg/capability"
)

// VersionInfo is the JSON output of the version command.
type VersionInfo struct {
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Extensions int    `json:"extensions"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the leapsieve version, the Go toolchain it was built with and the number of Sieve extensions it knows.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContext(cmd).Renderer
			info := VersionInfo{
				Version:    version,
				GoVersion:  runtime.Version(),
				Extensions: len(capability.Default().Extensions()),
			}

			return renderVersion(r, info)
		},
	}
}

func renderVersion(r *output.Renderer, info VersionInfo) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(info)
	}
	r.Printf("leapsieve v%s\n", info.Version)
	r.Printf("Sieve mail filter toolkit built with %s, %d extensions\n", info.GoVersion, info.Extensions)
	return nil
}
