package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsieve/internal/lsp"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for editor integration.

The server communicates over stdin/stdout using JSON-RPC. It publishes
diagnostics for open scripts, formats them, completes commands, tests,
tags and extension names, and offers quick fixes that add missing
extensions to the require list.

Settings come from leapsieve.yaml in the workspace root sent by the
client, falling back to the flags and configuration of this command.`,
		Example: `  # Start LSP server (usually called by an editor)
  leapsieve lsp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			server := lsp.NewServer(cmd.InOrStdin(), cmd.OutOrStdout(), lsp.Config{
				Options: cmdCtx.Engine.Options(),
				Version: version,
				Logger:  cmdCtx.Logger,
			})
			return server.Run()
		},
	}

	return cmd
}
