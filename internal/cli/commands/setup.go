package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsieve/internal/cli/config"
	"github.com/leapstack-labs/leapsieve/internal/cli/output"
	"github.com/leapstack-labs/leapsieve/internal/engine"
	"github.com/leapstack-labs/leapsieve/pkg/format"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng := engine.New(engine.Config{
		Options: cfg.SieveOptions(),
		Logger:  logger,
	})

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
	}
}

// getConfig returns the current configuration, or the defaults when the
// command runs without the root command (as in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	cfg := &config.Config{
		OutputFormat: config.DefaultOutput,
		Log: config.LogConfig{
			Level:  config.DefaultLogLevel,
			Format: config.DefaultLogFormat,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// readInput reads a script from path, or from stdin when path is "-".
// Files are decoded from the configured charset.
func readInput(cmd *cobra.Command, eng *engine.Engine, path string) (string, error) {
	if path != "-" {
		text, _, err := eng.ReadScript(path)
		return text, err
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return format.Decode(raw, eng.Options().Format.Charset)
}

// inputArg returns the single optional input argument, defaulting to stdin.
func inputArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

// defaultPaths scans the project root when no paths are given.
func defaultPaths(cfg *config.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	root := cfg.ProjectRoot
	if root == "" {
		root = "."
	}
	return []string{root}
}
