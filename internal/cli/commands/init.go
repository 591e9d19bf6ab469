package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsieve/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapsieve/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leapsieve project",
		Long: `Initialize a new leapsieve project with a default configuration.

This creates a leapsieve.yaml file holding the format, parse and server
settings used by fmt and check.

Use --example to also create sample filters under filters/ and a server
capability list.`,
		Example: `  # Initialize in current directory
  leapsieve init

  # Initialize with sample filters
  leapsieve init --example

  # Initialize in a new directory
  leapsieve init my-filters --example

  # Force overwrite existing config
  leapsieve init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig()
			mode := output.Mode(cfg.OutputFormat)
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			template := "minimal"
			if example {
				template = "example"
			}
			return runInit(r, dir, template, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Create sample filters along with the configuration")

	return cmd
}

func runInit(r *output.Renderer, dir, template string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, intconfig.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", intconfig.ConfigFileName)
	}

	result, err := copyTemplate(template, dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	skipped := make(map[string]bool, len(result.Skipped))
	for _, f := range result.Skipped {
		skipped[f] = true
	}
	files := append(append([]string{}, result.Created...), result.Skipped...)
	sort.Strings(files)
	groups := groupTemplateFiles(files)

	for i, section := range []struct{ key, title string }{
		{"config", "Configuration"},
		{"filters", "Filters"},
	} {
		if len(groups[section.key]) == 0 {
			continue
		}
		if i > 0 {
			r.Println("")
		}
		r.Header(section.title)
		for _, f := range groups[section.key] {
			if skipped[f] {
				r.StatusLine(f, "skipped", "already exists")
				continue
			}
			r.StatusLine(f, "success", "")
		}
	}

	r.Println("")
	r.Success("leapsieve project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Set server.capabilities in " + intconfig.ConfigFileName)
	r.Println("  2. Run 'leapsieve check' to validate your filters")
	r.Println("  3. Run 'leapsieve fmt --write .' to format them")

	return nil
}
