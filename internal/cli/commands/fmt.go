package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsieve/internal/cli/output"
	"github.com/leapstack-labs/leapsieve/pkg/format"
	"github.com/leapstack-labs/leapsieve/pkg/sieve"
)

// FmtOptions holds options for the fmt command.
type FmtOptions struct {
	Write bool // Rewrite files in place
	Check bool // Fail when a file is not canonical
	Watch bool // Re-format files when they change
}

// errNotCanonical is returned by fmt --check.
var errNotCanonical = errors.New("files are not canonical")

// NewFmtCommand creates the fmt command.
func NewFmtCommand() *cobra.Command {
	opts := &FmtOptions{}
	cmd := &cobra.Command{
		Use:   "fmt [path...]",
		Short: "Print scripts in canonical form",
		Long: `Parse Sieve scripts and print them in canonical form.

With no paths the script is read from stdin and written to stdout.
Directories are scanned recursively for *.sieve and *.siv files.

Layout follows the format section of leapsieve.yaml: line ending,
indentation, the length above which strings use text: form and the
output charset.`,
		Example: `  # Format stdin
  leapsieve fmt < filter.sieve

  # Rewrite all scripts under the current directory
  leapsieve fmt --write .

  # Fail in CI when a script is not formatted
  leapsieve fmt --check scripts/

  # Keep scripts formatted while editing
  leapsieve fmt --watch scripts/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "Write result to the source file instead of stdout")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "Exit non-zero if any file is not canonical")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Watch paths and re-format files on change")
	cmd.MarkFlagsMutuallyExclusive("check", "write")
	cmd.MarkFlagsMutuallyExclusive("check", "watch")

	return cmd
}

func runFmt(cmd *cobra.Command, args []string, opts *FmtOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	if len(args) == 0 && !opts.Write && !opts.Check && !opts.Watch {
		return fmtStdin(cmd, cmdCtx)
	}
	if len(args) == 1 && args[0] == "-" {
		if opts.Write || opts.Check || opts.Watch {
			return fmt.Errorf("cannot use --write, --check or --watch with stdin")
		}
		return fmtStdin(cmd, cmdCtx)
	}

	eng := cmdCtx.Engine
	paths := defaultPaths(cmdCtx.Cfg, args)
	discovered := eng.Discover(paths)
	for _, de := range discovered.Errors {
		r.Error(de.Error())
	}
	if discovered.HasErrors() {
		return fmt.Errorf("failed to discover scripts")
	}

	write := opts.Write || opts.Watch
	results, failed := formatFiles(cmdCtx, discovered.Files, write, opts.Check)

	if r.EffectiveMode() == output.ModeJSON {
		_ = r.JSON(results)
	} else if !write && !opts.Check {
		// plain fmt prints the formatted scripts
		for _, res := range results {
			_, _ = r.Writer().Write(res.Output)
		}
	}

	if opts.Watch {
		return watchAndFormat(cmd, cmdCtx, paths)
	}

	if failed > 0 {
		return fmt.Errorf("%d files could not be formatted", failed)
	}
	if opts.Check {
		for _, res := range results {
			if res.Changed {
				return errNotCanonical
			}
		}
	}
	return nil
}

func formatFiles(cmdCtx *CommandContext, files []string, write, check bool) ([]output.FormatResult, int) {
	r := cmdCtx.Renderer
	text := r.EffectiveMode() != output.ModeJSON
	results := make([]output.FormatResult, 0, len(files))
	failed := 0

	for _, path := range files {
		res, err := cmdCtx.Engine.FormatFile(path, write)
		if err != nil {
			failed++
			r.Error(err.Error())
			results = append(results, output.FormatResult{Path: path, Error: err.Error()})
			continue
		}
		results = append(results, output.FormatResult{Path: path, Changed: res.Changed, Output: res.Output})

		switch {
		case !text || !res.Changed:
		case check:
			r.Println(r.Styles().FilePath.Render(path))
		case write:
			r.Success("formatted " + path)
		}
	}
	return results, failed
}

func fmtStdin(cmd *cobra.Command, cmdCtx *CommandContext) error {
	opts := cmdCtx.Engine.Options()
	src, err := readInput(cmd, cmdCtx.Engine, "-")
	if err != nil {
		return err
	}
	script, err := sieve.Parse(src, opts)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := format.Write(&buf, script, opts.Format); err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

func watchAndFormat(cmd *cobra.Command, cmdCtx *CommandContext, paths []string) error {
	r := cmdCtx.Renderer

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	r.Muted("Watching for changes. Press Ctrl+C to stop.")
	return cmdCtx.Engine.Watch(ctx, paths, func(path string) {
		res, err := cmdCtx.Engine.FormatFile(path, true)
		if err != nil {
			r.Error(err.Error())
			return
		}
		if res.Written {
			r.Success("formatted " + path)
		}
	})
}
