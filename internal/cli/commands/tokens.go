package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsieve/internal/cli/output"
	"github.com/leapstack-labs/leapsieve/pkg/parser"
)

// NewTokensCommand creates the tokens command.
func NewTokensCommand() *cobra.Command {
	var mode int
	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Decode the string values of a script",
		Long: `Run the standalone tokenizer and print the decoded values as JSON.

Strings are unescaped and text: blocks are un-stuffed; comments and
punctuation are dropped. Bracketed string lists stay grouped.

Modes:
  0  every value, as a list
  1  the first value only`,
		Example: `  leapsieve tokens filter.sieve
  echo 'text:
hello
.
' | leapsieve tokens --mode 1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd, inputArg(args), parser.Mode(mode))
		},
	}

	cmd.Flags().IntVarP(&mode, "mode", "m", int(parser.ModeAll), "Tokenizer mode: 0 (all values) or 1 (first value)")
	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"0", "1"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runTokens(cmd *cobra.Command, path string, mode parser.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w %d: must be 0 or 1", parser.ErrInvalidMode, mode)
	}

	cmdCtx := NewCommandContext(cmd)
	src, err := readInput(cmd, cmdCtx.Engine, path)
	if err != nil {
		return err
	}

	v, err := parser.Tokenize(src, mode)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(v)
	}
	r.Println(v.String())
	return nil
}
