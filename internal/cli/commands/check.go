package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapsieve/internal/cli/output"
	"github.com/leapstack-labs/leapsieve/internal/engine"
	"github.com/leapstack-labs/leapsieve/pkg/parser"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Format string // Output format override: text, markdown, json
	Table  bool   // Render diagnostics as one table
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Parse and validate Sieve scripts",
		Long: `Parse Sieve scripts and validate them against the known extensions.

Reports syntax errors, unknown commands and tests, misused arguments and
extensions used without a matching require. When server capabilities are
configured, requiring an extension the server does not advertise is an
error too.

With no paths the project directory is scanned; "-" reads stdin.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Check all scripts in the project
  leapsieve check

  # Check against what the server supports
  leapsieve check --capabilities "fileinto vacation" filter.sieve

  # Diagnostics as a table
  leapsieve check --table scripts/

  # Output as JSON
  leapsieve check -f json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")
	cmd.Flags().BoolVar(&opts.Table, "table", false, "Render diagnostics as a table")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *CheckOptions) error {
	cmdCtx := NewCommandContext(cmd)
	eng := cmdCtx.Engine
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	var results []engine.FileResult
	if len(args) == 1 && args[0] == "-" {
		src, err := readInput(cmd, eng, "-")
		if err != nil {
			return err
		}
		results = []engine.FileResult{eng.CheckSource("<stdin>", src)}
	} else {
		discovered := eng.Discover(defaultPaths(cmdCtx.Cfg, args))
		for _, de := range discovered.Errors {
			r.Error(de.Error())
		}
		if discovered.HasErrors() {
			return fmt.Errorf("failed to discover scripts")
		}
		if len(discovered.Files) == 0 {
			r.Warning("no scripts found")
			return nil
		}

		var err error
		results, err = eng.Check(cmd.Context(), discovered.Files)
		if err != nil {
			return err
		}
	}

	out := buildCheckOutput(results)
	if renderCheckResults(r, out, opts.Table) {
		return fmt.Errorf("check failed: %d issues found", out.Summary.TotalIssues)
	}
	return nil
}

// buildCheckOutput converts engine results to the rendered form.
func buildCheckOutput(results []engine.FileResult) output.CheckOutput {
	summary := engine.Summarize(results)
	out := output.CheckOutput{
		Summary: output.CheckSummary{
			FilesChecked: summary.Files,
			FilesFailed:  summary.Invalid,
			SyntaxErrors: summary.SyntaxErrors,
			TotalIssues:  summary.SyntaxErrors + summary.Diagnostics,
		},
		Files: make([]output.CheckFileResult, 0, len(results)),
	}

	for i := range results {
		res := &results[i]
		fr := output.CheckFileResult{Path: res.Path}
		switch {
		case res.Err != nil:
			fr.SyntaxError = &output.CheckDiagnostic{Kind: "read-error", Message: res.Err.Error()}
		case res.SyntaxErr != nil:
			fr.SyntaxError = syntaxDiagnostic(res.SyntaxErr)
		}
		for _, d := range res.Diagnostics {
			fr.Diagnostics = append(fr.Diagnostics, output.CheckDiagnostic{
				Kind:      string(d.Kind),
				Command:   d.Command,
				Extension: d.Extension,
				Message:   d.Detail,
				Line:      d.Pos.Line,
				Column:    d.Pos.Column,
			})
		}
		out.Files = append(out.Files, fr)
	}
	return out
}

func syntaxDiagnostic(err error) *output.CheckDiagnostic {
	var syn *parser.SyntaxError
	if errors.As(err, &syn) {
		return &output.CheckDiagnostic{Kind: "syntax-error", Message: syn.Message, Line: syn.Pos.Line, Column: syn.Pos.Column}
	}
	var lim *parser.LimitError
	if errors.As(err, &lim) {
		return &output.CheckDiagnostic{
			Kind:    "limit-exceeded",
			Message: fmt.Sprintf("nesting deeper than %d levels", lim.Limit),
			Line:    lim.Pos.Line,
			Column:  lim.Pos.Column,
		}
	}
	return &output.CheckDiagnostic{Kind: "syntax-error", Message: err.Error()}
}

// problems returns the syntax error, if any, followed by the diagnostics.
func problems(fr output.CheckFileResult) []output.CheckDiagnostic {
	if fr.SyntaxError != nil {
		return []output.CheckDiagnostic{*fr.SyntaxError}
	}
	return fr.Diagnostics
}

// renderCheckResults renders out and reports whether any issue was found.
func renderCheckResults(r *output.Renderer, out output.CheckOutput, asTable bool) bool {
	hasIssues := out.Summary.TotalIssues > 0

	if r.EffectiveMode() == output.ModeJSON {
		_ = r.JSON(out)
		return hasIssues
	}

	if !hasIssues {
		r.Success(fmt.Sprintf("%d scripts checked, no issues found", out.Summary.FilesChecked))
		return false
	}

	if asTable {
		renderCheckTable(r, out)
	} else {
		for _, fr := range out.Files {
			diags := problems(fr)
			if len(diags) == 0 {
				continue
			}
			r.Println(r.Styles().FilePath.Render(fr.Path))
			for _, d := range diags {
				r.Printf("  %s  %s  %s\n",
					r.Styles().Muted.Render(fmt.Sprintf("%-7s", location(d))),
					kindStyle(r, d.Kind),
					d.Message,
				)
			}
			r.Println("")
		}
	}

	r.Printf("Summary: %d issues (%s) in %d of %d files\n",
		out.Summary.TotalIssues,
		kindBreakdown(out),
		out.Summary.FilesFailed,
		out.Summary.FilesChecked,
	)
	return true
}

func renderCheckTable(r *output.Renderer, out output.CheckOutput) {
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Position", "Kind", "Message"})
	for _, fr := range out.Files {
		for _, d := range problems(fr) {
			t.AppendRow(table.Row{fr.Path, location(d), d.Kind, d.Message})
		}
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		t.RenderMarkdown()
		r.Println("")
		return
	}
	t.Render()
}

func location(d output.CheckDiagnostic) string {
	if d.Line == 0 {
		return "-"
	}
	return fmt.Sprintf("%d:%d", d.Line, d.Column)
}

func kindStyle(r *output.Renderer, kind string) string {
	switch kind {
	case "syntax-error", "limit-exceeded", "read-error":
		return r.Styles().Error.Render(kind)
	case "missing-capability", "unsupported-capability":
		return r.Styles().Warning.Render(kind)
	default:
		return r.Styles().Bold.Render(kind)
	}
}

// kindBreakdown counts issues per kind, e.g. "2 Missing Capability, 1 Syntax Error".
func kindBreakdown(out output.CheckOutput) string {
	counts := make(map[string]int)
	for _, fr := range out.Files {
		for _, d := range problems(fr) {
			counts[d.Kind]++
		}
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	titleCaser := cases.Title(language.English)
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%d %s", counts[k], titleCaser.String(strings.ReplaceAll(k, "-", " "))))
	}
	return strings.Join(parts, ", ")
}
