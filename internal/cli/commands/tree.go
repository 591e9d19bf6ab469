package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapsieve/internal/cli/output"
	"github.com/leapstack-labs/leapsieve/pkg/ast"
	"github.com/leapstack-labs/leapsieve/pkg/sieve"
	"github.com/leapstack-labs/leapsieve/pkg/token"
)

// treeScript is the dump of a parsed script.
type treeScript struct {
	Require  []string      `yaml:"require,omitempty" json:"require,omitempty"`
	Commands []treeCommand `yaml:"commands" json:"commands"`
	Comments []string      `yaml:"comments,omitempty" json:"comments,omitempty"`
}

type treeCommand struct {
	Name     string        `yaml:"name" json:"name"`
	Role     string        `yaml:"role" json:"role"`
	Rule     string        `yaml:"rule,omitempty" json:"rule,omitempty"`
	Pos      string        `yaml:"pos" json:"pos"`
	Args     []treeArg     `yaml:"args,omitempty" json:"args,omitempty"`
	Block    []treeCommand `yaml:"block,omitempty" json:"block,omitempty"`
	Comments []string      `yaml:"comments,omitempty" json:"comments,omitempty"`
}

type treeTest struct {
	Name string    `yaml:"name" json:"name"`
	Args []treeArg `yaml:"args,omitempty" json:"args,omitempty"`
}

// treeArg holds exactly one of its fields.
type treeArg struct {
	Tag    string     `yaml:"tag,omitempty" json:"tag,omitempty"`
	String *string    `yaml:"string,omitempty" json:"string,omitempty"`
	List   []string   `yaml:"list,omitempty" json:"list,omitempty"`
	Number string     `yaml:"number,omitempty" json:"number,omitempty"`
	Test   *treeTest  `yaml:"test,omitempty" json:"test,omitempty"`
	Tests  []treeTest `yaml:"tests,omitempty" json:"tests,omitempty"`
}

// NewTreeCommand creates the tree command.
func NewTreeCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "tree [file]",
		Short: "Dump the parsed command tree",
		Long: `Parse a script and print its command tree as YAML or JSON.

Known command and test names are shown in canonical lower case; tags
are shown without their leading colon. Comments attached to a command
are listed with it.`,
		Example: `  leapsieve tree filter.sieve
  leapsieve tree -o json < filter.sieve`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, inputArg(args), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Dump format: yaml, json")

	return cmd
}

func runTree(cmd *cobra.Command, path, format string) error {
	cmdCtx := NewCommandContext(cmd)
	src, err := readInput(cmd, cmdCtx.Engine, path)
	if err != nil {
		return err
	}

	script, err := sieve.Parse(src, cmdCtx.Engine.Options())
	if err != nil {
		return err
	}
	dump := buildTree(script)

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON || format == "json" {
		return r.JSON(dump)
	}
	if format != "yaml" {
		return fmt.Errorf("unknown dump format %q: use yaml or json", format)
	}

	enc := yaml.NewEncoder(r.Writer())
	enc.SetIndent(2)
	if err := enc.Encode(dump); err != nil {
		return err
	}
	return enc.Close()
}

func buildTree(script *ast.Script) treeScript {
	return treeScript{
		Require:  script.Capabilities(),
		Commands: treeCommands(script.Body()),
		Comments: commentTexts(script.Body().TrailingComments),
	}
}

func treeCommands(b *ast.Block) []treeCommand {
	cmds := b.Commands()
	out := make([]treeCommand, 0, len(cmds))
	for _, c := range cmds {
		tc := treeCommand{
			Name: c.Name,
			Role: c.Kind.Role().String(),
			Rule: c.RuleName(),
			Pos:  c.Span.Start.String(),
			Args: treeArgs(c.Args()),
		}
		var comments []*token.Comment
		comments = append(comments, c.LeadingComments...)
		comments = append(comments, c.TrailingComments...)
		tc.Comments = commentTexts(comments)
		if c.Block() != nil {
			tc.Block = treeCommands(c.Block())
			tc.Comments = append(tc.Comments, commentTexts(c.Block().TrailingComments)...)
		}
		out = append(out, tc)
	}
	return out
}

func treeArgs(args []ast.Argument) []treeArg {
	out := make([]treeArg, 0, len(args))
	for _, a := range args {
		switch v := a.(type) {
		case *ast.TagArg:
			out = append(out, treeArg{Tag: v.Name})
		case *ast.StringArg:
			s := v.Value
			out = append(out, treeArg{String: &s})
		case *ast.StringListArg:
			list := append([]string{}, v.Values...)
			out = append(out, treeArg{List: list})
		case *ast.NumberArg:
			out = append(out, treeArg{Number: v.String()})
		case *ast.TestArg:
			t := treeTestOf(v.Test)
			out = append(out, treeArg{Test: &t})
		case *ast.TestListArg:
			tests := make([]treeTest, 0, len(v.Tests))
			for _, t := range v.Tests {
				tests = append(tests, treeTestOf(t))
			}
			out = append(out, treeArg{Tests: tests})
		}
	}
	return out
}

func treeTestOf(t *ast.Test) treeTest {
	return treeTest{Name: t.Name, Args: treeArgs(t.Args)}
}

func commentTexts(comments []*token.Comment) []string {
	if len(comments) == 0 {
		return nil
	}
	out := make([]string, 0, len(comments))
	for _, c := range comments {
		out = append(out, c.Text)
	}
	return out
}
