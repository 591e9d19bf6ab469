package format

import (
	"strings"

	"github.com/leapstack-labs/leapsieve/pkg/ast"
)

func (p *Printer) formatBlockBody(b *ast.Block) {
	for _, cmd := range b.Commands() {
		p.formatCommand(cmd)
	}
	p.formatComments(b.TrailingComments)
}

func (p *Printer) formatCommand(cmd *ast.Command) {
	p.formatComments(cmd.LeadingComments)
	p.write(cmd.Name)

	args := cmd.Args()
	if cmd.Kind == ast.KindRequire {
		args = requireArgs(args)
	}
	p.formatArgs(args)

	if b := cmd.Block(); b != nil {
		p.write(" {")
		p.writeln()
		p.indent()
		p.formatBlockBody(b)
		p.dedent()
		p.write("}")
	} else {
		p.write(";")
	}
	p.formatTrailingComments(cmd.TrailingComments)
	p.writeln()
}

// requireArgs turns single-string capabilities into lists.
func requireArgs(args []ast.Argument) []ast.Argument {
	out := make([]ast.Argument, len(args))
	for i, a := range args {
		if s, ok := a.(*ast.StringArg); ok {
			out[i] = &ast.StringListArg{Pos: s.Pos, Values: []string{s.Value}}
			continue
		}
		out[i] = a
	}
	return out
}

func (p *Printer) formatArgs(args []ast.Argument) {
	for _, a := range args {
		if !p.atLineStart {
			p.space()
		}
		p.formatArg(a)
	}
}

func (p *Printer) formatArg(a ast.Argument) {
	switch v := a.(type) {
	case *ast.StringArg:
		p.formatString(v.Value)
	case *ast.StringListArg:
		p.write("[")
		p.formatList(len(v.Values), func(i int) {
			p.write(quote(v.Values[i]))
		}, ", ")
		p.write("]")
	case *ast.NumberArg:
		p.write(v.String())
	case *ast.TagArg:
		p.write(":" + v.Name)
	case *ast.TestArg:
		p.formatTest(v.Test)
	case *ast.TestListArg:
		p.write("(")
		p.formatList(len(v.Tests), func(i int) {
			p.formatTest(v.Tests[i])
		}, ", ")
		p.write(")")
	}
}

func (p *Printer) formatTest(t *ast.Test) {
	p.write(t.Name)
	p.formatArgs(t.Args)
}

// formatString picks the quoted or text: form. Values holding a carriage
// return are always quoted because text: bodies normalize line endings.
func (p *Printer) formatString(s string) {
	if !p.useMultiline(s) {
		p.write(quote(s))
		return
	}
	p.write("text:")
	p.writeln()
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, ".") {
			line = "." + line
		}
		p.writeRaw(line)
		p.writeln()
	}
	p.writeRaw(".")
	p.writeln()
}

func (p *Printer) useMultiline(s string) bool {
	if strings.ContainsRune(s, '\r') {
		return false
	}
	return strings.ContainsRune(s, '\n') || len(s) > p.opts.MultilineThreshold
}
