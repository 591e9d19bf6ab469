package parser

import (
	"github.com/leapstack-labs/leapsieve/pkg/ast"
	"github.com/leapstack-labs/leapsieve/pkg/token"
)

// attachComments distributes comments over the tree:
//   - a comment on the line where a command ends becomes its trailing comment;
//   - other comments before a command, or inside its arguments, lead it;
//   - what is left at the end of a block trails the block.
func attachComments(script *ast.Script, comments []*token.Comment) {
	if len(comments) == 0 {
		return
	}
	attachBlock(script.Body(), comments)
}

func attachBlock(b *ast.Block, comments []*token.Comment) {
	cmds := b.Commands()
	i := 0
	var prev *ast.Command

	for _, cmd := range cmds {
		start := cmd.Span.Start.Offset
		for i < len(comments) && comments[i].Span.Start.Offset < start {
			attachLoose(prev, cmd, comments[i])
			i++
		}

		// comments inside the command's own extent
		end := cmd.Span.End.Offset
		var inner []*token.Comment
		for i < len(comments) && comments[i].Span.Start.Offset < end {
			inner = append(inner, comments[i])
			i++
		}
		if len(inner) > 0 {
			attachInner(cmd, inner)
		}
		prev = cmd
	}

	for ; i < len(comments); i++ {
		c := comments[i]
		if prev != nil && sameLine(prev, c) && len(prev.TrailingComments) == 0 {
			prev.AddTrailingComment(c)
			continue
		}
		b.AddTrailingComment(c)
	}
}

// attachLoose places a comment found between prev and next.
func attachLoose(prev, next *ast.Command, c *token.Comment) {
	if prev != nil && sameLine(prev, c) && len(prev.TrailingComments) == 0 && c.Span.End.Line < next.Span.Start.Line {
		prev.AddTrailingComment(c)
		return
	}
	next.AddLeadingComment(c)
}

// attachInner handles comments within a command: those inside its block go
// down a level, the rest lead the command.
func attachInner(cmd *ast.Command, comments []*token.Comment) {
	block := cmd.Block()
	var nested []*token.Comment
	for _, c := range comments {
		if block != nil && c.Span.Start.Offset > block.Span.Start.Offset {
			nested = append(nested, c)
			continue
		}
		cmd.AddLeadingComment(c)
	}
	if len(nested) > 0 {
		attachBlock(block, nested)
	}
}

func sameLine(cmd *ast.Command, c *token.Comment) bool {
	return c.Span.Start.Line == cmd.Span.End.Line
}
