package format

import (
	"bytes"
	"strings"

	"github.com/leapstack-labs/leapsieve/pkg/token"
)

// Printer renders a script tree as text.
type Printer struct {
	opts        Options
	output      *bytes.Buffer
	depth       int
	atLineStart bool
}

func newPrinter(opts Options) *Printer {
	return &Printer{
		opts:        opts.withDefaults(),
		output:      &bytes.Buffer{},
		atLineStart: true,
	}
}

// String returns the formatted output.
func (p *Printer) String() string {
	return p.output.String()
}

func (p *Printer) write(s string) {
	if p.atLineStart && len(s) > 0 {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

// writeRaw bypasses indentation, for multiline string bodies.
func (p *Printer) writeRaw(s string) {
	p.output.WriteString(s)
}

func (p *Printer) writeln() {
	p.output.WriteString(p.opts.LineEnding)
	p.atLineStart = true
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.depth; i++ {
		p.output.WriteString(p.opts.Indent)
	}
	p.atLineStart = false
}

func (p *Printer) indent() {
	p.depth++
}

func (p *Printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *Printer) space() {
	p.output.WriteByte(' ')
}

func (p *Printer) formatComments(comments []*token.Comment) {
	for _, c := range comments {
		p.write(c.Text)
		p.writeln()
	}
}

func (p *Printer) formatTrailingComments(comments []*token.Comment) {
	for _, c := range comments {
		if !p.atLineStart {
			p.space()
		}
		p.write(c.Text)
	}
}

// formatList prints count items separated by sep.
func (p *Printer) formatList(count int, format func(i int), sep string) {
	for i := 0; i < count; i++ {
		format(i)
		if i < count-1 {
			p.write(sep)
		}
	}
}

// quote renders s as a quoted string.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
