package token

import "strings"

// CommentKind distinguishes hash vs bracket comments.
type CommentKind int

// Comment kinds.
const (
	HashComment    CommentKind = iota // # comment
	BracketComment                    // /* comment */
)

// Comment represents a script comment with position.
type Comment struct {
	Kind CommentKind
	Text string // includes delimiters (# or /* */)
	Span Span
}

// IsHashComment returns true if this is a hash comment.
func (c *Comment) IsHashComment() bool {
	return c.Kind == HashComment
}

// IsBracketComment returns true if this is a bracket comment.
func (c *Comment) IsBracketComment() bool {
	return c.Kind == BracketComment
}

// Body returns the comment text without its delimiters and surrounding blanks.
func (c *Comment) Body() string {
	text := c.Text
	if c.Kind == BracketComment {
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	} else {
		text = strings.TrimPrefix(text, "#")
	}
	return strings.TrimSpace(text)
}

// NewHashComment builds a hash comment from its body text.
func NewHashComment(body string) *Comment {
	text := "#"
	if body != "" {
		text += " " + body
	}
	return &Comment{Kind: HashComment, Text: text}
}
