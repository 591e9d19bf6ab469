package parser

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapsieve/pkg/token"
)

// SyntaxError reports input the lexer or parser cannot make sense of.
// Pos points at the offending token, or at the opening delimiter of an
// unterminated string, list or comment.
type SyntaxError struct {
	Pos     token.Position
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// ErrLimitExceeded is matched by LimitError with errors.Is.
var ErrLimitExceeded = errors.New("nesting limit exceeded")

// LimitError reports nesting deeper than the configured maximum.
type LimitError struct {
	Pos   token.Position
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("line %d, column %d: nesting deeper than %d levels", e.Pos.Line, e.Pos.Column, e.Limit)
}

// Is reports whether target is ErrLimitExceeded.
func (e *LimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}

// Common error messages
const (
	ErrUnexpectedToken       = "unexpected %s, expected %s"
	ErrUnterminatedString    = "unterminated quoted string"
	ErrUnterminatedMultiline = "unterminated multiline string"
	ErrUnterminatedList      = "unterminated string list"
	ErrUnterminatedComment   = "unterminated bracket comment"
	ErrMultilineHeader       = "expected end of line after text:"
	ErrInvalidNumber         = "invalid number %q"
	ErrUnexpectedChar        = "unexpected character %q"
	ErrBlockRequired         = "%s requires a block"
	ErrBlockNotAllowed       = "%s does not take a block"
	ErrUnbalancedBrace       = "unbalanced }"
)
