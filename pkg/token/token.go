// Package token defines the lexical tokens of the Sieve filtering language.
//
// Sieve has no reserved words: command, test and tag names are plain atoms
// whose meaning is decided by the parser and the capability registry.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // token.TokenType reads better at call sites than token.Type
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Atoms and literals
	IDENT     // command or test name: fileinto, header
	TAG       // :is, :contains, :days
	NUMBER    // 100, 10K, 2M
	STRING    // "quoted"
	MULTILINE // text: ... .

	// Delimiters
	LBRACKET  // [
	RBRACKET  // ]
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	COMMA     // ,
	SEMICOLON // ;
)

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:     "IDENT",
	TAG:       "TAG",
	NUMBER:    "NUMBER",
	STRING:    "STRING",
	MULTILINE: "MULTILINE",

	LBRACKET:  "[",
	RBRACKET:  "]",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	COMMA:     ",",
	SEMICOLON: ";",
}

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// IsString returns true for both string literal forms.
func (t TokenType) IsString() bool {
	return t == STRING || t == MULTILINE
}

// IsDelimiter returns true if the token type is punctuation.
func IsDelimiter(t TokenType) bool {
	return t >= LBRACKET && t <= SEMICOLON
}

// Token represents a lexical token with position information.
//
// Literal holds the raw source text of the token. For string tokens Value
// holds the decoded content; for every other type Value equals Literal.
type Token struct {
	Type    TokenType
	Literal string
	Value   string
	Pos     Position
	End     Position
}

// Span returns the source range covered by the token.
func (t Token) Span() Span {
	return Span{Start: t.Pos, End: t.End}
}
