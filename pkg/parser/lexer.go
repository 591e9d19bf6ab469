package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapsieve/pkg/token"
)

// Lexer tokenizes Sieve input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // line of ch (1-based)
	col     int  // column of ch (1-based)

	err *SyntaxError

	// Comments collected during lexing, in source order.
	Comments []*token.Comment
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// Err returns the first lexical error, if any. After an error the lexer
// only produces ILLEGAL tokens.
func (l *Lexer) Err() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.input)
}

// currentPos returns the position of the current character.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

func (l *Lexer) fail(pos token.Position, format string, args ...any) token.Token {
	if l.err == nil {
		l.err = &SyntaxError{Pos: pos, Message: fmt.Sprintf(format, args...)}
	}
	return token.Token{Type: token.ILLEGAL, Pos: pos, End: l.currentPos()}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	if l.err != nil {
		return token.Token{Type: token.ILLEGAL, Pos: l.err.Pos, End: l.err.Pos}
	}
	if !l.skipWhitespaceAndComments() {
		return token.Token{Type: token.ILLEGAL, Pos: l.err.Pos, End: l.err.Pos}
	}

	pos := l.currentPos()
	if l.eof() {
		return token.Token{Type: token.EOF, Pos: pos, End: pos}
	}

	switch l.ch {
	case '[':
		return l.punct(token.LBRACKET, pos)
	case ']':
		return l.punct(token.RBRACKET, pos)
	case '(':
		return l.punct(token.LPAREN, pos)
	case ')':
		return l.punct(token.RPAREN, pos)
	case '{':
		return l.punct(token.LBRACE, pos)
	case '}':
		return l.punct(token.RBRACE, pos)
	case ',':
		return l.punct(token.COMMA, pos)
	case ';':
		return l.punct(token.SEMICOLON, pos)
	case '"':
		return l.readQuoted(pos)
	case ':':
		if isIdentStart(l.peekChar()) {
			l.readChar() // skip ':'
			name := l.readIdentifier()
			return token.Token{Type: token.TAG, Literal: ":" + name, Value: name, Pos: pos, End: l.currentPos()}
		}
	}

	switch {
	case isIdentStart(l.ch):
		name := l.readIdentifier()
		if strings.EqualFold(name, "text") && l.ch == ':' {
			return l.readMultiline(pos)
		}
		return token.Token{Type: token.IDENT, Literal: name, Value: name, Pos: pos, End: l.currentPos()}
	case isDigit(l.ch):
		return l.readNumber(pos)
	}
	return l.fail(pos, ErrUnexpectedChar, string(l.ch))
}

func (l *Lexer) punct(t token.TokenType, pos token.Position) token.Token {
	lit := string(l.ch)
	l.readChar()
	return token.Token{Type: t, Literal: lit, Value: lit, Pos: pos, End: l.currentPos()}
}

// skipWhitespaceAndComments skips whitespace and collects comments. It
// returns false when a bracket comment is not terminated.
func (l *Lexer) skipWhitespaceAndComments() bool {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		switch {
		case l.ch == '#':
			l.Comments = append(l.Comments, l.readHashComment())
			continue
		case l.ch == '/' && l.peekChar() == '*':
			c, ok := l.readBracketComment()
			if !ok {
				return false
			}
			l.Comments = append(l.Comments, c)
			continue
		}
		return true
	}
}

// readHashComment reads a # comment up to (not including) the line break.
func (l *Lexer) readHashComment() *token.Comment {
	startPos := l.currentPos()
	start := l.pos
	for !l.eof() && l.ch != '\n' {
		l.readChar()
	}
	text := strings.TrimRight(l.input[start:l.pos], "\r")
	return &token.Comment{
		Kind: token.HashComment,
		Text: text,
		Span: token.Span{Start: startPos, End: l.currentPos()},
	}
}

// readBracketComment reads a /* */ comment.
func (l *Lexer) readBracketComment() (*token.Comment, bool) {
	startPos := l.currentPos()
	start := l.pos

	l.readChar() // skip '/'
	l.readChar() // skip '*'

	for !l.eof() {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar() // skip '*'
			l.readChar() // skip '/'
			return &token.Comment{
				Kind: token.BracketComment,
				Text: l.input[start:l.pos],
				Span: token.Span{Start: startPos, End: l.currentPos()},
			}, true
		}
		l.readChar()
	}
	l.fail(startPos, ErrUnterminatedComment)
	return nil, false
}

// readQuoted reads a double-quoted string. A backslash escapes the next
// character, whatever it is.
func (l *Lexer) readQuoted(pos token.Position) token.Token {
	start := l.pos
	l.readChar() // skip opening quote

	var value strings.Builder
	for !l.eof() {
		switch l.ch {
		case '"':
			l.readChar() // skip closing quote
			return token.Token{
				Type:    token.STRING,
				Literal: l.input[start:l.pos],
				Value:   value.String(),
				Pos:     pos,
				End:     l.currentPos(),
			}
		case '\\':
			l.readChar()
			if l.eof() {
				return l.fail(pos, ErrUnterminatedString)
			}
		}
		value.WriteByte(l.ch)
		l.readChar()
	}
	return l.fail(pos, ErrUnterminatedString)
}

// readMultiline reads a text: string. The lexer is positioned on the colon.
//
//	text: [# comment] CRLF
//	*(line CRLF)
//	"." CRLF
//
// Lines starting with a dot have that dot removed. Line breaks inside the
// value are normalized to LF and the break before the terminator is dropped.
func (l *Lexer) readMultiline(pos token.Position) token.Token {
	start := pos.Offset
	l.readChar() // skip ':'

	for l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}
	if l.ch == '#' {
		l.readHashComment()
	}
	if l.ch == '\r' && l.peekChar() == '\n' {
		l.readChar()
	}
	if l.ch != '\n' {
		if l.eof() {
			return l.fail(pos, ErrUnterminatedMultiline)
		}
		return l.fail(l.currentPos(), ErrMultilineHeader)
	}
	l.readChar() // skip '\n'

	var lines []string
	for {
		if l.eof() {
			return l.fail(pos, ErrUnterminatedMultiline)
		}
		lineStart := l.pos
		for !l.eof() && l.ch != '\n' {
			l.readChar()
		}
		line := strings.TrimSuffix(l.input[lineStart:l.pos], "\r")
		if !l.eof() {
			l.readChar() // skip '\n'
		}
		if line == "." {
			break
		}
		if strings.HasPrefix(line, ".") {
			line = line[1:]
		}
		lines = append(lines, line)
	}

	return token.Token{
		Type:    token.MULTILINE,
		Literal: l.input[start:l.pos],
		Value:   strings.Join(lines, "\n"),
		Pos:     pos,
		End:     l.currentPos(),
	}
}

// readIdentifier reads an identifier: a letter or underscore followed by
// letters, digits and underscores.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads digits with an optional K, M or G quantifier.
func (l *Lexer) readNumber(pos token.Position) token.Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	switch l.ch {
	case 'K', 'k', 'M', 'm', 'G', 'g':
		l.readChar()
	}
	if isIdentStart(l.ch) || isDigit(l.ch) {
		for isIdentStart(l.ch) || isDigit(l.ch) {
			l.readChar()
		}
		return l.fail(pos, ErrInvalidNumber, l.input[start:l.pos])
	}
	lit := l.input[start:l.pos]
	return token.Token{Type: token.NUMBER, Literal: lit, Value: lit, Pos: pos, End: l.currentPos()}
}

func isIdentStart(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Lex returns all tokens up to and including EOF, or the first error.
func Lex(input string) ([]token.Token, []*token.Comment, error) {
	l := NewLexer(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		if tok.Type == token.ILLEGAL {
			return nil, nil, l.Err()
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, l.Comments, nil
		}
	}
}
