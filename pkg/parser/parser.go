// Package parser turns Sieve script text into an ast.Script.
//
// # Usage
//
//	script, err := parser.Parse(src)
//	if err != nil {
//	    // *SyntaxError or *LimitError
//	}
//
// # Grammar Overview
//
// The parser implements the RFC 5228 grammar by recursive descent:
//
//	start     → *command
//	command   → identifier arguments (";" / block)
//	block     → "{" *command "}"
//	arguments → *argument [test / test-list]
//	argument  → string-list / number / tag
//	test      → identifier arguments
//	test-list → "(" test *("," test) ")"
//
// The parser checks grammar shape only. Whether a command is allowed by the
// declared capabilities is decided by package validate.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapsieve/pkg/ast"
	"github.com/leapstack-labs/leapsieve/pkg/capability"
	"github.com/leapstack-labs/leapsieve/pkg/token"
)

// DefaultMaxDepth bounds the nesting of blocks and tests.
const DefaultMaxDepth = 32

// Option configures a Parser.
type Option func(*Parser)

// WithMaxDepth sets the nesting limit. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// WithRegistry sets the vocabulary used to decide whether a command takes a
// block. Defaults to capability.Default().
func WithRegistry(reg *capability.Registry) Option {
	return func(p *Parser) {
		if reg != nil {
			p.registry = reg
		}
	}
}

// Parser parses Sieve into an AST.
type Parser struct {
	lexer   *Lexer
	token   token.Token // current token
	peek    token.Token // lookahead token
	prevEnd token.Position
	err     error

	registry *capability.Registry
	maxDepth int
	depth    int
}

// NewParser creates a new parser for the given input.
func NewParser(src string, opts ...Option) *Parser {
	p := &Parser{
		lexer:    NewLexer(src),
		registry: capability.Default(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a whole script. A failed parse returns no script.
func Parse(src string, opts ...Option) (*ast.Script, error) {
	p := NewParser(src, opts...)
	script := p.parseScript()
	if p.err != nil {
		return nil, p.err
	}
	attachComments(script, p.lexer.Comments)
	return script, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.prevEnd = p.token.End
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise records an error.
func (p *Parser) expect(t token.TokenType, what string) bool {
	if p.match(t) {
		return true
	}
	p.unexpected(what)
	return false
}

// unexpected records an error for the current token. Lexical errors take
// precedence, since they explain why the token is ILLEGAL.
func (p *Parser) unexpected(expected string) {
	if p.check(token.ILLEGAL) {
		if err := p.lexer.Err(); err != nil {
			p.fail(err)
			return
		}
	}
	p.addError(p.token.Pos, fmt.Sprintf(ErrUnexpectedToken, describe(p.token), expected))
}

// addError records a syntax error. Only the first error is kept.
func (p *Parser) addError(pos token.Position, msg string) {
	p.fail(&SyntaxError{Pos: pos, Message: msg})
}

func (p *Parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// enter increases the nesting depth and fails past the limit.
func (p *Parser) enter(pos token.Position) bool {
	p.depth++
	if p.depth > p.maxDepth {
		p.fail(&LimitError{Pos: pos, Limit: p.maxDepth})
		return false
	}
	return true
}

func (p *Parser) leave() {
	p.depth--
}

// ---------- Commands ----------

func (p *Parser) parseScript() *ast.Script {
	script := ast.NewScript()
	body := script.Body()
	start := p.token.Pos

	for p.err == nil && !p.check(token.EOF) {
		if p.check(token.RBRACE) {
			p.addError(p.token.Pos, ErrUnbalancedBrace)
			break
		}
		cmd := p.parseCommand()
		if cmd == nil {
			break
		}
		_ = body.Append(cmd)
	}

	span := token.Span{Start: start, End: p.token.End}
	script.Span = span
	body.Span = span
	return script
}

// parseCommand parses: identifier arguments (";" / block)
func (p *Parser) parseCommand() *ast.Command {
	if !p.check(token.IDENT) {
		p.unexpected("command")
		return nil
	}
	nameTok := p.token
	p.nextToken()

	args := p.parseArguments()
	if p.err != nil {
		return nil
	}

	cmd, err := ast.NewCommand(nameTok.Literal, args...)
	if err != nil {
		p.addError(nameTok.Pos, err.Error())
		return nil
	}
	takesBlock, known := p.blockShape(cmd)

	switch {
	case p.check(token.SEMICOLON):
		if known && takesBlock {
			p.addError(p.token.Pos, fmt.Sprintf(ErrBlockRequired, cmd.Name))
			return nil
		}
		p.nextToken()
	case p.check(token.LBRACE):
		if known && !takesBlock {
			p.addError(p.token.Pos, fmt.Sprintf(ErrBlockNotAllowed, cmd.Name))
			return nil
		}
		block := p.parseBlock()
		if block == nil {
			return nil
		}
		_ = cmd.SetBlock(block)
	default:
		if known && takesBlock {
			p.unexpected("{")
		} else {
			p.unexpected(";")
		}
		return nil
	}

	cmd.Span = token.Span{Start: nameTok.Pos, End: p.prevEnd}
	return cmd
}

// blockShape reports whether a command takes a block and whether that is
// known at all. Unknown commands accept either form.
func (p *Parser) blockShape(cmd *ast.Command) (takesBlock, known bool) {
	if spec, ok := p.registry.Command(cmd.Name); ok {
		return spec.Block, true
	}
	if cmd.Kind != ast.KindUnknown {
		return cmd.Kind.TakesBlock(), true
	}
	return false, false
}

// parseBlock parses: "{" *command "}"
func (p *Parser) parseBlock() *ast.Block {
	open := p.token
	if !p.enter(open.Pos) {
		return nil
	}
	defer p.leave()
	p.nextToken() // consume {

	block, _ := ast.NewBlock()
	for !p.check(token.RBRACE) {
		if p.check(token.EOF) {
			p.unexpected("}")
			return nil
		}
		cmd := p.parseCommand()
		if cmd == nil {
			return nil
		}
		_ = block.Append(cmd)
	}
	block.Span = token.Span{Start: open.Pos, End: p.token.End}
	p.nextToken() // consume }
	return block
}

// ---------- Arguments ----------

// parseArguments parses: *argument [test / test-list]
func (p *Parser) parseArguments() []ast.Argument {
	var args []ast.Argument
	for p.err == nil {
		switch p.token.Type {
		case token.STRING, token.MULTILINE:
			args = append(args, &ast.StringArg{
				Pos:       p.token.Pos,
				Value:     p.token.Value,
				Multiline: p.check(token.MULTILINE),
			})
			p.nextToken()
		case token.LBRACKET:
			list := p.parseStringList()
			if list == nil {
				return nil
			}
			args = append(args, list)
		case token.NUMBER:
			num := p.parseNumber()
			if num == nil {
				return nil
			}
			args = append(args, num)
		case token.TAG:
			args = append(args, &ast.TagArg{Pos: p.token.Pos, Name: strings.ToLower(p.token.Value)})
			p.nextToken()
		case token.IDENT:
			test := p.parseTest()
			if test == nil {
				return nil
			}
			return append(args, &ast.TestArg{Test: test})
		case token.LPAREN:
			list := p.parseTestList()
			if list == nil {
				return nil
			}
			return append(args, list)
		default:
			return args
		}
	}
	return nil
}

// parseStringList parses: "[" string *("," string) "]"
// An empty list is accepted.
func (p *Parser) parseStringList() *ast.StringListArg {
	open := p.token
	p.nextToken() // consume [

	list := &ast.StringListArg{Pos: open.Pos, Values: []string{}}
	if p.match(token.RBRACKET) {
		return list
	}
	for {
		switch {
		case p.token.Type.IsString():
			list.Values = append(list.Values, p.token.Value)
			p.nextToken()
		case p.check(token.EOF):
			p.addError(open.Pos, ErrUnterminatedList)
			return nil
		default:
			p.unexpected("string")
			return nil
		}

		switch {
		case p.match(token.COMMA):
		case p.match(token.RBRACKET):
			return list
		case p.check(token.EOF):
			p.addError(open.Pos, ErrUnterminatedList)
			return nil
		default:
			p.unexpected(", or ]")
			return nil
		}
	}
}

// parseNumber parses digits with an optional K, M or G quantifier.
func (p *Parser) parseNumber() *ast.NumberArg {
	tok := p.token
	digits := tok.Literal
	var unit byte
	if last := digits[len(digits)-1]; !isDigit(last) {
		unit = strings.ToUpper(string(last))[0]
		digits = digits[:len(digits)-1]
	}
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		p.addError(tok.Pos, fmt.Sprintf(ErrInvalidNumber, tok.Literal))
		return nil
	}
	p.nextToken()
	return &ast.NumberArg{Pos: tok.Pos, Value: v, Unit: unit}
}

// ---------- Tests ----------

// parseTest parses: identifier arguments
func (p *Parser) parseTest() *ast.Test {
	nameTok := p.token
	if !p.enter(nameTok.Pos) {
		return nil
	}
	defer p.leave()
	p.nextToken()

	args := p.parseArguments()
	if p.err != nil {
		return nil
	}
	test, err := ast.NewTest(nameTok.Literal, args...)
	if err != nil {
		p.addError(nameTok.Pos, err.Error())
		return nil
	}
	test.Span = token.Span{Start: nameTok.Pos, End: p.prevEnd}
	return test
}

// parseTestList parses: "(" test *("," test) ")"
func (p *Parser) parseTestList() *ast.TestListArg {
	open := p.token
	p.nextToken() // consume (

	list := &ast.TestListArg{Pos: open.Pos}
	for {
		if !p.check(token.IDENT) {
			p.unexpected("test")
			return nil
		}
		test := p.parseTest()
		if test == nil {
			return nil
		}
		list.Tests = append(list.Tests, test)

		if p.match(token.COMMA) {
			continue
		}
		if !p.expect(token.RPAREN, ", or )") {
			return nil
		}
		return list
	}
}
