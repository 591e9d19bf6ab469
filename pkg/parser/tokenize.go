package parser

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapsieve/pkg/token"
)

// Mode selects the shape returned by Tokenize.
type Mode int

const (
	// ModeAll returns every decoded token as one group.
	ModeAll Mode = 0
	// ModeFirst returns only the first decoded token.
	ModeFirst Mode = 1
)

// ErrInvalidMode is returned by Tokenize for modes other than ModeAll and
// ModeFirst.
var ErrInvalidMode = errors.New("invalid mode")

// Valid reports whether m is ModeAll or ModeFirst.
func (m Mode) Valid() bool {
	return m == ModeAll || m == ModeFirst
}

// Value is a decoded token: a string, or a list of values for bracketed
// string lists and groups.
type Value struct {
	Text  string
	Items []Value
	list  bool
}

// StringValue returns a string value.
func StringValue(s string) Value {
	return Value{Text: s}
}

// ListValue returns a list value. An empty list stays a list.
func ListValue(items ...Value) Value {
	return Value{Items: append([]Value{}, items...), list: true}
}

// IsList reports whether the value is a list.
func (v Value) IsList() bool {
	return v.list
}

// Interface converts the value to plain Go values: string or []any.
func (v Value) Interface() any {
	if !v.list {
		return v.Text
	}
	out := make([]any, len(v.Items))
	for i, item := range v.Items {
		out[i] = item.Interface()
	}
	return out
}

// MarshalJSON encodes strings as JSON strings and lists as arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.list {
		return json.Marshal(v.Text)
	}
	return json.Marshal(v.Items)
}

// String renders the value as JSON.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%q", v.Text)
	}
	return string(b)
}

// Tokenize decodes the tokens of src without parsing them. Strings are
// unescaped, multiline strings undotted, bracketed lists become nested lists,
// atoms (identifiers, tags, numbers) are returned as written and comments and
// other punctuation are dropped.
//
// With ModeFirst the first decoded token is returned. With ModeAll every
// decoded token is returned as a list. Empty input yields an empty string in
// ModeFirst and an empty list in ModeAll. Any other mode fails with
// ErrInvalidMode.
func Tokenize(src string, mode Mode) (Value, error) {
	if !mode.Valid() {
		return Value{}, fmt.Errorf("%w %d: must be 0 or 1", ErrInvalidMode, mode)
	}
	tokens, _, err := Lex(src)
	if err != nil {
		return Value{}, err
	}
	values, err := groupTokens(tokens)
	if err != nil {
		return Value{}, err
	}
	if mode == ModeFirst {
		if len(values) == 0 {
			return StringValue(""), nil
		}
		return values[0], nil
	}
	return ListValue(values...), nil
}

// groupTokens is a pass over the lexer's token stream that folds bracketed
// string lists into list values.
func groupTokens(tokens []token.Token) ([]Value, error) {
	var out []Value
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Type {
		case token.EOF:
			return out, nil
		case token.STRING, token.MULTILINE:
			out = append(out, StringValue(tok.Value))
		case token.IDENT, token.TAG, token.NUMBER:
			out = append(out, StringValue(tok.Literal))
		case token.LBRACKET:
			list, next, err := readList(tokens, i)
			if err != nil {
				return nil, err
			}
			out = append(out, list)
			i = next
		}
	}
	return out, nil
}

// readList folds the list starting at tokens[start] and returns the index of
// its closing bracket.
func readList(tokens []token.Token, start int) (Value, int, error) {
	var items []Value
	for i := start + 1; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Type {
		case token.RBRACKET:
			return ListValue(items...), i, nil
		case token.STRING, token.MULTILINE:
			items = append(items, StringValue(tok.Value))
		case token.COMMA:
		case token.EOF:
			return Value{}, 0, &SyntaxError{Pos: tokens[start].Pos, Message: ErrUnterminatedList}
		default:
			return Value{}, 0, &SyntaxError{
				Pos:     tok.Pos,
				Message: fmt.Sprintf(ErrUnexpectedToken, describe(tok), "string or ]"),
			}
		}
	}
	return Value{}, 0, &SyntaxError{Pos: tokens[start].Pos, Message: ErrUnterminatedList}
}

// describe names a token for error messages.
func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of script"
	case token.IDENT, token.TAG, token.NUMBER:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	case token.STRING, token.MULTILINE:
		return "string"
	}
	return fmt.Sprintf("%q", tok.Type.String())
}
