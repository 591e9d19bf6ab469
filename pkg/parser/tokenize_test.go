package parser

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		src  string
		want string // JSON
	}{
		{"multiline first", ModeFirst, "text: #test\nThis is test ; message;\nMulti line\n.\n;\n", `"This is test ; message;\nMulti line"`},
		{"multiline first crlf", ModeFirst, "text: #test\r\nThis is test ; message;\nMulti line\r\n.\r\n;", `"This is test ; message;\nMulti line"`},
		{"list grouped", ModeAll, `["test1","test2"]`, `[["test1","test2"]]`},
		{"list first", ModeFirst, `["test"]`, `["test"]`},
		{"escaped quote", ModeFirst, `"te\"st"`, `"te\"st"`},
		{"comment dropped", ModeAll, `test #comment`, `["test"]`},
		{"two multilines", ModeAll, "text:\ntest\n.\ntext:\ntest\n.\n", `["test","test"]`},
		{"two multilines crlf", ModeAll, "text:\r\ntest\r\n.\r\ntext:\r\ntest\r\n.\r\n", `["test","test"]`},
		{"unknown escape", ModeFirst, `"\a\\\"a"`, `"a\\\"a"`},
		{"atoms and punctuation", ModeAll, `if header :is "x" 10K { keep; }`, `["if","header",":is","x","10K","keep"]`},
		{"empty list", ModeAll, `[]`, `[[]]`},
		{"empty input first", ModeFirst, ``, `""`},
		{"empty input all", ModeAll, `# nothing`, `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Tokenize(tt.src, tt.mode)
			require.NoError(t, err)
			got, err := json.Marshal(v)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestTokenizeEscapedValue(t *testing.T) {
	v, err := Tokenize(`"\a\\\"a"`, ModeFirst)
	require.NoError(t, err)
	assert.False(t, v.IsList())
	assert.Equal(t, `a\"a`, v.Text)

	v, err = Tokenize(`["a", "b"] "c"`, ModeAll)
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{"a", "b"}, "c"}, v.Interface())
	assert.Equal(t, `[["a","b"],"c"]`, v.String())
}

func TestTokenizeInvalidMode(t *testing.T) {
	for _, mode := range []Mode{-1, 2, 7} {
		_, err := Tokenize(`"a"`, mode)
		require.ErrorIs(t, err, ErrInvalidMode)
		assert.ErrorContains(t, err, fmt.Sprintf("invalid mode %d", mode))
		assert.False(t, mode.Valid())
	}
	assert.True(t, ModeAll.Valid())
	assert.True(t, ModeFirst.Valid())
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
		col  int
	}{
		{"unterminated quoted", `"abc`, ErrUnterminatedString, 1},
		{"unterminated list", `x ["a", "b"`, ErrUnterminatedList, 3},
		{"unterminated multiline", "text:\nabc\n", ErrUnterminatedMultiline, 1},
		{"atom in list", `["a", b]`, `unexpected IDENT "b", expected string or ]`, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.src, ModeAll)
			var syn *SyntaxError
			require.ErrorAs(t, err, &syn)
			assert.Equal(t, tt.msg, syn.Message)
			assert.Equal(t, tt.col, syn.Pos.Column)
		})
	}
}
