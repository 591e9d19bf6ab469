package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsieve/pkg/ast"
	"github.com/leapstack-labs/leapsieve/pkg/parser"
)

func mustParse(t *testing.T, src string) *ast.Script {
	t.Helper()
	script, err := parser.Parse(src)
	require.NoError(t, err)
	return script
}

func TestFormat_Layout(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "require as list",
			input:    `require "fileinto";fileinto "a";`,
			expected: "require [\"fileinto\"];\nfileinto \"a\";\n",
		},
		{
			name:  "if else",
			input: `if true{keep;}else{discard;}`,
			expected: `if true {
	keep;
}
else {
	discard;
}
`,
		},
		{
			name:  "nested blocks",
			input: `if true { if false { stop; } }`,
			expected: `if true {
	if false {
		stop;
	}
}
`,
		},
		{
			name:     "empty block",
			input:    `if true {}`,
			expected: "if true {\n}\n",
		},
		{
			name:     "test list",
			input:    `if anyof(header :is "a" "b",size :over 10k){stop;}`,
			expected: "if anyof (header :is \"a\" \"b\", size :over 10K) {\n\tstop;\n}\n",
		},
		{
			name:     "escapes",
			input:    `fileinto "a\"b\\c\d";`,
			expected: "fileinto \"a\\\"b\\\\cd\";\n",
		},
		{
			name:     "string list",
			input:    `addflag [ "a" ,"b" ];setflag [];`,
			expected: "addflag [\"a\", \"b\"];\nsetflag [];\n",
		},
		{
			name:     "tags lower-cased",
			input:    `fileinto :COPY "x";`,
			expected: "fileinto :copy \"x\";\n",
		},
		{
			name:     "embedded newline becomes text",
			input:    "vacation :days 7 \"line1\nline2\";",
			expected: "vacation :days 7 text:\nline1\nline2\n.\n;\n",
		},
		{
			name:     "dot stuffing",
			input:    "reject \".hidden\n..two\";",
			expected: "reject text:\n..hidden\n...two\n.\n;\n",
		},
		{
			name:     "short multiline becomes quoted",
			input:    "reject text:\nsorry\n.\n;",
			expected: "reject \"sorry\";\n",
		},
		{
			name:     "carriage return stays quoted",
			input:    "reject \"a\r\nb\";",
			expected: "reject \"a\r\nb\";\n",
		},
		{
			name:  "multiline inside block",
			input: "if true { vacation \"a\nb\"; }",
			expected: `if true {
	vacation text:
a
b
.
	;
}
`,
		},
		{
			name:     "empty script",
			input:    "  \n",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(mustParse(t, tt.input), Options{})
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFormat_Comments(t *testing.T) {
	input := `# header
require "fileinto";   # why
/* block
comment */
if true {
  # inside
  keep;
  # last
}   # done
# end
`
	expected := `# header
require ["fileinto"]; # why
/* block
comment */
if true {
	# inside
	keep;
	# last
} # done
# end
`
	assert.Equal(t, expected, Format(mustParse(t, input), Options{}))
}

func TestFormat_RuleNames(t *testing.T) {
	script := mustParse(t, "keep;")
	script.Body().At(0).SetRuleName("Keep all")
	assert.Equal(t, "# rule:[Keep all]\nkeep;\n", Format(script, Options{}))
}

func TestFormat_Options(t *testing.T) {
	script := mustParse(t, `if true { redirect "abcdefgh"; }`)

	t.Run("crlf and spaces", func(t *testing.T) {
		out := Format(script, Options{LineEnding: CRLF, Indent: "  "})
		assert.Equal(t, "if true {\r\n  redirect \"abcdefgh\";\r\n}\r\n", out)
	})

	t.Run("threshold", func(t *testing.T) {
		out := Format(script, Options{MultilineThreshold: 4})
		assert.Equal(t, "if true {\n\tredirect text:\nabcdefgh\n.\n\t;\n}\n", out)
	})

	t.Run("crlf multiline", func(t *testing.T) {
		s := mustParse(t, "reject \"a\nb\";")
		out := Format(s, Options{LineEnding: CRLF})
		assert.Equal(t, "reject text:\r\na\r\nb\r\n.\r\n;\r\n", out)

		again := mustParse(t, out)
		assert.True(t, ast.Equal(s, again))
	})

	t.Run("defaults", func(t *testing.T) {
		d := DefaultOptions()
		assert.Equal(t, LF, d.LineEnding)
		assert.Equal(t, "\t", d.Indent)
		assert.Equal(t, DefaultMultilineThreshold, d.MultilineThreshold)
		assert.Equal(t, "utf-8", d.Charset)
	})
}

var roundTripScripts = []string{
	`require ["fileinto", "imap4flags", "vacation", "relational", "comparator-i;ascii-numeric"];
# rule:[Spam]
if anyof (header :contains "subject" "[SPAM]", header :value "ge" :comparator "i;ascii-numeric" "x-spam-score" "5") {
	fileinto :flags ["\\Seen"] "Junk"; # junk
	stop;
}
elsif allof (not exists ["x-priority", "x-mailer"], size :under 100K) {
	keep;
}
else {
	/* nothing */
	discard;
}
vacation :days 7 :subject "Out of office" text:
I am away until Monday.
.. is a stuffed dot
.
;
`,
	"if header :is \"x\" text:\na\n.\n{ keep; }",
	"x_unknown :tag 1G [\"a\"] (true, false);",
	"group { x_item; } keep;",
	"reject \"" + strings.Repeat("long ", 80) + "\";",
	"reject \"tab\there\";",
	"fileinto \"Ünïcödé\";",
	"",
	"# only a comment",
	"# note\r\r\nkeep;\n",
	"keep; # trailing\r\r\r\nstop;\r\n",
}

func TestFormat_RoundTrip(t *testing.T) {
	for i, src := range roundTripScripts {
		for _, opts := range []Options{{}, {LineEnding: CRLF, Indent: "    "}} {
			first := mustParse(t, src)
			out := Format(first, opts)

			second, err := parser.Parse(out)
			require.NoError(t, err, "script %d:\n%s", i, out)
			assert.True(t, ast.Equal(first, second), "script %d changed:\n%s", i, out)
			assert.Equal(t, out, Format(second, opts), "script %d not idempotent", i)
		}
	}
}

func TestFormat_CommentLineBreaks(t *testing.T) {
	out := Format(mustParse(t, "# note\r\r\nkeep;\n"), Options{})
	assert.Equal(t, "# note\nkeep;\n", out)
}

func TestFormat_MutatedTree(t *testing.T) {
	script := mustParse(t, `keep;`)
	require.NoError(t, script.Require("fileinto", "copy"))

	cmd, err := ast.NewCommand("fileinto", ast.Tag(":copy"), ast.Str("Archive"))
	require.NoError(t, err)
	require.NoError(t, script.Body().Append(cmd))

	expected := "require [\"fileinto\", \"copy\"];\nkeep;\nfileinto :copy \"Archive\";\n"
	assert.Equal(t, expected, Format(script, Options{}))
}

func TestWrite(t *testing.T) {
	script := mustParse(t, `fileinto "Café";`)

	t.Run("utf-8", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, script, Options{}))
		assert.Equal(t, "fileinto \"Café\";\n", buf.String())
	})

	t.Run("latin1", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, script, Options{Charset: "ISO-8859-1"}))
		assert.Equal(t, []byte("fileinto \"Caf\xe9\";\n"), buf.Bytes())
	})

	t.Run("unknown charset", func(t *testing.T) {
		var buf bytes.Buffer
		err := Write(&buf, script, Options{Charset: "klingon"})
		assert.ErrorContains(t, err, "unknown charset")
		assert.False(t, ValidCharset("klingon"))
		assert.True(t, ValidCharset("UTF-8"))
	})

	t.Run("unencodable", func(t *testing.T) {
		var buf bytes.Buffer
		err := Write(&buf, mustParse(t, `fileinto "日本";`), Options{Charset: "iso-8859-2"})
		assert.Error(t, err)
		assert.Zero(t, buf.Len())
	})
}

func TestDecode(t *testing.T) {
	text, err := Decode([]byte("fileinto \"Caf\xe9\";"), "iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, `fileinto "Café";`, text)

	text, err = Decode([]byte("keep;"), "")
	require.NoError(t, err)
	assert.Equal(t, "keep;", text)

	_, err = Decode([]byte("keep;"), "klingon")
	assert.ErrorContains(t, err, "unknown charset")
}
