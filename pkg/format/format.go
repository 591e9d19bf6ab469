// Package format renders scripts in canonical form.
package format

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/leapstack-labs/leapsieve/pkg/ast"
)

// DefaultMultilineThreshold is the length above which a single-line string
// is written in text: form.
const DefaultMultilineThreshold = 256

// Line endings.
const (
	LF   = "\n"
	CRLF = "\r\n"
)

// Options controls the printed layout. The zero value selects the defaults.
type Options struct {
	// LineEnding terminates every line, LF or CRLF. Default LF.
	LineEnding string
	// Indent is repeated once per nesting level. Default one tab.
	Indent string
	// MultilineThreshold is the string length above which text: form is used.
	MultilineThreshold int
	// Charset names the output encoding for Write. Default utf-8.
	Charset string
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.LineEnding == "" {
		o.LineEnding = LF
	}
	if o.Indent == "" {
		o.Indent = "\t"
	}
	if o.MultilineThreshold <= 0 {
		o.MultilineThreshold = DefaultMultilineThreshold
	}
	if o.Charset == "" {
		o.Charset = "utf-8"
	}
	return o
}

// Format renders script as canonical text. Formatting the result of parsing
// the output again yields the same bytes.
func Format(script *ast.Script, opts Options) string {
	p := newPrinter(opts)
	p.formatBlockBody(script.Body())
	return p.String()
}

// Write formats script and writes it to w in the configured charset.
func Write(w io.Writer, script *ast.Script, opts Options) error {
	opts = opts.withDefaults()
	out := Format(script, opts)

	enc, err := encoder(opts.Charset)
	if err != nil {
		return err
	}
	if enc != nil {
		out, err = enc.String(out)
		if err != nil {
			return fmt.Errorf("encode as %s: %w", opts.Charset, err)
		}
	}
	_, err = io.WriteString(w, out)
	return err
}

// Decode converts src from charset to UTF-8 text, the inverse of Write.
func Decode(src []byte, charset string) (string, error) {
	e, err := lookup(charset)
	if err != nil {
		return "", err
	}
	if e == nil {
		return string(src), nil
	}
	out, err := e.NewDecoder().Bytes(src)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", charset, err)
	}
	return string(out), nil
}

// encoder returns nil for UTF-8, which needs no transcoding.
func encoder(charset string) (*encoding.Encoder, error) {
	e, err := lookup(charset)
	if err != nil || e == nil {
		return nil, err
	}
	return e.NewEncoder(), nil
}

func lookup(charset string) (encoding.Encoding, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return nil, nil
	}
	e, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	if name, _ := htmlindex.Name(e); name == "utf-8" {
		return nil, nil
	}
	return e, nil
}

// ValidCharset reports whether Write can encode to charset.
func ValidCharset(charset string) bool {
	_, err := lookup(charset)
	return err == nil
}
