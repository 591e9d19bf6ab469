// Package sieve is the narrow entry point used by filter editors: parse a
// script, validate it against what the server supports and print it back in
// canonical form.
package sieve

import (
	"github.com/leapstack-labs/leapsieve/pkg/ast"
	"github.com/leapstack-labs/leapsieve/pkg/capability"
	"github.com/leapstack-labs/leapsieve/pkg/format"
	"github.com/leapstack-labs/leapsieve/pkg/parser"
	"github.com/leapstack-labs/leapsieve/pkg/validate"
)

// Options configures the facade. The zero value uses the default registry
// and depth limit and imposes no server restriction.
type Options struct {
	// Registry describes the known vocabulary. Nil means capability.Default().
	Registry *capability.Registry
	// MaxDepth bounds block and test nesting. Zero means parser.DefaultMaxDepth.
	MaxDepth int
	// ServerCapabilities lists the extensions the target server advertises.
	// When empty every known extension may be required.
	ServerCapabilities []string
	// Format controls Canonicalize output.
	Format format.Options
}

func (o Options) registry() *capability.Registry {
	if o.Registry == nil {
		return capability.Default()
	}
	return o.Registry
}

func (o Options) parserOptions() []parser.Option {
	opts := []parser.Option{parser.WithRegistry(o.registry())}
	if o.MaxDepth > 0 {
		opts = append(opts, parser.WithMaxDepth(o.MaxDepth))
	}
	return opts
}

// Parse parses src. It returns a *parser.SyntaxError or *parser.LimitError
// on failure, and never a partial script.
func Parse(src string, opts Options) (*ast.Script, error) {
	return parser.Parse(src, opts.parserOptions()...)
}

// Validate checks script. An empty result means the script is valid.
func Validate(script *ast.Script, opts Options) []validate.Error {
	v := validate.New(opts.registry(), validate.WithServerCapabilities(opts.ServerCapabilities...))
	return v.Validate(script)
}

// Check parses and validates src in one step.
func Check(src string, opts Options) (*ast.Script, []validate.Error, error) {
	script, err := Parse(src, opts)
	if err != nil {
		return nil, nil, err
	}
	return script, Validate(script, opts), nil
}

// Canonicalize parses src and prints it in canonical form. Validation
// problems do not prevent canonicalization.
func Canonicalize(src string, opts Options) (string, error) {
	script, err := Parse(src, opts)
	if err != nil {
		return "", err
	}
	return format.Format(script, opts.Format), nil
}

// Tokenize decodes the string values of src; see parser.Tokenize.
func Tokenize(src string, mode parser.Mode) (parser.Value, error) {
	return parser.Tokenize(src, mode)
}
