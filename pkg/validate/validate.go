// Package validate checks a parsed script against a capability registry.
//
// Validation is advisory: it never changes the tree, and an invalid script
// can still be formatted, so editors can round-trip work in progress.
package validate

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapsieve/pkg/ast"
	"github.com/leapstack-labs/leapsieve/pkg/capability"
	"github.com/leapstack-labs/leapsieve/pkg/token"
)

// Kind classifies a validation error.
type Kind string

// Error kinds.
const (
	UnknownCommand        Kind = "unknown-command"
	UnknownTest           Kind = "unknown-test"
	UnknownTag            Kind = "unknown-tag"
	MissingCapability     Kind = "missing-capability"
	UnsupportedCapability Kind = "unsupported-capability"
	MissingArgument       Kind = "missing-argument"
	InvalidArgument       Kind = "invalid-argument"
	MissingTest           Kind = "missing-test"
	UnexpectedTest        Kind = "unexpected-test"
	MisplacedCommand      Kind = "misplaced-command"
	MissingBlock          Kind = "missing-block"
	UnexpectedBlock       Kind = "unexpected-block"
)

// Kinds returns every error kind.
func Kinds() []Kind {
	return []Kind{
		UnknownCommand, UnknownTest, UnknownTag, MissingCapability,
		UnsupportedCapability, MissingArgument, InvalidArgument, MissingTest,
		UnexpectedTest, MisplacedCommand, MissingBlock, UnexpectedBlock,
	}
}

// Error is one problem found in a script.
type Error struct {
	Pos       token.Position `json:"pos"`
	Kind      Kind           `json:"kind"`
	Command   string         `json:"command"`             // command or test the error belongs to
	Extension string         `json:"extension,omitempty"` // set for capability errors
	Detail    string         `json:"detail"`
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Detail)
}

// Option configures a Validator.
type Option func(*Validator)

// WithServerCapabilities limits the extensions a script may require to
// those the target server advertises. Advertised extensions the registry
// does not know may still be required.
func WithServerCapabilities(names ...string) Option {
	return func(v *Validator) {
		if len(names) > 0 {
			v.reg = v.reg.Restrict(names...)
		}
	}
}

// Validator checks scripts against a registry. It holds no per-script state
// and may be shared.
type Validator struct {
	reg *capability.Registry
}

// New returns a validator for reg, or for capability.Default() when reg is nil.
func New(reg *capability.Registry, opts ...Option) *Validator {
	if reg == nil {
		reg = capability.Default()
	}
	v := &Validator{reg: reg}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Registry returns the registry the validator checks against.
func (v *Validator) Registry() *capability.Registry {
	return v.reg
}

// Validate returns the problems found in s, in source order. An empty result
// means the script is valid.
func (v *Validator) Validate(s *ast.Script) []Error {
	c := &checker{reg: v.reg, declared: make(map[string]bool)}
	for _, name := range s.Capabilities() {
		c.declared[name] = true
	}
	c.block(s.Body(), true)
	return c.errs
}

// Validate checks s against the default registry.
func Validate(s *ast.Script, opts ...Option) []Error {
	return New(nil, opts...).Validate(s)
}

type checker struct {
	reg      *capability.Registry
	declared map[string]bool
	errs     []Error
}

func (c *checker) add(pos token.Position, kind Kind, name, ext, format string, args ...any) {
	c.errs = append(c.errs, Error{
		Pos:       pos,
		Kind:      kind,
		Command:   name,
		Extension: ext,
		Detail:    fmt.Sprintf(format, args...),
	})
}

func (c *checker) block(b *ast.Block, root bool) {
	leading := root
	var prev *ast.Command
	for _, cmd := range b.Commands() {
		switch cmd.Kind {
		case ast.KindRequire:
			if !leading {
				c.add(cmd.Span.Start, MisplacedCommand, cmd.Name, "", "require must precede all other commands")
			}
		case ast.KindElsif, ast.KindElse:
			if prev == nil || (prev.Kind != ast.KindIf && prev.Kind != ast.KindElsif) {
				c.add(cmd.Span.Start, MisplacedCommand, cmd.Name, "", "%s must follow if or elsif", cmd.Name)
			}
		}
		if cmd.Kind != ast.KindRequire {
			leading = false
		}
		c.command(cmd)
		prev = cmd
	}
}

func (c *checker) command(cmd *ast.Command) {
	pos := cmd.Span.Start
	spec, ok := c.reg.Command(cmd.Name)
	if !ok {
		if _, isTest := c.reg.Test(cmd.Name); isTest {
			c.add(pos, UnknownCommand, cmd.Name, "", "%s is a test, not a command", cmd.Name)
		} else {
			c.add(pos, UnknownCommand, cmd.Name, "", "unknown command %s", cmd.Name)
		}
		c.nestedTests(cmd.Args())
		if cmd.Block() != nil {
			c.block(cmd.Block(), false)
		}
		return
	}

	if cmd.Kind == ast.KindRequire {
		c.require(cmd)
	}
	n := &node{c: c, name: cmd.Name, pos: pos, reported: make(map[string]bool)}
	n.needs(spec.Extension)
	n.args(spec, cmd.Args())

	switch {
	case spec.Block && cmd.Block() == nil:
		c.add(pos, MissingBlock, cmd.Name, "", "%s requires a block", cmd.Name)
	case !spec.Block && cmd.Block() != nil:
		c.add(pos, UnexpectedBlock, cmd.Name, "", "%s does not take a block", cmd.Name)
	}
	if cmd.Block() != nil {
		c.block(cmd.Block(), false)
	}
}

// require checks that every named extension is known and offered.
func (c *checker) require(cmd *ast.Command) {
	for _, a := range cmd.Args() {
		names, ok := ast.Strings(a)
		if !ok {
			continue
		}
		for _, name := range names {
			switch {
			case !c.reg.Knows(name):
				c.add(a.Position(), UnsupportedCapability, cmd.Name, name, "unknown extension %q", name)
			case !c.reg.Offers(name):
				c.add(a.Position(), UnsupportedCapability, cmd.Name, name, "extension %q is not supported by the server", name)
			}
		}
	}
}

func (c *checker) test(t *ast.Test) {
	pos := t.Span.Start
	spec, ok := c.reg.Test(t.Name)
	if !ok {
		if _, isCmd := c.reg.Command(t.Name); isCmd {
			c.add(pos, UnknownTest, t.Name, "", "%s is a command, not a test", t.Name)
		} else {
			c.add(pos, UnknownTest, t.Name, "", "unknown test %s", t.Name)
		}
		c.nestedTests(t.Args)
		return
	}
	n := &node{c: c, name: t.Name, pos: pos, reported: make(map[string]bool)}
	n.needs(spec.Extension)
	n.args(spec, t.Args)
}

// nestedTests validates tests found in the arguments of an unknown node.
func (c *checker) nestedTests(args []ast.Argument) {
	for _, a := range args {
		switch v := a.(type) {
		case *ast.TestArg:
			c.test(v.Test)
		case *ast.TestListArg:
			for _, t := range v.Tests {
				c.test(t)
			}
		}
	}
}

// node checks the arguments of one command or test.
type node struct {
	c        *checker
	name     string
	pos      token.Position
	reported map[string]bool // extensions already reported for this node
}

func (n *node) needs(ext string) {
	if ext == "" || n.c.declared[ext] || n.reported[ext] {
		return
	}
	n.reported[ext] = true
	n.c.add(n.pos, MissingCapability, n.name, ext, "%s requires %q", n.name, ext)
}

var relationalOps = map[string]bool{"gt": true, "ge": true, "lt": true, "le": true, "eq": true, "ne": true}

func (n *node) args(spec *capability.Spec, args []ast.Argument) {
	var positional []ast.Argument
	groups := make(map[string]string)
	var testArg ast.Argument

	for i := 0; i < len(args); i++ {
		switch a := args[i].(type) {
		case *ast.TagArg:
			tag, ok := spec.Tag(a.Name)
			if !ok {
				n.c.add(a.Pos, UnknownTag, n.name, "", "%s does not accept :%s", n.name, a.Name)
				continue
			}
			n.needs(tag.Extension)
			if tag.Group != "" {
				if other, dup := groups[tag.Group]; dup {
					n.c.add(a.Pos, InvalidArgument, n.name, "", ":%s conflicts with :%s", a.Name, other)
				}
				groups[tag.Group] = a.Name
			}
			if tag.Value == capability.ArgNone {
				continue
			}
			if i+1 >= len(args) || !tag.Value.Accepts(args[i+1]) {
				n.c.add(a.Pos, MissingArgument, n.name, "", ":%s expects a %s", a.Name, tag.Value)
				continue
			}
			i++
			n.tagValue(a, args[i])
		case *ast.TestArg, *ast.TestListArg:
			testArg = a
		default:
			positional = append(positional, a)
		}
	}

	if spec.RequiredGroup != "" {
		if _, ok := groups[spec.RequiredGroup]; !ok {
			var names []string
			for _, t := range spec.Tags {
				if t.Group == spec.RequiredGroup {
					names = append(names, ":"+t.Name)
				}
			}
			n.c.add(n.pos, MissingArgument, n.name, "", "%s needs one of %s", n.name, strings.Join(names, ", "))
		}
	}

	n.positional(spec, positional)
	n.testShape(spec, testArg)
}

// tagValue checks tag values with a closed vocabulary.
func (n *node) tagValue(tag *ast.TagArg, value ast.Argument) {
	s, ok := value.(*ast.StringArg)
	if !ok {
		return
	}
	switch tag.Name {
	case "comparator":
		if capability.IsBuiltinComparator(s.Value) {
			return
		}
		ext := capability.ComparatorExtension(s.Value)
		if !n.c.reg.Knows(ext) {
			n.c.add(s.Pos, InvalidArgument, n.name, "", "unknown comparator %q", s.Value)
			return
		}
		n.needs(ext)
	case "value", "count":
		if !relationalOps[strings.ToLower(s.Value)] {
			n.c.add(s.Pos, InvalidArgument, n.name, "", "invalid relational operator %q", s.Value)
		}
	}
}

func (n *node) positional(spec *capability.Spec, args []ast.Argument) {
	params, ok := spec.MatchParams(len(args))
	if !ok {
		if len(args) < spec.RequiredParams() {
			var missing []string
			for _, p := range spec.Params {
				if !p.Optional {
					missing = append(missing, p.Name)
				}
			}
			n.c.add(n.pos, MissingArgument, n.name, "", "%s expects %s", n.name, strings.Join(missing, ", "))
			return
		}
		extra := args[len(spec.Params)]
		n.c.add(extra.Position(), InvalidArgument, n.name, "", "%s takes at most %d arguments", n.name, len(spec.Params))
		return
	}
	for i, p := range params {
		if !p.Type.Accepts(args[i]) {
			n.c.add(args[i].Position(), InvalidArgument, n.name, "", "%s must be a %s", p.Name, p.Type)
		}
	}
}

func (n *node) testShape(spec *capability.Spec, arg ast.Argument) {
	switch v := arg.(type) {
	case nil:
		if spec.Test != capability.NoTest {
			n.c.add(n.pos, MissingTest, n.name, "", "%s requires a test", n.name)
		}
		return
	case *ast.TestArg:
		switch spec.Test {
		case capability.NoTest:
			n.c.add(v.Position(), UnexpectedTest, n.name, "", "%s does not take a test", n.name)
		case capability.TestList:
			n.c.add(v.Position(), InvalidArgument, n.name, "", "%s expects a test list", n.name)
		}
		n.c.test(v.Test)
	case *ast.TestListArg:
		switch spec.Test {
		case capability.NoTest:
			n.c.add(v.Pos, UnexpectedTest, n.name, "", "%s does not take a test", n.name)
		case capability.SingleTest:
			n.c.add(v.Pos, InvalidArgument, n.name, "", "%s expects a single test", n.name)
		}
		for _, t := range v.Tests {
			n.c.test(t)
		}
	}
}
