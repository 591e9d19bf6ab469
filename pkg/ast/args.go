package ast

import (
	"strconv"

	"github.com/leapstack-labs/leapsieve/pkg/token"
)

// Argument is one positional element of a command or test.
//
// The set of implementations is closed: *StringArg, *StringListArg,
// *NumberArg, *TagArg, *TestArg and *TestListArg.
type Argument interface {
	Position() token.Position
	argNode()
}

// StringArg is a quoted or multiline string. Value is always decoded.
type StringArg struct {
	Pos       token.Position
	Value     string
	Multiline bool // source form only; the printer picks its own form
}

// StringListArg is a bracketed list of strings. It may be empty.
type StringListArg struct {
	Pos    token.Position
	Values []string
}

// NumberArg is a number with an optional quantifier (K, M or G).
type NumberArg struct {
	Pos   token.Position
	Value uint64
	Unit  byte // 0, 'K', 'M' or 'G'
}

// TagArg is a :name marker. Name is stored without the colon.
type TagArg struct {
	Pos  token.Position
	Name string
}

// TestArg holds the single test of if, elsif and not.
type TestArg struct {
	Test *Test
}

// TestListArg holds the tests of anyof and allof.
type TestListArg struct {
	Pos   token.Position
	Tests []*Test
}

func (a *StringArg) Position() token.Position     { return a.Pos }
func (a *StringListArg) Position() token.Position { return a.Pos }
func (a *NumberArg) Position() token.Position     { return a.Pos }
func (a *TagArg) Position() token.Position        { return a.Pos }
func (a *TestListArg) Position() token.Position   { return a.Pos }

// Position returns the position of the wrapped test.
func (a *TestArg) Position() token.Position {
	if a.Test == nil {
		return token.Position{}
	}
	return a.Test.Span.Start
}

func (*StringArg) argNode()     {}
func (*StringListArg) argNode() {}
func (*NumberArg) argNode()     {}
func (*TagArg) argNode()        {}
func (*TestArg) argNode()       {}
func (*TestListArg) argNode()   {}

// String returns the number as written, including its unit.
func (a *NumberArg) String() string {
	s := strconv.FormatUint(a.Value, 10)
	if a.Unit != 0 {
		s += string(a.Unit)
	}
	return s
}

// Bytes returns the value with its quantifier applied.
func (a *NumberArg) Bytes() uint64 {
	switch a.Unit {
	case 'K':
		return a.Value << 10
	case 'M':
		return a.Value << 20
	case 'G':
		return a.Value << 30
	}
	return a.Value
}

// Str builds a string argument.
func Str(value string) *StringArg { return &StringArg{Value: value} }

// List builds a string list argument.
func List(values ...string) *StringListArg {
	return &StringListArg{Values: append([]string{}, values...)}
}

// Num builds a number argument without a unit.
func Num(value uint64) *NumberArg { return &NumberArg{Value: value} }

// Tag builds a tag argument. A leading colon is accepted and dropped.
func Tag(name string) *TagArg {
	if len(name) > 0 && name[0] == ':' {
		name = name[1:]
	}
	return &TagArg{Name: name}
}

// Strings returns the string values of a string or string list argument.
func Strings(a Argument) ([]string, bool) {
	switch v := a.(type) {
	case *StringArg:
		return []string{v.Value}, true
	case *StringListArg:
		return v.Values, true
	}
	return nil, false
}

// checkArgs verifies the argument shape shared by commands and tests:
// no nil entries and at most one test or test list, in last position.
func checkArgs(args []Argument) error {
	for i, a := range args {
		switch v := a.(type) {
		case nil:
			return errorf(ErrInvalidArgs, "argument %d is nil", i)
		case *TestArg:
			if v.Test == nil {
				return errorf(ErrInvalidArgs, "argument %d has no test", i)
			}
			if i != len(args)-1 {
				return errorf(ErrInvalidArgs, "test must be the last argument")
			}
			if err := checkArgs(v.Test.Args); err != nil {
				return err
			}
		case *TestListArg:
			if i != len(args)-1 {
				return errorf(ErrInvalidArgs, "test list must be the last argument")
			}
			for _, t := range v.Tests {
				if t == nil {
					return errorf(ErrInvalidArgs, "test list contains a nil test")
				}
				if err := checkArgs(t.Args); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
