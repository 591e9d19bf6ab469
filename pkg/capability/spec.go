// Package capability describes the Sieve vocabulary: which commands, tests
// and tags exist, what arguments they take, and which extension unlocks them.
//
// A Registry is an immutable value. Parsers and validators receive one
// explicitly, so scripts written against different servers can be checked
// side by side.
package capability

import (
	"github.com/leapstack-labs/leapsieve/pkg/ast"
)

// ArgType is the expected shape of a positional or tag argument.
type ArgType int

const (
	// ArgNone marks a tag that takes no value.
	ArgNone ArgType = iota
	// ArgString accepts a single string.
	ArgString
	// ArgStringList accepts a string list or a single string.
	ArgStringList
	// ArgNumber accepts a number.
	ArgNumber
)

// String returns the name used in diagnostics.
func (t ArgType) String() string {
	switch t {
	case ArgNone:
		return "none"
	case ArgString:
		return "string"
	case ArgStringList:
		return "string-list"
	case ArgNumber:
		return "number"
	default:
		return "unknown"
	}
}

// Accepts reports whether a matches the type.
func (t ArgType) Accepts(a ast.Argument) bool {
	switch t {
	case ArgString:
		_, ok := a.(*ast.StringArg)
		return ok
	case ArgStringList:
		switch a.(type) {
		case *ast.StringArg, *ast.StringListArg:
			return true
		}
	case ArgNumber:
		_, ok := a.(*ast.NumberArg)
		return ok
	}
	return false
}

// TestShape is what follows the positional arguments of a command or test.
type TestShape int

// Test shapes.
const (
	NoTest     TestShape = iota
	SingleTest           // if, elsif, not
	TestList             // anyof, allof
)

// Param is one positional argument.
type Param struct {
	Name     string
	Type     ArgType
	Optional bool
}

// TagSpec describes a :tag accepted by a command or test.
type TagSpec struct {
	Name string
	// Value is the type of the argument that must follow the tag.
	Value ArgType
	// Extension is the capability that unlocks the tag. Empty means the tag
	// is available wherever its command is.
	Extension string
	// Group names mutually exclusive tags, such as match types.
	Group string
}

// Spec describes the signature of a command or test.
type Spec struct {
	Name      string
	Kind      ast.Kind
	Extension string // empty for the base language
	Params    []Param
	Tags      []TagSpec
	Test      TestShape
	Block     bool
	// RequiredGroup names a tag group of which one member must be present,
	// such as :over/:under for size.
	RequiredGroup string
	Description   string
}

// IsTest reports whether the spec describes a test.
func (s *Spec) IsTest() bool {
	return s.Kind.IsTest()
}

// Tag returns the spec of the named tag.
func (s *Spec) Tag(name string) (TagSpec, bool) {
	for _, t := range s.Tags {
		if t.Name == name {
			return t, true
		}
	}
	return TagSpec{}, false
}

// MatchParams assigns n positional arguments to parameters. Optional
// parameters are dropped from the left until the counts match. It returns
// false when n is outside the accepted range.
func (s *Spec) MatchParams(n int) ([]Param, bool) {
	required := 0
	for _, p := range s.Params {
		if !p.Optional {
			required++
		}
	}
	if n < required || n > len(s.Params) {
		return nil, false
	}
	skip := len(s.Params) - n
	out := make([]Param, 0, n)
	for _, p := range s.Params {
		if p.Optional && skip > 0 {
			skip--
			continue
		}
		out = append(out, p)
	}
	return out, true
}

// RequiredParams returns the number of mandatory positional arguments.
func (s *Spec) RequiredParams() int {
	n := 0
	for _, p := range s.Params {
		if !p.Optional {
			n++
		}
	}
	return n
}

// Extension is a named optional capability.
type Extension struct {
	Name        string
	Description string
	RFC         string
}
