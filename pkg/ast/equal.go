package ast

import "strings"

// Equal reports whether two scripts are semantically equal: same commands,
// arguments, blocks and capabilities in the same order. Positions, comments
// and the source form of strings are ignored. A single string and a
// one-element string list compare equal, since both decode to the same value.
func Equal(a, b *Script) bool {
	if a == nil || b == nil {
		return a == b
	}
	return blocksEqual(a.body, b.body)
}

// CommandsEqual compares two commands and their subtrees.
func CommandsEqual(a, b *Command) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !strings.EqualFold(a.Name, b.Name) || !argsEqual(a.args, b.args) {
		return false
	}
	if (a.block == nil) != (b.block == nil) {
		return false
	}
	return a.block == nil || blocksEqual(a.block, b.block)
}

func blocksEqual(a, b *Block) bool {
	if len(a.commands) != len(b.commands) {
		return false
	}
	for i := range a.commands {
		if !CommandsEqual(a.commands[i], b.commands[i]) {
			return false
		}
	}
	return true
}

func testsEqual(a, b *Test) bool {
	if a == nil || b == nil {
		return a == b
	}
	return strings.EqualFold(a.Name, b.Name) && argsEqual(a.Args, b.Args)
}

func argsEqual(a, b []Argument) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !argEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func argEqual(a, b Argument) bool {
	if as, ok := Strings(a); ok {
		bs, ok := Strings(b)
		if !ok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if as[i] != bs[i] {
				return false
			}
		}
		return true
	}

	switch x := a.(type) {
	case *NumberArg:
		y, ok := b.(*NumberArg)
		return ok && x.Value == y.Value && x.Unit == y.Unit
	case *TagArg:
		y, ok := b.(*TagArg)
		return ok && strings.EqualFold(x.Name, y.Name)
	case *TestArg:
		y, ok := b.(*TestArg)
		return ok && testsEqual(x.Test, y.Test)
	case *TestListArg:
		y, ok := b.(*TestListArg)
		if !ok || len(x.Tests) != len(y.Tests) {
			return false
		}
		for i := range x.Tests {
			if !testsEqual(x.Tests[i], y.Tests[i]) {
				return false
			}
		}
		return true
	}
	return false
}
