package ast

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by the mutation functions.
var (
	ErrAttached        = errors.New("command or block is already attached")
	ErrNotFound        = errors.New("command not found")
	ErrCycle           = errors.New("operation would create a cycle")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidArgs     = errors.New("invalid arguments")
	ErrBrokenLink      = errors.New("inconsistent parent link")
)

// MutationError reports a rejected edit. The tree is unchanged when one is
// returned.
type MutationError struct {
	Op  string
	Err error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("ast: %s: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

func errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// within reports whether b lies inside the subtree of cmd (including cmd's
// own block).
func within(b *Block, cmd *Command) bool {
	for cur := b; cur != nil && cur.owner != nil; cur = cur.owner.parent {
		if cur.owner == cmd {
			return true
		}
	}
	return false
}

// Insert places cmd at index i. The command must be detached.
func (b *Block) Insert(i int, cmd *Command) error {
	const op = "insert"
	switch {
	case cmd == nil:
		return &MutationError{Op: op, Err: ErrInvalidArgs}
	case cmd.parent != nil:
		return &MutationError{Op: op, Err: ErrAttached}
	case i < 0 || i > len(b.commands):
		return &MutationError{Op: op, Err: errorf(ErrIndexOutOfRange, "%d not in [0,%d]", i, len(b.commands))}
	case within(b, cmd):
		return &MutationError{Op: op, Err: ErrCycle}
	}
	b.insert(i, cmd)
	return nil
}

// Append adds cmd at the end of the block.
func (b *Block) Append(cmd *Command) error {
	return b.Insert(len(b.commands), cmd)
}

// Remove detaches cmd from the block. The command keeps its own subtree and
// may be inserted elsewhere afterwards.
func (b *Block) Remove(cmd *Command) error {
	i := b.Index(cmd)
	if cmd == nil || i < 0 {
		return &MutationError{Op: "remove", Err: ErrNotFound}
	}
	b.removeAt(i)
	return nil
}

func (b *Block) insert(i int, cmd *Command) {
	b.commands = append(b.commands, nil)
	copy(b.commands[i+1:], b.commands[i:])
	b.commands[i] = cmd
	cmd.parent = b
}

func (b *Block) removeAt(i int) {
	cmd := b.commands[i]
	b.commands = append(b.commands[:i], b.commands[i+1:]...)
	cmd.parent = nil
}

// Move re-parents an attached command into dst at index i. When dst is the
// command's current block, i is its index after removal.
func Move(cmd *Command, dst *Block, i int) error {
	const op = "move"
	if cmd == nil || dst == nil {
		return &MutationError{Op: op, Err: ErrInvalidArgs}
	}
	src := cmd.parent
	if src == nil {
		return &MutationError{Op: op, Err: ErrNotFound}
	}
	limit := len(dst.commands)
	if dst == src {
		limit--
	}
	if i < 0 || i > limit {
		return &MutationError{Op: op, Err: errorf(ErrIndexOutOfRange, "%d not in [0,%d]", i, limit)}
	}
	if within(dst, cmd) {
		return &MutationError{Op: op, Err: ErrCycle}
	}
	src.removeAt(src.Index(cmd))
	dst.insert(i, cmd)
	return nil
}

// ReplaceArgs swaps the command's argument list. A test or test list may only
// appear as the last argument.
func (c *Command) ReplaceArgs(args []Argument) error {
	if err := checkArgs(args); err != nil {
		return &MutationError{Op: "replace args", Err: err}
	}
	c.args = append([]Argument(nil), args...)
	return nil
}

// SetBlock attaches b as the command's nested block, detaching any previous
// one. A nil b turns the command into a simple command.
func (c *Command) SetBlock(b *Block) error {
	const op = "set block"
	if b != nil {
		if b.owner != nil || b.script != nil {
			return &MutationError{Op: op, Err: ErrAttached}
		}
		if blockContains(b, c) {
			return &MutationError{Op: op, Err: ErrCycle}
		}
	}
	if c.block != nil {
		c.block.owner = nil
	}
	c.block = b
	if b != nil {
		b.owner = c
	}
	return nil
}

// blockContains reports whether cmd is reachable from b.
func blockContains(b *Block, cmd *Command) bool {
	for cur := cmd.parent; cur != nil; {
		if cur == b {
			return true
		}
		if cur.owner == nil {
			return false
		}
		cur = cur.owner.parent
	}
	return false
}

// Require declares the given capabilities. Names already declared are
// skipped; new ones are appended to the first require command, which is
// created at the top of the script when missing.
func (s *Script) Require(names ...string) error {
	declared := make(map[string]bool)
	for _, c := range s.Capabilities() {
		declared[c] = true
	}
	var missing []string
	for _, n := range names {
		if n == "" {
			return &MutationError{Op: "require", Err: errorf(ErrInvalidArgs, "empty capability name")}
		}
		if !declared[n] {
			declared[n] = true
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if len(s.body.commands) > 0 && s.body.commands[0].Kind == KindRequire {
		req := s.body.commands[0]
		var values []string
		for _, a := range req.args {
			if v, ok := Strings(a); ok {
				values = append(values, v...)
			}
		}
		list := &StringListArg{Values: append(values, missing...)}
		if len(req.args) > 0 {
			list.Pos = req.args[0].Position()
		}
		req.args = []Argument{list}
		return nil
	}

	req := MustCommand("require", List(missing...))
	s.body.insert(0, req)
	return nil
}

// CheckIntegrity walks the whole tree and verifies that every block has one
// owner, every parent pointer matches containment and no node is reachable
// twice.
func (s *Script) CheckIntegrity() error {
	if s.body == nil || s.body.script != s || s.body.owner != nil {
		return fmt.Errorf("%w: root block", ErrBrokenLink)
	}
	blocks := make(map[*Block]bool)
	cmds := make(map[*Command]bool)

	var visit func(b *Block) error
	visit = func(b *Block) error {
		if blocks[b] {
			return fmt.Errorf("%w: block reachable twice", ErrCycle)
		}
		blocks[b] = true
		for i, cmd := range b.commands {
			if cmd == nil {
				return fmt.Errorf("%w: nil command at %d", ErrBrokenLink, i)
			}
			if cmds[cmd] {
				return fmt.Errorf("%w: command %q reachable twice", ErrCycle, cmd.Name)
			}
			cmds[cmd] = true
			if cmd.parent != b {
				return fmt.Errorf("%w: command %q", ErrBrokenLink, cmd.Name)
			}
			if err := checkArgs(cmd.args); err != nil {
				return err
			}
			if cmd.block == nil {
				continue
			}
			if cmd.block.owner != cmd || cmd.block.script != nil {
				return fmt.Errorf("%w: block of %q", ErrBrokenLink, cmd.Name)
			}
			if err := visit(cmd.block); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(s.body)
}
