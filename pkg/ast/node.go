// Package ast defines the command tree of a parsed Sieve script and the
// operations that edit it.
//
// A Script owns a root Block. A Block is an ordered list of Commands and has
// exactly one owner: either a control Command or the Script itself. Commands
// carry their arguments, which may embed boolean Tests.
//
// Blocks and commands are linked with parent pointers that only the mutation
// functions in this package update, so the tree stays strictly hierarchical.
package ast

import "github.com/leapstack-labs/leapsieve/pkg/token"

// Node is implemented by every tree element.
type Node interface {
	GetSpan() token.Span
	node()
}

// NodeInfo provides common fields for all AST nodes.
type NodeInfo struct {
	Span             token.Span
	LeadingComments  []*token.Comment
	TrailingComments []*token.Comment
}

// GetSpan returns the node's source span.
func (n *NodeInfo) GetSpan() token.Span {
	return n.Span
}

// AddLeadingComment adds a leading comment to the node.
func (n *NodeInfo) AddLeadingComment(c *token.Comment) {
	n.LeadingComments = append(n.LeadingComments, c)
}

// AddTrailingComment adds a trailing comment to the node.
func (n *NodeInfo) AddTrailingComment(c *token.Comment) {
	n.TrailingComments = append(n.TrailingComments, c)
}

// Script is the root of a parsed rule set.
type Script struct {
	NodeInfo
	body *Block
}

// NewScript returns an empty script.
func NewScript() *Script {
	s := &Script{}
	s.body = &Block{script: s}
	return s
}

// Body returns the root block.
func (s *Script) Body() *Block {
	return s.body
}

// Capabilities returns the extension names declared by the leading require
// commands, deduplicated, in declaration order.
func (s *Script) Capabilities() []string {
	var caps []string
	seen := make(map[string]bool)
	for _, cmd := range s.body.commands {
		if cmd.Kind != KindRequire {
			break
		}
		for _, a := range cmd.args {
			values, ok := Strings(a)
			if !ok {
				continue
			}
			for _, v := range values {
				if !seen[v] {
					seen[v] = true
					caps = append(caps, v)
				}
			}
		}
	}
	return caps
}

// HasCapability reports whether name was declared by a leading require.
func (s *Script) HasCapability(name string) bool {
	for _, c := range s.Capabilities() {
		if c == name {
			return true
		}
	}
	return false
}

// Block is an ordered sequence of commands with a single owner.
type Block struct {
	NodeInfo
	commands []*Command
	owner    *Command
	script   *Script // set on the root block only
}

// NewBlock returns a detached block holding cmds. It fails if any command is
// already attached elsewhere or appears twice.
func NewBlock(cmds ...*Command) (*Block, error) {
	b := &Block{}
	seen := make(map[*Command]bool, len(cmds))
	for _, cmd := range cmds {
		if cmd == nil {
			return nil, &MutationError{Op: "new block", Err: ErrInvalidArgs}
		}
		if cmd.parent != nil || seen[cmd] {
			return nil, &MutationError{Op: "new block", Err: ErrAttached}
		}
		seen[cmd] = true
	}
	for _, cmd := range cmds {
		cmd.parent = b
	}
	b.commands = append(b.commands, cmds...)
	return b, nil
}

// Commands returns a copy of the block's commands.
func (b *Block) Commands() []*Command {
	return append([]*Command(nil), b.commands...)
}

// Len returns the number of commands in the block.
func (b *Block) Len() int {
	return len(b.commands)
}

// At returns the i-th command.
func (b *Block) At(i int) *Command {
	return b.commands[i]
}

// Index returns the position of cmd in the block, or -1.
func (b *Block) Index(cmd *Command) int {
	for i, c := range b.commands {
		if c == cmd {
			return i
		}
	}
	return -1
}

// Owner returns the control command owning the block, or nil for the root
// block and for detached blocks.
func (b *Block) Owner() *Command {
	return b.owner
}

// IsRoot reports whether the block is a script's root block.
func (b *Block) IsRoot() bool {
	return b.script != nil
}

// Script returns the script the block belongs to, or nil when detached.
func (b *Block) Script() *Script {
	for cur := b; cur != nil; {
		if cur.script != nil {
			return cur.script
		}
		if cur.owner == nil {
			return nil
		}
		cur = cur.owner.parent
	}
	return nil
}

// Command is a named action or control construct.
type Command struct {
	NodeInfo
	Name  string
	Kind  Kind
	args  []Argument
	block *Block
	// parent is the block that holds this command.
	parent *Block
}

// NewCommand builds a detached command. The name is matched case-insensitively
// against the known vocabulary.
func NewCommand(name string, args ...Argument) (*Command, error) {
	if name == "" {
		return nil, &MutationError{Op: "new command", Err: ErrInvalidArgs}
	}
	if err := checkArgs(args); err != nil {
		return nil, &MutationError{Op: "new command", Err: err}
	}
	kind := LookupKind(name)
	if kind != KindUnknown {
		name = kind.String()
	}
	return &Command{
		Name: name,
		Kind: kind,
		args: append([]Argument(nil), args...),
	}, nil
}

// NewControl builds a detached control command with a block.
func NewControl(name string, block *Block, args ...Argument) (*Command, error) {
	cmd, err := NewCommand(name, args...)
	if err != nil {
		return nil, err
	}
	if err := cmd.SetBlock(block); err != nil {
		return nil, err
	}
	return cmd, nil
}

// MustCommand is like NewCommand but panics on error.
func MustCommand(name string, args ...Argument) *Command {
	cmd, err := NewCommand(name, args...)
	if err != nil {
		panic(err)
	}
	return cmd
}

// Args returns a copy of the command's arguments.
func (c *Command) Args() []Argument {
	return append([]Argument(nil), c.args...)
}

// Block returns the nested block, or nil for simple commands.
func (c *Command) Block() *Block {
	return c.block
}

// Parent returns the block holding the command, or nil when detached.
func (c *Command) Parent() *Block {
	return c.parent
}

// Test returns the command's single test argument, if any.
func (c *Command) Test() *Test {
	if n := len(c.args); n > 0 {
		if ta, ok := c.args[n-1].(*TestArg); ok {
			return ta.Test
		}
	}
	return nil
}

// Test is a boolean-valued expression used by conditionals.
type Test struct {
	NodeInfo
	Name string
	Kind Kind
	Args []Argument
}

// NewTest builds a test node. The name is matched against the vocabulary.
// Like NewCommand it rejects an empty name and malformed arguments.
func NewTest(name string, args ...Argument) (*Test, error) {
	if name == "" {
		return nil, &MutationError{Op: "new test", Err: ErrInvalidArgs}
	}
	if err := checkArgs(args); err != nil {
		return nil, &MutationError{Op: "new test", Err: err}
	}
	kind := LookupKind(name)
	if kind != KindUnknown {
		name = kind.String()
	}
	return &Test{Name: name, Kind: kind, Args: append([]Argument(nil), args...)}, nil
}

// MustTest is NewTest for tests built from literals. It panics on error.
func MustTest(name string, args ...Argument) *Test {
	t, err := NewTest(name, args...)
	if err != nil {
		panic(err)
	}
	return t
}

// Tests returns the nested tests of not, anyof and allof.
func (t *Test) Tests() []*Test {
	if n := len(t.Args); n > 0 {
		switch v := t.Args[n-1].(type) {
		case *TestArg:
			return []*Test{v.Test}
		case *TestListArg:
			return v.Tests
		}
	}
	return nil
}

func (*Script) node()  {}
func (*Block) node()   {}
func (*Command) node() {}
func (*Test) node()    {}
