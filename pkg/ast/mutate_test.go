package ast

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(b *Block) []string {
	var out []string
	for _, c := range b.Commands() {
		out = append(out, c.Name)
	}
	return out
}

func TestInsertAndRemove(t *testing.T) {
	s := NewScript()
	root := s.Body()

	require.NoError(t, root.Append(MustCommand("keep")))
	require.NoError(t, root.Insert(0, MustCommand("discard")))
	require.NoError(t, root.Insert(1, MustCommand("stop")))
	assert.Equal(t, []string{"discard", "stop", "keep"}, names(root))

	stop := root.At(1)
	assert.Same(t, root, stop.Parent())
	assert.True(t, root.IsRoot())
	assert.Same(t, s, root.Script())

	require.NoError(t, root.Remove(stop))
	assert.Nil(t, stop.Parent())
	assert.Equal(t, []string{"discard", "keep"}, names(root))

	err := root.Remove(stop)
	var merr *MutationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "remove", merr.Op)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.CheckIntegrity())
}

func TestInsertErrors(t *testing.T) {
	s := sampleScript(t)
	root := s.Body()
	ifCmd := root.At(1)
	before := names(root)

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"nil command", func() error { return root.Insert(0, nil) }, ErrInvalidArgs},
		{"attached command", func() error { return root.Append(ifCmd.Block().At(0)) }, ErrAttached},
		{"negative index", func() error { return root.Insert(-1, MustCommand("keep")) }, ErrIndexOutOfRange},
		{"index past end", func() error { return root.Insert(4, MustCommand("keep")) }, ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.want)
			assert.Equal(t, before, names(root))
			require.NoError(t, s.CheckIntegrity())
		})
	}
}

func TestInsertCycle(t *testing.T) {
	inner, err := NewBlock()
	require.NoError(t, err)
	outer, err := NewControl("if", inner, &TestArg{Test: MustTest("true")})
	require.NoError(t, err)

	// a detached control command cannot be inserted into its own block
	err = inner.Append(outer)
	assert.ErrorIs(t, err, ErrCycle)
	assert.Equal(t, 0, inner.Len())
}

func TestSetBlock(t *testing.T) {
	s := sampleScript(t)
	ifCmd := s.Body().At(1)
	old := ifCmd.Block()

	// a block that is already owned cannot be shared
	other := MustCommand("if", &TestArg{Test: MustTest("false")})
	assert.ErrorIs(t, other.SetBlock(old), ErrAttached)
	assert.ErrorIs(t, other.SetBlock(s.Body()), ErrAttached)

	fresh, err := NewBlock(MustCommand("discard"))
	require.NoError(t, err)
	require.NoError(t, ifCmd.SetBlock(fresh))
	assert.Same(t, ifCmd, fresh.Owner())
	assert.Nil(t, old.Owner())

	// the old block can be reused now
	require.NoError(t, other.SetBlock(old))
	require.NoError(t, s.Body().Append(other))
	require.NoError(t, s.CheckIntegrity())

	// attaching a block under a command it contains is a cycle
	nested := MustCommand("if", &TestArg{Test: MustTest("true")})
	require.NoError(t, fresh.Append(nested))
	require.NoError(t, ifCmd.SetBlock(nil))
	assert.ErrorIs(t, nested.SetBlock(fresh), ErrCycle)
}

func TestReplaceArgs(t *testing.T) {
	cmd := MustCommand("fileinto", Str("a"))
	require.NoError(t, cmd.ReplaceArgs([]Argument{Tag("copy"), Str("b")}))
	args := cmd.Args()
	require.Len(t, args, 2)
	assert.Equal(t, "copy", args[0].(*TagArg).Name)

	err := cmd.ReplaceArgs([]Argument{&TestArg{Test: MustTest("true")}, Str("x")})
	assert.ErrorIs(t, err, ErrInvalidArgs)
	assert.Len(t, cmd.Args(), 2, "failed replace must keep the old arguments")

	// callers cannot alias the stored slice
	args[1] = Str("mutated")
	v, _ := Strings(cmd.Args()[1])
	assert.Equal(t, []string{"b"}, v)
}

func TestMove(t *testing.T) {
	s := sampleScript(t)
	root := s.Body()
	ifCmd := root.At(1)
	inner := ifCmd.Block()
	keep := root.At(2)

	require.NoError(t, Move(keep, inner, 1))
	assert.Equal(t, []string{"require", "if"}, names(root))
	assert.Equal(t, []string{"fileinto", "keep", "stop"}, names(inner))
	assert.Same(t, inner, keep.Parent())

	// same block: index is taken after removal
	require.NoError(t, Move(keep, inner, 2))
	assert.Equal(t, []string{"fileinto", "stop", "keep"}, names(inner))
	assert.ErrorIs(t, Move(keep, inner, 3), ErrIndexOutOfRange)

	assert.ErrorIs(t, Move(ifCmd, inner, 0), ErrCycle)
	assert.ErrorIs(t, Move(MustCommand("stop"), inner, 0), ErrNotFound)
	assert.ErrorIs(t, Move(keep, nil, 0), ErrInvalidArgs)

	require.NoError(t, s.CheckIntegrity())
}

func TestRequire(t *testing.T) {
	t.Run("creates require at top", func(t *testing.T) {
		s := NewScript()
		require.NoError(t, s.Body().Append(MustCommand("keep")))
		require.NoError(t, s.Require("fileinto", "fileinto", "copy"))
		assert.Equal(t, []string{"require", "keep"}, names(s.Body()))
		assert.Equal(t, []string{"fileinto", "copy"}, s.Capabilities())
	})

	t.Run("extends existing require", func(t *testing.T) {
		s := NewScript()
		require.NoError(t, s.Body().Append(MustCommand("require", Str("fileinto"))))
		require.NoError(t, s.Require("imap4flags", "fileinto"))
		assert.Equal(t, 1, s.Body().Len())
		assert.Equal(t, []string{"fileinto", "imap4flags"}, s.Capabilities())
		_, isList := s.Body().At(0).Args()[0].(*StringListArg)
		assert.True(t, isList)
	})

	t.Run("noop when declared", func(t *testing.T) {
		s := NewScript()
		require.NoError(t, s.Body().Append(MustCommand("require", List("body"))))
		require.NoError(t, s.Require("body"))
		assert.Equal(t, []string{"body"}, s.Capabilities())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		s := NewScript()
		assert.ErrorIs(t, s.Require(""), ErrInvalidArgs)
		assert.Equal(t, 0, s.Body().Len())
	})
}

func TestCheckIntegrityDetectsCorruption(t *testing.T) {
	s := sampleScript(t)
	s.Body().At(2).parent = nil
	assert.ErrorIs(t, s.CheckIntegrity(), ErrBrokenLink)

	s = sampleScript(t)
	ifCmd := s.Body().At(1)
	s.Body().commands = append(s.Body().commands, ifCmd.Block().At(0))
	assert.Error(t, s.CheckIntegrity())
}

// TestRandomMutations drives long random edit sequences and checks the tree
// after every step. Failed operations must leave the tree untouched.
func TestRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		s := sampleScript(t)
		var detached []*Command

		blocks := func() []*Block {
			out := []*Block{s.Body()}
			Walk(s, func(n Node) bool {
				if cmd, ok := n.(*Command); ok && cmd.Block() != nil {
					out = append(out, cmd.Block())
				}
				return true
			})
			return out
		}

		for step := 0; step < 200; step++ {
			all := Commands(s)
			bs := blocks()
			dst := bs[rng.Intn(len(bs))]

			var err error
			switch rng.Intn(5) {
			case 0: // insert new simple command
				err = dst.Insert(rng.Intn(dst.Len()+2), MustCommand("keep"))
			case 1: // insert new control command
				inner, _ := NewBlock()
				cmd, _ := NewControl("if", inner, &TestArg{Test: MustTest("true")})
				err = dst.Insert(rng.Intn(dst.Len()+1), cmd)
			case 2: // remove
				if len(all) == 0 {
					continue
				}
				cmd := all[rng.Intn(len(all))]
				err = cmd.Parent().Remove(cmd)
				if err == nil {
					detached = append(detached, cmd)
				}
			case 3: // move, possibly into its own subtree
				if len(all) == 0 {
					continue
				}
				err = Move(all[rng.Intn(len(all))], dst, rng.Intn(dst.Len()+1))
			case 4: // reattach something removed earlier
				if len(detached) == 0 {
					continue
				}
				i := rng.Intn(len(detached))
				err = dst.Insert(rng.Intn(dst.Len()+1), detached[i])
				if err == nil {
					detached = append(detached[:i], detached[i+1:]...)
				}
			}

			if err != nil {
				var merr *MutationError
				require.True(t, errors.As(err, &merr), "unexpected error type: %v", err)
			}
			require.NoError(t, s.CheckIntegrity(), "round %d step %d", round, step)

			for _, b := range blocks() {
				for _, c := range b.Commands() {
					require.Same(t, b, c.Parent())
				}
			}
		}
	}
}
