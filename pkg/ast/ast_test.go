package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsieve/pkg/token"
)

func TestLookupKind(t *testing.T) {
	tests := []struct {
		name string
		want Kind
		role Role
	}{
		{"fileinto", KindFileinto, RoleAction},
		{"FileInto", KindFileinto, RoleAction},
		{"if", KindIf, RoleControl},
		{"anyof", KindAnyof, RoleTest},
		{"valid_notify_method", KindValidNotifyMethod, RoleTest},
		{"frobnicate", KindUnknown, RoleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := LookupKind(tt.name)
			assert.Equal(t, tt.want, k)
			assert.Equal(t, tt.role, k.Role())
		})
	}
}

func TestKinds(t *testing.T) {
	kinds := Kinds()
	require.NotEmpty(t, kinds)
	assert.Equal(t, KindRequire, kinds[0])
	assert.Equal(t, KindEnvironment, kinds[len(kinds)-1])
	for _, k := range kinds {
		assert.Equal(t, k, LookupKind(k.String()), k.String())
	}
	assert.True(t, KindIf.TakesBlock())
	assert.False(t, KindStop.TakesBlock())
	assert.True(t, KindHeader.IsTest())
}

func TestNewCommand(t *testing.T) {
	cmd, err := NewCommand("FILEINTO", Str("INBOX.spam"))
	require.NoError(t, err)
	assert.Equal(t, "fileinto", cmd.Name)
	assert.Equal(t, KindFileinto, cmd.Kind)
	assert.Nil(t, cmd.Parent())
	assert.Nil(t, cmd.Block())

	unknown, err := NewCommand("x-custom", Num(3))
	require.NoError(t, err)
	assert.Equal(t, "x-custom", unknown.Name)
	assert.Equal(t, KindUnknown, unknown.Kind)

	_, err = NewCommand("")
	assert.ErrorIs(t, err, ErrInvalidArgs)

	_, err = NewCommand("if", &TestArg{Test: MustTest("true")}, Str("late"))
	assert.ErrorIs(t, err, ErrInvalidArgs)

	_, err = NewCommand("keep", nil)
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestNewTest(t *testing.T) {
	size, err := NewTest("SIZE", Tag("over"), Num(100))
	require.NoError(t, err)
	assert.Equal(t, "size", size.Name)
	assert.Equal(t, KindSize, size.Kind)

	tests := []struct {
		name string
		args []Argument
	}{
		{"", nil},
		{"not", []Argument{nil}},
		{"not", []Argument{&TestArg{}}},
		{"anyof", []Argument{&TestListArg{Tests: []*Test{nil}}}},
	}
	for _, tt := range tests {
		_, err := NewTest(tt.name, tt.args...)
		var mErr *MutationError
		require.ErrorAs(t, err, &mErr, "%q %v", tt.name, tt.args)
		assert.ErrorIs(t, err, ErrInvalidArgs)
		assert.Equal(t, "new test", mErr.Op)
	}

	assert.Panics(t, func() { MustTest("") })
}

func TestNewBlockRejectsAttached(t *testing.T) {
	keep := MustCommand("keep")
	_, err := NewBlock(keep)
	require.NoError(t, err)

	_, err = NewBlock(keep)
	assert.ErrorIs(t, err, ErrAttached)

	stop := MustCommand("stop")
	_, err = NewBlock(stop, stop)
	assert.ErrorIs(t, err, ErrAttached)
	assert.Nil(t, stop.Parent(), "failed NewBlock must not attach")
}

func TestArgumentHelpers(t *testing.T) {
	assert.Equal(t, "10K", (&NumberArg{Value: 10, Unit: 'K'}).String())
	assert.Equal(t, uint64(10<<10), (&NumberArg{Value: 10, Unit: 'K'}).Bytes())
	assert.Equal(t, uint64(2<<20), (&NumberArg{Value: 2, Unit: 'M'}).Bytes())
	assert.Equal(t, uint64(1<<30), (&NumberArg{Value: 1, Unit: 'G'}).Bytes())
	assert.Equal(t, uint64(7), Num(7).Bytes())
	assert.Equal(t, "is", Tag(":is").Name)

	values, ok := Strings(List())
	assert.True(t, ok)
	assert.Empty(t, values)
	_, ok = Strings(Num(1))
	assert.False(t, ok)
}

func TestTestsAccessor(t *testing.T) {
	header := MustTest("header", Tag("contains"), Str("subject"), Str("spam"))
	anyof := MustTest("anyof", &TestListArg{Tests: []*Test{header, MustTest("true")}})
	not := MustTest("not", &TestArg{Test: header})

	assert.Len(t, anyof.Tests(), 2)
	assert.Equal(t, []*Test{header}, not.Tests())
	assert.Nil(t, header.Tests())

	cmd := MustCommand("if", &TestArg{Test: not})
	assert.Same(t, not, cmd.Test())
	assert.Nil(t, MustCommand("keep").Test())
}

func TestCapabilities(t *testing.T) {
	s := NewScript()
	require.NoError(t, s.Body().Append(MustCommand("require", List("fileinto", "imap4flags"))))
	require.NoError(t, s.Body().Append(MustCommand("require", Str("fileinto"))))
	require.NoError(t, s.Body().Append(MustCommand("keep")))
	require.NoError(t, s.Body().Append(MustCommand("require", Str("vacation"))))

	assert.Equal(t, []string{"fileinto", "imap4flags"}, s.Capabilities())
	assert.True(t, s.HasCapability("imap4flags"))
	assert.False(t, s.HasCapability("vacation"), "require after an action does not count")
}

func TestWalk(t *testing.T) {
	s := sampleScript(t)

	var names []string
	Walk(s, func(n Node) bool {
		switch v := n.(type) {
		case *Command:
			names = append(names, v.Name)
		case *Test:
			names = append(names, "?"+v.Name)
		}
		return true
	})
	assert.Equal(t, []string{"require", "if", "?anyof", "?header", "?size", "fileinto", "stop", "keep"}, names)

	var top []string
	Walk(s, func(n Node) bool {
		if cmd, ok := n.(*Command); ok {
			top = append(top, cmd.Name)
			return false
		}
		return true
	})
	assert.Equal(t, []string{"require", "if", "keep"}, top)

	assert.Len(t, Commands(s), 5)
}

func TestEqual(t *testing.T) {
	a := sampleScript(t)
	b := sampleScript(t)
	assert.True(t, Equal(a, b))

	// single string versus one-element list
	c := NewScript()
	require.NoError(t, c.Body().Append(MustCommand("fileinto", Str("Junk"))))
	d := NewScript()
	require.NoError(t, d.Body().Append(MustCommand("fileinto", List("Junk"))))
	assert.True(t, Equal(c, d))

	// positions and comments are ignored
	d.Body().At(0).Span = token.Span{Start: token.Position{Line: 9, Column: 1}}
	d.Body().At(0).AddLeadingComment(token.NewHashComment("note"))
	assert.True(t, Equal(c, d))

	require.NoError(t, d.Body().At(0).ReplaceArgs([]Argument{Str("Trash")}))
	assert.False(t, Equal(c, d))

	require.NoError(t, b.Body().Remove(b.Body().At(2)))
	assert.False(t, Equal(a, b))
	assert.False(t, Equal(a, nil))
	assert.True(t, Equal(nil, nil))
}

func TestRuleName(t *testing.T) {
	cmd := MustCommand("if", &TestArg{Test: MustTest("true")})
	cmd.AddLeadingComment(token.NewHashComment("first"))
	assert.Equal(t, "", cmd.RuleName())

	cmd.SetRuleName("Spam")
	assert.Equal(t, "Spam", cmd.RuleName())
	require.Len(t, cmd.LeadingComments, 2)
	assert.Equal(t, "# rule:[Spam]", cmd.LeadingComments[0].Text)

	cmd.SetRuleName("Ham")
	assert.Equal(t, "Ham", cmd.RuleName())
	assert.Len(t, cmd.LeadingComments, 2)

	cmd.SetRuleName("")
	assert.Equal(t, "", cmd.RuleName())
	assert.Len(t, cmd.LeadingComments, 1)
}

// sampleScript builds:
//
//	require ["fileinto"];
//	if anyof (header :contains "subject" "spam", size :over 1M) {
//		fileinto "Junk";
//		stop;
//	}
//	keep;
func sampleScript(t *testing.T) *Script {
	t.Helper()
	s := NewScript()
	test := MustTest("anyof", &TestListArg{Tests: []*Test{
		MustTest("header", Tag("contains"), Str("subject"), Str("spam")),
		MustTest("size", Tag("over"), &NumberArg{Value: 1, Unit: 'M'}),
	}})
	body, err := NewBlock(MustCommand("fileinto", Str("Junk")), MustCommand("stop"))
	require.NoError(t, err)
	ifCmd, err := NewControl("if", body, &TestArg{Test: test})
	require.NoError(t, err)

	require.NoError(t, s.Body().Append(MustCommand("require", List("fileinto"))))
	require.NoError(t, s.Body().Append(ifCmd))
	require.NoError(t, s.Body().Append(MustCommand("keep")))
	require.NoError(t, s.CheckIntegrity())
	return s
}
