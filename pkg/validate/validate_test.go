package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsieve/pkg/ast"
	"github.com/leapstack-labs/leapsieve/pkg/capability"
	"github.com/leapstack-labs/leapsieve/pkg/parser"
	"github.com/leapstack-labs/leapsieve/pkg/token"
)

func mustParse(t *testing.T, src string) *ast.Script {
	t.Helper()
	script, err := parser.Parse(src)
	require.NoError(t, err)
	return script
}

func kinds(errs []Error) []Kind {
	out := make([]Kind, len(errs))
	for i, e := range errs {
		out[i] = e.Kind
	}
	return out
}

func TestValidateCapabilityGating(t *testing.T) {
	errs := Validate(mustParse(t, `fileinto "x";`))
	require.Len(t, errs, 1)
	assert.Equal(t, MissingCapability, errs[0].Kind)
	assert.Equal(t, "fileinto", errs[0].Extension)
	assert.Equal(t, "fileinto", errs[0].Command)
	assert.Equal(t, token.Position{Line: 1, Column: 1, Offset: 0}, errs[0].Pos)

	errs = Validate(mustParse(t, "require [\"fileinto\"];\nfileinto \"x\";"))
	assert.Empty(t, errs)
}

func TestValidateValidScripts(t *testing.T) {
	scripts := map[string]string{
		"empty": ``,
		"rfc example": `require ["fileinto", "reject"];
if header :contains "from" "coyote" {
	discard;
} elsif header :contains ["subject"] ["$$$"] {
	discard;
} else {
	fileinto "INBOX";
}`,
		"vacation": `require ["vacation"];
vacation :days 7 :subject "Away" :addresses ["me@example.com"] text:
I am away.
.
;`,
		"flags on fileinto": `require ["fileinto", "imap4flags", "copy"];
fileinto :copy :flags ["\\Seen"] "Archive";`,
		"size": `if size :over 1M { discard; }`,
		"relational": `require ["relational", "comparator-i;ascii-numeric"];
if header :value "gt" :comparator "i;ascii-numeric" "x-spam-score" "5" { discard; }`,
		"builtin comparator": `if header :comparator "i;octet" :is "to" "x" { keep; }`,
		"optional variable":  `require "imap4flags"; setflag "flags" "\\Seen"; addflag ["\\Flagged"];`,
		"nested tests":       `if allof (not exists "x", anyof (true, false)) { stop; }`,
		"date":               `require ["date", "relational"]; if currentdate :value "ge" "date" "2024-01-01" { keep; }`,
	}

	for name, src := range scripts {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, Validate(mustParse(t, src)))
		})
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		kinds []Kind
	}{
		{"unknown command", `frobnicate;`, []Kind{UnknownCommand}},
		{"test as command", `header "a" "b";`, []Kind{UnknownCommand}},
		{"unknown test", `if frob { keep; }`, []Kind{UnknownTest}},
		{"command as test", `if keep { stop; }`, []Kind{UnknownTest}},
		{"unknown tag", `keep :sideways;`, []Kind{UnknownTag}},
		{"tag extension missing", `require "fileinto"; fileinto :copy "x";`, []Kind{MissingCapability}},
		{"two extensions missing", `fileinto :copy "x";`, []Kind{MissingCapability, MissingCapability}},
		{"unknown require", `require "teleport";`, []Kind{UnsupportedCapability}},
		{"missing argument", `require "fileinto"; fileinto;`, []Kind{MissingArgument}},
		{"too many arguments", `redirect "a" "b";`, []Kind{InvalidArgument}},
		{"wrong argument type", `redirect 5;`, []Kind{InvalidArgument}},
		{"missing tag value", `require "vacation"; vacation :days "x";`, []Kind{MissingArgument}},
		{"conflicting tags", `if header :is :contains "a" "b" { keep; }`, []Kind{InvalidArgument}},
		{"size without group", `if size 5 { keep; }`, []Kind{MissingArgument, InvalidArgument}},
		{"unknown comparator", `if header :comparator "i;klingon" "a" "b" { keep; }`, []Kind{InvalidArgument}},
		{"comparator needs require", `if header :comparator "i;ascii-numeric" "a" "b" { keep; }`, []Kind{MissingCapability}},
		{"bad relational operator", `require "relational"; if header :value "bigger" "a" "b" { keep; }`, []Kind{InvalidArgument}},
		{"missing test", `if { keep; }`, []Kind{MissingTest}},
		{"unexpected test", `else true { keep; }`, []Kind{MisplacedCommand, UnexpectedTest}},
		{"list for single test", `if not (true, false) { keep; }`, []Kind{InvalidArgument}},
		{"single for list", `if anyof true { keep; }`, []Kind{InvalidArgument}},
		{"late require", `keep; require "fileinto";`, []Kind{MisplacedCommand}},
		{"nested require", `if true { require "fileinto"; }`, []Kind{MisplacedCommand}},
		{"orphan elsif", `keep; elsif true { stop; }`, []Kind{MisplacedCommand}},
		{"else after else", `if true { keep; } else { stop; } else { stop; }`, []Kind{MisplacedCommand}},
		{"error inside unknown", `group { fileinto "x"; }`, []Kind{UnknownCommand, MissingCapability}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(mustParse(t, tt.src))
			assert.Equal(t, tt.kinds, kinds(errs), "%v", errs)
		})
	}
}

func TestValidateBlockShape(t *testing.T) {
	// the parser enforces block shape, so build the trees directly
	keep := ast.MustCommand("keep")
	inner, err := ast.NewBlock(ast.MustCommand("stop"))
	require.NoError(t, err)
	require.NoError(t, keep.SetBlock(inner))

	ifCmd := ast.MustCommand("if", &ast.TestArg{Test: ast.MustTest("true")})

	script := ast.NewScript()
	require.NoError(t, script.Body().Append(keep))
	require.NoError(t, script.Body().Append(ifCmd))

	assert.Equal(t, []Kind{UnexpectedBlock, MissingBlock}, kinds(Validate(script)))
}

func TestValidateServerCapabilities(t *testing.T) {
	script := mustParse(t, `require ["fileinto", "vacation"]; fileinto "x";`)

	assert.Empty(t, Validate(script))

	errs := Validate(script, WithServerCapabilities("fileinto"))
	require.Len(t, errs, 1)
	assert.Equal(t, UnsupportedCapability, errs[0].Kind)
	assert.Equal(t, "vacation", errs[0].Extension)

	// an empty list leaves the registry unrestricted
	assert.Empty(t, Validate(script, WithServerCapabilities()))
}

func TestValidateServerCapabilities_VendorExtension(t *testing.T) {
	script := mustParse(t, "require [\"fileinto\", \"vnd.dovecot.pipe\"];\nfileinto \"x\";")

	tests := []struct {
		name   string
		server []string
		want   []Kind
	}{
		{"advertised", []string{"fileinto", "vnd.dovecot.pipe"}, []Kind{}},
		{"not advertised", []string{"fileinto"}, []Kind{UnsupportedCapability}},
		{"no server list", nil, []Kind{UnsupportedCapability}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(Validate(script, WithServerCapabilities(tt.server...))))
		})
	}

	// the extension is only known, it unlocks no commands
	pipe := mustParse(t, `require "vnd.dovecot.pipe"; pipe "sa-learn";`)
	errs := Validate(pipe, WithServerCapabilities("vnd.dovecot.pipe"))
	require.Len(t, errs, 1)
	assert.Equal(t, UnknownCommand, errs[0].Kind)
}

func TestValidateCustomRegistry(t *testing.T) {
	reg := capability.Extend(capability.Default(), "custom").
		Extension("x-archive", "", "archive messages").
		Command(capability.Spec{
			Name:      "archive",
			Extension: "x-archive",
			Params:    []capability.Param{{Name: "folder", Type: capability.ArgString, Optional: true}},
		}).
		Build()
	v := New(reg)
	assert.Same(t, reg, v.Registry())

	assert.Equal(t, []Kind{MissingCapability}, kinds(v.Validate(mustParse(t, `archive;`))))
	assert.Empty(t, v.Validate(mustParse(t, `require "x-archive"; archive; archive "old";`)))
	assert.Equal(t, []Kind{UnknownCommand}, kinds(Validate(mustParse(t, `archive;`))))
}

func TestErrorString(t *testing.T) {
	err := Error{
		Pos:    token.Position{Line: 3, Column: 5},
		Kind:   UnknownTag,
		Detail: "keep does not accept :x",
	}
	assert.Equal(t, "3:5: unknown-tag: keep does not accept :x", err.Error())
	assert.Len(t, Kinds(), 12)
}
