package ast

import "strings"

// Kind identifies a known command or test. Names that are not part of the
// vocabulary map to KindUnknown and keep their raw name and arguments.
type Kind int

// Kind constants, grouped by role.
const (
	KindUnknown Kind = iota

	// Control commands (RFC 5228 section 3, include extension)
	KindRequire
	KindIf
	KindElsif
	KindElse
	KindStop
	KindInclude
	KindReturn
	KindGlobal

	// Actions
	KindKeep
	KindDiscard
	KindRedirect
	KindFileinto
	KindReject
	KindEreject
	KindVacation
	KindSetflag
	KindAddflag
	KindRemoveflag
	KindSet
	KindNotify
	KindAddheader
	KindDeleteheader

	// Tests
	KindAddress
	KindEnvelope
	KindHeader
	KindSize
	KindExists
	KindTrue
	KindFalse
	KindNot
	KindAnyof
	KindAllof
	KindBody
	KindDate
	KindCurrentdate
	KindString
	KindHasflag
	KindDuplicate
	KindSpamtest
	KindVirustest
	KindMailboxexists
	KindValidNotifyMethod
	KindNotifyMethodCapability
	KindEnvironment
)

// Role classifies a kind by where it may appear.
type Role int

// Role constants.
const (
	RoleUnknown Role = iota
	RoleControl
	RoleAction
	RoleTest
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleControl:
		return "control"
	case RoleAction:
		return "action"
	case RoleTest:
		return "test"
	default:
		return "unknown"
	}
}

var kindNames = map[Kind]string{
	KindRequire: "require",
	KindIf:      "if",
	KindElsif:   "elsif",
	KindElse:    "else",
	KindStop:    "stop",
	KindInclude: "include",
	KindReturn:  "return",
	KindGlobal:  "global",

	KindKeep:         "keep",
	KindDiscard:      "discard",
	KindRedirect:     "redirect",
	KindFileinto:     "fileinto",
	KindReject:       "reject",
	KindEreject:      "ereject",
	KindVacation:     "vacation",
	KindSetflag:      "setflag",
	KindAddflag:      "addflag",
	KindRemoveflag:   "removeflag",
	KindSet:          "set",
	KindNotify:       "notify",
	KindAddheader:    "addheader",
	KindDeleteheader: "deleteheader",

	KindAddress:                "address",
	KindEnvelope:               "envelope",
	KindHeader:                 "header",
	KindSize:                   "size",
	KindExists:                 "exists",
	KindTrue:                   "true",
	KindFalse:                  "false",
	KindNot:                    "not",
	KindAnyof:                  "anyof",
	KindAllof:                  "allof",
	KindBody:                   "body",
	KindDate:                   "date",
	KindCurrentdate:            "currentdate",
	KindString:                 "string",
	KindHasflag:                "hasflag",
	KindDuplicate:              "duplicate",
	KindSpamtest:               "spamtest",
	KindVirustest:              "virustest",
	KindMailboxexists:          "mailboxexists",
	KindValidNotifyMethod:      "valid_notify_method",
	KindNotifyMethodCapability: "notify_method_capability",
	KindEnvironment:            "environment",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

// LookupKind returns the kind for a command or test name.
// Names are case-insensitive.
func LookupKind(name string) Kind {
	if k, ok := kindsByName[strings.ToLower(name)]; ok {
		return k
	}
	return KindUnknown
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := KindRequire; k <= KindEnvironment; k++ {
		out = append(out, k)
	}
	return out
}

// String returns the canonical name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Role returns where the kind may appear.
func (k Kind) Role() Role {
	switch {
	case k >= KindRequire && k <= KindGlobal:
		return RoleControl
	case k >= KindKeep && k <= KindDeleteheader:
		return RoleAction
	case k >= KindAddress && k <= KindEnvironment:
		return RoleTest
	default:
		return RoleUnknown
	}
}

// IsTest returns true if the kind is a boolean test.
func (k Kind) IsTest() bool {
	return k.Role() == RoleTest
}

// TakesBlock returns true for control commands that must be followed by a block.
func (k Kind) TakesBlock() bool {
	switch k {
	case KindIf, KindElsif, KindElse:
		return true
	}
	return false
}
