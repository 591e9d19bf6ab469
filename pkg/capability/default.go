package capability

import (
	"sync"

	"github.com/leapstack-labs/leapsieve/pkg/ast"
)

// Comparators that every implementation supports without a require.
var builtinComparators = map[string]bool{
	"i;octet":         true,
	"i;ascii-casemap": true,
}

// IsBuiltinComparator reports whether a :comparator value needs no require.
func IsBuiltinComparator(name string) bool {
	return builtinComparators[name]
}

// ComparatorExtension returns the capability name for a comparator.
func ComparatorExtension(name string) string {
	return "comparator-" + name
}

func req(name string, t ArgType) Param { return Param{Name: name, Type: t} }
func opt(name string, t ArgType) Param { return Param{Name: name, Type: t, Optional: true} }

var (
	comparatorTag = TagSpec{Name: "comparator", Value: ArgString, Group: "comparator"}

	matchTypeTags = []TagSpec{
		{Name: "is", Group: "match"},
		{Name: "contains", Group: "match"},
		{Name: "matches", Group: "match"},
		{Name: "regex", Group: "match", Extension: "regex"},
		{Name: "value", Value: ArgString, Group: "match", Extension: "relational"},
		{Name: "count", Value: ArgString, Group: "match", Extension: "relational"},
	}

	addressPartTags = []TagSpec{
		{Name: "all", Group: "address-part"},
		{Name: "localpart", Group: "address-part"},
		{Name: "domain", Group: "address-part"},
		{Name: "user", Group: "address-part", Extension: "subaddress"},
		{Name: "detail", Group: "address-part", Extension: "subaddress"},
	}

	indexTags = []TagSpec{
		{Name: "index", Value: ArgNumber, Extension: "index"},
		{Name: "last", Extension: "index"},
	}

	mimeTags = []TagSpec{
		{Name: "mime", Extension: "mime"},
		{Name: "anychild", Extension: "mime"},
		{Name: "type", Group: "mime-option", Extension: "mime"},
		{Name: "subtype", Group: "mime-option", Extension: "mime"},
		{Name: "contenttype", Group: "mime-option", Extension: "mime"},
		{Name: "param", Value: ArgStringList, Group: "mime-option", Extension: "mime"},
	}
)

// matchTags returns the comparator and match-type tags followed by extra.
func matchTags(extra ...[]TagSpec) []TagSpec {
	out := append([]TagSpec{comparatorTag}, matchTypeTags...)
	for _, e := range extra {
		out = append(out, e...)
	}
	return out
}

var defaultRegistry = sync.OnceValue(buildDefault)

// Default returns the registry covering RFC 5228 and the extensions commonly
// offered by ManageSieve servers. The returned value is shared and must be
// treated as read-only.
func Default() *Registry {
	return defaultRegistry()
}

func buildDefault() *Registry {
	b := New("default")

	b.Extension("fileinto", "RFC 5228", "file messages into a mailbox").
		Extension("envelope", "RFC 5228", "test SMTP envelope addresses").
		Extension("encoded-character", "RFC 5228", "${hex:} and ${unicode:} in strings").
		Extension("comparator-i;octet", "RFC 4790", "octet comparator").
		Extension("comparator-i;ascii-casemap", "RFC 4790", "ASCII case-insensitive comparator").
		Extension("comparator-i;ascii-numeric", "RFC 4790", "ASCII numeric comparator").
		Extension("comparator-i;unicode-casemap", "RFC 5051", "Unicode case-insensitive comparator").
		Extension("imap4flags", "RFC 5232", "IMAP flag manipulation").
		Extension("variables", "RFC 5229", "variables and string test").
		Extension("relational", "RFC 5231", "relational match types").
		Extension("vacation", "RFC 5230", "vacation auto-responder").
		Extension("vacation-seconds", "RFC 6131", "vacation periods in seconds").
		Extension("copy", "RFC 3894", "keep a copy when redirecting or filing").
		Extension("regex", "draft-murchison-sieve-regex", "regular expression match type").
		Extension("body", "RFC 5173", "test the message body").
		Extension("subaddress", "RFC 5233", "user and detail address parts").
		Extension("reject", "RFC 5429", "refuse delivery with a message").
		Extension("ereject", "RFC 5429", "refuse delivery at the SMTP level").
		Extension("include", "RFC 6609", "include other scripts").
		Extension("mailbox", "RFC 5490", "mailbox existence and creation").
		Extension("date", "RFC 5260", "date and currentdate tests").
		Extension("index", "RFC 5260", "select header occurrences by index").
		Extension("editheader", "RFC 5293", "add and delete header fields").
		Extension("enotify", "RFC 5435", "notifications").
		Extension("duplicate", "RFC 7352", "detect duplicate deliveries").
		Extension("spamtest", "RFC 5235", "spam score test").
		Extension("spamtestplus", "RFC 5235", "percentage spam score").
		Extension("virustest", "RFC 5235", "virus score test").
		Extension("environment", "RFC 5183", "test the execution environment").
		Extension("mime", "RFC 5703", "MIME part tests")

	// Control commands
	b.Command(Spec{Name: "require", Kind: ast.KindRequire, Params: []Param{req("capabilities", ArgStringList)},
		Description: "declare the extensions a script uses"}).
		Command(Spec{Name: "if", Kind: ast.KindIf, Test: SingleTest, Block: true, Description: "run a block when the test holds"}).
		Command(Spec{Name: "elsif", Kind: ast.KindElsif, Test: SingleTest, Block: true, Description: "alternative branch of if"}).
		Command(Spec{Name: "else", Kind: ast.KindElse, Block: true, Description: "final branch of if"}).
		Command(Spec{Name: "stop", Kind: ast.KindStop, Description: "end processing"}).
		Command(Spec{Name: "include", Kind: ast.KindInclude, Extension: "include",
			Params: []Param{req("script", ArgString)},
			Tags: []TagSpec{
				{Name: "personal", Group: "location"},
				{Name: "global", Group: "location"},
				{Name: "once"},
				{Name: "optional"},
			},
			Description: "run another script"}).
		Command(Spec{Name: "return", Kind: ast.KindReturn, Extension: "include", Description: "leave an included script"}).
		Command(Spec{Name: "global", Kind: ast.KindGlobal, Extension: "include",
			Params: []Param{req("names", ArgStringList)}, Description: "share variables with included scripts"})

	// Actions
	b.Command(Spec{Name: "keep", Kind: ast.KindKeep, Description: "file into the default mailbox"}).
		Command(Spec{Name: "discard", Kind: ast.KindDiscard, Description: "silently drop the message"}).
		Command(Spec{Name: "redirect", Kind: ast.KindRedirect, Params: []Param{req("address", ArgString)},
			Description: "forward to another address"}).
		Command(Spec{Name: "fileinto", Kind: ast.KindFileinto, Extension: "fileinto",
			Params: []Param{req("mailbox", ArgString)}, Description: "file into a mailbox"}).
		Command(Spec{Name: "reject", Kind: ast.KindReject, Extension: "reject",
			Params: []Param{req("reason", ArgString)}, Description: "refuse the message with a reason"}).
		Command(Spec{Name: "ereject", Kind: ast.KindEreject, Extension: "ereject",
			Params: []Param{req("reason", ArgString)}, Description: "refuse the message during SMTP"}).
		Command(Spec{Name: "vacation", Kind: ast.KindVacation, Extension: "vacation",
			Params: []Param{req("reason", ArgString)},
			Tags: []TagSpec{
				{Name: "days", Value: ArgNumber, Group: "period"},
				{Name: "seconds", Value: ArgNumber, Group: "period", Extension: "vacation-seconds"},
				{Name: "subject", Value: ArgString},
				{Name: "from", Value: ArgString},
				{Name: "addresses", Value: ArgStringList},
				{Name: "mime"},
				{Name: "handle", Value: ArgString},
			},
			Description: "send an auto-reply"}).
		Command(Spec{Name: "setflag", Kind: ast.KindSetflag, Extension: "imap4flags",
			Params: []Param{opt("variable", ArgString), req("flags", ArgStringList)}, Description: "replace the flag set"}).
		Command(Spec{Name: "addflag", Kind: ast.KindAddflag, Extension: "imap4flags",
			Params: []Param{opt("variable", ArgString), req("flags", ArgStringList)}, Description: "add flags"}).
		Command(Spec{Name: "removeflag", Kind: ast.KindRemoveflag, Extension: "imap4flags",
			Params: []Param{opt("variable", ArgString), req("flags", ArgStringList)}, Description: "remove flags"}).
		Command(Spec{Name: "set", Kind: ast.KindSet, Extension: "variables",
			Params: []Param{req("name", ArgString), req("value", ArgString)},
			Tags: []TagSpec{
				{Name: "lower", Group: "case"},
				{Name: "upper", Group: "case"},
				{Name: "lowerfirst", Group: "case-first"},
				{Name: "upperfirst", Group: "case-first"},
				{Name: "quotewildcard"},
				{Name: "quoteregex", Extension: "regex"},
				{Name: "length"},
			},
			Description: "assign a variable"}).
		Command(Spec{Name: "notify", Kind: ast.KindNotify, Extension: "enotify",
			Params: []Param{req("method", ArgString)},
			Tags: []TagSpec{
				{Name: "from", Value: ArgString},
				{Name: "importance", Value: ArgString},
				{Name: "options", Value: ArgStringList},
				{Name: "message", Value: ArgString},
			},
			Description: "send a notification"}).
		Command(Spec{Name: "addheader", Kind: ast.KindAddheader, Extension: "editheader",
			Params: []Param{req("field", ArgString), req("value", ArgString)},
			Tags:   []TagSpec{{Name: "last"}}, Description: "add a header field"}).
		Command(Spec{Name: "deleteheader", Kind: ast.KindDeleteheader, Extension: "editheader",
			Params: []Param{req("field", ArgString), opt("patterns", ArgStringList)},
			Tags: matchTags([]TagSpec{
				{Name: "index", Value: ArgNumber},
				{Name: "last"},
			}),
			Description: "delete header fields"})

	// Tests
	b.Test(Spec{Name: "address", Kind: ast.KindAddress,
		Params: []Param{req("headers", ArgStringList), req("keys", ArgStringList)},
		Tags:   matchTags(addressPartTags, indexTags, mimeTags), Description: "compare addresses in headers"}).
		Test(Spec{Name: "envelope", Kind: ast.KindEnvelope, Extension: "envelope",
			Params: []Param{req("parts", ArgStringList), req("keys", ArgStringList)},
			Tags:   matchTags(addressPartTags), Description: "compare envelope addresses"}).
		Test(Spec{Name: "header", Kind: ast.KindHeader,
			Params: []Param{req("headers", ArgStringList), req("keys", ArgStringList)},
			Tags:   matchTags(indexTags, mimeTags), Description: "compare header values"}).
		Test(Spec{Name: "size", Kind: ast.KindSize, Params: []Param{},
			Tags: []TagSpec{
				{Name: "over", Value: ArgNumber, Group: "size"},
				{Name: "under", Value: ArgNumber, Group: "size"},
			},
			RequiredGroup: "size", Description: "compare the message size"}).
		Test(Spec{Name: "exists", Kind: ast.KindExists, Params: []Param{req("headers", ArgStringList)},
			Tags: mimeTags, Description: "check that headers exist"}).
		Test(Spec{Name: "true", Kind: ast.KindTrue, Description: "always true"}).
		Test(Spec{Name: "false", Kind: ast.KindFalse, Description: "always false"}).
		Test(Spec{Name: "not", Kind: ast.KindNot, Test: SingleTest, Description: "negate a test"}).
		Test(Spec{Name: "anyof", Kind: ast.KindAnyof, Test: TestList, Description: "true when any test holds"}).
		Test(Spec{Name: "allof", Kind: ast.KindAllof, Test: TestList, Description: "true when all tests hold"}).
		Test(Spec{Name: "body", Kind: ast.KindBody, Extension: "body",
			Params: []Param{req("keys", ArgStringList)},
			Tags: matchTags([]TagSpec{
				{Name: "raw", Group: "transform"},
				{Name: "content", Value: ArgStringList, Group: "transform"},
				{Name: "text", Group: "transform"},
			}),
			Description: "compare the message body"}).
		Test(Spec{Name: "date", Kind: ast.KindDate, Extension: "date",
			Params: []Param{req("header", ArgString), req("part", ArgString), req("keys", ArgStringList)},
			Tags: matchTags(indexTags, []TagSpec{
				{Name: "zone", Value: ArgString, Group: "zone"},
				{Name: "originalzone", Group: "zone"},
			}),
			Description: "compare a date header"}).
		Test(Spec{Name: "currentdate", Kind: ast.KindCurrentdate, Extension: "date",
			Params: []Param{req("part", ArgString), req("keys", ArgStringList)},
			Tags:   matchTags([]TagSpec{{Name: "zone", Value: ArgString}}), Description: "compare the current date"}).
		Test(Spec{Name: "string", Kind: ast.KindString, Extension: "variables",
			Params: []Param{req("source", ArgStringList), req("keys", ArgStringList)},
			Tags:   matchTags(), Description: "compare strings"}).
		Test(Spec{Name: "hasflag", Kind: ast.KindHasflag, Extension: "imap4flags",
			Params: []Param{opt("variables", ArgStringList), req("flags", ArgStringList)},
			Tags:   matchTags(), Description: "test message flags"}).
		Test(Spec{Name: "duplicate", Kind: ast.KindDuplicate, Extension: "duplicate",
			Tags: []TagSpec{
				{Name: "handle", Value: ArgString},
				{Name: "header", Value: ArgString, Group: "key"},
				{Name: "uniqueid", Value: ArgString, Group: "key"},
				{Name: "seconds", Value: ArgNumber},
				{Name: "last"},
			},
			Description: "detect repeated deliveries"}).
		Test(Spec{Name: "spamtest", Kind: ast.KindSpamtest, Extension: "spamtest",
			Params: []Param{req("value", ArgString)},
			Tags:   matchTags([]TagSpec{{Name: "percent", Extension: "spamtestplus"}}), Description: "compare the spam score"}).
		Test(Spec{Name: "virustest", Kind: ast.KindVirustest, Extension: "virustest",
			Params: []Param{req("value", ArgString)},
			Tags:   matchTags(), Description: "compare the virus score"}).
		Test(Spec{Name: "mailboxexists", Kind: ast.KindMailboxexists, Extension: "mailbox",
			Params: []Param{req("mailboxes", ArgStringList)}, Description: "check that mailboxes exist"}).
		Test(Spec{Name: "valid_notify_method", Kind: ast.KindValidNotifyMethod, Extension: "enotify",
			Params: []Param{req("uris", ArgStringList)}, Description: "check notification URIs"}).
		Test(Spec{Name: "notify_method_capability", Kind: ast.KindNotifyMethodCapability, Extension: "enotify",
			Params: []Param{req("uri", ArgString), req("capability", ArgString), req("keys", ArgStringList)},
			Tags:   matchTags(), Description: "query a notification method"}).
		Test(Spec{Name: "environment", Kind: ast.KindEnvironment, Extension: "environment",
			Params: []Param{req("name", ArgString), req("keys", ArgStringList)},
			Tags:   matchTags(), Description: "compare an environment item"})

	// Tags contributed to base commands by extensions
	b.AddTags("redirect", TagSpec{Name: "copy", Extension: "copy"}).
		AddTags("fileinto",
			TagSpec{Name: "copy", Extension: "copy"},
			TagSpec{Name: "flags", Value: ArgStringList, Extension: "imap4flags"},
			TagSpec{Name: "create", Extension: "mailbox"}).
		AddTags("keep", TagSpec{Name: "flags", Value: ArgStringList, Extension: "imap4flags"})

	return b.Build()
}
