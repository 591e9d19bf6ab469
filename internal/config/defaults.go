package config

import (
	"strings"

	"github.com/leapstack-labs/leapsieve/pkg/format"
	"github.com/leapstack-labs/leapsieve/pkg/parser"
)

// Default configuration values.
const (
	DefaultIndent    = "\t"
	DefaultCharset   = "utf-8"
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// ApplyDefaults fills unset values of a ProjectConfig.
func (c *ProjectConfig) ApplyDefaults() {
	if c == nil {
		return
	}
	if c.Format.LineEnding == "" {
		c.Format.LineEnding = LineEnding(format.LF)
	}
	if c.Format.Indent == "" {
		c.Format.Indent = DefaultIndent
	}
	if c.Format.MultilineThreshold == 0 {
		c.Format.MultilineThreshold = format.DefaultMultilineThreshold
	}
	if c.Format.Charset == "" {
		c.Format.Charset = DefaultCharset
	}
	if c.Parse.MaxDepth == 0 {
		c.Parse.MaxDepth = parser.DefaultMaxDepth
	}
	c.Server.Capabilities = SplitCapabilities(c.Server.Capabilities)
}

// SplitCapabilities normalizes a capability list. Entries may themselves be
// space or comma separated, as in a ManageSieve SIEVE response.
func SplitCapabilities(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, entry := range in {
		for _, name := range strings.FieldsFunc(entry, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '"'
		}) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
