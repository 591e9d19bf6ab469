package ast

import (
	"strings"

	"github.com/leapstack-labs/leapsieve/pkg/token"
)

const rulePrefix = "rule:["

// RuleName returns the name given to the command by a leading
// "# rule:[name]" comment, as written by webmail filter editors.
func (c *Command) RuleName() string {
	for _, cm := range c.LeadingComments {
		if name, ok := parseRuleComment(cm); ok {
			return name
		}
	}
	return ""
}

// SetRuleName replaces the command's rule comment. An empty name removes it.
func (c *Command) SetRuleName(name string) {
	kept := c.LeadingComments[:0:0]
	for _, cm := range c.LeadingComments {
		if _, ok := parseRuleComment(cm); !ok {
			kept = append(kept, cm)
		}
	}
	if name != "" {
		kept = append([]*token.Comment{token.NewHashComment(rulePrefix + name + "]")}, kept...)
	}
	c.LeadingComments = kept
}

func parseRuleComment(c *token.Comment) (string, bool) {
	if c == nil || !c.IsHashComment() {
		return "", false
	}
	body := c.Body()
	if !strings.HasPrefix(body, rulePrefix) || !strings.HasSuffix(body, "]") {
		return "", false
	}
	return body[len(rulePrefix) : len(body)-1], true
}
