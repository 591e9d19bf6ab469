package lsp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapsieve/pkg/capability"
	"github.com/leapstack-labs/leapsieve/pkg/format"
)

// completionContext is what the cursor is in the middle of.
type completionContext int

const (
	contextCommand completionContext = iota
	contextTest
	contextTag
	contextRequire
)

// getCompletions returns completion items for the given position.
func (s *Server) getCompletions(params CompletionParams) []CompletionItem {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return []CompletionItem{}
	}

	before := doc.GetTextBefore(params.Position)
	ctx, stmt, prefix := detectContext(before)
	reg := s.registry()

	switch ctx {
	case contextRequire:
		return s.extensionItems(reg, prefix)
	case contextTag:
		return tagItems(reg, stmt, prefix)
	case contextTest:
		return specItems(reg.Tests(), prefix, CompletionItemKindFunction)
	default:
		return specItems(reg.Commands(), prefix, CompletionItemKindKeyword)
	}
}

// detectContext classifies the text of the current line before the cursor.
// It returns the statement so far and the partial word being typed.
func detectContext(before string) (completionContext, string, string) {
	stmt := before[strings.LastIndexAny(before, ";{}")+1:]
	trimmed := strings.TrimLeft(stmt, " \t")

	if strings.HasPrefix(strings.ToLower(trimmed), "require") && strings.Count(stmt, `"`)%2 == 1 {
		return contextRequire, stmt, stmt[strings.LastIndex(stmt, `"`)+1:]
	}

	i := len(before)
	for i > 0 && isWordChar(before[i-1]) {
		i--
	}
	prefix := before[i:]

	if i > 0 && before[i-1] == ':' {
		return contextTag, stmt, prefix
	}
	if strings.TrimSpace(strings.TrimSuffix(trimmed, prefix)) == "" {
		return contextCommand, stmt, prefix
	}
	return contextTest, stmt, prefix
}

func specItems(specs []*capability.Spec, prefix string, kind CompletionItemKind) []CompletionItem {
	items := []CompletionItem{}
	for _, spec := range specs {
		if !strings.HasPrefix(spec.Name, strings.ToLower(prefix)) {
			continue
		}
		items = append(items, CompletionItem{
			Label:         spec.Name,
			Kind:          kind,
			Detail:        extensionDetail(spec.Extension),
			Documentation: spec.Description,
		})
	}
	return items
}

// tagItems offers the tags of the commands and tests named in stmt, or
// every known tag when none is recognized.
func tagItems(reg *capability.Registry, stmt, prefix string) []CompletionItem {
	var specs []*capability.Spec
	for _, word := range strings.FieldsFunc(stmt, func(r rune) bool {
		return r > 0x7f || !isWordChar(byte(r)) && r != ':'
	}) {
		if strings.HasPrefix(word, ":") {
			continue
		}
		if spec, ok := reg.Command(word); ok {
			specs = append(specs, spec)
		}
		if spec, ok := reg.Test(word); ok {
			specs = append(specs, spec)
		}
	}
	if len(specs) == 0 {
		specs = append(reg.Commands(), reg.Tests()...)
	}

	seen := make(map[string]bool)
	items := []CompletionItem{}
	for _, spec := range specs {
		for _, tag := range spec.Tags {
			if seen[tag.Name] || !strings.HasPrefix(tag.Name, strings.ToLower(prefix)) {
				continue
			}
			seen[tag.Name] = true
			detail := spec.Name
			if tag.Extension != "" {
				detail += ", requires " + tag.Extension
			}
			items = append(items, CompletionItem{
				Label:      ":" + tag.Name,
				Kind:       CompletionItemKindProperty,
				Detail:     detail,
				InsertText: tag.Name,
			})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

// extensionItems offers the extensions the configured server supports.
func (s *Server) extensionItems(reg *capability.Registry, prefix string) []CompletionItem {
	if server := s.options().ServerCapabilities; len(server) > 0 {
		reg = reg.Restrict(server...)
	}

	items := []CompletionItem{}
	for _, ext := range reg.Extensions() {
		if !reg.Offers(ext.Name) || !strings.HasPrefix(ext.Name, prefix) {
			continue
		}
		items = append(items, CompletionItem{
			Label:         ext.Name,
			Kind:          CompletionItemKindModule,
			Detail:        ext.RFC,
			Documentation: ext.Description,
		})
	}
	return items
}

func extensionDetail(ext string) string {
	if ext == "" {
		return "RFC 5228"
	}
	return "requires " + ext
}

// getHover describes the command, test or tag under the cursor.
func (s *Server) getHover(params HoverParams) *Hover {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return nil
	}

	word, rng := doc.GetWordAtPosition(params.Position)
	if word == "" {
		return nil
	}

	reg := s.registry()
	var text string
	if tag, ok := strings.CutPrefix(word, ":"); ok {
		text = describeTag(reg, strings.ToLower(tag))
	} else if spec, ok := reg.Command(word); ok {
		text = describeSpec(reg, spec, "command")
	} else if spec, ok := reg.Test(word); ok {
		text = describeSpec(reg, spec, "test")
	}
	if text == "" {
		return nil
	}

	return &Hover{
		Contents: MarkupContent{Kind: MarkupKindMarkdown, Value: text},
		Range:    &rng,
	}
}

func describeSpec(reg *capability.Registry, spec *capability.Spec, what string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (%s)", spec.Name, what)
	if spec.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", spec.Description)
	}
	if spec.Extension != "" {
		fmt.Fprintf(&b, "\n\nRequires `%s`", spec.Extension)
		if ext, ok := reg.Extension(spec.Extension); ok && ext.RFC != "" {
			fmt.Fprintf(&b, " (%s)", ext.RFC)
		}
	}
	if len(spec.Tags) > 0 {
		tags := make([]string, len(spec.Tags))
		for i, t := range spec.Tags {
			tags[i] = "`:" + t.Name + "`"
		}
		fmt.Fprintf(&b, "\n\nTags: %s", strings.Join(tags, ", "))
	}
	return b.String()
}

func describeTag(reg *capability.Registry, name string) string {
	var owners []string
	ext := ""
	for _, spec := range append(reg.Commands(), reg.Tests()...) {
		if tag, ok := spec.Tag(name); ok {
			owners = append(owners, "`"+spec.Name+"`")
			if tag.Extension != "" {
				ext = tag.Extension
			}
		}
	}
	if len(owners) == 0 {
		return ""
	}
	text := fmt.Sprintf("**:%s** (tag)\n\nAccepted by %s", name, strings.Join(owners, ", "))
	if ext != "" {
		text += fmt.Sprintf("\n\nRequires `%s`", ext)
	}
	return text
}

// formatDocument returns the edit that puts the document in canonical form,
// or no edit when it already is. Editor indentation settings apply only
// when no project configuration was loaded.
func (s *Server) formatDocument(params DocumentFormattingParams) ([]TextEdit, error) {
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return []TextEdit{}, nil
	}

	s.optsMu.RLock()
	opts, fromFile := s.opts, s.fromFile
	s.optsMu.RUnlock()

	_, script := s.diagnose(doc)
	if script == nil {
		return nil, fmt.Errorf("document does not parse")
	}

	fo := opts.Format
	if !fromFile && params.Options.InsertSpaces && params.Options.TabSize > 0 {
		fo.Indent = strings.Repeat(" ", params.Options.TabSize)
	}

	formatted := format.Format(script, fo)
	if formatted == doc.Content {
		return []TextEdit{}, nil
	}
	return []TextEdit{{Range: doc.FullRange(), NewText: formatted}}, nil
}
