package lsp

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/leapsieve/pkg/format"
	"github.com/leapstack-labs/leapsieve/pkg/validate"
)

// handleCodeAction handles the textDocument/codeAction request.
func (s *Server) handleCodeAction(msg *JSONRPCMessage) error {
	var params CodeActionParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	s.sendResponse(msg.ID, s.getCodeActions(params), nil)
	return nil
}

// getCodeActions offers to require the extensions named by the
// missing-capability diagnostics in the request.
func (s *Server) getCodeActions(params CodeActionParams) []CodeAction {
	actions := []CodeAction{}

	if len(params.Context.Only) > 0 && !containsKind(params.Context.Only, CodeActionKindQuickFix) {
		return actions
	}

	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return actions
	}

	byExt := make(map[string][]Diagnostic)
	for _, diag := range params.Context.Diagnostics {
		if diag.Code != string(validate.MissingCapability) || diag.Data == "" {
			continue
		}
		byExt[diag.Data] = append(byExt[diag.Data], diag)
	}
	exts := make([]string, 0, len(byExt))
	for ext := range byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	for _, ext := range exts {
		edit, err := s.requireEdit(doc, ext)
		if err != nil {
			s.logger.Debug("require fix unavailable", "extension", ext, "error", err)
			continue
		}
		actions = append(actions, CodeAction{
			Title:       fmt.Sprintf("Require %q", ext),
			Kind:        CodeActionKindQuickFix,
			Diagnostics: byExt[ext],
			IsPreferred: len(exts) == 1,
			Edit: &WorkspaceEdit{
				Changes: map[string][]TextEdit{doc.URI: {edit}},
			},
		})
	}

	if len(exts) > 1 {
		if edit, err := s.requireEdit(doc, exts...); err == nil {
			var all []Diagnostic
			for _, ext := range exts {
				all = append(all, byExt[ext]...)
			}
			actions = append(actions, CodeAction{
				Title:       "Require all missing extensions",
				Kind:        CodeActionKindQuickFix,
				Diagnostics: all,
				IsPreferred: true,
				Edit: &WorkspaceEdit{
					Changes: map[string][]TextEdit{doc.URI: {edit}},
				},
			})
		}
	}

	return actions
}

// requireEdit adds exts to the script's require list and returns the
// rewritten document as a single edit.
func (s *Server) requireEdit(doc *Document, exts ...string) (TextEdit, error) {
	opts := s.options()
	_, script := s.diagnose(doc)
	if script == nil {
		return TextEdit{}, fmt.Errorf("document does not parse")
	}
	if err := script.Require(exts...); err != nil {
		return TextEdit{}, err
	}
	return TextEdit{
		Range:   doc.FullRange(),
		NewText: format.Format(script, opts.Format),
	}, nil
}

func containsKind(kinds []CodeActionKind, want CodeActionKind) bool {
	for _, k := range kinds {
		if k == want {
			return true
		}
	}
	return false
}
