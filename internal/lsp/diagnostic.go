package lsp

import (
	"errors"

	"github.com/leapstack-labs/leapsieve/pkg/ast"
	"github.com/leapstack-labs/leapsieve/pkg/parser"
	"github.com/leapstack-labs/leapsieve/pkg/sieve"
	"github.com/leapstack-labs/leapsieve/pkg/validate"
)

const diagnosticSource = "leapsieve"

// Codes of diagnostics that do not come from the validator.
const (
	codeSyntaxError   = "syntax-error"
	codeLimitExceeded = "limit-exceeded"
)

// publishDiagnostics parses and validates the document and publishes the
// result. Diagnostics for a document are always replaced as a whole.
func (s *Server) publishDiagnostics(uri string) {
	doc := s.documents.Get(uri)
	if doc == nil {
		return
	}

	diagnostics, _ := s.diagnose(doc)
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Version:     doc.Version,
		Diagnostics: diagnostics,
	})
}

// diagnose returns the LSP diagnostics of doc and its parsed script, which
// is nil when parsing failed.
func (s *Server) diagnose(doc *Document) ([]Diagnostic, *ast.Script) {
	diagnostics := []Diagnostic{}

	script, errs, err := sieve.Check(doc.Content, s.options())
	if err != nil {
		return append(diagnostics, parseErrorToDiagnostic(doc, err)), nil
	}

	for _, e := range errs {
		diagnostics = append(diagnostics, validationToDiagnostic(doc, e))
	}
	return diagnostics, script
}

func parseErrorToDiagnostic(doc *Document, err error) Diagnostic {
	d := Diagnostic{
		Severity: DiagnosticSeverityError,
		Source:   diagnosticSource,
		Message:  err.Error(),
	}

	var syn *parser.SyntaxError
	var lim *parser.LimitError
	switch {
	case errors.As(err, &syn):
		d.Code = codeSyntaxError
		d.Message = syn.Message
		d.Range = doc.TokenRange(syn.Pos)
	case errors.As(err, &lim):
		d.Code = codeLimitExceeded
		d.Range = doc.TokenRange(lim.Pos)
	}
	return d
}

func validationToDiagnostic(doc *Document, e validate.Error) Diagnostic {
	d := Diagnostic{
		Range:    doc.TokenRange(e.Pos),
		Severity: DiagnosticSeverityError,
		Code:     string(e.Kind),
		Source:   diagnosticSource,
		Message:  e.Detail,
	}
	if e.Kind == validate.MissingCapability {
		d.Data = e.Extension
	}
	return d
}
