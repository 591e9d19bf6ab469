package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapsieve/pkg/ast"
	"github.com/leapstack-labs/leapsieve/pkg/format"
	"github.com/leapstack-labs/leapsieve/pkg/sieve"
	"github.com/leapstack-labs/leapsieve/pkg/validate"
)

// FileResult is the outcome of checking one script.
type FileResult struct {
	Path   string
	Hash   string
	Source string
	Script *ast.Script

	// Err is set when the file could not be read or decoded.
	Err error
	// SyntaxErr is set when the script does not parse.
	SyntaxErr error
	// Diagnostics lists validation problems of a script that parsed.
	Diagnostics []validate.Error
}

// OK reports whether the script was read, parsed and validated cleanly.
func (r *FileResult) OK() bool {
	return r.Err == nil && r.SyntaxErr == nil && len(r.Diagnostics) == 0
}

// Issues counts the problems found in the file.
func (r *FileResult) Issues() int {
	if r.Err != nil || r.SyntaxErr != nil {
		return 1
	}
	return len(r.Diagnostics)
}

// CheckSummary aggregates a set of results.
type CheckSummary struct {
	Files        int
	Valid        int
	Invalid      int
	SyntaxErrors int
	Diagnostics  int
	Duration     time.Duration
}

// Summarize aggregates results.
func Summarize(results []FileResult) CheckSummary {
	s := CheckSummary{Files: len(results)}
	for i := range results {
		r := &results[i]
		switch {
		case r.OK():
			s.Valid++
		default:
			s.Invalid++
		}
		if r.Err != nil || r.SyntaxErr != nil {
			s.SyntaxErrors++
		}
		s.Diagnostics += len(r.Diagnostics)
	}
	return s
}

// ReadScript reads path and decodes it from the configured charset.
func (e *Engine) ReadScript(path string) (string, []byte, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: path comes from discovery or the command line
	if err != nil {
		return "", nil, err
	}
	text, err := format.Decode(raw, e.opts.Format.Charset)
	if err != nil {
		return "", raw, fmt.Errorf("%s: %w", path, err)
	}
	return text, raw, nil
}

// CheckFile reads, parses and validates one file.
func (e *Engine) CheckFile(path string) FileResult {
	text, raw, err := e.ReadScript(path)
	if err != nil {
		e.logger.Debug("read failed", "path", path, "error", err.Error())
		return FileResult{Path: path, Err: err}
	}
	res := e.CheckSource(path, text)
	res.Hash = computeHash(raw)
	return res
}

// CheckSource parses and validates src, naming it path in the result.
func (e *Engine) CheckSource(path, src string) FileResult {
	res := FileResult{Path: path, Source: src}
	script, diags, err := sieve.Check(src, e.opts)
	if err != nil {
		e.logger.Debug("parse error", "path", path, "error", err.Error())
		res.SyntaxErr = err
		return res
	}
	res.Script = script
	res.Diagnostics = diags
	e.logger.Debug("checked script", "path", path, "diagnostics", len(diags))
	return res
}

// Check checks files concurrently. Results are returned in the order of
// files. Per-file failures are reported in the results; the error is only
// set when ctx is cancelled.
func (e *Engine) Check(ctx context.Context, files []string) ([]FileResult, error) {
	start := time.Now()
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.CheckFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Info("check completed",
		"files", len(files),
		"duration_ms", time.Since(start).Milliseconds())

	return results, nil
}
