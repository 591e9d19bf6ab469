package engine

import (
	"bytes"
	"fmt"
	"os"

	"github.com/leapstack-labs/leapsieve/pkg/format"
	"github.com/leapstack-labs/leapsieve/pkg/sieve"
)

// FormatResult is the outcome of formatting one file.
type FormatResult struct {
	Path string
	// Output is the canonical text encoded in the configured charset.
	Output []byte
	// Changed is true when Output differs from the file on disk.
	Changed bool
	// Written is true when the file was rewritten.
	Written bool
}

// FormatFile formats path. With write set, a changed file is rewritten in
// place keeping its permissions. A script that does not parse is left
// untouched and returned as an error.
func (e *Engine) FormatFile(path string, write bool) (*FormatResult, error) {
	text, raw, err := e.ReadScript(path)
	if err != nil {
		return nil, err
	}

	script, err := sieve.Parse(text, e.opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := format.Write(&buf, script, e.opts.Format); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	res := &FormatResult{
		Path:    path,
		Output:  buf.Bytes(),
		Changed: !bytes.Equal(raw, buf.Bytes()),
	}
	if !write || !res.Changed {
		e.Changed(path, raw)
		return res, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, res.Output, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	res.Written = true
	e.Changed(path, res.Output)

	e.logger.Info("formatted script", "path", path)
	return res, nil
}
