// Package engine runs the script toolchain over files on disk.
// It discovers Sieve scripts, checks and formats them, and watches them for changes.
package engine

import (
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapsieve/pkg/sieve"
)

// DefaultExtensions are the file extensions treated as scripts during discovery.
var DefaultExtensions = []string{".sieve", ".siv"}

// Engine checks and formats script files.
type Engine struct {
	opts        sieve.Options
	logger      *slog.Logger
	extensions  []string
	concurrency int

	// content hashes of files last seen, keyed by path
	hashMu sync.Mutex
	hashes map[string]string
}

// Config holds engine configuration.
type Config struct {
	// Options controls parsing, validation and formatting.
	Options sieve.Options
	// Extensions overrides DefaultExtensions.
	Extensions []string
	// Concurrency bounds the number of files checked at once.
	// Zero means GOMAXPROCS.
	Concurrency int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	normalized := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}

	n := cfg.Concurrency
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	return &Engine{
		opts:        cfg.Options,
		logger:      logger,
		extensions:  normalized,
		concurrency: n,
		hashes:      make(map[string]string),
	}
}

// Options returns the options the engine parses and formats with.
func (e *Engine) Options() sieve.Options {
	return e.opts
}

// isScript reports whether name carries one of the script extensions.
func (e *Engine) isScript(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range e.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
