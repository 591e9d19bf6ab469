package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DiscoveryResult lists the script files found under a set of paths.
type DiscoveryResult struct {
	Files []string

	// Errors (non-fatal)
	Errors []DiscoveryError

	Duration time.Duration
}

// DiscoveryError represents a non-fatal error during discovery.
type DiscoveryError struct {
	Path    string
	Type    string // "stat", "walk"
	Message string
}

func (e DiscoveryError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Type, e.Message)
}

// HasErrors returns true if any errors occurred.
func (r *DiscoveryResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Summary returns a human-readable summary.
func (r *DiscoveryResult) Summary() string {
	return fmt.Sprintf("Scripts: %d found, %d errors | Duration: %s",
		len(r.Files), len(r.Errors), r.Duration.Round(time.Millisecond))
}

// Discover expands paths into script files. A path naming a file is taken
// as is, whatever its extension. Directories are walked recursively for
// files with a script extension, skipping hidden directories. The result
// is sorted and free of duplicates.
func (e *Engine) Discover(paths []string) *DiscoveryResult {
	start := time.Now()
	result := &DiscoveryResult{}
	seen := make(map[string]bool)

	add := func(path string) {
		path = filepath.Clean(path)
		if seen[path] {
			return
		}
		seen[path] = true
		result.Files = append(result.Files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			result.Errors = append(result.Errors, DiscoveryError{Path: root, Type: "stat", Message: err.Error()})
			continue
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		e.logger.Debug("discovering scripts", "dir", root)
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				result.Errors = append(result.Errors, DiscoveryError{Path: path, Type: "walk", Message: walkErr.Error()})
				return nil
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if e.isScript(d.Name()) {
				add(path)
			}
			return nil
		})
		if err != nil {
			result.Errors = append(result.Errors, DiscoveryError{Path: root, Type: "walk", Message: err.Error()})
		}
	}

	sort.Strings(result.Files)
	result.Duration = time.Since(start)

	e.logger.Debug("discovery completed",
		"files", len(result.Files),
		"errors", len(result.Errors),
		"duration_ms", result.Duration.Milliseconds())

	return result
}

// Changed records the content hash of path and reports whether it differs
// from the one seen last. A path seen for the first time counts as changed.
func (e *Engine) Changed(path string, content []byte) bool {
	hash := computeHash(content)

	e.hashMu.Lock()
	defer e.hashMu.Unlock()

	if e.hashes[path] == hash {
		return false
	}
	e.hashes[path] = hash
	return true
}

// computeHash returns the hex-encoded SHA-256 of content.
func computeHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
