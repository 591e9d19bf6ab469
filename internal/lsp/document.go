package lsp

import (
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapsieve/pkg/token"
)

// Document represents an open script in the editor.
type Document struct {
	URI     string // Document URI (file:///path/to/inbox.sieve)
	Content string // Full document content
	Version int    // Version number, incremented on each change
	Lines   []int  // Byte offsets of line starts for fast position lookups
}

// DocumentStore manages open documents in memory.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*Document
}

// NewDocumentStore creates a new document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*Document),
	}
}

// Open adds or replaces a document.
func (s *DocumentStore) Open(uri string, content string, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents[uri] = newDocument(uri, content, version)
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.documents, uri)
}

// Get returns a snapshot of the document, or nil.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.documents[uri]
}

// Update replaces the content of an open document. Stale versions are
// ignored.
func (s *DocumentStore) Update(uri string, content string, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, ok := s.documents[uri]; ok && version >= doc.Version {
		// documents are replaced, not mutated, so snapshots handed out by
		// Get stay consistent
		s.documents[uri] = newDocument(uri, content, version)
	}
}

// List returns all open document URIs.
func (s *DocumentStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uris := make([]string, 0, len(s.documents))
	for uri := range s.documents {
		uris = append(uris, uri)
	}
	return uris
}

func newDocument(uri, content string, version int) *Document {
	return &Document{
		URI:     uri,
		Content: content,
		Version: version,
		Lines:   computeLineOffsets(content),
	}
}

// computeLineOffsets calculates byte offsets for each line start.
func computeLineOffsets(content string) []int {
	offsets := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// PositionToOffset converts a Position to a byte offset in the document.
func (d *Document) PositionToOffset(pos Position) int {
	if d == nil || len(d.Lines) == 0 {
		return 0
	}

	line := int(pos.Line)
	if line >= len(d.Lines) {
		return len(d.Content)
	}

	offset := d.Lines[line] + int(pos.Character)
	if offset > len(d.Content) {
		return len(d.Content)
	}
	return offset
}

// OffsetToPosition converts a byte offset to a Position.
func (d *Document) OffsetToPosition(offset int) Position {
	if d == nil || len(d.Lines) == 0 {
		return Position{}
	}
	offset = max(0, min(offset, len(d.Content)))

	line := sort.SearchInts(d.Lines, offset+1) - 1

	return Position{
		Line:      uint32(line),                   //nolint:gosec // G115: line index is non-negative
		Character: uint32(offset - d.Lines[line]), //nolint:gosec // G115: offset is past the line start
	}
}

// End returns the position just past the last character.
func (d *Document) End() Position {
	return d.OffsetToPosition(len(d.Content))
}

// FullRange covers the whole document.
func (d *Document) FullRange() Range {
	return Range{Start: Position{}, End: d.End()}
}

// TokenRange converts a parser position to a range covering the word that
// starts there.
func (d *Document) TokenRange(p token.Position) Range {
	start := Position{
		Line:      uint32(max(0, p.Line-1)),   //nolint:gosec // G115: clamped to non-negative
		Character: uint32(max(0, p.Column-1)), //nolint:gosec // G115: clamped to non-negative
	}
	end := start
	offset := d.PositionToOffset(start)
	for i := offset; i < len(d.Content) && isWordChar(d.Content[i]); i++ {
		end.Character++
	}
	if end == start && offset < len(d.Content) && d.Content[offset] != '\n' {
		end.Character++
	}
	return Range{Start: start, End: end}
}

// GetLine returns the content of a specific line.
func (d *Document) GetLine(line int) string {
	if d == nil || line < 0 || line >= len(d.Lines) {
		return ""
	}

	start := d.Lines[line]
	end := len(d.Content)
	if line+1 < len(d.Lines) {
		end = max(start, d.Lines[line+1]-1)
	}
	return strings.TrimSuffix(d.Content[start:end], "\r")
}

// GetTextBefore returns the text of the current line before pos.
func (d *Document) GetTextBefore(pos Position) string {
	line := d.GetLine(int(pos.Line))
	return line[:min(int(pos.Character), len(line))]
}

// GetWordAtPosition returns the word at the given position and its range.
// Words include a leading ':' so tags are found whole.
func (d *Document) GetWordAtPosition(pos Position) (string, Range) {
	offset := d.PositionToOffset(pos)

	start := offset
	for start > 0 && isWordChar(d.Content[start-1]) {
		start--
	}
	if start > 0 && d.Content[start-1] == ':' {
		start--
	}

	end := offset
	for end < len(d.Content) && isWordChar(d.Content[end]) {
		end++
	}

	if start == end {
		return "", Range{Start: pos, End: pos}
	}
	return d.Content[start:end], Range{
		Start: d.OffsetToPosition(start),
		End:   d.OffsetToPosition(end),
	}
}

// isWordChar reports whether c can appear in a Sieve identifier.
func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}

// URIToPath converts a file:// URI to a file system path.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return strings.TrimPrefix(uri, "file://")
	}
	return filepath.FromSlash(u.Path)
}

// PathToURI converts a file system path to a file:// URI.
func PathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
