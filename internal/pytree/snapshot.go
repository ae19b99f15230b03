package pytree

import (
	"fmt"
	"os"
	"strings"
)

// FileSnapshot holds one file's raw text lines as captured at parse time.
// It is never patched incrementally: a successful rewrite discards the
// snapshot wholesale and a new one is taken from disk.
type FileSnapshot struct {
	Path  string
	Lines []string

	// finalNewline records whether the original content ended with '\n',
	// so Content round-trips byte for byte.
	finalNewline bool
}

// LoadSnapshot reads path and captures its lines.
func LoadSnapshot(path string) (*FileSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return NewSnapshot(path, string(data)), nil
}

// NewSnapshot builds a snapshot from in-memory content.
func NewSnapshot(path, content string) *FileSnapshot {
	s := &FileSnapshot{Path: path}
	if content == "" {
		return s
	}
	s.finalNewline = strings.HasSuffix(content, "\n")
	if s.finalNewline {
		content = content[:len(content)-1]
	}
	s.Lines = strings.Split(content, "\n")
	return s
}

// Line returns the 1-based line i, or "" when out of range.
func (s *FileSnapshot) Line(i int) string {
	if i < 1 || i > len(s.Lines) {
		return ""
	}
	return s.Lines[i-1]
}

// SpanLines returns a copy of the lines covered by sp. An absent span
// yields nil, mirroring a node that cannot be located in the source.
func (s *FileSnapshot) SpanLines(sp Span) []string {
	if !sp.Valid() || sp.Start > len(s.Lines) {
		return nil
	}
	end := sp.End
	if end > len(s.Lines) {
		end = len(s.Lines)
	}
	out := make([]string, end-sp.Start+1)
	copy(out, s.Lines[sp.Start-1:end])
	return out
}

// Content reconstructs the exact file content the snapshot was taken from.
func (s *FileSnapshot) Content() string {
	if len(s.Lines) == 0 {
		return ""
	}
	content := strings.Join(s.Lines, "\n")
	if s.finalNewline {
		content += "\n"
	}
	return content
}
