// Package patch implements the transactional line-level editor used by
// refactoring fixes. A transaction is scoped to one file and one anchor
// node, mutates an in-memory 1-indexed line buffer, and commits by writing
// a temporary file and atomically renaming it over the original.
package patch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pystrict/internal/pytree"
)

// ErrUnpatchable signals a fix that targets a node with an absent span.
// The fix is abandoned and reported as unavailable; the run continues.
var ErrUnpatchable = errors.New("node has no usable source span")

// Tx is one open patch transaction. It always re-reads the file on Begin
// so edits never operate on a stale in-memory buffer.
type Tx struct {
	tree   *pytree.Tree
	anchor *pytree.Node

	path         string
	original     string
	lines        []string
	finalNewline bool
}

// Begin opens a transaction against tree's file, anchored at anchor.
func Begin(tree *pytree.Tree, anchor *pytree.Node) (*Tx, error) {
	path := tree.Snapshot.Path
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	original := string(data)

	tx := &Tx{
		tree:         tree,
		anchor:       anchor,
		path:         path,
		original:     original,
		finalNewline: original == "" || strings.HasSuffix(original, "\n"),
	}
	if trimmed := strings.TrimSuffix(original, "\n"); trimmed != "" {
		tx.lines = strings.Split(trimmed, "\n")
	}
	return tx, nil
}

// span resolves the effective node (nil means the anchor) and validates
// that both bounds are strictly positive.
func (tx *Tx) span(n *pytree.Node) (int, int, error) {
	if n == nil {
		n = tx.anchor
	}
	sp := n.Span
	if !sp.Valid() {
		return 0, 0, fmt.Errorf("%w (start=%d, end=%d)", ErrUnpatchable, sp.Start, sp.End)
	}
	return sp.Start, sp.End, nil
}

// Line returns the 1-based line i of the buffer.
func (tx *Tx) Line(i int) (string, error) {
	if i < 1 || i > len(tx.lines) {
		return "", fmt.Errorf("line %d out of range (1..%d)", i, len(tx.lines))
	}
	return tx.lines[i-1], nil
}

// SetLine replaces the 1-based line i of the buffer.
func (tx *Tx) SetLine(i int, line string) error {
	if i < 1 || i > len(tx.lines) {
		return fmt.Errorf("line %d out of range (1..%d)", i, len(tx.lines))
	}
	tx.lines[i-1] = line
	return nil
}

// LineCount returns the current buffer length.
func (tx *Tx) LineCount() int {
	return len(tx.lines)
}

// Remove deletes the span of n (the anchor when n is nil).
func (tx *Tx) Remove(n *pytree.Node) error {
	start, end, err := tx.span(n)
	if err != nil {
		return err
	}
	return tx.ReplaceLines(nil, start, end)
}

// Replace substitutes the span of n (the anchor when n is nil) with lines.
func (tx *Tx) Replace(lines []string, n *pytree.Node) error {
	start, end, err := tx.span(n)
	if err != nil {
		return err
	}
	return tx.ReplaceLines(lines, start, end)
}

// ReplaceLines substitutes the explicit 1-based inclusive range with lines.
func (tx *Tx) ReplaceLines(lines []string, start, end int) error {
	if start < 1 || end < 1 {
		return fmt.Errorf("%w (start=%d, end=%d)", ErrUnpatchable, start, end)
	}
	if start > len(tx.lines)+1 {
		start = len(tx.lines) + 1
	}
	if end > len(tx.lines) {
		end = len(tx.lines)
	}
	above := tx.lines[:start-1]
	var below []string
	if end < len(tx.lines) {
		below = tx.lines[end:]
	}
	buf := make([]string, 0, len(above)+len(lines)+len(below))
	buf = append(buf, above...)
	buf = append(buf, lines...)
	buf = append(buf, below...)
	tx.lines = buf
	return nil
}

// InsertAbove inserts lines before the anchor's first line. An anchor with
// the synthetic zero span inserts at position 1.
func (tx *Tx) InsertAbove(lines []string) error {
	sp := tx.anchor.Span
	if sp.Start < 0 || sp.End < 0 {
		return fmt.Errorf("%w (start=%d, end=%d)", ErrUnpatchable, sp.Start, sp.End)
	}
	start := sp.Start
	if start < 1 {
		start = 1
	}
	if start > len(tx.lines)+1 {
		start = len(tx.lines) + 1
	}
	buf := make([]string, 0, len(tx.lines)+len(lines))
	buf = append(buf, tx.lines[:start-1]...)
	buf = append(buf, lines...)
	buf = append(buf, tx.lines[start-1:]...)
	tx.lines = buf
	return nil
}

// InsertBelow inserts lines immediately after the anchor's last line.
func (tx *Tx) InsertBelow(lines []string) error {
	_, end, err := tx.span(nil)
	if err != nil {
		return err
	}
	if end > len(tx.lines) {
		end = len(tx.lines)
	}
	buf := make([]string, 0, len(tx.lines)+len(lines))
	buf = append(buf, tx.lines[:end]...)
	buf = append(buf, lines...)
	buf = append(buf, tx.lines[end:]...)
	tx.lines = buf
	return nil
}

// AppendToEnd appends two blank lines and then lines after the buffer's
// last line.
func (tx *Tx) AppendToEnd(lines []string) {
	tx.lines = append(tx.lines, "", "")
	tx.lines = append(tx.lines, lines...)
}

func (tx *Tx) render() string {
	if len(tx.lines) == 0 {
		return ""
	}
	content := strings.Join(tx.lines, "\n")
	if tx.finalNewline {
		content += "\n"
	}
	return content
}

// Commit flushes the buffer when it differs from the original content.
// The write goes to a temporary file in the same directory, which is then
// renamed over the original, and the owning tree is reloaded end to end.
// It reports whether the file changed.
func (tx *Tx) Commit() (bool, error) {
	content := tx.render()
	if content == tx.original {
		return false, nil
	}

	dir := filepath.Dir(tx.path)
	tmp, err := os.CreateTemp(dir, ".pystrict-*")
	if err != nil {
		return false, fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return false, fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, tx.path); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("failed to replace %s: %w", tx.path, err)
	}

	// The spans of every node built before this point are stale now;
	// rebuild the whole tree from disk.
	if err := tx.tree.Reload(); err != nil {
		return true, err
	}
	return true, nil
}
