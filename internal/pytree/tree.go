// Package pytree builds a span-tagged node model for one Python source
// file on top of the tree-sitter parser.
package pytree

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Tree is one file's snapshot plus its parsed node model. After any
// rewrite of the file the tree must be reloaded before further use; node
// identity does not survive a reload.
type Tree struct {
	Snapshot *FileSnapshot
	Root     *Node
}

// Load reads and parses path into a fresh tree.
func Load(path string) (*Tree, error) {
	t := &Tree{}
	if err := t.load(path); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload rebuilds the whole tree from disk. Every previously obtained
// node of this tree is stale afterwards.
func (t *Tree) Reload() error {
	return t.load(t.Snapshot.Path)
}

func (t *Tree) load(path string) error {
	snap, err := LoadSnapshot(path)
	if err != nil {
		return err
	}
	src := []byte(snap.Content())

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	raw, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return fmt.Errorf("failed to parse file %s: %w", path, err)
	}
	defer raw.Close()

	root, err := buildRoot(snap, src, raw.RootNode())
	if err != nil {
		return err
	}

	t.Snapshot = snap
	t.Root = root
	return nil
}

// Walk returns every node of the tree in source order, root first. The
// sequence is rebuilt on every call.
func (t *Tree) Walk() []*Node {
	return t.Root.Walk()
}

// Render prints the tree as an indented outline for the --print-tree
// diagnostic.
func (t *Tree) Render() string {
	var b strings.Builder
	b.WriteString(t.Snapshot.Path + "\n")
	renderNodes(&b, t.Root.Children, 1)
	return b.String()
}

func renderNodes(b *strings.Builder, nodes []*Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		fmt.Fprintf(b, "%s%s\n", indent, n.Label())
		renderNodes(b, n.Children, depth+1)
		if len(n.Else) > 0 {
			fmt.Fprintf(b, "%selse:\n", indent)
			renderNodes(b, n.Else, depth+1)
		}
	}
}
