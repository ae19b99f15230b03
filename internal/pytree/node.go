package pytree

import (
	"strings"
)

// EscTag is the reserved marker that attaches free-form tags to a node,
// written as a trailing comment on the node's first source line:
//
//	from lib import helper  # :~PYSTRICT~: public
const EscTag = "# :~PYSTRICT~:"

// Span locates a node in the original text, 1-based and inclusive on both
// ends. A synthetic or unlocatable node carries the zero span (0,0).
type Span struct {
	Start int
	End   int
}

// Valid reports whether both bounds are strictly positive.
func (s Span) Valid() bool {
	return s.Start > 0 && s.End > 0
}

// IsZero reports whether the span is the synthetic (0,0) span.
func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// Node is one construct of a parsed Python file. Nodes are built once per
// parse and treated as immutable; after any file rewrite the whole tree is
// rebuilt and no old Node may be reused.
type Node struct {
	Kind Kind
	Span Span

	// Children holds the node's ordered child statements or elements.
	Children []*Node
	// Else holds the secondary branch of constructs with an alternate arm
	// (if/for/while/try).
	Else []*Node

	// Tags are the marker-comment tags found on the node's first line.
	Tags []string

	// Name is the kind-specific primary name: the bound name of an alias,
	// a function/class name, the module of an import-from, the target of
	// an annotated or augmented assignment, or a call's function text.
	Name string
	// SourceName is the imported name behind an alias binding.
	SourceName string
	// Names holds an import's module names, an import-from's bound names,
	// an assignment's target renderings, or global/nonlocal names.
	Names []string
	// Value is the literal text of a constant or a comment.
	Value string
	// HasReturn reports whether a function definition carries an explicit
	// return annotation.
	HasReturn bool
	// Decorators holds the rendered decorator expressions of a definition.
	Decorators []string

	snap *FileSnapshot
}

// HasTag reports whether tag was attached via a marker comment.
func (n *Node) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Lines returns the source lines covered by the node's span, or nil for a
// node with an absent span.
func (n *Node) Lines() []string {
	return n.snap.SpanLines(n.Span)
}

// AliasRepr renders an alias the way it appears in an import list.
func (n *Node) AliasRepr() string {
	if n.SourceName == "" || n.Name == n.SourceName {
		return n.Name
	}
	return n.SourceName + " as " + n.Name
}

// Walk returns the node's subtree in source order: the node itself, then
// each child's subtree, then each else-branch child's subtree. Every call
// builds a fresh sequence, so callers may restart freely.
func (n *Node) Walk() []*Node {
	var out []*Node
	// Explicit stack instead of recursion; else-branch children are pushed
	// after the primary children so they surface last, like the original
	// traversal order.
	type frame struct {
		node    *Node
		visited bool
	}
	stack := []frame{{node: n}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.node == nil {
			continue
		}
		out = append(out, f.node)
		kids := make([]*Node, 0, len(f.node.Children)+len(f.node.Else))
		kids = append(kids, f.node.Children...)
		kids = append(kids, f.node.Else...)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: kids[i]})
		}
	}
	return out
}

// Label renders a short human-readable description for tree printing.
func (n *Node) Label() string {
	var b strings.Builder
	b.WriteString(n.Kind.String())
	switch n.Kind {
	case KindImport:
		b.WriteString(" " + strings.Join(n.Names, ", "))
	case KindImportFrom:
		b.WriteString(" " + n.Name + " -> " + strings.Join(n.Names, ", "))
	case KindAlias:
		b.WriteString(" " + n.AliasRepr())
	case KindAssign:
		return strings.Join(n.Names, ", ") + " ="
	case KindAugAssign:
		return n.Name + " ?="
	case KindAnnAssign, KindFunction, KindAsyncFunction, KindClass,
		KindName, KindAttribute, KindMatch:
		if n.Name != "" {
			b.WriteString(" " + n.Name)
		}
	case KindCall:
		b.WriteString(" " + n.Name + "()")
	case KindString, KindBytes, KindInt, KindFloat:
		v := strings.ReplaceAll(n.Value, "\n", "\\n")
		b.WriteString(" " + v)
	case KindComment:
		b.WriteString(" " + strings.TrimSpace(strings.TrimPrefix(n.Value, "#")))
	}
	if len(n.Tags) > 0 {
		b.WriteString(" [" + strings.Join(n.Tags, " ") + "]")
	}
	return b.String()
}

// extractTags reads the marker tags from a node's first source line. It is
// a no-op when the span is absent or the marker substring is missing.
func extractTags(snap *FileSnapshot, sp Span) []string {
	if !sp.Valid() {
		return nil
	}
	line := snap.Line(sp.Start)
	idx := strings.Index(line, EscTag)
	if idx < 0 {
		return nil
	}
	return strings.Fields(line[idx+len(EscTag):])
}
