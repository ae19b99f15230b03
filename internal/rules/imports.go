package rules

import (
	"fmt"
	"sort"
	"strings"

	"pystrict/internal/patch"
	"pystrict/internal/pytree"
)

// Import buckets, in required order: dunder modules, relative imports,
// first-party modules, everything else.
const (
	bucketDunder = iota
	bucketRelative
	bucketCustom
	bucketOther
)

// ImportDiscipline checks that imports sit at the top of the file, one
// module per import statement, one import-from per module, grouped into
// ordered buckets, with sorted import-from name lists.
type ImportDiscipline struct {
	// imports is the contiguous top-of-file import run, comments skipped.
	imports []*pytree.Node
	// blockComments are the comment nodes interleaved with the run; the
	// ordering fix must carry them through the rewrite.
	blockComments []*pytree.Node
	// rest holds every node after the run, at any depth.
	rest []*pytree.Node
}

func (r *ImportDiscipline) ID() string    { return "imports" }
func (r *ImportDiscipline) Title() string { return "Imports ordering" }

func (r *ImportDiscipline) Check(ctx *Context) error {
	r.prepare(ctx)
	checks := []func(*Context) error{
		r.checkAtBeginning,
		r.checkOneNamePerLine,
		r.checkFromOnlyOnce,
		r.checkOrdering,
		r.checkFromListsSorted,
	}
	for _, check := range checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// prepare splits the module into the leading import run and the rest.
// Leading docstrings and comments do not break the run; neither do
// comments between imports.
func (r *ImportDiscipline) prepare(ctx *Context) {
	r.imports = nil
	r.blockComments = nil
	r.rest = nil

	nodes := ctx.Nodes
	idx := 0
	for idx < len(nodes) {
		k := nodes[idx].Kind
		if k != pytree.KindString && k != pytree.KindComment {
			break
		}
		idx++
	}
	for ; idx < len(nodes); idx++ {
		switch nodes[idx].Kind {
		case pytree.KindComment:
			r.blockComments = append(r.blockComments, nodes[idx])
		case pytree.KindImport, pytree.KindImportFrom:
			r.imports = append(r.imports, nodes[idx])
		default:
			idx = len(nodes)
		}
	}

	if len(r.imports) == 0 {
		return
	}
	last := r.imports[len(r.imports)-1]
	all := ctx.Tree.Walk()
	for i, n := range all {
		if n == last {
			r.rest = all[i+1:]
			break
		}
	}
}

func (r *ImportDiscipline) checkAtBeginning(ctx *Context) error {
	for _, n := range r.rest {
		if !isImportNode(n) {
			continue
		}
		msg := fmt.Sprintf("found import of %s inside the script body", quoteNames(n.Names))
		stray := n
		return ctx.Resolve(r, n, msg, nil, func(*pytree.Node) (bool, error) {
			return r.fixMoveToImports(ctx, stray)
		})
	}
	return nil
}

// fixMoveToImports pulls a stray import out of the body, strips its
// indentation and appends it right below the leading import run.
func (r *ImportDiscipline) fixMoveToImports(ctx *Context, stray *pytree.Node) (bool, error) {
	tx, err := patch.Begin(ctx.Tree, r.imports[len(r.imports)-1])
	if err != nil {
		return false, err
	}
	lines := stray.Lines()
	if err := tx.Remove(stray); err != nil {
		return false, err
	}
	indent := len(lines[0]) - len(strings.TrimLeft(lines[0], " \t"))
	dedented := make([]string, len(lines))
	for i, line := range lines {
		if len(line) >= indent {
			line = line[indent:]
		}
		dedented[i] = line
	}
	if err := tx.InsertBelow(dedented); err != nil {
		return false, err
	}
	return tx.Commit()
}

func (r *ImportDiscipline) checkOneNamePerLine(ctx *Context) error {
	for _, n := range r.imports {
		if n.Kind != pytree.KindImport || len(n.Children) < 2 {
			continue
		}
		split := make([]string, len(n.Children))
		for i, alias := range n.Children {
			split[i] = "import " + alias.AliasRepr()
		}
		msg := fmt.Sprintf("found import with multiple modules %s on one line", quoteNames(n.Names))
		target := n
		return ctx.Resolve(r, n, msg, split, func(*pytree.Node) (bool, error) {
			tx, err := patch.Begin(ctx.Tree, target)
			if err != nil {
				return false, err
			}
			if err := tx.Replace(split, nil); err != nil {
				return false, err
			}
			return tx.Commit()
		})
	}
	return nil
}

// checkFromOnlyOnce merges every import-from of one module into the first
// occurrence; the later occurrences are removed.
func (r *ImportDiscipline) checkFromOnlyOnce(ctx *Context) error {
	froms := r.importFroms()
	reported := map[string]bool{}
	for _, n := range froms {
		if reported[n.Name] {
			continue
		}
		reported[n.Name] = true

		var same []*pytree.Node
		for _, other := range froms {
			if other.Name == n.Name {
				same = append(same, other)
			}
		}
		if len(same) < 2 {
			continue
		}

		merged := mergedAliases(same)
		line := fmt.Sprintf("from %s import %s", n.Name, strings.Join(merged, ", "))
		msg := fmt.Sprintf("there seems to be import from %s on multiple places", "`"+n.Name+"`")
		return ctx.Resolve(r, n, msg, []string{line}, func(*pytree.Node) (bool, error) {
			tx, err := patch.Begin(ctx.Tree, same[0])
			if err != nil {
				return false, err
			}
			// Remove the later occurrences bottom-up so the spans above
			// them stay valid, then rewrite the first one in place.
			rest := append([]*pytree.Node(nil), same[1:]...)
			sort.Slice(rest, func(i, j int) bool {
				return rest[i].Span.Start > rest[j].Span.Start
			})
			for _, dup := range rest {
				if err := tx.Remove(dup); err != nil {
					return false, err
				}
			}
			if err := tx.Replace([]string{line}, nil); err != nil {
				return false, err
			}
			return tx.Commit()
		})
	}
	return nil
}

func (r *ImportDiscipline) checkOrdering(ctx *Context) error {
	if len(r.imports) < 2 {
		return nil
	}

	expected := append([]*pytree.Node(nil), r.imports...)
	sort.SliceStable(expected, func(i, j int) bool {
		return importBucket(expected[i], ctx.CustomModules) < importBucket(expected[j], ctx.CustomModules)
	})

	var first *pytree.Node
	for i, n := range r.imports {
		if n != expected[i] {
			first = n
			break
		}
	}
	if first == nil {
		return nil
	}

	start := r.imports[0].Span.Start
	end := r.imports[len(r.imports)-1].Span.End

	// Standalone comments inside the block travel with the import they
	// precede; a trailing comment on an import's own line is already part
	// of that import's lines.
	leading := map[*pytree.Node][]string{}
	for _, c := range r.blockComments {
		if c.Span.Start > end || r.insideImport(c) {
			continue
		}
		for _, n := range r.imports {
			if c.Span.Start < n.Span.Start {
				leading[n] = append(leading[n], c.Lines()...)
				break
			}
		}
	}

	var suggested []string
	prev := -1
	for _, n := range expected {
		bucket := importBucket(n, ctx.CustomModules)
		if prev >= 0 && bucket != prev {
			suggested = append(suggested, "")
		}
		prev = bucket
		suggested = append(suggested, leading[n]...)
		suggested = append(suggested, n.Lines()...)
	}

	msg := "imports seem not to be grouped and ordered"
	return ctx.Resolve(r, first, msg, suggested, func(*pytree.Node) (bool, error) {
		tx, err := patch.Begin(ctx.Tree, first)
		if err != nil {
			return false, err
		}
		if err := tx.ReplaceLines(suggested, start, end); err != nil {
			return false, err
		}
		return tx.Commit()
	})
}

func (r *ImportDiscipline) checkFromListsSorted(ctx *Context) error {
	for _, n := range r.importFroms() {
		names := make([]string, len(n.Children))
		for i, alias := range n.Children {
			names[i] = alias.AliasRepr()
		}
		want := dedupSorted(names)
		if equalStrings(names, want) {
			continue
		}
		line := fmt.Sprintf("from %s import %s", n.Name, strings.Join(want, ", "))
		msg := fmt.Sprintf("elements imported from module %s seem not to be alphabetically sorted", "`"+n.Name+"`")
		target := n
		return ctx.Resolve(r, n, msg, []string{line}, func(*pytree.Node) (bool, error) {
			tx, err := patch.Begin(ctx.Tree, target)
			if err != nil {
				return false, err
			}
			if err := tx.Replace([]string{line}, nil); err != nil {
				return false, err
			}
			return tx.Commit()
		})
	}
	return nil
}

// insideImport reports whether the comment sits on a line covered by one
// of the block's import statements.
func (r *ImportDiscipline) insideImport(c *pytree.Node) bool {
	for _, n := range r.imports {
		if c.Span.Start >= n.Span.Start && c.Span.Start <= n.Span.End {
			return true
		}
	}
	return false
}

func (r *ImportDiscipline) importFroms() []*pytree.Node {
	var froms []*pytree.Node
	for _, n := range r.imports {
		if n.Kind == pytree.KindImportFrom {
			froms = append(froms, n)
		}
	}
	return froms
}

func isImportNode(n *pytree.Node) bool {
	return n.Kind == pytree.KindImport || n.Kind == pytree.KindImportFrom
}

// importBucket classifies an import by its module name.
func importBucket(n *pytree.Node, customModules []string) int {
	name := n.Name
	if n.Kind == pytree.KindImport && len(n.Names) > 0 {
		name = n.Names[0]
	}
	switch {
	case strings.HasPrefix(name, "_"):
		return bucketDunder
	case strings.HasPrefix(name, "."):
		return bucketRelative
	}
	for _, mod := range customModules {
		if strings.HasPrefix(name, mod) {
			return bucketCustom
		}
	}
	return bucketOther
}

// mergedAliases unions the alias lists of several import-from nodes,
// deduplicated and sorted by their rendering.
func mergedAliases(nodes []*pytree.Node) []string {
	var names []string
	for _, n := range nodes {
		for _, alias := range n.Children {
			names = append(names, alias.AliasRepr())
		}
	}
	return dedupSorted(names)
}

func dedupSorted(names []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func quoteNames(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = "`" + name + "`"
	}
	return strings.Join(quoted, ", ")
}
