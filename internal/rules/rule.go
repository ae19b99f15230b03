// Package rules contains the style rules, the per-file diagnostics batch
// and the contract shared by every rule.
package rules

import (
	"errors"
	"sort"
	"strings"

	"pystrict/internal/patch"
	"pystrict/internal/pytree"
)

// ErrFindingReported is returned by a rule once it has reported a finding.
// It stops evaluation of any later rules for the file within the current
// pass; findings already produced in the pass are retained.
var ErrFindingReported = errors.New("rule finding reported")

// Fix notes attached to a finding after the refactoring step ran.
const (
	NoteFixWritten  = "fix written into file"
	NoteNoChange    = "nothing has changed"
	NoteUnavailable = "refactoring unavailable for this finding"
)

// Finding is a single reported rule violation.
type Finding struct {
	Rule    string
	Span    pytree.Span
	Message string
	// Suggestion holds the suggested replacement lines, when the rule can
	// render one.
	Suggestion []string
	// Notes records the outcome of the fix attempt, if any.
	Notes []string
}

// Report aggregates every finding raised for one file during one run.
// The first finding opens the batch; later findings append into it.
type Report struct {
	File     string
	Findings []Finding
}

// Empty reports whether no finding was collected.
func (r *Report) Empty() bool {
	return len(r.Findings) == 0
}

// FixFunc applies the refactoring for one finding. It reports whether the
// file changed. A fix against a node without a span returns
// patch.ErrUnpatchable.
type FixFunc func(n *pytree.Node) (bool, error)

// Rule is one independent style check. Instances are fresh per file and
// per pass; they may keep working state between their sub-checks.
type Rule interface {
	ID() string
	Title() string
	Check(ctx *Context) error
}

// Context carries everything one rule invocation needs: the parsed tree,
// the top-level nodes, the run options relevant to rules, and the report
// batch shared by all rules checking the same file.
type Context struct {
	Tree *pytree.Tree
	// Nodes are the module's direct children in source order.
	Nodes []*pytree.Node

	// Refactor enables fix callbacks for this run.
	Refactor bool
	// CustomModules lists name prefixes treated as first-party modules
	// when bucketing imports.
	CustomModules []string

	report *Report
}

// NewContext prepares a context for checking tree.
func NewContext(tree *pytree.Tree, refactor bool, customModules []string) *Context {
	return &Context{
		Tree:          tree,
		Nodes:         tree.Root.Children,
		Refactor:      refactor,
		CustomModules: customModules,
		report:        &Report{File: tree.Snapshot.Path},
	}
}

// Report exposes the aggregated batch for the file.
func (c *Context) Report() *Report {
	return c.report
}

// Resolve reports one finding and, in refactor mode, runs its fix. The
// finding is recorded before the fix so it is never swallowed by a
// successful rewrite; the fix outcome is attached as a note. The returned
// error is ErrFindingReported unless the fix failed with a real I/O error.
func (c *Context) Resolve(rule Rule, n *pytree.Node, msg string, suggestion []string, fix FixFunc) error {
	c.report.Findings = append(c.report.Findings, Finding{
		Rule:       rule.ID(),
		Span:       n.Span,
		Message:    msg,
		Suggestion: suggestion,
	})
	f := &c.report.Findings[len(c.report.Findings)-1]

	if c.Refactor {
		switch {
		case fix == nil:
			f.Notes = append(f.Notes, NoteUnavailable)
		default:
			changed, err := fix(n)
			switch {
			case errors.Is(err, patch.ErrUnpatchable):
				f.Notes = append(f.Notes, NoteUnavailable)
			case err != nil:
				return err
			case changed:
				f.Notes = append(f.Notes, NoteFixWritten)
			default:
				f.Notes = append(f.Notes, NoteNoChange)
			}
		}
	}
	return ErrFindingReported
}

// Member is one public top-level member: the node that declares it and the
// name it is known by.
type Member struct {
	Node *pytree.Node
	Name string
}

// PublicMembers collects every top-level class, function, annotated
// variable, import alias and assignment target whose name is public: it
// does not start with an underscore and contains neither a dot nor a
// bracket.
func (c *Context) PublicMembers(sorted bool) []Member {
	var members []Member
	for _, n := range c.Nodes {
		switch n.Kind {
		case pytree.KindClass, pytree.KindFunction, pytree.KindAsyncFunction, pytree.KindAnnAssign:
			if isPublicName(n.Name) {
				members = append(members, Member{Node: n, Name: n.Name})
			}
		case pytree.KindImport, pytree.KindImportFrom:
			for _, alias := range n.Children {
				if isPublicName(alias.Name) {
					members = append(members, Member{Node: alias, Name: alias.Name})
				}
			}
		case pytree.KindAssign:
			for _, name := range n.Names {
				if isPublicName(name) {
					members = append(members, Member{Node: n, Name: name})
				}
			}
		}
	}
	if sorted {
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Name < members[j].Name
		})
	}
	return members
}

func isPublicName(name string) bool {
	return name != "" &&
		!strings.HasPrefix(name, "_") &&
		!strings.ContainsAny(name, ".[")
}
