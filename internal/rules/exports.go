package rules

import (
	"fmt"
	"path/filepath"

	"pystrict/internal/patch"
	"pystrict/internal/pytree"
)

// ExportDiscipline checks the module's export list: a single `__all__`
// tuple at the end of the file that names exactly the public members, in
// alphabetical order. Package init files must not carry one at all.
type ExportDiscipline struct{}

func (r *ExportDiscipline) ID() string { return "export_all" }
func (r *ExportDiscipline) Title() string {
	return "Correctly filled in __all__ at the end of module"
}

func (r *ExportDiscipline) Check(ctx *Context) error {
	if filepath.Base(ctx.Tree.Snapshot.Path) == "__init__.py" {
		return r.checkInit(ctx)
	}
	return r.checkRegular(ctx)
}

// checkInit applies the special rule for package init files.
func (r *ExportDiscipline) checkInit(ctx *Context) error {
	occurrences := allOccurrences(ctx)
	if len(occurrences) == 0 {
		return nil
	}
	target := occurrences[0]
	msg := "there shall be no `__all__` in `__init__.py`"
	return ctx.Resolve(r, target, msg, nil, r.fixRemove(ctx, target))
}

func (r *ExportDiscipline) checkRegular(ctx *Context) error {
	occurrences := allOccurrences(ctx)
	members := r.exportedMembers(ctx)
	names := memberNames(members)
	suggested := renderAllTuple(names)

	switch len(occurrences) {
	case 0:
		if len(names) == 0 {
			return nil
		}
		msg := "there is no `__all__` at the end of file when there are public members declared"
		return ctx.Resolve(r, ctx.Tree.Root, msg, suggested, func(*pytree.Node) (bool, error) {
			tx, err := patch.Begin(ctx.Tree, ctx.Tree.Root)
			if err != nil {
				return false, err
			}
			tx.AppendToEnd(suggested)
			return tx.Commit()
		})

	case 1:
		target := occurrences[0]

		if len(names) == 0 {
			msg := "there shall be no `__all__` when there are no public members declared"
			return ctx.Resolve(r, target, msg, nil, r.fixRemove(ctx, target))
		}

		if last := ctx.Nodes[len(ctx.Nodes)-1]; last != target {
			msg := "`__all__` is not at the end of file"
			return ctx.Resolve(r, target, msg, suggested, func(*pytree.Node) (bool, error) {
				tx, err := patch.Begin(ctx.Tree, target)
				if err != nil {
					return false, err
				}
				if err := tx.Remove(nil); err != nil {
					return false, err
				}
				tx.AppendToEnd(suggested)
				return tx.Commit()
			})
		}

		if !isTupleValue(target) {
			msg := "`__all__` shall be a tuple"
			return ctx.Resolve(r, target, msg, suggested, r.fixReplace(ctx, target, suggested))
		}

		listed := listedMembers(target)
		if equalStrings(names, listed) {
			return nil
		}
		for _, member := range listed {
			if !containsString(names, member) {
				msg := fmt.Sprintf("`__all__` points to a non-existing member `%s`", member)
				return ctx.Resolve(r, target, msg, suggested, r.fixReplace(ctx, target, suggested))
			}
		}
		switch {
		case len(names) < len(listed):
			msg := "it seems that `__all__` contains more members than those defined here"
			return ctx.Resolve(r, target, msg, suggested, r.fixReplace(ctx, target, suggested))
		case len(names) > len(listed):
			var missing []string
			for _, name := range names {
				if !containsString(listed, name) {
					missing = append(missing, name)
				}
			}
			msg := fmt.Sprintf("it seems that `__all__` does not contain all members (missing %s)", quoteNames(missing))
			return ctx.Resolve(r, target, msg, suggested, r.fixReplace(ctx, target, suggested))
		default:
			msg := "it seems that `__all__` is not alphabetically sorted"
			return ctx.Resolve(r, target, msg, suggested, r.fixReplace(ctx, target, suggested))
		}

	default:
		// The first assignment stays, every later one is redundant.
		duplicate := occurrences[1]
		msg := "there are multiple assignments to `__all__`; this one repeats an earlier assignment"
		return ctx.Resolve(r, duplicate, msg, nil, r.fixRemove(ctx, duplicate))
	}
}

// exportedMembers filters the public members down to those counted by the
// export list: import aliases need the explicit re-export tag.
func (r *ExportDiscipline) exportedMembers(ctx *Context) []Member {
	var out []Member
	for _, m := range ctx.PublicMembers(true) {
		if m.Node.Kind == pytree.KindAlias && !m.Node.HasTag("public") {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (r *ExportDiscipline) fixRemove(ctx *Context, target *pytree.Node) FixFunc {
	return func(*pytree.Node) (bool, error) {
		tx, err := patch.Begin(ctx.Tree, target)
		if err != nil {
			return false, err
		}
		if err := tx.Remove(nil); err != nil {
			return false, err
		}
		return tx.Commit()
	}
}

func (r *ExportDiscipline) fixReplace(ctx *Context, target *pytree.Node, lines []string) FixFunc {
	return func(*pytree.Node) (bool, error) {
		tx, err := patch.Begin(ctx.Tree, target)
		if err != nil {
			return false, err
		}
		if err := tx.Replace(lines, nil); err != nil {
			return false, err
		}
		return tx.Commit()
	}
}

// allOccurrences finds every top-level assignment binding `__all__`.
func allOccurrences(ctx *Context) []*pytree.Node {
	var out []*pytree.Node
	for _, n := range ctx.Nodes {
		if n.Kind == pytree.KindAssign && containsString(n.Names, "__all__") {
			out = append(out, n)
		}
	}
	return out
}

// isTupleValue accepts a tuple literal or a call of the tuple builtin.
func isTupleValue(assign *pytree.Node) bool {
	if len(assign.Children) == 0 {
		return false
	}
	value := assign.Children[0]
	return value.Kind == pytree.KindTuple ||
		(value.Kind == pytree.KindCall && value.Name == "tuple")
}

// listedMembers reads the string elements of the assigned tuple literal.
// A tuple() call exposes no readable members.
func listedMembers(assign *pytree.Node) []string {
	value := assign.Children[0]
	if value.Kind != pytree.KindTuple {
		return nil
	}
	var out []string
	for _, elem := range value.Children {
		out = append(out, elem.Value)
	}
	return out
}

func memberNames(members []Member) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}

// renderAllTuple renders the canonical export list, one name per line.
func renderAllTuple(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	lines := make([]string, 0, len(names)+2)
	lines = append(lines, "__all__ = (")
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("    %q,", name))
	}
	lines = append(lines, ")")
	return lines
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
