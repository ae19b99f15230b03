package rules

import (
	"fmt"
	"strings"

	"pystrict/internal/patch"
	"pystrict/internal/pytree"
)

const futureImportModule = "__future__"

// AnnotationDiscipline checks for the presence of annotations, not their
// validity: every function definition carries a return annotation, and the
// file imports annotations from __future__.
type AnnotationDiscipline struct{}

func (r *AnnotationDiscipline) ID() string { return "annotations" }
func (r *AnnotationDiscipline) Title() string {
	return "Presence of annotations (not their validity)"
}

func (r *AnnotationDiscipline) Check(ctx *Context) error {
	if err := r.checkReturnAnnotations(ctx); err != nil {
		return err
	}
	return r.checkFutureImport(ctx)
}

func (r *AnnotationDiscipline) checkReturnAnnotations(ctx *Context) error {
	for _, n := range ctx.Tree.Walk() {
		if n.Kind != pytree.KindFunction && n.Kind != pytree.KindAsyncFunction {
			continue
		}
		if n.HasReturn {
			continue
		}
		msg := fmt.Sprintf("there is a missing `-> None` return annotation in function `%s` definition", n.Name)
		target := n
		return ctx.Resolve(r, n, msg, nil, func(*pytree.Node) (bool, error) {
			return r.fixReturnAnnotation(ctx, target)
		})
	}
	return nil
}

// fixReturnAnnotation scans the definition header backwards from the first
// body statement for the line closing the parameter list and rewrites its
// `):` ending into `) -> None:`. Comment lines inside the header are
// skipped. A header that never ends a line with `):` (such as a one-line
// definition with an inline body) has no usable rewrite point.
func (r *AnnotationDiscipline) fixReturnAnnotation(ctx *Context, fn *pytree.Node) (bool, error) {
	if !fn.Span.Valid() || len(fn.Children) == 0 {
		return false, fmt.Errorf("%w (function %s)", patch.ErrUnpatchable, fn.Name)
	}
	tx, err := patch.Begin(ctx.Tree, fn)
	if err != nil {
		return false, err
	}

	for lineNo := fn.Children[0].Span.Start - 1; lineNo >= fn.Span.Start; lineNo-- {
		line, err := tx.Line(lineNo)
		if err != nil {
			return false, err
		}
		line = strings.TrimRight(line, " \t")
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if strings.HasSuffix(line, "):") {
			if err := tx.SetLine(lineNo, line[:len(line)-2]+") -> None:"); err != nil {
				return false, err
			}
			return tx.Commit()
		}
	}
	return false, fmt.Errorf("%w (function %s)", patch.ErrUnpatchable, fn.Name)
}

func (r *AnnotationDiscipline) checkFutureImport(ctx *Context) error {
	for _, n := range ctx.Nodes {
		if n.Kind == pytree.KindImportFrom && n.Name == futureImportModule &&
			containsString(n.Names, "annotations") {
			return nil
		}
	}

	anchor := ctx.Tree.Root
	if len(ctx.Nodes) > 0 {
		anchor = ctx.Nodes[0]
	}
	lines := []string{"from __future__ import annotations", ""}
	msg := "there shall be an import of annotations from the `__future__` package at the beginning"

	// Below a leading docstring, above anything else.
	below := anchor.Kind == pytree.KindString
	return ctx.Resolve(r, anchor, msg, lines, func(*pytree.Node) (bool, error) {
		tx, err := patch.Begin(ctx.Tree, anchor)
		if err != nil {
			return false, err
		}
		if below {
			err = tx.InsertBelow(lines)
		} else {
			err = tx.InsertAbove(lines)
		}
		if err != nil {
			return false, err
		}
		return tx.Commit()
	})
}
