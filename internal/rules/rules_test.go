package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"pystrict/internal/pytree"
)

func loadTree(t *testing.T, name, content string) *pytree.Tree {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	tree, err := pytree.Load(path)
	require.NoError(t, err)
	return tree
}

func fileContent(t *testing.T, tree *pytree.Tree) string {
	t.Helper()
	data, err := os.ReadFile(tree.Snapshot.Path)
	require.NoError(t, err)
	return string(data)
}

// runRule checks tree with a fresh instance of the rule and returns the
// collected report together with the rule's error.
func runRule(t *testing.T, rule Rule, tree *pytree.Tree, refactor bool, customModules []string) (*Report, error) {
	t.Helper()
	ctx := NewContext(tree, refactor, customModules)
	err := rule.Check(ctx)
	return ctx.Report(), err
}

// requireClean asserts that a fresh check of the (possibly just fixed)
// file finds nothing.
func requireClean(t *testing.T, rule Rule, tree *pytree.Tree, customModules []string) {
	t.Helper()
	require.NoError(t, tree.Reload())
	_, err := runRule(t, rule, tree, false, customModules)
	require.NoError(t, err, "the fixed file must pass the rule")
}
