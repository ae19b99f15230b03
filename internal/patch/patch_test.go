package patch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pystrict/internal/pytree"
)

func loadTree(t *testing.T, content string) *pytree.Tree {
	t.Helper()
	path := filepath.Join(t.TempDir(), "target.py")
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

func TestTx_Commit(t *testing.T) {
	t.Run("No Edits Never Write", func(t *testing.T) {
		tree := loadTree(t, "a = 1\nb = 2\n")
		info, err := os.Stat(tree.Snapshot.Path)
		require.NoError(t, err)

		tx, err := Begin(tree, tree.Root.Children[0])
		require.NoError(t, err)
		changed, err := tx.Commit()
		require.NoError(t, err)
		assert.False(t, changed)

		after, err := os.Stat(tree.Snapshot.Path)
		require.NoError(t, err)
		assert.Equal(t, info.ModTime(), after.ModTime(), "unchanged buffer must not rewrite the file")
	})

	t.Run("Identical Rewrite Never Writes", func(t *testing.T) {
		tree := loadTree(t, "a = 1\n")
		tx, err := Begin(tree, tree.Root.Children[0])
		require.NoError(t, err)
		require.NoError(t, tx.Replace([]string{"a = 1"}, nil))

		changed, err := tx.Commit()
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("Commit Reloads Tree", func(t *testing.T) {
		tree := loadTree(t, "a = 1\nb = 2\n")
		tx, err := Begin(tree, tree.Root.Children[0])
		require.NoError(t, err)
		require.NoError(t, tx.Remove(nil))

		changed, err := tx.Commit()
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, "b = 2\n", fileContent(t, tree))
		require.Len(t, tree.Root.Children, 1)
		assert.Equal(t, []string{"b"}, tree.Root.Children[0].Names)
	})

	t.Run("Missing Final Newline Survives", func(t *testing.T) {
		tree := loadTree(t, "a = 1\nb = 2")
		tx, err := Begin(tree, tree.Root.Children[0])
		require.NoError(t, err)
		require.NoError(t, tx.Replace([]string{"a = 10"}, nil))

		changed, err := tx.Commit()
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, "a = 10\nb = 2", fileContent(t, tree))
	})
}

func TestTx_Edits(t *testing.T) {
	t.Run("Replace Node Span", func(t *testing.T) {
		tree := loadTree(t, "def f():\n    pass\n\n\nx = 1\n")
		fn := tree.Root.Children[0]
		tx, err := Begin(tree, fn)
		require.NoError(t, err)
		require.NoError(t, tx.Replace([]string{"def f():", "    return None"}, nil))

		_, err = tx.Commit()
		require.NoError(t, err)
		assert.Equal(t, "def f():\n    return None\n\n\nx = 1\n", fileContent(t, tree))
	})

	t.Run("Remove Other Node", func(t *testing.T) {
		tree := loadTree(t, "a = 1\nb = 2\nc = 3\n")
		tx, err := Begin(tree, tree.Root.Children[0])
		require.NoError(t, err)
		require.NoError(t, tx.Remove(tree.Root.Children[1]))

		_, err = tx.Commit()
		require.NoError(t, err)
		assert.Equal(t, "a = 1\nc = 3\n", fileContent(t, tree))
	})

	t.Run("Insert Above", func(t *testing.T) {
		tree := loadTree(t, "a = 1\nb = 2\n")
		tx, err := Begin(tree, tree.Root.Children[1])
		require.NoError(t, err)
		require.NoError(t, tx.InsertAbove([]string{"# above"}))

		_, err = tx.Commit()
		require.NoError(t, err)
		assert.Equal(t, "a = 1\n# above\nb = 2\n", fileContent(t, tree))
	})

	t.Run("Insert Below", func(t *testing.T) {
		tree := loadTree(t, "a = 1\nb = 2\n")
		tx, err := Begin(tree, tree.Root.Children[0])
		require.NoError(t, err)
		require.NoError(t, tx.InsertBelow([]string{"# below"}))

		_, err = tx.Commit()
		require.NoError(t, err)
		assert.Equal(t, "a = 1\n# below\nb = 2\n", fileContent(t, tree))
	})

	t.Run("Insert Above Synthetic Root", func(t *testing.T) {
		tree := loadTree(t, "a = 1\n")
		tx, err := Begin(tree, tree.Root)
		require.NoError(t, err)
		require.NoError(t, tx.InsertAbove([]string{"# header"}))

		_, err = tx.Commit()
		require.NoError(t, err)
		assert.Equal(t, "# header\na = 1\n", fileContent(t, tree))
	})

	t.Run("Append To End", func(t *testing.T) {
		tree := loadTree(t, "a = 1\n")
		tx, err := Begin(tree, tree.Root)
		require.NoError(t, err)
		tx.AppendToEnd([]string{"__all__ = (", `    "a",`, ")"})

		_, err = tx.Commit()
		require.NoError(t, err)
		assert.Equal(t, "a = 1\n\n\n__all__ = (\n    \"a\",\n)\n", fileContent(t, tree))
	})

	t.Run("Set Line", func(t *testing.T) {
		tree := loadTree(t, "def f():\n    pass\n")
		tx, err := Begin(tree, tree.Root.Children[0])
		require.NoError(t, err)

		line, err := tx.Line(1)
		require.NoError(t, err)
		require.Equal(t, "def f():", line)
		require.NoError(t, tx.SetLine(1, "def f() -> None:"))

		_, err = tx.Commit()
		require.NoError(t, err)
		assert.Equal(t, "def f() -> None:\n    pass\n", fileContent(t, tree))
	})
}

func TestTx_SpanSafety(t *testing.T) {
	t.Run("Zero Span Is Unpatchable", func(t *testing.T) {
		tree := loadTree(t, "a = 1\n")
		tx, err := Begin(tree, tree.Root)
		require.NoError(t, err)

		assert.ErrorIs(t, tx.Remove(nil), ErrUnpatchable)
		assert.ErrorIs(t, tx.Replace([]string{"x"}, nil), ErrUnpatchable)
		assert.ErrorIs(t, tx.InsertBelow([]string{"x"}), ErrUnpatchable)
		assert.ErrorIs(t, tx.ReplaceLines([]string{"x"}, 0, 0), ErrUnpatchable)
	})

	t.Run("Unpatchable Leaves File Alone", func(t *testing.T) {
		tree := loadTree(t, "a = 1\n")
		tx, err := Begin(tree, tree.Root)
		require.NoError(t, err)
		require.Error(t, tx.Remove(nil))

		changed, err := tx.Commit()
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, "a = 1\n", fileContent(t, tree))
	})

	t.Run("Out Of Range Lines", func(t *testing.T) {
		tree := loadTree(t, "a = 1\n")
		tx, err := Begin(tree, tree.Root.Children[0])
		require.NoError(t, err)

		_, err = tx.Line(0)
		assert.Error(t, err)
		_, err = tx.Line(2)
		assert.Error(t, err)
		assert.Error(t, tx.SetLine(5, "x"))
	})
}
