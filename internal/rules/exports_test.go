package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportDiscipline_Clean(t *testing.T) {
	tree := loadTree(t, "clean.py", `from lib import secret
from lib2 import shared  # :~PYSTRICT~: public


def run() -> None:
    return None


__all__ = (
    "run",
    "shared",
)
`)
	report, err := runRule(t, &ExportDiscipline{}, tree, false, nil)
	require.NoError(t, err)
	assert.True(t, report.Empty())
}

func TestExportDiscipline_InitFile(t *testing.T) {
	tree := loadTree(t, "__init__.py", "__all__ = (\n    \"x\",\n)\n")
	report, err := runRule(t, &ExportDiscipline{}, tree, true, nil)
	require.ErrorIs(t, err, ErrFindingReported)
	require.Len(t, report.Findings, 1)
	assert.Contains(t, report.Findings[0].Message, "__init__.py")

	assert.Equal(t, "", fileContent(t, tree))
	requireClean(t, &ExportDiscipline{}, tree, nil)
}

func TestExportDiscipline_MissingAll(t *testing.T) {
	tree := loadTree(t, "missing.py", `def helper() -> None:
    return None
`)
	report, err := runRule(t, &ExportDiscipline{}, tree, true, nil)
	require.ErrorIs(t, err, ErrFindingReported)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, []string{"__all__ = (", `    "helper",`, ")"}, report.Findings[0].Suggestion)

	assert.Equal(t, `def helper() -> None:
    return None


__all__ = (
    "helper",
)
`, fileContent(t, tree))
	requireClean(t, &ExportDiscipline{}, tree, nil)
}

func TestExportDiscipline_UntaggedAliasIsNotExported(t *testing.T) {
	tree := loadTree(t, "alias.py", `from lib2 import shared


def run() -> None:
    return None


__all__ = (
    "run",
    "shared",
)
`)
	report, err := runRule(t, &ExportDiscipline{}, tree, false, nil)
	require.ErrorIs(t, err, ErrFindingReported)
	require.Len(t, report.Findings, 1)
	assert.Contains(t, report.Findings[0].Message, "`shared`")
	assert.Contains(t, report.Findings[0].Message, "non-existing")
}

func TestExportDiscipline_NotATuple(t *testing.T) {
	tree := loadTree(t, "list.py", "X = 1\n__all__ = [\"X\"]\n")
	report, err := runRule(t, &ExportDiscipline{}, tree, true, nil)
	require.ErrorIs(t, err, ErrFindingReported)
	require.Len(t, report.Findings, 1)
	assert.Contains(t, report.Findings[0].Message, "tuple")

	assert.Equal(t, "X = 1\n__all__ = (\n    \"X\",\n)\n", fileContent(t, tree))
	requireClean(t, &ExportDiscipline{}, tree, nil)
}

func TestExportDiscipline_NotSorted(t *testing.T) {
	tree := loadTree(t, "unsorted.py", `A = 1
B = 2

__all__ = (
    "B",
    "A",
)
`)
	report, err := runRule(t, &ExportDiscipline{}, tree, true, nil)
	require.ErrorIs(t, err, ErrFindingReported)
	require.Len(t, report.Findings, 1)
	assert.Contains(t, report.Findings[0].Message, "sorted")

	assert.Equal(t, `A = 1
B = 2

__all__ = (
    "A",
    "B",
)
`, fileContent(t, tree))
	requireClean(t, &ExportDiscipline{}, tree, nil)
}

func TestExportDiscipline_MissingMembers(t *testing.T) {
	tree := loadTree(t, "short.py", `A = 1
B = 2

__all__ = (
    "A",
)
`)
	report, err := runRule(t, &ExportDiscipline{}, tree, true, nil)
	require.ErrorIs(t, err, ErrFindingReported)
	require.Len(t, report.Findings, 1)
	assert.Contains(t, report.Findings[0].Message, "`B`")

	assert.Equal(t, `A = 1
B = 2

__all__ = (
    "A",
    "B",
)
`, fileContent(t, tree))
	requireClean(t, &ExportDiscipline{}, tree, nil)
}

func TestExportDiscipline_DuplicateAll(t *testing.T) {
	tree := loadTree(t, "dup.py", `X = 1

__all__ = (
    "X",
)

__all__ = (
    "X",
)
`)
	report, err := runRule(t, &ExportDiscipline{}, tree, true, nil)
	require.ErrorIs(t, err, ErrFindingReported)
	require.Len(t, report.Findings, 1)
	assert.Contains(t, report.Findings[0].Message, "multiple assignments")
	// The duplicate is the reported node, not the first assignment.
	assert.Equal(t, 7, report.Findings[0].Span.Start)

	assert.Equal(t, `X = 1

__all__ = (
    "X",
)

`, fileContent(t, tree))
	requireClean(t, &ExportDiscipline{}, tree, nil)
}

func TestExportDiscipline_NoPublicMembers(t *testing.T) {
	tree := loadTree(t, "private.py", `_x = 1

__all__ = ()
`)
	report, err := runRule(t, &ExportDiscipline{}, tree, true, nil)
	require.ErrorIs(t, err, ErrFindingReported)
	require.Len(t, report.Findings, 1)
	assert.Contains(t, report.Findings[0].Message, "no public members")

	assert.Equal(t, "_x = 1\n\n", fileContent(t, tree))
	requireClean(t, &ExportDiscipline{}, tree, nil)
}

func TestExportDiscipline_NotAtEnd(t *testing.T) {
	tree := loadTree(t, "order.py", `def run() -> None:
    return None

__all__ = (
    "run",
)

X = 1
`)
	report, err := runRule(t, &ExportDiscipline{}, tree, true, nil)
	require.ErrorIs(t, err, ErrFindingReported)
	require.Len(t, report.Findings, 1)
	assert.Contains(t, report.Findings[0].Message, "end of file")

	assert.Equal(t, `def run() -> None:
    return None


X = 1


__all__ = (
    "X",
    "run",
)
`, fileContent(t, tree))
	requireClean(t, &ExportDiscipline{}, tree, nil)
}
