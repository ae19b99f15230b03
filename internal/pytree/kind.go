package pytree

// Kind classifies a parsed Python construct.
type Kind int

const (
	// KindRoot is the module-level node; its span is always (0,0).
	KindRoot Kind = iota
	// KindComment is a standalone comment line.
	KindComment
	// KindImport is an `import a, b` statement.
	KindImport
	// KindImportFrom is a `from X import a, b` statement,
	// including `from __future__ import ...`.
	KindImportFrom
	// KindAlias is a single name binding inside an import statement.
	KindAlias
	// KindAssign is a plain assignment.
	KindAssign
	// KindAugAssign is an augmented assignment (`x += 1`).
	KindAugAssign
	// KindAnnAssign is an annotated assignment or bare annotation (`x: int`).
	KindAnnAssign
	// KindFunction is a `def` statement.
	KindFunction
	// KindAsyncFunction is an `async def` statement.
	KindAsyncFunction
	// KindClass is a `class` statement.
	KindClass

	KindIf
	KindFor
	KindAsyncFor
	KindWhile
	KindTry
	KindWith
	KindMatch
	KindCase

	KindReturn
	KindPass
	KindBreak
	KindContinue
	KindRaise
	KindAssert
	KindDelete
	KindGlobal
	KindNonlocal

	KindLambda
	KindCall
	KindAttribute
	KindName
	KindStarred
	KindSubscript
	KindSlice
	KindTuple
	KindList
	KindListComp
	KindSet
	KindSetComp
	KindDict
	KindDictComp
	KindCompare
	KindBinOp
	KindBoolOp
	KindUnaryOp
	KindIfExp
	KindGenerator

	// Constant literals, specialized by subtype at build time.
	KindString
	KindBytes
	KindInt
	KindFloat
	KindNone
	KindEllipsis
	KindJoinedStr

	// KindExpr is a generic expression with no dedicated kind.
	KindExpr
)

var kindNames = map[Kind]string{
	KindRoot:          "module",
	KindComment:       "comment",
	KindImport:        "import",
	KindImportFrom:    "import from",
	KindAlias:         "as",
	KindAssign:        "assign",
	KindAugAssign:     "augmented assign",
	KindAnnAssign:     "annotate",
	KindFunction:      "def",
	KindAsyncFunction: "async def",
	KindClass:         "class",
	KindIf:            "if",
	KindFor:           "for",
	KindAsyncFor:      "async for",
	KindWhile:         "while",
	KindTry:           "try",
	KindWith:          "with",
	KindMatch:         "match",
	KindCase:          "case",
	KindReturn:        "return",
	KindPass:          "pass",
	KindBreak:         "break",
	KindContinue:      "continue",
	KindRaise:         "raise",
	KindAssert:        "assert",
	KindDelete:        "delete",
	KindGlobal:        "global",
	KindNonlocal:      "nonlocal",
	KindLambda:        "lambda",
	KindCall:          "call",
	KindAttribute:     "attr",
	KindName:          "var",
	KindStarred:       "starred",
	KindSubscript:     "subscription",
	KindSlice:         "slice",
	KindTuple:         "tuple",
	KindList:          "list",
	KindListComp:      "list comprehension",
	KindSet:           "set",
	KindSetComp:       "set comprehension",
	KindDict:          "dict",
	KindDictComp:      "dict comprehension",
	KindCompare:       "compare",
	KindBinOp:         "binary op",
	KindBoolOp:        "bool op",
	KindUnaryOp:       "unary op",
	KindIfExp:         "if expr",
	KindGenerator:     "generator",
	KindString:        "str",
	KindBytes:         "bytes",
	KindInt:           "int",
	KindFloat:         "float",
	KindNone:          "None",
	KindEllipsis:      "...",
	KindJoinedStr:     "joined str",
	KindExpr:          "expr",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}
