package pytree

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// UnsupportedSyntaxError reports a raw parser node kind with no builder
// mapping. It is fatal for the file being processed.
type UnsupportedSyntaxError struct {
	RawKind string
	Line    int
}

func (e *UnsupportedSyntaxError) Error() string {
	return fmt.Sprintf("unsupported syntax %q at line %d", e.RawKind, e.Line)
}

type builder struct {
	snap *FileSnapshot
	src  []byte
}

type builderFunc func(b *builder, n *sitter.Node) (*Node, error)

// builders is the static dispatch table from raw tree-sitter kinds to
// builder functions. A kind missing here is an unsupported-syntax error.
var builders map[string]builderFunc

func init() {
	builders = map[string]builderFunc{
		"comment": buildComment,

		"import_statement":        buildImport,
		"import_from_statement":   buildImportFrom,
		"future_import_statement": buildFutureImport,

		"expression_statement": buildExpressionStatement,
		"assignment":           buildAssignment,
		"augmented_assignment":  buildAugAssign,

		"decorated_definition": buildDecorated,
		"function_definition":  buildFunction,
		"class_definition":     buildClass,

		"if_statement":    buildIf,
		"for_statement":   buildFor,
		"while_statement": buildWhile,
		"try_statement":   buildTry,
		"with_statement":  buildWith,
		"match_statement": buildMatch,
		"case_clause":     leaf(KindCase),

		"return_statement":   buildReturn,
		"pass_statement":     leaf(KindPass),
		"break_statement":    leaf(KindBreak),
		"continue_statement": leaf(KindContinue),
		"raise_statement":    leaf(KindRaise),
		"assert_statement":   leaf(KindAssert),
		"delete_statement":   buildDelete,
		"global_statement":   buildNames(KindGlobal),
		"nonlocal_statement": buildNames(KindNonlocal),
		"exec_statement":     leaf(KindExpr),
		"print_statement":    leaf(KindExpr),

		"identifier":         buildIdentifier,
		"attribute":          buildNamed(KindAttribute),
		"subscript":          buildNamed(KindSubscript),
		"slice":              leaf(KindSlice),
		"call":               buildCall,
		"lambda":             leaf(KindLambda),
		"await":              leaf(KindExpr),
		"named_expression":   leaf(KindExpr),
		"keyword_argument":   leaf(KindExpr),
		"type":               leaf(KindExpr),
		"yield":              leaf(KindExpr),

		"tuple":           buildTuple,
		"expression_list": buildTuple,
		"pattern_list":    buildTuple,
		"tuple_pattern":   buildTuple,
		"list":            leaf(KindList),
		"set":             leaf(KindSet),
		"dictionary":      leaf(KindDict),

		"list_comprehension":       leaf(KindListComp),
		"set_comprehension":        leaf(KindSetComp),
		"dictionary_comprehension": leaf(KindDictComp),
		"generator_expression":     leaf(KindGenerator),

		"parenthesized_expression": unwrapFirst,

		"conditional_expression": leaf(KindIfExp),
		"comparison_operator":    leaf(KindCompare),
		"binary_operator":        leaf(KindBinOp),
		"boolean_operator":       leaf(KindBoolOp),
		"unary_operator":         leaf(KindUnaryOp),
		"not_operator":           leaf(KindUnaryOp),

		"list_splat":         leaf(KindStarred),
		"list_splat_pattern": leaf(KindStarred),
		"dictionary_splat":   leaf(KindStarred),

		"string":              buildString,
		"concatenated_string": buildConcatString,
		"integer":             buildValue(KindInt),
		"float":               buildValue(KindFloat),
		"true":                buildValue(KindInt),
		"false":               buildValue(KindInt),
		"none":                leaf(KindNone),
		"ellipsis":            leaf(KindEllipsis),
	}
}

// buildRoot converts the raw module node into the Root node. The root
// itself is synthetic: it carries the zero span.
func buildRoot(snap *FileSnapshot, src []byte, raw *sitter.Node) (*Node, error) {
	if raw.Type() != "module" {
		return nil, &UnsupportedSyntaxError{RawKind: raw.Type(), Line: 1}
	}
	b := &builder{snap: snap, src: src}
	children, err := b.statements(raw)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KindRoot, Children: children, snap: snap}, nil
}

func (b *builder) build(n *sitter.Node) (*Node, error) {
	fn, ok := builders[n.Type()]
	if !ok {
		return nil, &UnsupportedSyntaxError{
			RawKind: n.Type(),
			Line:    int(n.StartPoint().Row) + 1,
		}
	}
	return fn(b, n)
}

func (b *builder) newNode(kind Kind, n *sitter.Node) *Node {
	sp := Span{
		Start: int(n.StartPoint().Row) + 1,
		End:   int(n.EndPoint().Row) + 1,
	}
	return &Node{
		Kind: kind,
		Span: sp,
		Tags: extractTags(b.snap, sp),
		snap: b.snap,
	}
}

func (b *builder) text(n *sitter.Node) string {
	return n.Content(b.src)
}

// statements builds every named child of a block-like raw node.
func (b *builder) statements(block *sitter.Node) ([]*Node, error) {
	if block == nil {
		return nil, nil
	}
	var out []*Node
	for i := 0; i < int(block.NamedChildCount()); i++ {
		node, err := b.build(block.NamedChild(i))
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

func leaf(kind Kind) builderFunc {
	return func(b *builder, n *sitter.Node) (*Node, error) {
		return b.newNode(kind, n), nil
	}
}

// buildNamed produces a leaf carrying its full source text as Name.
func buildNamed(kind Kind) builderFunc {
	return func(b *builder, n *sitter.Node) (*Node, error) {
		node := b.newNode(kind, n)
		node.Name = b.text(n)
		return node, nil
	}
}

func buildValue(kind Kind) builderFunc {
	return func(b *builder, n *sitter.Node) (*Node, error) {
		node := b.newNode(kind, n)
		node.Value = b.text(n)
		return node, nil
	}
}

func unwrapFirst(b *builder, n *sitter.Node) (*Node, error) {
	if n.NamedChildCount() == 0 {
		return b.newNode(KindExpr, n), nil
	}
	return b.build(n.NamedChild(0))
}

func buildComment(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindComment, n)
	node.Value = b.text(n)
	return node, nil
}

func buildIdentifier(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindName, n)
	node.Name = b.text(n)
	return node, nil
}

func buildCall(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindCall, n)
	if fn := n.ChildByFieldName("function"); fn != nil {
		node.Name = b.text(fn)
	}
	return node, nil
}

func buildTuple(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindTuple, n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		child, err := b.build(c)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func (b *builder) alias(n *sitter.Node) (*Node, error) {
	node := b.newNode(KindAlias, n)
	switch n.Type() {
	case "dotted_name", "relative_import":
		node.Name = b.text(n)
		node.SourceName = node.Name
	case "aliased_import":
		node.SourceName = b.text(n.ChildByFieldName("name"))
		node.Name = b.text(n.ChildByFieldName("alias"))
	case "wildcard_import":
		node.Name = "*"
		node.SourceName = "*"
	default:
		return nil, &UnsupportedSyntaxError{
			RawKind: n.Type(),
			Line:    int(n.StartPoint().Row) + 1,
		}
	}
	return node, nil
}

func buildImport(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindImport, n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		alias, err := b.alias(c)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, alias)
		node.Names = append(node.Names, alias.SourceName)
	}
	return node, nil
}

func buildImportFrom(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindImportFrom, n)
	seenModule := false
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "comment":
			continue
		case "relative_import":
			node.Name = b.text(c)
			seenModule = true
			continue
		case "dotted_name":
			if !seenModule {
				node.Name = b.text(c)
				seenModule = true
				continue
			}
		}
		alias, err := b.alias(c)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, alias)
		node.Names = append(node.Names, alias.Name)
	}
	return node, nil
}

// buildFutureImport maps `from __future__ import ...` onto an ordinary
// import-from node; the grammar gives it a dedicated kind because it may
// enable language features, but the rules treat it as any other import.
func buildFutureImport(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindImportFrom, n)
	node.Name = "__future__"
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		alias, err := b.alias(c)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, alias)
		node.Names = append(node.Names, alias.Name)
	}
	return node, nil
}

// buildExpressionStatement unwraps the statement to its payload, so a
// docstring surfaces as a string node and `x = 1` as an assignment.
func buildExpressionStatement(b *builder, n *sitter.Node) (*Node, error) {
	if n.NamedChildCount() == 0 {
		return b.newNode(KindExpr, n), nil
	}
	return b.build(n.NamedChild(0))
}

func buildAssignment(b *builder, n *sitter.Node) (*Node, error) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")

	if typ := n.ChildByFieldName("type"); typ != nil {
		node := b.newNode(KindAnnAssign, n)
		node.Name = b.text(left)
		if right != nil {
			child, err := b.build(right)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		}
		return node, nil
	}

	node := b.newNode(KindAssign, n)
	node.Names = b.targetNames(left)
	if right != nil {
		child, err := b.build(right)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func (b *builder) targetNames(left *sitter.Node) []string {
	if left == nil {
		return nil
	}
	switch left.Type() {
	case "pattern_list", "tuple_pattern", "expression_list", "tuple":
		var names []string
		for i := 0; i < int(left.NamedChildCount()); i++ {
			names = append(names, b.text(left.NamedChild(i)))
		}
		return names
	}
	return []string{b.text(left)}
}

func buildAugAssign(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindAugAssign, n)
	node.Name = b.text(n.ChildByFieldName("left"))
	if right := n.ChildByFieldName("right"); right != nil {
		child, err := b.build(right)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func buildDecorated(b *builder, n *sitter.Node) (*Node, error) {
	var decorators []string
	var def *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "decorator":
			decorators = append(decorators, strings.TrimPrefix(b.text(c), "@"))
		case "comment":
		default:
			def = c
		}
	}
	if def == nil {
		return nil, &UnsupportedSyntaxError{
			RawKind: n.Type(),
			Line:    int(n.StartPoint().Row) + 1,
		}
	}
	node, err := b.build(def)
	if err != nil {
		return nil, err
	}
	node.Decorators = decorators
	return node, nil
}

func buildFunction(b *builder, n *sitter.Node) (*Node, error) {
	kind := KindFunction
	if c := n.Child(0); c != nil && c.Type() == "async" {
		kind = KindAsyncFunction
	}
	node := b.newNode(kind, n)
	node.Name = b.text(n.ChildByFieldName("name"))
	node.HasReturn = n.ChildByFieldName("return_type") != nil
	children, err := b.statements(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	node.Children = children
	return node, nil
}

func buildClass(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindClass, n)
	node.Name = b.text(n.ChildByFieldName("name"))
	children, err := b.statements(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	node.Children = children
	return node, nil
}

func buildIf(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindIf, n)
	children, err := b.statements(n.ChildByFieldName("consequence"))
	if err != nil {
		return nil, err
	}
	node.Children = children

	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "elif_clause":
			elifNode := b.newNode(KindIf, c)
			elifNode.Children, err = b.statements(c.ChildByFieldName("consequence"))
			if err != nil {
				return nil, err
			}
			node.Else = append(node.Else, elifNode)
		case "else_clause":
			stmts, err := b.statements(c.ChildByFieldName("body"))
			if err != nil {
				return nil, err
			}
			node.Else = append(node.Else, stmts...)
		}
	}
	return node, nil
}

func buildFor(b *builder, n *sitter.Node) (*Node, error) {
	kind := KindFor
	if c := n.Child(0); c != nil && c.Type() == "async" {
		kind = KindAsyncFor
	}
	node := b.newNode(kind, n)
	children, err := b.statements(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	node.Children = children
	if err := b.elseArm(n, node); err != nil {
		return nil, err
	}
	return node, nil
}

func buildWhile(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindWhile, n)
	children, err := b.statements(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	node.Children = children
	if err := b.elseArm(n, node); err != nil {
		return nil, err
	}
	return node, nil
}

// elseArm fills node.Else from an optional trailing else_clause.
func (b *builder) elseArm(n *sitter.Node, node *Node) error {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "else_clause" {
			continue
		}
		stmts, err := b.statements(c.ChildByFieldName("body"))
		if err != nil {
			return err
		}
		node.Else = append(node.Else, stmts...)
	}
	return nil
}

func buildTry(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindTry, n)
	children, err := b.statements(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	node.Children = children

	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "except_clause", "except_group_clause", "finally_clause":
			stmts, err := b.statements(lastBlock(c))
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, stmts...)
		case "else_clause":
			stmts, err := b.statements(c.ChildByFieldName("body"))
			if err != nil {
				return nil, err
			}
			node.Else = append(node.Else, stmts...)
		}
	}
	return node, nil
}

func lastBlock(n *sitter.Node) *sitter.Node {
	for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
		if c := n.NamedChild(i); c.Type() == "block" {
			return c
		}
	}
	return nil
}

func buildWith(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindWith, n)
	children, err := b.statements(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	node.Children = children
	return node, nil
}

func buildMatch(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindMatch, n)
	if subject := n.ChildByFieldName("subject"); subject != nil {
		node.Name = b.text(subject)
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		body = n
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		if c.Type() != "case_clause" {
			continue
		}
		node.Children = append(node.Children, b.newNode(KindCase, c))
	}
	return node, nil
}

func buildReturn(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindReturn, n)
	if n.NamedChildCount() > 0 {
		node.Value = b.text(n.NamedChild(0))
	}
	return node, nil
}

func buildDelete(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindDelete, n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child, err := b.build(n.NamedChild(i))
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func buildNames(kind Kind) builderFunc {
	return func(b *builder, n *sitter.Node) (*Node, error) {
		node := b.newNode(kind, n)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			node.Names = append(node.Names, b.text(n.NamedChild(i)))
		}
		return node, nil
	}
}

func buildString(b *builder, n *sitter.Node) (*Node, error) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == "interpolation" {
			node := b.newNode(KindJoinedStr, n)
			node.Value = b.text(n)
			return node, nil
		}
	}
	txt := b.text(n)
	kind := KindString
	if isBytesLiteral(txt) {
		kind = KindBytes
	}
	node := b.newNode(kind, n)
	node.Value = unquote(txt)
	return node, nil
}

func buildConcatString(b *builder, n *sitter.Node) (*Node, error) {
	node := b.newNode(KindString, n)
	var parts []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "string" {
			continue
		}
		parts = append(parts, unquote(b.text(c)))
	}
	node.Value = strings.Join(parts, "")
	return node, nil
}

func isBytesLiteral(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'', '"':
			return false
		case 'b', 'B':
			return true
		}
	}
	return false
}

// unquote strips the prefix letters and the surrounding quotes from a
// string literal. Escape sequences are left as written.
func unquote(s string) string {
	i := 0
	for i < len(s) && s[i] != '\'' && s[i] != '"' {
		i++
	}
	s = s[i:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
