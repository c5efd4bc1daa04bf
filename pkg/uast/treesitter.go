package uast

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// lowerer converts the root of one parsed file into a File node.
type lowerer interface {
	file(root sitter.Node) *node.Node
}

// treeSitterParser is the shared Parser implementation. Tree-sitter parsers
// are not safe for concurrent use, so each Parse call borrows one from a pool.
type treeSitterParser struct {
	language   string
	extensions []string
	newLowerer func(src []byte) lowerer
	pool       sync.Pool
}

func newTreeSitterParser(language string, extensions []string, newLowerer func(src []byte) lowerer) *treeSitterParser {
	p := &treeSitterParser{
		language:   language,
		extensions: extensions,
		newLowerer: newLowerer,
	}

	p.pool.New = func() any {
		tsParser := sitter.NewParser()
		tsParser.SetLanguage(GetLanguage(language))

		return tsParser
	}

	return p
}

// Language returns the language name.
func (p *treeSitterParser) Language() string {
	return p.language
}

// Extensions returns the supported file extensions.
func (p *treeSitterParser) Extensions() []string {
	return p.extensions
}

// Parse parses src and lowers it into a linked File node.
func (p *treeSitterParser) Parse(ctx context.Context, filename string, src []byte) (*node.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%s parser: failed to parse %s: %w", p.language, filename, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, fmt.Errorf("%w: %s", ErrNoRootNode, filename)
	}

	file := p.newLowerer(src).file(root)
	file.ID = filename
	setProp(file, node.PropLanguage, p.language)

	return file, nil
}

// frontend holds the language-specific parts of the lowering.
type frontend interface {
	// statement lowers one statement, or returns nil to drop it.
	statement(n sitter.Node) *node.Node

	// expression lowers language-specific expressions. It reports false to
	// fall back to the generic lowering.
	expression(n sitter.Node) (*node.Node, bool)
}

// lowering carries the source of one file and the shared lowering helpers.
type lowering struct {
	src []byte
	fe  frontend
}

func (l *lowering) text(n sitter.Node) string {
	return n.Content(l.src)
}

func (l *lowering) fieldText(n sitter.Node, field string) string {
	child, ok := fieldNode(n, field)
	if !ok {
		return ""
	}

	return l.text(child)
}

func (l *lowering) positions(n sitter.Node) *node.Positions {
	start := n.StartPoint()
	end := n.EndPoint()

	return node.NewPositions(
		start.Row+1,
		start.Column+1,
		n.StartByte(),
		end.Row+1,
		end.Column+1,
		n.EndByte(),
	)
}

func (l *lowering) newNode(nodeType node.Type, ts sitter.Node, roles ...node.Role) *node.Node {
	return node.NewBuilder().
		WithType(nodeType).
		WithRoles(roles...).
		WithPosition(l.positions(ts)).
		Build()
}

// expr lowers an expression. Binary operators keep their operator, names
// become identifiers and everything else keeps its lowered children.
func (l *lowering) expr(n sitter.Node) *node.Node {
	if n.IsNull() {
		return nil
	}

	if lowered, ok := l.fe.expression(n); ok {
		return lowered
	}

	switch n.Type() {
	case "binary_expression":
		out := l.newNode(node.UASTBinaryOp, n)

		if op, ok := fieldNode(n, "operator"); ok {
			setProp(out, node.PropOperator, l.text(op))
		}

		addChildren(out, l.expr(n.ChildByFieldName("left")), l.expr(n.ChildByFieldName("right")))

		return out
	case "identifier", "field_identifier":
		out := l.newNode(node.UASTIdentifier, n, node.RoleReference)
		out.Token = l.text(n)

		return out
	case "parenthesized_expression":
		children := namedChildren(n)
		if len(children) == 1 {
			return l.expr(children[0])
		}
	}

	children := namedChildren(n)
	if len(children) == 0 {
		out := l.newNode(node.UASTLiteral, n)
		out.Token = l.text(n)

		return out
	}

	out := l.newNode(node.UASTSynthetic, n)
	setProp(out, node.PropKind, n.Type())

	for _, child := range children {
		addChildren(out, l.expr(child))
	}

	return out
}

// condition wraps the lowered condition expressions of a branch or loop.
func (l *lowering) condition(ts sitter.Node, exprs ...*node.Node) *node.Node {
	out := l.newNode(node.UASTSynthetic, ts, node.RoleCondition)
	addChildren(out, exprs...)

	return out
}

// block lowers a brace-delimited statement list.
func (l *lowering) block(n sitter.Node, roles ...node.Role) *node.Node {
	out := l.newNode(node.UASTBlock, n, roles...)

	for _, child := range namedChildren(n) {
		if child.Type() == "statement_list" {
			for _, stmt := range namedChildren(child) {
				addChildren(out, l.fe.statement(stmt))
			}

			continue
		}

		addChildren(out, l.fe.statement(child))
	}

	return out
}

// statementBlock lowers a statement used as a branch or loop body and makes
// sure the result is a Block.
func (l *lowering) statementBlock(n sitter.Node) *node.Node {
	if n.IsNull() {
		return node.NewBuilder().WithType(node.UASTBlock).Build()
	}

	lowered := l.fe.statement(n)
	if lowered != nil && lowered.Type == node.UASTBlock {
		return lowered
	}

	out := l.newNode(node.UASTBlock, n)
	addChildren(out, lowered)

	return out
}

// generic lowers a statement the frontend has no dedicated shape for.
func (l *lowering) generic(n sitter.Node, nodeType node.Type, roles ...node.Role) *node.Node {
	out := l.newNode(nodeType, n, roles...)
	setProp(out, node.PropKind, n.Type())

	for _, child := range namedChildren(n) {
		if child.Type() == "block" {
			addChildren(out, l.block(child))

			continue
		}

		addChildren(out, l.expr(child))
	}

	return out
}

func fieldNode(n sitter.Node, name string) (sitter.Node, bool) {
	child := n.ChildByFieldName(name)

	return child, !child.IsNull()
}

// namedChildren returns the named children of n without comments and
// error-recovery nodes.
func namedChildren(n sitter.Node) []sitter.Node {
	if n.IsNull() {
		return nil
	}

	children := make([]sitter.Node, 0, n.NamedChildCount())

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		switch child.Type() {
		case "comment", "line_comment", "block_comment", "ERROR":
			continue
		}

		children = append(children, child)
	}

	return children
}

func childrenOfType(n sitter.Node, types ...string) []sitter.Node {
	var result []sitter.Node

	for _, child := range namedChildren(n) {
		for _, typ := range types {
			if child.Type() == typ {
				result = append(result, child)

				break
			}
		}
	}

	return result
}

func firstOfType(n sitter.Node, types ...string) (sitter.Node, bool) {
	found := childrenOfType(n, types...)
	if len(found) == 0 {
		return sitter.Node{}, false
	}

	return found[0], true
}

// sameNode reports whether a and b denote the same syntax node.
func sameNode(a, b sitter.Node) bool {
	return !a.IsNull() && !b.IsNull() &&
		a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func addChildren(parent *node.Node, children ...*node.Node) {
	for _, child := range children {
		if child != nil {
			parent.AddChild(child)
		}
	}
}

func addRoles(n *node.Node, roles ...node.Role) *node.Node {
	if n == nil {
		return nil
	}

	for _, role := range roles {
		if !n.HasAnyRole(role) {
			n.Roles = append(n.Roles, role)
		}
	}

	return n
}

func setProp(n *node.Node, key, value string) {
	if value == "" {
		return
	}

	if n.Props == nil {
		n.Props = make(map[string]string, 1)
	}

	n.Props[key] = value
}
