package node_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// Test constants to avoid magic strings.
const (
	testPackage   = "com.example.shop"
	testClassName = "Cart"
	testInnerName = "Line"
)

func method(name string, body ...*node.Node) *node.Node {
	builder := node.NewBuilder().
		WithType(node.UASTMethod).
		WithRoles(node.RoleFunction, node.RoleDeclaration).
		WithProp(node.PropName, name)

	if body != nil {
		block := node.NewBuilder().WithType(node.UASTBlock).WithRoles(node.RoleBody).WithChildren(body...).Build()
		builder.WithChildren(block)
	}

	return builder.Build()
}

func class(name string, members ...*node.Node) *node.Node {
	return node.NewBuilder().
		WithType(node.UASTClass).
		WithProp(node.PropName, name).
		WithChildren(members...).
		Build()
}

func file(types ...*node.Node) *node.Node {
	return node.NewBuilder().
		WithType(node.UASTFile).
		WithProp(node.PropPackage, testPackage).
		WithChildren(types...).
		Build()
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		nodeType node.Type
		want     node.Category
	}{
		{node.UASTFile, node.CategoryPackage},
		{node.UASTClass, node.CategoryType},
		{node.UASTInterface, node.CategoryType},
		{node.UASTStruct, node.CategoryType},
		{node.UASTEnum, node.CategoryType},
		{node.UASTMethod, node.CategoryOperation},
		{node.UASTFunction, node.CategoryOperation},
		{node.UASTLambda, node.CategoryOther},
		{node.UASTIf, node.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(string(tt.nodeType), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, node.CategoryOf(tt.nodeType))
		})
	}
}

func TestCategory_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "type", node.CategoryType.String())
	assert.Equal(t, "operation", node.CategoryOperation.String())
	assert.Equal(t, "unknown", node.Category(42).String())
}

func TestEnclosingTypeAndPackage(t *testing.T) {
	t.Parallel()

	add := method("add", node.New(node.UASTReturn, ""))
	inner := class(testInnerName, method("total", node.New(node.UASTReturn, "")))
	cart := class(testClassName, add, inner)
	root := file(cart)

	assert.Same(t, cart, add.EnclosingType())
	assert.Same(t, root, cart.EnclosingPackage())
	assert.Nil(t, cart.EnclosingType())
	assert.Equal(t, testPackage, add.PackageName())
	assert.Equal(t, testPackage, root.PackageName())

	innerOp := inner.Operations()[0]
	assert.Same(t, inner, innerOp.EnclosingType())
}

func TestOperations_DirectOnlyInDeclarationOrder(t *testing.T) {
	t.Parallel()

	first := method("first", node.New(node.UASTReturn, ""))
	second := method("second", node.New(node.UASTReturn, ""))
	nested := class(testInnerName, method("hidden"))
	bodyWrapper := node.NewBuilder().WithType(node.UASTBlock).WithChildren(second).Build()
	cart := class(testClassName, first, nested, bodyWrapper)

	ops := cart.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "first", ops[0].Name())
	assert.Equal(t, "second", ops[1].Name())

	types := cart.Types()
	require.Len(t, types, 1)
	assert.Equal(t, testInnerName, types[0].Name())
}

func TestFieldsAndParameters(t *testing.T) {
	t.Parallel()

	field := node.NewBuilder().WithType(node.UASTField).WithProp(node.PropName, "items").Build()
	param := node.NewBuilder().WithType(node.UASTParameter).WithProp(node.PropName, "qty").Build()
	op := node.NewBuilder().WithType(node.UASTMethod).WithChildren(param).Build()
	cart := class(testClassName, field, op)

	fields := cart.Fields()
	require.Len(t, fields, 1)
	assert.Equal(t, "items", fields[0].Name())

	params := op.Parameters()
	require.Len(t, params, 1)
	assert.Equal(t, "qty", params[0].Name())
	assert.Nil(t, op.Body())
}

func TestName_FallsBackToNameRole(t *testing.T) {
	t.Parallel()

	ident := node.New(node.UASTIdentifier, "checkout", node.RoleName)
	op := node.NewBuilder().WithType(node.UASTMethod).WithChildren(ident).Build()

	assert.Equal(t, "checkout", op.Name())
	assert.Empty(t, (*node.Node)(nil).Name())
}

func TestLink_RestoresParents(t *testing.T) {
	t.Parallel()

	op := &node.Node{Type: node.UASTMethod}
	cart := &node.Node{Type: node.UASTClass, Children: []*node.Node{op}}
	root := &node.Node{Type: node.UASTFile, Children: []*node.Node{cart}}

	assert.Nil(t, op.Parent())

	root.Link()

	assert.Same(t, cart, op.Parent())
	assert.Same(t, cart, op.EnclosingType())
	assert.Equal(t, []*node.Node{root, cart}, op.Ancestors())
}

func TestWalk_SkipsSubtree(t *testing.T) {
	t.Parallel()

	leaf := node.New(node.UASTIdentifier, "x")
	skipped := node.NewBuilder().WithType(node.UASTLambda).WithChildren(leaf).Build()
	root := node.NewBuilder().WithType(node.UASTBlock).WithChildren(skipped).Build()

	var visited []node.Type

	root.Walk(func(curr *node.Node) bool {
		visited = append(visited, curr.Type)

		return curr.Type != node.UASTLambda
	})

	assert.Equal(t, []node.Type{node.UASTBlock, node.UASTLambda}, visited)
}

func TestVisitOrders(t *testing.T) {
	t.Parallel()

	left := node.New(node.UASTIdentifier, "a")
	right := node.New(node.UASTIdentifier, "b")
	root := node.NewBuilder().WithType(node.UASTBinaryOp).WithChildren(left, right).Build()

	var pre, post []string

	root.VisitPreOrder(func(curr *node.Node) { pre = append(pre, curr.Token) })
	root.VisitPostOrder(func(curr *node.Node) { post = append(post, curr.Token) })

	assert.Equal(t, []string{"", "a", "b"}, pre)
	assert.Equal(t, []string{"a", "b", ""}, post)

	found := root.Find(func(curr *node.Node) bool { return curr.Type == node.UASTIdentifier })
	assert.Len(t, found, 2)
}

func TestRemoveChild(t *testing.T) {
	t.Parallel()

	child := node.New(node.UASTIdentifier, "a")
	root := node.NewBuilder().WithType(node.UASTBlock).WithChildren(child).Build()

	assert.True(t, root.RemoveChild(child))
	assert.Nil(t, child.Parent())
	assert.Empty(t, root.Children)
	assert.False(t, root.RemoveChild(child))
}

func TestPositions_Lines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint(3), node.NewPositions(10, 1, 0, 12, 2, 0).Lines())
	assert.Equal(t, uint(0), (*node.Positions)(nil).Lines())
}

func TestString(t *testing.T) {
	t.Parallel()

	op := method("pay")
	op.Pos = &node.Positions{StartLine: 7}

	assert.Equal(t, "Node{Type:Method,Name:pay,Line:7}", op.String())
	assert.Equal(t, "nil", (*node.Node)(nil).String())
}
