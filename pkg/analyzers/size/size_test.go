package size_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/oometrics/pkg/analyzers/size"
	"github.com/Sumatoshi-tech/oometrics/pkg/metrics"
	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

const testPackage = "com.example.orders"

func stmt(nodeType node.Type, children ...*node.Node) *node.Node {
	return node.NewBuilder().WithType(nodeType).WithRoles(node.RoleStatement).WithChildren(children...).Build()
}

func param(name string) *node.Node {
	return node.NewBuilder().WithType(node.UASTParameter).WithProp(node.PropName, name).Build()
}

func field(name string) *node.Node {
	return node.NewBuilder().WithType(node.UASTField).WithProp(node.PropName, name).Build()
}

func method(name string, startLine, endLine uint, children ...*node.Node) *node.Node {
	return node.NewBuilder().
		WithType(node.UASTMethod).
		WithProp(node.PropName, name).
		WithPosition(node.NewPositions(startLine, 1, 0, endLine, 2, 0)).
		WithChildren(children...).
		Build()
}

func body(stmts ...*node.Node) *node.Node {
	return node.NewBuilder().WithType(node.UASTBlock).WithRoles(node.RoleBody).WithChildren(stmts...).Build()
}

func class(name string, startLine, endLine uint, members ...*node.Node) *node.Node {
	cls := node.NewBuilder().
		WithType(node.UASTClass).
		WithProp(node.PropName, name).
		WithPosition(node.NewPositions(startLine, 1, 0, endLine, 2, 0)).
		WithChildren(members...).
		Build()
	node.NewBuilder().WithType(node.UASTFile).WithProp(node.PropPackage, testPackage).WithChildren(cls).Build()

	return cls
}

// orderFixture declares two fields, a three-statement method with two
// parameters, an abstract method and a nested type.
type orderFixture struct {
	order    *node.Node
	place    *node.Node
	validate *node.Node
	nested   *node.Node
}

func newOrderFixture() orderFixture {
	place := method("place", 5, 14,
		param("customer"), param("items"),
		body(
			stmt(node.UASTAssignment),
			stmt(node.UASTIf, body(stmt(node.UASTReturn))),
			stmt(node.UASTReturn),
		))
	validate := method("validate", 16, 16, param("strict"))
	nestedOp := method("apply", 20, 22, body(stmt(node.UASTReturn)))
	nested := node.NewBuilder().WithType(node.UASTClass).WithProp(node.PropName, "Line").WithChildren(nestedOp).Build()

	order := class("Order", 1, 25, field("id"), field("total"), place, validate, nested)

	return orderFixture{order: order, place: place, validate: validate, nested: nested}
}

func TestSize_OperationMetrics(t *testing.T) {
	t.Parallel()

	fx := newOrderFixture()
	ctx := metrics.New(metrics.Options{})

	assert.InDelta(t, 5.0, ctx.Get(size.OperationNCSSKey, fx.place), 0)
	assert.InDelta(t, 1.0, ctx.Get(size.OperationNCSSKey, fx.validate), 0)
	assert.InDelta(t, 10.0, ctx.Get(size.OperationLOCKey, fx.place), 0)
	assert.InDelta(t, 1.0, ctx.Get(size.OperationLOCKey, fx.validate), 0)
	assert.InDelta(t, 2.0, ctx.Get(size.NPARAMKey, fx.place), 0)
	assert.InDelta(t, 1.0, ctx.Get(size.NPARAMKey, fx.validate), 0)
}

func TestSize_TypeMetrics(t *testing.T) {
	t.Parallel()

	fx := newOrderFixture()
	ctx := metrics.New(metrics.Options{})

	// 1 (declaration) + 2 (fields) + 5 (place) + 1 (validate).
	assert.InDelta(t, 9.0, ctx.Get(size.TypeNCSSKey, fx.order), 0)
	assert.InDelta(t, 25.0, ctx.Get(size.TypeLOCKey, fx.order), 0)
	assert.InDelta(t, 2.0, ctx.Get(size.NOMKey, fx.order), 0)
	assert.InDelta(t, 1.0, ctx.Get(size.NOMKey, fx.nested), 0)
	assert.InDelta(t, 3.0, ctx.GetAggregate(size.NPARAMKey, fx.order, metrics.Sum), 0)
	assert.InDelta(t, 2.0, ctx.GetAggregate(size.NPARAMKey, fx.order, metrics.Highest), 0)
}

func TestSize_LOCWithoutPositionsIsNaN(t *testing.T) {
	t.Parallel()

	op := node.NewBuilder().WithType(node.UASTMethod).WithProp(node.PropName, "run").Build()
	node.NewBuilder().WithType(node.UASTClass).WithProp(node.PropName, "Job").WithChildren(op).Build()

	assert.True(t, math.IsNaN(metrics.New(metrics.Options{}).Get(size.OperationLOCKey, op)))
}

func TestSize_CategoryMismatchIsNaN(t *testing.T) {
	t.Parallel()

	fx := newOrderFixture()
	ctx := metrics.New(metrics.Options{})

	assert.True(t, math.IsNaN(ctx.Get(size.NOMKey, fx.place)))
	assert.True(t, math.IsNaN(ctx.Get(size.NPARAMKey, fx.order)))
	assert.True(t, math.IsNaN(ctx.Get(size.TypeLOCKey, fx.place)))
}

func TestSize_KeysShareNamesAcrossCategories(t *testing.T) {
	t.Parallel()

	reg := metrics.NewRegistry(size.Keys()...)

	ncss, err := reg.Resolve("NCSS")
	assert.NoError(t, err)
	assert.Len(t, ncss, 2)
	assert.Equal(t, []string{"LOC", "NCSS", "NOM", "NPARAM"}, reg.Names())
}
