package uast_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/oometrics/pkg/analyzers/cohesion"
	"github.com/Sumatoshi-tech/oometrics/pkg/analyzers/complexity"
	"github.com/Sumatoshi-tech/oometrics/pkg/analyzers/size"
	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

const goCart = `package shop

import (
	"errors"
	"fmt"
	"sync"
)

// Cart holds line items.
type Cart struct {
	Items []Item
	total int
	sync.Mutex
}

type Item struct {
	Name, SKU string
	Price     int
}

type Pricer interface {
	Price(item Item) int
}

var errEmpty = errors.New("empty cart")

func (c *Cart) Add(item Item, qty int) error {
	if item.Price <= 0 || qty <= 0 {
		return fmt.Errorf("bad item %s", item.Name)
	}

	for i := 0; i < qty; i++ {
		c.Items = append(c.Items, item)
		c.total += item.Price
	}

	return nil
}

func (c *Cart) Total() int {
	return c.total
}

func (c *Cart) Check() error {
	switch {
	case len(c.Items) == 0:
		return errEmpty
	case c.total < 0:
		return fmt.Errorf("negative total")
	default:
		return nil
	}
}

func (l *Ledger) Post() {}

func NewCart() *Cart {
	return &Cart{}
}
`

func TestGo_Structure(t *testing.T) {
	t.Parallel()

	file := parse(t, "shop/cart.go", goCart)

	assert.Equal(t, "shop", file.PackageName())
	assert.Equal(t, "go", file.Prop(node.PropLanguage))
	assert.Equal(t, []string{"Cart", "Item", "Pricer"}, names(file.Types()))
	assert.Equal(t, []string{"NewCart", "Post"}, names(file.Operations()))

	imports := file.Find(func(n *node.Node) bool { return n.Type == node.UASTImport })
	require.Len(t, imports, 3)
	assert.Equal(t, "sync", imports[2].Token)

	cart := findType(t, file, "Cart")
	assert.Equal(t, node.UASTStruct, cart.Type)
	assert.True(t, cart.HasAllRoles(node.RolePublic, node.RoleExported))
	assert.Equal(t, []string{"Add", "Total", "Check"}, names(cart.Operations()))
	assert.Equal(t, []string{"Items", "total", "Mutex"}, names(cart.Fields()))
	assert.True(t, cart.Fields()[1].HasAnyRole(node.RolePrivate))

	item := findType(t, file, "Item")
	assert.Equal(t, []string{"Name", "SKU", "Price"}, names(item.Fields()))

	add := findOperation(t, cart, "Add")
	assert.Equal(t, []string{"item", "qty"}, names(add.Parameters()))
	assert.Equal(t, "Cart", add.Prop(node.PropReceiver))
	assert.Same(t, cart, add.EnclosingType())

	post := findOperation(t, file, "Post")
	assert.Equal(t, node.UASTMethod, post.Type)
	assert.Equal(t, "Ledger", post.Prop(node.PropReceiver))
	assert.Nil(t, post.EnclosingType())

	price := findOperation(t, findType(t, file, "Pricer"), "Price")
	assert.True(t, price.HasAllRoles(node.RoleAbstract, node.RoleExported))
	assert.Nil(t, price.Body())
}

func TestGo_Metrics(t *testing.T) {
	t.Parallel()

	file := parse(t, "shop/cart.go", goCart)
	cart := findType(t, file, "Cart")

	assert.InDelta(t, 4.0, compute(complexity.CycloKey, findOperation(t, cart, "Add")), 0)
	assert.InDelta(t, 1.0, compute(complexity.CycloKey, findOperation(t, cart, "Total")), 0)
	assert.InDelta(t, 3.0, compute(complexity.CycloKey, findOperation(t, cart, "Check")), 0)
	assert.InDelta(t, 8.0, compute(complexity.WMCKey, cart), 0)
	assert.InDelta(t, 3.0, compute(size.NOMKey, cart), 0)
	assert.InDelta(t, 2.0, compute(cohesion.NOPAKey, cart), 0)
	assert.InDelta(t, 1.0, compute(cohesion.NOAMKey, cart), 0)
	assert.InDelta(t, 1.0, compute(complexity.CycloKey, findOperation(t, file, "NewCart")), 0)
	assert.True(t, math.IsNaN(compute(complexity.WMCKey, findOperation(t, file, "NewCart"))))
}

func TestGo_ControlFlow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		body  string
		cyclo float64
	}{
		{name: "empty", body: "", cyclo: 1},
		{name: "logical if", body: "if a && b { return }", cyclo: 3},
		{name: "initializer and else if", body: "if x := k; x > 0 { return } else if a { return }", cyclo: 3},
		{name: "range", body: "for i := range ch { _ = i }", cyclo: 2},
		{name: "forever", body: "for { break }", cyclo: 2},
		{name: "expression switch", body: "switch k { case 1, 2: return; case 3: return; default: }", cyclo: 3},
		{name: "type switch", body: "switch v := any(k).(type) { case int: _ = v; case string: }", cyclo: 3},
		{name: "select", body: "select { case v := <-ch: _ = v; default: }", cyclo: 2},
		{name: "func literal", body: "go func() { if a { return } }()", cyclo: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := "package flow\n\nfunc run(a, b bool, k int, ch chan int) {\n" + tt.body + "\n}\n"
			file := parse(t, "flow.go", src)
			run := findOperation(t, file, "run")

			assert.Len(t, run.Parameters(), 4)
			assert.InDelta(t, tt.cyclo, compute(complexity.CycloKey, run), 0, tt.body)
		})
	}
}
