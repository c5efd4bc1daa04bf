package metrics

import (
	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// Key identifies a metric bound to the node category it applies to.
// Keys are immutable and meant to be created once and shared.
type Key struct {
	name     string
	metric   Metric
	category node.Category
	guard    func(*node.Node) bool
}

// KeyOption customizes a Key at construction.
type KeyOption func(*Key)

// WithName overrides the key name, which defaults to the metric name.
func WithName(name string) KeyOption {
	return func(k *Key) {
		k.name = name
	}
}

// WithGuard adds a structural precondition on top of the category check.
// The guard must be cheap and must not traverse descendants.
func WithGuard(guard func(*node.Node) bool) KeyOption {
	return func(k *Key) {
		k.guard = guard
	}
}

// NewKey binds a metric to a node category. It panics on a nil metric and on
// a category outside the package, type and operation levels, since only those
// nodes have a stats record.
func NewKey(metric Metric, category node.Category, opts ...KeyOption) *Key {
	if metric == nil {
		panic("metrics: NewKey called with nil metric")
	}

	switch category {
	case node.CategoryPackage, node.CategoryType, node.CategoryOperation:
	default:
		panic("metrics: NewKey called with category " + category.String())
	}

	key := &Key{
		name:     metric.Name(),
		metric:   metric,
		category: category,
	}

	for _, opt := range opts {
		opt(key)
	}

	return key
}

// Name returns the key name.
func (k *Key) Name() string { return k.name }

// Metric returns the metric the key is bound to.
func (k *Key) Metric() Metric { return k.metric }

// Category returns the node category the key applies to.
func (k *Key) Category() node.Category { return k.category }

// Supports reports whether the metric may be computed for n. It does not
// depend on the version.
func (k *Key) Supports(n *node.Node) bool {
	if n == nil || n.Category() != k.category {
		return false
	}

	return k.guard == nil || k.guard(n)
}

// String returns "NAME(category)".
func (k *Key) String() string {
	return k.name + "(" + k.category.String() + ")"
}

// HasBody is a guard accepting operations that declare a body.
func HasBody(n *node.Node) bool {
	return n.Body() != nil
}
