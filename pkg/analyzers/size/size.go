// Package size provides size metrics for operations and types: statement
// counts, physical lines, operation counts and parameter counts.
package size

import (
	"math"

	"github.com/Sumatoshi-tech/oometrics/pkg/metrics"
	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// Size thresholds used as report defaults.
const (
	NCSSThresholdOperation = 60
	NCSSThresholdType      = 1500
	NOMThreshold           = 20
	NPARAMThreshold        = 5
)

// OperationNCSSMetric counts non-commenting source statements of an operation.
type OperationNCSSMetric struct {
	metrics.MetricMeta
}

// NewOperationNCSSMetric creates the operation NCSS metric.
func NewOperationNCSSMetric() *OperationNCSSMetric {
	return &OperationNCSSMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "NCSS",
			MetricDisplayName: "Non-Commenting Source Statements",
			MetricDescription: "Statements of an operation, counting the declaration itself. " +
				"Comments and blank lines never count.",
			MetricType: metrics.TypeSize,
		},
	}
}

// Compute counts the declaration plus every statement in its body.
func (m *OperationNCSSMetric) Compute(_ metrics.Querier, op *node.Node, _ metrics.Version) float64 {
	return float64(1 + countStatements(op.Body()))
}

func countStatements(body *node.Node) int {
	if body == nil {
		return 0
	}

	count := 0

	body.Walk(func(curr *node.Node) bool {
		if curr != body && curr.Category() != node.CategoryOther {
			return false
		}

		if isStatement(curr) {
			count++
		}

		return true
	})

	return count
}

func isStatement(n *node.Node) bool {
	if n.HasAnyRole(node.RoleStatement) {
		return true
	}

	switch n.Type {
	case node.UASTCatch, node.UASTFinally, node.UASTCase:
		return true
	default:
		return false
	}
}

// TypeNCSSMetric counts statements of a type: the declaration, its fields and
// the NCSS of every operation it declares.
type TypeNCSSMetric struct {
	metrics.MetricMeta

	operation *metrics.Key
}

// NewTypeNCSSMetric creates the type NCSS metric on top of the operation key.
func NewTypeNCSSMetric(operation *metrics.Key) *TypeNCSSMetric {
	return &TypeNCSSMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "NCSS",
			MetricDisplayName: "Non-Commenting Source Statements",
			MetricDescription: "Statements of a type: its declaration, field declarations and the " +
				"NCSS of every operation it declares.",
			MetricType: metrics.TypeSize,
		},
		operation: operation,
	}
}

// Compute sums operation NCSS and adds the type's own declarations.
func (m *TypeNCSSMetric) Compute(q metrics.Querier, typeNode *node.Node, version metrics.Version) float64 {
	operations := q.Compute(m.operation, typeNode, metrics.Query{Version: version, Option: metrics.Sum})

	return 1 + float64(len(typeNode.Fields())) + operations
}

// LOCMetric counts physical lines spanned by a declaration.
type LOCMetric struct {
	metrics.MetricMeta
}

// NewLOCMetric creates the lines-of-code metric.
func NewLOCMetric() *LOCMetric {
	return &LOCMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "LOC",
			MetricDisplayName: "Lines of Code",
			MetricDescription: "Physical lines spanned by the declaration, including comments and blank lines.",
			MetricType:        metrics.TypeSize,
		},
	}
}

// Compute returns the line span of n, or NaN without position information.
func (m *LOCMetric) Compute(_ metrics.Querier, n *node.Node, _ metrics.Version) float64 {
	lines := n.Pos.Lines()
	if lines == 0 {
		return math.NaN()
	}

	return float64(lines)
}

// NOMMetric counts the operations a type declares directly.
type NOMMetric struct {
	metrics.MetricMeta
}

// NewNOMMetric creates the number-of-operations metric.
func NewNOMMetric() *NOMMetric {
	return &NOMMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "NOM",
			MetricDisplayName: "Number of Operations",
			MetricDescription: "Operations declared directly by a type, including bodiless ones. " +
				"Operations of nested types are not counted.",
			MetricType: metrics.TypeSize,
		},
	}
}

// Compute counts the operations of typeNode.
func (m *NOMMetric) Compute(_ metrics.Querier, typeNode *node.Node, _ metrics.Version) float64 {
	return float64(len(typeNode.Operations()))
}

// NPARAMMetric counts formal parameters of an operation.
type NPARAMMetric struct {
	metrics.MetricMeta
}

// NewNPARAMMetric creates the parameter-count metric.
func NewNPARAMMetric() *NPARAMMetric {
	return &NPARAMMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "NPARAM",
			MetricDisplayName: "Number of Parameters",
			MetricDescription: "Formal parameters declared by an operation.",
			MetricType:        metrics.TypeSize,
		},
	}
}

// Compute counts the parameters of op.
func (m *NPARAMMetric) Compute(_ metrics.Querier, op *node.Node, _ metrics.Version) float64 {
	return float64(len(op.Parameters()))
}

// Keys of the size metrics.
var (
	OperationNCSSKey = metrics.NewKey(NewOperationNCSSMetric(), node.CategoryOperation)
	TypeNCSSKey      = metrics.NewKey(NewTypeNCSSMetric(OperationNCSSKey), node.CategoryType)
	OperationLOCKey  = metrics.NewKey(NewLOCMetric(), node.CategoryOperation)
	TypeLOCKey       = metrics.NewKey(NewLOCMetric(), node.CategoryType)
	NOMKey           = metrics.NewKey(NewNOMMetric(), node.CategoryType)
	NPARAMKey        = metrics.NewKey(NewNPARAMMetric(), node.CategoryOperation)
)

// Keys returns the size keys in catalog order.
func Keys() []*metrics.Key {
	return []*metrics.Key{OperationNCSSKey, OperationLOCKey, NPARAMKey, TypeNCSSKey, TypeLOCKey, NOMKey}
}
