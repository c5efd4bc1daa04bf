// Package complexity provides control-flow complexity metrics for operations
// (CYCLO, COGNITIVE) and their type-level rollup (WMC).
package complexity

import (
	"math"

	"github.com/Sumatoshi-tech/oometrics/pkg/metrics"
	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// IgnoreBooleanPaths is the CYCLO version that does not count && and ||
// as extra decision points.
const IgnoreBooleanPaths metrics.Version = "ignore_boolean_paths"

// Complexity thresholds used as report defaults.
const (
	CyclomaticThresholdHigh     = 10
	CyclomaticThresholdModerate = 5
	CognitiveThresholdHigh      = 15
	CognitiveThresholdModerate  = 7
	WMCThresholdHigh            = 47
	WMCThresholdModerate        = 30
)

// CycloMetric computes McCabe's cyclomatic complexity of an operation body.
type CycloMetric struct {
	metrics.MetricMeta
}

// NewCycloMetric creates the cyclomatic complexity metric.
func NewCycloMetric() *CycloMetric {
	return &CycloMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "CYCLO",
			MetricDisplayName: "Cyclomatic Complexity",
			MetricDescription: "Number of independent paths through an operation: 1 plus one per " +
				"branch, loop, non-default case label, catch clause and boolean operator.",
			MetricType: metrics.TypeComplexity,
		},
	}
}

// Versions lists the non-standard versions CYCLO recognizes.
func (m *CycloMetric) Versions() []metrics.Version {
	return []metrics.Version{IgnoreBooleanPaths}
}

// Compute counts decision points in the body of op.
func (m *CycloMetric) Compute(_ metrics.Querier, op *node.Node, version metrics.Version) float64 {
	if op.Body() == nil {
		return math.NaN()
	}

	countBoolean := version != IgnoreBooleanPaths
	complexity := 1

	walkOwnBody(op, func(curr *node.Node) bool {
		if isDecisionPoint(curr) || (countBoolean && isLogicalOperation(curr)) {
			complexity++
		}

		return true
	})

	return float64(complexity)
}

func isDecisionPoint(n *node.Node) bool {
	switch n.Type {
	case node.UASTIf, node.UASTLoop, node.UASTCatch:
		return true
	case node.UASTCase:
		return !isDefaultCase(n)
	default:
		return false
	}
}

// WMCMetric sums the cyclomatic complexity of the operations a type declares.
type WMCMetric struct {
	metrics.MetricMeta

	cyclo *metrics.Key
}

// NewWMCMetric creates the weighted method count metric on top of a CYCLO key.
func NewWMCMetric(cyclo *metrics.Key) *WMCMetric {
	return &WMCMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "WMC",
			MetricDisplayName: "Weighted Method Count",
			MetricDescription: "Sum of the cyclomatic complexity of the operations declared by a type. " +
				"Bodiless operations are not counted.",
			MetricType: metrics.TypeComplexity,
		},
		cyclo: cyclo,
	}
}

// Versions mirrors the versions of the underlying CYCLO metric.
func (m *WMCMetric) Versions() []metrics.Version {
	return metrics.VersionsOf(m.cyclo.Metric())
}

// Compute aggregates CYCLO over the operations of typeNode.
func (m *WMCMetric) Compute(q metrics.Querier, typeNode *node.Node, version metrics.Version) float64 {
	return q.Compute(m.cyclo, typeNode, metrics.Query{Version: version, Option: metrics.Sum})
}

// Keys of the complexity metrics.
var (
	CycloKey     = metrics.NewKey(NewCycloMetric(), node.CategoryOperation, metrics.WithGuard(metrics.HasBody))
	CognitiveKey = metrics.NewKey(NewCognitiveMetric(), node.CategoryOperation, metrics.WithGuard(metrics.HasBody))
	WMCKey       = metrics.NewKey(NewWMCMetric(CycloKey), node.CategoryType)
)

// Keys returns the complexity keys in catalog order.
func Keys() []*metrics.Key {
	return []*metrics.Key{CycloKey, CognitiveKey, WMCKey}
}
