// Package cohesion provides type-level cohesion and encapsulation metrics:
// LCOM, TCC, WOC, NOAM and NOPA.
package cohesion

import (
	"math"

	"github.com/Sumatoshi-tech/oometrics/pkg/metrics"
	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// Cohesion thresholds used as report defaults.
const (
	LCOMThresholdHigh = 0.8
	TCCThresholdLow   = 1.0 / 3.0
	WOCThresholdLow   = 1.0 / 3.0
	NOPAThreshold     = 5
	NOAMThreshold     = 5
)

// LCOMMetric computes Henderson-Sellers lack of cohesion of methods.
type LCOMMetric struct {
	metrics.MetricMeta
}

// NewLCOMMetric creates the LCOM metric.
func NewLCOMMetric() *LCOMMetric {
	return &LCOMMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "LCOM",
			MetricDisplayName: "Lack of Cohesion of Methods",
			MetricDescription: "Henderson-Sellers LCOM: 1 - sum(mA)/(m*a) over operations with a body " +
				"and declared fields. 0 is fully cohesive, 1 is not cohesive at all.",
			MetricType: metrics.TypeCohesion,
		},
	}
}

// Compute calculates LCOM-HS for typeNode.
func (m *LCOMMetric) Compute(_ metrics.Querier, typeNode *node.Node, _ metrics.Version) float64 {
	return calculateLCOM(collectFunctions(typeNode), fieldNames(typeNode))
}

// TCCMetric computes tight class cohesion.
type TCCMetric struct {
	metrics.MetricMeta
}

// NewTCCMetric creates the TCC metric.
func NewTCCMetric() *TCCMetric {
	return &TCCMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "TCC",
			MetricDisplayName: "Tight Class Cohesion",
			MetricDescription: "Share of operation pairs that use at least one common field. " +
				"Not computable with fewer than two operations.",
			MetricType: metrics.TypeCohesion,
		},
	}
}

// Compute calculates TCC for typeNode.
func (m *TCCMetric) Compute(_ metrics.Querier, typeNode *node.Node, _ metrics.Version) float64 {
	return calculateTCC(collectFunctions(typeNode))
}

// WOCMetric computes the weight of class.
type WOCMetric struct {
	metrics.MetricMeta
}

// NewWOCMetric creates the WOC metric.
func NewWOCMetric() *WOCMetric {
	return &WOCMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "WOC",
			MetricDisplayName: "Weight of Class",
			MetricDescription: "Functional public operations divided by all public operations, " +
				"accessors and constructors excluded from the numerator.",
			MetricType: metrics.TypeCohesion,
		},
	}
}

// Compute calculates WOC, or NaN when the type has no public operation.
func (m *WOCMetric) Compute(_ metrics.Querier, typeNode *node.Node, _ metrics.Version) float64 {
	fields := fieldNames(typeNode)
	public := 0
	functional := 0

	for _, op := range typeNode.Operations() {
		if !isPublic(op) || isConstructor(op) {
			continue
		}

		public++

		if !isAccessor(op, fields) {
			functional++
		}
	}

	if public == 0 {
		return math.NaN()
	}

	return float64(functional) / float64(public)
}

// NOAMMetric counts public accessor operations.
type NOAMMetric struct {
	metrics.MetricMeta
}

// NewNOAMMetric creates the NOAM metric.
func NewNOAMMetric() *NOAMMetric {
	return &NOAMMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "NOAM",
			MetricDisplayName: "Number of Accessor Methods",
			MetricDescription: "Public getters and setters declared by a type.",
			MetricType:        metrics.TypeCohesion,
		},
	}
}

// Compute counts public accessors of typeNode.
func (m *NOAMMetric) Compute(_ metrics.Querier, typeNode *node.Node, _ metrics.Version) float64 {
	fields := fieldNames(typeNode)
	count := 0

	for _, op := range typeNode.Operations() {
		if isPublic(op) && isAccessor(op, fields) {
			count++
		}
	}

	return float64(count)
}

// NOPAMetric counts public attributes.
type NOPAMetric struct {
	metrics.MetricMeta
}

// NewNOPAMetric creates the NOPA metric.
func NewNOPAMetric() *NOPAMetric {
	return &NOPAMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "NOPA",
			MetricDisplayName: "Number of Public Attributes",
			MetricDescription: "Public fields of a type that are not constants.",
			MetricType:        metrics.TypeCohesion,
		},
	}
}

// Compute counts public non-constant fields of typeNode.
func (m *NOPAMetric) Compute(_ metrics.Querier, typeNode *node.Node, _ metrics.Version) float64 {
	count := 0

	for _, field := range typeNode.Fields() {
		if isPublic(field) && !field.HasAnyRole(node.RoleConstant) {
			count++
		}
	}

	return float64(count)
}

// Keys of the cohesion metrics.
var (
	LCOMKey = metrics.NewKey(NewLCOMMetric(), node.CategoryType)
	TCCKey  = metrics.NewKey(NewTCCMetric(), node.CategoryType)
	WOCKey  = metrics.NewKey(NewWOCMetric(), node.CategoryType)
	NOAMKey = metrics.NewKey(NewNOAMMetric(), node.CategoryType)
	NOPAKey = metrics.NewKey(NewNOPAMetric(), node.CategoryType)
)

// Keys returns the cohesion keys in catalog order.
func Keys() []*metrics.Key {
	return []*metrics.Key{NOAMKey, NOPAKey, WOCKey, LCOMKey, TCCKey}
}
