// Package metrics provides the object-oriented metrics engine: metric keys
// bound to node categories, metric-local versions, aggregation over the
// operations of a type, and a memoized Package → Type → Operation hierarchy
// of computed values.
//
// Every result is a float64. NaN means "not computable" and is the only
// failure signal of the engine.
package metrics

import (
	"math"
	"slices"

	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// Metric type constants used for grouping in reports.
const (
	TypeComplexity = "complexity"
	TypeSize       = "size"
	TypeCohesion   = "cohesion"
)

// Metric is the core interface that all metrics must implement.
// Each metric is a self-contained computation with metadata.
type Metric interface {
	// Name returns the machine-readable identifier (upper case, e.g. "CYCLO").
	Name() string

	// DisplayName returns a human-readable name for UI/reports.
	DisplayName() string

	// Description returns what the metric measures and how to read it.
	Description() string

	// Type returns the metric group (complexity, size, cohesion).
	Type() string

	// Compute calculates the metric for the node using the given version.
	// It returns NaN when the value cannot be computed. Metrics defined in
	// terms of other metrics query them through q so that their values are
	// shared with the memo tables of the calling Context.
	Compute(q Querier, n *node.Node, version Version) float64
}

// Versioned is implemented by metrics that recognize versions other than
// [Standard].
type Versioned interface {
	Versions() []Version
}

// Querier computes metric values, consulting and populating the memo tables.
type Querier interface {
	Compute(key *Key, n *node.Node, q Query) float64
}

// MetricMeta holds the common metadata for a metric.
// Embed this in metric implementations to satisfy metadata methods.
type MetricMeta struct {
	MetricName        string
	MetricDisplayName string
	MetricDescription string
	MetricType        string
}

// Name returns the machine-readable identifier.
func (m MetricMeta) Name() string { return m.MetricName }

// DisplayName returns a human-readable name for UI/reports.
func (m MetricMeta) DisplayName() string { return m.MetricDisplayName }

// Description returns detailed documentation.
func (m MetricMeta) Description() string { return m.MetricDescription }

// Type returns the metric group.
func (m MetricMeta) Type() string { return m.MetricType }

// Version selects an algorithmic variant of one metric. The meaning of a
// version is private to the metric that receives it.
type Version string

// Standard is the default version every metric understands.
const Standard Version = "standard"

// ResolveVersion maps a requested version onto one the metric recognizes.
// The empty version and versions the metric does not list resolve to [Standard].
func ResolveVersion(m Metric, version Version) Version {
	if version == "" || version == Standard {
		return Standard
	}

	versioned, ok := m.(Versioned)
	if !ok || !slices.Contains(versioned.Versions(), version) {
		return Standard
	}

	return version
}

// VersionsOf lists the versions a metric recognizes, [Standard] first.
func VersionsOf(m Metric) []Version {
	result := []Version{Standard}

	versioned, ok := m.(Versioned)
	if !ok {
		return result
	}

	for _, version := range versioned.Versions() {
		if version != Standard && !slices.Contains(result, version) {
			result = append(result, version)
		}
	}

	return result
}

// NaN returns the "not computable" value.
func NaN() float64 {
	return math.NaN()
}
