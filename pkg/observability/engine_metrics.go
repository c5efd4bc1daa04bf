package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/oometrics/pkg/metrics"
)

const (
	metricMemoHits   = "oometrics.memo.hits.total"
	metricMemoMisses = "oometrics.memo.misses.total"
	metricResets     = "oometrics.resets.total"

	attrMetric = "metric"
)

// EngineMetrics counts memo lookups and resets of a [metrics.Context]. A miss
// is always followed by one computation, so misses double as the
// computation count.
type EngineMetrics struct {
	hits   metric.Int64Counter
	misses metric.Int64Counter
	resets metric.Int64Counter
}

var _ metrics.Recorder = (*EngineMetrics)(nil)

// NewEngineMetrics creates the engine instruments from the given meter.
func NewEngineMetrics(mt metric.Meter) (*EngineMetrics, error) {
	b := newMetricBuilder(mt)

	em := &EngineMetrics{
		hits:   b.counter(metricMemoHits, "Memoized metric values served", "{lookup}"),
		misses: b.counter(metricMemoMisses, "Metric values computed on a memo miss", "{lookup}"),
		resets: b.counter(metricResets, "Engine context resets", "{reset}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return em, nil
}

// RecordLookup implements [metrics.Recorder]. Safe on a nil receiver.
func (em *EngineMetrics) RecordLookup(metricName string, hit bool) {
	if em == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrMetric, metricName))

	if hit {
		em.hits.Add(context.Background(), 1, attrs)

		return
	}

	em.misses.Add(context.Background(), 1, attrs)
}

// RecordReset implements [metrics.Recorder]. Safe on a nil receiver.
func (em *EngineMetrics) RecordReset() {
	if em == nil {
		return
	}

	em.resets.Add(context.Background(), 1)
}
