package metrics_test

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Sumatoshi-tech/oometrics/pkg/metrics"
	"github.com/Sumatoshi-tech/oometrics/pkg/uast/pkg/node"
)

// Test constants to avoid magic strings/numbers.
const (
	testMetricName        = "STUB"
	testMetricDisplayName = "Stub Metric"
	testMetricDescription = "A call-counting metric for unit testing"
	testAltVersion        = metrics.Version("alternate")
	testUnknownVersion    = metrics.Version("no_such_version")
	testAltMultiplier     = 10
	testPackage           = "com.example.shop"
	testClassName         = "Cart"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingMetric returns a fixed value per node name and counts invocations.
type countingMetric struct {
	metrics.MetricMeta

	values   map[string]float64
	versions []metrics.Version
	calls    atomic.Int64
}

func newCountingMetric(values map[string]float64) *countingMetric {
	return &countingMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        testMetricName,
			MetricDisplayName: testMetricDisplayName,
			MetricDescription: testMetricDescription,
			MetricType:        metrics.TypeComplexity,
		},
		values:   values,
		versions: []metrics.Version{testAltVersion},
	}
}

func (m *countingMetric) Compute(_ metrics.Querier, n *node.Node, version metrics.Version) float64 {
	m.calls.Add(1)

	value, ok := m.values[n.Name()]
	if !ok {
		return math.NaN()
	}

	if version == testAltVersion {
		return value * testAltMultiplier
	}

	return value
}

func (m *countingMetric) Versions() []metrics.Version {
	return m.versions
}

func operation(name string) *node.Node {
	body := node.NewBuilder().WithType(node.UASTBlock).WithRoles(node.RoleBody).Build()

	return node.NewBuilder().
		WithType(node.UASTMethod).
		WithProp(node.PropName, name).
		WithChildren(body).
		Build()
}

func typeDecl(name string, members ...*node.Node) *node.Node {
	return node.NewBuilder().
		WithType(node.UASTClass).
		WithProp(node.PropName, name).
		WithChildren(members...).
		Build()
}

func compilationUnit(pkg string, types ...*node.Node) *node.Node {
	return node.NewBuilder().
		WithType(node.UASTFile).
		WithProp(node.PropPackage, pkg).
		WithChildren(types...).
		Build()
}

func TestMetricMeta(t *testing.T) {
	t.Parallel()

	meta := metrics.MetricMeta{
		MetricName:        testMetricName,
		MetricDisplayName: testMetricDisplayName,
		MetricDescription: testMetricDescription,
		MetricType:        metrics.TypeSize,
	}

	assert.Equal(t, testMetricName, meta.Name())
	assert.Equal(t, testMetricDisplayName, meta.DisplayName())
	assert.Equal(t, testMetricDescription, meta.Description())
	assert.Equal(t, metrics.TypeSize, meta.Type())
}

func TestResolveVersion(t *testing.T) {
	t.Parallel()

	stub := newCountingMetric(nil)

	assert.Equal(t, metrics.Standard, metrics.ResolveVersion(stub, ""))
	assert.Equal(t, metrics.Standard, metrics.ResolveVersion(stub, metrics.Standard))
	assert.Equal(t, testAltVersion, metrics.ResolveVersion(stub, testAltVersion))
	assert.Equal(t, metrics.Standard, metrics.ResolveVersion(stub, testUnknownVersion))
}

func TestVersionsOf(t *testing.T) {
	t.Parallel()

	stub := newCountingMetric(nil)
	stub.versions = []metrics.Version{metrics.Standard, testAltVersion, testAltVersion}

	assert.Equal(t, []metrics.Version{metrics.Standard, testAltVersion}, metrics.VersionsOf(stub))
}

func TestNewKey(t *testing.T) {
	t.Parallel()

	stub := newCountingMetric(nil)
	key := metrics.NewKey(stub, node.CategoryOperation)

	assert.Equal(t, testMetricName, key.Name())
	assert.Same(t, stub, key.Metric())
	assert.Equal(t, node.CategoryOperation, key.Category())
	assert.Equal(t, "STUB(operation)", key.String())

	renamed := metrics.NewKey(stub, node.CategoryType, metrics.WithName("OTHER"))
	assert.Equal(t, "OTHER", renamed.Name())

	assert.Panics(t, func() { metrics.NewKey(nil, node.CategoryType) })
}

func TestNewKey_RejectsCategoryWithoutRecord(t *testing.T) {
	t.Parallel()

	stub := newCountingMetric(nil)

	assert.PanicsWithValue(t, "metrics: NewKey called with category other", func() {
		metrics.NewKey(stub, node.CategoryOther)
	})
	assert.Panics(t, func() { metrics.NewKey(stub, node.Category(42)) })

	for _, category := range []node.Category{node.CategoryPackage, node.CategoryType, node.CategoryOperation} {
		assert.NotPanics(t, func() { metrics.NewKey(stub, category) }, category.String())
	}
}

func TestKey_Supports(t *testing.T) {
	t.Parallel()

	opKey := metrics.NewKey(newCountingMetric(nil), node.CategoryOperation, metrics.WithGuard(metrics.HasBody))

	withBody := operation("pay")
	bodiless := node.NewBuilder().WithType(node.UASTMethod).WithProp(node.PropName, "abstractPay").Build()
	cart := typeDecl(testClassName, withBody)

	assert.True(t, opKey.Supports(withBody))
	assert.False(t, opKey.Supports(bodiless))
	assert.False(t, opKey.Supports(cart))
	assert.False(t, opKey.Supports(nil))
}

func TestParseResultOption(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  metrics.ResultOption
	}{
		{"sum", metrics.Sum},
		{"AVERAGE", metrics.Average},
		{"avg", metrics.Average},
		{"highest", metrics.Highest},
		{" max ", metrics.Highest},
		{"", metrics.OptionNone},
	}

	for _, tt := range tests {
		got, err := metrics.ParseResultOption(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := metrics.ParseResultOption("median")
	require.ErrorIs(t, err, metrics.ErrUnknownOption)
}

func TestResultOption_StringAndValid(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "sum", metrics.Sum.String())
	assert.Equal(t, "highest", metrics.Highest.String())
	assert.Equal(t, "option(9)", metrics.ResultOption(9).String())
	assert.True(t, metrics.Average.Valid())
	assert.False(t, metrics.OptionNone.Valid())
	assert.False(t, metrics.ResultOption(9).Valid())
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	values := []float64{2, 4, math.NaN(), 6}

	assert.InDelta(t, 12.0, metrics.Aggregate(metrics.Sum, values), 0)
	assert.InDelta(t, 4.0, metrics.Aggregate(metrics.Average, values), 0)
	assert.InDelta(t, 6.0, metrics.Aggregate(metrics.Highest, values), 0)
	assert.True(t, math.IsNaN(metrics.Aggregate(metrics.OptionNone, values)))
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	for _, values := range [][]float64{nil, {math.NaN(), math.NaN()}} {
		assert.InDelta(t, 0.0, metrics.Aggregate(metrics.Sum, values), 0)
		assert.True(t, math.IsNaN(metrics.Aggregate(metrics.Average, values)))
		assert.True(t, math.IsNaN(metrics.Aggregate(metrics.Highest, values)))
	}
}

func TestAggregate_NegativeHighest(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, -1.0, metrics.Aggregate(metrics.Highest, []float64{-3, -1, -2}), 0)
}

func TestAggregate_Deterministic(t *testing.T) {
	t.Parallel()

	values := []float64{0.1, 0.2, 0.3, 1e16, -1e16, 0.7}
	first := metrics.Aggregate(metrics.Sum, values)

	for range 100 {
		assert.Equal(t, math.Float64bits(first), math.Float64bits(metrics.Aggregate(metrics.Sum, values)))
	}
}
