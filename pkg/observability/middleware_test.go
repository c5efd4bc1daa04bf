package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/oometrics/pkg/observability"
)

const scrapePath = "/metrics"

func newTestTracer(t *testing.T) (trace.Tracer, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	return tp.Tracer("test"), exporter
}

func scrape(handler http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, target, http.NoBody))

	return rec
}

// requestCount sums oometrics.requests.total points matching op and status.
func requestCount(t *testing.T, rm metricdata.ResourceMetrics, op, status string) int64 {
	t.Helper()

	m := findMetric(rm, "oometrics.requests.total")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64

	for _, dp := range sum.DataPoints {
		gotOp, _ := dp.Attributes.Value(attribute.Key("op"))
		gotStatus, _ := dp.Attributes.Value(attribute.Key("status"))

		if gotOp.AsString() == op && gotStatus.AsString() == status {
			total += dp.Value
		}
	}

	return total
}

func TestHTTPMiddleware_ScrapeSpanUsesRoute(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)

	metricsHandler := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte("# HELP oometrics_requests_total\n"))
	})

	rec := scrape(observability.HTTPMiddleware(tracer, nil, scrapePath, metricsHandler), http.MethodGet, "/metrics?name=oometrics_requests_total")

	assert.Equal(t, http.StatusOK, rec.Code)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /metrics", spans[0].Name)
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind)

	attrs := spanAttrMap(spans[0])
	assert.Equal(t, "/metrics", attrs["http.route"])
	assert.Equal(t, "GET", attrs["http.request.method"])
	assert.Equal(t, int64(http.StatusOK), attrs["http.response.status_code"])
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestHTTPMiddleware_RecordsScrapeRED(t *testing.T) {
	t.Parallel()

	tracer, _ := newTestTracer(t)
	red, reader := setupTestMeter(t)

	healthy := observability.HTTPMiddleware(tracer, red, scrapePath,
		http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) { rw.WriteHeader(http.StatusOK) }))
	failing := observability.HTTPMiddleware(tracer, red, scrapePath,
		http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
			http.Error(rw, "collect failed", http.StatusInternalServerError)
		}))

	scrape(healthy, http.MethodGet, scrapePath)
	scrape(healthy, http.MethodGet, scrapePath)
	scrape(failing, http.MethodGet, scrapePath)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), requestCount(t, rm, "http./metrics", observability.StatusOK))
	assert.Equal(t, int64(1), requestCount(t, rm, "http./metrics", observability.StatusError))
	require.NotNil(t, findMetric(rm, "oometrics.errors.total"))
}

func TestHTTPMiddleware_ServerErrorMarksSpan(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)

	handler := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusServiceUnavailable)
		rw.WriteHeader(http.StatusOK)
	})

	rec := scrape(observability.HTTPMiddleware(tracer, nil, scrapePath, handler), http.MethodGet, scrapePath)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, int64(http.StatusServiceUnavailable), spanAttrMap(spans[0])["http.response.status_code"])
}

func TestHTTPMiddleware_EmptyResponseCountsAsOK(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)

	scrape(observability.HTTPMiddleware(tracer, nil, scrapePath, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})),
		http.MethodHead, scrapePath)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "HEAD /metrics", spans[0].Name)
	assert.Equal(t, int64(http.StatusOK), spanAttrMap(spans[0])["http.response.status_code"])
}

func TestHTTPMiddleware_ExtractsTraceParent(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	parentTraceID := "0af7651916cd43dd8448eb211c80319c"
	parentSpanID := "00f067aa0ba902b7"

	var handlerSpan trace.SpanContext

	handler := http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		handlerSpan = trace.SpanContextFromContext(hr.Context())

		rw.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, scrapePath, http.NoBody)
	req.Header.Set("Traceparent", "00-"+parentTraceID+"-"+parentSpanID+"-01")

	observability.HTTPMiddleware(tracer, nil, scrapePath, handler).ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	assert.Equal(t, parentTraceID, spans[0].SpanContext.TraceID().String())
	assert.Equal(t, parentSpanID, spans[0].Parent.SpanID().String())
	assert.Equal(t, spans[0].SpanContext.SpanID(), handlerSpan.SpanID(), "handler runs inside the server span")
}
