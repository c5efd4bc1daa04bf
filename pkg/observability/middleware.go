package observability

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// httpOpPrefix prefixes the RED op label of HTTP routes, e.g. "http./metrics".
const httpOpPrefix = "http."

// statusWriter records the first status code written through it.
type statusWriter struct {
	http.ResponseWriter

	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.status == 0 {
		sw.status = code
	}

	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(buf []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}

	n, err := sw.ResponseWriter.Write(buf)
	if err != nil {
		return n, fmt.Errorf("write %s response: %w", http.StatusText(sw.status), err)
	}

	return n, nil
}

// code is the status the client saw. A handler that wrote nothing answered 200.
func (sw *statusWriter) code() int {
	if sw.status == 0 {
		return http.StatusOK
	}

	return sw.status
}

// HTTPMiddleware instruments one route of the metrics server. Each request
// gets a server span named "METHOD route" parented on any incoming W3C trace
// context, and, when red is non-nil, one RED sample with op "http.<route>".
// Status codes of 500 and above count as errors.
func HTTPMiddleware(tracer trace.Tracer, red *REDMetrics, route string, next http.Handler) http.Handler {
	op := httpOpPrefix + route

	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		start := time.Now()

		ctx := otel.GetTextMapPropagator().Extract(hr.Context(), propagation.HeaderCarrier(hr.Header))

		ctx, span := tracer.Start(ctx, hr.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(hr.Method),
				semconv.HTTPRouteKey.String(route),
			),
		)
		defer span.End()

		if red != nil {
			defer red.TrackInflight(ctx, op)()
		}

		sw := &statusWriter{ResponseWriter: rw}
		next.ServeHTTP(sw, hr.WithContext(ctx))

		code := sw.code()
		span.SetAttributes(semconv.HTTPResponseStatusCode(code))

		status := StatusOK
		if code >= http.StatusInternalServerError {
			status = StatusError

			span.SetStatus(codes.Error, http.StatusText(code))
		}

		if red != nil {
			red.RecordRequest(ctx, op, status, time.Since(start))
		}
	})
}
