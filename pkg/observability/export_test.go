package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	TracerName = tracerName
	MeterName  = meterName
)

func BuildResource(cfg Config) (*resource.Resource, error) {
	return buildResource(cfg)
}

func BuildLogger(cfg Config, w io.Writer) *slog.Logger {
	return buildLogger(cfg, w)
}

// RootSpanSampled reports whether a root span is sampled under cfg.
func RootSpanSampled(cfg Config) bool {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(selectSampler(cfg)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer(tracerName).Start(context.Background(), "oometrics.run")
	defer span.End()

	return span.SpanContext().IsSampled()
}
