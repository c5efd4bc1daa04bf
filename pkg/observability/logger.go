package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"
	attrVersion = "version"
)

// Keys stamped by [WithLogAttrs] callers. They share the span attribute
// namespace so a log line and its span can be joined on the same names.
const (
	LogKeyFile     = "file.path"
	LogKeyLanguage = "language"
	LogKeyTool     = "mcp.tool"
)

type logAttrsKey struct{}

// WithLogAttrs returns a context whose log records carry attrs in addition
// to any attributes already attached to ctx. Later values for the same key
// are appended, not merged.
func WithLogAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}

	prev := logAttrsFrom(ctx)
	merged := make([]slog.Attr, 0, len(prev)+len(attrs))
	merged = append(merged, prev...)
	merged = append(merged, attrs...)

	return context.WithValue(ctx, logAttrsKey{}, merged)
}

func logAttrsFrom(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	attrs, _ := ctx.Value(logAttrsKey{}).([]slog.Attr)

	return attrs
}

// TracingHandler is an [slog.Handler] for oometrics processes. Every record
// gets the service identity (service, mode, version, env) at the top level,
// the trace_id and span_id of the active span, and the attributes attached
// to the context with [WithLogAttrs].
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner with the identity of the running process.
// Empty version and env are omitted.
func NewTracingHandler(inner slog.Handler, cfg Config) *TracingHandler {
	attrs := []slog.Attr{
		slog.String(attrService, cfg.ServiceName),
		slog.String(attrMode, string(cfg.Mode)),
	}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, slog.String(attrVersion, cfg.ServiceVersion))
	}

	if cfg.Environment != "" {
		attrs = append(attrs, slog.String(attrEnv, cfg.Environment))
	}

	return &TracingHandler{inner: inner.WithAttrs(attrs)}
}

func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle stamps the context attributes onto record and delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(logAttrsFrom(ctx)...)

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	if err := th.inner.Handle(ctx, record); err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{inner: th.inner.WithAttrs(attrs)}
}

func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{inner: th.inner.WithGroup(name)}
}
