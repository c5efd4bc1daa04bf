package observability

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// attributePolicy decides which span attributes reach the exporter. Blocked
// rules win over allowed ones; keys matching neither are dropped.
type attributePolicy struct {
	allowPrefixes []string
	allowKeys     []string
	blockSuffixes []string
	blockPrefixes []string
	blockKeys     []string
}

// spanPolicy keeps engine, file and transport attributes and drops anything
// that can carry measured source code or user data.
var spanPolicy = attributePolicy{
	allowPrefixes: []string{"oometrics.", "metric.", "file.", "run.", "mcp.", "http.", "error."},
	allowKeys:     []string{"error", "language", "files", "records"},
	blockSuffixes: []string{".code", ".content", ".source", ".body"},
	blockPrefixes: []string{"user."},
	blockKeys:     []string{"email", "code"},
}

func (p attributePolicy) blocked(key string) bool {
	if slices.Contains(p.blockKeys, key) {
		return true
	}

	return slices.ContainsFunc(p.blockPrefixes, func(prefix string) bool { return strings.HasPrefix(key, prefix) }) ||
		slices.ContainsFunc(p.blockSuffixes, func(suffix string) bool { return strings.HasSuffix(key, suffix) })
}

func (p attributePolicy) allowed(key string) bool {
	if p.blocked(key) {
		return false
	}

	return slices.Contains(p.allowKeys, key) ||
		slices.ContainsFunc(p.allowPrefixes, func(prefix string) bool { return strings.HasPrefix(key, prefix) })
}

// attributeFilter is a SpanProcessor that hands its delegate a view of each
// ended span with only the attributes the policy allows.
type attributeFilter struct {
	delegate sdktrace.SpanProcessor
	policy   attributePolicy
	logger   *slog.Logger
}

// NewAttributeFilter wraps delegate with the span attribute policy. Source
// snippets (keys ending in .code, .content, .source or .body), user.* keys
// and unknown keys are dropped. A non-nil logger receives one warning per
// dropped key.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate, policy: spanPolicy, logger: logger}
}

func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s, attrs: f.filter(s.Attributes())})
}

func (f *attributeFilter) Shutdown(ctx context.Context) error {
	if err := f.delegate.Shutdown(ctx); err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	if err := f.delegate.ForceFlush(ctx); err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

func (f *attributeFilter) filter(attrs []attribute.KeyValue) []attribute.KeyValue {
	kept := make([]attribute.KeyValue, 0, len(attrs))

	for _, kv := range attrs {
		key := string(kv.Key)

		if f.policy.allowed(key) {
			kept = append(kept, kv)

			continue
		}

		if f.logger != nil {
			f.logger.Warn("span attribute dropped", "key", key)
		}
	}

	return kept
}

// filteredSpan overrides the attributes of a read-only span.
type filteredSpan struct {
	sdktrace.ReadOnlySpan

	attrs []attribute.KeyValue
}

func (s *filteredSpan) Attributes() []attribute.KeyValue {
	return s.attrs
}
