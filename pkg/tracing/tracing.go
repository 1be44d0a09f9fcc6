// Package tracing adapts OpenTelemetry spans to a narrow StartSpan
// signature, grounded on the teacher's pkg/tracing.OTelTracer.
package tracing

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer so orchestrator stages and
// external client calls can open spans without depending on the otel
// API directly (spec §4.7: audit log and traces share the same causal
// shape).
type Tracer struct {
	tracer oteltrace.Tracer
}

// New builds a Tracer from provider (falling back to the global
// provider when provider is nil; cmd/orchestrator-service passes nil and
// installs no global provider, so its spans are no-ops) and
// instrumentation name.
func New(provider oteltrace.TracerProvider, instrumentation string) *Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	if strings.TrimSpace(instrumentation) == "" {
		instrumentation = "research-orchestrator"
	}
	return &Tracer{tracer: provider.Tracer(instrumentation)}
}

// StartSpan opens a span named name with attrs and returns a context
// carrying it plus an end function to call with the operation's error
// (nil on success).
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func(error)) {
	if t == nil || t.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := t.tracer.Start(ctx, name, oteltrace.WithAttributes(convertAttrs(attrs)...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

func convertAttrs(attrs map[string]string) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	result := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		result = append(result, attribute.String(key, v))
	}
	return result
}
