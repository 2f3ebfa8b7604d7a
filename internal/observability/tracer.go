package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan creates a new span with the given name and attributes
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartClientSpan creates a span for a call into an external store
func StartClientSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError marks the span as errored
func SetSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanOK marks the span as successful
func SetSpanOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// TraceID returns the trace ID from context as a string
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// Common attribute keys for statecache spans
var (
	AttrState    = attribute.Key("statecache.state")
	AttrPolicy   = attribute.Key("statecache.policy")
	AttrCapacity = attribute.Key("statecache.capacity")
	AttrKeyLen   = attribute.Key("statecache.key_len")
	AttrValueLen = attribute.Key("statecache.value_len")
	AttrReason   = attribute.Key("statecache.flush_reason")
	AttrOutcome  = attribute.Key("statecache.outcome")
	AttrFlushed  = attribute.Key("statecache.flushed")
	AttrRunID    = attribute.Key("statecache.run_id")
)
