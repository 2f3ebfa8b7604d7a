package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// InitStructured reconfigures the operational logger based on format settings.
// format: "text" (default) or "json"
// level: "debug", "info", "warn", "error"
func InitStructured(format, level string) {
	InitStructuredTo(os.Stderr, format, level)
}

// InitStructuredTo is InitStructured with an explicit destination.
func InitStructuredTo(w io.Writer, format, level string) {
	SetLevelFromString(level)

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	opLogger.Store(slog.New(handler))
}

// ForState returns the operational logger tagged with a state handle name
// and its eviction policy.
func ForState(name, policy string) *slog.Logger {
	return opLogger.Load().With("state", name, "policy", policy)
}

// WithTrace adds trace_id and span_id from the span in ctx, if any.
func WithTrace(ctx context.Context, l *slog.Logger) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
}
