package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	InitWithProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { _ = Shutdown(context.Background()) })
	return rec
}

func TestDisabledTracerIsNoop(t *testing.T) {
	require.NoError(t, Init(context.Background(), Config{Enabled: false}))
	assert.False(t, Enabled())

	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()
	assert.Empty(t, TraceID(ctx))
}

func TestInit_UnknownExporter(t *testing.T) {
	err := Init(context.Background(), Config{Enabled: true, Exporter: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unknown exporter")
}

func TestInit_NoneExporter(t *testing.T) {
	require.NoError(t, Init(context.Background(), Config{Enabled: true, Exporter: "none", SampleRate: 0.5}))
	t.Cleanup(func() { _ = Shutdown(context.Background()) })
	assert.True(t, Enabled())
}

func TestStartSpan_RecordsAttributesAndErrors(t *testing.T) {
	rec := withRecorder(t)

	ctx, span := StartClientSpan(context.Background(), "store.get", AttrState.String("counts"), AttrKeyLen.Int(3))
	assert.NotEmpty(t, TraceID(ctx))
	SetSpanError(span, errors.New("connection refused"))
	span.End()

	_, ok := StartSpan(ctx, "child")
	SetSpanOK(ok)
	ok.End()

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "store.get", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), AttrState.String("counts"))
	assert.Equal(t, ended[0].SpanContext().TraceID(), ended[1].Parent().TraceID())
	assert.Equal(t, codes.Ok, ended[1].Status().Code)
}

func TestHTTPMiddleware(t *testing.T) {
	rec := withRecorder(t)

	h := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/metrics", nil))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /metrics", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}
