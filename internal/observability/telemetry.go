package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config holds telemetry configuration
type Config struct {
	Enabled     bool    `yaml:"enabled" env:"ENABLED"`
	Exporter    string  `yaml:"exporter" env:"EXPORTER"`       // otlp-http, none
	Endpoint    string  `yaml:"endpoint" env:"ENDPOINT"`       // localhost:4318
	ServiceName string  `yaml:"service_name" env:"SERVICE"`    // statecache
	SampleRate  float64 `yaml:"sample_rate" env:"SAMPLE_RATE"` // 0.0 to 1.0
}

// DefaultConfig returns tracing disabled with OTLP/HTTP settings ready to
// switch on.
func DefaultConfig() Config {
	return Config{
		Exporter:    "otlp-http",
		Endpoint:    "localhost:4318",
		ServiceName: "statecache",
		SampleRate:  1.0,
	}
}

// Provider wraps the OpenTelemetry TracerProvider
type Provider struct {
	tp      *sdktrace.TracerProvider
	tracer  trace.Tracer
	enabled bool
}

var globalProvider = disabledProvider()

func disabledProvider() *Provider {
	return &Provider{tracer: noop.NewTracerProvider().Tracer("")}
}

// Init initializes the global telemetry provider
func Init(ctx context.Context, cfg Config) error {
	if !cfg.Enabled {
		globalProvider = disabledProvider()
		return nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "statecache"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return err
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRate < 1.0 && cfg.SampleRate >= 0 {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	return install(sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	), cfg.ServiceName)
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "otlp-http", "otlp", "":
		exp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create OTLP exporter: %w", err)
		}
		return exp, nil
	case "none":
		// spans are sampled and recorded but never shipped
		return &noopExporter{}, nil
	default:
		return nil, fmt.Errorf("unknown exporter: %s", cfg.Exporter)
	}
}

// InitWithProvider installs an already built tracer provider, typically one
// backed by an in-memory recorder in tests.
func InitWithProvider(tp *sdktrace.TracerProvider) {
	_ = install(tp, "statecache")
}

func install(tp *sdktrace.TracerProvider, name string) error {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	globalProvider = &Provider{
		tp:      tp,
		tracer:  tp.Tracer(name),
		enabled: true,
	}
	return nil
}

// Shutdown flushes pending spans and shuts down the telemetry provider
func Shutdown(ctx context.Context) error {
	if globalProvider.tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := globalProvider.tp.Shutdown(ctx)
	globalProvider = disabledProvider()
	return err
}

// Tracer returns the global tracer
func Tracer() trace.Tracer {
	return globalProvider.tracer
}

// Enabled returns whether tracing is enabled
func Enabled() bool {
	return globalProvider.enabled
}

type noopExporter struct{}

func (e *noopExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	return nil
}

func (e *noopExporter) Shutdown(ctx context.Context) error {
	return nil
}
