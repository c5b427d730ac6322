package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer hands out the tracer used for "commands.dispatch" spans. Each span
// carries the root command, the resolved sub-command and the outcome.
//
// Usage:
//
//	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
//	    ServiceName: "cmdtree",
//	    Endpoint:    "localhost:4317",
//	})
//	defer shutdown(context.Background())
//
//	core, err := commands.New(def, commands.WithTracer(tracer.Tracer()))
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	config   TraceConfig
}

// TraceConfig configures span export.
type TraceConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Endpoint is the OTLP gRPC collector address. Empty disables export.
	Endpoint string

	// SamplingRate is the fraction of dispatches traced; 0 traces none.
	SamplingRate float64

	EnableInsecure bool
}

// NewTracer builds a tracer and the function that flushes it on exit. When
// no endpoint is configured, or the exporter cannot be built, spans go to
// the global no-op provider.
func NewTracer(config TraceConfig) (*Tracer, func(context.Context) error) {
	if config.ServiceName == "" {
		config.ServiceName = "cmdtree"
	}
	disabled := &Tracer{tracer: otel.Tracer(config.ServiceName), config: config}
	noop := func(context.Context) error { return nil }

	if config.Endpoint == "" {
		return disabled, noop
	}
	provider, err := newProvider(config)
	if err != nil {
		otel.Handle(fmt.Errorf("tracing disabled: %w", err))
		return disabled, noop
	}

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t := &Tracer{provider: provider, tracer: provider.Tracer(config.ServiceName), config: config}
	return t, provider.Shutdown
}

func newProvider(config TraceConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(config.Endpoint)}
	if config.EnableInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(serviceResource(config)),
		sdktrace.WithSampler(samplerFor(config.SamplingRate)),
	), nil
}

func serviceResource(config TraceConfig) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
	}
	if config.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(config.Environment))
	}
	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return resource.Default()
	}
	return res
}

// samplerFor respects the parent's decision so a dispatch started from a
// traced Discord message stays in that trace.
func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// Tracer returns the tracer to pass to commands.WithTracer.
func (t *Tracer) Tracer() trace.Tracer {
	return t.tracer
}

// Exporting reports whether spans leave the process.
func (t *Tracer) Exporting() bool {
	return t.provider != nil
}
