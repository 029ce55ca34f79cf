package otel

import (
	"context"
	"errors"
	"fmt"

	globalotel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/petal-labs/cwlforge/build"
)

const instrumentationName = "github.com/petal-labs/cwlforge"

// SetupConfig configures Setup.
type SetupConfig struct {
	// Endpoint is an OTLP/HTTP collector URL. Empty disables export.
	Endpoint string
	// Exporter, when set, receives spans synchronously instead of the OTLP exporter.
	Exporter sdktrace.SpanExporter
	// Meter defaults to the global meter provider's meter.
	Meter metric.Meter
}

// Telemetry bundles the handlers fed by build events.
type Telemetry struct {
	Tracing *TracingHandler
	Metrics *MetricsHandler

	provider *sdktrace.TracerProvider
}

// Setup creates a tracer provider and the build event handlers.
func Setup(ctx context.Context, cfg SetupConfig) (*Telemetry, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "cwlforge"),
		)),
	}
	switch {
	case cfg.Exporter != nil:
		opts = append(opts, sdktrace.WithSyncer(cfg.Exporter))
	case cfg.Endpoint != "":
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		if err != nil {
			return nil, fmt.Errorf("otel: create otlp exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(opts...)

	meter := cfg.Meter
	if meter == nil {
		meter = globalotel.GetMeterProvider().Meter(instrumentationName)
	}
	metrics, err := NewMetricsHandler(meter)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("otel: create metrics handler: %w", err)
	}

	return &Telemetry{
		Tracing:  NewTracingHandler(tp.Tracer(instrumentationName)),
		Metrics:  metrics,
		provider: tp,
	}, nil
}

// Emitter returns an emitter that feeds both handlers and then forwards the
// trace-enriched event to next. next may be nil.
func (t *Telemetry) Emitter(next build.EventEmitter) build.EventEmitter {
	handle := build.MultiEmitter(t.Tracing.Handle, t.Metrics.Handle)
	forward := func(e build.Event) {
		if next != nil {
			next(e)
		}
	}
	enriched := EnrichEmitter(forward, t.Tracing)
	return func(e build.Event) {
		// Finishing a build ends its span, so forward before handling it.
		if e.Kind == build.EventBuildFinished {
			enriched(e)
			handle(e)
			return
		}
		handle(e)
		enriched(e)
	}
}

// Shutdown flushes and stops the tracer provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	if err := t.provider.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("otel: shutdown tracer provider: %w", err)
	}
	return nil
}
