package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/petal-labs/cwlforge/build"
)

// MetricsHandler translates build events into OpenTelemetry metrics.
type MetricsHandler struct {
	builds        metric.Int64Counter
	buildFailures metric.Int64Counter
	buildDuration metric.Float64Histogram
	expressions   metric.Int64Counter
}

// NewMetricsHandler creates a MetricsHandler whose instruments come from meter.
func NewMetricsHandler(meter metric.Meter) (*MetricsHandler, error) {
	builds, err := meter.Int64Counter("cwlforge.builds",
		metric.WithDescription("Number of completed builds"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("cwlforge.build.failures",
		metric.WithDescription("Number of failed builds by stage"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("cwlforge.build.duration",
		metric.WithDescription("Duration of a build in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	expressions, err := meter.Int64Counter("cwlforge.expressions",
		metric.WithDescription("Number of expressions in built descriptors"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricsHandler{
		builds:        builds,
		buildFailures: failures,
		buildDuration: duration,
		expressions:   expressions,
	}, nil
}

// Handle processes a build event and records the appropriate metrics.
func (h *MetricsHandler) Handle(e build.Event) {
	switch e.Kind {
	case build.EventStageFailed:
		h.buildFailures.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("stage", string(e.Stage)),
		))
	case build.EventBuildFinished:
		h.handleBuildFinished(e)
	}
}

func (h *MetricsHandler) handleBuildFinished(e build.Event) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("status", payloadString(e, "status")),
	)
	h.builds.Add(ctx, 1, attrs)
	h.buildDuration.Record(ctx, e.Elapsed.Seconds(), attrs)

	if n, ok := e.Payload["expressions"].(int); ok && n > 0 {
		h.expressions.Add(ctx, int64(n))
	}
}
