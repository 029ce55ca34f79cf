package otel_test

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/petal-labs/cwlforge/build"
	forgeotel "github.com/petal-labs/cwlforge/otel"
)

// newTestMeter returns a meter backed by a manual reader for collecting metrics in tests.
func newTestMeter() (*metric.ManualReader, *metric.MeterProvider) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	return reader, mp
}

func collectMetrics(t *testing.T, reader *metric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, scope := range rm.ScopeMetrics {
		for i := range scope.Metrics {
			if scope.Metrics[i].Name == name {
				return &scope.Metrics[i]
			}
		}
	}
	return nil
}

func sumOf(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	data, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64] data, got %T", m.Data)
	}
	var total int64
	for _, dp := range data.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetricsHandler_BuildFinished(t *testing.T) {
	reader, mp := newTestMeter()
	h, err := forgeotel.NewMetricsHandler(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetricsHandler: %v", err)
	}

	h.Handle(build.Event{
		Kind:    build.EventBuildFinished,
		RunID:   "run-1",
		Elapsed: 250 * time.Millisecond,
		Payload: map[string]any{"status": build.StatusSucceeded, "expressions": 3},
	})
	h.Handle(build.Event{
		Kind:    build.EventBuildFinished,
		RunID:   "run-2",
		Elapsed: 50 * time.Millisecond,
		Payload: map[string]any{"status": build.StatusFailed},
	})

	rm := collectMetrics(t, reader)

	builds := findMetric(rm, "cwlforge.builds")
	if builds == nil {
		t.Fatal("cwlforge.builds metric not found")
	}
	if got := sumOf(t, builds); got != 2 {
		t.Fatalf("cwlforge.builds = %d, want 2", got)
	}

	exprs := findMetric(rm, "cwlforge.expressions")
	if exprs == nil {
		t.Fatal("cwlforge.expressions metric not found")
	}
	if got := sumOf(t, exprs); got != 3 {
		t.Fatalf("cwlforge.expressions = %d, want 3", got)
	}

	dur := findMetric(rm, "cwlforge.build.duration")
	if dur == nil {
		t.Fatal("cwlforge.build.duration metric not found")
	}
	hist, ok := dur.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64] data, got %T", dur.Data)
	}
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 2 {
		t.Fatalf("duration count = %d, want 2", count)
	}
}

func TestMetricsHandler_StageFailed(t *testing.T) {
	reader, mp := newTestMeter()
	h, err := forgeotel.NewMetricsHandler(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetricsHandler: %v", err)
	}

	h.Handle(build.Event{Kind: build.EventStageFailed, RunID: "run-1", Stage: build.StageLint})
	h.Handle(build.Event{Kind: build.EventStageFinished, RunID: "run-1", Stage: build.StageLoad})

	rm := collectMetrics(t, reader)
	failures := findMetric(rm, "cwlforge.build.failures")
	if failures == nil {
		t.Fatal("cwlforge.build.failures metric not found")
	}
	data := failures.Data.(metricdata.Sum[int64])
	if len(data.DataPoints) != 1 {
		t.Fatalf("expected 1 data point, got %d", len(data.DataPoints))
	}
	stage, ok := data.DataPoints[0].Attributes.Value("stage")
	if !ok || stage.AsString() != string(build.StageLint) {
		t.Fatalf("stage attribute = %v, want lint", stage.AsString())
	}
}
