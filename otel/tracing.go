// Package otel provides OpenTelemetry integration for build events.
package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/cwlforge/build"
)

// TracingHandler translates build events into OpenTelemetry spans: one span
// per build with a child span per stage.
type TracingHandler struct {
	tracer trace.Tracer

	mu         sync.RWMutex
	buildSpans map[string]trace.Span      // runID -> span
	buildCtxs  map[string]context.Context // runID -> context (for child spans)
}

// NewTracingHandler creates a new TracingHandler that uses the given tracer.
func NewTracingHandler(tracer trace.Tracer) *TracingHandler {
	return &TracingHandler{
		tracer:     tracer,
		buildSpans: make(map[string]trace.Span),
		buildCtxs:  make(map[string]context.Context),
	}
}

// Handle processes a build event and creates or ends spans accordingly.
func (h *TracingHandler) Handle(e build.Event) {
	switch e.Kind {
	case build.EventBuildStarted:
		h.handleBuildStarted(e)
	case build.EventStageFinished, build.EventStageFailed:
		h.handleStage(e)
	case build.EventBuildFinished:
		h.handleBuildFinished(e)
	}
}

func (h *TracingHandler) handleBuildStarted(e build.Event) {
	ctx, span := h.tracer.Start(context.Background(), "build:"+e.RunID,
		trace.WithAttributes(
			attribute.String("cwlforge.run_id", e.RunID),
		),
		trace.WithTimestamp(e.Time),
	)
	if recipe := payloadString(e, "recipe"); recipe != "" {
		span.SetAttributes(attribute.String("cwlforge.recipe", recipe))
	}

	h.mu.Lock()
	h.buildSpans[e.RunID] = span
	h.buildCtxs[e.RunID] = ctx
	h.mu.Unlock()
}

// handleStage records a completed stage as a child span. Stages report only on
// completion, so the span start is reconstructed from the elapsed time.
func (h *TracingHandler) handleStage(e build.Event) {
	h.mu.RLock()
	parentCtx, ok := h.buildCtxs[e.RunID]
	h.mu.RUnlock()
	if !ok {
		parentCtx = context.Background()
	}

	_, span := h.tracer.Start(parentCtx, "stage:"+string(e.Stage),
		trace.WithAttributes(
			attribute.String("cwlforge.run_id", e.RunID),
			attribute.String("cwlforge.stage", string(e.Stage)),
		),
		trace.WithTimestamp(e.Time.Add(-e.Elapsed)),
	)

	if e.Kind == build.EventStageFailed {
		errMsg := payloadString(e, "error")
		if errMsg == "" {
			errMsg = "unknown error"
		}
		span.SetStatus(codes.Error, errMsg)
		span.RecordError(spanError(errMsg), trace.WithTimestamp(e.Time))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(e.Time))
}

func (h *TracingHandler) handleBuildFinished(e build.Event) {
	h.mu.Lock()
	span, ok := h.buildSpans[e.RunID]
	if ok {
		delete(h.buildSpans, e.RunID)
		delete(h.buildCtxs, e.RunID)
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	status := payloadString(e, "status")
	span.SetAttributes(
		attribute.String("cwlforge.duration", e.Elapsed.String()),
		attribute.String("cwlforge.status", status),
	)
	if id := payloadString(e, "descriptor"); id != "" {
		span.SetAttributes(attribute.String("cwlforge.descriptor", id))
	}

	if status == build.StatusFailed {
		errMsg := payloadString(e, "error")
		if errMsg == "" {
			errMsg = "build failed"
		}
		span.SetStatus(codes.Error, errMsg)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(e.Time))
}

// ActiveBuildSpanContext returns the SpanContext of the running build
// identified by runID. Returns an empty SpanContext if not found.
func (h *TracingHandler) ActiveBuildSpanContext(runID string) trace.SpanContext {
	h.mu.RLock()
	span, ok := h.buildSpans[runID]
	h.mu.RUnlock()

	if !ok {
		return trace.SpanContext{}
	}
	return span.SpanContext()
}

func payloadString(e build.Event, key string) string {
	if v, ok := e.Payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// spanError is a simple error type for recording span errors.
type spanError string

func (e spanError) Error() string { return string(e) }
