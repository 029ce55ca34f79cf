package otel

import (
	"github.com/petal-labs/cwlforge/build"
)

// EnrichEmitter wraps an EventEmitter so that events carry the trace ID of
// the active build span. Events pass through unchanged when no span is active.
func EnrichEmitter(emit build.EventEmitter, tracing *TracingHandler) build.EventEmitter {
	return func(e build.Event) {
		if e.TraceID == "" && e.RunID != "" {
			sc := tracing.ActiveBuildSpanContext(e.RunID)
			if sc.IsValid() {
				e.TraceID = sc.TraceID().String()
			}
		}
		emit(e)
	}
}
