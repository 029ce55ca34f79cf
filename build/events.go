package build

import (
	"maps"
	"time"
)

// EventKind identifies the type of event emitted by a build.
type EventKind string

const (
	// EventBuildStarted is emitted when a build begins.
	EventBuildStarted EventKind = "build.started"

	// EventStageFinished is emitted when a stage completes successfully.
	EventStageFinished EventKind = "stage.finished"

	// EventStageFailed is emitted when a stage returns an error.
	EventStageFailed EventKind = "stage.failed"

	// EventBuildFinished is emitted once per build, successful or not.
	EventBuildFinished EventKind = "build.finished"
)

// Stage names one step of the build pipeline.
type Stage string

const (
	StageLoad   Stage = "load"
	StageBuild  Stage = "build"
	StageLint   Stage = "lint"
	StageEncode Stage = "encode"
)

// Status values carried by EventBuildFinished.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Event is a record of one step of a build.
type Event struct {
	Kind  EventKind
	RunID string
	// Stage is empty for build-level events.
	Stage Stage
	Time  time.Time
	// Elapsed is the duration since the build or stage started.
	Elapsed time.Duration
	Payload map[string]any

	// TraceID is the OpenTelemetry trace ID (hex-encoded, empty when OTel inactive).
	TraceID string
}

// NewEvent creates an event stamped with the current time.
func NewEvent(kind EventKind, runID string) Event {
	return Event{
		Kind:    kind,
		RunID:   runID,
		Time:    time.Now(),
		Payload: make(map[string]any),
	}
}

// WithStage sets the stage on the event.
func (e Event) WithStage(s Stage) Event {
	e.Stage = s
	return e
}

// WithElapsed sets the elapsed duration on the event.
func (e Event) WithElapsed(elapsed time.Duration) Event {
	e.Elapsed = elapsed
	return e
}

// WithPayload returns a copy of the event with key set in its payload. The
// receiver's payload is not modified.
func (e Event) WithPayload(key string, value any) Event {
	payload := maps.Clone(e.Payload)
	if payload == nil {
		payload = make(map[string]any, 1)
	}
	payload[key] = value
	e.Payload = payload
	return e
}

// EventEmitter receives build events.
type EventEmitter func(Event)

// MultiEmitter fans one event out to several emitters.
func MultiEmitter(emitters ...EventEmitter) EventEmitter {
	return func(e Event) {
		for _, emit := range emitters {
			if emit != nil {
				emit(e)
			}
		}
	}
}
