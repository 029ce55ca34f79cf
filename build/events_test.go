package build

import "testing"

func TestWithPayloadLeavesOriginalUnchanged(t *testing.T) {
	base := NewEvent(EventStageFinished, "run-1").WithPayload("status", StatusSucceeded)
	failed := base.WithPayload("status", StatusFailed).WithPayload("error", "boom")

	if got := base.Payload["status"]; got != StatusSucceeded {
		t.Fatalf("base status = %v, want %v", got, StatusSucceeded)
	}
	if _, ok := base.Payload["error"]; ok {
		t.Fatal("base payload gained error key")
	}
	if got := failed.Payload["status"]; got != StatusFailed {
		t.Fatalf("derived status = %v, want %v", got, StatusFailed)
	}
	if got := failed.Payload["error"]; got != "boom" {
		t.Fatalf("derived error = %v, want boom", got)
	}
}

func TestWithPayloadOnZeroEvent(t *testing.T) {
	var e Event
	got := e.WithPayload("descriptor", "test_tool")
	if e.Payload != nil {
		t.Fatalf("zero event payload = %v, want nil", e.Payload)
	}
	if got.Payload["descriptor"] != "test_tool" {
		t.Fatalf("Payload = %v", got.Payload)
	}
}
