package build

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petal-labs/cwlforge/cwl"
	"github.com/petal-labs/cwlforge/encode"
)

const recipeYAML = `
id: bwa_mem
label: BWA mem
baseCommand: bwa mem
stdout: "$job.inputs.reads.path + '.sam'"
inputs:
  - id: reads
    type: File
    prefix: -r
outputs:
  - id: sam
    type: File
    glob: "*.sam"
`

func writeRecipe(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func collect(events *[]Event) EventEmitter {
	return func(e Event) {
		*events = append(*events, e)
	}
}

func TestRunSucceeds(t *testing.T) {
	path := writeRecipe(t, "bwa.yaml", recipeYAML)
	var events []Event

	res, err := Run(context.Background(), path, Config{
		Emit:   collect(&events),
		Lint:   true,
		Encode: encode.Options{Format: encode.FormatJSON, Compact: true},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Descriptor.ID() != "bwa_mem" {
		t.Fatalf("ID = %q, want bwa_mem", res.Descriptor.ID())
	}

	var doc map[string]any
	if err := json.Unmarshal(res.Output, &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if doc["class"] != "CommandLineTool" {
		t.Fatalf("class = %v, want CommandLineTool", doc["class"])
	}
	if _, ok := doc["stdin"]; ok {
		t.Fatal("unset stdin should be pruned")
	}

	wantKinds := []EventKind{
		EventBuildStarted,
		EventStageFinished,
		EventStageFinished,
		EventStageFinished,
		EventStageFinished,
		EventBuildFinished,
	}
	if len(events) != len(wantKinds) {
		t.Fatalf("len(events) = %d, want %d", len(events), len(wantKinds))
	}
	wantStages := []Stage{"", StageLoad, StageBuild, StageLint, StageEncode, ""}
	for i, e := range events {
		if e.Kind != wantKinds[i] {
			t.Fatalf("events[%d].Kind = %q, want %q", i, e.Kind, wantKinds[i])
		}
		if e.Stage != wantStages[i] {
			t.Fatalf("events[%d].Stage = %q, want %q", i, e.Stage, wantStages[i])
		}
		if e.RunID != res.RunID {
			t.Fatalf("events[%d].RunID = %q, want %q", i, e.RunID, res.RunID)
		}
	}

	last := events[len(events)-1]
	if last.Payload["status"] != StatusSucceeded {
		t.Fatalf("status = %v, want %q", last.Payload["status"], StatusSucceeded)
	}
	if last.Payload["expressions"] != 1 {
		t.Fatalf("expressions = %v, want 1", last.Payload["expressions"])
	}
}

func TestRunSkipsLintWhenDisabled(t *testing.T) {
	path := writeRecipe(t, "bwa.yaml", recipeYAML)
	var events []Event

	if _, err := Run(context.Background(), path, Config{Emit: collect(&events)}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, e := range events {
		if e.Stage == StageLint {
			t.Fatal("lint stage ran with Lint = false")
		}
	}
}

func TestRunMissingFile(t *testing.T) {
	var events []Event
	_, err := Run(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), Config{Emit: collect(&events)})
	if err == nil {
		t.Fatal("expected error for missing recipe")
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageLoad {
		t.Fatalf("error = %v, want load StageError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v, want os.ErrNotExist", err)
	}

	if events[1].Kind != EventStageFailed || events[1].Stage != StageLoad {
		t.Fatalf("events[1] = %s/%s, want stage.failed/load", events[1].Kind, events[1].Stage)
	}
	last := events[len(events)-1]
	if last.Kind != EventBuildFinished || last.Payload["status"] != StatusFailed {
		t.Fatalf("last event = %s status %v, want failed build.finished", last.Kind, last.Payload["status"])
	}
}

func TestRunBuildStageError(t *testing.T) {
	path := writeRecipe(t, "bad.yaml", `
id: bad
label: bad
outputs:
  - id: out
    type: File
`)
	_, err := Run(context.Background(), path, Config{})
	if err == nil {
		t.Fatal("expected error for missing glob")
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageBuild {
		t.Fatalf("error = %v, want build StageError", err)
	}
	if !errors.Is(err, cwl.ErrMissingGlob) {
		t.Fatalf("error = %v, want ErrMissingGlob", err)
	}
}

func TestRunLintFailure(t *testing.T) {
	path := writeRecipe(t, "broken.yaml", `
id: broken
label: broken
baseCommand: echo
stdout: "$job.inputs.("
`)
	res, err := Run(context.Background(), path, Config{Lint: true})
	if !errors.Is(err, ErrLintFailed) {
		t.Fatalf("error = %v, want ErrLintFailed", err)
	}
	if len(res.Diagnostics) == 0 {
		t.Fatal("expected diagnostics")
	}
	if res.Diagnostics[0].Code != "EX-001" {
		t.Fatalf("Code = %q, want EX-001", res.Diagnostics[0].Code)
	}
	if res.Output != nil {
		t.Fatal("output should not be encoded after lint failure")
	}
}

func TestRunCanceledContext(t *testing.T) {
	path := writeRecipe(t, "bwa.yaml", recipeYAML)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, path, Config{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestRunAppliesOptions(t *testing.T) {
	path := writeRecipe(t, "bwa.yaml", recipeYAML)

	res, err := Run(context.Background(), path, Config{
		Options: []cwl.Option{cwl.WithEngine("#custom-engine", "custom/js")},
		Encode:  encode.Options{Format: encode.FormatYAML},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Descriptor.EngineID() != "#custom-engine" {
		t.Fatalf("EngineID = %q, want #custom-engine", res.Descriptor.EngineID())
	}
	if !strings.Contains(string(res.Output), "#custom-engine") {
		t.Fatalf("YAML output missing custom engine:\n%s", res.Output)
	}
}
