package lint

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCompile(t *testing.T) {
	valid := []string{
		"$job.inputs.maybe.path + '.txt'",
		"$job.inputs.size * 2",
		"{ return $job.inputs.x.path.split('/').pop(); }",
		"$self ? '-v' : ''",
	}
	for _, s := range valid {
		if err := Compile(s); err != nil {
			t.Errorf("Compile(%q) error = %v", s, err)
		}
	}

	invalid := []string{
		"",
		"$job.inputs.maybe.path + '.txt",
		"{ return ; ",
		"a +",
	}
	for _, s := range invalid {
		if err := Compile(s); err == nil {
			t.Errorf("Compile(%q) error = nil, want syntax error", s)
		}
	}
}

func TestEvaluate(t *testing.T) {
	job := map[string]any{
		"inputs": map[string]any{
			"maybe": map[string]any{"path": "/data/reads.fq", "size": 2048},
		},
	}

	v, err := Evaluate(context.Background(), "$job.inputs.maybe.path + '.txt'", job, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if v != "/data/reads.fq.txt" {
		t.Fatalf("Evaluate() = %v, want /data/reads.fq.txt", v)
	}

	v, err = Evaluate(context.Background(), "{ return $self * 2; }", job, 21)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if v != int64(42) {
		t.Fatalf("Evaluate() = %#v, want 42", v)
	}
}

func TestEvaluateRuntimeError(t *testing.T) {
	_, err := Evaluate(context.Background(), "$job.inputs.missing.path", map[string]any{"inputs": map[string]any{}}, nil)
	if err == nil {
		t.Fatal("Evaluate() error = nil, want TypeError")
	}
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Evaluate(ctx, "{ while (true) {} }", nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Evaluate() error = %v, want DeadlineExceeded", err)
	}

	done, stop := context.WithCancel(context.Background())
	stop()
	if _, err := Evaluate(done, "1", nil, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Evaluate() error = %v, want Canceled", err)
	}
}
