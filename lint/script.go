package lint

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// source turns an engine script into a JavaScript program: a script in braces
// is a function body, anything else is a single expression.
func source(script string) string {
	s := strings.TrimSpace(script)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return "(function()" + s + ")()"
	}
	return "(" + s + "\n)"
}

// Compile parses script without running it.
func Compile(script string) error {
	if strings.TrimSpace(script) == "" {
		return errors.New("script is empty")
	}
	_, err := goja.Compile("expression", source(script), false)
	return err
}

// Evaluate runs script with $job and $self bound and returns the exported
// result. Cancelling ctx interrupts a running script.
func Evaluate(ctx context.Context, script string, job, self any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prog, err := goja.Compile("expression", source(script), false)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	vm := goja.New()
	if err := vm.Set("$job", job); err != nil {
		return nil, fmt.Errorf("bind $job: %w", err)
	}
	if err := vm.Set("$self", self); err != nil {
		return nil, fmt.Errorf("bind $self: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	v, err := vm.RunProgram(prog)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if v == nil {
		return nil, nil
	}
	return v.Export(), nil
}
