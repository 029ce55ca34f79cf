// Package lint checks the scripting expressions of a descriptor with a
// JavaScript engine and evaluates them against sample jobs.
package lint

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/petal-labs/cwlforge/cwl"
)

// knownVersions are the format version tags engines are expected to accept.
var knownVersions = map[string]bool{
	cwl.DefaultVersion: true,
	"sbg:draft-2":      true,
	"draft-2":          true,
}

// Lint checks every expression of d for syntax errors and flags document-level
// problems that are not caught by the builder.
func Lint(d *cwl.Descriptor) []Diagnostic {
	var diags []Diagnostic

	if !knownVersions[d.Version()] {
		diags = append(diags, Diagnostic{
			Code:     "VR-001",
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Unknown format version %q", d.Version()),
			Path:     "version",
		})
	}

	if len(d.BaseCommand()) == 0 && len(d.Arguments()) == 0 {
		diags = append(diags, Diagnostic{
			Code:     "BC-001",
			Severity: SeverityWarning,
			Message:  "Tool has neither a base command nor arguments",
			Path:     "baseCommand",
		})
	}

	for _, ref := range d.Expressions() {
		script, ok := ref.Expression.Script.(string)
		if !ok {
			diags = append(diags, Diagnostic{
				Code:     "EX-002",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("Expression script is %T, not a string", ref.Expression.Script),
				Path:     ref.Path,
			})
			script = fmt.Sprint(ref.Expression.Script)
		}
		if err := Compile(script); err != nil {
			diags = append(diags, Diagnostic{
				Code:     "EX-001",
				Severity: SeverityError,
				Message:  fmt.Sprintf("Expression does not compile: %v", err),
				Path:     ref.Path,
			})
		}
	}

	return diags
}

// Result is the outcome of evaluating one expression.
type Result struct {
	Path   string `json:"path"`
	Script string `json:"script"`
	Value  any    `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

// EvaluateAll evaluates every expression of d against job, a job order such as
// {"inputs": {...}, "allocatedResources": {...}}. For an input valueFrom,
// $self is the job's value for that input; elsewhere it is null.
func EvaluateAll(ctx context.Context, d *cwl.Descriptor, job map[string]any) ([]Result, error) {
	inputs := d.Inputs()
	results := make([]Result, 0, len(d.Expressions()))
	for _, ref := range d.Expressions() {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		script := fmt.Sprint(ref.Expression.Script)
		self := selfFor(ref.Path, inputs, job)

		res := Result{Path: ref.Path, Script: script}
		v, err := Evaluate(ctx, script, job, self)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			res.Error = err.Error()
		} else {
			res.Value = v
		}
		results = append(results, res)
	}
	return results, nil
}

// selfFor resolves $self for "inputs[i].valueFrom" paths.
func selfFor(path string, inputs []cwl.InputPort, job map[string]any) any {
	rest, ok := strings.CutPrefix(path, "inputs[")
	if !ok {
		return nil
	}
	idx, _, ok := strings.Cut(rest, "]")
	if !ok {
		return nil
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 || i >= len(inputs) {
		return nil
	}
	values, _ := job["inputs"].(map[string]any)
	return values[strings.TrimPrefix(inputs[i].ID, cwl.RefPrefix)]
}
