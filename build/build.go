// Package build runs the recipe-to-document pipeline: load a recipe, replay it
// into a descriptor, lint its expressions and encode the pruned document.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/petal-labs/cwlforge/cwl"
	"github.com/petal-labs/cwlforge/encode"
	"github.com/petal-labs/cwlforge/lint"
	"github.com/petal-labs/cwlforge/loader"
)

// ErrLintFailed is returned when linting reports error diagnostics.
var ErrLintFailed = errors.New("expression lint failed")

// StageError reports which stage of a build failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Config controls a build.
type Config struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Emit receives pipeline events. May be nil.
	Emit EventEmitter
	// Options are applied before the recipe's own options.
	Options []cwl.Option
	// Lint enables the expression lint stage.
	Lint bool
	// Encode selects the output format.
	Encode encode.Options
}

// Result is the outcome of a successful build.
type Result struct {
	RunID       string
	Descriptor  *cwl.Descriptor
	Document    *cwl.Map
	Output      []byte
	Diagnostics []lint.Diagnostic
}

// Run builds the recipe at path.
func Run(ctx context.Context, path string, cfg Config) (*Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	emit := cfg.Emit
	if emit == nil {
		emit = func(Event) {}
	}

	runID := uuid.NewString()
	started := time.Now()
	logger = logger.With("run_id", runID, "recipe", path)

	emit(NewEvent(EventBuildStarted, runID).WithPayload("recipe", path))
	logger.Debug("build started")

	res := &Result{RunID: runID}
	err := runStages(ctx, path, cfg, res, runID, emit, logger)

	finished := NewEvent(EventBuildFinished, runID).WithElapsed(time.Since(started))
	if res.Descriptor != nil {
		finished = finished.
			WithPayload("descriptor", res.Descriptor.ID()).
			WithPayload("expressions", len(res.Descriptor.Expressions()))
	}
	if err != nil {
		emit(finished.WithPayload("status", StatusFailed).WithPayload("error", err.Error()))
		logger.Warn("build failed", "error", err)
		return res, err
	}
	emit(finished.WithPayload("status", StatusSucceeded))
	logger.Debug("build finished", "elapsed", time.Since(started))
	return res, nil
}

func runStages(ctx context.Context, path string, cfg Config, res *Result, runID string, emit EventEmitter, logger *slog.Logger) error {
	stage := func(s Stage, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: s, Err: err}
		}
		start := time.Now()
		if err := fn(); err != nil {
			emit(NewEvent(EventStageFailed, runID).
				WithStage(s).
				WithElapsed(time.Since(start)).
				WithPayload("error", err.Error()))
			return &StageError{Stage: s, Err: err}
		}
		emit(NewEvent(EventStageFinished, runID).WithStage(s).WithElapsed(time.Since(start)))
		logger.Debug("stage finished", "stage", s)
		return nil
	}

	var recipe *loader.Recipe
	if err := stage(StageLoad, func() error {
		r, err := loader.Load(path)
		recipe = r
		return err
	}); err != nil {
		return err
	}

	if err := stage(StageBuild, func() error {
		d, err := loader.Build(recipe, cfg.Options...)
		res.Descriptor = d
		return err
	}); err != nil {
		return err
	}

	if cfg.Lint {
		if err := stage(StageLint, func() error {
			res.Diagnostics = lint.Lint(res.Descriptor)
			if lint.HasErrors(res.Diagnostics) {
				return fmt.Errorf("%w: %d error(s)", ErrLintFailed, len(lint.Errors(res.Diagnostics)))
			}
			return nil
		}); err != nil {
			return err
		}
	}

	return stage(StageEncode, func() error {
		res.Document = res.Descriptor.Document()
		out, err := encode.Tree(res.Document, cfg.Encode)
		res.Output = out
		return err
	})
}
