package workflow

import (
	"context"
	"fmt"
	"log/slog"
)

// BoundFunc is the signature of a bound step: inputs are captured at
// registration time, only the cancellation context is passed in.
type BoundFunc func(ctx context.Context) (any, error)

// ContextFunc is the signature of a context step: it receives the shared
// workflow Context and returns its own normalized Record.
type ContextFunc func(ctx context.Context, wc *Context) (Record, error)

// stepCall is the tagged variant behind the two calling conventions.
type stepCall interface {
	invoke(ctx context.Context, wc *Context) (Record, error)
}

type boundCall struct {
	fn BoundFunc
}

func (c boundCall) invoke(ctx context.Context, _ *Context) (Record, error) {
	v, err := c.fn(ctx)
	if err != nil {
		return Record{}, err
	}
	return normalize(v), nil
}

type contextCall struct {
	fn ContextFunc
}

func (c contextCall) invoke(ctx context.Context, wc *Context) (Record, error) {
	rec, err := c.fn(ctx, wc)
	if err != nil {
		return Record{}, err
	}
	if rec.Status == "" {
		rec.Status = "created"
	}
	return rec, nil
}

type step struct {
	name string
	call stepCall
}

// Engine executes an ordered list of steps against a shared context. Steps
// are immutable once added and run strictly in registration order. An Engine
// is built for a single submission; it is not safe for concurrent Execute
// calls.
type Engine struct {
	name   string
	logger *slog.Logger
	steps  []step
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger.With("component", "workflow", "workflow", e.name)
	}
}

// New creates an engine for the named workflow.
func New(name string, opts ...Option) *Engine {
	e := &Engine{
		name:   name,
		logger: slog.Default().With("component", "workflow", "workflow", name),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the workflow's display name.
func (e *Engine) Name() string {
	return e.name
}

// StepCount returns the number of registered steps.
func (e *Engine) StepCount() int {
	return len(e.steps)
}

// AddStep registers a bound step.
func (e *Engine) AddStep(name string, fn BoundFunc) {
	e.steps = append(e.steps, step{name: name, call: boundCall{fn: fn}})
}

// AddContextStep registers a context step.
func (e *Engine) AddContextStep(name string, fn ContextFunc) {
	e.steps = append(e.steps, step{name: name, call: contextCall{fn: fn}})
}

// Execute runs the registered steps in order against a fresh Context seeded
// from initial. Execution stops at the first failed step. Step errors never
// propagate as errors from Execute; they are captured in the Result.
func (e *Engine) Execute(ctx context.Context, initial map[string]any) Result {
	wc := newContext(initial)

	var results []StepResult
	var errs []StepError

	e.logger.Info("starting workflow", "steps", len(e.steps))

	for _, s := range e.steps {
		rec, err := e.runStep(ctx, s, wc)

		if err != nil {
			e.logger.Error("workflow step failed", "step", s.name, "error", err)

			stepErr := StepError{Step: s.name, Message: err.Error()}
			errs = append(errs, stepErr)
			wc.recordError(stepErr)

			failed := StepResult{
				Step:   s.name,
				Status: StepFailed,
				Result: Record{
					Status:  "failed",
					Error:   err.Error(),
					Message: fmt.Sprintf("Step %q failed: %s", s.name, err),
				},
			}
			results = append(results, failed)
			wc.recordObject(failed)
			break
		}

		e.logger.Info("workflow step completed", "step", s.name, "node_id", rec.NodeID)

		done := StepResult{Step: s.name, Status: StepSuccess, Result: rec}
		results = append(results, done)
		wc.recordObject(done)
	}

	successCount := 0
	for _, r := range results {
		if r.Status == StepSuccess {
			successCount++
		}
	}

	result := Result{
		SuccessCount: successCount,
		TotalSteps:   len(results),
		ErrorCount:   len(errs),
		StepResults:  results,
		Errors:       errs,
	}

	e.logger.Info("workflow finished",
		"state", result.State().String(),
		"success_count", result.SuccessCount,
		"total_steps", result.TotalSteps,
	)

	return result
}

// runStep invokes a single step, converting a panic in the step function
// into an ordinary step failure so one bad step cannot take down the
// submission path.
func (e *Engine) runStep(ctx context.Context, s step, wc *Context) (rec Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step panic: %v", r)
		}
	}()
	return s.call.invoke(ctx, wc)
}
