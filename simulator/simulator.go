// Package simulator walks a submitted request through a scripted set of
// execution steps, emitting status update events as it goes and a completion
// event at the end. It stands in for the downstream automation that would
// actually carry out the change.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/franc-net/portal/events"
)

// Step is one unit of simulated work.
type Step struct {
	Name     string
	Duration time.Duration
}

// Progress reports the state of the simulation after each step. Handlers use
// it to stream progress back to the caller.
type Progress struct {
	StepIndex  int    `json:"step_index"`
	TotalSteps int    `json:"total_steps"`
	StepName   string `json:"step_name"`
	Percentage int    `json:"percentage"`
}

// ProgressFunc receives progress callbacks during a simulation run.
type ProgressFunc func(Progress)

// Simulator runs a task's steps against the clock and publishes lifecycle
// events for each.
type Simulator struct {
	taskName     string
	changeNumber string
	requestID    string
	userID       string
	publisher    events.Publisher
	logger       *slog.Logger
	onProgress   ProgressFunc
	clock        func(ctx context.Context, d time.Duration) error
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger.With("component", "simulator")
	}
}

// WithProgressFunc registers a callback invoked before each step runs and
// once more on completion.
func WithProgressFunc(fn ProgressFunc) Option {
	return func(s *Simulator) {
		s.onProgress = fn
	}
}

// WithUserID attributes the emitted events to a user.
func WithUserID(userID string) Option {
	return func(s *Simulator) {
		s.userID = userID
	}
}

// New creates a simulator for one task. The request id ties the emitted
// status events back to the original request event.
func New(taskName, changeNumber, requestID string, publisher events.Publisher, opts ...Option) *Simulator {
	s := &Simulator{
		taskName:     taskName,
		changeNumber: changeNumber,
		requestID:    requestID,
		publisher:    publisher,
		logger:       slog.Default().With("component", "simulator"),
		clock:        sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run executes the steps in order. Each step publishes an in-progress status
// update before its simulated work; the run ends with a final status update
// and a completion event. Cancelling the context stops the run and reports
// the task as failed.
func (s *Simulator) Run(ctx context.Context, steps []Step) error {
	start := time.Now()
	total := len(steps)

	s.publishStatus(ctx, events.StatusInProgress, 0, fmt.Sprintf("Starting %s...", s.taskName))

	for i, step := range steps {
		pct := i * 100 / total
		s.report(Progress{StepIndex: i, TotalSteps: total, StepName: step.Name, Percentage: pct})
		s.logger.Info("executing step", "task", s.taskName, "step", step.Name,
			"index", i+1, "total", total)

		s.publishStatus(ctx, events.StatusInProgress, pct, "Executing: "+step.Name)

		if err := s.clock(ctx, step.Duration); err != nil {
			msg := fmt.Sprintf("Task cancelled at step: %s", step.Name)
			s.publishStatus(ctx, events.StatusFailed, pct, msg)
			s.publishCompletion(ctx, events.StatusCancelled, msg, time.Since(start))
			return fmt.Errorf("task %q cancelled: %w", s.taskName, err)
		}
	}

	s.report(Progress{StepIndex: total, TotalSteps: total, StepName: "", Percentage: 100})
	s.publishStatus(ctx, events.StatusCompleted, 100,
		fmt.Sprintf("Task completed successfully: %s", s.taskName))
	s.publishCompletion(ctx, events.StatusCompleted,
		fmt.Sprintf("Task completed successfully: %s", s.taskName), time.Since(start))

	s.logger.Info("task completed", "task", s.taskName, "steps", total,
		"duration", time.Since(start))
	return nil
}

func (s *Simulator) report(p Progress) {
	if s.onProgress != nil {
		s.onProgress(p)
	}
}

// Event publishing failures never fail a simulation run. The work itself is
// what matters; events are advisory.
func (s *Simulator) publishStatus(ctx context.Context, status string, pct int, message string) {
	event := events.NewTaskStatusUpdateEvent(s.changeNumber, s.userID, s.requestID, status, pct, message)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish status update", "task", s.taskName, "error", err)
	}
}

func (s *Simulator) publishCompletion(ctx context.Context, status, message string, duration time.Duration) {
	event := events.NewTaskCompletionEvent(s.changeNumber, s.userID, s.requestID, status, message, duration)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish completion event", "task", s.taskName, "error", err)
	}
}
