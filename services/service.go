// Package services implements the portal's three service forms: data center
// deployment, point-of-presence deployment, and device connection. Each form
// validates its input, drives a workflow against the graph backend in an
// isolated change branch, and then announces the request on Kafka.
//
// A submission is accepted once validation passes; a workflow that fails
// partway still returns its audit trail so an operator can see what was
// created before the failure.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/franc-net/portal/events"
	"github.com/franc-net/portal/infrahub"
	"github.com/franc-net/portal/metrics"
	"github.com/franc-net/portal/simulator"
	"github.com/franc-net/portal/workflow"
)

// Service form names, used in results, logs and metric labels.
const (
	ServiceDataCenter       = "datacenter"
	ServicePop              = "pop"
	ServiceDeviceConnection = "device_connection"
)

// DefaultBranchPrefix is prepended to the lowercased change number to form
// the change branch name.
const DefaultBranchPrefix = "implement_"

// Backend is the subset of the graph client the forms need.
type Backend interface {
	CreateObject(ctx context.Context, kind, branch string, data map[string]any) (*infrahub.Object, error)
	CreateBranch(ctx context.Context, name string, syncWithGit bool) (*infrahub.Branch, error)
}

// FormOptions carries the select options available to a form at validation
// time. Empty lists switch the corresponding field to manual entry, which
// skips the selection check.
type FormOptions struct {
	Locations   []string
	Designs     []string
	Providers   []string
	DeviceTypes []string
}

// ValidationError reports a rejected submission. The messages are in form
// field order and are meant for the end user verbatim.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Submission is the outcome of an accepted (validated) request.
type Submission struct {
	Service      string          `json:"service"`
	ChangeNumber string          `json:"change_number"`
	BranchName   string          `json:"branch_name"`
	Result       workflow.Result `json:"result"`
	State        string          `json:"state"`

	// Advisories are non-fatal notices, such as an event publish failure.
	Advisories []string `json:"advisories,omitempty"`
}

// Service executes form submissions.
type Service struct {
	backend      Backend
	publisher    events.Publisher
	portal       *metrics.Portal
	logger       *slog.Logger
	branchPrefix string

	simulate        bool
	simulateInstant bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger.With("component", "services")
	}
}

// WithMetrics records submission outcomes into the portal metric set.
func WithMetrics(portal *metrics.Portal) Option {
	return func(s *Service) {
		s.portal = portal
	}
}

// WithBranchPrefix overrides the change branch name prefix.
func WithBranchPrefix(prefix string) Option {
	return func(s *Service) {
		s.branchPrefix = prefix
	}
}

// WithSimulation enables the task execution simulation after successful
// submissions. Instant mode drops the per-step delays and runs the
// simulation synchronously, for demos and tests.
func WithSimulation(enabled, instant bool) Option {
	return func(s *Service) {
		s.simulate = enabled
		s.simulateInstant = instant
	}
}

// New creates a Service backed by the given graph client and event publisher.
func New(backend Backend, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		backend:      backend,
		publisher:    publisher,
		logger:       slog.Default().With("component", "services"),
		branchPrefix: DefaultBranchPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// branchName derives the change branch name from a change number.
func (s *Service) branchName(changeNumber string) string {
	return s.branchPrefix + strings.ToLower(strings.TrimSpace(changeNumber))
}

// finish assembles the submission result and records metrics.
func (s *Service) finish(service, changeNumber, branch string, result workflow.Result) *Submission {
	state := result.State().String()
	s.portal.RecordSubmission(service, state)
	s.portal.RecordSteps(service, result.SuccessCount, result.ErrorCount)

	s.logger.Info("submission processed",
		"service", service,
		"change_number", changeNumber,
		"branch", branch,
		"state", state,
		"steps", result.TotalSteps,
		"errors", result.ErrorCount)

	return &Submission{
		Service:      service,
		ChangeNumber: changeNumber,
		BranchName:   branch,
		Result:       result,
		State:        state,
	}
}

// announce publishes the request event. Publish failures never fail a
// submission; they are downgraded to an advisory on the result.
func (s *Service) announce(ctx context.Context, sub *Submission, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.portal.RecordEvent(event.TopicSuffix(), "failure")
		sub.Advisories = append(sub.Advisories,
			fmt.Sprintf("request processed but event publishing failed: %v", err))
		s.logger.Warn("event publish failed", "service", sub.Service,
			"change_number", sub.ChangeNumber, "error", err)
		return
	}
	s.portal.RecordEvent(event.TopicSuffix(), "success")
}

// runSimulation executes the scripted task simulation for a submission.
// Instant mode runs synchronously with zeroed delays; otherwise the
// simulation runs in the background and the submission returns immediately.
func (s *Service) runSimulation(taskName, changeNumber, requestID string, steps []simulator.Step) {
	if !s.simulate {
		return
	}

	if s.simulateInstant {
		for i := range steps {
			steps[i].Duration = 0
		}
	}

	sim := simulator.New(taskName, changeNumber, requestID, s.publisher,
		simulator.WithLogger(s.logger))

	if s.simulateInstant {
		if err := sim.Run(context.Background(), steps); err != nil {
			s.logger.Warn("task simulation failed", "task", taskName, "error", err)
		}
		return
	}

	go func() {
		if err := sim.Run(context.Background(), steps); err != nil {
			s.logger.Warn("task simulation failed", "task", taskName, "error", err)
		}
	}()
}
