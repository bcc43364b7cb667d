package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Portal holds the portal's metric set. Handlers and services record into it
// without caring whether the backing registry scrapes or pushes.
type Portal struct {
	// Submissions counts change request submissions by service form and
	// outcome (completed, partially_failed, failed, rejected).
	Submissions CounterVec

	// WorkflowSteps counts executed workflow steps by service and status.
	WorkflowSteps CounterVec

	// EventsPublished counts Kafka publish attempts by topic and result.
	EventsPublished CounterVec

	// OptionsRefreshed is set to the number of catalog entries loaded by
	// the last refresh, by option kind.
	OptionsRefreshed GaugeVec

	// OptionsRefreshErrors counts failed catalog refreshes.
	OptionsRefreshErrors Counter
}

// NewPortal registers the portal metric set with the given registry.
func NewPortal(reg Registry, namespace string) (*Portal, error) {
	p := &Portal{}
	var err error

	p.Submissions, err = reg.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Change request submissions by service and outcome.",
	}, []string{"service", "outcome"})
	if err != nil {
		return nil, fmt.Errorf("creating submissions counter: %w", err)
	}

	p.WorkflowSteps, err = reg.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_steps_total",
		Help:      "Executed workflow steps by service and status.",
	}, []string{"service", "status"})
	if err != nil {
		return nil, fmt.Errorf("creating workflow steps counter: %w", err)
	}

	p.EventsPublished, err = reg.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Kafka event publish attempts by topic and result.",
	}, []string{"topic", "result"})
	if err != nil {
		return nil, fmt.Errorf("creating events counter: %w", err)
	}

	p.OptionsRefreshed, err = reg.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "options_catalog_entries",
		Help:      "Entries loaded by the last options catalog refresh, by kind.",
	}, []string{"kind"})
	if err != nil {
		return nil, fmt.Errorf("creating options gauge: %w", err)
	}

	p.OptionsRefreshErrors, err = reg.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "options_refresh_errors_total",
		Help:      "Failed options catalog refreshes.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating options error counter: %w", err)
	}

	return p, nil
}

// RecordSubmission increments the submissions counter.
func (p *Portal) RecordSubmission(service, outcome string) {
	if p == nil {
		return
	}
	p.Submissions.With(prometheus.Labels{"service": service, "outcome": outcome}).Inc()
}

// RecordSteps adds step counts for a finished workflow run.
func (p *Portal) RecordSteps(service string, succeeded, failed int) {
	if p == nil {
		return
	}
	if succeeded > 0 {
		p.WorkflowSteps.With(prometheus.Labels{"service": service, "status": "success"}).Add(float64(succeeded))
	}
	if failed > 0 {
		p.WorkflowSteps.With(prometheus.Labels{"service": service, "status": "failed"}).Add(float64(failed))
	}
}

// RecordEvent increments the publish attempt counter.
func (p *Portal) RecordEvent(topic, result string) {
	if p == nil {
		return
	}
	p.EventsPublished.With(prometheus.Labels{"topic": topic, "result": result}).Inc()
}
