package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/franc-net/portal/events"
	"github.com/franc-net/portal/infrahub"
	"github.com/franc-net/portal/simulator"
	"github.com/franc-net/portal/validation"
	"github.com/franc-net/portal/workflow"
)

// PopForm is a point-of-presence deployment request.
type PopForm struct {
	ChangeNumber string `json:"change_number"`
	Name         string `json:"pop_name"`
	Location     string `json:"location"`
	Design       string `json:"design"`
	Provider     string `json:"provider"`
	UserID       string `json:"user_id,omitempty"`
}

// Validate returns the form's validation errors in field order.
func (f PopForm) Validate(opts FormOptions) []string {
	return validation.Collect(
		validation.RequiredField(f.ChangeNumber, "Change Number"),
		validation.RequiredField(f.Name, "PoP Name"),
		validation.RequiredSelection(opts.Locations, f.Location, "Location"),
		validation.RequiredSelection(opts.Designs, f.Design, "Design Pattern"),
		validation.RequiredSelection(opts.Providers, f.Provider, "Provider"),
	)
}

// SubmitPop validates and executes a PoP deployment request. The workflow
// creates the change branch, the metro location, and a provider-bound
// topology record referencing the metro.
func (s *Service) SubmitPop(ctx context.Context, form PopForm, opts FormOptions) (*Submission, error) {
	if msgs := form.Validate(opts); len(msgs) > 0 {
		s.portal.RecordSubmission(ServicePop, "rejected")
		return nil, &ValidationError{Messages: msgs}
	}

	branch := s.branchName(form.ChangeNumber)
	eng := workflow.New("PoP Deployment", workflow.WithLogger(s.logger))

	eng.AddStep("Creating deployment branch", func(ctx context.Context) (any, error) {
		return s.backend.CreateBranch(ctx, branch, false)
	})

	eng.AddContextStep("Creating metro location", func(ctx context.Context, wc *workflow.Context) (workflow.Record, error) {
		metro, err := s.backend.CreateObject(ctx, infrahub.KindLocationMetro, branch, map[string]any{
			"name":        form.Location,
			"shortname":   shortname(form.Location),
			"description": fmt.Sprintf("Metro location for %s", form.Name),
		})
		if err != nil {
			return workflow.Record{}, err
		}
		if err := wc.Set("metro_location_id", metro.ID); err != nil {
			return workflow.Record{}, err
		}
		return workflow.Record{
			NodeID:  metro.ID,
			Name:    metro.Name,
			Message: fmt.Sprintf("Created metro location: %s", metro.Name),
		}, nil
	})

	eng.AddContextStep("Creating topology record", func(ctx context.Context, wc *workflow.Context) (workflow.Record, error) {
		metroID := wc.String("metro_location_id")
		if metroID == "" {
			return workflow.Record{}, errors.New("metro location must be created first")
		}
		topology, err := s.backend.CreateObject(ctx, infrahub.KindDesignTopology, branch, map[string]any{
			"name":        fmt.Sprintf("%s-%s", form.Name, form.Design),
			"type":        "POP",
			"location":    metroID,
			"provider":    form.Provider,
			"description": fmt.Sprintf("Topology design for %s using %s pattern via %s", form.Name, form.Design, form.Provider),
		})
		if err != nil {
			return workflow.Record{}, err
		}
		return workflow.Record{
			NodeID:  topology.ID,
			Name:    topology.Name,
			Message: fmt.Sprintf("Created topology design: %s", topology.Name),
		}, nil
	})

	result := eng.Execute(ctx, map[string]any{"branch_name": branch})
	sub := s.finish(ServicePop, form.ChangeNumber, branch, result)

	if result.Succeeded() {
		s.announce(ctx, sub, events.NewPopDeploymentEvent(
			form.ChangeNumber, form.UserID, form.Name, form.Location, form.Design, form.Provider))
		s.runSimulation(
			fmt.Sprintf("PoP Deployment: %s", form.Name),
			form.ChangeNumber,
			"pop_"+form.ChangeNumber,
			simulator.PopDeploymentSteps(form.Provider))
	}

	return sub, nil
}
