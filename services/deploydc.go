package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/franc-net/portal/infrahub"
	"github.com/franc-net/portal/simulator"
	"github.com/franc-net/portal/validation"
	"github.com/franc-net/portal/workflow"

	"github.com/franc-net/portal/events"
)

// DataCenterForm is a data center deployment request.
type DataCenterForm struct {
	ChangeNumber     string `json:"change_number"`
	Name             string `json:"dc_name"`
	Location         string `json:"location"`
	Design           string `json:"design"`
	ManagementSubnet string `json:"management_subnet"`
	UserID           string `json:"user_id,omitempty"`
}

// Validate returns the form's validation errors in field order. An empty
// result means the form is acceptable.
func (f DataCenterForm) Validate(opts FormOptions) []string {
	return validation.Collect(
		validation.RequiredField(f.ChangeNumber, "Change Number"),
		validation.RequiredField(f.Name, "Data Center Name"),
		validation.RequiredSelection(opts.Locations, f.Location, "Location"),
		validation.RequiredSelection(opts.Designs, f.Design, "Design Pattern"),
		validation.IPSubnet(f.ManagementSubnet, "Management Subnet"),
	)
}

// SubmitDataCenter validates and executes a data center deployment request.
// The workflow creates the change branch, then the metro location, building,
// management subnet and topology record inside it, each step referencing the
// objects created before it.
func (s *Service) SubmitDataCenter(ctx context.Context, form DataCenterForm, opts FormOptions) (*Submission, error) {
	if msgs := form.Validate(opts); len(msgs) > 0 {
		s.portal.RecordSubmission(ServiceDataCenter, "rejected")
		return nil, &ValidationError{Messages: msgs}
	}

	branch := s.branchName(form.ChangeNumber)
	eng := workflow.New("Data Center Deployment", workflow.WithLogger(s.logger))

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

	eng.AddContextStep("Creating building location", func(ctx context.Context, wc *workflow.Context) (workflow.Record, error) {
		metroID := wc.String("metro_location_id")
		if metroID == "" {
			return workflow.Record{}, errors.New("metro location must be created first")
		}
		building, err := s.backend.CreateObject(ctx, infrahub.KindLocationBuilding, branch, map[string]any{
			"name":        fmt.Sprintf("%s-Building-01", form.Name),
			"parent":      metroID,
			"description": fmt.Sprintf("Primary building for %s", form.Name),
		})
		if err != nil {
			return workflow.Record{}, err
		}
		if err := wc.Set("building_id", building.ID); err != nil {
			return workflow.Record{}, err
		}
		return workflow.Record{
			NodeID:  building.ID,
			Name:    building.Name,
			Message: fmt.Sprintf("Created building location: %s", building.Name),
		}, nil
	})

	eng.AddContextStep("Creating management subnet", func(ctx context.Context, wc *workflow.Context) (workflow.Record, error) {
		subnet, err := s.backend.CreateObject(ctx, infrahub.KindIPSubnet, branch, map[string]any{
			"prefix":      form.ManagementSubnet,
			"description": fmt.Sprintf("Management subnet for %s", form.Name),
		})
		if err != nil {
			return workflow.Record{}, err
		}
		if err := wc.Set("management_subnet_id", subnet.ID); err != nil {
			return workflow.Record{}, err
		}
		return workflow.Record{
			NodeID:  subnet.ID,
			Name:    form.ManagementSubnet,
			Message: fmt.Sprintf("Created management subnet: %s", form.ManagementSubnet),
		}, nil
	})

	eng.AddContextStep("Creating topology record", func(ctx context.Context, wc *workflow.Context) (workflow.Record, error) {
		metroID := wc.String("metro_location_id")
		subnetID := wc.String("management_subnet_id")
		if metroID == "" || subnetID == "" {
			return workflow.Record{}, errors.New("metro location and management subnet must be created first")
		}
		topology, err := s.backend.CreateObject(ctx, infrahub.KindDesignTopology, branch, map[string]any{
			"name":              fmt.Sprintf("%s-%s", form.Name, form.Design),
			"type":              "DC",
			"location":          metroID,
			"management_subnet": subnetID,
			"description":       fmt.Sprintf("Topology design for %s using %s pattern", form.Name, form.Design),
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
	sub := s.finish(ServiceDataCenter, form.ChangeNumber, branch, result)

	if result.Succeeded() {
		s.announce(ctx, sub, events.NewDataCenterDeploymentEvent(
			form.ChangeNumber, form.UserID, form.Name, form.Location, form.Design))
		s.runSimulation(
			fmt.Sprintf("Data Center Deployment: %s", form.Name),
			form.ChangeNumber,
			"datacenter_"+form.ChangeNumber,
			simulator.DataCenterDeploymentSteps(form.Design))
	}

	return sub, nil
}

// shortname truncates a location name for the backend's shortname attribute.
func shortname(name string) string {
	const max = 10
	if len(name) <= max {
		return name
	}
	return name[:max]
}
