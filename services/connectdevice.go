package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/franc-net/portal/events"
	"github.com/franc-net/portal/infrahub"
	"github.com/franc-net/portal/simulator"
	"github.com/franc-net/portal/validation"
	"github.com/franc-net/portal/workflow"
)

// Interface is one requested network interface on a device connection form.
// An empty VPCGroup means the interface is standalone.
type Interface struct {
	Name     string `json:"name"`
	Speed    string `json:"speed"`
	Role     string `json:"role"`
	VPCGroup string `json:"vpc_group,omitempty"`
}

// DeviceConnectionForm is a device connection request.
type DeviceConnectionForm struct {
	ChangeNumber string      `json:"change_number"`
	DeviceName   string      `json:"device_name"`
	DeviceType   string      `json:"device_type"`
	Location     string      `json:"location"`
	Interfaces   []Interface `json:"interfaces"`
	UserID       string      `json:"user_id,omitempty"`
}

// Validate returns the form's validation errors in field order.
func (f DeviceConnectionForm) Validate(opts FormOptions) []string {
	names := make([]string, len(f.Interfaces))
	flags := make([]bool, len(f.Interfaces))
	groups := make([]string, len(f.Interfaces))
	for i, iface := range f.Interfaces {
		names[i] = iface.Name
		flags[i] = iface.VPCGroup != ""
		groups[i] = iface.VPCGroup
	}

	// flags and groups are built from the same slice, so the length
	// contract always holds.
	undersized, _ := validation.VPCGroups(flags, groups)
	vpcError := ""
	if len(undersized) > 0 {
		vpcError = fmt.Sprintf("Each vPC group must have at least two interfaces. Invalid groups: %s",
			strings.Join(undersized, ", "))
	}

	return validation.Collect(
		validation.RequiredField(f.ChangeNumber, "Change number"),
		validation.RequiredField(f.DeviceName, "Device name"),
		validation.RequiredField(f.DeviceType, "Device type"),
		validation.RequiredField(f.Location, "Location"),
		validation.MinimumCount(names, 1, "interface with a name"),
		validation.UniqueNames(names, "Interface names"),
		vpcError,
	)
}

// vpcGroups returns the distinct vPC group names in first-seen order, or nil
// when every interface is standalone.
func (f DeviceConnectionForm) vpcGroups() []string {
	var groups []string
	seen := map[string]bool{}
	for _, iface := range f.Interfaces {
		if iface.VPCGroup == "" || seen[iface.VPCGroup] {
			continue
		}
		seen[iface.VPCGroup] = true
		groups = append(groups, iface.VPCGroup)
	}
	return groups
}

// SubmitDeviceConnection validates and executes a device connection request.
// The workflow creates the change branch and the device record, then one
// step per interface. The device id is threaded to the interface steps
// through a shared reference so each step can guard against running before
// the device exists.
func (s *Service) SubmitDeviceConnection(ctx context.Context, form DeviceConnectionForm, opts FormOptions) (*Submission, error) {
	if msgs := form.Validate(opts); len(msgs) > 0 {
		s.portal.RecordSubmission(ServiceDeviceConnection, "rejected")
		return nil, &ValidationError{Messages: msgs}
	}

	branch := s.branchName(form.ChangeNumber)
	eng := workflow.New("Device Connection", workflow.WithLogger(s.logger))

	eng.AddStep("Creating deployment branch", func(ctx context.Context) (any, error) {
		return s.backend.CreateBranch(ctx, branch, false)
	})

	// Written by the device step, read by every interface step.
	var deviceID string

	eng.AddStep("Creating device record", func(ctx context.Context) (any, error) {
		device, err := s.backend.CreateObject(ctx, infrahub.KindDevice, branch, map[string]any{
			"name":        form.DeviceName,
			"device_type": form.DeviceType,
			"location":    form.Location,
			"description": fmt.Sprintf("Device connection for change %s", form.ChangeNumber),
		})
		if err != nil {
			return nil, err
		}
		deviceID = device.ID
		return device, nil
	})

	for _, iface := range form.Interfaces {
		iface := iface
		eng.AddStep(fmt.Sprintf("Creating interface %s", iface.Name), func(ctx context.Context) (any, error) {
			if deviceID == "" {
				return nil, errors.New("device record must be created first")
			}
			data := map[string]any{
				"name":   iface.Name,
				"speed":  iface.Speed,
				"role":   iface.Role,
				"device": deviceID,
			}
			if iface.VPCGroup != "" {
				data["vpc_group"] = iface.VPCGroup
			}
			return s.backend.CreateObject(ctx, infrahub.KindInterface, branch, data)
		})
	}

	result := eng.Execute(ctx, map[string]any{"branch_name": branch})
	sub := s.finish(ServiceDeviceConnection, form.ChangeNumber, branch, result)

	if result.Succeeded() {
		ifaces := make([]events.InterfaceConfig, len(form.Interfaces))
		for i, iface := range form.Interfaces {
			ifaces[i] = events.InterfaceConfig{
				Name:     iface.Name,
				Speed:    iface.Speed,
				VPC:      iface.VPCGroup != "",
				VPCGroup: iface.VPCGroup,
			}
		}

		s.announce(ctx, sub, events.NewDeviceConnectionEvent(
			form.ChangeNumber, form.UserID, form.DeviceName, form.DeviceType,
			form.Location, ifaces, form.vpcGroups()))
		s.runSimulation(
			fmt.Sprintf("Device Connection: %s", form.DeviceName),
			form.ChangeNumber,
			"device_conn_"+form.ChangeNumber,
			simulator.DeviceConnectionSteps(len(form.Interfaces)))
	}

	return sub, nil
}
