// Package handlers provides HTTP handlers for the portal server.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"context"

	"github.com/franc-net/portal/services"
)

// DataCenterSubmitter submits data center deployment requests.
type DataCenterSubmitter interface {
	SubmitDataCenter(ctx context.Context, form services.DataCenterForm, opts services.FormOptions) (*services.Submission, error)
}

// PopSubmitter submits point-of-presence deployment requests.
type PopSubmitter interface {
	SubmitPop(ctx context.Context, form services.PopForm, opts services.FormOptions) (*services.Submission, error)
}

// DeviceConnectionSubmitter submits device connection requests.
type DeviceConnectionSubmitter interface {
	SubmitDeviceConnection(ctx context.Context, form services.DeviceConnectionForm, opts services.FormOptions) (*services.Submission, error)
}

// OptionsProvider provides access to the select-option catalog.
type OptionsProvider interface {
	Options(kind string) []string
	All() map[string][]string
}
