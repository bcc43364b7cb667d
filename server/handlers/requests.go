package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/franc-net/portal/options"
	"github.com/franc-net/portal/services"
	"github.com/franc-net/portal/workflow"
)

// submissionStatus maps a processed submission to an HTTP status. Accepted
// requests that completed return 201; a workflow that failed partway returns
// 502 with the full audit trail so the caller can see what was created.
func submissionStatus(sub *services.Submission) int {
	if sub.Result.State() == workflow.Completed {
		return http.StatusCreated
	}
	return http.StatusBadGateway
}

// handleSubmission runs the decode/validate/submit sequence shared by the
// three request handlers.
func handleSubmission[F any](w http.ResponseWriter, r *http.Request,
	submit func(form F) (*services.Submission, error)) {

	var form F
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("invalid JSON: %v", err),
		})
		return
	}

	sub, err := submit(form)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, ValidationResponse{Errors: verr.Messages})
			return
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, submissionStatus(sub), sub)
}

// DataCenterHandler handles POST /api/requests/datacenter.
type DataCenterHandler struct {
	submitter DataCenterSubmitter
	catalog   OptionsProvider
}

// NewDataCenterHandler creates a new DataCenterHandler.
func NewDataCenterHandler(submitter DataCenterSubmitter, catalog OptionsProvider) *DataCenterHandler {
	return &DataCenterHandler{submitter: submitter, catalog: catalog}
}

// ServeHTTP implements http.Handler.
func (h *DataCenterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := services.FormOptions{
		Locations: h.catalog.Options(options.KindMetros),
		Designs:   h.catalog.Options(options.KindDCDesigns),
	}
	handleSubmission(w, r, func(form services.DataCenterForm) (*services.Submission, error) {
		return h.submitter.SubmitDataCenter(r.Context(), form, opts)
	})
}

// PopHandler handles POST /api/requests/pop.
type PopHandler struct {
	submitter PopSubmitter
	catalog   OptionsProvider
}

// NewPopHandler creates a new PopHandler.
func NewPopHandler(submitter PopSubmitter, catalog OptionsProvider) *PopHandler {
	return &PopHandler{submitter: submitter, catalog: catalog}
}

// ServeHTTP implements http.Handler.
func (h *PopHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := services.FormOptions{
		Locations: h.catalog.Options(options.KindMetros),
		Designs:   h.catalog.Options(options.KindPopDesigns),
		Providers: h.catalog.Options(options.KindProviders),
	}
	handleSubmission(w, r, func(form services.PopForm) (*services.Submission, error) {
		return h.submitter.SubmitPop(r.Context(), form, opts)
	})
}

// DeviceConnectionHandler handles POST /api/requests/device-connection.
type DeviceConnectionHandler struct {
	submitter DeviceConnectionSubmitter
	catalog   OptionsProvider
}

// NewDeviceConnectionHandler creates a new DeviceConnectionHandler.
func NewDeviceConnectionHandler(submitter DeviceConnectionSubmitter, catalog OptionsProvider) *DeviceConnectionHandler {
	return &DeviceConnectionHandler{submitter: submitter, catalog: catalog}
}

// ServeHTTP implements http.Handler.
func (h *DeviceConnectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := services.FormOptions{
		DeviceTypes: h.catalog.Options(options.KindDeviceTypes),
		Locations:   h.catalog.Options(options.KindBuildings),
	}
	handleSubmission(w, r, func(form services.DeviceConnectionForm) (*services.Submission, error) {
		return h.submitter.SubmitDeviceConnection(r.Context(), form, opts)
	})
}
