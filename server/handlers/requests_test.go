package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franc-net/portal/services"
	"github.com/franc-net/portal/workflow"
)

type mockCatalog struct {
	options map[string][]string
}

func (m *mockCatalog) Options(kind string) []string {
	return m.options[kind]
}

func (m *mockCatalog) All() map[string][]string {
	return m.options
}

type mockSubmitter struct {
	submission *services.Submission
	err        error

	dcForm     services.DataCenterForm
	popForm    services.PopForm
	deviceForm services.DeviceConnectionForm
	formOpts   services.FormOptions
}

func (m *mockSubmitter) SubmitDataCenter(_ context.Context, form services.DataCenterForm, opts services.FormOptions) (*services.Submission, error) {
	m.dcForm = form
	m.formOpts = opts
	return m.submission, m.err
}

func (m *mockSubmitter) SubmitPop(_ context.Context, form services.PopForm, opts services.FormOptions) (*services.Submission, error) {
	m.popForm = form
	m.formOpts = opts
	return m.submission, m.err
}

func (m *mockSubmitter) SubmitDeviceConnection(_ context.Context, form services.DeviceConnectionForm, opts services.FormOptions) (*services.Submission, error) {
	m.deviceForm = form
	m.formOpts = opts
	return m.submission, m.err
}

func completedSubmission(service string) *services.Submission {
	return &services.Submission{
		Service:      service,
		ChangeNumber: "CHG-2024-001234",
		BranchName:   "implement_chg-2024-001234",
		Result: workflow.Result{
			SuccessCount: 2,
			TotalSteps:   2,
			StepResults: []workflow.StepResult{
				{Step: "Creating deployment branch", Status: workflow.StepSuccess},
				{Step: "Creating metro location", Status: workflow.StepSuccess},
			},
		},
		State: "completed",
	}
}

func partiallyFailedSubmission(service string) *services.Submission {
	return &services.Submission{
		Service:      service,
		ChangeNumber: "CHG-2024-001234",
		BranchName:   "implement_chg-2024-001234",
		Result: workflow.Result{
			SuccessCount: 1,
			TotalSteps:   2,
			ErrorCount:   1,
			StepResults: []workflow.StepResult{
				{Step: "Creating deployment branch", Status: workflow.StepSuccess},
				{Step: "Creating metro location", Status: workflow.StepFailed},
			},
			Errors: []workflow.StepError{
				{Step: "Creating metro location", Message: "backend unavailable"},
			},
		},
		State: "partially_failed",
	}
}

func testCatalog() *mockCatalog {
	return &mockCatalog{options: map[string][]string{
		"metros":       {"New York", "London"},
		"buildings":    {"NYC-DC-01"},
		"dc_designs":   {"Standard", "Compact"},
		"pop_designs":  {"Edge"},
		"providers":    {"Lumen"},
		"device_types": {"Arista 7280R3"},
	}}
}

func TestDataCenterHandler_Completed(t *testing.T) {
	submitter := &mockSubmitter{submission: completedSubmission(services.ServiceDataCenter)}
	handler := NewDataCenterHandler(submitter, testCatalog())

	body := `{
		"change_number": "CHG-2024-001234",
		"dc_name": "NYC-Main",
		"location": "New York",
		"design": "Standard",
		"management_subnet": "10.0.0.0/24"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/requests/datacenter", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var sub services.Submission
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sub))
	assert.Equal(t, "completed", sub.State)
	assert.Equal(t, "implement_chg-2024-001234", sub.BranchName)

	assert.Equal(t, "NYC-Main", submitter.dcForm.Name)
	assert.Equal(t, []string{"New York", "London"}, submitter.formOpts.Locations)
	assert.Equal(t, []string{"Standard", "Compact"}, submitter.formOpts.Designs)
}

func TestDataCenterHandler_ValidationRejected(t *testing.T) {
	submitter := &mockSubmitter{err: &services.ValidationError{
		Messages: []string{"Change Number is required.", "Data Center Name is required."},
	}}
	handler := NewDataCenterHandler(submitter, testCatalog())

	req := httptest.NewRequest(http.MethodPost, "/api/requests/datacenter", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ValidationResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{
		"Change Number is required.",
		"Data Center Name is required.",
	}, resp.Errors)
}

func TestDataCenterHandler_InvalidJSON(t *testing.T) {
	submitter := &mockSubmitter{}
	handler := NewDataCenterHandler(submitter, testCatalog())

	req := httptest.NewRequest(http.MethodPost, "/api/requests/datacenter", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid JSON")
}

func TestDataCenterHandler_PartiallyFailed(t *testing.T) {
	submitter := &mockSubmitter{submission: partiallyFailedSubmission(services.ServiceDataCenter)}
	handler := NewDataCenterHandler(submitter, testCatalog())

	body := `{"change_number": "CHG-2024-001234"}`
	req := httptest.NewRequest(http.MethodPost, "/api/requests/datacenter", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var sub services.Submission
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sub))
	assert.Equal(t, "partially_failed", sub.State)
	require.Len(t, sub.Result.Errors, 1)
	assert.Equal(t, "backend unavailable", sub.Result.Errors[0].Message)
}

func TestDataCenterHandler_InternalError(t *testing.T) {
	submitter := &mockSubmitter{err: errors.New("branch creation refused")}
	handler := NewDataCenterHandler(submitter, testCatalog())

	body := `{"change_number": "CHG-2024-001234"}`
	req := httptest.NewRequest(http.MethodPost, "/api/requests/datacenter", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "branch creation refused")
}

func TestPopHandler_Completed(t *testing.T) {
	submitter := &mockSubmitter{submission: completedSubmission(services.ServicePop)}
	handler := NewPopHandler(submitter, testCatalog())

	body := `{
		"change_number": "CHG-2024-002345",
		"pop_name": "LON-Edge",
		"location": "London",
		"design": "Edge",
		"provider": "Lumen"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/requests/pop", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "LON-Edge", submitter.popForm.Name)
	assert.Equal(t, []string{"Edge"}, submitter.formOpts.Designs)
	assert.Equal(t, []string{"Lumen"}, submitter.formOpts.Providers)
}

func TestDeviceConnectionHandler_Completed(t *testing.T) {
	submitter := &mockSubmitter{submission: completedSubmission(services.ServiceDeviceConnection)}
	handler := NewDeviceConnectionHandler(submitter, testCatalog())

	body := `{
		"change_number": "CHG-2024-005678",
		"device_name": "nyc-leaf-01",
		"device_type": "Arista 7280R3",
		"location": "NYC-DC-01",
		"interfaces": [
			{"name": "Ethernet1", "speed": "100G", "role": "uplink"}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/requests/device-connection", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "nyc-leaf-01", submitter.deviceForm.DeviceName)
	require.Len(t, submitter.deviceForm.Interfaces, 1)
	assert.Equal(t, "Ethernet1", submitter.deviceForm.Interfaces[0].Name)
	assert.Equal(t, []string{"Arista 7280R3"}, submitter.formOpts.DeviceTypes)
	assert.Equal(t, []string{"NYC-DC-01"}, submitter.formOpts.Locations)
}

func TestOptionsHandler(t *testing.T) {
	handler := NewOptionsHandler(testCatalog())

	req := httptest.NewRequest(http.MethodGet, "/api/options", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got map[string][]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, []string{"New York", "London"}, got["metros"])
	assert.Len(t, got, 6)
}
