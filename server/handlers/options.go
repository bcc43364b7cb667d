package handlers

import "net/http"

// OptionsHandler serves the select-option catalog for the service forms.
type OptionsHandler struct {
	catalog OptionsProvider
}

// NewOptionsHandler creates a new OptionsHandler.
func NewOptionsHandler(catalog OptionsProvider) *OptionsHandler {
	return &OptionsHandler{catalog: catalog}
}

// ServeHTTP implements http.Handler.
func (h *OptionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.All())
}
