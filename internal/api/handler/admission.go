package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wayfarer/wayfarer/internal/admission"
	"github.com/wayfarer/wayfarer/internal/api/models"
	"github.com/wayfarer/wayfarer/internal/api/response"
)

// AdmissionHandler serves sight admission prices.
type AdmissionHandler struct {
	service *admission.Service
	logger  zerolog.Logger
}

// NewAdmissionHandler creates a new AdmissionHandler.
func NewAdmissionHandler(service *admission.Service, logger zerolog.Logger) *AdmissionHandler {
	return &AdmissionHandler{service: service, logger: logger}
}

// GetAdmission handles GET /v1/sights/{sightId}/admission.
func (h *AdmissionHandler) GetAdmission(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.Get(r.Context(), chi.URLParam(r, "sightId"))
	if err != nil {
		writeError(w, r, h.logger, err, "sight not found", admission.ErrSightNotFound)
		return
	}
	response.JSON(w, r, http.StatusOK, table)
}

// ReplaceAdmission handles PUT /v1/admin/sights/{sightId}/admission.
func (h *AdmissionHandler) ReplaceAdmission(w http.ResponseWriter, r *http.Request) {
	var input models.ReplaceAdmissionRequest
	if err := response.Decode(w, r, &input); err != nil {
		response.BadRequest(w, r, "invalid JSON body: "+err.Error(), nil)
		return
	}

	table, err := h.service.Replace(r.Context(), chi.URLParam(r, "sightId"), input.ToRows())
	if err != nil {
		writeError(w, r, h.logger, err, "sight not found", admission.ErrSightNotFound)
		return
	}
	response.JSON(w, r, http.StatusOK, table)
}
