package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wayfarer/wayfarer/internal/api/models"
	"github.com/wayfarer/wayfarer/internal/api/response"
	"github.com/wayfarer/wayfarer/internal/openinghours"
)

// OpeningHoursHandler serves sight opening hours.
type OpeningHoursHandler struct {
	service *openinghours.Service
	logger  zerolog.Logger
}

// NewOpeningHoursHandler creates a new OpeningHoursHandler.
func NewOpeningHoursHandler(service *openinghours.Service, logger zerolog.Logger) *OpeningHoursHandler {
	return &OpeningHoursHandler{service: service, logger: logger}
}

// GetOpeningHours handles GET /v1/sights/{sightId}/opening-hours. With
// ?date=YYYY-MM-DD it answers whether the sight is open that day instead.
func (h *OpeningHoursHandler) GetOpeningHours(w http.ResponseWriter, r *http.Request) {
	sightID := chi.URLParam(r, "sightId")

	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			response.BadRequest(w, r, "date must be YYYY-MM-DD", []models.FieldError{
				{Field: "date", Message: "date must be YYYY-MM-DD", Code: "invalid"},
			})
			return
		}
		status, err := h.service.StatusOn(r.Context(), sightID, date)
		if err != nil {
			writeError(w, r, h.logger, err, "sight not found", openinghours.ErrSightNotFound)
			return
		}
		response.JSON(w, r, http.StatusOK, status)
		return
	}

	schedule, err := h.service.GetSchedule(r.Context(), sightID)
	if err != nil {
		writeError(w, r, h.logger, err, "sight not found", openinghours.ErrSightNotFound)
		return
	}
	response.JSON(w, r, http.StatusOK, schedule)
}

// ReplaceOpeningHours handles PUT /v1/admin/sights/{sightId}/opening-hours.
func (h *OpeningHoursHandler) ReplaceOpeningHours(w http.ResponseWriter, r *http.Request) {
	sightID := chi.URLParam(r, "sightId")

	var input models.ReplaceOpeningHoursRequest
	if err := response.Decode(w, r, &input); err != nil {
		response.BadRequest(w, r, "invalid JSON body: "+err.Error(), nil)
		return
	}

	schedule, err := h.service.Replace(r.Context(), sightID, input.ToReplaceRequest())
	if err != nil {
		writeError(w, r, h.logger, err, "sight not found", openinghours.ErrSightNotFound)
		return
	}
	response.JSON(w, r, http.StatusOK, schedule)
}
