package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wayfarer/wayfarer/internal/api/models"
	"github.com/wayfarer/wayfarer/internal/api/response"
	"github.com/wayfarer/wayfarer/internal/itinerary"
)

// ItineraryHandler serves excursions and day itineraries.
type ItineraryHandler struct {
	service *itinerary.Service
	logger  zerolog.Logger
}

// NewItineraryHandler creates a new ItineraryHandler.
func NewItineraryHandler(service *itinerary.Service, logger zerolog.Logger) *ItineraryHandler {
	return &ItineraryHandler{service: service, logger: logger}
}

// schema resolves the {collection} URL parameter, writing a 404 when it
// names no collection.
func (h *ItineraryHandler) schema(w http.ResponseWriter, r *http.Request) (itinerary.Schema, bool) {
	name := chi.URLParam(r, "collection")
	schema, ok := itinerary.SchemaByName(name)
	if !ok {
		response.NotFound(w, r, "unknown collection "+name)
	}
	return schema, ok
}

// GetFlow handles GET /v1/{collection}/{itineraryId}/flow.
func (h *ItineraryHandler) GetFlow(w http.ResponseWriter, r *http.Request) {
	schema, ok := h.schema(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "itineraryId")

	assembled, err := h.service.Assemble(r.Context(), schema, id)
	if err != nil {
		writeError(w, r, h.logger, err, "itinerary not found", itinerary.ErrItineraryNotFound)
		return
	}
	response.JSON(w, r, http.StatusOK, assembled)
}

// GetEditable handles GET /v1/admin/{collection}/{itineraryId}/edit.
func (h *ItineraryHandler) GetEditable(w http.ResponseWriter, r *http.Request) {
	schema, ok := h.schema(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "itineraryId")

	view, err := h.service.Editable(r.Context(), schema, id)
	if err != nil {
		writeError(w, r, h.logger, err, "itinerary not found", itinerary.ErrItineraryNotFound)
		return
	}
	response.JSON(w, r, http.StatusOK, view)
}

// SaveItems handles PUT /v1/admin/{collection}/{itineraryId}/items.
func (h *ItineraryHandler) SaveItems(w http.ResponseWriter, r *http.Request) {
	schema, ok := h.schema(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "itineraryId")

	var input models.SaveItemsRequest
	if err := response.Decode(w, r, &input); err != nil {
		response.BadRequest(w, r, "invalid JSON body: "+err.Error(), nil)
		return
	}
	req, fieldErrs := input.ToSaveRequest()
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "the request contains invalid fields", fieldErrs)
		return
	}

	result, err := h.service.Save(r.Context(), schema, id, req)
	if err != nil {
		writeError(w, r, h.logger, err, "itinerary not found", itinerary.ErrItineraryNotFound)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}
