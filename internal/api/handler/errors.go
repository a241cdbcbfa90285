package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/wayfarer/wayfarer/internal/api/response"
	"github.com/wayfarer/wayfarer/internal/validate"
)

// writeError maps service errors to problem responses. Errors matching one
// of notFound become 404 with detail; anything unexpected is logged and
// becomes 500.
func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error, detail string, notFound ...error) {
	var verr *validate.Error
	if errors.As(err, &verr) {
		response.ValidationFailed(w, r, verr)
		return
	}
	for _, target := range notFound {
		if errors.Is(err, target) {
			response.NotFound(w, r, detail)
			return
		}
	}

	logger.Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	response.InternalError(w, r, "an unexpected error occurred")
}
