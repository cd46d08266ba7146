package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/fpang/trip-journal/internal/trip"
)

type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// httpError sends a JSON error body. Internal details are logged server-side
// and never sent to the client.
func httpError(c *gin.Context, status int, code, clientMsg string, internal error) {
	if internal != nil {
		log.Error().
			Err(internal).
			Int("status", status).
			Str("code", code).
			Msg("HTTP error with internal details")
	}
	c.AbortWithStatusJSON(status, errorPayload{Error: code, Message: clientMsg})
}

// respondServiceError maps service errors onto status codes.
func respondServiceError(c *gin.Context, err error) {
	if errors.Is(err, trip.ErrTripNotFound) {
		httpError(c, http.StatusNotFound, "trip_not_found", "trip not found", nil)
		return
	}

	kind, ok := trip.KindOf(err)
	if !ok {
		httpError(c, http.StatusInternalServerError, "internal_error", "internal error", err)
		return
	}

	switch kind {
	case trip.KindEmptyInput:
		httpError(c, http.StatusBadRequest, "empty_input", "at least one photo is required", nil)
	case trip.KindInvalidInput:
		httpError(c, http.StatusBadRequest, "invalid_input", err.Error(), nil)
	case trip.KindAllAnalysesFailed:
		httpError(c, http.StatusUnprocessableEntity, "all_analyses_failed", "none of the photos could be analyzed", err)
	case trip.KindCompositionFailed:
		httpError(c, http.StatusBadGateway, "composition_failed", "the journal could not be written, please retry", err)
	default:
		httpError(c, http.StatusInternalServerError, "persistence_failed", "the journal could not be saved", err)
	}
}
