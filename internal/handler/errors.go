package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-grading/internal/apperror"
	"github.com/stemsi/exstem-grading/internal/response"
)

// failWithError maps a service error to its HTTP status and error code.
// Unexpected errors are logged and reported as internal errors.
func failWithError(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, apperror.ErrPaperDeleted):
		response.Fail(c, http.StatusGone, response.ErrPaperDeleted)
	case errors.Is(err, apperror.ErrInvalidState):
		response.Fail(c, http.StatusConflict, response.ErrInvalidState)
	case errors.Is(err, apperror.ErrGradingServiceUnavailable):
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("Grading service unavailable")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrGradingUnavailable)
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Str("request_id", response.RequestID(c)).Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
