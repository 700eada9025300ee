package handlers

import (
	"errors"
	"log"
	"net/http"

	"bailreckoner-backend/service"

	"github.com/gin-gonic/gin"
)

// respondError translates a service error into the response envelope.
// Conflicts and not-found outcomes are expected workflow signals, so
// they are not logged as errors.
func respondError(c *gin.Context, err error) {
	respondErrorWith(c, err, nil)
}

// respondErrorWith is respondError with extra fields merged into the
// error object, such as the id of a case that outlived a failed
// prediction run.
func respondErrorWith(c *gin.Context, err error, extra gin.H) {
	var status int
	var code string

	switch {
	case service.IsValidation(err):
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, service.ErrUnknownRole):
		status, code = http.StatusBadRequest, "UNKNOWN_ROLE"
	case errors.Is(err, service.ErrCaseNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, service.ErrAlreadyDecided):
		status, code = http.StatusConflict, "ALREADY_DECIDED"
	case errors.Is(err, service.ErrResetNotAllowed):
		status, code = http.StatusConflict, "RESET_NOT_ALLOWED"
	case errors.Is(err, service.ErrPredictionExists):
		status, code = http.StatusConflict, "PREDICTION_EXISTS"
	case errors.Is(err, service.ErrPredictionUnavailable):
		status, code = http.StatusServiceUnavailable, "PREDICTION_UNAVAILABLE"
	case errors.Is(err, service.ErrPredictionInvalid):
		status, code = http.StatusBadGateway, "PREDICTION_INVALID"
	case errors.Is(err, service.ErrAssistiveUnavailable):
		status, code = http.StatusBadGateway, "ASSISTANT_UNAVAILABLE"
	default:
		status, code = http.StatusInternalServerError, "INTERNAL_ERROR"
		log.Printf("Internal error: %v", err)
	}

	errObj := gin.H{
		"code":    code,
		"message": err.Error(),
	}
	for k, v := range extra {
		errObj[k] = v
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   errObj,
	})
}
