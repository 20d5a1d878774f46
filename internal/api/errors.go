package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gioe/aiq-assessment/internal/apperr"
)

// respondError translates the error taxonomy (internal/apperr) to an
// HTTP status and JSON body exactly once, at this dispatcher boundary
// (spec.md §7).
func respondError(c *gin.Context, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an unexpected error occurred"})
		return
	}

	status := http.StatusInternalServerError
	switch ae.Kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
		if ae.Code == "weak_password" || ae.Code == "disposable_email" {
			status = http.StatusUnprocessableEntity
		}
	case apperr.KindAuthentication:
		status = http.StatusUnauthorized
	case apperr.KindAuthorization:
		status = http.StatusForbidden
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindAdmission:
		status = http.StatusTooManyRequests
	}
	c.JSON(status, gin.H{"error": ae.Code, "message": ae.Message})
}
