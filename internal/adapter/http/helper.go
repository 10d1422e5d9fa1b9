package http

import (
	"errors"
	"net/http"
	"strings"

	inspectionDomain "factory-qc-backend/internal/domain/inspection"
	templateDomain "factory-qc-backend/internal/domain/template"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ---- helpers ----

// writeDomainError maps the engine's error taxonomy onto HTTP statuses.
// Everything unrecognized is a storage/internal failure and bubbles as 500,
// unchanged in message, per the no-internal-retry contract.
func writeDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, inspectionDomain.ErrNotFound),
		errors.Is(err, inspectionDomain.ErrPhotoNotFound),
		errors.Is(err, templateDomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, inspectionDomain.ErrReworkCeilingReached):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, inspectionDomain.ErrInvalidTransition):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, inspectionDomain.ErrConstraintViolation):
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
