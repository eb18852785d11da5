package handler

import (
	"errors"
	"net/http"

	"opinian/internal/service"
	"opinian/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// serviceError translates a service error into a JSON response. Unknown
// errors are storage failures and map to a generic 500.
func serviceError(c echo.Context, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		prometheus.RecordError("validation")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicate):
		prometheus.RecordError("duplicate")
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyPending), errors.Is(err, service.ErrAlreadyResolved):
		prometheus.RecordError("invalid_state_transition")
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidAdminRole):
		prometheus.RecordError("invalid_admin_role")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied), errors.Is(err, service.ErrBanned):
		prometheus.RecordError("permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	case errors.Is(err, service.ErrNotFound):
		prometheus.RecordError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	default:
		log.Error("Operation failed", zap.Error(err))
		prometheus.RecordError("internal")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// requestMeta captures transport details for the audit trail
func requestMeta(c echo.Context) service.RequestMeta {
	return service.RequestMeta{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}
