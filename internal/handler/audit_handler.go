package handler

import (
	"net/http"
	"strconv"

	"opinian/internal/middleware"
	"opinian/internal/service"
	"opinian/pkg/logger"
	"opinian/prometheus"

	"github.com/labstack/echo/v4"
)

// ListAuditLog returns the most recent audit entries, tenant-filtered for
// Admin callers
func ListAuditLog(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	entries, err := service.RecentAuditEntries(actor, limit)
	if err != nil {
		return serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, entries)
}
