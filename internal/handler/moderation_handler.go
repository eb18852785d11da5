package handler

import (
	"net/http"
	"strconv"

	"opinian/internal/middleware"
	"opinian/internal/service"
	"opinian/pkg/logger"
	"opinian/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListModeration returns the pending moderation queue scoped to the
// caller's tenant
func ListModeration(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var tenantFilter *uint
	if raw := c.QueryParam("tenant"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			prometheus.RecordError("invalid_tenant_id")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant filter"})
		}
		id := uint(parsed)
		tenantFilter = &id
	}

	items, err := service.ListPending(actor, tenantFilter)
	if err != nil {
		return serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, items)
}

// resolveItem applies a single moderation decision from a path parameter
func resolveItem(c echo.Context, decision service.Decision) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_queue_item_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue item ID"})
	}

	var req struct {
		Notes string `json:"notes"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse moderation request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	item, err := service.Resolve(actor, uint(id), decision, req.Notes, requestMeta(c))
	if err != nil {
		return serviceError(c, log, err)
	}

	log.Info("Moderation decision applied",
		zap.Uint("queue_item_id", item.ID),
		zap.String("decision", string(decision)),
		zap.Uint("reviewed_by", actor.AccountID))

	return c.JSON(http.StatusOK, echo.Map{
		"message":    "Moderation decision applied",
		"queue_item": item,
	})
}

// ApproveItem approves a pending queue item and publishes its content
func ApproveItem(c echo.Context) error {
	return resolveItem(c, service.DecisionApprove)
}

// RejectItem rejects a pending queue item; notes are required and the
// content reverts to draft
func RejectItem(c echo.Context) error {
	return resolveItem(c, service.DecisionReject)
}

// BulkResolve applies one decision to several queue items, reporting
// per-item outcomes
func BulkResolve(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		QueueItemIDs []uint `json:"queue_item_ids"`
		Decision     string `json:"decision"`
		Notes        string `json:"notes"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse bulk moderation request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if len(req.QueueItemIDs) == 0 {
		prometheus.RecordError("incomplete_bulk_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "queue_item_ids is required"})
	}

	decision := service.Decision(req.Decision)
	if decision != service.DecisionApprove && decision != service.DecisionReject {
		prometheus.RecordError("invalid_decision")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "decision must be approve or reject"})
	}

	result := service.BulkResolve(actor, req.QueueItemIDs, decision, req.Notes, requestMeta(c))

	log.Info("Bulk moderation applied",
		zap.String("decision", req.Decision),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
		zap.Uint("reviewed_by", actor.AccountID))

	return c.JSON(http.StatusOK, result)
}
