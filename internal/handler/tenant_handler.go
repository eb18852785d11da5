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

// CreateTenant handles standalone tenant creation (SuperAdmin only). Tenants
// for new Admin accounts are auto-provisioned through account creation
// instead.
func CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	tenant, err := service.CreateTenant(actor, req.Name, req.Description, requestMeta(c))
	if err != nil {
		return serviceError(c, log, err)
	}

	log.Info("Tenant created",
		zap.String("name", tenant.Name),
		zap.Uint("id", tenant.ID),
		zap.Uint("created_by", actor.AccountID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Tenant created successfully",
		"tenant":  tenant,
	})
}

// GetTenant retrieves tenant details visible to the actor
func GetTenant(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_tenant_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	tenant, err := service.GetTenant(actor, uint(id))
	if err != nil {
		return serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, tenant)
}

// SetTenantActive soft-activates or deactivates a tenant
func SetTenantActive(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_tenant_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	var req struct {
		Active bool `json:"active"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant activation request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	tenant, err := service.SetTenantActive(actor, uint(id), req.Active, requestMeta(c))
	if err != nil {
		return serviceError(c, log, err)
	}

	log.Info("Tenant active flag changed",
		zap.Uint("tenant_id", tenant.ID),
		zap.Bool("active", tenant.Active),
		zap.Uint("changed_by", actor.AccountID))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Tenant updated successfully",
		"tenant":  tenant,
	})
}

// ReassignAdmin changes the administering account of a tenant
func ReassignAdmin(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_tenant_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	var req struct {
		AccountID uint `json:"account_id"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse admin reassignment request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.AccountID == 0 {
		prometheus.RecordError("invalid_account_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "account_id is required"})
	}

	tenant, err := service.ReassignAdmin(actor, uint(id), req.AccountID, requestMeta(c))
	if err != nil {
		return serviceError(c, log, err)
	}

	log.Info("Tenant admin reassigned",
		zap.Uint("tenant_id", tenant.ID),
		zap.Uint("admin_account_id", req.AccountID),
		zap.Uint("changed_by", actor.AccountID))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Tenant admin reassigned successfully",
		"tenant":  tenant,
	})
}
