package handler

import (
	"net/http"
	"strconv"

	"opinian/internal/middleware"
	"opinian/internal/role"
	"opinian/internal/service"
	"opinian/pkg/logger"
	"opinian/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateAccount handles managed account creation. Creating an Admin account
// auto-provisions a tenant for it; the tenant fields are required in that
// case.
func CreateAccount(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Username          string `json:"username"`
		Email             string `json:"email"`
		Password          string `json:"password"`
		FirstName         string `json:"first_name"`
		LastName          string `json:"last_name"`
		Role              string `json:"role"`
		TenantID          *uint  `json:"tenant_id,omitempty"`
		TenantName        string `json:"tenant_name,omitempty"`
		TenantDescription string `json:"tenant_description,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse account creation request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	result, err := service.CreateAccount(actor, service.CreateAccountInput{
		Draft: service.AccountDraft{
			Username:  req.Username,
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		},
		Role:              role.Role(req.Role),
		TenantID:          req.TenantID,
		TenantName:        req.TenantName,
		TenantDescription: req.TenantDescription,
	}, requestMeta(c))
	if err != nil {
		return serviceError(c, log, err)
	}

	log.Info("Account created",
		zap.String("username", result.Account.Username),
		zap.String("role", result.Account.Role),
		zap.Uint("created_by", actor.AccountID))

	response := echo.Map{
		"message": "Account created successfully",
		"account": result.Account,
	}
	if result.Tenant != nil {
		response["tenant"] = result.Tenant
	}
	return c.JSON(http.StatusCreated, response)
}

// ListAccounts returns accounts visible to the actor
func ListAccounts(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	accounts, err := service.ListAccounts(actor)
	if err != nil {
		return serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, accounts)
}

// UpdateAccount edits account details and flags
func UpdateAccount(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_account_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid account ID"})
	}

	var req struct {
		FirstName *string `json:"first_name,omitempty"`
		LastName  *string `json:"last_name,omitempty"`
		Role      *string `json:"role,omitempty"`
		Active    *bool   `json:"active,omitempty"`
		Banned    *bool   `json:"banned,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse account update request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	patch := service.AccountPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Active:    req.Active,
		Banned:    req.Banned,
	}
	if req.Role != nil {
		r := role.Role(*req.Role)
		patch.Role = &r
	}

	account, err := service.UpdateAccount(actor, uint(id), patch, requestMeta(c))
	if err != nil {
		return serviceError(c, log, err)
	}

	log.Info("Account updated",
		zap.Uint("account_id", account.ID),
		zap.Uint("updated_by", actor.AccountID))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Account updated successfully",
		"account": account,
	})
}

// BanAccount toggles the banned flag on an account
func BanAccount(c echo.Context) error {
	log := logger.FromContext(c)

	actor, ok := middleware.ActorFrom(c)
	if !ok {
		prometheus.RecordError("missing_actor")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_account_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid account ID"})
	}

	var req struct {
		Banned bool `json:"banned"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse ban request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	account, err := service.SetBanned(actor, uint(id), req.Banned, requestMeta(c))
	if err != nil {
		return serviceError(c, log, err)
	}

	log.Info("Account ban flag changed",
		zap.Uint("account_id", account.ID),
		zap.Bool("banned", account.Banned),
		zap.Uint("changed_by", actor.AccountID))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Account updated successfully",
		"banned":  account.Banned,
	})
}
