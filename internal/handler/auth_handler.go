package handler

import (
	"errors"
	"net/http"

	"opinian/internal/service"
	"opinian/pkg/jwtutil"
	"opinian/pkg/logger"
	"opinian/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Login authenticates an account and issues a JWT carrying its role and
// tenant context
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Username == "" || req.Password == "" {
		prometheus.RecordError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}

	account, err := service.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrBanned) {
			log.Warn("Login attempt by banned or inactive account", zap.String("username", req.Username))
			prometheus.RecordError("account_banned")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "account is disabled"})
		}
		log.Error("Invalid credentials", zap.String("username", req.Username))
		prometheus.RecordError("invalid_credentials")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := jwtutil.GenerateToken(account.ID, account.Username, account.Email, account.Role, account.TenantID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.IncreaseActiveTokens()

	log.Info("Account logged in",
		zap.String("username", account.Username),
		zap.String("role", account.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"account": map[string]interface{}{
			"id":        account.ID,
			"username":  account.Username,
			"email":     account.Email,
			"role":      account.Role,
			"tenant_id": account.TenantID,
		},
	})
}

// Register handles public self-service signup; the resulting account always
// carries role User and no tenant
func Register(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	account, err := service.Register(service.AccountDraft{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, requestMeta(c))
	if err != nil {
		return serviceError(c, log, err)
	}

	log.Info("Account registered", zap.String("username", account.Username))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Account registered successfully",
		"account": map[string]interface{}{
			"id":       account.ID,
			"username": account.Username,
			"email":    account.Email,
			"role":     account.Role,
		},
	})
}
