package middleware

import (
	"net/http"
	"strings"

	"opinian/internal/role"
	"opinian/internal/service"
	"opinian/pkg/jwtutil"
	"opinian/pkg/logger"
	"opinian/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ActorKey is the echo context key the authenticated actor is stored under
const ActorKey = "actor"

// AuthMiddleware validates the JWT bearer token and stores the acting
// account in the request context
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		actorRole, ok := role.Parse(claims.Role)
		if !ok {
			log.Error("Token carries unknown role", zap.String("role", claims.Role))
			prometheus.RecordError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Core operations take the actor explicitly rather than reading
		// ambient session state
		c.Set(ActorKey, service.Actor{
			AccountID: claims.AccountID,
			Username:  claims.Username,
			Email:     claims.Email,
			Role:      actorRole,
			TenantID:  claims.TenantID,
		})

		return next(c)
	}
}

// ActorFrom retrieves the authenticated actor from the echo context
func ActorFrom(c echo.Context) (service.Actor, bool) {
	actor, ok := c.Get(ActorKey).(service.Actor)
	return actor, ok
}
