package jwtutil

import (
	"fmt"
	"time"

	"opinian/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

var (
	signingKey []byte
	expiration = time.Hour * 24
)

// UserClaims represents the JWT claims for an authenticated account
type UserClaims struct {
	AccountID uint   `json:"account_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TenantID  *uint  `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// Initialize configures the signing key and token lifetime
func Initialize(cfg *config.JWTConfig) {
	signingKey = []byte(cfg.SigningKey)
	if cfg.ExpirationHours > 0 {
		expiration = time.Duration(cfg.ExpirationHours) * time.Hour
	}
}

// GenerateToken creates a JWT token carrying the account identity, role and
// tenant context
func GenerateToken(accountID uint, username, email, role string, tenantID *uint) (string, error) {
	claims := UserClaims{
		AccountID: accountID,
		Username:  username,
		Email:     email,
		Role:      role,
		TenantID:  tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Only accept tokens signed with the HMAC method we issue
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return signingKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
