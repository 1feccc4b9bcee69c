package middleware

import (
	"errors"
	"strings"

	"github.com/geopulse/core/internal/pkg/jwt"
	"github.com/geopulse/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const ContextKeyUserID = "user_id"

// Auth returns a middleware that enforces JWT authentication.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, err := ValidateToken(extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyUserID, uid)
		c.Next()
	}
}

// OptionalAuth sets the user ID if a valid token is present, but does not
// block the request.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid, err := ValidateToken(extractToken(c)); err == nil && uid != "" {
			c.Set(ContextKeyUserID, uid)
		}
		c.Next()
	}
}

// ValidateToken validates a JWT and returns the authenticated user id.
func ValidateToken(rawToken string) (string, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return "", errors.New("token is required")
	}
	claims, err := jwt.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// CurrentUserID returns the authenticated user's id, or "" if the request
// is unauthenticated.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// IsAuthenticated reports whether the request carries a valid identity.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

// NormalizeToken strips the Bearer prefix and surrounding whitespace.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

func extractToken(c *gin.Context) string {
	if token := c.GetHeader("Authorization"); token != "" {
		return token
	}
	if token := c.Query("token"); token != "" {
		return token
	}
	if raw, err := c.Cookie("gp-token"); err == nil {
		return raw
	}
	return ""
}
