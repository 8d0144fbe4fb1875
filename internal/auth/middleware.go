package auth

import (
	"errors"
	"net/http"
	"strings"

	"barbershop/internal/api"

	"github.com/gin-gonic/gin"
)

// Keys under which Middleware stores the caller on the gin context.
const (
	usernameKey = "auth.username"
	roleKey     = "auth.role"
)

// Middleware admits requests carrying a valid access token.
func (i *Issuer) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, problem := bearerToken(c.GetHeader("Authorization"))
		if problem != "" {
			deny(c, http.StatusUnauthorized, problem)
			return
		}

		claims, err := i.Parse(AccessToken, raw)
		if err != nil {
			deny(c, http.StatusUnauthorized, rejection(err))
			return
		}

		c.Set(usernameKey, claims.Username())
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

// RequireRole must run after Middleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := c.Get(roleKey)
		if !ok {
			deny(c, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if s, _ := got.(string); s != role {
			deny(c, http.StatusForbidden, "Insufficient permissions")
			return
		}
		c.Next()
	}
}

// GetUsername returns the admin authenticated by Middleware.
func GetUsername(c *gin.Context) (string, bool) {
	name := c.GetString(usernameKey)
	return name, name != ""
}

// bearerToken extracts the token from an Authorization header, or explains
// why it could not.
func bearerToken(header string) (token, problem string) {
	if header == "" {
		return "", "Authorization header required"
	}
	scheme, rest, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return "", "Invalid authorization header format"
	}
	if token = strings.TrimSpace(rest); token == "" {
		return "", "Token is empty"
	}
	return token, ""
}

func rejection(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "Token expired"
	case errors.Is(err, ErrWrongTokenKind):
		return "Access token required"
	default:
		return "Invalid or malformed token"
	}
}

func deny(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, api.ErrorResponse{Error: message})
}
