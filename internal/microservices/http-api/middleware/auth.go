package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"yamdb/internal/access"
	"yamdb/internal/microservices/http-api/service"
)

const identityKey = "identity"

// Authenticate resolves an optional bearer token into an access.Identity.
// Requests without an Authorization header continue as anonymous; a header
// that is present but not a valid token is rejected with 401.
func Authenticate(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// Extract token (format: "Bearer <token>")
		scheme, token, ok := strings.Cut(authHeader, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			unauthorized(c, "invalid authorization header format")
			return
		}

		identity, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				unauthorized(c, "invalid or expired token")
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// Require enforces a collection-level policy for the request method.
// Object-level checks happen in the services once the target is loaded.
func Require(policy access.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		action := access.ActionForMethod(c.Request.Method)
		switch err := access.Check(policy, action, IdentityFrom(c), nil); {
		case err == nil:
			c.Next()
		case errors.Is(err, access.ErrUnauthenticated):
			unauthorized(c, "authentication credentials were not provided")
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "you do not have permission to perform this action"})
		}
	}
}

// IdentityFrom returns the caller set by Authenticate, or nil when anonymous.
func IdentityFrom(c *gin.Context) *access.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*access.Identity)
	return identity
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
