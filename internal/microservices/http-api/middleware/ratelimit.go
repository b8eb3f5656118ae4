package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yamdb/internal/ratelimit"
)

// RateLimit rejects a client IP with 429 once it exceeds the limiter quota.
// scope separates the counters of different route groups.
func RateLimit(limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			return
		}
		c.Next()
	}
}
