package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pugmatch/pugmatch-backend/pkg/ratelimit"
)

// RateLimit caps lifecycle mutations per user (falling back to client
// IP for unauthenticated requests).
func RateLimit(capacity, refillRate int64) gin.HandlerFunc {
	limiter := ratelimit.NewLimiter(capacity, refillRate)

	return func(c *gin.Context) {
		key := rateLimitKey(c)
		if !limiter.Allow(key) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if userID, exists := c.Get("userId"); exists {
		return fmt.Sprintf("user:%v", userID)
	}
	return fmt.Sprintf("ip:%s", c.ClientIP())
}
