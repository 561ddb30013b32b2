package ratelimit

import (
	"log/slog"
	"strconv"

	apperrors "github.com/ZanzyTHEbar/sizefit-dashboard/internal/errors"
	"github.com/gin-gonic/gin"
)

// IPRateLimitMiddleware creates middleware for IP-based rate limiting
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.config.IPLimitPerMin <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		result, err := rl.AllowIP(c.Request.Context(), ip)
		if err != nil {
			// a broken limiter never blocks reads
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock()
			}

			retryAfter := strconv.Itoa(max(int(result.RetryAfter.Seconds()), 1))
			c.Header("Retry-After", retryAfter)

			appErr := apperrors.NewRateLimitError(retryAfter)
			c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{"error": appErr})
			return
		}

		c.Next()
	}
}
