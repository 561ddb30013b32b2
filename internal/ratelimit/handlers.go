package ratelimit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HandleRateLimitStatus returns the configured limit for the requesting IP
func (rl *RateLimiter) HandleRateLimitStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ip": c.ClientIP(),
			"limits": gin.H{
				"ip_per_minute": gin.H{
					"limit":  rl.config.IPLimitPerMin,
					"period": "1 minute",
				},
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// HandleRateLimitStats returns limiter state and block counters
func (rl *RateLimiter) HandleRateLimitStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		response := gin.H{
			"limiter_stats": rl.GetStats(),
			"timestamp":     time.Now().Format(time.RFC3339),
		}
		if rl.metrics != nil {
			response["metrics"] = rl.metrics.GetRateLimitStats()
		}
		c.JSON(http.StatusOK, response)
	}
}
