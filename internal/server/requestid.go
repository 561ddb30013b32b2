package server

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/monitoring"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with an id, keeping a caller's id
// when it is a valid UUID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(monitoring.RequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
