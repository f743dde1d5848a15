package middleware

import (
	"time"

	"ledger-api/internal/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDKey = "request_id"

// RequestContext stamps every request with an ID and logs its start and
// completion through the package-level logger.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set(RequestIDKey, requestID)
		start := time.Now()

		logging.Info("Request started", map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})

		c.Next()

		logging.Info("Request completed", map[string]interface{}{
			"request_id": requestID,
			"status":     c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}

// GetRequestID retrieves the request ID stamped by RequestContext.
func GetRequestID(c *gin.Context) string {
	id, _ := c.Get(RequestIDKey)
	s, _ := id.(string)
	return s
}
