// internal/api/middleware.go
package api

import (
	"strconv"
	"time"

	"matrix-core/internal/common/metrics"

	"github.com/gin-gonic/gin"
)

// observe records request metrics and logs every request.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.deps.Observability.RecordRequest(c.Request.Context(), c.Request.Method, route, status, duration)

		s.logger.Debug("HTTP request", map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"durationMs": duration.Milliseconds(),
			"clientIp":   c.ClientIP(),
		})
	}
}
