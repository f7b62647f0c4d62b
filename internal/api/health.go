// internal/api/health.go
package api

import (
	"net/http"

	"matrix-core/internal/common/database"

	"github.com/gin-gonic/gin"
)

func (s *Server) health(c *gin.Context) {
	components, healthy := database.CheckAll(c.Request.Context(), s.deps.Health, healthCheckTimeout)

	taxStatus := "unavailable"
	if s.deps.TaxID != nil && s.deps.TaxID.Available() {
		taxStatus = "available"
	}

	status := database.StatusHealthy
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"service":    s.cfg.App.Name,
		"version":    s.cfg.App.Version,
		"components": components,
		"taxid":      taxStatus,
	})
}

func (s *Server) ready(c *gin.Context) {
	if _, healthy := database.CheckAll(c.Request.Context(), s.deps.Health, healthCheckTimeout); !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
