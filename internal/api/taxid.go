// internal/api/taxid.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) verifyTaxID(c *gin.Context) {
	verify := s.deps.TaxID.Verify
	if c.Query("force_refresh") == "true" {
		verify = s.deps.TaxID.Refresh
	}
	res, err := verify(c.Request.Context(), c.Param("inn"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"result": res, "registry_available": s.deps.TaxID.Available()})
}

type batchBody struct {
	INNs []string `json:"inns" binding:"required"`
}

func (s *Server) batchVerifyTaxID(c *gin.Context) {
	var body batchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	items, err := s.deps.TaxID.BatchVerify(c.Request.Context(), body.INNs)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"results": items, "total": len(items)})
}

func (s *Server) taxIDUsage(c *gin.Context) {
	usage, err := s.deps.TaxID.Usage(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"usage": usage, "registry_available": s.deps.TaxID.Available()})
}

func (s *Server) clearTaxIDCache(c *gin.Context) {
	removed, err := s.deps.TaxID.ClearCache(c.Request.Context(), c.Param("inn"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"inn": c.Param("inn"), "removed": removed})
}
