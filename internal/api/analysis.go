// internal/api/analysis.go
package api

import (
	"net/http"

	"matrix-core/internal/analysis"
	"matrix-core/internal/matching"
	"matrix-core/internal/models"

	"github.com/gin-gonic/gin"
)

type analyzeBody struct {
	UserID   string                 `json:"user_id"`
	UserType string                 `json:"user_type" binding:"omitempty,oneof=customer contractor producer"`
	Message  string                 `json:"message" binding:"required"`
	UserData map[string]interface{} `json:"user_data"`
	Source   string                 `json:"source"`
}

func (s *Server) analyzeRequest(c *gin.Context) {
	var body analyzeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	source := body.Source
	if source == "" {
		source = models.SourceAPI
	}

	result, err := s.deps.Analysis.Analyze(c.Request.Context(), analysis.Request{
		UserID:      body.UserID,
		UserRole:    matching.UserRole(body.UserType),
		Message:     body.Message,
		KnownFields: body.UserData,
		Source:      source,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	out := gin.H{
		"analysis_id":        result.AnalysisID,
		"request_id":         result.RequestID,
		"intent":             result.Intent,
		"confidence":         result.Confidence,
		"entities_found":     result.EntitiesFound,
		"partners_count":     result.PartnersCount,
		"recommendations":    result.Recommendations,
		"crisis_match_score": result.CrisisMatchScore,
	}
	if result.Message != "" {
		out["message"] = result.Message
	}
	respond(c, http.StatusOK, out)
}

type crisisMatchBody struct {
	CustomerID   string                 `json:"customer_id" binding:"required"`
	Requirements map[string]interface{} `json:"requirements"`
}

func (s *Server) crisisMatch(c *gin.Context) {
	var body crisisMatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	res, err := s.deps.Analysis.CrisisMatch(c.Request.Context(), body.CustomerID, body.Requirements)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"customer_id":           res.CustomerID,
		"crisis_matches":        res.Matches,
		"total_matches":         res.TotalMatches,
		"high_priority_matches": res.HighPriorityMatches,
	})
}

func (s *Server) analysisResult(c *gin.Context) {
	res, err := s.deps.Analysis.Result(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"analysis": res})
}
