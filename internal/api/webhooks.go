// internal/api/webhooks.go
package api

import (
	"io"
	"net/http"

	"matrix-core/internal/analysis"
	"matrix-core/internal/common/errors"
	"matrix-core/internal/webhook"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

func (s *Server) handleWebhook(c *gin.Context) {
	platform, ok := webhook.ParsePlatform(c.Param("platform"))
	if !ok {
		s.fail(c, errors.NewWebhookPayloadInvalidError(c.Param("platform"), "unknown platform"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		s.badRequest(c, "cannot read body")
		return
	}
	if err := s.deps.Webhooks.Verify(platform, body, c.GetHeader(webhook.SignatureHeader)); err != nil {
		s.logger.Warn("webhook signature rejected", map[string]interface{}{"platform": platform})
		s.fail(c, err)
		return
	}

	req, err := webhook.Parse(platform, body)
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	result, err := s.deps.Analysis.Analyze(ctx, analysis.Request{
		UserRole:    req.UserRole,
		Message:     req.Message,
		KnownFields: req.KnownFields,
		Source:      req.Source,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	out := gin.H{
		"platform":        platform,
		"analysis_id":     result.AnalysisID,
		"request_id":      result.RequestID,
		"intent":          result.Intent,
		"partners_count":  result.PartnersCount,
		"recommendations": result.Recommendations,
	}
	if result.Message != "" {
		out["message"] = result.Message
	}

	if s.cfg.Camunda.StartProcessOnWebhook && s.deps.Processes != nil {
		vars := req.Variables()
		vars["analysisId"] = result.AnalysisID
		vars["requestId"] = result.RequestID
		inst, err := s.deps.Processes.StartProcessInstance(ctx, s.cfg.Camunda.MatchingProcessID, vars)
		if err != nil {
			s.logger.Error("failed to start matching process", map[string]interface{}{
				"platform": platform,
				"error":    err,
			})
		} else {
			out["process_instance_key"] = inst.ProcessInstanceKey
		}
	}

	s.logger.Info("webhook processed", map[string]interface{}{
		"platform":   platform,
		"analysisId": result.AnalysisID,
	})
	respond(c, http.StatusOK, out)
}
