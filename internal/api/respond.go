// internal/api/respond.go
package api

import (
	"net/http"
	"strconv"

	"matrix-core/internal/common/errors"

	"github.com/gin-gonic/gin"
)

func respond(c *gin.Context, code int, body gin.H) {
	body["status"] = "success"
	c.JSON(code, body)
}

func (s *Server) fail(c *gin.Context, err error) {
	std := errors.AsStandardError(err)
	code := errors.HTTPStatus(std.Code)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"path":  c.FullPath(),
			"code":  std.Code,
			"error": err,
		})
	}

	body := gin.H{
		"status":  "error",
		"code":    std.Code,
		"message": std.Message,
	}
	if std.Details != "" {
		body["details"] = std.Details
	}
	if len(std.Metadata) > 0 {
		body["metadata"] = std.Metadata
	}
	c.JSON(code, body)
}

func (s *Server) badRequest(c *gin.Context, details string) {
	s.fail(c, errors.NewInvalidInputError(details))
}

func queryInt(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil && v > 0 {
		return v
	}
	return def
}
