// internal/api/connections.go
package api

import (
	"context"
	"net/http"
	"time"

	"matrix-core/internal/connections"
	"matrix-core/internal/models"
	"matrix-core/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const notifyTimeout = 10 * time.Second

type createConnectionBody struct {
	FromUser       string                 `json:"from_user" binding:"required"`
	ToUser         string                 `json:"to_user" binding:"required"`
	ConnectionType string                 `json:"connection_type" binding:"omitempty,oneof=recommendation direct introduction"`
	Context        map[string]interface{} `json:"context"`
	Message        string                 `json:"message"`
}

func (s *Server) createConnection(c *gin.Context) {
	var body createConnectionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	if body.ConnectionType == "" {
		body.ConnectionType = models.ConnectionTypeRecommendation
	}
	if body.Context == nil {
		body.Context = map[string]interface{}{}
	}

	now := time.Now().UTC()
	conn := &models.Connection{
		ID:              uuid.NewString(),
		FromUser:        body.FromUser,
		ToUser:          body.ToUser,
		ConnectionType:  body.ConnectionType,
		Context:         body.Context,
		Status:          models.ConnectionPending,
		ConnectionScore: models.ScoreFromContext(body.Context),
		Interactions:    []models.Interaction{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if body.Message != "" {
		conn.Interactions = append(conn.Interactions, models.Interaction{
			ID:        uuid.NewString(),
			Type:      "message",
			Content:   body.Message,
			Timestamp: now,
		})
	}

	if err := s.deps.Connections.Create(c.Request.Context(), conn); err != nil {
		s.fail(c, err)
		return
	}

	out := gin.H{"connection_id": conn.ID, "connection": conn}
	if res := s.notifyTarget(c.Request.Context(), conn); res != nil {
		out["notification"] = res
	}
	respond(c, http.StatusCreated, out)
}

// notifyTarget tells the target about a new connection. Failures are logged
// and never fail the request.
func (s *Server) notifyTarget(ctx context.Context, conn *models.Connection) *notify.Result {
	if s.deps.Notifier == nil || s.deps.Recipients == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	recipient, err := s.deps.Recipients.Recipient(ctx, conn.ToUser)
	if err != nil {
		s.logger.Warn("connection target lookup failed", map[string]interface{}{
			"connectionId": conn.ID,
			"error":        err,
		})
		return nil
	}
	res, err := s.deps.Notifier.NotifyConnection(ctx, recipient, conn)
	if err != nil {
		s.logger.Warn("connection notification failed", map[string]interface{}{
			"connectionId": conn.ID,
			"error":        err,
		})
	}
	return res
}

func (s *Server) getConnection(c *gin.Context) {
	conn, err := s.deps.Connections.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"connection": conn})
}

type statusBody struct {
	Status string `json:"status" binding:"required,oneof=pending accepted rejected completed"`
}

func (s *Server) updateConnectionStatus(c *gin.Context) {
	var body statusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	conn, old, err := s.deps.Connections.UpdateStatus(c.Request.Context(), c.Param("id"), models.ConnectionStatus(body.Status))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"connection_id": conn.ID,
		"old_status":    old,
		"new_status":    conn.Status,
		"connection":    conn,
	})
}

type interactionBody struct {
	Type     string                 `json:"type" binding:"required"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (s *Server) addInteraction(c *gin.Context) {
	var body interactionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	conn, err := s.deps.Connections.AddInteraction(c.Request.Context(), c.Param("id"), models.Interaction{
		Type:     body.Type,
		Content:  body.Content,
		Metadata: body.Metadata,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{
		"connection_id": conn.ID,
		"interaction":   conn.Interactions[len(conn.Interactions)-1],
	})
}

func (s *Server) userConnections(c *gin.Context) {
	userID := c.Param("user_id")
	conns, err := s.deps.Connections.ListForUser(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	grouped := connections.GroupForUser(conns, userID)
	respond(c, http.StatusOK, gin.H{
		"user_id":           userID,
		"connections":       grouped,
		"total_connections": grouped.Total(),
	})
}

func (s *Server) connectionOverview(c *gin.Context) {
	counts, err := s.deps.Connections.CountByStatus(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"stats": connections.NewOverview(counts)})
}
