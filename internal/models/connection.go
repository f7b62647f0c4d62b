// internal/models/connection.go
package models

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTransition = errors.New("INVALID_STATUS_TRANSITION")

type ConnectionStatus string

const (
	ConnectionPending   ConnectionStatus = "pending"
	ConnectionAccepted  ConnectionStatus = "accepted"
	ConnectionRejected  ConnectionStatus = "rejected"
	ConnectionCompleted ConnectionStatus = "completed"
)

// Connection types.
const (
	ConnectionTypeRecommendation = "recommendation"
	ConnectionTypeDirect         = "direct"
	ConnectionTypeIntroduction   = "introduction"
)

// IsValidConnectionType reports whether t is a known connection type.
func IsValidConnectionType(t string) bool {
	switch t {
	case ConnectionTypeRecommendation, ConnectionTypeDirect, ConnectionTypeIntroduction:
		return true
	}
	return false
}

var transitions = map[ConnectionStatus][]ConnectionStatus{
	ConnectionPending:  {ConnectionAccepted, ConnectionRejected},
	ConnectionAccepted: {ConnectionCompleted},
}

// CanTransition reports whether a connection may move from one status to another.
func CanTransition(from, to ConnectionStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Connection links two users, usually a customer and a recommended partner.
type Connection struct {
	ID              string                 `json:"connection_id" db:"id"`
	FromUser        string                 `json:"from_user" db:"from_user"`
	ToUser          string                 `json:"to_user" db:"to_user"`
	ConnectionType  string                 `json:"connection_type" db:"connection_type"`
	Context         map[string]interface{} `json:"context" db:"context"`
	Status          ConnectionStatus       `json:"status" db:"status"`
	ConnectionScore float64                `json:"connection_score" db:"connection_score"`
	Interactions    []Interaction          `json:"interactions" db:"interactions"`
	CreatedAt       time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at" db:"updated_at"`
}

// Interaction is one event on a connection: a status change, message, call or meeting.
type Interaction struct {
	ID         string                 `json:"interaction_id"`
	Type       string                 `json:"type"`
	FromStatus ConnectionStatus       `json:"from_status,omitempty"`
	ToStatus   ConnectionStatus       `json:"to_status,omitempty"`
	Content    string                 `json:"content,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

const InteractionStatusChange = "status_change"

// Transition moves the connection to a new status and records the change.
func (c *Connection) Transition(to ConnectionStatus, interactionID string, at time.Time) error {
	if !CanTransition(c.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, to)
	}
	c.Interactions = append(c.Interactions, Interaction{
		ID:         interactionID,
		Type:       InteractionStatusChange,
		FromStatus: c.Status,
		ToStatus:   to,
		Timestamp:  at,
	})
	c.Status = to
	c.UpdatedAt = at
	return nil
}

// Direction is "outgoing" when userID started the connection, else "incoming".
func (c *Connection) Direction(userID string) string {
	if c.FromUser == userID {
		return "outgoing"
	}
	return "incoming"
}

// Counterpart returns the other side of the connection.
func (c *Connection) Counterpart(userID string) string {
	if c.FromUser == userID {
		return c.ToUser
	}
	return c.FromUser
}

// ScoreFromContext reads context.match_score, defaulting to 0.
func ScoreFromContext(ctx map[string]interface{}) float64 {
	switch v := ctx["match_score"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
