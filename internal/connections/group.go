// internal/connections/group.go
package connections

import (
	"math"
	"time"

	"matrix-core/internal/models"
)

// Summary is the per-user view of one connection.
type Summary struct {
	ConnectionID    string                  `json:"connection_id"`
	OtherUser       string                  `json:"other_user"`
	Direction       string                  `json:"direction"`
	Status          models.ConnectionStatus `json:"status"`
	ConnectionType  string                  `json:"connection_type"`
	ConnectionScore float64                 `json:"connection_score"`
	CreatedAt       string                  `json:"created_at"`
}

// Grouped buckets a user's connections; accepted and completed count as active.
type Grouped struct {
	Pending  []Summary `json:"pending"`
	Active   []Summary `json:"active"`
	Rejected []Summary `json:"rejected"`
}

func (g Grouped) Total() int {
	return len(g.Pending) + len(g.Active) + len(g.Rejected)
}

// GroupForUser summarizes connections from userID's point of view.
func GroupForUser(conns []*models.Connection, userID string) Grouped {
	g := Grouped{Pending: []Summary{}, Active: []Summary{}, Rejected: []Summary{}}
	for _, c := range conns {
		s := Summary{
			ConnectionID:    c.ID,
			OtherUser:       c.Counterpart(userID),
			Direction:       c.Direction(userID),
			Status:          c.Status,
			ConnectionType:  c.ConnectionType,
			ConnectionScore: c.ConnectionScore,
			CreatedAt:       c.CreatedAt.Format(time.RFC3339),
		}
		switch c.Status {
		case models.ConnectionPending:
			g.Pending = append(g.Pending, s)
		case models.ConnectionAccepted, models.ConnectionCompleted:
			g.Active = append(g.Active, s)
		case models.ConnectionRejected:
			g.Rejected = append(g.Rejected, s)
		}
	}
	return g
}

// Overview is the platform-wide connection summary.
type Overview struct {
	Total                 int                             `json:"total_connections"`
	StatusDistribution    map[models.ConnectionStatus]int `json:"status_distribution"`
	SuccessfulConnections int                             `json:"successful_connections"`
	SuccessRate           float64                         `json:"success_rate"`
}

// NewOverview derives totals and the success rate (percent, one decimal).
func NewOverview(counts map[models.ConnectionStatus]int) Overview {
	o := Overview{StatusDistribution: counts}
	for _, n := range counts {
		o.Total += n
	}
	o.SuccessfulConnections = counts[models.ConnectionAccepted] + counts[models.ConnectionCompleted]
	if o.Total > 0 {
		o.SuccessRate = math.Round(float64(o.SuccessfulConnections)/float64(o.Total)*1000) / 10
	}
	return o
}
