// internal/connections/repository.go
package connections

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"matrix-core/internal/common/database"
	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/models"

	"github.com/google/uuid"
)

var (
	ErrConnectionNotFound = stderrors.New("CONNECTION_NOT_FOUND")
	ErrDuplicate          = stderrors.New("DUPLICATE_CONNECTION")
	ErrSelfConnection     = stderrors.New("SELF_CONNECTION")
)

type Repository interface {
	Create(ctx context.Context, c *models.Connection) error
	Get(ctx context.Context, id string) (*models.Connection, error)
	FindBetween(ctx context.Context, userA, userB string) (*models.Connection, error)
	UpdateStatus(ctx context.Context, id string, status models.ConnectionStatus) (*models.Connection, models.ConnectionStatus, error)
	AddInteraction(ctx context.Context, id string, interaction models.Interaction) (*models.Connection, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Connection, error)
	CountByStatus(ctx context.Context) (map[models.ConnectionStatus]int, error)
}

type PostgresRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRepository(db *sql.DB, log logger.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "connections"}),
	}
}

const connectionColumns = `id, from_user, to_user, connection_type, context, status, connection_score, interactions, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConnection(row rowScanner) (*models.Connection, error) {
	var c models.Connection
	var status string
	var ctxRaw, interactions []byte
	err := row.Scan(&c.ID, &c.FromUser, &c.ToUser, &c.ConnectionType, &ctxRaw, &status,
		&c.ConnectionScore, &interactions, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = models.ConnectionStatus(status)
	if err := database.ScanJSONColumn(ctxRaw, &c.Context); err != nil {
		return nil, fmt.Errorf("decode context of %s: %w", c.ID, err)
	}
	if err := database.ScanJSONColumn(interactions, &c.Interactions); err != nil {
		return nil, fmt.Errorf("decode interactions of %s: %w", c.ID, err)
	}
	if c.Interactions == nil {
		c.Interactions = []models.Interaction{}
	}
	return &c, nil
}

// Create stores a new connection. A connection between the same two users
// in either direction is rejected as a duplicate.
func (r *PostgresRepository) Create(ctx context.Context, c *models.Connection) error {
	if c.FromUser == c.ToUser {
		return errors.NewInvalidInputError("cannot connect a user to themselves").WithCause(ErrSelfConnection)
	}

	existing, err := r.FindBetween(ctx, c.FromUser, c.ToUser)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.NewDuplicateConnectionError(existing.ID).
			WithCause(ErrDuplicate).
			WithMetadata("status", string(existing.Status))
	}

	ctxRaw, err := json.Marshal(c.Context)
	if err != nil {
		return errors.NewInternalError(err)
	}
	interactions, err := json.Marshal(c.Interactions)
	if err != nil {
		return errors.NewInternalError(err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO connections (id, from_user, to_user, connection_type, context, status, connection_score, interactions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.FromUser, c.ToUser, c.ConnectionType, ctxRaw, string(c.Status),
		c.ConnectionScore, interactions, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return database.WrapQueryError(ctx, "connection_create", err)
	}

	r.logger.Info("connection created", map[string]interface{}{
		"connectionId": c.ID,
		"from":         c.FromUser,
		"to":           c.ToUser,
		"type":         c.ConnectionType,
	})
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Connection, error) {
	c, err := scanConnection(r.db.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM connections WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewConnectionNotFoundError(id).WithCause(ErrConnectionNotFound)
	}
	if err != nil {
		return nil, database.WrapQueryError(ctx, "connection_get", err)
	}
	return c, nil
}

// FindBetween returns the connection between two users in either direction,
// or nil when there is none.
func (r *PostgresRepository) FindBetween(ctx context.Context, userA, userB string) (*models.Connection, error) {
	c, err := scanConnection(r.db.QueryRowContext(ctx, `
		SELECT `+connectionColumns+` FROM connections
		WHERE (from_user = $1 AND to_user = $2) OR (from_user = $2 AND to_user = $1)
		LIMIT 1`, userA, userB))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, database.WrapQueryError(ctx, "connection_find", err)
	}
	return c, nil
}

// UpdateStatus moves a connection along pending -> accepted|rejected and
// accepted -> completed. It returns the updated connection and the old status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.ConnectionStatus) (*models.Connection, models.ConnectionStatus, error) {
	var updated *models.Connection
	var from models.ConnectionStatus
	err := r.mutate(ctx, id, func(c *models.Connection, now time.Time) error {
		from = c.Status
		if err := c.Transition(status, uuid.New().String(), now); err != nil {
			return errors.NewInvalidTransitionError(string(from), string(status)).WithCause(err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	r.logger.Info("connection status changed", map[string]interface{}{
		"connectionId": id,
		"from":         from,
		"to":           status,
	})
	return updated, from, nil
}

// AddInteraction appends an interaction, assigning its ID and timestamp.
func (r *PostgresRepository) AddInteraction(ctx context.Context, id string, interaction models.Interaction) (*models.Connection, error) {
	var updated *models.Connection
	err := r.mutate(ctx, id, func(c *models.Connection, now time.Time) error {
		interaction.ID = uuid.New().String()
		interaction.Timestamp = now
		c.Interactions = append(c.Interactions, interaction)
		c.UpdatedAt = now
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListForUser returns every connection the user takes part in, newest first.
func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.Connection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+connectionColumns+` FROM connections
		WHERE from_user = $1 OR to_user = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, database.WrapQueryError(ctx, "connection_list", err)
	}
	defer rows.Close()

	out := make([]*models.Connection, 0)
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, database.WrapQueryError(ctx, "connection_list", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapQueryError(ctx, "connection_list", err)
	}
	return out, nil
}

func (r *PostgresRepository) CountByStatus(ctx context.Context) (map[models.ConnectionStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM connections GROUP BY status`)
	if err != nil {
		return nil, database.WrapQueryError(ctx, "connection_stats", err)
	}
	defer rows.Close()

	counts := make(map[models.ConnectionStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, database.WrapQueryError(ctx, "connection_stats", err)
		}
		counts[models.ConnectionStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapQueryError(ctx, "connection_stats", err)
	}
	return counts, nil
}

// mutate locks the connection row, applies fn and writes status and
// interactions back in the same transaction.
func (r *PostgresRepository) mutate(ctx context.Context, id string, fn func(*models.Connection, time.Time) error) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		c, err := scanConnection(tx.QueryRowContext(ctx,
			`SELECT `+connectionColumns+` FROM connections WHERE id = $1 FOR UPDATE`, id))
		if err == sql.ErrNoRows {
			return errors.NewConnectionNotFoundError(id).WithCause(ErrConnectionNotFound)
		}
		if err != nil {
			return database.WrapQueryError(ctx, "connection_lock", err)
		}

		if err := fn(c, time.Now().UTC()); err != nil {
			return err
		}

		interactions, err := json.Marshal(c.Interactions)
		if err != nil {
			return errors.NewInternalError(err)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE connections SET status = $2, interactions = $3, updated_at = $4 WHERE id = $1`,
			c.ID, string(c.Status), interactions, c.UpdatedAt)
		if err != nil {
			return database.WrapQueryError(ctx, "connection_update", err)
		}
		return nil
	})
}
