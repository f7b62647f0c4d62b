// internal/users/repository.go
package users

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
	"matrix-core/internal/matching"
	"matrix-core/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrUserNotFound = stderrors.New("USER_NOT_FOUND")

const cacheKeyPrefix = "user:profile:"

// Repository stores users, their profiles and their requests.
type Repository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, int, error)
	AddRequest(ctx context.Context, req *models.UserRequest) error
	ListRequests(ctx context.Context, userID string, limit int) ([]*models.UserRequest, error)
	LatestRequest(ctx context.Context, userID string) (*models.UserRequest, error)
	MarkRequestAnalyzed(ctx context.Context, requestID string, matched int) error
	Stats(ctx context.Context, id string) (*models.UserStats, error)
}

type PostgresRepository struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewRepository(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "users"}),
	}
}

const userColumns = `id, user_type, email, is_active, verification_status, profile, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var userType string
	var profile []byte
	if err := row.Scan(&u.ID, &userType, &u.Email, &u.IsActive, &u.VerificationStatus, &profile, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.UserType = matching.UserRole(userType)
	if err := database.ScanJSONColumn(profile, &u.Profile); err != nil {
		return nil, fmt.Errorf("decode profile of %s: %w", u.ID, err)
	}
	return &u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, u *models.User) error {
	profile, err := json.Marshal(u.Profile)
	if err != nil {
		return errors.NewInternalError(err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, user_type, email, is_active, verification_status, profile, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, string(u.UserType), u.Email, u.IsActive, u.VerificationStatus, profile, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return errors.NewDuplicateEmailError(u.Email)
		}
		return database.WrapQueryError(ctx, "user_create", err)
	}

	r.logger.Info("user registered", map[string]interface{}{
		"userId":   u.ID,
		"userType": u.UserType,
	})
	return nil
}

// GetByID returns a user, serving from cache when possible.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	key := cacheKeyPrefix + id
	var cached models.User
	hit, err := database.CacheGetJSON(ctx, r.redis, key, &cached)
	if err != nil {
		r.logger.Warn("user cache read failed", map[string]interface{}{
			"userId": id,
			"error":  err,
		})
	}
	if hit {
		return &cached, nil
	}

	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewUserNotFoundError(id).WithCause(ErrUserNotFound)
	}
	if err != nil {
		return nil, database.WrapQueryError(ctx, "user_get", err)
	}

	if err := database.CacheSetJSON(ctx, r.redis, key, u, r.cacheTTL); err != nil {
		r.logger.Warn("user cache write failed", map[string]interface{}{
			"userId": id,
			"error":  err,
		})
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err == sql.ErrNoRows {
		return nil, errors.NewUserNotFoundError(email).WithCause(ErrUserNotFound)
	}
	if err != nil {
		return nil, database.WrapQueryError(ctx, "user_get_by_email", err)
	}
	return u, nil
}

// UpdateProfile applies the update under a row lock and returns the updated
// user with the number of changed fields.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, int, error) {
	var user *models.User
	var changed int
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		u, err := r.lockUser(ctx, tx, id)
		if err != nil {
			return err
		}
		changed = update.Apply(&u.Profile)
		u.UpdatedAt = time.Now().UTC()
		if err := r.writeProfile(ctx, tx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	r.invalidate(ctx, id)
	return user, changed, nil
}

// AddRequest stores a request and appends it to the user's interaction history.
func (r *PostgresRepository) AddRequest(ctx context.Context, req *models.UserRequest) error {
	data, err := json.Marshal(req.RequestData)
	if err != nil {
		return errors.NewInternalError(err)
	}

	err = database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		u, err := r.lockUser(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_requests (id, user_id, request_type, message, request_data, source, status, matched_partners_count, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			req.ID, req.UserID, req.RequestType, req.Message, data, req.Source, req.Status, req.MatchedPartnersCount, req.CreatedAt,
		)
		if err != nil {
			return database.WrapQueryError(ctx, "user_request_create", err)
		}

		u.Profile.AppendInteraction(models.InteractionEntry{
			Type:        "request_created",
			RequestID:   req.ID,
			RequestType: req.RequestType,
			Timestamp:   req.CreatedAt,
		})
		u.UpdatedAt = time.Now().UTC()
		return r.writeProfile(ctx, tx, u)
	})
	if err != nil {
		return err
	}

	r.invalidate(ctx, req.UserID)
	return nil
}

const requestColumns = `id, user_id, request_type, message, request_data, source, status, matched_partners_count, created_at`

func scanRequest(row rowScanner) (*models.UserRequest, error) {
	var req models.UserRequest
	var data []byte
	if err := row.Scan(&req.ID, &req.UserID, &req.RequestType, &req.Message, &data, &req.Source, &req.Status, &req.MatchedPartnersCount, &req.CreatedAt); err != nil {
		return nil, err
	}
	if err := database.ScanJSONColumn(data, &req.RequestData); err != nil {
		return nil, fmt.Errorf("decode request %s: %w", req.ID, err)
	}
	return &req, nil
}

// ListRequests returns the user's requests, newest first.
func (r *PostgresRepository) ListRequests(ctx context.Context, userID string, limit int) ([]*models.UserRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+requestColumns+` FROM user_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, database.WrapQueryError(ctx, "user_request_list", err)
	}
	defer rows.Close()

	out := make([]*models.UserRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, database.WrapQueryError(ctx, "user_request_list", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapQueryError(ctx, "user_request_list", err)
	}
	return out, nil
}

// LatestRequest returns the most recent request, or nil when the user has none.
func (r *PostgresRepository) LatestRequest(ctx context.Context, userID string) (*models.UserRequest, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+` FROM user_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, database.WrapQueryError(ctx, "user_request_latest", err)
	}
	return req, nil
}

func (r *PostgresRepository) MarkRequestAnalyzed(ctx context.Context, requestID string, matched int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_requests SET status = $3, matched_partners_count = $2 WHERE id = $1`,
		requestID, matched, models.RequestStatusAnalyzed)
	if err != nil {
		return database.WrapQueryError(ctx, "user_request_update", err)
	}
	return nil
}

func (r *PostgresRepository) Stats(ctx context.Context, id string) (*models.UserStats, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &models.UserStats{UserID: id, ProfileCompleteness: u.Profile.Completeness()}
	err = r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM user_requests WHERE user_id = $1),
			(SELECT COUNT(*) FROM connections WHERE from_user = $1 OR to_user = $1)`, id).
		Scan(&stats.RequestsCount, &stats.ConnectionsCount)
	if err != nil {
		return nil, database.WrapQueryError(ctx, "user_stats", err)
	}
	return stats, nil
}

func (r *PostgresRepository) lockUser(ctx context.Context, tx *sql.Tx, id string) (*models.User, error) {
	u, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewUserNotFoundError(id).WithCause(ErrUserNotFound)
	}
	if err != nil {
		return nil, database.WrapQueryError(ctx, "user_lock", err)
	}
	return u, nil
}

func (r *PostgresRepository) writeProfile(ctx context.Context, tx *sql.Tx, u *models.User) error {
	profile, err := json.Marshal(u.Profile)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET profile = $2, updated_at = $3 WHERE id = $1`, u.ID, profile, u.UpdatedAt); err != nil {
		return database.WrapQueryError(ctx, "user_profile_update", err)
	}
	return nil
}

func (r *PostgresRepository) invalidate(ctx context.Context, id string) {
	if err := r.redis.Del(ctx, cacheKeyPrefix+id).Err(); err != nil {
		r.logger.Warn("user cache invalidation failed", map[string]interface{}{
			"userId": id,
			"error":  err,
		})
	}
}
