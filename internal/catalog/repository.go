// internal/catalog/repository.go
package catalog

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"math"
	"time"

	"matrix-core/internal/common/database"
	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/matching"
	"matrix-core/internal/models"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

var ErrPartnerNotFound = stderrors.New("PARTNER_NOT_FOUND")

const cacheKeyPrefix = "partner:profile:"

// Repository is the partner catalog.
type Repository interface {
	CreatePartner(ctx context.Context, p *models.Partner) error
	GetPartner(ctx context.Context, id string) (*models.Partner, error)
	UpdatePartner(ctx context.Context, p *models.Partner) error
	UpdateWorkload(ctx context.Context, id string, workload int) (int, error)
	ListActivePartners(ctx context.Context) ([]matching.PartnerRecord, error)
	SearchPartners(ctx context.Context, criteria matching.SearchCriteria, ids []string, sortBy string, limit int) ([]matching.SearchHit, int, error)
	PartnerStats(ctx context.Context, id string) (*models.PartnerStats, error)
}

// PostgresRepository stores partners in Postgres with a Redis read-through
// cache of single profiles.
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
		logger:   log.WithFields(map[string]interface{}{"component": "catalog"}),
	}
}

const partnerColumns = `id, COALESCE(user_id, ''), user_type, company_name, legal_name, email, phone, tax_id,
		years_on_market, specializations, services, regions, willing_to_travel,
		current_workload, available_capacity, min_order_size, urgency_level,
		flexible_pricing, verification_status, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPartner(row rowScanner) (*models.Partner, error) {
	var p models.Partner
	var specs, services, regions []byte
	var status string
	err := row.Scan(
		&p.ID, &p.UserID, &p.UserType, &p.CompanyName, &p.LegalName, &p.Email, &p.Phone, &p.TaxID,
		&p.YearsOnMarket, &specs, &services, &regions, &p.WillingToTravel,
		&p.CurrentWorkload, &p.AvailableCapacity, &p.MinOrderSize, &p.UrgencyLevel,
		&p.FlexiblePricing, &status, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.VerificationStatus = matching.VerificationStatus(status)
	for _, col := range []struct {
		raw []byte
		dst *[]string
	}{{specs, &p.Specializations}, {services, &p.Services}, {regions, &p.Regions}} {
		if err := database.ScanJSONColumn(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decode partner %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

func (r *PostgresRepository) CreatePartner(ctx context.Context, p *models.Partner) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO partners (
			id, user_id, user_type, company_name, legal_name, email, phone, tax_id,
			years_on_market, specializations, services, regions, willing_to_travel,
			current_workload, available_capacity, min_order_size, urgency_level,
			flexible_pricing, verification_status, is_active, created_at, updated_at
		) VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		p.ID, p.UserID, p.UserType, p.CompanyName, p.LegalName, p.Email, p.Phone, p.TaxID,
		p.YearsOnMarket, database.StringsColumn(p.Specializations), database.StringsColumn(p.Services),
		database.StringsColumn(p.Regions), p.WillingToTravel,
		p.CurrentWorkload, p.AvailableCapacity, p.MinOrderSize, p.UrgencyLevel,
		p.FlexiblePricing, string(p.VerificationStatus), p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return errors.NewDuplicateEmailError(p.Email)
		}
		return database.WrapQueryError(ctx, "partner_create", err)
	}

	r.logger.Info("partner created", map[string]interface{}{
		"partnerId": p.ID,
		"userType":  p.UserType,
	})
	return nil
}

// GetPartner returns a partner by ID, serving from cache when possible.
func (r *PostgresRepository) GetPartner(ctx context.Context, id string) (*models.Partner, error) {
	key := cacheKeyPrefix + id
	var cached models.Partner
	hit, err := database.CacheGetJSON(ctx, r.redis, key, &cached)
	if err != nil {
		r.logger.Warn("partner cache read failed", map[string]interface{}{
			"partnerId": id,
			"error":     err,
		})
	}
	if hit {
		return &cached, nil
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id)
	p, err := scanPartner(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewPartnerNotFoundError(id).WithCause(ErrPartnerNotFound)
	}
	if err != nil {
		return nil, database.WrapQueryError(ctx, "partner_get", err)
	}

	if err := database.CacheSetJSON(ctx, r.redis, key, p, r.cacheTTL); err != nil {
		r.logger.Warn("partner cache write failed", map[string]interface{}{
			"partnerId": id,
			"error":     err,
		})
	}
	return p, nil
}

// UpdatePartner writes every mutable field. Capacity is taken from the
// partner as given; callers go through Partner.SetWorkload.
func (r *PostgresRepository) UpdatePartner(ctx context.Context, p *models.Partner) error {
	if p.CurrentWorkload+p.AvailableCapacity != 100 {
		return errors.NewInvalidWorkloadError(p.CurrentWorkload)
	}
	p.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE partners SET
			company_name = $2, legal_name = $3, phone = $4, tax_id = $5, years_on_market = $6,
			specializations = $7, services = $8, regions = $9, willing_to_travel = $10,
			current_workload = $11, available_capacity = $12, min_order_size = $13,
			urgency_level = $14, flexible_pricing = $15, verification_status = $16,
			is_active = $17, updated_at = $18
		WHERE id = $1`,
		p.ID, p.CompanyName, p.LegalName, p.Phone, p.TaxID, p.YearsOnMarket,
		database.StringsColumn(p.Specializations), database.StringsColumn(p.Services),
		database.StringsColumn(p.Regions), p.WillingToTravel,
		p.CurrentWorkload, p.AvailableCapacity, p.MinOrderSize,
		p.UrgencyLevel, p.FlexiblePricing, string(p.VerificationStatus),
		p.IsActive, p.UpdatedAt,
	)
	if err != nil {
		return database.WrapQueryError(ctx, "partner_update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewPartnerNotFoundError(p.ID).WithCause(ErrPartnerNotFound)
	}

	r.invalidate(ctx, p.ID)
	return nil
}

// UpdateWorkload sets the workload and capacity in one statement and returns
// the new available capacity.
func (r *PostgresRepository) UpdateWorkload(ctx context.Context, id string, workload int) (int, error) {
	if workload < 0 || workload > 100 {
		return 0, errors.NewInvalidWorkloadError(workload).WithCause(models.ErrInvalidWorkload)
	}

	var capacity int
	err := r.db.QueryRowContext(ctx, `
		UPDATE partners
		SET current_workload = $1, available_capacity = 100 - $1, updated_at = NOW()
		WHERE id = $2
		RETURNING available_capacity`, workload, id).Scan(&capacity)
	if err == sql.ErrNoRows {
		return 0, errors.NewPartnerNotFoundError(id).WithCause(ErrPartnerNotFound)
	}
	if err != nil {
		return 0, database.WrapQueryError(ctx, "partner_update_workload", err)
	}

	r.invalidate(ctx, id)
	r.logger.Info("partner workload updated", map[string]interface{}{
		"partnerId":         id,
		"workload":          workload,
		"availableCapacity": capacity,
	})
	return capacity, nil
}

// ListActivePartners returns a snapshot of every active partner.
func (r *PostgresRepository) ListActivePartners(ctx context.Context) ([]matching.PartnerRecord, error) {
	partners, err := r.queryPartners(ctx, "partner_list_active",
		`SELECT `+partnerColumns+` FROM partners WHERE is_active = TRUE ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return models.Records(partners), nil
}

// SearchPartners filters active partners by criteria and ranks them by
// relevance, urgency or capacity. A non-nil ids restricts the candidates,
// usually to full-text hits from the search index.
func (r *PostgresRepository) SearchPartners(ctx context.Context, criteria matching.SearchCriteria, ids []string, sortBy string, limit int) ([]matching.SearchHit, int, error) {
	var partners []*models.Partner
	var err error
	if ids != nil {
		if len(ids) == 0 {
			return []matching.SearchHit{}, 0, nil
		}
		partners, err = r.queryPartners(ctx, "partner_search",
			`SELECT `+partnerColumns+` FROM partners WHERE is_active = TRUE AND id = ANY($1)`, pq.Array(ids))
	} else {
		partners, err = r.queryPartners(ctx, "partner_search",
			`SELECT `+partnerColumns+` FROM partners WHERE is_active = TRUE`)
	}
	if err != nil {
		return nil, 0, err
	}

	hits, total := matching.SearchPartners(models.Records(partners), criteria, sortBy, limit)
	return hits, total, nil
}

// PartnerStats summarizes the partner's connections.
func (r *PostgresRepository) PartnerStats(ctx context.Context, id string) (*models.PartnerStats, error) {
	p, err := r.GetPartner(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &models.PartnerStats{
		PartnerID:         id,
		AvailableCapacity: p.AvailableCapacity,
		UrgencyLevel:      p.UrgencyLevel,
	}
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('accepted', 'completed')),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(AVG(connection_score), 0)
		FROM connections
		WHERE from_user = $1 OR to_user = $1`, id).Scan(
		&stats.TotalConnections, &stats.AcceptedConnections, &stats.PendingConnections, &stats.AverageScore,
	)
	if err != nil {
		return nil, database.WrapQueryError(ctx, "partner_stats", err)
	}

	stats.AverageScore = round2(stats.AverageScore)
	if stats.TotalConnections > 0 {
		stats.AcceptanceRate = round2(float64(stats.AcceptedConnections) / float64(stats.TotalConnections))
	}
	return stats, nil
}

func (r *PostgresRepository) queryPartners(ctx context.Context, queryType, query string, args ...interface{}) ([]*models.Partner, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, database.WrapQueryError(ctx, queryType, err)
	}
	defer rows.Close()

	partners := make([]*models.Partner, 0)
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, database.WrapQueryError(ctx, queryType, err)
		}
		partners = append(partners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapQueryError(ctx, queryType, err)
	}
	return partners, nil
}

func (r *PostgresRepository) invalidate(ctx context.Context, id string) {
	if err := r.redis.Del(ctx, cacheKeyPrefix+id).Err(); err != nil {
		r.logger.Warn("partner cache invalidation failed", map[string]interface{}{
			"partnerId": id,
			"error":     err,
		})
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
