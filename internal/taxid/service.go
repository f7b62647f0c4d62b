// internal/taxid/service.go
package taxid

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"matrix-core/internal/common/config"
	"matrix-core/internal/common/database"
	"matrix-core/internal/common/errors"
	commonhttp "matrix-core/internal/common/http"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// MaxBatchSize bounds BatchVerify.
const MaxBatchSize = 10

// Registry statuses that are not returned by the registry itself.
const (
	StatusUnverified = "unverified"
	StatusNotFound   = "not_found"
)

// Result is a normalized tax ID verification.
type Result struct {
	INN            string    `json:"inn"`
	IsValid        bool      `json:"is_valid"`
	OrgType        string    `json:"org_type"`
	CompanyName    string    `json:"company_name,omitempty"`
	ShortName      string    `json:"short_name,omitempty"`
	OGRN           string    `json:"ogrn,omitempty"`
	OGRNDate       string    `json:"ogrn_date,omitempty"`
	RegistryStatus string    `json:"registry_status"`
	IsActive       bool      `json:"is_active"`
	Address        string    `json:"address,omitempty"`
	OKVED          string    `json:"okved,omitempty"`
	OKVEDText      string    `json:"okved_desc,omitempty"`
	Director       string    `json:"director,omitempty"`
	Source         string    `json:"source"`
	Cached         bool      `json:"cached"`
	VerifiedAt     time.Time `json:"verification_date"`
}

// Usage is the registry quota for the current day.
type Usage struct {
	Date      string  `json:"date"`
	Used      int     `json:"used"`
	Limit     int     `json:"limit"`
	Remaining int     `json:"remaining"`
	Percent   float64 `json:"usage_percent"`
}

// Service verifies INNs against the tax registry with a Redis cache and a
// daily request quota.
type Service struct {
	cfg    config.TaxIDConfig
	client *commonhttp.Client
	redis  *redis.Client
	logger logger.Logger
	now    func() time.Time
}

func NewService(cfg config.TaxIDConfig, rdb *redis.Client, log logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		client: commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		redis:  rdb,
		logger: log.WithFields(map[string]interface{}{"component": "taxid"}),
		now:    time.Now,
	}
}

// Available reports whether registry lookups are configured.
func (s *Service) Available() bool {
	return s.cfg.APIKey != ""
}

func cacheKey(inn string) string {
	sum := md5.Sum([]byte(inn))
	return "taxid:" + hex.EncodeToString(sum[:])
}

func (s *Service) usageKey() string {
	return "taxid:usage:" + s.now().UTC().Format("2006-01-02")
}

// Verify validates the checksum and, when a registry key is configured,
// looks the INN up in the registry.
func (s *Service) Verify(ctx context.Context, inn string) (*Result, error) {
	inn = strings.TrimSpace(inn)
	if err := ValidateChecksum(inn); err != nil {
		metrics.TaxIDLookups.WithLabelValues("invalid").Inc()
		return nil, errors.NewTaxIDInvalidError(inn).WithCause(err).WithMetadata("reason", err.Error())
	}

	if !s.Available() {
		metrics.TaxIDLookups.WithLabelValues("checksum").Inc()
		return &Result{
			INN:            inn,
			IsValid:        true,
			OrgType:        OrgType(inn),
			RegistryStatus: StatusUnverified,
			Source:         "checksum",
			VerifiedAt:     s.now().UTC(),
		}, nil
	}

	var cached Result
	hit, err := database.CacheGetJSON(ctx, s.redis, cacheKey(inn), &cached)
	if err != nil {
		s.logger.Warn("tax ID cache read failed", map[string]interface{}{"error": err})
	}
	if hit {
		metrics.TaxIDLookups.WithLabelValues("cache").Inc()
		cached.Cached = true
		return &cached, nil
	}

	if err := s.reserveQuota(ctx); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	query := url.Values{"req": {inn}, "key": {s.cfg.APIKey}}
	if err := s.client.GetJSON(ctx, strings.TrimRight(s.cfg.BaseURL, "/")+"/egr", query, &raw); err != nil {
		s.logger.Error("tax registry lookup failed", map[string]interface{}{
			"inn":   inn,
			"error": err,
		})
		return nil, errors.NewTaxIDLookupFailedError(err)
	}

	result := normalize(inn, raw, s.now().UTC())
	if result.RegistryStatus == StatusNotFound {
		metrics.TaxIDLookups.WithLabelValues("not_found").Inc()
		return result, nil
	}

	ttl := time.Duration(s.cfg.CacheTTLHours) * time.Hour
	if err := database.CacheSetJSON(ctx, s.redis, cacheKey(inn), result, ttl); err != nil {
		s.logger.Warn("tax ID cache write failed", map[string]interface{}{"error": err})
	}
	metrics.TaxIDLookups.WithLabelValues("registry").Inc()
	s.logger.Info("tax ID verified", map[string]interface{}{
		"inn":      inn,
		"isActive": result.IsActive,
	})
	return result, nil
}

// reserveQuota counts one registry request against today's limit.
func (s *Service) reserveQuota(ctx context.Context) error {
	key := s.usageKey()
	used, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		return errors.NewCacheUnavailableError(err)
	}
	if used == 1 {
		s.redis.Expire(ctx, key, 48*time.Hour)
	}

	limit := int64(s.cfg.DailyLimit)
	if used > limit {
		s.redis.Decr(ctx, key)
		s.logger.Error("tax registry daily limit reached", map[string]interface{}{
			"limit": limit,
		})
		return errors.NewTaxIDLimitExceededError(s.cfg.DailyLimit)
	}
	if used*5 >= limit*4 {
		s.logger.Warn("tax registry quota nearly exhausted", map[string]interface{}{
			"used":  used,
			"limit": limit,
		})
	}
	return nil
}

// BatchItem is one entry of a batch verification.
type BatchItem struct {
	INN    string  `json:"inn"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
	Code   string  `json:"code,omitempty"`
}

// BatchVerify verifies up to MaxBatchSize INNs. Per-INN failures are reported
// in the items; a quota failure stops the batch.
func (s *Service) BatchVerify(ctx context.Context, inns []string) ([]BatchItem, error) {
	if len(inns) == 0 {
		return nil, errors.NewInvalidInputError("inns list is empty")
	}
	if len(inns) > MaxBatchSize {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("at most %d INNs per batch", MaxBatchSize))
	}

	items := make([]BatchItem, 0, len(inns))
	for _, inn := range inns {
		res, err := s.Verify(ctx, inn)
		if err != nil {
			std := errors.AsStandardError(err)
			if std.Code == errors.ErrCodeTaxIDLimitExceeded {
				return items, err
			}
			items = append(items, BatchItem{INN: inn, Error: std.Message, Code: string(std.Code)})
			continue
		}
		items = append(items, BatchItem{INN: inn, Result: res})
	}
	return items, nil
}

// Usage returns today's registry quota.
func (s *Service) Usage(ctx context.Context) (*Usage, error) {
	used, err := s.redis.Get(ctx, s.usageKey()).Int()
	if err != nil && err != redis.Nil {
		return nil, errors.NewCacheUnavailableError(err)
	}
	u := &Usage{
		Date:  s.now().UTC().Format("2006-01-02"),
		Used:  used,
		Limit: s.cfg.DailyLimit,
	}
	u.Remaining = u.Limit - u.Used
	if u.Remaining < 0 {
		u.Remaining = 0
	}
	if u.Limit > 0 {
		u.Percent = float64(u.Used*1000/u.Limit) / 10
	}
	return u, nil
}

// Refresh bypasses the cache and asks the registry again. It needs a
// configured registry; checksum-only mode reports TAXID_UNAVAILABLE.
func (s *Service) Refresh(ctx context.Context, inn string) (*Result, error) {
	inn = strings.TrimSpace(inn)
	if err := ValidateChecksum(inn); err != nil {
		return nil, errors.NewTaxIDInvalidError(inn).WithCause(err).WithMetadata("reason", err.Error())
	}
	if !s.Available() {
		return nil, errors.NewTaxIDUnavailableError().WithMetadata("inn", inn)
	}
	if _, err := s.ClearCache(ctx, inn); err != nil {
		s.logger.Warn("tax ID cache clear failed", map[string]interface{}{"error": err})
	}
	return s.Verify(ctx, inn)
}

// ClearCache drops the cached verification for inn and reports whether one existed.
func (s *Service) ClearCache(ctx context.Context, inn string) (bool, error) {
	n, err := s.redis.Del(ctx, cacheKey(strings.TrimSpace(inn))).Result()
	if err != nil {
		return false, errors.NewCacheUnavailableError(err)
	}
	return n > 0, nil
}
