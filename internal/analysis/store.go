// internal/analysis/store.go
package analysis

import (
	"context"
	stderrors "errors"
	"time"

	"matrix-core/internal/common/database"
	"matrix-core/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

var ErrAnalysisNotFound = stderrors.New("ANALYSIS_NOT_FOUND")

const keyPrefix = "analysis:"

// Store keeps analysis results in Redis for a limited time.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: rdb, ttl: ttl}
}

func (s *Store) Save(ctx context.Context, r *Result) error {
	if err := database.CacheSetJSON(ctx, s.redis, keyPrefix+r.AnalysisID, r, s.ttl); err != nil {
		return errors.NewCacheUnavailableError(err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Result, error) {
	var r Result
	found, err := database.CacheGetJSON(ctx, s.redis, keyPrefix+id, &r)
	if err != nil {
		return nil, errors.NewCacheUnavailableError(err)
	}
	if !found {
		return nil, errors.NewAnalysisNotFoundError(id).WithCause(ErrAnalysisNotFound)
	}
	return &r, nil
}
