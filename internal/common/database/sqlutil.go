// internal/common/database/sqlutil.go
package database

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"matrix-core/internal/common/errors"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique constraint error.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// WrapQueryError converts a driver error into a StandardError, reporting
// deadline overruns as timeouts.
func WrapQueryError(ctx context.Context, queryType string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return errors.NewQueryTimeoutError(queryType)
	}
	return errors.NewQueryExecutionFailedError(queryType, err)
}

// StringsColumn encodes a string slice for a JSON array column. A nil slice
// is stored as [].
func StringsColumn(vals []string) []byte {
	if vals == nil {
		return []byte("[]")
	}
	raw, _ := json.Marshal(vals)
	return raw
}

// ScanJSONColumn decodes a JSON column into dst. Empty input leaves dst untouched.
func ScanJSONColumn(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// CacheGetJSON reads a cached JSON value. A miss returns false with no error.
func CacheGetJSON(ctx context.Context, rdb *redis.Client, key string, dst interface{}) (bool, error) {
	val, err := rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, err
	}
	return true, nil
}

// CacheSetJSON stores v as JSON under key with the given TTL.
func CacheSetJSON(ctx context.Context, rdb *redis.Client, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, data, ttl).Err()
}
