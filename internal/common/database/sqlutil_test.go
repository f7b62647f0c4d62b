// internal/common/database/sqlutil_test.go
package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"matrix-core/internal/common/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(fmt.Errorf("boom")))
}

func TestWrapQueryError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := WrapQueryError(ctx, "partner_get", context.DeadlineExceeded)
	assert.True(t, errors.HasCode(err, errors.ErrCodeQueryTimeout))

	err = WrapQueryError(context.Background(), "partner_get", fmt.Errorf("syntax error"))
	assert.True(t, errors.HasCode(err, errors.ErrCodeQueryExecutionFailed))
}

func TestStringsColumn(t *testing.T) {
	assert.Equal(t, "[]", string(StringsColumn(nil)))
	assert.Equal(t, `["a","b"]`, string(StringsColumn([]string{"a", "b"})))

	var out []string
	require.NoError(t, ScanJSONColumn([]byte(`["Москва"]`), &out))
	assert.Equal(t, []string{"Москва"}, out)
	require.NoError(t, ScanJSONColumn(nil, &out))
}

func TestCacheJSON(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	var got map[string]int
	hit, err := CacheGetJSON(ctx, rdb, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, CacheSetJSON(ctx, rdb, "k", map[string]int{"a": 1}, time.Minute))
	hit, err = CacheGetJSON(ctx, rdb, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, got["a"])
	assert.Equal(t, time.Minute, mr.TTL("k"))
}
