// internal/taxid/service_test.go
package taxid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"matrix-core/internal/common/config"
	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryRecord = `[{
  "ЮЛ": {
    "НаимЮЛ": "ПАО СБЕРБАНК ",
    "СокрНаимЮЛ": "ПАО Сбербанк",
    "ОГРН": "1027700132195",
    "ДатаОГРН": "2002-08-16",
    "Статус": "Действующее",
    "Адрес": "г. Москва, ул. Вавилова, д. 19",
    "ОКВЭД": "64.19",
    "ТекстОКВЭД": "Денежное посредничество прочее",
    "Руководитель": "Греф Герман Оскарович"
  }
}]`

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type fakeRegistry struct {
	server *httptest.Server
	hits   int32
}

func newFakeRegistry(t *testing.T, status int, body string) *fakeRegistry {
	t.Helper()
	f := &fakeRegistry{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.hits, 1)
		assert.Equal(t, "/egr", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.NotEmpty(t, r.URL.Query().Get("req"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeRegistry) Hits() int { return int(atomic.LoadInt32(&f.hits)) }

func setupService(t *testing.T, baseURL, apiKey string, limit int) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	svc := NewService(config.TaxIDConfig{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		DailyLimit:    limit,
		CacheTTLHours: 24,
		Timeout:       2000,
	}, rdb, logger.NewTestLogger(t))
	svc.now = func() time.Time { return fixedNow }
	return svc, mr
}

// ==========================
// Verify
// ==========================

func TestVerify_ChecksumOnlyWithoutAPIKey(t *testing.T) {
	svc, _ := setupService(t, "http://unused", "", 100)
	assert.False(t, svc.Available())

	res, err := svc.Verify(context.Background(), " 7707083893 ")
	require.NoError(t, err)
	assert.Equal(t, "7707083893", res.INN)
	assert.True(t, res.IsValid)
	assert.Equal(t, StatusUnverified, res.RegistryStatus)
	assert.Equal(t, "checksum", res.Source)
	assert.Equal(t, "Юридическое лицо", res.OrgType)
}

func TestVerify_InvalidChecksum(t *testing.T) {
	reg := newFakeRegistry(t, http.StatusOK, registryRecord)
	svc, _ := setupService(t, reg.server.URL, "test-key", 100)

	_, err := svc.Verify(context.Background(), "7707083894")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTaxIDInvalid))
	assert.ErrorIs(t, err, ErrChecksum)
	assert.Equal(t, 0, reg.Hits())
}

func TestVerify_RegistryThenCache(t *testing.T) {
	reg := newFakeRegistry(t, http.StatusOK, registryRecord)
	svc, mr := setupService(t, reg.server.URL, "test-key", 100)
	ctx := context.Background()

	res, err := svc.Verify(ctx, "7707083893")
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, "registry", res.Source)
	assert.Equal(t, "ПАО СБЕРБАНК", res.CompanyName)
	assert.Equal(t, "ПАО Сбербанк", res.ShortName)
	assert.Equal(t, "1027700132195", res.OGRN)
	assert.Equal(t, "Действующее", res.RegistryStatus)
	assert.True(t, res.IsActive)
	assert.Equal(t, "64.19", res.OKVED)
	assert.Equal(t, "Греф Герман Оскарович", res.Director)

	assert.True(t, mr.Exists(cacheKey("7707083893")))
	assert.Equal(t, 24*time.Hour, mr.TTL(cacheKey("7707083893")))

	again, err := svc.Verify(ctx, "7707083893")
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, res.CompanyName, again.CompanyName)
	assert.Equal(t, 1, reg.Hits())
}

func TestVerify_IndividualEnvelope(t *testing.T) {
	body := `{"items": [{"ИП": {"ФИО": "Иванов Иван Иванович", "ОГРНИП": "304500116000157", "Статус": "Прекращено"}}]}`
	reg := newFakeRegistry(t, http.StatusOK, body)
	svc, _ := setupService(t, reg.server.URL, "test-key", 100)

	res, err := svc.Verify(context.Background(), "500100732259")
	require.NoError(t, err)
	assert.Equal(t, "Индивидуальный предприниматель", res.OrgType)
	assert.Equal(t, "Иванов Иван Иванович", res.CompanyName)
	assert.Equal(t, "304500116000157", res.OGRN)
	assert.False(t, res.IsActive)
}

func TestVerify_NotFoundIsNotCached(t *testing.T) {
	reg := newFakeRegistry(t, http.StatusOK, `[]`)
	svc, mr := setupService(t, reg.server.URL, "test-key", 100)
	ctx := context.Background()

	res, err := svc.Verify(ctx, "7707083893")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.RegistryStatus)
	assert.False(t, res.IsActive)
	assert.False(t, mr.Exists(cacheKey("7707083893")))

	_, err = svc.Verify(ctx, "7707083893")
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Hits())
}

func TestVerify_RegistryError(t *testing.T) {
	reg := newFakeRegistry(t, http.StatusInternalServerError, `{"error":"boom"}`)
	svc, _ := setupService(t, reg.server.URL, "test-key", 100)

	_, err := svc.Verify(context.Background(), "7707083893")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTaxIDLookupFailed))
}

func TestVerify_DailyLimit(t *testing.T) {
	reg := newFakeRegistry(t, http.StatusOK, registryRecord)
	svc, mr := setupService(t, reg.server.URL, "test-key", 1)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "7707083893")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "7736050003")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTaxIDLimitExceeded))
	assert.Equal(t, 1, reg.Hits())

	used, err := mr.Get("taxid:usage:2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, "1", used)
	assert.Equal(t, 48*time.Hour, mr.TTL("taxid:usage:2026-03-14"))

	// cached lookups do not count against the quota
	_, err = svc.Verify(ctx, "7707083893")
	assert.NoError(t, err)
}

// ==========================
// Batch, usage and cache
// ==========================

func TestBatchVerify(t *testing.T) {
	reg := newFakeRegistry(t, http.StatusOK, registryRecord)
	svc, _ := setupService(t, reg.server.URL, "test-key", 100)
	ctx := context.Background()

	items, err := svc.BatchVerify(ctx, []string{"7707083893", "123"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.NotNil(t, items[0].Result)
	assert.Nil(t, items[1].Result)
	assert.Equal(t, string(errors.ErrCodeTaxIDInvalid), items[1].Code)

	tooMany := make([]string, MaxBatchSize+1)
	for i := range tooMany {
		tooMany[i] = "7707083893"
	}
	_, err = svc.BatchVerify(ctx, tooMany)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))

	_, err = svc.BatchVerify(ctx, nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}

func TestUsage(t *testing.T) {
	reg := newFakeRegistry(t, http.StatusOK, registryRecord)
	svc, _ := setupService(t, reg.server.URL, "test-key", 100)
	ctx := context.Background()

	u, err := svc.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Used)
	assert.Equal(t, 100, u.Remaining)

	_, err = svc.Verify(ctx, "7707083893")
	require.NoError(t, err)

	u, err = svc.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", u.Date)
	assert.Equal(t, 1, u.Used)
	assert.Equal(t, 99, u.Remaining)
	assert.Equal(t, 1.0, u.Percent)
}

func TestClearCache(t *testing.T) {
	reg := newFakeRegistry(t, http.StatusOK, registryRecord)
	svc, _ := setupService(t, reg.server.URL, "test-key", 100)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "7707083893")
	require.NoError(t, err)

	removed, err := svc.ClearCache(ctx, "7707083893")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.ClearCache(ctx, "7707083893")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRefresh(t *testing.T) {
	reg := newFakeRegistry(t, http.StatusOK, registryRecord)
	svc, _ := setupService(t, reg.server.URL, "test-key", 100)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "7707083893")
	require.NoError(t, err)

	res, err := svc.Refresh(ctx, "7707083893")
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 2, reg.Hits())
}

func TestRefresh_RegistryNotConfigured(t *testing.T) {
	svc, _ := setupService(t, "http://unused", "", 100)

	_, err := svc.Refresh(context.Background(), "7707083893")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTaxIDUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, errors.HTTPStatus(errors.AsStandardError(err).Code))
}
