// internal/api/taxid_test.go
package api

import (
	"context"
	"net/http"
	"testing"

	"matrix-core/internal/common/errors"
	"matrix-core/internal/taxid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyTaxID(t *testing.T) {
	tax := &MockTaxID{Registry: true, VerifyFunc: func(ctx context.Context, inn string) (*taxid.Result, error) {
		switch inn {
		case "7707083893":
			return &taxid.Result{INN: inn, IsValid: true, IsActive: true, OrgType: "legal", CompanyName: `ПАО "СБЕРБАНК"`}, nil
		case "7736050003":
			return nil, errors.NewTaxIDLimitExceededError(100)
		default:
			return nil, errors.NewTaxIDInvalidError(inn)
		}
	}}
	h := newTestServer(t, nil, Deps{TaxID: tax})

	tests := []struct {
		name     string
		inn      string
		wantCode int
	}{
		{"verified", "7707083893", http.StatusOK},
		{"limit exceeded", "7736050003", http.StatusTooManyRequests},
		{"bad checksum", "7707083894", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doJSON(t, h, http.MethodGet, "/api/v1/taxid/"+tt.inn+"/verify", nil)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, true, body["registry_available"])
				assert.Equal(t, tt.inn, body["result"].(map[string]interface{})["inn"])
			}
		})
	}
}

func TestVerifyTaxID_ForceRefresh(t *testing.T) {
	refreshed := 0
	tax := &MockTaxID{Registry: true, RefreshFunc: func(ctx context.Context, inn string) (*taxid.Result, error) {
		refreshed++
		return &taxid.Result{INN: inn, IsValid: true}, nil
	}}
	h := newTestServer(t, nil, Deps{TaxID: tax})

	w, _ := doJSON(t, h, http.MethodGet, "/api/v1/taxid/7707083893/verify?force_refresh=true", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, refreshed)
}

func TestVerifyTaxID_ForceRefreshWithoutRegistry(t *testing.T) {
	tax := &MockTaxID{Registry: false}
	h := newTestServer(t, nil, Deps{TaxID: tax})

	w, _ := doJSON(t, h, http.MethodGet, "/api/v1/taxid/7707083893/verify?force_refresh=true", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), string(errors.ErrCodeTaxIDUnavailable))
}

func TestBatchVerifyTaxID(t *testing.T) {
	tax := &MockTaxID{BatchVerifyFunc: func(ctx context.Context, inns []string) ([]taxid.BatchItem, error) {
		if len(inns) > taxid.MaxBatchSize {
			return nil, errors.NewInvalidInputError("too many")
		}
		items := make([]taxid.BatchItem, len(inns))
		for i, inn := range inns {
			items[i] = taxid.BatchItem{INN: inn}
		}
		return items, nil
	}}
	h := newTestServer(t, nil, Deps{TaxID: tax})

	w, body := doJSON(t, h, http.MethodPost, "/api/v1/taxid/batch", map[string]interface{}{"inns": []string{"7707083893", "500100732259"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), body["total"])

	w, _ = doJSON(t, h, http.MethodPost, "/api/v1/taxid/batch", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	many := make([]string, taxid.MaxBatchSize+1)
	for i := range many {
		many[i] = "7707083893"
	}
	w, _ = doJSON(t, h, http.MethodPost, "/api/v1/taxid/batch", map[string]interface{}{"inns": many})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaxIDUsageAndCache(t *testing.T) {
	tax := &MockTaxID{
		Registry: true,
		UsageFunc: func(ctx context.Context) (*taxid.Usage, error) {
			return &taxid.Usage{Date: "2026-03-14", Used: 10, Limit: 100, Remaining: 90, Percent: 10}, nil
		},
		ClearCacheFunc: func(ctx context.Context, inn string) (bool, error) {
			return inn == "7707083893", nil
		},
	}
	h := newTestServer(t, nil, Deps{TaxID: tax})

	w, body := doJSON(t, h, http.MethodGet, "/api/v1/taxid/usage", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotNil(t, body["usage"])

	w, body = doJSON(t, h, http.MethodDelete, "/api/v1/taxid/cache/7707083893", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["removed"])

	_, body = doJSON(t, h, http.MethodDelete, "/api/v1/taxid/cache/500100732259", nil)
	assert.Equal(t, false, body["removed"])
}
