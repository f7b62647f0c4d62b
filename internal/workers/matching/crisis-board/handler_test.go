// internal/workers/matching/crisis-board/handler_test.go
package crisisboard

import (
	"context"
	"testing"
	"time"

	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/matching"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockBoard struct {
	CrisisBoardFunc func(ctx context.Context, limit int) ([]matching.PartnerRecord, error)
}

func (m *MockBoard) CrisisBoard(ctx context.Context, limit int) ([]matching.PartnerRecord, error) {
	return m.CrisisBoardFunc(ctx, limit)
}

func TestHandler_Execute(t *testing.T) {
	var gotLimit int
	board := &MockBoard{CrisisBoardFunc: func(ctx context.Context, limit int) ([]matching.PartnerRecord, error) {
		gotLimit = limit
		return []matching.PartnerRecord{
			{PartnerID: "p-1", UrgencyLevel: 9, AvailableCapacity: 50},
			{PartnerID: "p-2", UrgencyLevel: 8, AvailableCapacity: 40},
		}, nil
	}}
	h := NewHandler(&Config{Timeout: time.Second, DefaultLimit: 20}, board, logger.NewTestLogger(t), nil)

	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"default limit", 0, 20},
		{"negative limit falls back", -4, 20},
		{"explicit limit", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), &Input{Limit: tt.limit})
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, gotLimit)
			assert.Equal(t, 2, out.Total)
			assert.Equal(t, "p-1", out.Partners[0].PartnerID)
		})
	}
}

func TestHandler_Execute_BoardError(t *testing.T) {
	board := &MockBoard{CrisisBoardFunc: func(ctx context.Context, limit int) ([]matching.PartnerRecord, error) {
		return nil, errors.NewDatabaseConnectionFailedError(context.DeadlineExceeded)
	}}
	h := NewHandler(&Config{Timeout: time.Second}, board, logger.NewNoOpLogger(), nil)

	_, err := h.Execute(context.Background(), &Input{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeDatabaseConnectionFailed))
}
