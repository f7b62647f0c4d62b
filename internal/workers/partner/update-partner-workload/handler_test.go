// internal/workers/partner/update-partner-workload/handler_test.go
package updatepartnerworkload

import (
	"context"
	"testing"
	"time"

	"matrix-core/internal/common/config"
	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockCatalog struct {
	UpdateWorkloadFunc func(ctx context.Context, id string, workload int) (int, error)
	calls              int
}

func (m *MockCatalog) UpdateWorkload(ctx context.Context, id string, workload int) (int, error) {
	m.calls++
	if m.UpdateWorkloadFunc != nil {
		return m.UpdateWorkloadFunc(ctx, id, workload)
	}
	if workload < 0 || workload > 100 {
		return 0, errors.NewInvalidWorkloadError(workload)
	}
	return 100 - workload, nil
}

func intPtr(v int) *int { return &v }

// ==========================
// Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name         string
		input        *Input
		wantCapacity int
		wantCode     errors.ErrorCode
		wantCalls    int
	}{
		{"idle partner", &Input{PartnerID: "p-1", Workload: intPtr(0)}, 100, "", 1},
		{"busy partner", &Input{PartnerID: "p-1", Workload: intPtr(85)}, 15, "", 1},
		{"full", &Input{PartnerID: "p-1", Workload: intPtr(100)}, 0, "", 1},
		{"out of range", &Input{PartnerID: "p-1", Workload: intPtr(101)}, 0, errors.ErrCodeInvalidWorkload, 1},
		{"missing partner", &Input{Workload: intPtr(10)}, 0, errors.ErrCodeInvalidInput, 0},
		{"missing workload", &Input{PartnerID: "p-1"}, 0, errors.ErrCodeInvalidInput, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &MockCatalog{}
			h := NewHandler(&Config{Timeout: time.Second}, catalog, logger.NewTestLogger(t), nil)

			out, err := h.Execute(context.Background(), tt.input)
			assert.Equal(t, tt.wantCalls, catalog.calls)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, tt.wantCode))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "p-1", out.PartnerID)
			assert.Equal(t, *tt.input.Workload, out.Workload)
			assert.Equal(t, tt.wantCapacity, out.AvailableCapacity)
		})
	}
}

func TestHandler_Execute_UnknownPartner(t *testing.T) {
	catalog := &MockCatalog{UpdateWorkloadFunc: func(ctx context.Context, id string, workload int) (int, error) {
		return 0, errors.NewPartnerNotFoundError(id)
	}}
	h := NewHandler(&Config{Timeout: time.Second}, catalog, logger.NewNoOpLogger(), nil)

	_, err := h.Execute(context.Background(), &Input{PartnerID: "p-404", Workload: intPtr(50)})
	assert.True(t, errors.HasCode(err, errors.ErrCodePartnerNotFound))
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, DefaultConfig(), LoadConfig(nil))

	cfg := LoadConfig(&config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: false, MaxJobsActive: 2},
	}})
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 2, cfg.MaxJobsActive)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}
