// internal/workers/matching/extract-request-entities/handler_test.go
package extractrequestentities

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"matrix-core/internal/common/config"
	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/matching"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createMockJob(variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                100,
		Type:               TaskType,
		ProcessInstanceKey: 1000,
		Retries:            3,
		Variables:          variables,
	}}
}

func createTestHandler(t *testing.T) *Handler {
	return NewHandler(&Config{Enabled: true, MaxJobsActive: 1, Timeout: time.Second}, logger.NewTestLogger(t), nil)
}

// ==========================
// Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := createTestHandler(t)

	tests := []struct {
		name  string
		input *Input
		check func(t *testing.T, out *Output)
	}{
		{
			name:  "message only",
			input: &Input{Message: "Ищу подрядчика на каркасный дом в Казани, бюджет 3 млн, срочно"},
			check: func(t *testing.T, out *Output) {
				assert.Equal(t, "Казань", out.Entities.Region)
				assert.Equal(t, "каркасные дома", out.Entities.Specialization)
				assert.Equal(t, "срочно", out.Entities.Timeline)
				assert.Equal(t, "Казань", out.EntitiesFound["region"])
			},
		},
		{
			name: "known fields win over the message",
			input: &Input{
				Message:     "Нужен дом в Казани",
				KnownFields: map[string]interface{}{"region": "Москва"},
			},
			check: func(t *testing.T, out *Output) {
				assert.Equal(t, "Москва", out.Entities.Region)
			},
		},
		{
			name:  "nothing recognizable",
			input: &Input{Message: "Добрый день"},
			check: func(t *testing.T, out *Output) {
				assert.Equal(t, matching.NewRequestEntities(), out.Entities)
				assert.NotContains(t, out.EntitiesFound, "region")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			tt.check(t, out)
		})
	}
}

func TestHandler_Execute_EmptyMessage(t *testing.T) {
	_, err := createTestHandler(t).Execute(context.Background(), &Input{Message: "  "})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}

func TestParseInput(t *testing.T) {
	vars, _ := json.Marshal(map[string]interface{}{
		"message":     "Нужен дом",
		"knownFields": map[string]interface{}{"region": "Москва"},
	})
	input, err := parseInput(createMockJob(string(vars)))
	require.NoError(t, err)
	assert.Equal(t, "Нужен дом", input.Message)
	assert.Equal(t, "Москва", input.KnownFields["region"])

	_, err = parseInput(createMockJob("{broken"))
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, DefaultConfig(), LoadConfig(nil))

	app := &config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: false, MaxJobsActive: 3, Timeout: 2500},
	}}
	c := LoadConfig(app)
	assert.False(t, c.Enabled)
	assert.Equal(t, 3, c.MaxJobsActive)
	assert.Equal(t, 2500*time.Millisecond, c.Timeout)
}
