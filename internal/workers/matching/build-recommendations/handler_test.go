// internal/workers/matching/build-recommendations/handler_test.go
package buildrecommendations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"matrix-core/internal/analysis"
	"matrix-core/internal/common/config"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/matching"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ranked(scores ...float64) []matching.RankedPartner {
	out := make([]matching.RankedPartner, 0, len(scores))
	for i, s := range scores {
		out = append(out, matching.RankedPartner{
			Partner: matching.PartnerRecord{
				PartnerID:         fmt.Sprintf("p-%d", i),
				CompanyName:       fmt.Sprintf("Компания %d", i),
				Specializations:   []string{"каркасные дома"},
				AvailableCapacity: 60,
				UrgencyLevel:      7,
				IsActive:          true,
			},
			Match: matching.MatchResult{MatchScore: s, CrisisBoost: 0.1},
		})
	}
	return out
}

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(&Config{Timeout: time.Second, TopRecommended: 3}, logger.NewTestLogger(t), nil)

	tests := []struct {
		name       string
		input      *Input
		wantRecs   int
		wantCount  int
		wantCrisis float64
		wantMsg    string
	}{
		{
			name:       "top three of five",
			input:      &Input{RankedPartners: ranked(0.9, 0.8, 0.7, 0.6, 0.5), Intent: matching.IntentPartnerSearch},
			wantRecs:   3,
			wantCount:  5,
			wantCrisis: 0.8,
		},
		{
			name:       "fewer than top",
			input:      &Input{RankedPartners: ranked(0.85)},
			wantRecs:   1,
			wantCount:  1,
			wantCrisis: 0.95,
		},
		{
			name:       "count from rank-partners",
			input:      &Input{RankedPartners: ranked(0.9, 0.8, 0.7, 0.6), PartnersCount: 14},
			wantRecs:   3,
			wantCount:  14,
			wantCrisis: 0.85,
		},
		{
			name:    "nothing ranked",
			input:   &Input{Intent: matching.IntentInfoQuery},
			wantMsg: analysis.BroadenMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Len(t, out.Recommendations, tt.wantRecs)
			assert.Equal(t, tt.wantCount, out.PartnersCount)
			assert.InDelta(t, tt.wantCrisis, out.CrisisMatchScore, 1e-9)
			assert.Equal(t, tt.wantRecs > 0, out.HasMatches)
			assert.Equal(t, tt.wantMsg, out.Message)
		})
	}
}

func TestHandler_Execute_PriorityOrder(t *testing.T) {
	h := NewHandler(&Config{Timeout: time.Second}, logger.NewNoOpLogger(), nil)

	out, err := h.Execute(context.Background(), &Input{RankedPartners: ranked(0.9, 0.7, 0.4)})
	require.NoError(t, err)
	require.Len(t, out.Recommendations, 3)
	assert.Equal(t, matching.PriorityHigh, out.Recommendations[0].Priority)
	assert.Equal(t, matching.PriorityMedium, out.Recommendations[1].Priority)
	assert.Equal(t, matching.PriorityLow, out.Recommendations[2].Priority)
	assert.Equal(t, "p-0", out.Recommendations[0].PartnerID)
}

func TestLoadConfig_TopRecommended(t *testing.T) {
	app := &config.Config{}
	app.Matching.TopRecommended = 5
	assert.Equal(t, 5, LoadConfig(app).TopRecommended)
	assert.Equal(t, 3, LoadConfig(nil).TopRecommended)
}
