// internal/matching/crisis_test.go
package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrisisBoard_LowUrgencyExcluded(t *testing.T) {
	catalog := []PartnerRecord{
		createTestPartner("calm", 6, 90),
		createTestPartner("eager", 8, 55),
	}

	board := CrisisBoard(catalog)

	require.Len(t, board, 1)
	assert.Equal(t, "eager", board[0].PartnerID)
}

func TestCrisisBoard_Eligibility(t *testing.T) {
	inactive := createTestPartner("inactive", 9, 90)
	inactive.IsActive = false

	tests := []struct {
		name     string
		partner  PartnerRecord
		eligible bool
	}{
		{"boundary", createTestPartner("edge", 7, 50), true},
		{"low capacity", createTestPartner("busy", 9, 49), false},
		{"low urgency", createTestPartner("calm", 6, 100), false},
		{"inactive", inactive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.eligible, IsCrisisEligible(tt.partner))
		})
	}
}

func TestCrisisBoard_Order(t *testing.T) {
	catalog := []PartnerRecord{
		createTestPartner("b", 8, 60),
		createTestPartner("a", 8, 60),
		createTestPartner("c", 10, 50),
		createTestPartner("d", 8, 90),
	}

	board := CrisisBoard(catalog)

	ids := make([]string, 0, len(board))
	for _, p := range board {
		ids = append(ids, p.PartnerID)
	}
	assert.Equal(t, []string{"c", "d", "a", "b"}, ids)
}

func TestCrisisBoard_Empty(t *testing.T) {
	board := CrisisBoard(nil)
	require.NotNil(t, board)
	assert.Empty(t, board)
}

func TestMatchCrisis(t *testing.T) {
	flexible := createTestPartner("flex", 9, 90)
	flexible.FlexiblePricing = true
	plain := createTestPartner("plain", 7, 60)
	plain.Specializations = []string{"отделочные работы"}
	plain.Regions = []string{"Казань"}

	req := NewRequestEntities()
	req.Specialization = "каркасные дома"
	req.Region = "Московская область"

	matches := MatchCrisis([]PartnerRecord{plain, flexible, createTestPartner("skip", 3, 90)}, req)

	require.Len(t, matches, 2)
	assert.Equal(t, "flex", matches[0].PartnerID)
	assert.Equal(t, PriorityHigh, matches[0].Priority)
	assert.Equal(t, 1.0, matches[0].PriceMatch)
	assert.Equal(t, "Срочность (9/10) и доступность мощностей (90%)", matches[0].Reason)

	assert.Equal(t, "plain", matches[1].PartnerID)
	assert.Equal(t, 0.5, matches[1].PriceMatch)
	assert.Equal(t, PriorityLow, matches[1].Priority)
	assert.InDelta(t, 0.41, matches[1].Score, 1e-9)
}
