// internal/matching/recommend_test.go
package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		score    float64
		expected int
	}{
		{1.0, PriorityHigh},
		{0.81, PriorityHigh},
		{0.8, PriorityMedium},
		{0.61, PriorityMedium},
		{0.6, PriorityLow},
		{0.31, PriorityLow},
		{0.0, PriorityLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, PriorityFor(tt.score), "score %v", tt.score)
	}
}

func TestBuildRecommendations(t *testing.T) {
	ranked := []RankedPartner{
		{
			Partner: PartnerRecord{PartnerID: "p1", CompanyName: "Альфа", Specializations: []string{"каркасные дома", "кровля", "фундаменты"}, UrgencyLevel: 9, AvailableCapacity: 85},
			Match:   MatchResult{MatchScore: 0.9, CrisisBoost: 0.5},
		},
		{
			Partner: PartnerRecord{PartnerID: "p2", CompanyName: "Бета", UrgencyLevel: 4, AvailableCapacity: 30},
			Match:   MatchResult{MatchScore: 0.7, CrisisBoost: 0.2},
		},
	}

	set := BuildRecommendations(ranked, IntentResult{Intent: IntentPartnerSearch})

	require.Len(t, set.Recommendations, 2)
	first := set.Recommendations[0]
	assert.Equal(t, "p1", first.PartnerID)
	assert.Equal(t, "Альфа", first.CompanyName)
	assert.Equal(t, PriorityHigh, first.Priority)
	assert.Equal(t, 9, first.UrgencyLevel)
	assert.Equal(t, 85, first.AvailableCapacity)
	assert.Equal(t, 0.5, first.CrisisBoost)
	assert.Equal(t, "Совпадение по специализации и региону: каркасные дома, кровля (90%)", first.Reason)

	second := set.Recommendations[1]
	assert.Equal(t, PriorityMedium, second.Priority)
	assert.Contains(t, second.Reason, "общестроительные работы")

	assert.Equal(t, 1.0, set.AggregateCrisisScore)
}

func TestBuildRecommendations_Aggregate(t *testing.T) {
	ranked := []RankedPartner{
		{Partner: PartnerRecord{PartnerID: "p1"}, Match: MatchResult{MatchScore: 0.5}},
		{Partner: PartnerRecord{PartnerID: "p2"}, Match: MatchResult{MatchScore: 0.4, CrisisBoost: 0.1}},
	}

	set := BuildRecommendations(ranked, IntentResult{})
	assert.InDelta(t, 0.5, set.AggregateCrisisScore, 1e-9)
}

func TestReasonFor(t *testing.T) {
	p := PartnerRecord{Specializations: []string{"кровельные работы"}}

	assert.Equal(t, "Готов к сотрудничеству: кровельные работы (совпадение 65%)", ReasonFor(IntentConnectionRequest, p, 0.65))
	assert.Equal(t, "Может проконсультировать: кровельные работы (совпадение 65%)", ReasonFor(IntentInfoQuery, p, 0.65))
	assert.Equal(t, "Совпадение по специализации и региону: кровельные работы (65%)", ReasonFor(IntentPartnerSearch, p, 0.65))
}

func TestPipeline_FrameHouseRequest(t *testing.T) {
	msg := "Ищу строителя каркасного дома в Московской области"

	intent := ClassifyIntent(msg, RoleCustomer)
	entities := ExtractEntities(msg, nil)
	ranked := DefaultScorer().Rank(entities, intent, createTestCatalog(), 10)
	set := BuildRecommendations(ranked, intent)

	assert.Equal(t, IntentPartnerSearch, intent.Intent)
	assert.GreaterOrEqual(t, intent.Confidence, 0.8)
	require.NotEmpty(t, set.Recommendations)
	assert.Equal(t, "strong", set.Recommendations[0].PartnerID)
	for _, r := range set.Recommendations {
		assert.Greater(t, r.MatchScore, DefaultThreshold)
	}
}
