// internal/matching/recommend.go
package matching

import (
	"fmt"
	"math"
	"strings"
)

// Priority tiers.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// PriorityFor maps a match score onto a priority tier: above 0.8 is high,
// above 0.6 is medium, anything else is low.
func PriorityFor(score float64) int {
	switch {
	case score > 0.8:
		return PriorityHigh
	case score > 0.6:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// BuildRecommendations converts ranked partners into recommendations in the
// same order and computes the aggregate crisis score of the set.
func BuildRecommendations(ranked []RankedPartner, intent IntentResult) RecommendationSet {
	set := RecommendationSet{Recommendations: make([]Recommendation, 0, len(ranked))}
	if len(ranked) == 0 {
		return set
	}

	var scoreSum, boostSum float64
	for _, r := range ranked {
		scoreSum += r.Match.MatchScore
		boostSum += r.Match.CrisisBoost
		set.Recommendations = append(set.Recommendations, Recommendation{
			PartnerID:         r.Partner.PartnerID,
			CompanyName:       r.Partner.CompanyName,
			Reason:            ReasonFor(intent.Intent, r.Partner, r.Match.MatchScore),
			MatchScore:        r.Match.MatchScore,
			CrisisBoost:       r.Match.CrisisBoost,
			Priority:          PriorityFor(r.Match.MatchScore),
			UrgencyLevel:      r.Partner.urgency(),
			AvailableCapacity: r.Partner.capacity(),
		})
	}

	n := float64(len(ranked))
	set.AggregateCrisisScore = round2(math.Min(1.0, scoreSum/n+boostSum/n))
	return set
}

// ReasonFor renders the human-readable reason for a recommendation.
func ReasonFor(intent Intent, p PartnerRecord, score float64) string {
	specs := topSpecializations(p.Specializations, 2)
	pct := int(math.Round(score * 100))

	switch intent {
	case IntentConnectionRequest:
		return fmt.Sprintf("Готов к сотрудничеству: %s (совпадение %d%%)", specs, pct)
	case IntentInfoQuery:
		return fmt.Sprintf("Может проконсультировать: %s (совпадение %d%%)", specs, pct)
	default:
		return fmt.Sprintf("Совпадение по специализации и региону: %s (%d%%)", specs, pct)
	}
}

func topSpecializations(specs []string, n int) string {
	if len(specs) == 0 {
		return "общестроительные работы"
	}
	if len(specs) > n {
		specs = specs[:n]
	}
	return strings.Join(specs, ", ")
}
