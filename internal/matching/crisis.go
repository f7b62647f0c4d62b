// internal/matching/crisis.go
package matching

import (
	"fmt"
	"sort"
)

// Crisis board eligibility.
const (
	CrisisMinUrgency  = 7
	CrisisMinCapacity = 50
)

// IsCrisisEligible reports whether a partner belongs on the crisis board.
func IsCrisisEligible(p PartnerRecord) bool {
	return p.IsActive && p.urgency() >= CrisisMinUrgency && p.capacity() >= CrisisMinCapacity
}

// CrisisBoard selects active partners with high urgency and spare capacity,
// ordered by urgency, then capacity, both descending.
func CrisisBoard(catalog []PartnerRecord) []PartnerRecord {
	board := make([]PartnerRecord, 0)
	for _, p := range catalog {
		if IsCrisisEligible(p) {
			board = append(board, p)
		}
	}
	sort.SliceStable(board, func(i, j int) bool {
		a, b := board[i], board[j]
		if a.urgency() != b.urgency() {
			return a.urgency() > b.urgency()
		}
		if a.capacity() != b.capacity() {
			return a.capacity() > b.capacity()
		}
		return a.PartnerID < b.PartnerID
	})
	return board
}

// CrisisWeights weigh the factors of a crisis match.
var CrisisWeights = struct {
	Urgency, Capacity, Specialization, Geo, Price float64
}{0.3, 0.25, 0.2, 0.15, 0.1}

// CrisisMatch is a crisis-board partner scored against customer requirements.
type CrisisMatch struct {
	PartnerID         string  `json:"partner_id"`
	CompanyName       string  `json:"company_name"`
	UrgencyMatch      float64 `json:"urgency_match"`
	CapacityMatch     float64 `json:"capacity_match"`
	SpecializationFit float64 `json:"specialization_match"`
	GeoMatch          float64 `json:"geo_match"`
	PriceMatch        float64 `json:"price_match"`
	Score             float64 `json:"crisis_match"`
	Priority          int     `json:"priority"`
	Reason            string  `json:"reason"`
}

// MatchCrisis scores every crisis-board partner against the requirements and
// returns them best first. Priority uses inclusive thresholds (>= 0.8, >= 0.6).
func MatchCrisis(catalog []PartnerRecord, req RequestEntities) []CrisisMatch {
	board := CrisisBoard(catalog)
	out := make([]CrisisMatch, 0, len(board))
	w := CrisisWeights
	for _, p := range board {
		m := CrisisMatch{
			PartnerID:         p.PartnerID,
			CompanyName:       p.CompanyName,
			UrgencyMatch:      float64(p.urgency()) / 10,
			CapacityMatch:     CapacityFactor(p),
			SpecializationFit: SpecializationFactor(p, req.Specialization),
			GeoMatch:          RegionFactor(p, req.Region),
			PriceMatch:        factorNeutral,
		}
		if p.FlexiblePricing {
			m.PriceMatch = factorFull
		}
		m.Score = round2(m.UrgencyMatch*w.Urgency +
			m.CapacityMatch*w.Capacity +
			m.SpecializationFit*w.Specialization +
			m.GeoMatch*w.Geo +
			m.PriceMatch*w.Price)

		switch {
		case m.Score >= 0.8:
			m.Priority = PriorityHigh
		case m.Score >= 0.6:
			m.Priority = PriorityMedium
		default:
			m.Priority = PriorityLow
		}
		m.Reason = fmt.Sprintf("Срочность (%d/10) и доступность мощностей (%d%%)", p.urgency(), p.capacity())
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].PartnerID < out[j].PartnerID
	})
	return out
}
