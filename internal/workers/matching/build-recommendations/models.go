// internal/workers/matching/build-recommendations/models.go
package buildrecommendations

import "matrix-core/internal/matching"

type Input struct {
	RankedPartners []matching.RankedPartner `json:"rankedPartners"`
	Intent         matching.Intent          `json:"intent"`
	// PartnersCount is the relevant count reported by rank-partners before
	// its limit was applied.
	PartnersCount int `json:"partnersCount"`
}

type Output struct {
	Recommendations  []matching.Recommendation `json:"recommendations"`
	CrisisMatchScore float64                   `json:"crisisMatchScore"`
	PartnersCount    int                       `json:"partnersCount"`
	HasMatches       bool                      `json:"hasMatches"`
	Message          string                    `json:"message,omitempty"`
}
