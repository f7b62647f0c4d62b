// internal/workers/matching/rank-partners/models.go
package rankpartners

import "matrix-core/internal/matching"

type Input struct {
	Entities matching.RequestEntities `json:"entities"`
	Intent   matching.Intent          `json:"intent"`
	Limit    int                      `json:"limit"`
}

type Output struct {
	RankedPartners []matching.RankedPartner `json:"rankedPartners"`
	PartnersCount  int                      `json:"partnersCount"`
	CatalogSize    int                      `json:"catalogSize"`
}
