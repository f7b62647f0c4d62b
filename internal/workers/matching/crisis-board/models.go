// internal/workers/matching/crisis-board/models.go
package crisisboard

import "matrix-core/internal/matching"

type Input struct {
	Limit int `json:"limit"`
}

type Output struct {
	Partners []matching.PartnerRecord `json:"partners"`
	Total    int                      `json:"total"`
}
