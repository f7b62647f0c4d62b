// internal/workers/matching/extract-request-entities/models.go
package extractrequestentities

import "matrix-core/internal/matching"

type Input struct {
	Message     string                 `json:"message"`
	KnownFields map[string]interface{} `json:"knownFields"`
}

type Output struct {
	Entities      matching.RequestEntities `json:"entities"`
	EntitiesFound map[string]interface{}   `json:"entitiesFound"`
}
