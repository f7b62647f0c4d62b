// internal/workers/matching/classify-user-intent/models.go
package classifyuserintent

import "matrix-core/internal/matching"

type Input struct {
	Message  string `json:"message"`
	UserRole string `json:"userRole"`
}

type Output struct {
	Intent           matching.Intent   `json:"intent"`
	IntentConfidence float64           `json:"intentConfidence"`
	MatchedPattern   string            `json:"matchedPattern,omitempty"`
	UserRole         matching.UserRole `json:"userRole"`
}
