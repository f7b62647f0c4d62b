// internal/matching/types.go

// Package matching implements partner matching for construction requests:
// entity extraction, intent classification, weighted scoring, ranking,
// recommendation building and the crisis board. Every function in this
// package is pure; catalog access and persistence belong to callers.
package matching

// UserRole is the role of the user who sent a request.
type UserRole string

const (
	RoleCustomer   UserRole = "customer"
	RoleContractor UserRole = "contractor"
	RoleProducer   UserRole = "producer"
)

// Intent is the coarse goal of a user message.
type Intent string

const (
	IntentPartnerSearch     Intent = "partner_search"
	IntentInfoQuery         Intent = "info_query"
	IntentConnectionRequest Intent = "connection_request"
)

// ProjectScale buckets the size/kind of a construction project.
type ProjectScale string

const (
	ScalePrivateHouse ProjectScale = "private_house"
	ScaleApartment    ProjectScale = "apartment"
	ScaleCommercial   ProjectScale = "commercial"
	ScaleIndustrial   ProjectScale = "industrial"
	ScaleUndetermined ProjectScale = "undetermined"
)

// VerificationStatus is the partner onboarding state.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// DefaultUrgency is the neutral urgency level.
const DefaultUrgency = 5

// PartnerRecord is the matchable view of a partner.
type PartnerRecord struct {
	PartnerID          string             `json:"partner_id"`
	CompanyName        string             `json:"company_name"`
	Specializations    []string           `json:"specializations"`
	Services           []string           `json:"services"`
	Regions            []string           `json:"regions"`
	WillingToTravel    bool               `json:"willing_to_travel"`
	CurrentWorkload    int                `json:"current_workload"`
	AvailableCapacity  int                `json:"available_capacity"`
	MinOrderSize       float64            `json:"min_order_size"`
	UrgencyLevel       int                `json:"urgency_level"`
	FlexiblePricing    bool               `json:"flexible_pricing"`
	IsActive           bool               `json:"is_active"`
	VerificationStatus VerificationStatus `json:"verification_status"`
}

// urgency returns the partner urgency clamped to [0,10].
func (p PartnerRecord) urgency() int {
	return clampInt(p.UrgencyLevel, 0, 10)
}

// capacity returns the available capacity clamped to [0,100].
func (p PartnerRecord) capacity() int {
	return clampInt(p.AvailableCapacity, 0, 100)
}

// RequestEntities is the normalized output of extraction for one request.
// Empty strings mean "no preference".
type RequestEntities struct {
	Region         string       `json:"region"`
	Specialization string       `json:"specialization"`
	BudgetRange    string       `json:"budget_range"`
	Timeline       string       `json:"timeline"`
	UrgencyLevel   int          `json:"urgency_level"`
	ProjectScale   ProjectScale `json:"project_scale"`
}

// NewRequestEntities returns entities with every field at its neutral default.
func NewRequestEntities() RequestEntities {
	return RequestEntities{
		UrgencyLevel: DefaultUrgency,
		ProjectScale: ScaleUndetermined,
	}
}

// AsMap flattens the entities into the entities_found payload shape,
// leaving out fields that carry no signal.
func (e RequestEntities) AsMap() map[string]interface{} {
	out := map[string]interface{}{
		"urgency_level": e.UrgencyLevel,
		"project_scale": string(e.ProjectScale),
	}
	if e.Region != "" {
		out["region"] = e.Region
	}
	if e.Specialization != "" {
		out["specialization"] = e.Specialization
	}
	if e.BudgetRange != "" {
		out["budget_range"] = e.BudgetRange
	}
	if e.Timeline != "" {
		out["timeline"] = e.Timeline
	}
	return out
}

// IntentResult is the classifier output.
type IntentResult struct {
	Intent         Intent   `json:"intent"`
	Confidence     float64  `json:"confidence"`
	MatchedPattern string   `json:"matched_pattern,omitempty"`
	UserRole       UserRole `json:"user_role,omitempty"`
}

// FactorBreakdown lists the per-factor values that made up a match score.
type FactorBreakdown struct {
	Specialization float64 `json:"specialization"`
	Region         float64 `json:"region"`
	Budget         float64 `json:"budget"`
	Timeline       float64 `json:"timeline"`
	Urgency        float64 `json:"urgency"`
	Capacity       float64 `json:"capacity"`
}

// MatchResult is computed per (partner, request) pair and never persisted.
type MatchResult struct {
	MatchScore  float64         `json:"match_score"`
	CrisisBoost float64         `json:"crisis_boost"`
	Factors     FactorBreakdown `json:"factors"`
}

// RankedPartner pairs a partner with its match result.
type RankedPartner struct {
	Partner PartnerRecord `json:"partner"`
	Match   MatchResult   `json:"match"`
}

// Recommendation is the user-facing record built from a ranked partner.
type Recommendation struct {
	PartnerID         string  `json:"partner_id"`
	CompanyName       string  `json:"company_name"`
	Reason            string  `json:"reason"`
	MatchScore        float64 `json:"match_score"`
	CrisisBoost       float64 `json:"crisis_boost"`
	Priority          int     `json:"priority"`
	UrgencyLevel      int     `json:"urgency_level"`
	AvailableCapacity int     `json:"available_capacity"`
}

// RecommendationSet is the builder output.
type RecommendationSet struct {
	Recommendations      []Recommendation `json:"recommendations"`
	AggregateCrisisScore float64          `json:"aggregate_crisis_score"`
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
