// internal/models/user.go
package models

import (
	"time"

	"matrix-core/internal/matching"
)

const MaxInteractionHistory = 50

// User is a registered customer, contractor or producer.
type User struct {
	ID                 string            `json:"user_id" db:"id"`
	UserType           matching.UserRole `json:"user_type" db:"user_type"`
	Email              string            `json:"email" db:"email"`
	IsActive           bool              `json:"is_active" db:"is_active"`
	VerificationStatus string            `json:"verification_status" db:"verification_status"`
	Profile            UserProfile       `json:"profile" db:"profile"`
	CreatedAt          time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at" db:"updated_at"`
}

// UserProfile is stored as a JSON column next to the user row.
type UserProfile struct {
	Name               string             `json:"name,omitempty"`
	Phone              string             `json:"phone,omitempty"`
	Region             string             `json:"region,omitempty"`
	CompanyName        string             `json:"company_name,omitempty"`
	Specialization     string             `json:"specialization,omitempty"`
	BudgetRange        string             `json:"budget_range,omitempty"`
	PreferredTimeline  string             `json:"preferred_timeline,omitempty"`
	CrisisIndicators   CrisisIndicators   `json:"crisis_indicators"`
	InteractionHistory []InteractionEntry `json:"interaction_history"`
}

type CrisisIndicators struct {
	UrgencyLevel      int      `json:"urgency_level"`
	AvailableCapacity int      `json:"available_capacity"`
	FlexiblePricing   bool     `json:"flexible_pricing"`
	SpecialConditions []string `json:"special_conditions,omitempty"`
}

type InteractionEntry struct {
	Type        string    `json:"type"`
	RequestID   string    `json:"request_id,omitempty"`
	RequestType string    `json:"request_type,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// AppendInteraction records an entry and keeps the newest MaxInteractionHistory.
func (p *UserProfile) AppendInteraction(e InteractionEntry) {
	p.InteractionHistory = append(p.InteractionHistory, e)
	if n := len(p.InteractionHistory); n > MaxInteractionHistory {
		p.InteractionHistory = p.InteractionHistory[n-MaxInteractionHistory:]
	}
}

// Completeness is the share of filled profile fields, 0 to 100.
func (p *UserProfile) Completeness() int {
	fields := []string{p.Name, p.Phone, p.Region, p.CompanyName, p.Specialization, p.BudgetRange, p.PreferredTimeline}
	filled := 0
	for _, f := range fields {
		if f != "" {
			filled++
		}
	}
	return filled * 100 / len(fields)
}

// ProfileUpdate carries the updatable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name              *string           `json:"name"`
	Phone             *string           `json:"phone"`
	Region            *string           `json:"region"`
	CompanyName       *string           `json:"company_name"`
	BudgetRange       *string           `json:"budget_range"`
	PreferredTimeline *string           `json:"preferred_timeline"`
	CrisisIndicators  *CrisisIndicators `json:"crisis_indicators"`
}

// Apply copies the set fields onto the profile and returns how many changed.
func (u ProfileUpdate) Apply(p *UserProfile) int {
	n := 0
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
			n++
		}
	}
	set(&p.Name, u.Name)
	set(&p.Phone, u.Phone)
	set(&p.Region, u.Region)
	set(&p.CompanyName, u.CompanyName)
	set(&p.BudgetRange, u.BudgetRange)
	set(&p.PreferredTimeline, u.PreferredTimeline)
	if u.CrisisIndicators != nil {
		p.CrisisIndicators = *u.CrisisIndicators
		n++
	}
	return n
}

// Request sources.
const (
	SourceUmnico = "umniko_bot"
	SourceTilda  = "tilda_lk"
	SourceFlexbe = "flexbe_site"
	SourceAPI    = "api"
)

// IsValidSource reports whether s is a known request source.
func IsValidSource(s string) bool {
	switch s {
	case SourceUmnico, SourceTilda, SourceFlexbe, SourceAPI:
		return true
	}
	return false
}

// Request statuses.
const (
	RequestStatusNew      = "new"
	RequestStatusAnalyzed = "analyzed"
)

// UserRequest is a stored free-text or structured request of a user.
type UserRequest struct {
	ID                   string                 `json:"request_id" db:"id"`
	UserID               string                 `json:"user_id" db:"user_id"`
	RequestType          string                 `json:"request_type" db:"request_type"`
	Message              string                 `json:"message,omitempty" db:"message"`
	RequestData          map[string]interface{} `json:"request_data" db:"request_data"`
	Source               string                 `json:"source" db:"source"`
	Status               string                 `json:"status" db:"status"`
	MatchedPartnersCount int                    `json:"matched_partners_count" db:"matched_partners_count"`
	CreatedAt            time.Time              `json:"created_at" db:"created_at"`
}

// UserStats is the per-user activity summary.
type UserStats struct {
	UserID              string `json:"user_id"`
	RequestsCount       int    `json:"requests_count"`
	ConnectionsCount    int    `json:"connections_count"`
	ProfileCompleteness int    `json:"profile_completeness"`
}
