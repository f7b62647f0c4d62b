// internal/models/partner.go
package models

import (
	"errors"
	"fmt"
	"time"

	"matrix-core/internal/matching"
)

var ErrInvalidWorkload = errors.New("INVALID_WORKLOAD")

// Partner is a contractor or producer as stored in the partners table.
type Partner struct {
	ID                 string                      `json:"partner_id" db:"id"`
	UserID             string                      `json:"user_id,omitempty" db:"user_id"`
	UserType           string                      `json:"user_type" db:"user_type"`
	CompanyName        string                      `json:"company_name" db:"company_name"`
	LegalName          string                      `json:"legal_name,omitempty" db:"legal_name"`
	Email              string                      `json:"email" db:"email"`
	Phone              string                      `json:"phone,omitempty" db:"phone"`
	TaxID              string                      `json:"tax_id,omitempty" db:"tax_id"`
	YearsOnMarket      int                         `json:"years_on_market" db:"years_on_market"`
	Specializations    []string                    `json:"specializations" db:"specializations"`
	Services           []string                    `json:"services" db:"services"`
	Regions            []string                    `json:"regions" db:"regions"`
	WillingToTravel    bool                        `json:"willing_to_travel" db:"willing_to_travel"`
	CurrentWorkload    int                         `json:"current_workload" db:"current_workload"`
	AvailableCapacity  int                         `json:"available_capacity" db:"available_capacity"`
	MinOrderSize       float64                     `json:"min_order_size" db:"min_order_size"`
	UrgencyLevel       int                         `json:"urgency_level" db:"urgency_level"`
	FlexiblePricing    bool                        `json:"flexible_pricing" db:"flexible_pricing"`
	VerificationStatus matching.VerificationStatus `json:"verification_status" db:"verification_status"`
	IsActive           bool                        `json:"is_active" db:"is_active"`
	CreatedAt          time.Time                   `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at" db:"updated_at"`
}

// NewPartner returns a partner with an empty workload, pending verification.
func NewPartner(id, companyName, email, userType string) *Partner {
	now := time.Now().UTC()
	return &Partner{
		ID:                 id,
		UserType:           userType,
		CompanyName:        companyName,
		Email:              email,
		Specializations:    []string{},
		Services:           []string{},
		Regions:            []string{},
		AvailableCapacity:  100,
		VerificationStatus: matching.VerificationPending,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// SetWorkload sets the workload and the complementary available capacity.
func (p *Partner) SetWorkload(workload int) error {
	if workload < 0 || workload > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkload, workload)
	}
	p.CurrentWorkload = workload
	p.AvailableCapacity = 100 - workload
	return nil
}

// Record returns the matchable view of the partner.
func (p *Partner) Record() matching.PartnerRecord {
	return matching.PartnerRecord{
		PartnerID:          p.ID,
		CompanyName:        p.CompanyName,
		Specializations:    p.Specializations,
		Services:           p.Services,
		Regions:            p.Regions,
		WillingToTravel:    p.WillingToTravel,
		CurrentWorkload:    p.CurrentWorkload,
		AvailableCapacity:  p.AvailableCapacity,
		MinOrderSize:       p.MinOrderSize,
		UrgencyLevel:       p.UrgencyLevel,
		FlexiblePricing:    p.FlexiblePricing,
		IsActive:           p.IsActive,
		VerificationStatus: p.VerificationStatus,
	}
}

// Records converts a slice of partners into matching records.
func Records(partners []*Partner) []matching.PartnerRecord {
	out := make([]matching.PartnerRecord, 0, len(partners))
	for _, p := range partners {
		out = append(out, p.Record())
	}
	return out
}

// PartnerStats summarizes a partner's connection history.
type PartnerStats struct {
	PartnerID           string  `json:"partner_id"`
	TotalConnections    int     `json:"total_connections"`
	AcceptedConnections int     `json:"accepted_connections"`
	PendingConnections  int     `json:"pending_connections"`
	AverageScore        float64 `json:"average_connection_score"`
	AcceptanceRate      float64 `json:"acceptance_rate"`
	AvailableCapacity   int     `json:"available_capacity"`
	UrgencyLevel        int     `json:"urgency_level"`
}
