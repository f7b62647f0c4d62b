// internal/workers/partner/verify-tax-id/models.go
package verifytaxid

import (
	"matrix-core/internal/matching"
	"matrix-core/internal/taxid"
)

type Input struct {
	INN       string `json:"inn"`
	PartnerID string `json:"partnerId"`
}

type Output struct {
	TaxID              *taxid.Result               `json:"taxId"`
	TaxIDVerified      bool                        `json:"taxIdVerified"`
	VerificationStatus matching.VerificationStatus `json:"verificationStatus,omitempty"`
}
