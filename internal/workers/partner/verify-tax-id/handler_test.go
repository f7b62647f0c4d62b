// internal/workers/partner/verify-tax-id/handler_test.go
package verifytaxid

import (
	"context"
	"testing"
	"time"

	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/matching"
	"matrix-core/internal/models"
	"matrix-core/internal/taxid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockVerifier struct {
	VerifyFunc func(ctx context.Context, inn string) (*taxid.Result, error)
}

func (m *MockVerifier) Verify(ctx context.Context, inn string) (*taxid.Result, error) {
	return m.VerifyFunc(ctx, inn)
}

type MockPartners struct {
	Stored  map[string]*models.Partner
	Updated []*models.Partner
}

func (m *MockPartners) GetPartner(ctx context.Context, id string) (*models.Partner, error) {
	p, ok := m.Stored[id]
	if !ok {
		return nil, errors.NewPartnerNotFoundError(id)
	}
	return p, nil
}

func (m *MockPartners) UpdatePartner(ctx context.Context, p *models.Partner) error {
	m.Updated = append(m.Updated, p)
	return nil
}

func registry(results map[string]*taxid.Result) *MockVerifier {
	return &MockVerifier{VerifyFunc: func(ctx context.Context, inn string) (*taxid.Result, error) {
		if r, ok := results[inn]; ok {
			return r, nil
		}
		return nil, errors.NewTaxIDInvalidError(inn)
	}}
}

// ==========================
// Tests
// ==========================

func TestHandler_Execute_RecordsOnPartner(t *testing.T) {
	verifier := registry(map[string]*taxid.Result{
		"7707083893":   {INN: "7707083893", IsValid: true, IsActive: true, CompanyName: `ПАО "СБЕРБАНК"`, RegistryStatus: "Действующее", Source: "registry"},
		"500100732259": {INN: "500100732259", IsValid: true, RegistryStatus: taxid.StatusUnverified, Source: "checksum"},
		"7736050003":   {INN: "7736050003", IsValid: true, RegistryStatus: taxid.StatusNotFound, Source: "registry"},
	})

	tests := []struct {
		name         string
		inn          string
		wantVerified bool
		wantStatus   matching.VerificationStatus
		wantLegal    string
	}{
		{"active company", "7707083893", true, matching.VerificationVerified, `ПАО "СБЕРБАНК"`},
		{"checksum only", "500100732259", false, matching.VerificationPending, ""},
		{"not in registry", "7736050003", false, matching.VerificationRejected, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			partners := &MockPartners{Stored: map[string]*models.Partner{
				"p-1": models.NewPartner("p-1", "СтройДом", "info@stroydom.ru", "contractor"),
			}}
			h := NewHandler(&Config{Timeout: time.Second}, verifier, partners, logger.NewTestLogger(t), nil)

			out, err := h.Execute(context.Background(), &Input{INN: " " + tt.inn + " ", PartnerID: "p-1"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantVerified, out.TaxIDVerified)
			assert.Equal(t, tt.wantStatus, out.VerificationStatus)

			require.Len(t, partners.Updated, 1)
			assert.Equal(t, tt.inn, partners.Updated[0].TaxID)
			assert.Equal(t, tt.wantLegal, partners.Updated[0].LegalName)
		})
	}
}

func TestHandler_Execute_WithoutPartner(t *testing.T) {
	verifier := registry(map[string]*taxid.Result{
		"7707083893": {INN: "7707083893", IsValid: true, IsActive: true},
	})
	h := NewHandler(&Config{Timeout: time.Second}, verifier, nil, logger.NewNoOpLogger(), nil)

	out, err := h.Execute(context.Background(), &Input{INN: "7707083893"})
	require.NoError(t, err)
	assert.True(t, out.TaxIDVerified)
	assert.Empty(t, out.VerificationStatus)
}

func TestHandler_Execute_Errors(t *testing.T) {
	verifier := registry(nil)
	partners := &MockPartners{Stored: map[string]*models.Partner{}}
	h := NewHandler(&Config{Timeout: time.Second}, verifier, partners, logger.NewNoOpLogger(), nil)

	tests := []struct {
		name     string
		input    *Input
		wantCode errors.ErrorCode
	}{
		{"missing inn", &Input{}, errors.ErrCodeInvalidInput},
		{"bad checksum", &Input{INN: "7707083894"}, errors.ErrCodeTaxIDInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.wantCode))

			bpmn := errors.ConvertToBPMNError(errors.AsStandardError(err))
			assert.Equal(t, 0, bpmn.Retries)
		})
	}
}

func TestHandler_Execute_UnknownPartner(t *testing.T) {
	verifier := registry(map[string]*taxid.Result{"7707083893": {INN: "7707083893", IsActive: true}})
	partners := &MockPartners{Stored: map[string]*models.Partner{}}
	h := NewHandler(&Config{Timeout: time.Second}, verifier, partners, logger.NewNoOpLogger(), nil)

	_, err := h.Execute(context.Background(), &Input{INN: "7707083893", PartnerID: "p-404"})
	assert.True(t, errors.HasCode(err, errors.ErrCodePartnerNotFound))
	assert.Empty(t, partners.Updated)
}
