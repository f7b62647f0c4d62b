// internal/webhook/webhook.go

// Package webhook turns inbound bot and form platform payloads into
// normalized matching requests.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"matrix-core/internal/common/errors"
	"matrix-core/internal/matching"
	"matrix-core/internal/models"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Signature"

type Platform string

const (
	PlatformUmnico Platform = "umnico"
	PlatformTilda  Platform = "tilda"
	PlatformFlexbe Platform = "flexbe"
)

// ParsePlatform maps a route segment onto a known platform.
func ParsePlatform(s string) (Platform, bool) {
	switch p := Platform(strings.ToLower(s)); p {
	case PlatformUmnico, PlatformTilda, PlatformFlexbe:
		return p, true
	}
	return "", false
}

// Contact is whatever the platform knows about the sender.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// NormalizedRequest is a platform payload reduced to matching input.
type NormalizedRequest struct {
	Message     string                 `json:"message"`
	UserRole    matching.UserRole      `json:"user_role"`
	KnownFields map[string]interface{} `json:"known_fields"`
	Source      string                 `json:"source"`
	UserID      string                 `json:"user_id,omitempty"`
	ExternalID  string                 `json:"external_id,omitempty"`
	Contact     Contact                `json:"contact"`
}

// Variables is the process variable shape used when a workflow is started
// from a webhook.
func (r *NormalizedRequest) Variables() map[string]interface{} {
	return map[string]interface{}{
		"message":     r.Message,
		"userRole":    string(r.UserRole),
		"knownFields": r.KnownFields,
		"source":      r.Source,
		"userId":      r.UserID,
		"externalId":  r.ExternalID,
	}
}

// Parse validates body against the platform schema and normalizes it.
func Parse(platform Platform, body []byte) (*NormalizedRequest, error) {
	schema, ok := schemas[platform]
	if !ok {
		return nil, errors.NewWebhookPayloadInvalidError(string(platform), "unknown platform")
	}
	if result := schema.ValidateBytes(body); !result.Valid {
		return nil, errors.NewWebhookPayloadInvalidError(string(platform), strings.Join(result.GetErrorMessages(), "; ")).
			WithMetadata("errors", result.Errors)
	}

	var err error
	var req *NormalizedRequest
	switch platform {
	case PlatformUmnico:
		req, err = NormalizeUmnico(body)
	case PlatformTilda:
		req, err = NormalizeTilda(body)
	case PlatformFlexbe:
		req, err = NormalizeFlexbe(body)
	}
	if err != nil {
		return nil, errors.NewWebhookPayloadInvalidError(string(platform), err.Error())
	}
	return req, nil
}

type umnicoPayload struct {
	SessionID string                 `json:"session_id"`
	UserID    string                 `json:"user_id"`
	UserType  string                 `json:"user_type"`
	Message   string                 `json:"message"`
	Contact   Contact                `json:"contact"`
	Context   map[string]interface{} `json:"context"`
}

// NormalizeUmnico handles chat bot messages. The bot context may already
// carry extracted fields, which are passed through as known fields.
func NormalizeUmnico(body []byte) (*NormalizedRequest, error) {
	var p umnicoPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode umnico payload: %w", err)
	}
	known := map[string]interface{}{}
	for k, v := range p.Context {
		known[k] = v
	}
	return &NormalizedRequest{
		Message:     strings.TrimSpace(p.Message),
		UserRole:    roleOrCustomer(p.UserType),
		KnownFields: known,
		Source:      models.SourceUmnico,
		UserID:      p.UserID,
		ExternalID:  p.SessionID,
		Contact:     p.Contact,
	}, nil
}

type tildaPayload struct {
	FormID   string `json:"formid"`
	TranID   string `json:"tranid"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Message  string `json:"message"`
	Region   string `json:"region"`
	Budget   string `json:"budget"`
	Timeline string `json:"timeline"`
}

// NormalizeTilda handles personal-cabinet form submissions. Forms are only
// filled in by customers.
func NormalizeTilda(body []byte) (*NormalizedRequest, error) {
	var p tildaPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode tilda payload: %w", err)
	}
	known := map[string]interface{}{}
	putNonEmpty(known, "region", p.Region)
	putNonEmpty(known, "budget_range", p.Budget)
	putNonEmpty(known, "timeline", p.Timeline)

	externalID := p.TranID
	if externalID == "" {
		externalID = p.FormID
	}
	return &NormalizedRequest{
		Message:     strings.TrimSpace(p.Message),
		UserRole:    matching.RoleCustomer,
		KnownFields: known,
		Source:      models.SourceTilda,
		ExternalID:  externalID,
		Contact:     Contact{Name: p.Name, Phone: p.Phone, Email: p.Email},
	}, nil
}

type flexbePayload struct {
	Event string `json:"event"`
	Data  struct {
		ID       json.RawMessage `json:"id"`
		FormName string          `json:"form_name"`
		Fields   struct {
			Message        string `json:"message"`
			Name           string `json:"name"`
			Phone          string `json:"phone"`
			Email          string `json:"email"`
			Region         string `json:"region"`
			Specialization string `json:"specialization"`
		} `json:"fields"`
	} `json:"data"`
}

// NormalizeFlexbe handles landing-page lead events.
func NormalizeFlexbe(body []byte) (*NormalizedRequest, error) {
	var p flexbePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode flexbe payload: %w", err)
	}
	f := p.Data.Fields
	known := map[string]interface{}{}
	putNonEmpty(known, "region", f.Region)
	putNonEmpty(known, "specialization", f.Specialization)

	return &NormalizedRequest{
		Message:     strings.TrimSpace(f.Message),
		UserRole:    matching.RoleCustomer,
		KnownFields: known,
		Source:      models.SourceFlexbe,
		ExternalID:  strings.Trim(string(p.Data.ID), `"`),
		Contact:     Contact{Name: f.Name, Phone: f.Phone, Email: f.Email},
	}, nil
}

func roleOrCustomer(s string) matching.UserRole {
	switch r := matching.UserRole(s); r {
	case matching.RoleContractor, matching.RoleProducer:
		return r
	}
	return matching.RoleCustomer
}

func putNonEmpty(m map[string]interface{}, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		m[key] = v
	}
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verifier checks platform signatures against configured secrets.
type Verifier struct {
	secrets map[string]string
}

func NewVerifier(secrets map[string]string) *Verifier {
	return &Verifier{secrets: secrets}
}

// Verify accepts the body when the platform has no secret configured or the
// signature matches.
func (v *Verifier) Verify(platform Platform, body []byte, signature string) error {
	secret := v.secrets[string(platform)]
	if secret == "" {
		return nil
	}
	expected := Sign(secret, body)
	got := strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(got))) {
		return errors.NewWebhookSignatureInvalidError(string(platform))
	}
	return nil
}
