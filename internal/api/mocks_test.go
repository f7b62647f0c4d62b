// internal/api/mocks_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"matrix-core/internal/analysis"
	"matrix-core/internal/common/camunda"
	"matrix-core/internal/common/config"
	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/matching"
	"matrix-core/internal/models"
	"matrix-core/internal/notify"
	"matrix-core/internal/taxid"

	"github.com/stretchr/testify/require"
)

// ==========================
// Repository mocks
// ==========================

type MockUsers struct {
	CreateFunc              func(ctx context.Context, u *models.User) error
	GetByIDFunc             func(ctx context.Context, id string) (*models.User, error)
	UpdateProfileFunc       func(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, int, error)
	AddRequestFunc          func(ctx context.Context, req *models.UserRequest) error
	ListRequestsFunc        func(ctx context.Context, userID string, limit int) ([]*models.UserRequest, error)
	LatestRequestFunc       func(ctx context.Context, userID string) (*models.UserRequest, error)
	MarkRequestAnalyzedFunc func(ctx context.Context, requestID string, matched int) error
	StatsFunc               func(ctx context.Context, id string) (*models.UserStats, error)
}

func (m *MockUsers) Create(ctx context.Context, u *models.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, u)
	}
	return nil
}

func (m *MockUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}

func (m *MockUsers) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, int, error) {
	return m.UpdateProfileFunc(ctx, id, update)
}

func (m *MockUsers) AddRequest(ctx context.Context, req *models.UserRequest) error {
	if m.AddRequestFunc != nil {
		return m.AddRequestFunc(ctx, req)
	}
	return nil
}

func (m *MockUsers) ListRequests(ctx context.Context, userID string, limit int) ([]*models.UserRequest, error) {
	return m.ListRequestsFunc(ctx, userID, limit)
}

func (m *MockUsers) LatestRequest(ctx context.Context, userID string) (*models.UserRequest, error) {
	return m.LatestRequestFunc(ctx, userID)
}

func (m *MockUsers) MarkRequestAnalyzed(ctx context.Context, requestID string, matched int) error {
	if m.MarkRequestAnalyzedFunc != nil {
		return m.MarkRequestAnalyzedFunc(ctx, requestID, matched)
	}
	return nil
}

func (m *MockUsers) Stats(ctx context.Context, id string) (*models.UserStats, error) {
	return m.StatsFunc(ctx, id)
}

type MockPartners struct {
	CreatePartnerFunc      func(ctx context.Context, p *models.Partner) error
	GetPartnerFunc         func(ctx context.Context, id string) (*models.Partner, error)
	UpdatePartnerFunc      func(ctx context.Context, p *models.Partner) error
	UpdateWorkloadFunc     func(ctx context.Context, id string, workload int) (int, error)
	ListActivePartnersFunc func(ctx context.Context) ([]matching.PartnerRecord, error)
	SearchPartnersFunc     func(ctx context.Context, criteria matching.SearchCriteria, ids []string, sortBy string, limit int) ([]matching.SearchHit, int, error)
	PartnerStatsFunc       func(ctx context.Context, id string) (*models.PartnerStats, error)
}

func (m *MockPartners) CreatePartner(ctx context.Context, p *models.Partner) error {
	if m.CreatePartnerFunc != nil {
		return m.CreatePartnerFunc(ctx, p)
	}
	return nil
}

func (m *MockPartners) GetPartner(ctx context.Context, id string) (*models.Partner, error) {
	return m.GetPartnerFunc(ctx, id)
}

func (m *MockPartners) UpdatePartner(ctx context.Context, p *models.Partner) error {
	if m.UpdatePartnerFunc != nil {
		return m.UpdatePartnerFunc(ctx, p)
	}
	return nil
}

func (m *MockPartners) UpdateWorkload(ctx context.Context, id string, workload int) (int, error) {
	return m.UpdateWorkloadFunc(ctx, id, workload)
}

func (m *MockPartners) ListActivePartners(ctx context.Context) ([]matching.PartnerRecord, error) {
	return m.ListActivePartnersFunc(ctx)
}

func (m *MockPartners) SearchPartners(ctx context.Context, criteria matching.SearchCriteria, ids []string, sortBy string, limit int) ([]matching.SearchHit, int, error) {
	return m.SearchPartnersFunc(ctx, criteria, ids, sortBy, limit)
}

func (m *MockPartners) PartnerStats(ctx context.Context, id string) (*models.PartnerStats, error) {
	return m.PartnerStatsFunc(ctx, id)
}

type MockConnections struct {
	CreateFunc         func(ctx context.Context, c *models.Connection) error
	GetFunc            func(ctx context.Context, id string) (*models.Connection, error)
	UpdateStatusFunc   func(ctx context.Context, id string, status models.ConnectionStatus) (*models.Connection, models.ConnectionStatus, error)
	AddInteractionFunc func(ctx context.Context, id string, interaction models.Interaction) (*models.Connection, error)
	ListForUserFunc    func(ctx context.Context, userID string) ([]*models.Connection, error)
	CountByStatusFunc  func(ctx context.Context) (map[models.ConnectionStatus]int, error)
}

func (m *MockConnections) Create(ctx context.Context, c *models.Connection) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	return nil
}

func (m *MockConnections) Get(ctx context.Context, id string) (*models.Connection, error) {
	return m.GetFunc(ctx, id)
}

func (m *MockConnections) FindBetween(ctx context.Context, userA, userB string) (*models.Connection, error) {
	return nil, nil
}

func (m *MockConnections) UpdateStatus(ctx context.Context, id string, status models.ConnectionStatus) (*models.Connection, models.ConnectionStatus, error) {
	return m.UpdateStatusFunc(ctx, id, status)
}

func (m *MockConnections) AddInteraction(ctx context.Context, id string, interaction models.Interaction) (*models.Connection, error) {
	return m.AddInteractionFunc(ctx, id, interaction)
}

func (m *MockConnections) ListForUser(ctx context.Context, userID string) ([]*models.Connection, error) {
	return m.ListForUserFunc(ctx, userID)
}

func (m *MockConnections) CountByStatus(ctx context.Context) (map[models.ConnectionStatus]int, error) {
	return m.CountByStatusFunc(ctx)
}

// ==========================
// Service mocks
// ==========================

type MockAnalyzer struct {
	AnalyzeFunc     func(ctx context.Context, req analysis.Request) (*analysis.Result, error)
	ResultFunc      func(ctx context.Context, id string) (*analysis.Result, error)
	CrisisMatchFunc func(ctx context.Context, customerID string, requirements map[string]interface{}) (*analysis.CrisisResult, error)
	CrisisBoardFunc func(ctx context.Context, limit int) ([]matching.PartnerRecord, error)
}

func (m *MockAnalyzer) Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	return m.AnalyzeFunc(ctx, req)
}

func (m *MockAnalyzer) Result(ctx context.Context, id string) (*analysis.Result, error) {
	return m.ResultFunc(ctx, id)
}

func (m *MockAnalyzer) CrisisMatch(ctx context.Context, customerID string, requirements map[string]interface{}) (*analysis.CrisisResult, error) {
	return m.CrisisMatchFunc(ctx, customerID, requirements)
}

func (m *MockAnalyzer) CrisisBoard(ctx context.Context, limit int) ([]matching.PartnerRecord, error) {
	return m.CrisisBoardFunc(ctx, limit)
}

type MockTaxID struct {
	Registry        bool
	VerifyFunc      func(ctx context.Context, inn string) (*taxid.Result, error)
	RefreshFunc     func(ctx context.Context, inn string) (*taxid.Result, error)
	BatchVerifyFunc func(ctx context.Context, inns []string) ([]taxid.BatchItem, error)
	UsageFunc       func(ctx context.Context) (*taxid.Usage, error)
	ClearCacheFunc  func(ctx context.Context, inn string) (bool, error)
}

func (m *MockTaxID) Available() bool { return m.Registry }

func (m *MockTaxID) Verify(ctx context.Context, inn string) (*taxid.Result, error) {
	return m.VerifyFunc(ctx, inn)
}

func (m *MockTaxID) Refresh(ctx context.Context, inn string) (*taxid.Result, error) {
	if m.RefreshFunc == nil {
		return nil, errors.NewTaxIDUnavailableError()
	}
	return m.RefreshFunc(ctx, inn)
}

func (m *MockTaxID) BatchVerify(ctx context.Context, inns []string) ([]taxid.BatchItem, error) {
	return m.BatchVerifyFunc(ctx, inns)
}

func (m *MockTaxID) Usage(ctx context.Context) (*taxid.Usage, error) {
	return m.UsageFunc(ctx)
}

func (m *MockTaxID) ClearCache(ctx context.Context, inn string) (bool, error) {
	return m.ClearCacheFunc(ctx, inn)
}

type MockIndex struct {
	Indexed       []string
	SearchIDsFunc func(ctx context.Context, text string, limit int) ([]string, error)
}

func (m *MockIndex) IndexPartner(ctx context.Context, p *models.Partner) error {
	m.Indexed = append(m.Indexed, p.ID)
	return nil
}

func (m *MockIndex) SearchIDs(ctx context.Context, text string, limit int) ([]string, error) {
	return m.SearchIDsFunc(ctx, text, limit)
}

type MockNotifier struct {
	Sent []notify.Recipient
	Err  error
}

func (m *MockNotifier) NotifyConnection(ctx context.Context, recipient notify.Recipient, conn *models.Connection) (*notify.Result, error) {
	m.Sent = append(m.Sent, recipient)
	if m.Err != nil {
		return &notify.Result{Status: notify.StatusFailed}, m.Err
	}
	return &notify.Result{Status: notify.StatusSent, EmailSent: true}, nil
}

type MockRecipients struct {
	RecipientFunc func(ctx context.Context, id string) (notify.Recipient, error)
}

func (m *MockRecipients) Recipient(ctx context.Context, id string) (notify.Recipient, error) {
	return m.RecipientFunc(ctx, id)
}

type MockProcesses struct {
	Started []map[string]interface{}
	Err     error
}

func (m *MockProcesses) StartProcessInstance(ctx context.Context, bpmnProcessID string, variables map[string]interface{}) (*camunda.ProcessInstance, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Started = append(m.Started, variables)
	return &camunda.ProcessInstance{ProcessInstanceKey: 2251799813685249, BpmnProcessID: bpmnProcessID}, nil
}

// ==========================
// Helpers
// ==========================

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "matrix-core"
	cfg.App.Version = "test"
	cfg.Server.APIPrefix = "/api/v1"
	cfg.Server.Mode = "test"
	cfg.Camunda.MatchingProcessID = "partner-matching"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, deps Deps) http.Handler {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	return NewServer(cfg, deps, logger.NewTestLogger(t)).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" && bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}
