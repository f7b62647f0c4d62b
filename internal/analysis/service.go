// internal/analysis/service.go

// Package analysis runs the matching pipeline for one request and keeps the
// results retrievable for a while.
package analysis

import (
	"context"
	"strings"
	"time"

	"matrix-core/internal/common/config"
	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/common/metrics"
	"matrix-core/internal/matching"
	"matrix-core/internal/models"

	"github.com/google/uuid"
)

// BroadenMessage is attached to results without recommendations.
const BroadenMessage = "Подходящие партнеры не найдены. Попробуйте расширить критерии поиска: регион, бюджет или сроки."

// Catalog is the partner snapshot source.
type Catalog interface {
	ListActivePartners(ctx context.Context) ([]matching.PartnerRecord, error)
}

// RequestRecorder persists analyzed requests of known users.
type RequestRecorder interface {
	AddRequest(ctx context.Context, req *models.UserRequest) error
	MarkRequestAnalyzed(ctx context.Context, requestID string, matched int) error
}

// Request is one message to analyze. RequestID names an already stored
// request that is analyzed again; UserID without RequestID stores a new one.
type Request struct {
	UserID      string
	RequestID   string
	UserRole    matching.UserRole
	Message     string
	KnownFields map[string]interface{}
	Source      string
}

// Result is the outward analysis payload.
type Result struct {
	AnalysisID       string                    `json:"analysis_id"`
	RequestID        string                    `json:"request_id"`
	UserID           string                    `json:"user_id,omitempty"`
	Intent           matching.Intent           `json:"intent"`
	Confidence       float64                   `json:"confidence"`
	EntitiesFound    map[string]interface{}    `json:"entities_found"`
	PartnersCount    int                       `json:"partners_count"`
	Recommendations  []matching.Recommendation `json:"recommendations"`
	CrisisMatchScore float64                   `json:"crisis_match_score"`
	Message          string                    `json:"message,omitempty"`
	Source           string                    `json:"source,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
}

// CrisisResult is the crisis-match payload.
type CrisisResult struct {
	CustomerID          string                 `json:"customer_id"`
	Matches             []matching.CrisisMatch `json:"crisis_matches"`
	TotalMatches        int                    `json:"total_matches"`
	HighPriorityMatches int                    `json:"high_priority_matches"`
}

type Service struct {
	scorer   *matching.Scorer
	catalog  Catalog
	requests RequestRecorder
	store    *Store
	cfg      config.MatchingConfig
	logger   logger.Logger
	newID    func() string
	now      func() time.Time
}

// NewService builds the pipeline. requests may be nil, in which case no
// request history is written.
func NewService(cfg config.MatchingConfig, catalog Catalog, requests RequestRecorder, store *Store, log logger.Logger) (*Service, error) {
	scorer, err := matching.NewScorer(cfg.Weights, cfg.Threshold)
	if err != nil {
		return nil, err
	}
	return &Service{
		scorer:   scorer,
		catalog:  catalog,
		requests: requests,
		store:    store,
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "analysis"}),
		newID:    uuid.NewString,
		now:      time.Now,
	}, nil
}

func (s *Service) Scorer() *matching.Scorer { return s.scorer }

// Analyze extracts entities, classifies intent, ranks the active catalog and
// builds recommendations. The result is stored under its analysis ID.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, errors.NewInvalidInputError("message is required")
	}
	role := req.UserRole
	if role == "" {
		role = matching.RoleCustomer
	}

	entities := matching.ExtractEntities(message, req.KnownFields)
	intent := matching.ClassifyIntent(message, role)

	catalog, err := s.catalog.ListActivePartners(ctx)
	if err != nil {
		return nil, err
	}
	// Every partner above the threshold counts toward partners_count; only
	// the recommendations are trimmed.
	ranked := s.scorer.Rank(entities, intent, catalog, 0)
	set := matching.BuildRecommendations(ranked, intent)

	metrics.MatchingAnalyses.WithLabelValues(string(intent.Intent)).Inc()
	metrics.MatchingRankedPartners.Observe(float64(len(ranked)))

	recs := set.Recommendations
	if top := s.cfg.TopRecommended; top > 0 && len(recs) > top {
		recs = recs[:top]
	}

	result := &Result{
		AnalysisID:       s.newID(),
		RequestID:        req.RequestID,
		UserID:           req.UserID,
		Intent:           intent.Intent,
		Confidence:       intent.Confidence,
		EntitiesFound:    entities.AsMap(),
		PartnersCount:    len(ranked),
		Recommendations:  recs,
		CrisisMatchScore: set.AggregateCrisisScore,
		Source:           req.Source,
		CreatedAt:        s.now().UTC(),
	}
	if len(recs) == 0 {
		result.Message = BroadenMessage
	}

	if err := s.record(ctx, req, result); err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.Save(ctx, result); err != nil {
			s.logger.Warn("failed to store analysis result", map[string]interface{}{
				"analysisId": result.AnalysisID,
				"error":      err,
			})
		}
	}

	s.logger.Info("request analyzed", map[string]interface{}{
		"analysisId":    result.AnalysisID,
		"intent":        result.Intent,
		"partnersCount": result.PartnersCount,
	})
	return result, nil
}

func (s *Service) record(ctx context.Context, req Request, result *Result) error {
	if req.RequestID != "" {
		if s.requests != nil {
			return s.requests.MarkRequestAnalyzed(ctx, req.RequestID, result.PartnersCount)
		}
		return nil
	}

	result.RequestID = s.newID()
	if req.UserID == "" || s.requests == nil {
		return nil
	}

	source := req.Source
	if !models.IsValidSource(source) {
		source = models.SourceAPI
	}
	return s.requests.AddRequest(ctx, &models.UserRequest{
		ID:          result.RequestID,
		UserID:      req.UserID,
		RequestType: string(result.Intent),
		Message:     req.Message,
		RequestData: map[string]interface{}{
			"user_type": string(req.UserRole),
			"user_data": req.KnownFields,
			"entities":  result.EntitiesFound,
		},
		Source:               source,
		Status:               models.RequestStatusAnalyzed,
		MatchedPartnersCount: result.PartnersCount,
		CreatedAt:            result.CreatedAt,
	})
}

// Result returns a stored analysis.
func (s *Service) Result(ctx context.Context, id string) (*Result, error) {
	if s.store == nil {
		return nil, errors.NewAnalysisNotFoundError(id).WithCause(ErrAnalysisNotFound)
	}
	return s.store.Get(ctx, id)
}

// CrisisMatch scores the crisis board against the customer requirements.
func (s *Service) CrisisMatch(ctx context.Context, customerID string, requirements map[string]interface{}) (*CrisisResult, error) {
	catalog, err := s.catalog.ListActivePartners(ctx)
	if err != nil {
		return nil, err
	}
	matches := matching.MatchCrisis(catalog, matching.ExtractEntities("", requirements))

	high := 0
	for _, m := range matches {
		if m.Priority >= matching.PriorityHigh {
			high++
		}
	}
	return &CrisisResult{
		CustomerID:          customerID,
		Matches:             matches,
		TotalMatches:        len(matches),
		HighPriorityMatches: high,
	}, nil
}

// CrisisBoard returns partners available for urgent work.
func (s *Service) CrisisBoard(ctx context.Context, limit int) ([]matching.PartnerRecord, error) {
	catalog, err := s.catalog.ListActivePartners(ctx)
	if err != nil {
		return nil, err
	}
	board := matching.CrisisBoard(catalog)
	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}
