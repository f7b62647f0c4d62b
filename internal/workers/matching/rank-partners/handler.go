// internal/workers/matching/rank-partners/handler.go
package rankpartners

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/common/metrics"
	"matrix-core/internal/common/observability"
	"matrix-core/internal/matching"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "rank-partners"

// Catalog is the slice of catalog.Repository the ranker reads.
type Catalog interface {
	ListActivePartners(ctx context.Context) ([]matching.PartnerRecord, error)
}

type Handler struct {
	config  *Config
	catalog Catalog
	scorer  *matching.Scorer
	logger  logger.Logger
	errors  *errors.ErrorHandler
	obs     *observability.Observability
}

func NewHandler(config *Config, catalog Catalog, scorer *matching.Scorer, log logger.Logger, obs *observability.Observability) *Handler {
	if scorer == nil {
		scorer = matching.DefaultScorer()
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		catalog: catalog,
		scorer:  scorer,
		logger:  l,
		errors:  errors.NewErrorHandler(l),
		obs:     obs,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start))
}

// parseInput starts from neutral entities so that fields missing from the
// job variables keep their defaults.
func parseInput(job entities.Job) (*Input, error) {
	input := Input{Entities: matching.NewRequestEntities()}
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Limit < 0 {
		return nil, errors.NewInvalidInputError("limit must not be negative")
	}
	limit := input.Limit
	if limit == 0 {
		limit = h.config.DefaultLimit
	}

	catalog, err := h.catalog.ListActivePartners(ctx)
	if err != nil {
		return nil, err
	}

	ranked := h.scorer.Rank(input.Entities, matching.IntentResult{Intent: input.Intent}, catalog, 0)
	relevant := len(ranked)
	metrics.MatchingRankedPartners.Observe(float64(relevant))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	h.logger.Info("partners ranked", map[string]interface{}{
		"catalogSize": len(catalog),
		"relevant":    relevant,
		"limit":       limit,
	})
	return &Output{
		RankedPartners: ranked,
		PartnersCount:  relevant,
		CatalogSize:    len(catalog),
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandardError(err).Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.errors.HandleJobError(ctx, client, job, err)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
