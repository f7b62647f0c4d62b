// internal/workers/matching/build-recommendations/handler.go
package buildrecommendations

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"matrix-core/internal/analysis"
	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/common/metrics"
	"matrix-core/internal/common/observability"
	"matrix-core/internal/matching"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "build-recommendations"

type Handler struct {
	config *Config
	logger logger.Logger
	errors *errors.ErrorHandler
	obs    *observability.Observability
}

func NewHandler(config *Config, log logger.Logger, obs *observability.Observability) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{config: config, logger: l, errors: errors.NewErrorHandler(l), obs: obs}
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
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

// execute builds the full set first so that the crisis score covers every
// ranked partner, then keeps the top entries.
func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	intent := input.Intent
	if intent == "" {
		intent = matching.IntentPartnerSearch
	}

	set := matching.BuildRecommendations(input.RankedPartners, matching.IntentResult{Intent: intent})
	recs := set.Recommendations
	if top := h.config.TopRecommended; top > 0 && len(recs) > top {
		recs = recs[:top]
	}

	count := len(input.RankedPartners)
	if input.PartnersCount > count {
		count = input.PartnersCount
	}

	out := &Output{
		Recommendations:  recs,
		CrisisMatchScore: set.AggregateCrisisScore,
		PartnersCount:    count,
		HasMatches:       len(recs) > 0,
	}
	if !out.HasMatches {
		out.Message = analysis.BroadenMessage
	}
	metrics.MatchingAnalyses.WithLabelValues(string(intent)).Inc()
	return out, nil
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
