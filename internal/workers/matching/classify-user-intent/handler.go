// internal/workers/matching/classify-user-intent/handler.go
package classifyuserintent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/common/metrics"
	"matrix-core/internal/common/observability"
	"matrix-core/internal/matching"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "classify-user-intent"

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

func parseRole(raw string) (matching.UserRole, error) {
	switch role := matching.UserRole(strings.ToLower(strings.TrimSpace(raw))); role {
	case "":
		return matching.RoleCustomer, nil
	case matching.RoleCustomer, matching.RoleContractor, matching.RoleProducer:
		return role, nil
	default:
		return "", errors.NewInvalidInputError("unknown user role: " + raw)
	}
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, errors.NewInvalidInputError("message is required")
	}
	role, err := parseRole(input.UserRole)
	if err != nil {
		return nil, err
	}

	res := matching.ClassifyIntent(input.Message, role)
	h.logger.Info("intent classified", map[string]interface{}{
		"intent":     res.Intent,
		"confidence": res.Confidence,
		"userRole":   role,
	})
	return &Output{
		Intent:           res.Intent,
		IntentConfidence: res.Confidence,
		MatchedPattern:   res.MatchedPattern,
		UserRole:         role,
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
