// internal/workers/connection/notify-connection/handler.go
package notifyconnection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"matrix-core/internal/common/errors"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/common/metrics"
	"matrix-core/internal/common/observability"
	"matrix-core/internal/models"
	"matrix-core/internal/notify"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "notify-connection"

type Connections interface {
	Get(ctx context.Context, id string) (*models.Connection, error)
}

type Recipients interface {
	Recipient(ctx context.Context, id string) (notify.Recipient, error)
}

type Notifier interface {
	NotifyConnection(ctx context.Context, recipient notify.Recipient, conn *models.Connection) (*notify.Result, error)
}

type Handler struct {
	config      *Config
	connections Connections
	recipients  Recipients
	notifier    Notifier
	logger      logger.Logger
	errors      *errors.ErrorHandler
	obs         *observability.Observability
}

func NewHandler(config *Config, connections Connections, recipients Recipients, notifier Notifier, log logger.Logger, obs *observability.Observability) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		connections: connections,
		recipients:  recipients,
		notifier:    notifier,
		logger:      l,
		errors:      errors.NewErrorHandler(l),
		obs:         obs,
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

// execute notifies the target of a connection. Send failures are returned so
// the job is retried.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ConnectionID == "" {
		return nil, errors.NewInvalidInputError("connectionId is required")
	}

	conn, err := h.connections.Get(ctx, input.ConnectionID)
	if err != nil {
		return nil, err
	}
	recipient, err := h.recipients.Recipient(ctx, conn.ToUser)
	if err != nil {
		return nil, err
	}

	result, err := h.notifier.NotifyConnection(ctx, recipient, conn)
	if err != nil {
		return nil, err
	}
	return &Output{Notification: result, NotificationStatus: result.Status}, nil
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
