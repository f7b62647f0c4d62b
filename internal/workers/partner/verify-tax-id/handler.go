// internal/workers/partner/verify-tax-id/handler.go
package verifytaxid

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
	"matrix-core/internal/models"
	"matrix-core/internal/taxid"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "verify-tax-id"

type Verifier interface {
	Verify(ctx context.Context, inn string) (*taxid.Result, error)
}

// Partners is the slice of catalog.Repository needed to record the outcome
// on a partner profile.
type Partners interface {
	GetPartner(ctx context.Context, id string) (*models.Partner, error)
	UpdatePartner(ctx context.Context, p *models.Partner) error
}

type Handler struct {
	config   *Config
	verifier Verifier
	partners Partners
	logger   logger.Logger
	errors   *errors.ErrorHandler
	obs      *observability.Observability
}

func NewHandler(config *Config, verifier Verifier, partners Partners, log logger.Logger, obs *observability.Observability) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		verifier: verifier,
		partners: partners,
		logger:   l,
		errors:   errors.NewErrorHandler(l),
		obs:      obs,
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

// verificationStatus maps a lookup onto a partner status. Checksum-only
// results leave the partner pending.
func verificationStatus(res *taxid.Result) matching.VerificationStatus {
	switch {
	case res.IsActive:
		return matching.VerificationVerified
	case res.RegistryStatus == taxid.StatusUnverified:
		return matching.VerificationPending
	default:
		return matching.VerificationRejected
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	inn := strings.TrimSpace(input.INN)
	if inn == "" {
		return nil, errors.NewInvalidInputError("inn is required")
	}

	res, err := h.verifier.Verify(ctx, inn)
	if err != nil {
		return nil, err
	}
	out := &Output{TaxID: res, TaxIDVerified: res.IsActive}

	if input.PartnerID == "" || h.partners == nil {
		return out, nil
	}

	p, err := h.partners.GetPartner(ctx, input.PartnerID)
	if err != nil {
		return nil, err
	}
	p.TaxID = inn
	p.VerificationStatus = verificationStatus(res)
	if p.LegalName == "" && res.CompanyName != "" {
		p.LegalName = res.CompanyName
	}
	if err := h.partners.UpdatePartner(ctx, p); err != nil {
		return nil, err
	}
	out.VerificationStatus = p.VerificationStatus

	h.logger.Info("partner verification recorded", map[string]interface{}{
		"partnerId": p.ID,
		"status":    p.VerificationStatus,
	})
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
