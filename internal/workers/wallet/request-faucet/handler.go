// internal/workers/wallet/request-faucet/handler.go
package requestfaucet

import (
	"context"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/common/metrics"
	"agentkit-workers/internal/common/validation"
	"agentkit-workers/internal/common/wallet"
	"agentkit-workers/internal/models"
	"agentkit-workers/pkg/registry"
)

const TaskType = "request-faucet"

// Registry looks wallets up by id.
type Registry interface {
	Get(ctx context.Context, id string) (*wallet.Wallet, error)
}

type Faucet interface {
	RequestFaucet(ctx context.Context, walletID, address string) (*models.FaucetResult, error)
}

type Handler struct {
	config       *Config
	registry     Registry
	faucet       Faucet
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, registry Registry, faucet Faucet, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		registry:     registry,
		faucet:       faucet,
		errorHandler: apperrors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := validation.DecodeJob(registry.InputSchema(TaskType), job.Variables, &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.WalletID) == "" {
		return nil, apperrors.NewInvalidInputError("walletId is required")
	}

	w, err := h.registry.Get(ctx, input.WalletID)
	if err != nil {
		return nil, err
	}

	res, err := h.faucet.RequestFaucet(ctx, w.ID, w.Address)
	if err != nil {
		h.logger.Error("faucet request failed", map[string]interface{}{
			"walletId": w.ID,
			"error":    err.Error(),
		})
		return nil, err
	}

	h.logger.Info("faucet funds requested", map[string]interface{}{
		"walletId":        w.ID,
		"address":         w.Address,
		"transactionHash": res.TransactionHash,
	})
	return &Output{Faucet: *res}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
