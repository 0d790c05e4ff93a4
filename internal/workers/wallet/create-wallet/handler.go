// internal/workers/wallet/create-wallet/handler.go
package createwallet

import (
	"context"
	"fmt"

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

const TaskType = "create-wallet"

// Registry persists wallet records.
type Registry interface {
	Save(ctx context.Context, rec models.WalletRecord) error
}

// Faucet funds an address with test funds.
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

// NewHandler builds the handler. faucet may be nil when no platform credentials are
// configured; jobs that ask for funds then fail with CONFIGURATION_MISSING.
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

// execute saves the seed before registering the wallet, so a registered wallet always
// has a seed on disk. A failed faucet request still returns the registered wallet.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.RequestFaucet && h.faucet == nil {
		return nil, apperrors.NewConfigurationMissingError("cdp.api_key_name", "CDP_API_KEY_NAME")
	}

	network := input.NetworkID
	if network == "" {
		network = h.config.NetworkID
	}

	w, err := wallet.Create(network)
	if err != nil {
		return nil, apperrors.NewWalletSeedInvalidError("", err)
	}

	if err := wallet.SaveSeed(h.config.SeedFile, w, input.EncryptSeed, h.config.SeedPassphrase); err != nil {
		return nil, err
	}
	if err := h.registry.Save(ctx, w.WalletRecord); err != nil {
		return nil, err
	}

	h.logger.Info("wallet created", map[string]interface{}{
		"walletId":  w.ID,
		"address":   w.Address,
		"networkId": w.NetworkID,
		"encrypted": input.EncryptSeed,
	})

	out := &Output{Wallet: w.WalletRecord, SeedFile: h.config.SeedFile}
	if input.RequestFaucet {
		res, err := h.faucet.RequestFaucet(ctx, w.ID, w.Address)
		if err != nil {
			h.logger.Warn("wallet created but faucet request failed", map[string]interface{}{
				"walletId": w.ID,
				"error":    err.Error(),
			})
			return out, unfundedWalletError(w.ID, err)
		}
		h.logger.Info("faucet funds requested", map[string]interface{}{
			"walletId":        w.ID,
			"transactionHash": res.TransactionHash,
		})
		out.Faucet = res
	}
	return out, nil
}

func unfundedWalletError(walletID string, err error) error {
	reason := apperrors.Normalize(err).Details
	if reason == "" {
		reason = err.Error()
	}
	return apperrors.NewFaucetRequestFailedError(
		fmt.Errorf("wallet %s is registered but unfunded: %s", walletID, reason)).
		WithMetadata("walletId", walletID)
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
