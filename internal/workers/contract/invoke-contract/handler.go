// internal/workers/contract/invoke-contract/handler.go
package invokecontract

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"agentkit-workers/internal/common/chain"
	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/common/metrics"
	"agentkit-workers/internal/common/validation"
	"agentkit-workers/internal/common/wallet"
	"agentkit-workers/internal/models"
	"agentkit-workers/pkg/registry"
)

const TaskType = "invoke-contract"

// Registry looks wallets up by id.
type Registry interface {
	Get(ctx context.Context, id string) (*wallet.Wallet, error)
}

// Invoker sends a signed call and waits for it to be mined.
type Invoker interface {
	Send(ctx context.Context, key *ecdsa.PrivateKey, contract common.Address, data []byte) (*types.Transaction, error)
	Wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

type Handler struct {
	config       *Config
	registry     Registry
	invoker      Invoker
	ledger       Ledger
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

// NewHandler builds the handler. ledger may be nil, in which case invocations are
// only logged.
func NewHandler(config *Config, registry Registry, invoker Invoker, ledger Ledger, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		registry:     registry,
		invoker:      invoker,
		ledger:       ledger,
		errorHandler: apperrors.NewErrorHandler(l),
		logger:       l,
		now:          time.Now,
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

// Validate checks the call against its ABI and returns the calldata. It touches
// neither the wallet registry nor the chain.
func Validate(input *Input) ([]byte, error) {
	if strings.TrimSpace(input.WalletID) == "" {
		return nil, apperrors.NewInvalidInputError("walletId is required")
	}
	if !common.IsHexAddress(input.ContractAddress) {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("contractAddress %q is not a hex address", input.ContractAddress))
	}
	if input.ABI == nil {
		return nil, apperrors.NewInvalidInputError("abi is required")
	}
	parsed, err := chain.ParseABI(input.ABI)
	if err != nil {
		return nil, err
	}
	args := input.Args
	if args == nil {
		args = map[string]interface{}{}
	}
	return chain.EncodeCall(parsed, input.Method, args)
}

// execute blocks until the transaction is mined. Any failure, a reverted transaction
// included, is returned to the caller.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	data, err := Validate(input)
	if err != nil {
		metrics.ContractInvocations.WithLabelValues(input.Method, "rejected").Inc()
		return nil, err
	}

	w, err := h.registry.Get(ctx, input.WalletID)
	if err != nil {
		return nil, err
	}
	if err := wallet.LoadSeed(h.config.SeedFile, w, h.config.SeedPassphrase); err != nil {
		return nil, err
	}

	inv := &models.Invocation{
		ID:              uuid.NewString(),
		WalletID:        w.ID,
		ContractAddress: common.HexToAddress(input.ContractAddress).Hex(),
		Method:          input.Method,
		Args:            input.Args,
		Status:          models.InvocationPending,
		CreatedAt:       h.now().UTC(),
	}
	if h.ledger != nil {
		if err := h.ledger.Record(ctx, inv); err != nil {
			return nil, apperrors.NewContractInvocationFailedError(err)
		}
	}

	log := h.logger.WithFields(map[string]interface{}{
		"invocationId": inv.ID,
		"walletId":     inv.WalletID,
		"contract":     inv.ContractAddress,
		"method":       inv.Method,
	})

	tx, err := h.invoker.Send(ctx, w.Key(), common.HexToAddress(inv.ContractAddress), data)
	if err != nil {
		return nil, h.fail(ctx, log, inv, models.InvocationFailed, err)
	}
	inv.TxHash = tx.Hash().Hex()
	log.Info("transaction sent", map[string]interface{}{"txHash": inv.TxHash})

	receipt, err := h.invoker.Wait(ctx, tx)
	if err != nil {
		return nil, h.fail(ctx, log, inv, models.InvocationFailed, err)
	}
	if receipt.BlockNumber != nil {
		inv.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, h.fail(ctx, log, inv, models.InvocationReverted,
			fmt.Errorf("transaction %s reverted in block %d", inv.TxHash, inv.BlockNumber))
	}

	inv.Status = models.InvocationConfirmed
	h.update(ctx, log, inv)
	metrics.ContractInvocations.WithLabelValues(inv.Method, inv.Status).Inc()
	log.Info("contract invocation confirmed", map[string]interface{}{
		"txHash":      inv.TxHash,
		"blockNumber": inv.BlockNumber,
	})
	return &Output{Invocation: *inv}, nil
}

func (h *Handler) fail(ctx context.Context, log logger.Logger, inv *models.Invocation, status string, cause error) error {
	inv.Status = status
	h.update(ctx, log, inv)
	metrics.ContractInvocations.WithLabelValues(inv.Method, status).Inc()
	log.Error("contract invocation failed", map[string]interface{}{
		"status": status,
		"txHash": inv.TxHash,
		"error":  cause.Error(),
	})
	return apperrors.NewContractInvocationFailedError(cause).
		WithMetadata("invocationId", inv.ID).
		WithMetadata("status", status)
}

// update records the final state. The chain outcome stands even if the ledger write fails.
func (h *Handler) update(ctx context.Context, log logger.Logger, inv *models.Invocation) {
	if h.ledger == nil {
		return
	}
	if err := h.ledger.Update(ctx, inv); err != nil {
		log.Error("failed to update invocation ledger", map[string]interface{}{
			"error": err.Error(),
		})
	}
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
