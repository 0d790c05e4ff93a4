// internal/workers/export/export-tabular/handler.go
package exporttabular

import (
	"context"
	"fmt"
	"os"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/gocarina/gocsv"

	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/common/metrics"
	"agentkit-workers/internal/common/validation"
	"agentkit-workers/pkg/registry"
)

const TaskType = "export-tabular"

type Handler struct {
	config       *Config
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
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

// execute replaces the file at the target path with one row per record. Nothing is
// written when there are no records.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	path := input.Path
	if path == "" {
		path = h.config.Path
	}
	if path == "" {
		return nil, apperrors.NewInvalidInputError("export path is empty")
	}
	if len(input.Records) == 0 {
		h.logger.Info("no records to export", map[string]interface{}{"path": path})
		return &Output{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewExportFailedError(path, err)
	}

	rows := make([]Row, len(input.Records))
	for i, rec := range input.Records {
		rows[i] = NewRow(rec)
	}

	if err := writeRows(path, rows); err != nil {
		return nil, apperrors.NewExportFailedError(path, err)
	}

	h.logger.Info("exported records", map[string]interface{}{
		"path": path,
		"rows": len(rows),
	})
	return &Output{Path: path, Rows: len(rows)}, nil
}

func writeRows(path string, rows []Row) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
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
