// internal/workers/export/archive-records/handler.go
package archiverecords

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/common/metrics"
	"agentkit-workers/internal/common/validation"
	"agentkit-workers/internal/models"
	"agentkit-workers/pkg/registry"
)

const TaskType = "archive-records"

// Indexer stores one document under id.
type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) error
}

type Handler struct {
	config       *Config
	indexer      Indexer
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, indexer Indexer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		indexer:      indexer,
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

// execute indexes one document per record, keyed by record id, and stops at the first
// failure.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	index := input.Index
	if index == "" {
		index = h.config.Index
	}
	if index == "" {
		return nil, apperrors.NewInvalidInputError("archive index is empty")
	}

	results := make(map[int]models.GenerationResult, len(input.Results))
	for _, r := range input.Results {
		results[r.Index] = r
	}

	archivedAt := h.now().UTC()
	out := &Output{Index: index}
	for i, rec := range input.Records {
		doc := Document{
			RecordID:   rec.ID,
			AuthorID:   rec.AuthorID,
			CreatedAt:  rec.CreatedAt,
			Text:       rec.Text,
			LikeCount:  rec.LikeCount,
			Source:     rec.Source,
			ArchivedAt: archivedAt,
		}
		if r, ok := results[i]; ok && r.RecordID == rec.ID {
			doc.Summary = r.Text
			doc.SummaryError = r.Error
		}

		if err := h.indexer.IndexDocument(ctx, index, rec.ID, doc); err != nil {
			h.logger.Error("failed to archive record", map[string]interface{}{
				"index":    index,
				"recordId": rec.ID,
				"error":    err.Error(),
			})
			return nil, apperrors.NewArchiveFailedError(index, err)
		}
		out.Indexed++
	}

	h.logger.Info("archived records", map[string]interface{}{
		"index":   index,
		"indexed": out.Indexed,
	})
	return out, nil
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
