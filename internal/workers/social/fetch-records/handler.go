// internal/workers/social/fetch-records/handler.go
package fetchrecords

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/common/metrics"
	"agentkit-workers/internal/common/validation"
	"agentkit-workers/internal/models"
	"agentkit-workers/pkg/registry"
)

const TaskType = "fetch-records"

// Searcher runs one search request.
type Searcher interface {
	Search(ctx context.Context, q models.SearchQuery) ([]models.RecordItem, error)
}

type Handler struct {
	config       *Config
	searcher     Searcher
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, searcher Searcher, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		searcher:     searcher,
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

// execute never fails because of the remote: a failed search is logged and reported
// in FetchError next to an empty record list.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	q := models.SearchQuery{
		Query:      input.Query,
		MaxResults: input.MaxResults,
		Fields:     input.Fields,
	}
	if q.MaxResults == 0 {
		q.MaxResults = h.config.MaxResults
	}
	if err := q.Validate(); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	records, err := h.searcher.Search(ctx, q)
	if err != nil {
		h.logger.Warn("failed to fetch tweets", map[string]interface{}{
			"query":     q.Query,
			"errorCode": string(apperrors.CodeOf(err)),
			"error":     err.Error(),
		})
		return &Output{
			Records:    []models.RecordItem{},
			FetchError: FetchErrorMessage(err),
		}, nil
	}
	if records == nil {
		records = []models.RecordItem{}
	}

	metrics.RecordsFetched.Add(float64(len(records)))
	h.logger.Info("fetched records", map[string]interface{}{
		"query": q.Query,
		"count": len(records),
	})

	return &Output{Records: records, Count: len(records)}, nil
}

// FetchErrorMessage renders a search failure for people.
func FetchErrorMessage(err error) string {
	return "Error fetching tweets: " + apperrors.Normalize(err).Details
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
