// internal/workers/ai/summarize-records/handler.go
package summarizerecords

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/genai"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/common/metrics"
	"agentkit-workers/internal/common/observability"
	"agentkit-workers/internal/common/prompt"
	"agentkit-workers/internal/common/validation"
	"agentkit-workers/internal/models"
	"agentkit-workers/pkg/registry"
)

const TaskType = "summarize-records"

type Handler struct {
	config       *Config
	provider     genai.Provider
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
	obs          *observability.Observability
}

func NewHandler(config *Config, provider genai.Provider, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		provider:     provider,
		errorHandler: apperrors.NewErrorHandler(l),
		logger:       l,
	}
}

// WithObservability counts every summarized record as ok or failed.
func (h *Handler) WithObservability(obs *observability.Observability) *Handler {
	h.obs = obs
	return h
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

// Prepare resolves the template and checks that every placeholder is bound, either by
// values or by the record text. It makes no remote call.
func (h *Handler) Prepare(templateRef string, values map[string]interface{}) (*prompt.Template, error) {
	if templateRef == "" {
		templateRef = h.config.DefaultTemplate
	}
	tpl, err := prompt.Resolve(templateRef)
	if err != nil {
		return nil, err
	}
	keys := []string{prompt.PlaceholderRecordText}
	for k := range values {
		keys = append(keys, k)
	}
	if err := tpl.Validate(keys); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	tpl, err := h.Prepare(input.Template, input.Values)
	if err != nil {
		return nil, err
	}

	temperature := h.config.Temperature
	if input.Temperature != nil {
		temperature = *input.Temperature
	}

	results := h.generate(ctx, tpl, input.Values, input.Records, temperature)

	out := &Output{Results: results}
	for _, r := range results {
		if r.OK() {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	return out, nil
}

// generate issues one generation call per record, in record order, and returns one
// result per record. A failed call only fills the error of its own slot.
func (h *Handler) generate(ctx context.Context, tpl *prompt.Template, values map[string]interface{}, records []models.RecordItem, temperature float64) []models.GenerationResult {
	results := make([]models.GenerationResult, len(records))
	for i, rec := range records {
		results[i] = models.GenerationResult{Index: i, RecordID: rec.ID}

		bound := make(map[string]interface{}, len(values)+1)
		for k, v := range values {
			bound[k] = v
		}
		bound[prompt.PlaceholderRecordText] = rec.Text

		req := models.GenerationRequest{Template: tpl.Text(), Values: bound}
		text, err := prompt.RenderRequest(req)
		if err == nil {
			text, err = h.provider.Complete(ctx, text, temperature)
		}
		if err != nil {
			h.logger.Warn("generation failed for record", map[string]interface{}{
				"index":     i,
				"recordId":  rec.ID,
				"errorCode": string(apperrors.CodeOf(err)),
				"error":     err.Error(),
			})
			results[i].Error = failureReason(err)
			h.obs.RecordRoutineItem(ctx, TaskType, "failed")
			continue
		}
		results[i].Text = text
		h.obs.RecordRoutineItem(ctx, TaskType, "ok")
	}
	return results
}

// failureReason is never empty, so a failed slot never reads as OK.
func failureReason(err error) string {
	stdErr := apperrors.Normalize(err)
	switch {
	case stdErr.Details != "":
		return stdErr.Details
	case stdErr.Message != "":
		return stdErr.Message
	case stdErr.Code != "":
		return string(stdErr.Code)
	default:
		return "generation failed"
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
