// internal/workers/export/publish-results/handler.go
package publishresults

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "agentkit-workers/internal/common/errors"
	"agentkit-workers/internal/common/logger"
	"agentkit-workers/internal/common/metrics"
	"agentkit-workers/internal/common/validation"
	"agentkit-workers/pkg/registry"
)

const TaskType = "publish-results"

// Publisher sends one message to a topic and returns its id.
type Publisher interface {
	PublishMessage(ctx context.Context, topicARN, subject, message string) (string, error)
}

type Handler struct {
	config       *Config
	publisher    Publisher
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, publisher Publisher, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		publisher:    publisher,
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

// execute publishes one message per successful result. Failed results are skipped.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	topic := input.TopicARN
	if topic == "" {
		topic = h.config.TopicARN
	}
	if topic == "" {
		return nil, apperrors.NewConfigurationMissingError("notifications.sns.topic_arn", "NOTIFICATIONS_SNS_TOPIC_ARN")
	}
	subject := input.Subject
	if subject == "" {
		subject = h.config.Subject
	}

	out := &Output{MessageIDs: []string{}}
	for _, r := range input.Results {
		if !r.OK() {
			continue
		}
		if r.Index < 0 || r.Index >= len(input.Records) {
			return nil, apperrors.NewInvalidInputError("result index out of range")
		}
		rec := input.Records[r.Index]

		body, err := json.Marshal(Message{
			RecordID: rec.ID,
			AuthorID: rec.AuthorID,
			Text:     rec.Text,
			Summary:  r.Text,
		})
		if err != nil {
			return nil, apperrors.NewPublishFailedError(topic, err)
		}

		id, err := h.publisher.PublishMessage(ctx, topic, subject, string(body))
		if err != nil {
			h.logger.Error("failed to publish result", map[string]interface{}{
				"topic":    topic,
				"recordId": rec.ID,
				"error":    err.Error(),
			})
			return nil, apperrors.NewPublishFailedError(topic, err)
		}
		out.MessageIDs = append(out.MessageIDs, id)
		out.Published++
	}

	h.logger.Info("published results", map[string]interface{}{
		"topic":     topic,
		"published": out.Published,
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
