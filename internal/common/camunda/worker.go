// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"

	"agentkit-workers/internal/common/config"
	"agentkit-workers/internal/common/metrics"
	"agentkit-workers/internal/common/observability"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
}

// JobHandler completes or fails the job itself.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   Logger
	taskType string
}

// StartWorker opens a job worker for taskType unless it is disabled. It returns nil
// for a disabled worker.
func StartWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler JobHandler,
	obs *observability.Observability,
	log Logger,
) *CamundaWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, obs, handler.Handle)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})

	return &CamundaWorker{
		worker:   jobWorker,
		logger:   log,
		taskType: taskType,
	}
}

// Job outcomes as recorded by Instrument.
const (
	OutcomeCompleted   = "completed"
	OutcomeFailed      = "failed"
	OutcomeErrorThrown = "error_thrown"
	OutcomeUnhandled   = "unhandled"
)

// outcomeClient remembers which command the handler built for its job.
type outcomeClient struct {
	worker.JobClient
	outcome string
}

func (c *outcomeClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.outcome = OutcomeCompleted
	return c.JobClient.NewCompleteJobCommand()
}

func (c *outcomeClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.outcome = OutcomeFailed
	return c.JobClient.NewFailJobCommand()
}

func (c *outcomeClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.outcome = OutcomeErrorThrown
	return c.JobClient.NewThrowErrorCommand()
}

// Instrument wraps a handler with a job span, the active-job gauge and duration
// metrics. Job metrics carry the outcome the handler reported to the broker.
func Instrument(taskType string, obs *observability.Observability, handle worker.JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		_, span := obs.StartJobSpan(context.Background(), taskType, job.Key, job.ProcessInstanceKey)
		defer span.End()

		tracked := &outcomeClient{JobClient: client, outcome: OutcomeUnhandled}
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer func() {
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			elapsed := time.Since(start)
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			span.SetAttributes(attribute.String("outcome", tracked.outcome))
			obs.RecordJobDuration(context.Background(), taskType, elapsed, tracked.outcome)
			obs.RecordJobProcessed(context.Background(), taskType, tracked.outcome)
		}()
		handle(tracked, job)
	}
}

func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
