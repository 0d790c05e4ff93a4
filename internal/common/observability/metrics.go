// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability records job and routine metrics through an OpenTelemetry meter
// exported on the Prometheus registry.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	meter          otelmetric.Meter
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	itemCounter    otelmetric.Int64Counter
}

type options struct {
	processors []sdktrace.SpanProcessor
	readers    []metric.Reader
}

// Option configures New.
type Option func(*options)

// WithSpanProcessor attaches a span processor, e.g. an exporter pipeline or a test recorder.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.processors = append(o.processors, sp) }
}

// WithMetricReader adds a reader next to the Prometheus exporter.
func WithMetricReader(r metric.Reader) Option {
	return func(o *options) { o.readers = append(o.readers, r) }
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

// New builds the meter and tracer providers. If the metric exporter cannot be created
// the returned value records nothing.
func New(serviceName string, log Logger, opts ...Option) *Observability {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	exporter, err := prometheus.New()
	if err != nil {
		if log != nil {
			log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err})
		}
		return &Observability{}
	}

	mpOpts := []metric.Option{metric.WithReader(exporter)}
	for _, r := range o.readers {
		mpOpts = append(mpOpts, metric.WithReader(r))
	}
	provider := metric.NewMeterProvider(mpOpts...)
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	itemCounter, _ := meter.Int64Counter(
		"routine.items",
		otelmetric.WithDescription("Items passed through a fetch-transform-emit routine"),
	)

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	}
	for _, sp := range o.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tracerProvider)

	return &Observability{
		meterProvider:  provider,
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
		meter:          meter,
		jobCounter:     jobCounter,
		jobDuration:    jobDuration,
		itemCounter:    itemCounter,
	}
}

// StartJobSpan opens the span covering one job. A nil receiver records nothing, as do
// the Record methods.
func (o *Observability) StartJobSpan(ctx context.Context, taskType string, jobKey, processInstanceKey int64) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, taskType)
	}
	return o.tracer.Start(ctx, taskType,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.Int64("job_key", jobKey),
			attribute.Int64("process_instance_key", processInstanceKey),
		),
	)
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o != nil && o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o != nil && o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

// RecordRoutineItem counts one item of the named routine with its outcome.
func (o *Observability) RecordRoutineItem(ctx context.Context, routine, outcome string) {
	if o != nil && o.itemCounter != nil {
		o.itemCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("routine", routine),
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
