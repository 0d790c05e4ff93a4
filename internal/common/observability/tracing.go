// internal/common/observability/tracing.go
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewOTLPSpanProcessor batches spans to an OTLP/HTTP collector such as Jaeger.
// endpoint is the full traces URL, e.g. http://localhost:4318/v1/traces.
func NewOTLPSpanProcessor(ctx context.Context, endpoint string) (sdktrace.SpanProcessor, error) {
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, fmt.Errorf("create otlp trace exporter: %w", err)
	}
	return sdktrace.NewBatchSpanProcessor(exporter), nil
}
