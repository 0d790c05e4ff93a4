// Package genai sends single-turn prompts to a text-generation API.
package genai

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "agentkit-workers/internal/common/errors"
	httpclient "agentkit-workers/internal/common/http"
	"agentkit-workers/internal/common/metrics"
)

// Provider completes one prompt. Implementations make exactly one request per call.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

type Config struct {
	Provider  string
	Model     string
	APIKey    string
	APIURL    string
	MaxTokens int
	Timeout   time.Duration
}

func NewProvider(cfg Config) (Provider, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		return NewOpenAIProvider(cfg), nil
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	case "ollama":
		return NewOllamaProvider(cfg), nil
	default:
		return nil, apperrors.NewConfigurationInvalidError(fmt.Sprintf("unknown generation provider %q", cfg.Provider))
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// classify maps a transport or decode failure onto the generation error codes.
func classify(provider string, err error) error {
	if httpclient.IsTimeout(err) {
		return apperrors.NewGenerationTimeoutError(fmt.Errorf("%s: %w", provider, err))
	}
	return apperrors.NewGenerationFailedError(fmt.Errorf("%s: %w", provider, err))
}

// observe records the outcome of one call.
func observe(provider string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.GenerationRequests.WithLabelValues(provider, status).Inc()
	metrics.GenerationDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}
