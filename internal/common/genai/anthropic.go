// internal/common/genai/anthropic.go
package genai

import (
	"context"
	"errors"
	"strings"
	"time"

	httpclient "agentkit-workers/internal/common/http"
)

const (
	defaultAnthropicModel     = "claude-3-5-haiku-latest"
	defaultAnthropicMaxTokens = 1024
	anthropicVersion          = "2023-06-01"
)

type AnthropicProvider struct {
	client    *httpclient.Client
	apiKey    string
	model     string
	maxTokens int
}

func NewAnthropicProvider(cfg Config) *AnthropicProvider {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.anthropic.com"
	}
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicProvider{
		client:    httpclient.NewClientWithBaseURL(apiURL, cfg.Timeout),
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: maxTokens,
	}
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Complete(ctx context.Context, prompt string, temperature float64) (text string, err error) {
	start := time.Now()
	defer func() { observe(p.Name(), start, err) }()

	// The messages API caps temperature at 1.
	if temperature > 1 {
		temperature = 1
	}

	var out anthropicResponse
	resp, err := p.client.R(ctx).
		SetHeader("X-API-Key", p.apiKey).
		SetHeader("Anthropic-Version", anthropicVersion).
		SetBody(anthropicRequest{
			Model:       p.model,
			MaxTokens:   p.maxTokens,
			Temperature: temperature,
			Messages:    []message{{Role: "user", Content: prompt}},
		}).
		SetResult(&out).
		Post("/v1/messages")
	if err := httpclient.CheckResponse(resp, err); err != nil {
		return "", classify(p.Name(), err)
	}

	var sb strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", classify(p.Name(), errors.New("empty completion"))
	}
	return strings.TrimSpace(sb.String()), nil
}
