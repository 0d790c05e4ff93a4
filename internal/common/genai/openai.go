// internal/common/genai/openai.go
package genai

import (
	"context"
	"errors"
	"strings"
	"time"

	httpclient "agentkit-workers/internal/common/http"
)

const defaultOpenAIModel = "gpt-4o-mini"

type OpenAIProvider struct {
	name      string
	client    *httpclient.Client
	apiKey    string
	model     string
	maxTokens int
}

func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{
		name:      "openai",
		client:    httpclient.NewClientWithBaseURL(apiURL, cfg.Timeout),
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: cfg.MaxTokens,
	}
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, temperature float64) (text string, err error) {
	start := time.Now()
	defer func() { observe(p.name, start, err) }()

	req := p.client.R(ctx).
		SetBody(openAIRequest{
			Model:       p.model,
			Messages:    []message{{Role: "user", Content: prompt}},
			Temperature: temperature,
			MaxTokens:   p.maxTokens,
		})
	if p.apiKey != "" {
		req.SetAuthToken(p.apiKey)
	}

	var out openAIResponse
	resp, err := req.SetResult(&out).Post("/chat/completions")
	if err := httpclient.CheckResponse(resp, err); err != nil {
		return "", classify(p.name, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", classify(p.name, errors.New("empty completion"))
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
