// internal/common/genai/ollama.go
package genai

import "strings"

const defaultOllamaModel = "llama3.1"

// NewOllamaProvider talks to a local Ollama server through its OpenAI-compatible API.
func NewOllamaProvider(cfg Config) *OpenAIProvider {
	cfgCopy := cfg
	if strings.TrimSpace(cfgCopy.APIURL) == "" {
		cfgCopy.APIURL = "http://localhost:11434/v1"
	}
	if cfgCopy.Model == "" {
		cfgCopy.Model = defaultOllamaModel
	}
	p := NewOpenAIProvider(cfgCopy)
	p.name = "ollama"
	return p
}
