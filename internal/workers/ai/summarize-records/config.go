// internal/workers/ai/summarize-records/config.go
package summarizerecords

import (
	"time"

	"agentkit-workers/internal/common/config"
	"agentkit-workers/internal/common/prompt"
)

type Config struct {
	Timeout         time.Duration
	Temperature     float64
	DefaultTemplate string
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:         config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
		Temperature:     cfg.GenAI.Temperature,
		DefaultTemplate: prompt.TweetSummary,
	}
}
