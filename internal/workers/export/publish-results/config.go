// internal/workers/export/publish-results/config.go
package publishresults

import (
	"time"

	"agentkit-workers/internal/common/config"
)

type Config struct {
	TopicARN string
	Subject  string
	Timeout  time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		TopicARN: cfg.Notifications.SNS.TopicARN,
		Subject:  "agentkit tweet summary",
		Timeout:  config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
	}
}
