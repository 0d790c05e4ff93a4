// internal/workers/social/fetch-records/config.go
package fetchrecords

import (
	"time"

	"agentkit-workers/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	MaxResults int
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:    config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
		MaxResults: 10,
	}
}
