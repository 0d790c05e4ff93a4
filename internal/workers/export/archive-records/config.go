// internal/workers/export/archive-records/config.go
package archiverecords

import (
	"time"

	"agentkit-workers/internal/common/config"
)

type Config struct {
	Index   string
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Index:   cfg.Database.Elasticsearch.Index,
		Timeout: config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
	}
}
