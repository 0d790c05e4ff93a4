// internal/workers/export/export-tabular/config.go
package exporttabular

import (
	"time"

	"agentkit-workers/internal/common/config"
)

type Config struct {
	Path    string
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Path:    cfg.Export.Path,
		Timeout: config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
	}
}
