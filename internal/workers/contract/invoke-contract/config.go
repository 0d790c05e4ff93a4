// internal/workers/contract/invoke-contract/config.go
package invokecontract

import (
	"time"

	"agentkit-workers/internal/common/config"
)

type Config struct {
	SeedFile       string
	SeedPassphrase string
	Timeout        time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		SeedFile:       cfg.CDP.SeedFile,
		SeedPassphrase: cfg.CDP.SeedPassphrase,
		Timeout:        config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
	}
}
