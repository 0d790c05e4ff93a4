// internal/workers/wallet/create-wallet/config.go
package createwallet

import (
	"time"

	"agentkit-workers/internal/common/config"
)

type Config struct {
	NetworkID      string
	SeedFile       string
	SeedPassphrase string
	Timeout        time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		NetworkID:      cfg.CDP.NetworkID,
		SeedFile:       cfg.CDP.SeedFile,
		SeedPassphrase: cfg.CDP.SeedPassphrase,
		Timeout:        config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
	}
}
