// internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	apperrors "agentkit-workers/internal/common/errors"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Twitter       TwitterConfig           `mapstructure:"twitter"`
	GenAI         GenAIConfig             `mapstructure:"genai"`
	CDP           CDPConfig               `mapstructure:"cdp"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Export        ExportConfig            `mapstructure:"export"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress string `mapstructure:"broker_address"`
	HealthAddr    string `mapstructure:"health_addr"`
}

// TwitterConfig configures the recent-search API.
type TwitterConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	BearerToken string `mapstructure:"bearer_token"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds
}

// GenAIConfig configures the text-generation provider.
type GenAIConfig struct {
	Provider    string  `mapstructure:"provider"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
}

// CDPConfig holds the wallet/contract credentials and chain settings.
type CDPConfig struct {
	APIKeyName     string `mapstructure:"api_key_name"`
	PrivateKey     string `mapstructure:"private_key"`
	BaseURL        string `mapstructure:"base_url"`
	NetworkID      string `mapstructure:"network_id"`
	RPCURL         string `mapstructure:"rpc_url"`
	ChainID        int64  `mapstructure:"chain_id"`
	SeedFile       string `mapstructure:"seed_file"`
	SeedPassphrase string `mapstructure:"seed_passphrase"`
	Timeout        int    `mapstructure:"timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Enabled reports whether a ledger database is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != "" && p.Database != ""
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

func (e ElasticsearchConfig) Enabled() bool {
	return len(e.Addresses) > 0
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ExportConfig controls the tabular emission step.
type ExportConfig struct {
	Path string `mapstructure:"path"`
}

type NotificationConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// WorkerConfig holds the settings applicable to every Zeebe job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ObservabilityConfig struct {
	Tracing TracingConfig `mapstructure:"tracing"`
}

// TracingConfig points job spans at an OTLP/HTTP collector. Empty endpoint keeps
// spans in process.
type TracingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// RequireSearch checks the credentials needed before any search call.
func (c *Config) RequireSearch() error {
	if strings.TrimSpace(c.Twitter.BearerToken) == "" {
		return apperrors.NewConfigurationMissingError("twitter.bearer_token", "TWITTER_BEARER_TOKEN")
	}
	return nil
}

// RequireGenAI checks the credentials needed before any generation call.
func (c *Config) RequireGenAI() error {
	if strings.TrimSpace(c.GenAI.APIKey) == "" && c.GenAI.Provider != "ollama" {
		return apperrors.NewConfigurationMissingError("genai.api_key", "GENAI_API_KEY")
	}
	return nil
}

// RequireCDP checks the credential pair used to authenticate wallet API calls.
func (c *Config) RequireCDP() error {
	if strings.TrimSpace(c.CDP.APIKeyName) == "" {
		return apperrors.NewConfigurationMissingError("cdp.api_key_name", "CDP_API_KEY_NAME")
	}
	if strings.TrimSpace(c.CDP.PrivateKey) == "" {
		return apperrors.NewConfigurationMissingError("cdp.private_key", "CDP_PRIVATE_KEY")
	}
	return nil
}

// RequireChain checks what contract invocation needs on top of RequireCDP.
func (c *Config) RequireChain() error {
	if err := c.RequireCDP(); err != nil {
		return err
	}
	if strings.TrimSpace(c.CDP.RPCURL) == "" {
		return apperrors.NewConfigurationMissingError("cdp.rpc_url", "CDP_RPC_URL")
	}
	if c.CDP.ChainID <= 0 {
		return apperrors.NewConfigurationInvalidError("cdp.chain_id must be a positive integer")
	}
	return nil
}

// RequireWalletRegistry checks that a wallet registry is reachable by address.
func (c *Config) RequireWalletRegistry() error {
	if strings.TrimSpace(c.Database.Redis.Address) == "" {
		return apperrors.NewConfigurationMissingError("database.redis.address", "DATABASE_REDIS_ADDRESS")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults.
func GetWorkerConfig(cfg *Config, taskType string) WorkerConfig {
	if w, ok := cfg.Workers[taskType]; ok {
		return w
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
	}
}
