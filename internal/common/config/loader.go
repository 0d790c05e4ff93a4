// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// secretBindings ties secret keys to their environment variables. Secrets are never
// given defaults, so they are bound explicitly to be visible to Unmarshal.
var secretBindings = map[string][]string{
	"twitter.bearer_token":            {"TWITTER_BEARER_TOKEN"},
	"genai.api_key":                   {"GENAI_API_KEY", "OPENAI_API_KEY"},
	"cdp.api_key_name":                {"CDP_API_KEY_NAME"},
	"cdp.private_key":                 {"CDP_PRIVATE_KEY"},
	"cdp.seed_passphrase":             {"CDP_SEED_PASSPHRASE"},
	"database.postgres.password":      {"DATABASE_POSTGRES_PASSWORD", "DB_PASSWORD"},
	"database.redis.password":         {"DATABASE_REDIS_PASSWORD"},
	"database.elasticsearch.password": {"DATABASE_ELASTICSEARCH_PASSWORD"},
}

// Load reads configs/config.yaml (or the given path), merges the environment-specific
// overlay and applies environment overrides. A missing default config file is not an
// error; a missing explicit path is.
func Load(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	for key, envs := range secretBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading base config: %w", err)
			}
		}

		env := os.Getenv("APP_ENVIRONMENT")
		if env == "" {
			env = "development"
		}
		v.SetConfigName("config." + env)
		_ = v.MergeInConfig()
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	candidates := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "agentkit")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")
	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("camunda.health_addr", ":8080")

	v.SetDefault("twitter.base_url", "https://api.twitter.com")
	v.SetDefault("twitter.timeout", 10000)

	v.SetDefault("genai.provider", "openai")
	v.SetDefault("genai.base_url", "")
	v.SetDefault("genai.model", "")
	v.SetDefault("genai.temperature", 0.7)
	v.SetDefault("genai.max_tokens", 500)
	v.SetDefault("genai.timeout", 60000)

	v.SetDefault("cdp.base_url", "https://api.cdp.coinbase.com/platform")
	v.SetDefault("cdp.network_id", "base-sepolia")
	v.SetDefault("cdp.rpc_url", "")
	v.SetDefault("cdp.chain_id", 84532)
	v.SetDefault("cdp.seed_file", "wallet_seed.json")
	v.SetDefault("cdp.timeout", 120000)

	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "")
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.elasticsearch.addresses", []string{})
	v.SetDefault("database.elasticsearch.username", "")
	v.SetDefault("database.elasticsearch.index", "agentkit-records")
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("export.path", "tweets.csv")
	v.SetDefault("notifications.sns.enabled", false)
	v.SetDefault("notifications.sns.region", "us-east-1")
	v.SetDefault("notifications.sns.topic_arn", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("observability.tracing.endpoint", "")
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Postgres().MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 5
	}
	if cfg.Postgres().MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Workers == nil {
		cfg.Workers = make(map[string]WorkerConfig)
	}
	for key, w := range cfg.Workers {
		if w.MaxJobsActive == 0 {
			w.MaxJobsActive = 5
		}
		if w.Timeout == 0 {
			w.Timeout = 30000
		}
		cfg.Workers[key] = w
	}
}

// Postgres is a shorthand for the ledger database settings.
func (c *Config) Postgres() PostgresConfig {
	return c.Database.Postgres
}

// normalize rewrites values that arrive in transport-friendly forms.
func normalize(cfg *Config) {
	cfg.CDP.PrivateKey = NormalizePrivateKey(cfg.CDP.PrivateKey)
	cfg.Twitter.BaseURL = strings.TrimRight(cfg.Twitter.BaseURL, "/")
	cfg.CDP.BaseURL = strings.TrimRight(cfg.CDP.BaseURL, "/")
	cfg.GenAI.Provider = strings.ToLower(strings.TrimSpace(cfg.GenAI.Provider))
}

// NormalizePrivateKey turns literal backslash-n sequences into line breaks, which is
// how PEM keys survive single-line environment variables.
func NormalizePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

// validateConfig checks values that must be well-formed whenever they are set.
// Missing credentials are reported later by the Require* checks of the command that
// needs them.
func validateConfig(cfg *Config) error {
	if cfg.GenAI.Temperature < 0 || cfg.GenAI.Temperature > 2 {
		return fmt.Errorf("genai.temperature must be within [0, 2], got %v", cfg.GenAI.Temperature)
	}
	switch cfg.GenAI.Provider {
	case "openai", "anthropic", "ollama":
	default:
		return fmt.Errorf("genai.provider %q is not supported (valid: openai, anthropic, ollama)", cfg.GenAI.Provider)
	}
	if cfg.Twitter.Timeout <= 0 || cfg.GenAI.Timeout <= 0 || cfg.CDP.Timeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if cfg.Notifications.SNS.Enabled && cfg.Notifications.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required when sns is enabled")
	}
	return nil
}
