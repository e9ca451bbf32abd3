// Package config loads the pipeline's process configuration from a TOML
// file with PIPELINE_<SECTION>_<KEY> environment overrides, the way the
// teacher plugin loads its own configuration object and validates it in
// IsValid() before the rest of the system trusts it (server/configuration.go).
// Unlike the teacher, which is handed an already-decoded struct by the
// Mattermost host, this package owns decoding, so it can reject unknown
// keys outright (§9: configuration is a closed record).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the full process configuration, one section per pipeline
// concern. Every field here has a corresponding TOML key and an
// environment override of the form PIPELINE_<SECTION>_<KEY>.
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	Vault        VaultConfig        `toml:"vault"`
	LLM          LLMConfig          `toml:"llm"`
	DocumentStore DocumentStoreConfig `toml:"document_store"`
	Orchestrator OrchestratorConfig `toml:"orchestrator"`
	Publish      PublishConfig      `toml:"publish"`
	Logging      LoggingConfig      `toml:"logging"`
	RateLimit    RateLimitConfig    `toml:"rate_limit"`
}

type ServerConfig struct {
	ListenAddr   string `toml:"listen_addr"`
	BearerToken  string `toml:"bearer_token"`
}

type DatabaseConfig struct {
	DSN             string `toml:"dsn"`
	MaxConns        int    `toml:"max_conns"`
	MinConns        int    `toml:"min_conns"`
}

type VaultConfig struct {
	Backend        string `toml:"backend"` // envfile | secretsmanager
	EnvFilePath    string `toml:"env_file_path"`
	SecretsRegion  string `toml:"secrets_region"`
	SecretsPrefix  string `toml:"secrets_prefix"`
	CacheTTLSeconds int   `toml:"cache_ttl_seconds"`
}

type LLMConfig struct {
	APIKey            string  `toml:"api_key"`
	Model             string  `toml:"model"`
	MaxTokens         int     `toml:"max_tokens"`
	PerArticleCostCapUSD float64 `toml:"per_article_cost_cap_usd"`
}

type DocumentStoreConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
}

type OrchestratorConfig struct {
	WorkerPoolSize         int `toml:"worker_pool_size"`
	SyncIntervalSeconds    int `toml:"sync_interval_seconds"`
	CarryForwardToleranceChars int `toml:"carry_forward_tolerance_chars"`
	// AutoProcess is intentionally absent here: §9 decides auto-process is
	// never a global switch, only the per-item WorklistItem.AutoProcessFlag.
}

type PublishConfig struct {
	DefaultProvider    string `toml:"default_provider"`
	MaxAttempts        int    `toml:"max_attempts"`
	ScreenshotDir      string `toml:"screenshot_dir"`
	ScreenshotRetentionDays int `toml:"screenshot_retention_days"` // 0 = indefinite, §9
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// Load decodes path strictly (unknown keys are an error), applies
// PIPELINE_* environment overrides, fills documented defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrap(err, "decode config file")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("unrecognized config keys: %v", undecoded)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

func applyDefaults(c *Config) {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Vault.CacheTTLSeconds == 0 {
		c.Vault.CacheTTLSeconds = 300
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "claude-sonnet-4-5"
	}
	if c.Orchestrator.WorkerPoolSize == 0 {
		c.Orchestrator.WorkerPoolSize = 4
	}
	if c.Orchestrator.SyncIntervalSeconds == 0 {
		c.Orchestrator.SyncIntervalSeconds = 300
	}
	if c.Orchestrator.CarryForwardToleranceChars == 0 {
		c.Orchestrator.CarryForwardToleranceChars = 20
	}
	if c.Publish.DefaultProvider == "" {
		c.Publish.DefaultProvider = "hybrid"
	}
	if c.Publish.MaxAttempts == 0 {
		c.Publish.MaxAttempts = 3
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 100
	}
}

// Validate checks required fields and well-formedness, mirroring the
// shape of the teacher's configuration.IsValid().
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database DSN is required")
	}
	if c.Vault.Backend != "envfile" && c.Vault.Backend != "secretsmanager" {
		return errors.Errorf("vault backend must be envfile or secretsmanager, got %q", c.Vault.Backend)
	}
	if c.Orchestrator.WorkerPoolSize < 1 {
		return errors.New("orchestrator worker pool size must be at least 1")
	}
	switch c.Publish.DefaultProvider {
	case "playwright", "computer_use", "hybrid":
	default:
		return errors.Errorf("publish default provider must be playwright, computer_use or hybrid, got %q", c.Publish.DefaultProvider)
	}
	return nil
}

// applyEnvOverrides walks PIPELINE_<SECTION>_<KEY> and writes any present
// string/int/float values over the decoded config. Only the fields actually
// named below are overridable; unrecognized env vars are ignored (they are
// not part of the closed record enforced at decode time).
func applyEnvOverrides(c *Config) {
	str := func(env string, dst *string) {
		if v, ok := os.LookupEnv(env); ok {
			*dst = v
		}
	}
	num := func(env string, dst *int) {
		if v, ok := os.LookupEnv(env); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	flt := func(env string, dst *float64) {
		if v, ok := os.LookupEnv(env); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	str("PIPELINE_SERVER_LISTEN_ADDR", &c.Server.ListenAddr)
	str("PIPELINE_SERVER_BEARER_TOKEN", &c.Server.BearerToken)
	str("PIPELINE_DATABASE_DSN", &c.Database.DSN)
	num("PIPELINE_DATABASE_MAX_CONNS", &c.Database.MaxConns)
	num("PIPELINE_DATABASE_MIN_CONNS", &c.Database.MinConns)
	str("PIPELINE_VAULT_BACKEND", &c.Vault.Backend)
	str("PIPELINE_VAULT_ENV_FILE_PATH", &c.Vault.EnvFilePath)
	str("PIPELINE_VAULT_SECRETS_REGION", &c.Vault.SecretsRegion)
	str("PIPELINE_VAULT_SECRETS_PREFIX", &c.Vault.SecretsPrefix)
	num("PIPELINE_VAULT_CACHE_TTL_SECONDS", &c.Vault.CacheTTLSeconds)
	str("PIPELINE_LLM_API_KEY", &c.LLM.APIKey)
	str("PIPELINE_LLM_MODEL", &c.LLM.Model)
	num("PIPELINE_LLM_MAX_TOKENS", &c.LLM.MaxTokens)
	flt("PIPELINE_LLM_PER_ARTICLE_COST_CAP_USD", &c.LLM.PerArticleCostCapUSD)
	str("PIPELINE_DOCUMENT_STORE_BASE_URL", &c.DocumentStore.BaseURL)
	str("PIPELINE_DOCUMENT_STORE_TOKEN", &c.DocumentStore.Token)
	num("PIPELINE_ORCHESTRATOR_WORKER_POOL_SIZE", &c.Orchestrator.WorkerPoolSize)
	num("PIPELINE_ORCHESTRATOR_SYNC_INTERVAL_SECONDS", &c.Orchestrator.SyncIntervalSeconds)
	num("PIPELINE_ORCHESTRATOR_CARRY_FORWARD_TOLERANCE_CHARS", &c.Orchestrator.CarryForwardToleranceChars)
	str("PIPELINE_PUBLISH_DEFAULT_PROVIDER", &c.Publish.DefaultProvider)
	num("PIPELINE_PUBLISH_MAX_ATTEMPTS", &c.Publish.MaxAttempts)
	str("PIPELINE_PUBLISH_SCREENSHOT_DIR", &c.Publish.ScreenshotDir)
	num("PIPELINE_PUBLISH_SCREENSHOT_RETENTION_DAYS", &c.Publish.ScreenshotRetentionDays)
	str("PIPELINE_LOGGING_LEVEL", &c.Logging.Level)
	str("PIPELINE_LOGGING_FORMAT", &c.Logging.Format)
	num("PIPELINE_RATE_LIMIT_REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)
}

// sectionKeyEnv documents the naming scheme for operators; kept here rather
// than in a README since it is the authoritative list applyEnvOverrides
// implements.
func sectionKeyEnv(section, key string) string {
	return fmt.Sprintf("PIPELINE_%s_%s", strings.ToUpper(section), strings.ToUpper(key))
}
