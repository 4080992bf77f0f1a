package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Providers    ProvidersConfig    `yaml:"providers" mapstructure:"providers"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" mapstructure:"orchestrator"`
	Catalog      CatalogConfig      `yaml:"catalog" mapstructure:"catalog"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// ProviderConfig holds the settings for one generation provider.
type ProviderConfig struct {
	Enabled        bool    `yaml:"enabled" mapstructure:"enabled"`
	Key            string  `yaml:"key" mapstructure:"key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	Model          string  `yaml:"model" mapstructure:"model"`
	MaxTokens      int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature    float64 `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerMin int     `yaml:"requests_per_min" mapstructure:"requests_per_min"`
}

// ProvidersConfig holds per-provider settings plus the primary provider
// used when a wildcard request is expanded.
type ProvidersConfig struct {
	Primary  string         `yaml:"primary" mapstructure:"primary"`
	Claude   ProviderConfig `yaml:"claude" mapstructure:"claude"`
	OpenAI   ProviderConfig `yaml:"openai" mapstructure:"openai"`
	DeepSeek ProviderConfig `yaml:"deepseek" mapstructure:"deepseek"`
}

// ByName returns the provider settings keyed by canonical provider name, in
// declaration order.
func (p *ProvidersConfig) ByName() []NamedProvider {
	return []NamedProvider{
		{Name: "claude", Config: p.Claude},
		{Name: "openai", Config: p.OpenAI},
		{Name: "deepseek", Config: p.DeepSeek},
	}
}

// NamedProvider pairs a provider name with its settings.
type NamedProvider struct {
	Name   string
	Config ProviderConfig
}

// OrchestratorConfig tunes the fan-out core.
type OrchestratorConfig struct {
	// TimeoutSecs bounds each individual provider call.
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	// RetryAttempts is the total attempts per provider call, retrying only
	// timeout-class failures. 1 disables retries.
	RetryAttempts int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// CatalogConfig configures the template catalog.
type CatalogConfig struct {
	// SeedFile optionally points at a YAML file of additional built-in
	// templates loaded at startup.
	SeedFile string `yaml:"seed_file" mapstructure:"seed_file"`
}

// StoreConfig configures generation-history persistence. An empty driver
// disables history.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STRATGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("providers.primary", "claude")
	v.SetDefault("providers.claude.enabled", true)
	v.SetDefault("providers.claude.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("providers.claude.max_tokens", 4096)
	v.SetDefault("providers.claude.temperature", 0.2)
	v.SetDefault("providers.claude.requests_per_min", 60)
	v.SetDefault("providers.openai.enabled", true)
	v.SetDefault("providers.openai.model", "gpt-4o")
	v.SetDefault("providers.openai.max_tokens", 4096)
	v.SetDefault("providers.openai.temperature", 0.2)
	v.SetDefault("providers.openai.requests_per_min", 60)
	v.SetDefault("providers.deepseek.enabled", true)
	v.SetDefault("providers.deepseek.base_url", "https://api.deepseek.com")
	v.SetDefault("providers.deepseek.model", "deepseek-chat")
	v.SetDefault("providers.deepseek.max_tokens", 4096)
	v.SetDefault("providers.deepseek.temperature", 0.2)
	v.SetDefault("providers.deepseek.requests_per_min", 60)
	v.SetDefault("orchestrator.timeout_secs", 30)
	v.SetDefault("orchestrator.retry_attempts", 1)
	v.SetDefault("store.driver", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate enforces startup invariants. An enabled provider without a
// credential is a fatal configuration error; it must never surface later as
// a per-request failure.
func (c *Config) Validate() error {
	for _, np := range c.Providers.ByName() {
		if np.Config.Enabled && np.Config.Key == "" {
			return eris.Errorf("config: provider %q is enabled but has no api key", np.Name)
		}
	}

	primary := strings.ToLower(c.Providers.Primary)
	known := false
	for _, np := range c.Providers.ByName() {
		if np.Name == primary {
			known = true
			break
		}
	}
	if !known {
		return eris.Errorf("config: unknown primary provider %q", c.Providers.Primary)
	}

	switch c.Store.Driver {
	case "", "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver != "" && c.Store.DatabaseURL == "" {
		return eris.New("config: store driver set but database_url is empty")
	}

	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
