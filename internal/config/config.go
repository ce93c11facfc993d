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
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Sync     SyncConfig     `yaml:"sync" mapstructure:"sync"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures POI persistence.
type StoreConfig struct {
	// Driver selects the persistence backend: "sqlite" or "postgres".
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	// Key is the blob key the POI set is stored under.
	Key string `yaml:"key" mapstructure:"key"`
}

// ProviderConfig configures the remote POI provider client.
type ProviderConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig configures name search behavior.
type SearchConfig struct {
	Retries int `yaml:"retries" mapstructure:"retries"`
}

// EnrichConfig holds Anthropic API settings for POI enrichment.
type EnrichConfig struct {
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	Model       string `yaml:"model" mapstructure:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SyncConfig configures the viewport sync engine.
type SyncConfig struct {
	DebounceMS       int  `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	FetchTimeoutSecs int  `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	AssumeOnline     bool `yaml:"assume_online" mapstructure:"assume_online"`
}

// ServerConfig configures the HTTP shell.
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
	v.SetEnvPrefix("SHELTERMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "sheltermap.db")
	v.SetDefault("store.key", "pois")
	v.SetDefault("provider.base_url", "https://api.sheltermap.io")
	v.SetDefault("provider.timeout_secs", 15)
	v.SetDefault("provider.rate_limit", 5.0)
	v.SetDefault("provider.user_agent", "sheltermap/1.0")
	v.SetDefault("search.retries", 1)
	v.SetDefault("enrich.model", "claude-haiku-4-5-20251001")
	v.SetDefault("enrich.timeout_secs", 30)
	v.SetDefault("sync.debounce_ms", 600)
	v.SetDefault("sync.fetch_timeout_secs", 15)
	v.SetDefault("sync.assume_online", true)
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

	return &cfg, nil
}

// Validate checks the configuration required for a given command mode.
// Collected problems are reported together so the operator fixes them in
// one pass.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Sync.DebounceMS < 0 {
			problems = append(problems, "sync.debounce_ms must be >= 0")
		}
		if c.Sync.FetchTimeoutSecs <= 0 {
			problems = append(problems, "sync.fetch_timeout_secs must be > 0")
		}
	case "search", "import", "export", "seed":
		// Store checks above are sufficient.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
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
