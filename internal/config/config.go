// Package config handles configuration loading for companydash.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seenimoa/companydash/internal/metrics"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COMPANYDASH"

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig         `mapstructure:"server"    yaml:"server"`
	Provider  ProviderConfig       `mapstructure:"provider"  yaml:"provider"`
	Session   SessionConfig        `mapstructure:"session"   yaml:"session"`
	Engine    metrics.Capabilities `mapstructure:"engine"    yaml:"engine"`
	Export    ExportConfig         `mapstructure:"export"    yaml:"export"`
	News      NewsConfig           `mapstructure:"news"      yaml:"news"`
	Dashboard DashboardConfig      `mapstructure:"dashboard" yaml:"dashboard"`
	Logging   LoggingConfig        `mapstructure:"logging"   yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `mapstructure:"host"            yaml:"host"`
	Port           int           `mapstructure:"port"            yaml:"port"`
	CORSOrigins    []string      `mapstructure:"cors_origins"    yaml:"cors_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ProviderConfig holds Yahoo Finance client settings.
type ProviderConfig struct {
	Name      string        `mapstructure:"name"       yaml:"name"` // registered source name
	BaseURL   string        `mapstructure:"base_url"   yaml:"base_url"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"    yaml:"timeout"`
}

// SessionConfig controls the per-session fetch memo.
type SessionConfig struct {
	Enabled  bool          `mapstructure:"enabled"   yaml:"enabled"`
	TTL      time.Duration `mapstructure:"ttl"       yaml:"ttl"`
	Store    string        `mapstructure:"store"     yaml:"store"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url"`
}

// ExportConfig holds workbook export settings.
type ExportConfig struct {
	Periods int    `mapstructure:"periods" yaml:"periods"`
	OutDir  string `mapstructure:"out_dir" yaml:"out_dir"`
}

// NewsConfig holds headline feed settings.
type NewsConfig struct {
	Enabled bool   `mapstructure:"enabled"  yaml:"enabled"`
	FeedURL string `mapstructure:"feed_url" yaml:"feed_url"` // %s is replaced by the ticker
	Limit   int    `mapstructure:"limit"    yaml:"limit"`
}

// DashboardConfig holds dashboard defaults.
type DashboardConfig struct {
	DefaultTicker string `mapstructure:"default_ticker" yaml:"default_ticker"`
	DefaultRange  string `mapstructure:"default_range"  yaml:"default_range"`
	DefaultView   string `mapstructure:"default_view"   yaml:"default_view"`
	DetailPeriods int    `mapstructure:"detail_periods" yaml:"detail_periods"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.companydash/config.yaml (home directory)
//  3. /etc/companydash/config.yaml (system)
//
// A .env file in the working directory is loaded first when present.
// Environment variables override config file values.
// Format: COMPANYDASH_<SECTION>_<KEY>, e.g., COMPANYDASH_SERVER_PORT
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".companydash"))
	v.AddConfigPath("/etc/companydash")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file: defaults + env vars.
	}
	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:8080"})
	v.SetDefault("server.request_timeout", 60*time.Second)

	v.SetDefault("provider.name", "yfinance")
	v.SetDefault("provider.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("provider.user_agent", "Mozilla/5.0 (compatible; companydash/1.0)")
	v.SetDefault("provider.timeout", 15*time.Second)

	v.SetDefault("session.enabled", true)
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.redis_url", "")

	caps := metrics.DefaultCapabilities()
	v.SetDefault("engine.include_ntm", caps.IncludeNTM)
	v.SetDefault("engine.include_ltm", caps.IncludeLTM)
	v.SetDefault("engine.derive_ebitda", caps.DeriveEBITDA)

	v.SetDefault("export.periods", 5)
	v.SetDefault("export.out_dir", ".")

	v.SetDefault("news.enabled", true)
	v.SetDefault("news.feed_url", "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US")
	v.SetDefault("news.limit", 8)

	v.SetDefault("dashboard.default_ticker", "AAPL")
	v.SetDefault("dashboard.default_range", "5y")
	v.SetDefault("dashboard.default_view", "annual")
	v.SetDefault("dashboard.detail_periods", 5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads secret-bearing keys from the environment.
func overrideFromEnv(cfg *Config) {
	if url := os.Getenv(EnvPrefix + "_SESSION_REDIS_URL"); url != "" {
		cfg.Session.RedisURL = url
	}
	if url := os.Getenv("REDIS_URL"); url != "" && cfg.Session.RedisURL == "" {
		cfg.Session.RedisURL = url
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Session.RedisURL == "" {
			return errors.New("session.store is redis but session.redis_url is empty")
		}
	default:
		return fmt.Errorf("unknown session.store %q (want memory or redis)", c.Session.Store)
	}
	if c.Export.Periods <= 0 {
		return fmt.Errorf("export.periods must be positive, got %d", c.Export.Periods)
	}
	if c.Dashboard.DetailPeriods <= 0 {
		return fmt.Errorf("dashboard.detail_periods must be positive, got %d", c.Dashboard.DetailPeriods)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
