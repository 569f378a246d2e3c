package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv unsets every override the tests could pick up from the machine.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, e := range []string{
		"COMPANYDASH_SESSION_REDIS_URL", "REDIS_URL", "COMPANYDASH_SERVER_PORT",
		"COMPANYDASH_SESSION_STORE", "COMPANYDASH_LOGGING_LEVEL",
	} {
		t.Setenv(e, "")
		os.Unsetenv(e)
	}
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host: got %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 60*time.Second {
		t.Errorf("Server.RequestTimeout: got %v, want 60s", cfg.Server.RequestTimeout)
	}
	if cfg.Provider.BaseURL != "https://query1.finance.yahoo.com" {
		t.Errorf("Provider.BaseURL: got %q", cfg.Provider.BaseURL)
	}
	if cfg.Provider.Timeout != 15*time.Second {
		t.Errorf("Provider.Timeout: got %v, want 15s", cfg.Provider.Timeout)
	}
	if !cfg.Session.Enabled || cfg.Session.Store != "memory" {
		t.Errorf("Session: got enabled=%v store=%q, want enabled memory", cfg.Session.Enabled, cfg.Session.Store)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("Session.TTL: got %v, want 30m", cfg.Session.TTL)
	}
	if !cfg.Engine.IncludeNTM || !cfg.Engine.IncludeLTM || !cfg.Engine.DeriveEBITDA {
		t.Errorf("Engine: got %+v, want every capability on", cfg.Engine)
	}
	if cfg.Export.Periods != 5 {
		t.Errorf("Export.Periods: got %d, want 5", cfg.Export.Periods)
	}
	if cfg.News.Limit != 8 {
		t.Errorf("News.Limit: got %d, want 8", cfg.News.Limit)
	}
	if cfg.Dashboard.DefaultRange != "5y" || cfg.Dashboard.DefaultView != "annual" {
		t.Errorf("Dashboard: got range=%q view=%q", cfg.Dashboard.DefaultRange, cfg.Dashboard.DefaultView)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("COMPANYDASH_SERVER_PORT", "9191")
	t.Setenv("COMPANYDASH_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port: got %d, want 9191", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("COMPANYDASH_SERVER_PORT=7070\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("COMPANYDASH_SERVER_PORT") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port: got %d, want 7070", cfg.Server.Port)
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
server:
  port: 9090
  request_timeout: 5s
provider:
  base_url: "http://localhost:1234"
session:
  store: "redis"
  redis_url: "redis://:hunter2@localhost:6379/0"
  ttl: 10m
engine:
  include_ntm: false
  derive_ebitda: true
export:
  periods: 3
news:
  enabled: false
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Errorf("Server.RequestTimeout: got %v, want 5s", cfg.Server.RequestTimeout)
	}
	if cfg.Provider.BaseURL != "http://localhost:1234" {
		t.Errorf("Provider.BaseURL: got %q", cfg.Provider.BaseURL)
	}
	if cfg.Session.Store != "redis" || cfg.Session.TTL != 10*time.Minute {
		t.Errorf("Session: got store=%q ttl=%v", cfg.Session.Store, cfg.Session.TTL)
	}
	if cfg.Engine.IncludeNTM || !cfg.Engine.IncludeLTM || !cfg.Engine.DeriveEBITDA {
		t.Errorf("Engine: got %+v", cfg.Engine)
	}
	if cfg.Export.Periods != 3 {
		t.Errorf("Export.Periods: got %d, want 3", cfg.Export.Periods)
	}
	if cfg.News.Enabled {
		t.Error("News.Enabled should be false")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── Validate ──

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:    ServerConfig{Port: 8080},
			Session:   SessionConfig{Store: "memory"},
			Export:    ExportConfig{Periods: 5},
			Dashboard: DashboardConfig{DetailPeriods: 5},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"redis without url", func(c *Config) { c.Session.Store = "redis" }, true},
		{"redis with url", func(c *Config) { c.Session.Store = "redis"; c.Session.RedisURL = "redis://localhost:6379" }, false},
		{"unknown store", func(c *Config) { c.Session.Store = "disk" }, true},
		{"zero export periods", func(c *Config) { c.Export.Periods = 0 }, true},
		{"zero detail periods", func(c *Config) { c.Dashboard.DetailPeriods = 0 }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate(): got err=%v, wantErr=%v", err, tc.wantErr)
			}
		})
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMPANYDASH_SESSION_REDIS_URL", "redis://primary:6379")
	t.Setenv("REDIS_URL", "redis://fallback:6379")

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.Session.RedisURL != "redis://primary:6379" {
		t.Errorf("RedisURL: got %q", cfg.Session.RedisURL)
	}
}

func TestOverrideFromEnvFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_URL", "redis://fallback:6379")

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.Session.RedisURL != "redis://fallback:6379" {
		t.Errorf("RedisURL: got %q", cfg.Session.RedisURL)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearEnv(t)

	cfg := &Config{Session: SessionConfig{RedisURL: "from-config"}}
	overrideFromEnv(cfg)

	if cfg.Session.RedisURL != "from-config" {
		t.Errorf("RedisURL should stay as 'from-config' when env is unset, got %q", cfg.Session.RedisURL)
	}
}

// ── maskKey / maskURL ──

func TestMaskKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
		{"123456789", "123...789"},
		{"ABCDEFGHIJKLMNOP", "ABC...NOP"},
	}
	for _, tc := range tests {
		if got := maskKey(tc.input); got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestMaskURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"redis://:hunter2@cache:6379/0", "redis://:xxxxx@cache:6379/0"},
		{"redis://cache:6379", "redis://cache:6379"},
		{"not a url at all", "not...all"},
	}
	for _, tc := range tests {
		if got := maskURL(tc.input); got != tc.want {
			t.Errorf("maskURL(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckSecrets ──

func TestCheckSecretsEmpty(t *testing.T) {
	clearEnv(t)

	statuses := CheckSecrets(&Config{})
	if len(statuses) != 1 {
		t.Fatalf("CheckSecrets: got %d statuses, want 1", len(statuses))
	}
	if statuses[0].IsSet || statuses[0].Source != SourceNone {
		t.Errorf("Redis URL: got %+v, want unset", statuses[0])
	}
}

func TestCheckSecretsSource(t *testing.T) {
	clearEnv(t)

	cfg := &Config{Session: SessionConfig{RedisURL: "redis://:pw123456@cache:6379"}}
	s := CheckSecrets(cfg)[0]
	if s.Source != SourceConfig {
		t.Errorf("Source: got %q, want %q", s.Source, SourceConfig)
	}
	if s.Masked != "redis://:xxxxx@cache:6379" {
		t.Errorf("Masked: got %q", s.Masked)
	}

	t.Setenv("REDIS_URL", cfg.Session.RedisURL)
	if s := CheckSecrets(cfg)[0]; s.Source != SourceEnv {
		t.Errorf("Source: got %q, want %q", s.Source, SourceEnv)
	}
}

// ── homeDir ──

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() should not return empty string")
	}
}
