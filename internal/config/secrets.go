package config

import (
	"net/url"
	"os"
)

// SecretSource represents where a secret setting comes from.
type SecretSource string

const (
	SourceEnv    SecretSource = "env"
	SourceConfig SecretSource = "config"
	SourceNone   SecretSource = "none"
)

// SecretStatus reports whether a secret-bearing setting is set, without
// revealing it.
type SecretStatus struct {
	Name   string       `json:"name"`
	Source SecretSource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "redis://:xxxxx@host:6379/0"
}

// CheckSecrets returns the status of every secret-bearing setting.
func CheckSecrets(cfg *Config) []SecretStatus {
	redis := checkSecret("Redis URL", cfg.Session.RedisURL, EnvPrefix+"_SESSION_REDIS_URL", "REDIS_URL")
	if redis.IsSet {
		redis.Masked = maskURL(cfg.Session.RedisURL)
	}
	return []SecretStatus{redis}
}

// checkSecret checks if a value is set and where it came from.
func checkSecret(name, value string, envVars ...string) SecretStatus {
	status := SecretStatus{Name: name, IsSet: value != "", Source: SourceNone}
	if value == "" {
		return status
	}
	status.Source = SourceConfig
	for _, env := range envVars {
		if os.Getenv(env) == value {
			status.Source = SourceEnv
			break
		}
	}
	status.Masked = maskKey(value)
	return status
}

// maskURL hides the password of a connection URL. Unparseable values are
// masked like any other key.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return maskKey(raw)
	}
	return u.Redacted()
}

// maskKey masks a secret for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
