// Package config loads estore CLI configuration from ~/.estore/config.yaml
// with environment-variable and flag overrides layered on top.
//
// Precedence, highest first: CLI flag, environment variable, config file,
// built-in default. Flags are applied by the cli package; this package
// resolves the file and environment layers.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults and environment variable names.
const (
	// DefaultBaseURL is the backend address used when nothing is configured.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeoutSeconds bounds a single backend call.
	DefaultTimeoutSeconds = 15

	// DefaultCacheTTLSeconds is the freshness window for product queries.
	// The session probe always revalidates and ignores this value.
	DefaultCacheTTLSeconds = 30

	// EnvBaseURL overrides backend.base_url.
	EnvBaseURL = "ESTORE_BASE_URL"

	// EnvCacheTTLSeconds overrides cache.ttl_seconds.
	EnvCacheTTLSeconds = "ESTORE_CACHE_TTL_SECONDS"

	// EnvLogLevel overrides logging.level.
	EnvLogLevel = "ESTORE_LOG_LEVEL"

	// EnvConfigDir overrides the ~/.estore directory location.
	EnvConfigDir = "ESTORE_CONFIG_DIR"

	configFileName = "config.yaml"
	tokenFileName  = "session"
)

// Config is the root configuration document.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
}

// BackendConfig locates the remote storefront backend.
type BackendConfig struct {
	// BaseURL is the backend root, e.g. "https://shop.example.com".
	BaseURL string `yaml:"base_url"`

	// TimeoutSeconds bounds each RPC call.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// CacheConfig tunes the client-side query cache.
type CacheConfig struct {
	// TTLSeconds is how long product list/detail results stay fresh.
	TTLSeconds int `yaml:"ttl_seconds"`
}

// LoggingConfig mirrors logging.Config in YAML form.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// OutputConfig selects the default rendering for command output.
type OutputConfig struct {
	// DefaultFormat is "table" or "json".
	DefaultFormat string `yaml:"default_format"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        DefaultBaseURL,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Cache: CacheConfig{
			TTLSeconds: DefaultCacheTTLSeconds,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputConfig{
			DefaultFormat: "table",
		},
	}
}

// Load reads the config file (when present) over the defaults, then applies
// environment overrides. A missing file is not an error; a malformed file is.
func Load() (*Config, error) {
	cfg := Default()

	path, err := FilePath()
	if err == nil {
		data, readErr := os.ReadFile(path)
		switch {
		case readErr == nil:
			if yamlErr := yaml.Unmarshal(data, cfg); yamlErr != nil {
				return nil, fmt.Errorf("parse %s: %w", path, yamlErr)
			}
		case !errors.Is(readErr, os.ErrNotExist):
			return nil, fmt.Errorf("read %s: %w", path, readErr)
		}
	}

	applyEnv(cfg)
	cfg.normalize()
	return cfg, nil
}

// Timeout returns the backend call timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// CacheTTL returns the product query freshness window as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// applyEnv layers environment variables over cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv(EnvCacheTTLSeconds); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil && ttl >= 0 {
			cfg.Cache.TTLSeconds = ttl
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
}

// normalize backfills zero values that a sparse config file may have left.
func (c *Config) normalize() {
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = DefaultBaseURL
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Cache.TTLSeconds < 0 {
		c.Cache.TTLSeconds = DefaultCacheTTLSeconds
	}
	if c.Output.DefaultFormat == "" {
		c.Output.DefaultFormat = "table"
	}
}

// Dir returns the estore configuration directory, honoring EnvConfigDir.
func Dir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".estore"), nil
}

// FilePath returns the config file path inside Dir().
func FilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// TokenPath returns the session token file path inside Dir().
func TokenPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tokenFileName), nil
}
