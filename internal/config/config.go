// Package config loads zbook settings from an optional YAML file, a .env
// file and ZBOOK_* environment variables, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StorageVault = "vault"
	StorageRedis = "redis"
)

// Config holds every runtime setting.
type Config struct {
	Env      string       `yaml:"env"`
	LogLevel string       `yaml:"log_level"`
	DataDir  string       `yaml:"data_dir"`
	Storage  string       `yaml:"storage"`
	RedisURL string       `yaml:"redis_url"`
	Lookup   LookupConfig `yaml:"lookup"`
	Serve    ServeConfig  `yaml:"serve"`
}

// LookupConfig configures the address lookup client.
type LookupConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServeConfig configures the mock lookup endpoint.
type ServeConfig struct {
	Addr        string        `yaml:"addr"`
	Delay       time.Duration `yaml:"delay"`
	CORSOrigins []string      `yaml:"cors_origins"`
	RateLimit   float64       `yaml:"rate_limit"`
	RateBurst   int           `yaml:"rate_burst"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Env:      "production",
		LogLevel: "info",
		DataDir:  DataDir(),
		Storage:  StorageVault,
		RedisURL: "redis://localhost:6379/0",
		Lookup: LookupConfig{
			URL:     "http://localhost:3000",
			Timeout: 10 * time.Second,
		},
		Serve: ServeConfig{
			Addr:        ":3000",
			Delay:       500 * time.Millisecond,
			CORSOrigins: []string{"*"},
			RateLimit:   10,
			RateBurst:   20,
		},
	}
}

// Load builds the config. path may be empty, in which case ZBOOK_CONFIG is
// consulted; with neither set no file is read.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("ZBOOK_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() error {
	setString(&c.Env, "ZBOOK_ENV")
	setString(&c.LogLevel, "ZBOOK_LOG_LEVEL")
	setString(&c.DataDir, "ZBOOK_DATA_DIR")
	setString(&c.Storage, "ZBOOK_STORAGE")
	setString(&c.RedisURL, "ZBOOK_REDIS_URL")
	setString(&c.Lookup.URL, "ZBOOK_LOOKUP_URL")
	setString(&c.Serve.Addr, "ZBOOK_SERVE_ADDR")

	if err := setDuration(&c.Lookup.Timeout, "ZBOOK_LOOKUP_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Serve.Delay, "ZBOOK_SERVE_DELAY"); err != nil {
		return err
	}

	if v, ok := os.LookupEnv("ZBOOK_CORS_ORIGINS"); ok {
		c.Serve.CORSOrigins = splitCSV(v)
	}
	return nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch c.Storage {
	case StorageVault, StorageRedis:
	default:
		return fmt.Errorf("config: unknown storage %q (want %s or %s)", c.Storage, StorageVault, StorageRedis)
	}

	if c.Lookup.URL == "" {
		return errors.New("config: lookup url is empty")
	}
	if c.Lookup.Timeout < 0 || c.Serve.Delay < 0 {
		return errors.New("config: durations must not be negative")
	}
	return nil
}

// IsDevelopment reports whether the development environment is active.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// DataDir returns the default data directory for zbook.
func DataDir() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return d + "/zbook"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zbook"
	}
	return home + "/.local/share/zbook"
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
