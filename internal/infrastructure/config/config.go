package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the environment variable pointing at an optional config file.
const FileEnv = "FB_CONFIG_FILE"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Capture   CaptureConfig   `toml:"capture" yaml:"capture"`
	Logging   LogConfig       `toml:"logging" yaml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit" yaml:"rate_limit"`
	Breaker   BreakerConfig   `toml:"breaker" yaml:"breaker"`
}

// ServerConfig holds listener configuration.
type ServerConfig struct {
	Port    string `envconfig:"PORT" toml:"port" yaml:"port"`
	Host    string `envconfig:"HOST" toml:"host" yaml:"host"`
	TCPAddr string `envconfig:"FB_TCP_ADDR" toml:"tcp_addr" yaml:"tcp_addr"`
}

// CaptureConfig holds producer and pipeline configuration.
type CaptureConfig struct {
	Producer      string `envconfig:"FB_PRODUCER" toml:"producer" yaml:"producer"`
	ChunkSize     int    `envconfig:"FB_CHUNK_SIZE" toml:"chunk_size" yaml:"chunk_size"`
	MaxConcurrent int    `envconfig:"FB_MAX_CONCURRENT" toml:"max_concurrent" yaml:"max_concurrent"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration. The per-IP budget
// applies to each client; the global budget caps producer forks across all
// HTTP clients and is off when GlobalRequestsPerSecond is 0.
type RateLimitConfig struct {
	RequestsPerSecond       int  `envconfig:"RATE_LIMIT_RPS" toml:"rps" yaml:"rps"`
	Burst                   int  `envconfig:"RATE_LIMIT_BURST" toml:"burst" yaml:"burst"`
	GlobalRequestsPerSecond int  `envconfig:"RATE_LIMIT_GLOBAL_RPS" toml:"global_rps" yaml:"global_rps"`
	GlobalBurst             int  `envconfig:"RATE_LIMIT_GLOBAL_BURST" toml:"global_burst" yaml:"global_burst"`
	Enabled                 bool `envconfig:"RATE_LIMIT_ENABLED" toml:"enabled" yaml:"enabled"`
}

// BreakerConfig holds producer launch breaker configuration.
type BreakerConfig struct {
	Failures       int `envconfig:"BREAKER_FAILURES" toml:"failures" yaml:"failures"`
	TimeoutSeconds int `envconfig:"BREAKER_TIMEOUT" toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// Load builds configuration from defaults, then the file named by
// FB_CONFIG_FILE if set, then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or returns the defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile reads defaults overlaid with a TOML or YAML file, no environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
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
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config file type %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Validate rejects values the bridge cannot run with.
func (c *Config) Validate() error {
	if len(c.Capture.Argv()) == 0 {
		return fmt.Errorf("invalid config: producer command is empty")
	}
	if c.Capture.ChunkSize <= 0 {
		return fmt.Errorf("invalid config: chunk size must be positive, got %d", c.Capture.ChunkSize)
	}
	if c.Capture.MaxConcurrent <= 0 {
		return fmt.Errorf("invalid config: max concurrent must be positive, got %d", c.Capture.MaxConcurrent)
	}
	if c.RateLimit.GlobalRequestsPerSecond < 0 || c.RateLimit.GlobalBurst < 0 {
		return fmt.Errorf("invalid config: global rate limit must not be negative")
	}
	if c.Breaker.Failures <= 0 {
		return fmt.Errorf("invalid config: breaker failures must be positive, got %d", c.Breaker.Failures)
	}
	if c.Breaker.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid config: breaker timeout must be positive, got %d", c.Breaker.TimeoutSeconds)
	}
	return nil
}

// Argv splits the producer command line on whitespace.
func (c CaptureConfig) Argv() []string {
	return strings.Fields(c.Producer)
}

// Timeout returns the breaker open period.
func (b BreakerConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Capture: CaptureConfig{
			Producer:      "screencap",
			ChunkSize:     8192,
			MaxConcurrent: 4,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond:       5,
			Burst:                   10,
			GlobalRequestsPerSecond: 20,
			GlobalBurst:             20,
			Enabled:                 true,
		},
		Breaker: BreakerConfig{
			Failures:       5,
			TimeoutSeconds: 30,
		},
	}
}
