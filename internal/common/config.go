// Package common provides shared utilities for sift
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// ConfigError indicates the engine cannot start with the supplied
// configuration. It is fatal and never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Config holds all configuration for sift
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Clients     ClientsConfig  `toml:"clients"`
	Screener    ScreenerConfig `toml:"screener"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the snapshot store configuration.
type StorageConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Polygon PolygonConfig `toml:"polygon"`
}

// PolygonConfig holds Polygon.io API configuration
type PolygonConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *PolygonConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// ScreenerConfig holds screening engine tuning knobs.
type ScreenerConfig struct {
	BatchSize         int    `toml:"batch_size"`          // concurrent fetches per chunk
	BatchDelay        string `toml:"batch_delay"`         // pause between chunks
	MaxDirectoryPages int    `toml:"max_directory_pages"` // crawl safety cap
	DefaultSector     string `toml:"default_sector"`      // sector for unrecognized SIC descriptions
}

// GetBatchDelay parses and returns the inter-batch delay duration
func (c *ScreenerConfig) GetBatchDelay() time.Duration {
	d, err := time.ParseDuration(c.BatchDelay)
	if err != nil {
		return 1200 * time.Millisecond
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data/snapshots",
		},
		Clients: ClientsConfig{
			Polygon: PolygonConfig{
				BaseURL:   "https://api.polygon.io",
				RateLimit: 20,
				Timeout:   "15s",
			},
		},
		Screener: ScreenerConfig{
			BatchSize:         25,
			BatchDelay:        "1200ms",
			MaxDirectoryPages: 60,
			DefaultSector:     "Technology",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SIFT_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("SIFT_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("SIFT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("SIFT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("SIFT_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if sector := os.Getenv("SIFT_DEFAULT_SECTOR"); sector != "" {
		config.Screener.DefaultSector = sector
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves the Polygon API key from environment or config.
// The engine fails closed without a credential: every upstream call would
// 401, so a missing key is a startup error rather than a runtime surprise.
func ResolveAPIKey(config *Config) (string, error) {
	for _, name := range []string{"POLYGON_API_KEY", "SIFT_POLYGON_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}

	if config.Clients.Polygon.APIKey != "" {
		return config.Clients.Polygon.APIKey, nil
	}

	return "", &ConfigError{
		Field:  "clients.polygon.api_key",
		Reason: "no API key in POLYGON_API_KEY, SIFT_POLYGON_API_KEY, or config file",
	}
}
