package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if config.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", config.Server.Port)
	}
	if config.Clients.Polygon.BaseURL != "https://api.polygon.io" {
		t.Errorf("default base URL = %s", config.Clients.Polygon.BaseURL)
	}
	if config.Screener.BatchSize != 25 {
		t.Errorf("default batch size = %d, want 25", config.Screener.BatchSize)
	}
	if config.Screener.MaxDirectoryPages != 60 {
		t.Errorf("default page cap = %d, want 60", config.Screener.MaxDirectoryPages)
	}
	if config.Screener.DefaultSector != "Technology" {
		t.Errorf("default sector = %s, want Technology", config.Screener.DefaultSector)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sift.toml")

	content := `
environment = "production"

[server]
port = 9090

[screener]
batch_size = 50
batch_delay = "500ms"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Environment != "production" {
		t.Errorf("environment = %s, want production", config.Environment)
	}
	if config.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", config.Server.Port)
	}
	if config.Screener.BatchSize != 50 {
		t.Errorf("batch size = %d, want 50", config.Screener.BatchSize)
	}
	if got := config.Screener.GetBatchDelay(); got != 500*time.Millisecond {
		t.Errorf("batch delay = %v, want 500ms", got)
	}
	// Untouched fields keep their defaults.
	if config.Clients.Polygon.RateLimit != 20 {
		t.Errorf("rate limit = %d, want default 20", config.Clients.Polygon.RateLimit)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig("/nonexistent/sift.toml")
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if config.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", config.Server.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SIFT_PORT", "7070")
	t.Setenv("SIFT_LOG_LEVEL", "debug")
	t.Setenv("SIFT_DEFAULT_SECTOR", "Unknown")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}

	if config.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070 from env", config.Server.Port)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("log level = %s, want debug", config.Logging.Level)
	}
	if config.Screener.DefaultSector != "Unknown" {
		t.Errorf("default sector = %s, want Unknown", config.Screener.DefaultSector)
	}
}

func TestGetBatchDelayMalformed(t *testing.T) {
	c := ScreenerConfig{BatchDelay: "not-a-duration"}
	if got := c.GetBatchDelay(); got != 1200*time.Millisecond {
		t.Errorf("malformed delay = %v, want 1200ms fallback", got)
	}
}

func TestResolveAPIKeyFromEnv(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "env-key")

	key, err := ResolveAPIKey(NewDefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if key != "env-key" {
		t.Errorf("key = %s, want env-key", key)
	}
}

func TestResolveAPIKeyFromConfig(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "")
	t.Setenv("SIFT_POLYGON_API_KEY", "")

	config := NewDefaultConfig()
	config.Clients.Polygon.APIKey = "file-key"

	key, err := ResolveAPIKey(config)
	if err != nil {
		t.Fatal(err)
	}
	if key != "file-key" {
		t.Errorf("key = %s, want file-key", key)
	}
}

func TestResolveAPIKeyFailsClosed(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "")
	t.Setenv("SIFT_POLYGON_API_KEY", "")

	_, err := ResolveAPIKey(NewDefaultConfig())
	if err == nil {
		t.Fatal("missing API key must be a startup error")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"PROD", true},
		{" prod ", true},
		{"development", false},
		{"", false},
	}
	for _, tt := range tests {
		c := Config{Environment: tt.env}
		if got := c.IsProduction(); got != tt.want {
			t.Errorf("IsProduction(%q) = %v, want %v", tt.env, got, tt.want)
		}
	}
}
