package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BackendURL != DefaultBackendURL {
		t.Errorf("Expected BackendURL to be %s, got %s", DefaultBackendURL, cfg.BackendURL)
	}

	if cfg.DefaultResolution != "720p" {
		t.Errorf("Expected DefaultResolution to be '720p', got '%s'", cfg.DefaultResolution)
	}

	if cfg.MaxConcurrentDownloads != 3 {
		t.Errorf("Expected MaxConcurrentDownloads to be 3, got %d", cfg.MaxConcurrentDownloads)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected Port to be 8080, got %d", cfg.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	valid := func(mutate func(*Config)) Config {
		cfg := *DefaultConfig()
		cfg.DownloadPath = "/tmp/test"
		mutate(&cfg)
		return cfg
	}

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  valid(func(c *Config) {}),
			wantErr: false,
		},
		{
			name:    "relative backend url",
			config:  valid(func(c *Config) { c.BackendURL = "/api/request" }),
			wantErr: true,
		},
		{
			name:    "non-http backend url",
			config:  valid(func(c *Config) { c.BackendURL = "ftp://example.com/x" }),
			wantErr: true,
		},
		{
			name:    "no resolutions",
			config:  valid(func(c *Config) { c.Resolutions = nil }),
			wantErr: true,
		},
		{
			name:    "default resolution outside set",
			config:  valid(func(c *Config) { c.DefaultResolution = "4k" }),
			wantErr: true,
		},
		{
			name:    "empty download path",
			config:  valid(func(c *Config) { c.DownloadPath = "" }),
			wantErr: true,
		},
		{
			name:    "invalid concurrent downloads",
			config:  valid(func(c *Config) { c.MaxConcurrentDownloads = 0 }),
			wantErr: true,
		},
		{
			name:    "too many concurrent downloads",
			config:  valid(func(c *Config) { c.MaxConcurrentDownloads = 11 }),
			wantErr: true,
		},
		{
			name:    "invalid port",
			config:  valid(func(c *Config) { c.Port = 0 }),
			wantErr: true,
		},
		{
			name:    "invalid web port",
			config:  valid(func(c *Config) { c.WebPort = 70000 }),
			wantErr: true,
		},
		{
			name:    "relative public base url",
			config:  valid(func(c *Config) { c.PublicBaseURL = "files" }),
			wantErr: true,
		},
		{
			name:    "negative expiry",
			config:  valid(func(c *Config) { c.CompletedFileExpiryHours = -1 }),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigSaveLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.json")

	originalConfig := DefaultConfig()
	originalConfig.Port = 9090
	originalConfig.Resolutions = []string{"best", "480p"}
	originalConfig.DefaultResolution = "480p"

	// Save config
	if err := originalConfig.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	// Load config
	loadedConfig, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedConfig.Port != 9090 {
		t.Errorf("Expected Port to be 9090, got %d", loadedConfig.Port)
	}

	if len(loadedConfig.Resolutions) != 2 || loadedConfig.DefaultResolution != "480p" {
		t.Errorf("Expected resolutions to round-trip, got %v / %s", loadedConfig.Resolutions, loadedConfig.DefaultResolution)
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "partial.json")
	if err := os.WriteFile(configPath, []byte(`{"port": 9000}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Expected Port to be 9000, got %d", cfg.Port)
	}
	if cfg.BackendURL != DefaultBackendURL {
		t.Errorf("Expected default backend URL, got %s", cfg.BackendURL)
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.json")

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Expected Load to create default config, got error: %v", err)
	}

	if config.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", config.Port)
	}

	// Check that file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Expected config file to be created")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvPort, "9191")
	t.Setenv(EnvWebPort, "not-a-port")
	t.Setenv(EnvBackendURL, "http://localhost:9191/api/request")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Port != 9191 {
		t.Errorf("Expected Port from env, got %d", cfg.Port)
	}
	if cfg.WebPort != 8081 {
		t.Errorf("Expected invalid web port to be ignored, got %d", cfg.WebPort)
	}
	if cfg.BackendURL != "http://localhost:9191/api/request" {
		t.Errorf("Expected BackendURL from env, got %s", cfg.BackendURL)
	}
}

func TestPrepareDownloadDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DownloadPath = filepath.Join(t.TempDir(), "a", "b")

	if err := cfg.PrepareDownloadDir(); err != nil {
		t.Fatalf("PrepareDownloadDir() error = %v", err)
	}
	if info, err := os.Stat(cfg.DownloadPath); err != nil || !info.IsDir() {
		t.Errorf("Expected download dir to exist, err = %v", err)
	}
}
