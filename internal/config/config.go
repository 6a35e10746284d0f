package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
)

const (
	EnvPort       = "CLIPDROP_PORT"
	EnvWebPort    = "CLIPDROP_WEB_PORT"
	EnvBackendURL = "CLIPDROP_BACKEND_URL"
)

const DefaultBackendURL = "https://videodownload-production.up.railway.app/api/request"

type Config struct {
	// Client side
	BackendURL        string   `json:"backend_url"`
	Resolutions       []string `json:"resolutions"`
	DefaultResolution string   `json:"default_resolution"`
	WebPort           int      `json:"web_port"`
	LogFile           string   `json:"log_file"`

	// Backend side
	Port                     int    `json:"port"`
	PublicBaseURL            string `json:"public_base_url"`
	DownloadPath             string `json:"download_path"`
	YtDlpPath                string `json:"yt_dlp_path"`
	FfmpegPath               string `json:"ffmpeg_path"`
	MaxConcurrentDownloads   int    `json:"max_concurrent_downloads"`
	CompletedFileExpiryHours int    `json:"completed_file_expiry_hours"`

	VerboseLogging bool `json:"verbose_logging"`
}

func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	downloadPath := filepath.Join(homeDir, "Downloads", "clipdrop")

	return &Config{
		BackendURL:               DefaultBackendURL,
		Resolutions:              []string{"best", "1080p", "720p", "480p", "360p"},
		DefaultResolution:        "720p",
		WebPort:                  8081,
		Port:                     8080,
		DownloadPath:             downloadPath,
		YtDlpPath:                getDefaultYtDlpPath(),
		FfmpegPath:               getDefaultFfmpegPath(),
		MaxConcurrentDownloads:   3,
		CompletedFileExpiryHours: 24,
		VerboseLogging:           false,
	}
}

func getDefaultYtDlpPath() string {
	binaryName := "yt-dlp"
	if runtime.GOOS == "windows" {
		binaryName = "yt-dlp.exe"
	}

	candidates := []string{}
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), "assets", "yt-dlp", binaryName))
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, "assets", "yt-dlp", binaryName))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	// The bootstrap downloads the binary here when it is missing.
	relPath := filepath.Join("assets", "yt-dlp", binaryName)
	if absPath, err := filepath.Abs(relPath); err == nil {
		return absPath
	}
	return relPath
}

func getDefaultFfmpegPath() string {
	if runtime.GOOS == "windows" {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}

// Load reads the config at configPath, writing the defaults there first when
// the file does not exist. Fields missing from the file keep their defaults.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func (c *Config) Save(configPath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides ports and the backend URL from the environment.
// Unparseable values are ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Port = port
		}
	}
	if v := os.Getenv(EnvWebPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.WebPort = port
		}
	}
	if v := os.Getenv(EnvBackendURL); v != "" {
		c.BackendURL = v
	}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend_url must be an absolute http(s) URL")
	}

	if len(c.Resolutions) == 0 {
		return fmt.Errorf("resolutions cannot be empty")
	}

	if !slices.Contains(c.Resolutions, c.DefaultResolution) {
		return fmt.Errorf("default_resolution %q is not one of resolutions", c.DefaultResolution)
	}

	if c.WebPort <= 0 || c.WebPort > 65535 {
		return fmt.Errorf("web_port must be between 1 and 65535")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if c.PublicBaseURL != "" {
		if u, err := url.Parse(c.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("public_base_url must be an absolute URL")
		}
	}

	if c.DownloadPath == "" {
		return fmt.Errorf("download_path cannot be empty")
	}

	if c.MaxConcurrentDownloads <= 0 || c.MaxConcurrentDownloads > 10 {
		return fmt.Errorf("max_concurrent_downloads must be between 1 and 10")
	}

	if c.CompletedFileExpiryHours < 0 {
		return fmt.Errorf("completed_file_expiry_hours cannot be negative")
	}

	return nil
}

// PrepareDownloadDir creates the backend's download directory.
func (c *Config) PrepareDownloadDir() error {
	if err := os.MkdirAll(c.DownloadPath, 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	return nil
}
