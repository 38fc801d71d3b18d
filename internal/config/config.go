package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Rostrum configuration
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Provider ProviderConfig `mapstructure:"provider"`
	Debate   DebateConfig   `mapstructure:"debate"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StoreConfig controls where Rostrum persists debate sessions
type StoreConfig struct {
	// DataDir is the directory where sessions, quarantined snapshots,
	// archives, and logs are stored.
	// If empty, defaults to "~/.rostrum".
	// Supports ~ for home directory expansion.
	DataDir string `mapstructure:"data_dir"`
}

// ServerConfig controls the HTTP API server
type ServerConfig struct {
	// Addr is the listen address for the API server (default: "127.0.0.1:8098")
	Addr string `mapstructure:"addr"`
	// ShutdownTimeoutSeconds is how long to wait for in-flight requests
	// during graceful shutdown (default: 10)
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// ProviderConfig controls how Rostrum talks to the model provider
type ProviderConfig struct {
	// BaseURL is the provider API endpoint (default: "https://api.anthropic.com")
	BaseURL string `mapstructure:"base_url"`
	// Model is the model used when a debater or judge credential does not
	// name one explicitly (default: "claude-sonnet-4-5")
	Model string `mapstructure:"model"`
	// MaxTokens is the maximum number of tokens per generated turn (default: 1024)
	MaxTokens int `mapstructure:"max_tokens"`
	// RequestTimeoutSeconds is the hard deadline for a single request attempt,
	// including streaming (default: 120)
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
	// MaxRetries is the number of retries after the first failed attempt (default: 3)
	MaxRetries int `mapstructure:"max_retries"`
	// RetryBaseDelayMs is the initial backoff delay in milliseconds (default: 1000)
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms"`
	// RetryMaxDelayMs caps the exponential backoff delay in milliseconds (default: 30000)
	RetryMaxDelayMs int `mapstructure:"retry_max_delay_ms"`
	// MinRequestIntervalMs is the minimum spacing between requests from the
	// same logical client in milliseconds (default: 1000)
	MinRequestIntervalMs int `mapstructure:"min_request_interval_ms"`
}

// DebateConfig controls debate defaults
type DebateConfig struct {
	// DefaultRounds is the number of rounds used when a new debate does not
	// specify one (default: 3, min: 1, max: 50)
	DefaultRounds int `mapstructure:"default_rounds"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated log files (default: false)
	Compress bool `mapstructure:"compress"`
}

// ResolveDataDir returns the resolved data directory path.
// If DataDir is empty, it returns "~/.rostrum" expanded.
// If DataDir starts with ~, it expands to the user's home directory.
func (s *StoreConfig) ResolveDataDir() string {
	path := s.DataDir
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ".rostrum"
		}
		return filepath.Join(home, ".rostrum")
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			DataDir: "", // Empty means use default: ~/.rostrum
		},
		Server: ServerConfig{
			Addr:                   "127.0.0.1:8098",
			ShutdownTimeoutSeconds: 10,
		},
		Provider: ProviderConfig{
			BaseURL:               "https://api.anthropic.com",
			Model:                 "claude-sonnet-4-5",
			MaxTokens:             1024,
			RequestTimeoutSeconds: 120,
			MaxRetries:            3,
			RetryBaseDelayMs:      1000,  // 1 second, doubled per attempt
			RetryMaxDelayMs:       30000, // Backoff cap
			MinRequestIntervalMs:  1000,
		},
		Debate: DebateConfig{
			DefaultRounds: 3,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
	}
}

// RequestTimeout returns the per-attempt request timeout as a time.Duration
func (p *ProviderConfig) RequestTimeout() time.Duration {
	return time.Duration(p.RequestTimeoutSeconds) * time.Second
}

// RetryBaseDelay returns the initial backoff delay as a time.Duration
func (p *ProviderConfig) RetryBaseDelay() time.Duration {
	return time.Duration(p.RetryBaseDelayMs) * time.Millisecond
}

// RetryMaxDelay returns the backoff delay cap as a time.Duration
func (p *ProviderConfig) RetryMaxDelay() time.Duration {
	return time.Duration(p.RetryMaxDelayMs) * time.Millisecond
}

// MinRequestInterval returns the per-client request spacing as a time.Duration
func (p *ProviderConfig) MinRequestInterval() time.Duration {
	return time.Duration(p.MinRequestIntervalMs) * time.Millisecond
}

// ShutdownTimeout returns the graceful shutdown deadline as a time.Duration
func (s *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Store defaults
	viper.SetDefault("store.data_dir", defaults.Store.DataDir)

	// Server defaults
	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.shutdown_timeout_seconds", defaults.Server.ShutdownTimeoutSeconds)

	// Provider defaults
	viper.SetDefault("provider.base_url", defaults.Provider.BaseURL)
	viper.SetDefault("provider.model", defaults.Provider.Model)
	viper.SetDefault("provider.max_tokens", defaults.Provider.MaxTokens)
	viper.SetDefault("provider.request_timeout_seconds", defaults.Provider.RequestTimeoutSeconds)
	viper.SetDefault("provider.max_retries", defaults.Provider.MaxRetries)
	viper.SetDefault("provider.retry_base_delay_ms", defaults.Provider.RetryBaseDelayMs)
	viper.SetDefault("provider.retry_max_delay_ms", defaults.Provider.RetryMaxDelayMs)
	viper.SetDefault("provider.min_request_interval_ms", defaults.Provider.MinRequestIntervalMs)

	// Debate defaults
	viper.SetDefault("debate.default_rounds", defaults.Debate.DefaultRounds)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rostrum")
	}
	// Fall back to ~/.config/rostrum
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rostrum"
	}
	return filepath.Join(home, ".config", "rostrum")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
