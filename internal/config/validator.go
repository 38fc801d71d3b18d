package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "provider.max_tokens")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Round bounds for a debate. These values must match debate.MinRounds and
// debate.MaxRounds (defined separately to avoid circular import).
const (
	minRounds = 1
	maxRounds = 50
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Store config
	errors = append(errors, c.validateStore()...)

	// Validate Server config
	errors = append(errors, c.validateServer()...)

	// Validate Provider config
	errors = append(errors, c.validateProvider()...)

	// Validate Debate config
	errors = append(errors, c.validateDebate()...)

	// Validate Logging config
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateStore validates the StoreConfig
func (c *Config) validateStore() []ValidationError {
	var errors []ValidationError

	// DataDir validation - if set, check for invalid characters
	if c.Store.DataDir != "" {
		path := c.Store.DataDir

		// Check for null bytes which are invalid in paths
		if strings.ContainsRune(path, '\x00') {
			errors = append(errors, ValidationError{
				Field:   "store.data_dir",
				Value:   path,
				Message: "path contains invalid null character",
			})
		}

		// Reasonable path length limit (most filesystems have limits around 4096)
		const maxPathLength = 4096
		if len(path) > maxPathLength {
			errors = append(errors, ValidationError{
				Field:   "store.data_dir",
				Value:   path,
				Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength),
			})
		}
	}

	return errors
}

// validateServer validates the ServerConfig
func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	if c.Server.Addr == "" {
		errors = append(errors, ValidationError{
			Field:   "server.addr",
			Value:   c.Server.Addr,
			Message: "cannot be empty",
		})
	}

	if c.Server.ShutdownTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "server.shutdown_timeout_seconds",
			Value:   c.Server.ShutdownTimeoutSeconds,
			Message: "must be non-negative (0 waits indefinitely)",
		})
	}

	return errors
}

// validateProvider validates the ProviderConfig
func (c *Config) validateProvider() []ValidationError {
	var errors []ValidationError

	if c.Provider.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "provider.base_url",
			Value:   c.Provider.BaseURL,
			Message: "cannot be empty",
		})
	} else if u, err := url.Parse(c.Provider.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errors = append(errors, ValidationError{
			Field:   "provider.base_url",
			Value:   c.Provider.BaseURL,
			Message: "must be a valid http or https URL",
		})
	}

	if c.Provider.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "provider.model",
			Value:   c.Provider.Model,
			Message: "cannot be empty",
		})
	}

	// Token budget validation
	const minMaxTokens = 1
	const maxMaxTokens = 100000

	if c.Provider.MaxTokens < minMaxTokens {
		errors = append(errors, ValidationError{
			Field:   "provider.max_tokens",
			Value:   c.Provider.MaxTokens,
			Message: fmt.Sprintf("must be at least %d", minMaxTokens),
		})
	}
	if c.Provider.MaxTokens > maxMaxTokens {
		errors = append(errors, ValidationError{
			Field:   "provider.max_tokens",
			Value:   c.Provider.MaxTokens,
			Message: fmt.Sprintf("exceeds maximum of %d", maxMaxTokens),
		})
	}

	// Request timeout validation
	const maxRequestTimeoutSeconds = 3600 // 1 hour
	if c.Provider.RequestTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "provider.request_timeout_seconds",
			Value:   c.Provider.RequestTimeoutSeconds,
			Message: "must be positive",
		})
	}
	if c.Provider.RequestTimeoutSeconds > maxRequestTimeoutSeconds {
		errors = append(errors, ValidationError{
			Field:   "provider.request_timeout_seconds",
			Value:   c.Provider.RequestTimeoutSeconds,
			Message: fmt.Sprintf("exceeds maximum of %d seconds", maxRequestTimeoutSeconds),
		})
	}

	// Retry validation
	const maxMaxRetries = 10
	if c.Provider.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "provider.max_retries",
			Value:   c.Provider.MaxRetries,
			Message: "must be non-negative (0 disables retries)",
		})
	}
	if c.Provider.MaxRetries > maxMaxRetries {
		errors = append(errors, ValidationError{
			Field:   "provider.max_retries",
			Value:   c.Provider.MaxRetries,
			Message: fmt.Sprintf("exceeds maximum of %d", maxMaxRetries),
		})
	}

	if c.Provider.RetryBaseDelayMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "provider.retry_base_delay_ms",
			Value:   c.Provider.RetryBaseDelayMs,
			Message: "must be positive",
		})
	}
	if c.Provider.RetryMaxDelayMs < c.Provider.RetryBaseDelayMs {
		errors = append(errors, ValidationError{
			Field:   "provider.retry_max_delay_ms",
			Value:   c.Provider.RetryMaxDelayMs,
			Message: fmt.Sprintf("must be at least retry_base_delay_ms (%v)", c.Provider.RetryBaseDelayMs),
		})
	}

	// Request spacing validation
	const maxMinRequestIntervalMs = 60000 // 1 minute
	if c.Provider.MinRequestIntervalMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "provider.min_request_interval_ms",
			Value:   c.Provider.MinRequestIntervalMs,
			Message: "must be non-negative (0 disables spacing)",
		})
	}
	if c.Provider.MinRequestIntervalMs > maxMinRequestIntervalMs {
		errors = append(errors, ValidationError{
			Field:   "provider.min_request_interval_ms",
			Value:   c.Provider.MinRequestIntervalMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxMinRequestIntervalMs),
		})
	}

	return errors
}

// validateDebate validates the DebateConfig
func (c *Config) validateDebate() []ValidationError {
	var errors []ValidationError

	if c.Debate.DefaultRounds < minRounds {
		errors = append(errors, ValidationError{
			Field:   "debate.default_rounds",
			Value:   c.Debate.DefaultRounds,
			Message: fmt.Sprintf("must be at least %d", minRounds),
		})
	}
	if c.Debate.DefaultRounds > maxRounds {
		errors = append(errors, ValidationError{
			Field:   "debate.default_rounds",
			Value:   c.Debate.DefaultRounds,
			Message: fmt.Sprintf("exceeds maximum of %d", maxRounds),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
