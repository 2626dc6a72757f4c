package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// API
	APIBaseURL   string
	APITimeout   time.Duration
	APIRateLimit int // requests per minute, 0 for none

	// Stores
	NotifyWindow time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Session vault
	SessionDBPath string

	// Exist-check memo
	ExistCacheTTL  time.Duration
	ExistCacheSize int

	// Change feed (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Refresh worker
	PollInterval time.Duration

	// Google Sheets export (optional)
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

func Load() *Config {
	return &Config{
		APIBaseURL:   getEnv("API_BASE_URL", "http://localhost:8080/api"),
		APITimeout:   getEnvDuration("API_TIMEOUT", 10*time.Second),
		APIRateLimit: getEnvInt("API_RATE_LIMIT", 0),

		NotifyWindow: getEnvDuration("NOTIFY_WINDOW", 16*time.Millisecond),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		SessionDBPath: getEnv("SESSION_DB_PATH", defaultDataPath("session.db")),

		ExistCacheTTL:  getEnvDuration("EXIST_CACHE_TTL", time.Minute),
		ExistCacheSize: getEnvInt("EXIST_CACHE_SIZE", 256),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "portafoglio"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "portafoglio_changes"),

		PollInterval: getEnvDuration("POLL_INTERVAL", time.Minute),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Portafoglio"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
	}
}

// ChangeFeedEnabled reports whether an AMQP broker is configured.
func (c *Config) ChangeFeedEnabled() bool { return c.AMQPURL != "" }

// SheetsEnabled reports whether the Google Sheets export is configured.
func (c *Config) SheetsEnabled() bool { return c.GoogleSpreadsheetID != "" }

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if u, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}

	if c.APITimeout < 100*time.Millisecond || c.APITimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be between 100ms and 5m", c.APITimeout))
	}

	if c.APIRateLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid API rate limit %d: must not be negative", c.APIRateLimit))
	}

	if c.NotifyWindow < 0 || c.NotifyWindow > time.Second {
		errors = append(errors, fmt.Sprintf("invalid notify window %v: must be between 0 and 1s", c.NotifyWindow))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.SessionDBPath == "" {
		errors = append(errors, "session database path cannot be empty")
	} else if dir := filepath.Dir(c.SessionDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create session database directory '%s': %v", dir, err))
			}
		}
	}

	if c.ExistCacheSize < 1 || c.ExistCacheSize > 100000 {
		errors = append(errors, fmt.Sprintf("invalid exist cache size %d: must be between 1 and 100000", c.ExistCacheSize))
	}
	if c.ExistCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid exist cache TTL %v: must be at least 1 second", c.ExistCacheTTL))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.PollInterval != 0 && c.PollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid poll interval %v: must be 0 or at least 1 second", c.PollInterval))
	}

	if c.GoogleSpreadsheetID != "" {
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the sheets export")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// defaultDataPath places name under the user's config directory.
func defaultDataPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "data", name)
	}
	return filepath.Join(dir, "portafoglio", name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
