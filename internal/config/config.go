// Package config provides centralized configuration management for scorelog.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Storage  StorageConfig
	Import   ImportConfig
	Entry    EntryConfig
	ErrorLog ErrorLogConfig
	Logging  LoggingConfig
}

// StorageConfig holds persistent key-value store settings.
type StorageConfig struct {
	// Driver selects the backend: badger, sqlite or memory (default: badger)
	Driver string `env:"STORAGE_DRIVER" default:"badger"`

	// Path is the data directory (badger) or database file (sqlite).
	// Defaults to ~/.scorelog/data when unset.
	Path string `env:"STORAGE_PATH" envAlt:"SCORELOG_DATA"`

	// Namespace prefixes every key the application writes (default: scorelog_)
	Namespace string `env:"STORAGE_NAMESPACE" default:"scorelog_"`

	// Obfuscate enables reversible XOR+base64 scrambling of stored values (default: false)
	Obfuscate bool `env:"STORAGE_OBFUSCATE" default:"false"`

	// ObfuscationKey is the XOR key used when Obfuscate is set. The default
	// matches storage.DefaultObfuscationKey. Obfuscation is not encryption.
	ObfuscationKey string `env:"STORAGE_OBFUSCATION_KEY" default:"scorelog:local-obfuscation:v1"`

	// RetryMax is the number of attempts for a persist operation (default: 3)
	RetryMax int `env:"STORAGE_RETRY_MAX" default:"3"`

	// RetryBaseDelay is the first backoff delay between attempts (default: 50ms)
	RetryBaseDelay time.Duration `env:"STORAGE_RETRY_BASE_DELAY" default:"50ms"`
}

// ImportConfig holds CSV import safety caps.
type ImportConfig struct {
	// MaxFileSize is the maximum accepted file size in bytes (default: 5MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"5242880"`

	// MaxRows is the maximum number of data rows processed per import (default: 10000)
	MaxRows int `env:"IMPORT_MAX_ROWS" default:"10000"`

	// RateLimit is the number of imports allowed per RateWindow (default: 10)
	RateLimit int `env:"IMPORT_RATE_LIMIT" default:"10"`

	// RateWindow is the rate limit window (default: 1m)
	RateWindow time.Duration `env:"IMPORT_RATE_WINDOW" default:"1m"`
}

// EntryConfig holds entry validation and mutation settings.
type EntryConfig struct {
	// MaxNoteLength is the maximum note length in characters (default: 1000)
	MaxNoteLength int `env:"ENTRY_MAX_NOTE_LENGTH" default:"1000"`

	// EnforceScoreRange rejects scores outside the catalog's advisory range (default: false)
	EnforceScoreRange bool `env:"ENTRY_ENFORCE_SCORE_RANGE" default:"false"`

	// CatalogPath points to a JSON assessment catalog; empty uses the built-in catalog
	CatalogPath string `env:"CATALOG_PATH"`

	// MutationWait is how long a mutation waits for the previous one to finish (default: 5s)
	MutationWait time.Duration `env:"ENTRY_MUTATION_WAIT" default:"5s"`
}

// ErrorLogConfig holds the in-memory diagnostic log settings.
type ErrorLogConfig struct {
	// Capacity is the number of records kept before the oldest is evicted (default: 100)
	Capacity int `env:"ERROR_LOG_CAPACITY" default:"100"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: warn)
	Level string `env:"LOG_LEVEL" default:"warn"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// DataPath returns the configured storage path, falling back to a
// per-user default under the home directory.
func (c *StorageConfig) DataPath() string {
	if c.Path != "" {
		return c.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".scorelog", "data")
	}
	return filepath.Join(home, ".scorelog", "data")
}
