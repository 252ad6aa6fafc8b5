package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration populated from tag defaults only,
// ignoring the environment. Useful for tests and embedding.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(reflect.ValueOf(cfg).Elem())
	return cfg
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// applyDefaults sets every tagged field to its default value.
func applyDefaults(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)
		if field.Type.Kind() == reflect.Struct {
			applyDefaults(fieldVal)
			continue
		}
		if def := field.Tag.Get("default"); def != "" {
			// Tag defaults are compile-time constants covered by tests.
			_ = setField(fieldVal, def)
		}
	}
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Storage validation
	validDrivers := map[string]bool{"badger": true, "sqlite": true, "memory": true}
	if !validDrivers[strings.ToLower(c.Storage.Driver)] {
		errs = append(errs, fmt.Sprintf("STORAGE_DRIVER (%q) must be one of: badger, sqlite, memory", c.Storage.Driver))
	}
	if c.Storage.Namespace == "" {
		errs = append(errs, "STORAGE_NAMESPACE must not be empty")
	}
	if c.Storage.Obfuscate && c.Storage.ObfuscationKey == "" {
		errs = append(errs, "STORAGE_OBFUSCATION_KEY must not be empty when STORAGE_OBFUSCATE is true")
	}
	if c.Storage.RetryMax <= 0 {
		errs = append(errs, "STORAGE_RETRY_MAX must be positive")
	}
	if c.Storage.RetryBaseDelay < 0 {
		errs = append(errs, "STORAGE_RETRY_BASE_DELAY must be non-negative")
	}

	// Import validation
	if c.Import.MaxFileSize <= 0 {
		errs = append(errs, "IMPORT_MAX_FILE_SIZE must be positive")
	}
	if c.Import.MaxRows <= 0 {
		errs = append(errs, "IMPORT_MAX_ROWS must be positive")
	}
	if c.Import.RateLimit <= 0 {
		errs = append(errs, "IMPORT_RATE_LIMIT must be positive")
	}
	if c.Import.RateWindow <= 0 {
		errs = append(errs, "IMPORT_RATE_WINDOW must be positive")
	}

	// Entry validation
	if c.Entry.MaxNoteLength <= 0 {
		errs = append(errs, "ENTRY_MAX_NOTE_LENGTH must be positive")
	}
	if c.Entry.MutationWait <= 0 {
		errs = append(errs, "ENTRY_MUTATION_WAIT must be positive")
	}

	if c.ErrorLog.Capacity <= 0 {
		errs = append(errs, "ERROR_LOG_CAPACITY must be positive")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The obfuscation key is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Storage: {Driver: %q, Path: %q, Namespace: %q, Obfuscate: %v, ObfuscationKey: [MASKED]}, ",
		c.Storage.Driver, c.Storage.Path, c.Storage.Namespace, c.Storage.Obfuscate))
	b.WriteString(fmt.Sprintf("Import: {MaxFileSize: %d, MaxRows: %d, RateLimit: %d/%s}, ",
		c.Import.MaxFileSize, c.Import.MaxRows, c.Import.RateLimit, c.Import.RateWindow))
	b.WriteString(fmt.Sprintf("Entry: {MaxNoteLength: %d, EnforceScoreRange: %v}, ",
		c.Entry.MaxNoteLength, c.Entry.EnforceScoreRange))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
