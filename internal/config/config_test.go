package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/scorelog/internal/storage"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Driver != "badger" {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, "badger")
	}
	if cfg.Storage.Namespace != "scorelog_" {
		t.Errorf("Storage.Namespace = %q, want %q", cfg.Storage.Namespace, "scorelog_")
	}
	if cfg.Storage.ObfuscationKey != storage.DefaultObfuscationKey {
		t.Errorf("Storage.ObfuscationKey = %q, want %q", cfg.Storage.ObfuscationKey, storage.DefaultObfuscationKey)
	}
	if cfg.Import.MaxFileSize != 5242880 {
		t.Errorf("Import.MaxFileSize = %d, want %d", cfg.Import.MaxFileSize, 5242880)
	}
	if cfg.Import.MaxRows != 10000 {
		t.Errorf("Import.MaxRows = %d, want %d", cfg.Import.MaxRows, 10000)
	}
	if cfg.Entry.MaxNoteLength != 1000 {
		t.Errorf("Entry.MaxNoteLength = %d, want %d", cfg.Entry.MaxNoteLength, 1000)
	}
	if cfg.Entry.EnforceScoreRange {
		t.Error("Entry.EnforceScoreRange should default to false")
	}
	if cfg.ErrorLog.Capacity != 100 {
		t.Errorf("ErrorLog.Capacity = %d, want %d", cfg.ErrorLog.Capacity, 100)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	os.Setenv("STORAGE_DRIVER", "sqlite")
	os.Setenv("IMPORT_MAX_ROWS", "50")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("STORAGE_OBFUSCATE", "true")
	defer func() {
		os.Unsetenv("STORAGE_DRIVER")
		os.Unsetenv("IMPORT_MAX_ROWS")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("STORAGE_OBFUSCATE")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, "sqlite")
	}
	if cfg.Import.MaxRows != 50 {
		t.Errorf("Import.MaxRows = %d, want %d", cfg.Import.MaxRows, 50)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if !cfg.Storage.Obfuscate {
		t.Error("Storage.Obfuscate = false, want true")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	os.Setenv("SCORELOG_DATA", "/tmp/scorelog-alt")
	defer os.Unsetenv("SCORELOG_DATA")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.DataPath() != "/tmp/scorelog-alt" {
		t.Errorf("Storage.DataPath() = %q, want %q", cfg.Storage.DataPath(), "/tmp/scorelog-alt")
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	os.Setenv("IMPORT_MAX_ROWS", "lots")
	defer os.Unsetenv("IMPORT_MAX_ROWS")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for non-numeric IMPORT_MAX_ROWS")
	}
	if !strings.Contains(err.Error(), "IMPORT_MAX_ROWS") {
		t.Errorf("error should mention IMPORT_MAX_ROWS: %v", err)
	}
}

func TestLoad_Duration(t *testing.T) {
	os.Setenv("IMPORT_RATE_WINDOW", "45s")
	os.Setenv("STORAGE_RETRY_BASE_DELAY", "1m30s")
	defer func() {
		os.Unsetenv("IMPORT_RATE_WINDOW")
		os.Unsetenv("STORAGE_RETRY_BASE_DELAY")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Import.RateWindow != 45*time.Second {
		t.Errorf("Import.RateWindow = %v, want %v", cfg.Import.RateWindow, 45*time.Second)
	}
	if cfg.Storage.RetryBaseDelay != 90*time.Second {
		t.Errorf("Storage.RetryBaseDelay = %v, want %v", cfg.Storage.RetryBaseDelay, 90*time.Second)
	}
}

func TestDefault_MatchesTags(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Storage.RetryMax != 3 {
		t.Errorf("Storage.RetryMax = %d, want 3", cfg.Storage.RetryMax)
	}
	if cfg.Entry.MutationWait != 5*time.Second {
		t.Errorf("Entry.MutationWait = %v, want 5s", cfg.Entry.MutationWait)
	}
}

func TestValidate_InvalidDriver(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "STORAGE_DRIVER") {
		t.Errorf("error should mention STORAGE_DRIVER: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Import.MaxRows = 0
	cfg.Logging.Level = "verbose"
	cfg.Storage.Obfuscate = true
	cfg.Storage.ObfuscationKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"IMPORT_MAX_ROWS", "LOG_LEVEL", "STORAGE_OBFUSCATION_KEY"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestConfigString_MasksKey(t *testing.T) {
	cfg := Default()
	cfg.Storage.ObfuscationKey = "super-secret-key"
	str := cfg.String()
	if strings.Contains(str, "super-secret-key") {
		t.Error("String() should mask the obfuscation key")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}
