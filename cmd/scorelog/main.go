package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/scorelog/internal/catalog"
	"github.com/JonMunkholm/scorelog/internal/config"
	"github.com/JonMunkholm/scorelog/internal/core"
	"github.com/JonMunkholm/scorelog/internal/errlog"
	"github.com/JonMunkholm/scorelog/internal/logging"
	"github.com/JonMunkholm/scorelog/internal/storage"
)

// shutdownTimeout bounds how long a signal waits for an in-flight write.
const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	envLoaded := godotenv.Overload() == nil

	a := &app{}
	root := newRootCmd(a)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("interrupted, finishing pending writes")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if a.svc != nil {
			if err := a.svc.WaitForDrain(ctx); err != nil {
				slog.Warn("pending write did not finish", "error", err)
			}
		}
		a.close()
		os.Exit(130)
	}()

	slog.Debug("environment", "dotenv_loaded", envLoaded)

	err := root.Execute()
	a.close()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what a command needs once configuration is loaded.
type app struct {
	cfg   *config.Config
	store *storage.Adapter
	svc   *core.Service

	jsonOut bool
	driver  string
	dataDir string
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "scorelog",
		Short:         "Local log of self-assessment scores",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
	}

	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print results as JSON")
	root.PersistentFlags().StringVar(&a.driver, "driver", "", "storage driver: badger, sqlite or memory (overrides STORAGE_DRIVER)")
	root.PersistentFlags().StringVar(&a.dataDir, "data", "", "data path (overrides STORAGE_PATH)")

	root.AddCommand(addCmd(a))
	root.AddCommand(deleteCmd(a))
	root.AddCommand(listCmd(a))
	root.AddCommand(exportCmd(a))
	root.AddCommand(importCmd(a))
	root.AddCommand(validateCmd(a))
	root.AddCommand(domainsCmd(a))
	root.AddCommand(langCmd(a))
	root.AddCommand(clearCmd(a))
	root.AddCommand(statsCmd(a))

	return root
}

// open loads configuration, sets up logging and builds the service.
func (a *app) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if a.driver != "" {
		os.Setenv("STORAGE_DRIVER", a.driver)
	}
	if a.dataDir != "" {
		os.Setenv("STORAGE_PATH", a.dataDir)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	errLog := errlog.New(cfg.ErrorLog.Capacity, errlog.WithOrigin("scorelog-cli"))

	backend, err := openBackend(cfg)
	if err != nil {
		// The service still runs, in memory only.
		slog.Warn("storage backend unavailable", "driver", cfg.Storage.Driver, "error", err)
		errLog.Storage("open storage backend failed", err, map[string]any{"driver": cfg.Storage.Driver})
	}
	a.store = storage.New(backend, cfg.Storage.Namespace,
		storage.WithObfuscationKey(cfg.Storage.ObfuscationKey),
		storage.WithErrorLog(errLog))

	var provider catalog.Provider = catalog.Default()
	if cfg.Entry.CatalogPath != "" {
		loaded, err := catalog.LoadFile(cfg.Entry.CatalogPath)
		if err != nil {
			return err
		}
		provider = loaded
	}

	a.svc, err = core.NewService(ctx, core.Deps{
		Config:   cfg,
		Store:    a.store,
		Catalog:  provider,
		ErrorLog: errLog,
	})
	return err
}

func (a *app) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("close storage", "error", err)
	}
	a.store = nil
}

// openBackend opens the configured storage driver. A nil backend with an
// error leaves the adapter unavailable.
func openBackend(cfg *config.Config) (storage.Backend, error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case "memory":
		return storage.NewMemory(), nil

	case "sqlite":
		path := cfg.Storage.Path
		if path == "" {
			path = filepath.Join(cfg.Storage.DataPath(), "scorelog.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := storage.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return db, nil

	default:
		dir := cfg.Storage.DataPath()
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := storage.OpenBadger(dir, storage.SyncWrites(), storage.WithBadgerLogger(slog.Default()))
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}

// userError wraps service errors so main can print the coded message.
func userError(err error) error {
	if err == nil {
		return nil
	}
	return core.NewUserError(err)
}

func printError(w io.Writer, err error) {
	var ue *core.UserError
	if !errors.As(err, &ue) {
		fmt.Fprintln(w, "Error:", err)
		return
	}

	fmt.Fprintln(w, "Error:", core.FormatUserError(ue.Technical))

	var invalid *core.InvalidEntryError
	if errors.As(ue.Technical, &invalid) {
		for _, field := range invalid.Result.Fields() {
			for _, msg := range invalid.Result.Errors[field] {
				fmt.Fprintf(w, "  %s: %s\n", field, msg)
			}
		}
	}
	slog.Debug("command failed", "error", ue.Technical)
}
