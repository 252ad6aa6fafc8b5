// Package logging provides structured logging configuration using log/slog.
//
// Logs go to stderr so that commands writing data to stdout (CSV export)
// stay pipe-friendly. Each service operation carries an operation ID in its
// context, and FromContext attaches it to every log line for correlation.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const ctxKeyOperationID contextKey = "operation_id"

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithOperationID returns a context carrying the given operation ID.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyOperationID, id)
}

// OperationID extracts the operation ID from ctx, or "" if none is set.
func OperationID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyOperationID).(string); ok {
		return v
	}
	return ""
}

// FromContext returns a logger enriched with the operation ID stored in ctx.
//
// Usage:
//
//	logger := logging.FromContext(ctx)
//	logger.Info("import finished", "imported", n)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if opID := OperationID(ctx); opID != "" {
		logger = logger.With("operation_id", opID)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	importLogger := logging.WithFields(ctx, "file", src.Name())
//	importLogger.Info("import started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
