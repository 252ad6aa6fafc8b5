package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFromContext_AddsOperationID(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetupWriter(&buf, "info", "json")

	ctx := WithOperationID(context.Background(), "op-123")
	FromContext(ctx).Info("hello")

	if !strings.Contains(buf.String(), `"operation_id":"op-123"`) {
		t.Errorf("log output missing operation_id: %s", buf.String())
	}
}

func TestOperationID_Missing(t *testing.T) {
	if got := OperationID(context.Background()); got != "" {
		t.Errorf("OperationID() = %q, want empty", got)
	}
}
