package errlog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"
)

func quietLog(capacity int) *Log {
	return New(capacity, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestLog_EvictsOldest(t *testing.T) {
	l := quietLog(3)

	for _, msg := range []string{"one", "two", "three", "four", "five"} {
		l.Add(CategoryGeneral, msg, nil)
	}

	records := l.Records()
	if len(records) != 3 {
		t.Fatalf("len(Records()) = %d, want 3", len(records))
	}
	want := []string{"three", "four", "five"}
	for i, r := range records {
		if r.Message != want[i] {
			t.Errorf("Records()[%d].Message = %q, want %q", i, r.Message, want[i])
		}
	}

	stats := l.Stats()
	if stats.TotalSeen != 5 || stats.Evicted != 2 || stats.Retained != 3 {
		t.Errorf("Stats() = %+v, want seen=5 evicted=2 retained=3", stats)
	}
}

func TestLog_CategoryHelpers(t *testing.T) {
	l := quietLog(10)
	boom := errors.New("disk full")

	l.Storage("persist failed", boom, map[string]any{"key": "entries"})
	l.Validation("bad score", map[string]any{"field": "score"})
	l.Network("unused", nil, nil)
	l.Render("render failed", boom, nil)
	l.Security("rejected note", nil)
	l.Import("import failed", boom, nil)

	stats := l.Stats()
	for _, c := range []Category{CategoryStorage, CategoryValidation, CategoryNetwork, CategoryRender, CategorySecurity, CategoryImport} {
		if stats.ByCategory[c] != 1 {
			t.Errorf("ByCategory[%s] = %d, want 1", c, stats.ByCategory[c])
		}
	}

	first := l.Records()[0]
	if first.Details["error"] != "disk full" {
		t.Errorf("storage record error detail = %v, want %q", first.Details["error"], "disk full")
	}
	if first.Details["key"] != "entries" {
		t.Errorf("storage record key detail = %v, want %q", first.Details["key"], "entries")
	}
	if first.ID == "" || first.Context == "" || first.Timestamp.IsZero() {
		t.Errorf("record missing generated fields: %+v", first)
	}
}

func TestLog_StatsRecentCapped(t *testing.T) {
	l := quietLog(50)
	for i := 0; i < 25; i++ {
		l.Add(CategoryGeneral, "x", nil)
	}
	if got := len(l.Stats().Recent); got != 10 {
		t.Errorf("len(Stats().Recent) = %d, want 10", got)
	}
}

func TestLog_Clear(t *testing.T) {
	l := quietLog(2)
	l.Add(CategoryGeneral, "a", nil)
	l.Add(CategoryGeneral, "b", nil)
	l.Add(CategoryGeneral, "c", nil)
	l.Clear()
	if got := len(l.Records()); got != 0 {
		t.Errorf("len(Records()) after Clear = %d, want 0", got)
	}

	stats := l.Stats()
	if stats.TotalSeen != 3 || stats.Evicted != 1 || stats.Retained != 0 {
		t.Errorf("Stats() after Clear = %+v, want seen=3 evicted=1 retained=0", stats)
	}

	l.Add(CategoryGeneral, "d", nil)
	if got := l.Stats().Evicted; got != 1 {
		t.Errorf("Evicted after refill = %d, want 1", got)
	}
}

func TestLog_MirrorLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(10, WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))))

	l.Validation("score: must be a number", map[string]any{"field": "score"})
	if buf.Len() != 0 {
		t.Errorf("validation record mirrored at warn: %q", buf.String())
	}

	l.Storage("write failed", errors.New("disk full"), nil)
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "write failed") {
		t.Errorf("storage record not mirrored at warn: %q", buf.String())
	}

	if got := len(l.Records()); got != 2 {
		t.Errorf("len(Records()) = %d, want 2", got)
	}
}

func TestLog_NilDiscards(t *testing.T) {
	var l *Log
	if rec := l.Add(CategoryGeneral, "ignored", nil); rec.ID != "" {
		t.Errorf("nil Log returned record %+v", rec)
	}
}

func TestWithRetry_AlwaysFails(t *testing.T) {
	calls := 0
	final := errors.New("attempt 3")

	err := WithRetry(context.Background(), func(context.Context) error {
		calls++
		if calls == 3 {
			return final
		}
		return errors.New("transient")
	}, 3, time.Millisecond)

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if err != final {
		t.Errorf("err = %v, want the final failure unchanged", err)
	}
}

func TestWithRetry_SucceedsEventually(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	}, 5, time.Millisecond)

	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestWithRetry_Backoff(t *testing.T) {
	start := time.Now()
	_ = WithRetry(context.Background(), func(context.Context) error {
		return errors.New("fail")
	}, 3, 20*time.Millisecond)

	// 20ms + 40ms between three attempts
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("elapsed = %v, want at least 60ms of backoff", elapsed)
	}
}

func TestWithRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = WithRetry(context.Background(), func(context.Context) error {
		calls++
		return errors.New("fail")
	}, 0, 0)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSafeParse(t *testing.T) {
	type payload struct {
		A int `json:"a"`
	}

	got := SafeParse([]byte(`{"a":1}`), payload{A: -1})
	if got.A != 1 {
		t.Errorf("SafeParse(valid).A = %d, want 1", got.A)
	}

	got = SafeParse([]byte(`{"a":`), payload{A: -1})
	if got.A != -1 {
		t.Errorf("SafeParse(malformed).A = %d, want fallback -1", got.A)
	}

	got = SafeParse(nil, payload{A: 7})
	if got.A != 7 {
		t.Errorf("SafeParse(nil).A = %d, want fallback 7", got.A)
	}
}

func TestSafeStringify(t *testing.T) {
	if got := SafeStringify(map[string]int{"a": 1}, "fallback"); got != `{"a":1}` {
		t.Errorf("SafeStringify(map) = %q, want %q", got, `{"a":1}`)
	}
	if got := SafeStringify(make(chan int), "fallback"); got != "fallback" {
		t.Errorf("SafeStringify(chan) = %q, want fallback", got)
	}
	if got := SafeStringify(math.Inf(1), "fallback"); got != "fallback" {
		t.Errorf("SafeStringify(+Inf) = %q, want fallback", got)
	}
}
