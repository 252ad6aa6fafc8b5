// Package errlog keeps a bounded, in-memory log of structured error records
// and provides the retry and fail-safe serialization helpers used by the
// storage and import paths.
//
// Records never leave the process: they are mirrored to slog and kept in a
// fixed-capacity ring buffer for diagnostics, but are not persisted.
package errlog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 100

// Category classifies an error record.
type Category string

const (
	CategoryStorage    Category = "storage"
	CategoryValidation Category = "validation"
	CategoryNetwork    Category = "network"
	CategoryRender     Category = "render"
	CategorySecurity   Category = "security"
	CategoryImport     Category = "import"
	CategoryGeneral    Category = "general"
)

// Record is a single structured error log entry.
type Record struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Category  Category       `json:"category"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Context   string         `json:"context"`
}

// Stats summarizes the log for diagnostics.
type Stats struct {
	Retained   int              `json:"retained"`
	Capacity   int              `json:"capacity"`
	TotalSeen  int              `json:"totalSeen"`
	Evicted    int              `json:"evicted"`
	ByCategory map[Category]int `json:"byCategory"`
	Recent     []Record         `json:"recent"`
}

// Log is a fixed-capacity ring buffer of error records. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	buf     []Record
	head    int // index of the oldest record
	size    int
	seen    int
	evicted int
	origin  string
	logger  *slog.Logger
	nowFunc func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithOrigin sets the context string stamped on every record.
func WithOrigin(origin string) Option {
	return func(l *Log) { l.origin = origin }
}

// WithLogger mirrors records to the given logger instead of slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// New creates a Log holding at most capacity records.
func New(capacity int, opts ...Option) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Log{
		buf:     make([]Record, capacity),
		origin:  fmt.Sprintf("scorelog %s/%s", runtime.GOOS, runtime.GOARCH),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add appends a record, evicting the oldest one when the buffer is full.
// A nil *Log discards the record.
func (l *Log) Add(category Category, message string, details map[string]any) Record {
	if l == nil {
		return Record{}
	}

	rec := Record{
		ID:        uuid.NewString(),
		Category:  category,
		Message:   message,
		Details:   details,
		Context:   l.origin,
	}

	l.mu.Lock()
	rec.Timestamp = l.nowFunc()
	capacity := len(l.buf)
	if l.size < capacity {
		l.buf[(l.head+l.size)%capacity] = rec
		l.size++
	} else {
		l.buf[l.head] = rec
		l.head = (l.head + 1) % capacity
		l.evicted++
	}
	l.seen++
	logger := l.logger
	l.mu.Unlock()

	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), mirrorLevel(category), message,
		"error_id", rec.ID,
		"category", string(category),
		"details", details,
	)

	return rec
}

// mirrorLevel is the slog level a record is mirrored at. Validation
// failures are routine during imports and stay at debug.
func mirrorLevel(category Category) slog.Level {
	if category == CategoryValidation {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// Storage records a persistence failure.
func (l *Log) Storage(message string, err error, details map[string]any) Record {
	return l.Add(CategoryStorage, message, withErr(details, err))
}

// Validation records a validation failure.
func (l *Log) Validation(message string, details map[string]any) Record {
	return l.Add(CategoryValidation, message, details)
}

// Network records a transport failure.
func (l *Log) Network(message string, err error, details map[string]any) Record {
	return l.Add(CategoryNetwork, message, withErr(details, err))
}

// Render records a presentation-layer failure reported back to the core.
func (l *Log) Render(message string, err error, details map[string]any) Record {
	return l.Add(CategoryRender, message, withErr(details, err))
}

// Security records rejected input or throttled calls.
func (l *Log) Security(message string, details map[string]any) Record {
	return l.Add(CategorySecurity, message, details)
}

// Import records an import-level failure.
func (l *Log) Import(message string, err error, details map[string]any) Record {
	return l.Add(CategoryImport, message, withErr(details, err))
}

// Records returns the retained records, oldest first.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

// snapshot copies the ring in order. Must be called with lock held.
func (l *Log) snapshot() []Record {
	out := make([]Record, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.buf[(l.head+i)%len(l.buf)]
	}
	return out
}

// Stats returns counts per category plus the ten most recent records.
func (l *Log) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := l.snapshot()
	stats := Stats{
		Retained:   l.size,
		Capacity:   len(l.buf),
		TotalSeen:  l.seen,
		Evicted:    l.evicted,
		ByCategory: make(map[Category]int),
	}
	for _, r := range records {
		stats.ByCategory[r.Category]++
	}

	const recent = 10
	start := len(records) - recent
	if start < 0 {
		start = 0
	}
	stats.Recent = records[start:]
	return stats
}

// Clear drops all retained records. TotalSeen and Evicted keep counting.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.buf {
		l.buf[i] = Record{}
	}
	l.head, l.size = 0, 0
}

func withErr(details map[string]any, err error) map[string]any {
	if err == nil {
		return details
	}
	out := make(map[string]any, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
