package core

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Draft is the raw input for a new entry, before sanitization and validation.
// Score may be a number or numeric text.
type Draft struct {
	Date      string
	DomainKey string
	Score     any
	Note      string
}

// FailedRow describes an import row that was not added.
type FailedRow struct {
	FileName   string   `json:"fileName"`
	LineNumber int      `json:"line"`
	Reason     string   `json:"reason"`
	Data       []string `json:"data,omitempty"`
}

// ImportResult is the outcome of an import.
type ImportResult struct {
	FileName  string        `json:"fileName"`
	TotalRows int           `json:"totalRows"` // Data rows examined
	Imported  int           `json:"imported"`  // Rows added to the collection
	Skipped   int           `json:"skipped"`   // Rows rejected or already present
	Truncated bool          `json:"truncated"` // Rows beyond the row cap were ignored
	Failed    []FailedRow   `json:"failed,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Source delivers import file contents with metadata.
// Size returns -1 when the size is not known in advance.
type Source interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// FileSource reads an import from the filesystem.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string { return f.Path }

func (f FileSource) Size() int64 {
	info, err := os.Stat(f.Path)
	if err != nil {
		return -1
	}
	return info.Size()
}

func (f FileSource) Open() (io.ReadCloser, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	return file, nil
}

// ReaderSource adapts an io.Reader (stdin, an in-memory string) to Source.
type ReaderSource struct {
	name string
	size int64
	r    io.Reader
}

// NewReaderSource wraps r. Pass size -1 when unknown.
func NewReaderSource(name string, r io.Reader, size int64) *ReaderSource {
	return &ReaderSource{name: name, size: size, r: r}
}

// TextSource wraps CSV text held in memory.
func TextSource(text string) *ReaderSource {
	return NewReaderSource("text", strings.NewReader(text), int64(len(text)))
}

func (s *ReaderSource) Name() string { return s.name }
func (s *ReaderSource) Size() int64  { return s.size }

func (s *ReaderSource) Open() (io.ReadCloser, error) {
	if s.r == nil {
		return nil, ErrNoSource
	}
	return io.NopCloser(s.r), nil
}

// Supported display-language codes. Only the code is stored; text catalogs
// belong to the presentation layer.
var SupportedLanguages = []string{"en", "es", "fr", "de", "pt", "it", "nl", "ar", "hi", "zh", "ja"}

// DefaultLanguage is used until a language is chosen.
const DefaultLanguage = "en"
