// Package entry defines the log entry model and the collection that owns it.
package entry

import (
	"errors"
	"strconv"

	"github.com/google/uuid"
)

// Field is one of the closed set of entry fields. The order of Fields is the
// CSV header order.
type Field string

const (
	FieldID        Field = "id"
	FieldDate      Field = "date"
	FieldDomainKey Field = "domainKey"
	FieldScore     Field = "score"
	FieldNote      Field = "note"
)

// Fields lists every entry field in canonical order.
var Fields = []Field{FieldID, FieldDate, FieldDomainKey, FieldScore, FieldNote}

// ParseField returns the Field named s.
func ParseField(s string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// DateLayout is the calendar date format used for LogEntry.Date.
const DateLayout = "2006-01-02"

// LogEntry is one scored self-assessment record. Entries are values and are
// never mutated once they are in a collection.
type LogEntry struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	DomainKey string  `json:"domainKey"`
	Score     float64 `json:"score"`
	Note      string  `json:"note,omitempty"`
}

// Value returns the field's value in the form the validator consumes.
func (e LogEntry) Value(f Field) any {
	switch f {
	case FieldID:
		return e.ID
	case FieldDate:
		return e.Date
	case FieldDomainKey:
		return e.DomainKey
	case FieldScore:
		return e.Score
	case FieldNote:
		return e.Note
	}
	return nil
}

// Record converts the entry to a field-name keyed map.
func (e LogEntry) Record() map[string]any {
	rec := make(map[string]any, len(Fields))
	for _, f := range Fields {
		rec[string(f)] = e.Value(f)
	}
	return rec
}

// FormatScore renders a score in its shortest decimal form.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// NewID returns a time-ordered unique identifier for a new entry.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

var (
	// ErrDuplicateID is returned when adding an entry whose ID is taken.
	ErrDuplicateID = errors.New("duplicate entry id")

	// ErrEmptyID is returned when adding an entry without an ID.
	ErrEmptyID = errors.New("entry id is empty")
)
