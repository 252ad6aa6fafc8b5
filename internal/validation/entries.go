package validation

import (
	"github.com/JonMunkholm/scorelog/internal/catalog"
	"github.com/JonMunkholm/scorelog/internal/entry"
	"github.com/JonMunkholm/scorelog/internal/errlog"
)

// MaxIDLength bounds entry identifiers.
const MaxIDLength = 128

// EntryOptions tunes the built-in entry rules.
type EntryOptions struct {
	MaxNoteLength     int  // Zero means 1000
	EnforceScoreRange bool // Reject scores outside the domain's advisory range
	ErrorLog          *errlog.Log
}

// ForEntries returns a validator with the built-in rules for log entries.
func ForEntries(provider catalog.Provider, opts EntryOptions) *Validator {
	if opts.MaxNoteLength <= 0 {
		opts.MaxNoteLength = 1000
	}

	v := New(WithErrorLog(opts.ErrorLog))
	v.AddRule(string(entry.FieldID), Required(), MaxLength(MaxIDLength), SafeContent())
	v.AddRule(string(entry.FieldDate), Required(), DateFormat(entry.DateLayout))
	v.AddRule(string(entry.FieldDomainKey), Required(), InCatalog(provider))

	scoreRules := []Rule{Required(), Numeric()}
	if opts.EnforceScoreRange {
		scoreRules = append(scoreRules, DomainRange(provider, string(entry.FieldDomainKey)))
	}
	v.AddRule(string(entry.FieldScore), scoreRules...)

	v.AddRule(string(entry.FieldNote), MaxLength(opts.MaxNoteLength), SafeContent())
	return v
}

// ValidateEntry validates e's fields.
func (v *Validator) ValidateEntry(e entry.LogEntry) Result {
	return v.Validate(Record(e.Record()))
}
