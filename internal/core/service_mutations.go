package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/scorelog/internal/entry"
	"github.com/JonMunkholm/scorelog/internal/security"
	"github.com/JonMunkholm/scorelog/internal/validation"
)

// candidate is an entry's field values after cleanup, before validation.
// Score holds a float64 when the input parsed, or the raw text otherwise.
type candidate struct {
	ID        string
	Date      string
	DomainKey string
	Score     any
	Note      string
}

func (c candidate) record() validation.Record {
	return validation.Record{
		string(entry.FieldID):        c.ID,
		string(entry.FieldDate):      c.Date,
		string(entry.FieldDomainKey): c.DomainKey,
		string(entry.FieldScore):     c.Score,
		string(entry.FieldNote):      c.Note,
	}
}

// normalizeScore parses numeric text. Anything that does not parse is
// returned as is for the numeric rule to report.
func normalizeScore(v any) any {
	switch t := v.(type) {
	case string:
		if f, ok := ParseScore(t); ok {
			return f
		}
		return t
	case nil:
		return nil
	}
	if f, ok := validation.ToFloat(v); ok {
		return f
	}
	return v
}

// newlineReplacer folds CRLF and lone CR line breaks to LF, the form CSV
// import yields.
var newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// build validates c and converts it to an entry. The date and note also go
// through the security layer's typed checks, whose sanitized values are
// stored. On failure the error is an *InvalidEntryError.
func (s *Service) build(c candidate) (entry.LogEntry, error) {
	c.Note = newlineReplacer.Replace(c.Note)
	res := s.validator.Validate(c.record())

	if security.ContainsMaliciousContent(c.Note) || security.ContainsMaliciousContent(c.ID) {
		s.errLog.Security("entry rejected by content screening", map[string]any{
			"id":     c.ID,
			"fields": res.Fields(),
		})
		return entry.LogEntry{}, &InvalidEntryError{Result: res, Rejected: true}
	}

	date := security.ValidateAndSanitize(c.Date, security.KindDate, security.Options{})
	note := security.ValidateAndSanitize(c.Note, security.KindText, security.Options{
		MaxLength: s.cfg.Entry.MaxNoteLength,
	})
	if c.Date != "" {
		mergeScreen(&res, entry.FieldDate, date)
	}
	mergeScreen(&res, entry.FieldNote, note)

	if !res.Valid {
		return entry.LogEntry{}, &InvalidEntryError{Result: res}
	}

	score, _ := validation.ToFloat(c.Score)
	return entry.LogEntry{
		ID:        c.ID,
		Date:      date.Sanitized,
		DomainKey: c.DomainKey,
		Score:     score,
		Note:      note.Sanitized,
	}, nil
}

// mergeScreen adds a failed security check to res unless the validator
// already reported the field.
func mergeScreen(res *validation.Result, field entry.Field, r security.Result) {
	if r.Valid || len(res.Errors[string(field)]) > 0 {
		return
	}
	if res.Errors == nil {
		res.Errors = make(map[string][]string)
	}
	res.Errors[string(field)] = append(res.Errors[string(field)], r.Error)
	res.Valid = false
}

// AddEntry validates d and appends it under a new id.
func (s *Service) AddEntry(ctx context.Context, d Draft) (entry.LogEntry, error) {
	ctx, logger := opContext(ctx, "add_entry")

	e, err := s.build(candidate{
		ID:        entry.NewID(),
		Date:      NormalizeDate(d.Date),
		DomainKey: security.SanitizeInput(d.DomainKey),
		Score:     normalizeScore(d.Score),
		Note:      d.Note,
	})
	if err != nil {
		logger.Info("entry rejected", "error", err)
		return entry.LogEntry{}, err
	}

	err = s.mutate(ctx, func(c *entry.Collection) error {
		return c.Add(e)
	})
	if err != nil {
		logger.Warn("add entry failed", "error", err)
		return entry.LogEntry{}, err
	}

	logger.Info("entry added", "id", e.ID, "domain", e.DomainKey)
	return e, nil
}

// DeleteEntry removes the entry with id.
func (s *Service) DeleteEntry(ctx context.Context, id string) error {
	ctx, logger := opContext(ctx, "delete_entry")

	err := s.mutate(ctx, func(c *entry.Collection) error {
		if !c.Remove(id) {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
		}
		return nil
	})
	if err != nil {
		logger.Info("delete entry failed", "id", id, "error", err)
		return err
	}

	logger.Info("entry deleted", "id", id)
	return nil
}

// ClearEntries removes every entry and returns how many were removed.
func (s *Service) ClearEntries(ctx context.Context) (int, error) {
	ctx, logger := opContext(ctx, "clear_entries")

	var removed int
	err := s.mutate(ctx, func(c *entry.Collection) error {
		removed = c.Len()
		c.Reset()
		return nil
	})
	if err != nil {
		logger.Warn("clear entries failed", "error", err)
		return 0, err
	}

	logger.Info("entries cleared", "removed", removed)
	return removed, nil
}
