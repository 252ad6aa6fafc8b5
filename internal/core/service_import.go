package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/scorelog/internal/entry"
	"github.com/JonMunkholm/scorelog/internal/security"
)

// parsedRow is an import row that passed validation.
type parsedRow struct {
	line   int
	fields []string
	entry  entry.LogEntry
}

// ImportCSV merges the entries in src into the collection. Rows that fail
// parsing or validation, and rows whose id already exists, are skipped and
// counted; they never abort the batch. The collection is persisted once,
// and only when at least one row was added.
//
// The import itself fails with security.ErrRateLimited, ErrFileTooLarge,
// ErrEmptyFile or a storage error; in every failure case the collection is
// unchanged.
func (s *Service) ImportCSV(ctx context.Context, src Source) (ImportResult, error) {
	ctx, logger := opContext(ctx, "import_csv")
	start := time.Now()

	if src == nil {
		return ImportResult{}, ErrNoSource
	}
	result := ImportResult{FileName: src.Name()}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if d := s.limiter.Allow(); !d.Allowed {
		s.errLog.Security("import rate limited", map[string]any{
			"file":        src.Name(),
			"retry_after": d.RetryAfter.String(),
		})
		return result, fmt.Errorf("%w: try again in %s", security.ErrRateLimited, d.RetryAfter.Round(time.Second))
	}

	limit := s.cfg.Import.MaxFileSize
	if size := src.Size(); limit > 0 && size > limit {
		s.errLog.Import("import file too large", ErrFileTooLarge, map[string]any{
			"file":  src.Name(),
			"size":  size,
			"limit": limit,
		})
		return result, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, src.Name(), size, limit)
	}

	rc, err := src.Open()
	if err != nil {
		s.errLog.Import("open import source failed", err, map[string]any{"file": src.Name()})
		return result, err
	}
	defer rc.Close()

	rows, err := s.readImport(rc, &result)
	if err != nil {
		s.errLog.Import("import aborted", err, map[string]any{"file": src.Name(), "rows": result.TotalRows})
		logger.Warn("import aborted", "file", src.Name(), "error", err)
		result.Failed = nil
		return result, err
	}

	var imported, duplicates int
	err = s.mutate(ctx, func(c *entry.Collection) error {
		for _, row := range rows {
			if err := c.Add(row.entry); err != nil {
				duplicates++
				result.Failed = append(result.Failed, FailedRow{
					FileName:   src.Name(),
					LineNumber: row.line,
					Reason:     "an entry with this id already exists",
					Data:       row.fields,
				})
				continue
			}
			imported++
		}
		if imported == 0 {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		logger.Warn("import not saved", "file", src.Name(), "error", err)
		return ImportResult{FileName: src.Name()}, err
	}

	result.Imported = imported
	result.Skipped = result.TotalRows - imported
	result.Duration = time.Since(start)

	if len(result.Failed) > 0 {
		s.errLog.Import("import rows skipped", nil, map[string]any{
			"file":       src.Name(),
			"skipped":    result.Skipped,
			"duplicates": duplicates,
		})
	}
	logger.Info("import complete",
		"file", src.Name(),
		"rows", result.TotalRows,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"truncated", result.Truncated,
		"duration", result.Duration,
	)
	return result, nil
}

// readImport parses and validates every data row of r, recording failures
// in result. Only reader-level errors are returned.
func (s *Service) readImport(r io.Reader, result *ImportResult) ([]parsedRow, error) {
	maxRows := s.cfg.Import.MaxRows
	rr := newRowReader(WrapForImport(r, s.cfg.Import.MaxFileSize))

	fail := func(line int, fields []string, reason string) {
		result.Failed = append(result.Failed, FailedRow{
			FileName:   result.FileName,
			LineNumber: line,
			Reason:     reason,
			Data:       fields,
		})
	}

	var rows []parsedRow
	for {
		row, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if maxRows > 0 && result.TotalRows >= maxRows {
			result.Truncated = true
			break
		}
		result.TotalRows++

		if row.Err != nil {
			fail(row.Line, row.Fields, "malformed row: "+row.Err.Error())
			continue
		}
		raw, err := splitRow(row.Fields)
		if err != nil {
			fail(row.Line, row.Fields, err.Error())
			continue
		}

		e, err := s.build(candidate{
			ID:        raw.ID,
			Date:      NormalizeDate(raw.Date),
			DomainKey: raw.DomainKey,
			Score:     normalizeScore(raw.Score),
			Note:      raw.Note,
		})
		if err != nil {
			var invalid *InvalidEntryError
			if errors.As(err, &invalid) {
				fail(row.Line, row.Fields, invalid.Result.Summary())
			} else {
				fail(row.Line, row.Fields, err.Error())
			}
			continue
		}
		rows = append(rows, parsedRow{line: row.Line, fields: row.Fields, entry: e})
	}
	return rows, nil
}

// ImportText imports CSV held in memory.
func (s *Service) ImportText(ctx context.Context, text string) (ImportResult, error) {
	return s.ImportCSV(ctx, TextSource(text))
}

// ExportCSV writes the collection to w in the default sort order.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	_, logger := opContext(ctx, "export_csv")

	entries := s.Entries(entry.DefaultSort)
	if err := EncodeCSV(w, entries); err != nil {
		s.errLog.Storage("export failed", err, map[string]any{"entries": len(entries)})
		return err
	}
	logger.Info("export complete", "entries", len(entries))
	return nil
}

// ExportText returns the collection as CSV text.
func (s *Service) ExportText(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	if err := s.ExportCSV(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
