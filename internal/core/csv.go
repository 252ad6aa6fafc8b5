package core

// csv.go encodes and decodes the entry collection as CSV.
//
// Export writes a UTF-8 BOM, the header id,date,domainKey,score,note and
// one row per entry. The note is always quoted with embedded quotes doubled;
// other fields are quoted only when they contain a delimiter, a quote or a
// line break (RFC 4180).
//
// Import is RFC 4180 aware but lenient: quoted fields (including notes with
// commas or line breaks) are unquoted by encoding/csv with LazyQuotes, and
// any fields beyond the fourth are rejoined with commas as the note, so an
// unquoted note containing commas still survives.
//
// Records are assembled from physical lines before decoding. A quoted field
// that is still open at the end of the input, or whose next line reads as a
// data row of its own, makes only the opening line malformed; decoding
// resumes on the following line.

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/scorelog/internal/entry"
)

// Header is the CSV header row.
var Header = func() []string {
	out := make([]string, len(entry.Fields))
	for i, f := range entry.Fields {
		out[i] = string(f)
	}
	return out
}()

// EncodeCSV writes entries as CSV to w.
func EncodeCSV(w io.Writer, entries []entry.LogEntry) error {
	bw := bufio.NewWriter(w)

	bw.Write(utf8BOM)
	bw.WriteString(strings.Join(Header, ","))
	bw.WriteByte('\n')

	for _, e := range entries {
		bw.WriteString(quoteField(e.ID, false))
		bw.WriteByte(',')
		bw.WriteString(quoteField(e.Date, false))
		bw.WriteByte(',')
		bw.WriteString(quoteField(e.DomainKey, false))
		bw.WriteByte(',')
		bw.WriteString(entry.FormatScore(e.Score))
		bw.WriteByte(',')
		bw.WriteString(quoteField(e.Note, true))
		bw.WriteByte('\n')
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// quoteField quotes s when always is set or s needs quoting.
func quoteField(s string, always bool) string {
	if !always && !strings.ContainsAny(s, ",\"\r\n") && strings.TrimSpace(s) == s {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// errUnterminatedQuote marks a row whose quoted field never closes.
var errUnterminatedQuote = errors.New("unterminated quoted field")

// csvRow is one decoded data record.
type csvRow struct {
	Line   int
	Fields []string
	Err    error // parse error confined to this record
}

// physLine is one input line without its terminator.
type physLine struct {
	n    int
	text string
}

// rowReader yields data records, skipping the header and blank lines.
type rowReader struct {
	br         *bufio.Reader
	line       int
	eof        bool
	pending    []physLine // lines handed back after a malformed record
	headerSeen bool
}

func newRowReader(r io.Reader) *rowReader {
	return &rowReader{br: bufio.NewReader(r)}
}

// nextLine returns the next physical line, pending lines first.
func (rr *rowReader) nextLine() (physLine, error) {
	if len(rr.pending) > 0 {
		l := rr.pending[0]
		rr.pending = rr.pending[1:]
		return l, nil
	}
	if rr.eof {
		return physLine{}, io.EOF
	}

	text, err := rr.br.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return physLine{}, err
		}
		rr.eof = true
		if text == "" {
			return physLine{}, io.EOF
		}
	}
	rr.line++
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	return physLine{n: rr.line, text: text}, nil
}

// unread hands lines back to be read again, ahead of anything pending.
func (rr *rowReader) unread(lines ...physLine) {
	rr.pending = append(append([]physLine(nil), lines...), rr.pending...)
}

// Next returns the next data row. It returns io.EOF at the end, ErrEmptyFile
// when there was no header, and any reader error (such as ErrFileTooLarge)
// as is. CSV syntax errors are returned inside the row.
func (rr *rowReader) Next() (csvRow, error) {
	for {
		first, err := rr.nextLine()
		if errors.Is(err, io.EOF) {
			if !rr.headerSeen {
				return csvRow{}, ErrEmptyFile
			}
			return csvRow{}, io.EOF
		}
		if err != nil {
			return csvRow{}, err
		}

		lines := []physLine{first}
		open := quoteOpen(first.text, false)
		malformed := false
		for open {
			next, err := rr.nextLine()
			if errors.Is(err, io.EOF) {
				malformed = true
				break
			}
			if err != nil {
				return csvRow{}, err
			}
			if rr.headerSeen && looksLikeRow(next.text) {
				rr.unread(next)
				malformed = true
				break
			}
			lines = append(lines, next)
			open = quoteOpen(next.text, true)
		}

		if malformed {
			rr.unread(lines[1:]...)
			if !rr.headerSeen {
				rr.headerSeen = true
				continue
			}
			fields, _ := decodeRecord(first.text)
			return csvRow{Line: first.n, Fields: fields, Err: errUnterminatedQuote}, nil
		}

		text := first.text
		for _, l := range lines[1:] {
			text += "\n" + l.text
		}
		fields, err := decodeRecord(text)
		if err != nil && !errors.Is(err, io.EOF) {
			if !rr.headerSeen {
				rr.headerSeen = true
				continue
			}
			return csvRow{Line: first.n, Fields: fields, Err: err}, nil
		}
		if isBlankRecord(fields) {
			continue
		}
		if !rr.headerSeen {
			rr.headerSeen = true
			continue
		}
		return csvRow{Line: first.n, Fields: fields}, nil
	}
}

// decodeRecord decodes one assembled record. Blank text yields io.EOF.
func decodeRecord(text string) ([]string, error) {
	if !strings.Contains(text, `"`) {
		if text == "" {
			return nil, io.EOF
		}
		return strings.Split(text, ","), nil
	}
	cr := csv.NewReader(strings.NewReader(text))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr.Read()
}

// quoteOpen reports whether a quoted field is open at the end of line,
// given whether one was open at its start. It follows encoding/csv with
// LazyQuotes: a quote opens a field only as its first character, and inside
// a quoted field a quote closes it only before a comma or the line end.
func quoteOpen(line string, open bool) bool {
	fieldStart := !open
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case open:
			if c != '"' {
				continue
			}
			if i+1 < len(line) && line[i+1] == '"' {
				i++
				continue
			}
			if i+1 == len(line) || line[i+1] == ',' {
				open = false
			}
		case c == '"' && fieldStart:
			open = true
			fieldStart = false
		case c == ',':
			fieldStart = true
		default:
			fieldStart = false
		}
	}
	return open
}

// looksLikeRow reports whether line decodes on its own as a data row: a
// non-empty id, a date, a domain key and a numeric score.
func looksLikeRow(line string) bool {
	fields, err := decodeRecord(line)
	if err != nil || len(fields) < 4 {
		return false
	}
	raw, err := splitRow(fields)
	if err != nil || raw.ID == "" || raw.DomainKey == "" {
		return false
	}
	if _, err := time.Parse(entry.DateLayout, NormalizeDate(raw.Date)); err != nil {
		return false
	}
	_, ok := ParseScore(raw.Score)
	return ok
}

func isBlankRecord(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// rawFields holds the cells of a data row split into entry fields.
type rawFields struct {
	ID        string
	Date      string
	DomainKey string
	Score     string
	Note      string
}

// splitRow maps a record onto entry fields. The first four cells are id,
// date, domainKey and score; the rest is the note.
func splitRow(fields []string) (rawFields, error) {
	if len(fields) < 4 {
		return rawFields{}, fmt.Errorf("expected at least 4 columns, got %d", len(fields))
	}
	return rawFields{
		ID:        CleanCell(fields[0]),
		Date:      CleanCell(fields[1]),
		DomainKey: CleanCell(fields[2]),
		Score:     fields[3],
		Note:      strings.Join(fields[4:], ","),
	}, nil
}

// EncodeFailedRows writes skipped import rows as CSV: line, reason, then the
// row's original cells.
func EncodeFailedRows(w io.Writer, rows []FailedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"line", "reason", "data"}); err != nil {
		return fmt.Errorf("write failed rows: %w", err)
	}
	for _, row := range rows {
		rec := append([]string{strconv.Itoa(row.LineNumber), row.Reason}, row.Data...)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write failed rows: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
