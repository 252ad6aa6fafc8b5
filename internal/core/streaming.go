package core

// streaming.go provides the reader chain an import is parsed through.
//
// The readers wrap io.Reader so the file is never loaded into memory whole:
//
//   - SizeLimitedReader: counts raw bytes and fails with ErrFileTooLarge
//     once the cap is passed
//   - BOMSkippingReader: removes a leading UTF-8 BOM (0xEF 0xBB 0xBF)
//   - runes.ReplaceIllFormed: replaces invalid UTF-8 with U+FFFD
//
// Use WrapForImport to apply all of them in the correct order.

import (
	"bufio"
	"bytes"
	"io"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	reader  *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: bufio.NewReader(r)}
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		if head, err := r.reader.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			if _, err := r.reader.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return r.reader.Read(p)
}

// SizeLimitedReader counts bytes read and fails once more than Limit bytes
// have been read. A non-positive Limit disables the cap.
type SizeLimitedReader struct {
	reader    io.Reader
	BytesRead int64
	Limit     int64
}

// NewSizeLimitedReader wraps r with a byte cap.
func NewSizeLimitedReader(r io.Reader, limit int64) *SizeLimitedReader {
	return &SizeLimitedReader{reader: r, Limit: limit}
}

// Read implements io.Reader.
func (r *SizeLimitedReader) Read(p []byte) (int, error) {
	if r.Limit > 0 {
		if r.BytesRead > r.Limit {
			return 0, ErrFileTooLarge
		}
		// Read at most one byte past the cap so overflow is detected
		// without consuming the rest of the source.
		if remaining := r.Limit + 1 - r.BytesRead; int64(len(p)) > remaining {
			p = p[:remaining]
		}
	}

	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.Limit > 0 && r.BytesRead > r.Limit {
		return 0, ErrFileTooLarge
	}
	return n, err
}

// WrapForImport applies the size cap to the raw bytes, then BOM skipping,
// then UTF-8 repair.
func WrapForImport(r io.Reader, limit int64) io.Reader {
	limited := NewSizeLimitedReader(r, limit)
	return transform.NewReader(NewBOMSkippingReader(limited), runes.ReplaceIllFormed())
}
