package core

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/scorelog/internal/validation"
)

var (
	// ErrEntryNotFound is returned when deleting an unknown id.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrFileTooLarge is returned when an import exceeds the size cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoSource is returned when an import has nothing to read.
	ErrNoSource = errors.New("no file provided")

	// ErrEmptyFile is returned when an import has no header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrUnsupportedLanguage is returned by SetLanguage for unknown codes.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// InvalidEntryError reports an entry rejected by validation or content
// screening. Result holds the per-field messages.
type InvalidEntryError struct {
	Result   validation.Result
	Rejected bool // failed malicious-content screening
}

func (e *InvalidEntryError) Error() string {
	if e.Rejected {
		return fmt.Sprintf("invalid entry (contains disallowed content): %s", e.Result.Summary())
	}
	return fmt.Sprintf("invalid entry: %s", e.Result.Summary())
}

// IsInvalidEntry reports whether err is an *InvalidEntryError.
func IsInvalidEntry(err error) bool {
	var ie *InvalidEntryError
	return errors.As(err, &ie)
}
