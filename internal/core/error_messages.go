// Package core provides the business logic for the score log.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// Messages are short and non-technical; the technical error stays in the
// in-memory error log and in slog output.
//
// Error codes are grouped by category:
//
// # Entry Errors (ENT001-ENT099)
//
//	ENT001 - Entry not found: No entry with this id exists
//	         Action: List entries to find the correct id
//	         Patterns: "entry not found"
//
//	ENT002 - Duplicate id: An entry with this id already exists
//	         Action: Please try again
//	         Patterns: "duplicate entry id"
//
// # Security (SEC001-SEC099)
//
//	SEC001 - Disallowed content: The text contains content that is not allowed
//	         Action: Remove markup or script-like text and try again
//	         Patterns: "disallowed content"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL002 - Invalid number: Score must be a number
//	         Patterns: "must be a number"
//
//	VAL003 - Unknown assessment: The assessment is not in the catalog
//	         Patterns: "is not a known assessment"
//
//	VAL004 - Unsupported language: The language code is not supported
//	         Patterns: "unsupported language"
//
//	VAL005 - Invalid date: Date must use YYYY-MM-DD
//	         Patterns: "must be a date"
//
//	VAL001 - Invalid entry: Some fields are not valid (fallback for the above)
//	         Patterns: "invalid entry"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE003 - File not found
//	FILE004 - No file
//	FILE005 - Empty file
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Storage unavailable: saved data cannot be read or written
//	STO002 - Encode failure: the data could not be saved
//	STO003 - Read-only store
//
// # Import (IMP001-IMP099)
//
//	IMP001 - Import failed to start
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many imports
//	RATE002 - Busy: another change is still being saved
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. ERR001 and ERR002 cover
// cancellation and timeouts.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Entry Errors (ENT001-ENT002)
	// =========================================================================
	{
		pattern: "entry not found",
		msg: UserMessage{
			Message: "No entry with this id exists",
			Action:  "List entries to find the correct id",
			Code:    "ENT001",
		},
	},
	{
		pattern: "duplicate entry id",
		msg: UserMessage{
			Message: "An entry with this id already exists",
			Action:  "Please try again",
			Code:    "ENT002",
		},
	},

	// =========================================================================
	// Security (SEC001)
	// Checked before validation: screening failures are reported as entry
	// validation errors too.
	// =========================================================================
	{
		pattern: "disallowed content",
		msg: UserMessage{
			Message: "The text contains content that is not allowed",
			Action:  "Remove markup or script-like text and try again",
			Code:    "SEC001",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL005)
	// =========================================================================
	{
		pattern: "must be a number",
		msg: UserMessage{
			Message: "Score must be a number",
			Action:  "Enter digits only, for example 12 or 7.5",
			Code:    "VAL002",
		},
	},
	{
		pattern: "is not a known assessment",
		msg: UserMessage{
			Message: "The assessment is not in the catalog",
			Action:  "Run 'scorelog domains' to see the available assessments",
			Code:    "VAL003",
		},
	},
	{
		pattern: "unsupported language",
		msg: UserMessage{
			Message: "The language is not supported",
			Action:  "Choose one of the listed language codes",
			Code:    "VAL004",
		},
	},
	{
		pattern: "must be a date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYY-MM-DD, for example 2024-01-15",
			Code:    "VAL005",
		},
	},
	{
		pattern: "invalid entry",
		msg: UserMessage{
			Message: "Some fields are not valid",
			Action:  "Check the highlighted fields and try again",
			Code:    "VAL001",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum import size",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "File not found",
			Action:  "Check the file path",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please choose a CSV file to import",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file is empty",
			Action:  "Please import a CSV file with a header and data rows",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Storage Errors (STO001-STO003)
	// =========================================================================
	{
		pattern: "storage unavailable",
		msg: UserMessage{
			Message: "Saved data is not available on this device",
			Action:  "Check that the data directory exists and is writable",
			Code:    "STO001",
		},
	},
	{
		pattern: "cannot be encoded",
		msg: UserMessage{
			Message: "The data could not be saved",
			Action:  "Please try again",
			Code:    "STO002",
		},
	},
	{
		pattern: "read-only",
		msg: UserMessage{
			Message: "The data store is read-only",
			Action:  "Check permissions on the data directory",
			Code:    "STO003",
		},
	},

	// =========================================================================
	// Import Errors (IMP001)
	// =========================================================================
	{
		pattern: "open import file",
		msg: UserMessage{
			Message: "The import could not be started",
			Action:  "Check that the file can be read",
			Code:    "IMP001",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001-RATE002)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many imports",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "another change is in progress",
		msg: UserMessage{
			Message: "Another change is still being saved",
			Action:  "Please wait a moment and try again",
			Code:    "RATE002",
		},
	},

	// =========================================================================
	// Cancellation (ERR001-ERR002)
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The operation was cancelled",
			Action:  "Please try again",
			Code:    "ERR001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Please try again",
			Code:    "ERR002",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again; run 'scorelog stats' for details",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	msg := MapError(ErrEntryNotFound)
//	// msg.Code == "ENT001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
