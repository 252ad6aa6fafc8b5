package security

import (
	"regexp"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// InputKind selects the type-specific handling in ValidateAndSanitize.
type InputKind int

const (
	KindText InputKind = iota
	KindHTML
	KindNumber
	KindDate
	KindEmail
)

// Options bounds the sanitized length (in characters). Zero means unbounded.
type Options struct {
	MinLength int
	MaxLength int
}

// Result is the outcome of ValidateAndSanitize.
type Result struct {
	Valid     bool
	Sanitized string
	Error     string
}

var nonNumeric = regexp.MustCompile(`[^0-9]`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// formatValidator returns the shared validator instance used for the
// date and email kinds.
func formatValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateAndSanitize screens untrusted input and returns its sanitized form.
//
// Nil input and input matching the malicious-content denylist are rejected
// outright. The kind decides how the text is cleaned: plain text via
// SanitizeInput, HTML-escaped, digits only, an ISO YYYY-MM-DD date, or an
// email address. Length bounds apply to the sanitized value.
func ValidateAndSanitize(input any, kind InputKind, opts Options) Result {
	if input == nil {
		return Result{Error: "Input is required"}
	}

	raw := toString(input)
	if ContainsMaliciousContent(raw) {
		return Result{Error: "Input contains potentially harmful content"}
	}

	var sanitized string
	switch kind {
	case KindHTML:
		sanitized = SanitizeHTML(raw)
	case KindNumber:
		sanitized = nonNumeric.ReplaceAllString(raw, "")
	case KindDate:
		sanitized = SanitizeInput(raw)
		if err := formatValidator().Var(sanitized, "datetime=2006-01-02"); err != nil {
			return Result{Sanitized: sanitized, Error: "Invalid date format (use YYYY-MM-DD)"}
		}
	case KindEmail:
		sanitized = SanitizeInput(raw)
		if err := formatValidator().Var(sanitized, "email"); err != nil {
			return Result{Sanitized: sanitized, Error: "Invalid email address"}
		}
	default:
		sanitized = SanitizeInput(raw)
	}

	n := utf8.RuneCountInString(sanitized)
	if opts.MinLength > 0 && n < opts.MinLength {
		return Result{Sanitized: sanitized, Error: "Input is too short"}
	}
	if opts.MaxLength > 0 && n > opts.MaxLength {
		return Result{Sanitized: sanitized, Error: "Input is too long"}
	}

	return Result{Valid: true, Sanitized: sanitized}
}
