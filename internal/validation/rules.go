package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JonMunkholm/scorelog/internal/catalog"
	"github.com/JonMunkholm/scorelog/internal/security"
)

// Required fails on nil and on strings that are blank after trimming.
func Required() Rule {
	return Rule{
		Name:    "required",
		Message: "is required",
		Check:   func(v any, _ Record) bool { return !isEmpty(v) },
	}
}

// Numeric fails unless the value is a finite number or numeric text.
func Numeric() Rule {
	return Rule{
		Name:    "numeric",
		Message: "must be a number",
		Check: optional(func(v any) bool {
			_, ok := ToFloat(v)
			return ok
		}),
	}
}

// Integer fails unless the value is a whole number.
func Integer() Rule {
	return Rule{
		Name:    "integer",
		Message: "must be a whole number",
		Check: optional(func(v any) bool {
			f, ok := ToFloat(v)
			return ok && f == math.Trunc(f)
		}),
	}
}

// Range fails unless the value is a number within [lo, hi].
func Range(lo, hi float64) Rule {
	return Rule{
		Name:    "range",
		Message: fmt.Sprintf("must be between %g and %g", lo, hi),
		Check: optional(func(v any) bool {
			f, ok := ToFloat(v)
			return ok && f >= lo && f <= hi
		}),
	}
}

// MaxLength fails when the value's text is longer than n characters.
func MaxLength(n int) Rule {
	return Rule{
		Name:    "maxLength",
		Message: fmt.Sprintf("must be at most %d characters", n),
		Check: optional(func(v any) bool {
			return utf8.RuneCountInString(text(v)) <= n
		}),
	}
}

// MinLength fails when the value's text is shorter than n characters.
func MinLength(n int) Rule {
	return Rule{
		Name:    "minLength",
		Message: fmt.Sprintf("must be at least %d characters", n),
		Check: optional(func(v any) bool {
			return utf8.RuneCountInString(text(v)) >= n
		}),
	}
}

// DateFormat fails unless the value parses with layout.
func DateFormat(layout string) Rule {
	return Rule{
		Name:    "dateFormat",
		Message: fmt.Sprintf("must be a date in the form %s", layout),
		Check: optional(func(v any) bool {
			_, err := time.Parse(layout, text(v))
			return err == nil
		}),
	}
}

// Custom wraps an arbitrary predicate. Unlike the built-in builders it is
// called for empty values too.
func Custom(name, message string, fn func(value any, rec Record) bool) Rule {
	return Rule{Name: name, Message: message, Check: fn}
}

// InCatalog fails unless the value is a domain key known to provider.
func InCatalog(provider catalog.Provider) Rule {
	return Rule{
		Name:    "inCatalog",
		Message: "is not a known assessment",
		Check: optional(func(v any) bool {
			_, ok := provider.Lookup(text(v))
			return ok
		}),
	}
}

// SafeContent fails when the value matches the malicious-content denylist.
func SafeContent() Rule {
	return Rule{
		Name:    "safeContent",
		Message: "contains disallowed content",
		Check: optional(func(v any) bool {
			return !security.ContainsMaliciousContent(text(v))
		}),
	}
}

// DomainRange fails when the score lies outside the advisory range of the
// domain named by rec[domainField]. Unknown domains and non-numeric scores
// pass; InCatalog and Numeric report those.
func DomainRange(provider catalog.Provider, domainField string) Rule {
	return Rule{
		Name:    "domainRange",
		Message: "is outside the assessment's score range",
		Check: func(v any, rec Record) bool {
			if isEmpty(v) {
				return true
			}
			d, ok := provider.Lookup(text(rec[domainField]))
			if !ok {
				return true
			}
			f, ok := ToFloat(v)
			if !ok {
				return true
			}
			return d.InRange(f)
		},
	}
}

func optional(fn func(v any) bool) func(any, Record) bool {
	return func(v any, _ Record) bool {
		if isEmpty(v) {
			return true
		}
		return fn(v)
	}
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return fmt.Sprint(t)
	}
}

// ToFloat converts numbers and numeric text to a finite float64.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint64:
		f = float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
