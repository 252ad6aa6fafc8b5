package core

// convert.go turns user-typed and imported cell text into entry values.
//
// These functions handle the messy reality of hand-edited CSV files:
//   - Scores written with non-ASCII digits (full-width, Arabic-Indic,
//     Devanagari and other decimal scripts) or a decimal comma
//   - Dates in common non-ISO layouts
//   - Excel formula prefixes (="value") and stray quotes around cells

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"

	"github.com/JonMunkholm/scorelog/internal/entry"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// digitZeros lists the code point of zero in each decimal-digit script
// folded by NormalizeNumerals. Full-width digits are handled by width folding.
var digitZeros = []rune{
	0x0660, // Arabic-Indic
	0x06F0, // Extended Arabic-Indic (Persian, Urdu)
	0x0966, // Devanagari
	0x09E6, // Bengali
	0x0A66, // Gurmukhi
	0x0AE6, // Gujarati
	0x0BE6, // Tamil
	0x0C66, // Telugu
	0x0CE6, // Kannada
	0x0D66, // Malayalam
	0x0E50, // Thai
	0x1040, // Myanmar
}

var separatorReplacer = strings.NewReplacer(
	"\u066b", ".", // Arabic decimal separator
	"\u066c", "", // Arabic thousands separator
	"\u2212", "-", // minus sign
	"\u00a0", "", // no-break space
	"\u202f", "", // narrow no-break space
	"\u2009", "", // thin space
	"'", "", // Swiss thousands separator
)

// foldDigits maps full-width characters to ASCII and every listed
// decimal-digit script to 0-9.
func foldDigits(s string) string {
	s = width.Narrow.String(s)
	return strings.Map(func(r rune) rune {
		if r < 0x80 {
			return r
		}
		for _, zero := range digitZeros {
			if r >= zero && r <= zero+9 {
				return '0' + (r - zero)
			}
		}
		return r
	}, s)
}

// NormalizeNumerals folds locale-specific digits and separators in s to
// ASCII. A lone comma is read as a decimal comma; when both comma and dot
// appear, the one that comes last is the decimal separator.
func NormalizeNumerals(s string) string {
	s = separatorReplacer.Replace(foldDigits(strings.TrimSpace(s)))

	comma := strings.LastIndexByte(s, ',')
	dot := strings.LastIndexByte(s, '.')
	switch {
	case comma < 0:
	case dot < 0 && strings.Count(s, ",") == 1:
		s = strings.Replace(s, ",", ".", 1)
	case comma > dot:
		// 1.234,5
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	default:
		// 1,234.5
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}

// ParseScore converts score text to a finite number.
func ParseScore(s string) (float64, bool) {
	s = NormalizeNumerals(CleanCell(s))
	if s == "" || !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// dateLayouts are the non-ISO layouts NormalizeDate accepts, four-digit
// years only. Slash dates are read month first.
var dateLayouts = []string{
	"2006/01/02", "2006.01.02", "2006-1-2",
	"1/2/2006", "01/02/2006",
	"02.01.2006", "2.1.2006",
	"Jan 2, 2006", "2 Jan 2006", "January 2, 2006",
	"20060102",
}

// NormalizeDate returns s as YYYY-MM-DD when it parses as ISO or one of the
// accepted layouts. Otherwise s is returned trimmed and unchanged, for the
// validator to reject.
func NormalizeDate(s string) string {
	s = foldDigits(strings.TrimSpace(s))
	if _, err := time.Parse(entry.DateLayout, s); err == nil {
		return s
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(entry.DateLayout)
		}
	}
	return s
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
