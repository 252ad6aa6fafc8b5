// Package security provides input sanitization, malicious-content screening,
// rate limiting and token helpers for untrusted text entering scorelog.
//
// The malicious-content check is a denylist. It catches the common script
// injection shapes but is not a complete XSS defence; anything rendered later
// should still go through SanitizeHTML.
package security

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// maxSanitizePasses bounds the strip-until-stable loop in SanitizeInput.
const maxSanitizePasses = 5

var (
	protocolPattern     = regexp.MustCompile(`(?i)(?:java|vb)script\s*:`)
	eventHandlerPattern = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)
	dataURIPattern      = regexp.MustCompile(`(?i)\bdata\s*:`)
)

// maliciousPatterns is the denylist used by ContainsMaliciousContent.
var maliciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script\b`),
	regexp.MustCompile(`(?i)<\s*/\s*script\s*>`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)vbscript\s*:`),
	regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
	regexp.MustCompile(`(?i)<\s*(?:iframe|object|embed|form)\b`),
	regexp.MustCompile(`(?i)\beval\s*\(`),
	regexp.MustCompile(`\bFunction\s*\(`),
	regexp.MustCompile(`(?i)\bset(?:Timeout|Interval)\s*\(`),
}

// SanitizeInput coerces v to a string and strips constructs that could
// execute when rendered: angle brackets, script protocol prefixes, inline
// event-handler attributes and data: URIs. Stripping repeats until the
// output is stable so removals cannot splice a new pattern together.
func SanitizeInput(v any) string {
	s := toString(v)
	s = norm.NFC.String(s)

	for i := 0; i < maxSanitizePasses; i++ {
		next := strings.NewReplacer("<", "", ">", "").Replace(s)
		next = protocolPattern.ReplaceAllString(next, "")
		next = eventHandlerPattern.ReplaceAllString(next, "")
		next = dataURIPattern.ReplaceAllString(next, "")
		if next == s {
			break
		}
		s = next
	}

	return strings.TrimSpace(s)
}

// SanitizeHTML escapes markup-significant characters by rendering s as a
// single HTML text node, so the result can be placed in a document as
// plain text.
func SanitizeHTML(s string) string {
	var b strings.Builder
	node := &html.Node{Type: html.TextNode, Data: s}
	if err := html.Render(&b, node); err != nil {
		return html.EscapeString(s)
	}
	return b.String()
}

// ContainsMaliciousContent reports whether s matches any denylisted script
// injection pattern.
func ContainsMaliciousContent(s string) bool {
	if s == "" {
		return false
	}
	for _, p := range maliciousPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
