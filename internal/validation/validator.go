// Package validation provides composable per-field rules and the validator
// that evaluates them against a record.
//
// A Validator is configured once with AddRule and then used read-only:
// Validate never mutates the record or the rule set. Rules other than
// Required treat an absent or blank value as passing, so optional fields only
// need Required when they are actually mandatory.
package validation

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/scorelog/internal/errlog"
)

// Record is the candidate value set, keyed by field name.
type Record map[string]any

// Rule is a named predicate plus the message reported when it fails.
// Check receives the field's value and the whole record.
type Rule struct {
	Name    string
	Message string
	Check   func(value any, rec Record) bool
}

// Result is the outcome of Validate. Fields without failures are absent
// from Errors.
type Result struct {
	Valid  bool                `json:"valid"`
	Errors map[string][]string `json:"errors"`
}

// Fields returns the names of failing fields, sorted.
func (r Result) Fields() []string {
	out := make([]string, 0, len(r.Errors))
	for f := range r.Errors {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Summary joins every failure as "field: message" in field order.
func (r Result) Summary() string {
	var parts []string
	for _, f := range r.Fields() {
		for _, msg := range r.Errors[f] {
			parts = append(parts, f+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

// Validator holds the rules registered per field.
type Validator struct {
	mu     sync.RWMutex
	order  []string
	rules  map[string][]Rule
	errLog *errlog.Log
}

// Option configures a Validator.
type Option func(*Validator)

// WithErrorLog records each rule failure in l.
func WithErrorLog(l *errlog.Log) Option {
	return func(v *Validator) { v.errLog = l }
}

// New returns an empty validator.
func New(opts ...Option) *Validator {
	v := &Validator{rules: make(map[string][]Rule)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// AddRule registers rules for field, replacing any earlier registration.
// Fields are evaluated in the order they were first registered.
func (v *Validator) AddRule(field string, rules ...Rule) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.rules[field]; !exists {
		v.order = append(v.order, field)
	}
	v.rules[field] = append([]Rule(nil), rules...)
}

// Fields returns the registered field names in evaluation order.
func (v *Validator) Fields() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.order...)
}

// Validate evaluates every registered rule against rec.
func (v *Validator) Validate(rec Record) Result {
	v.mu.RLock()
	defer v.mu.RUnlock()

	result := Result{Valid: true, Errors: make(map[string][]string)}

	for _, field := range v.order {
		value := rec[field]
		for _, rule := range v.rules[field] {
			msg, ok := v.evaluate(field, rule, value, rec)
			if ok {
				continue
			}
			result.Valid = false
			result.Errors[field] = append(result.Errors[field], msg)

			slog.Debug("validation rule failed", "field", field, "rule", rule.Name)
			v.errLog.Validation("validation rule failed", map[string]any{
				"field": field,
				"rule":  rule.Name,
			})
		}
	}

	return result
}

// evaluate runs one rule, converting a panic into a generic failure.
func (v *Validator) evaluate(field string, rule Rule, value any, rec Record) (msg string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("validation rule panicked", "field", field, "rule", rule.Name, "panic", fmt.Sprint(r))
			msg, ok = fmt.Sprintf("%s could not be validated", field), false
		}
	}()

	if rule.Check == nil {
		return "", true
	}
	if rule.Check(value, rec) {
		return "", true
	}
	return rule.Message, false
}
