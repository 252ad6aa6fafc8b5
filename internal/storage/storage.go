// Package storage provides namespaced key-value persistence over a pluggable
// backend (BadgerDB, SQLite or memory).
//
// The Adapter probes its backend once at construction. When the probe fails
// the adapter stays usable but degraded: writes return ErrUnavailable and
// reads report a miss.
//
// The optional obfuscation is a repeating-key XOR followed by base64. It
// only keeps values from being readable at a glance. It is not encryption
// and provides no confidentiality against anyone holding the data files.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"

	"github.com/JonMunkholm/scorelog/internal/errlog"
)

var (
	// ErrNotFound is returned by backends for missing keys.
	ErrNotFound = errors.New("key not found")

	// ErrUnavailable is returned by Adapter writes when the backend failed
	// the availability probe.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrEncode is returned when a value cannot be serialized.
	ErrEncode = errors.New("value cannot be encoded")
)

// Backend is a flat byte-oriented key-value store.
type Backend interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
	Close() error
}

const probeKey = "__probe__"

// Adapter scopes a Backend to a namespace prefix.
type Adapter struct {
	backend   Backend
	namespace string
	key       string
	available bool
	errLog    *errlog.Log
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithObfuscationKey sets the XOR key used when obfuscating values.
func WithObfuscationKey(key string) Option {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// WithErrorLog records storage failures in l.
func WithErrorLog(l *errlog.Log) Option {
	return func(a *Adapter) { a.errLog = l }
}

// New wraps backend under namespace and probes it with a write and delete.
func New(backend Backend, namespace string, opts ...Option) *Adapter {
	a := &Adapter{
		backend:   backend,
		namespace: namespace,
		key:       DefaultObfuscationKey,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.available = a.probe()
	return a
}

func (a *Adapter) probe() bool {
	if a.backend == nil {
		a.errLog.Storage("storage backend missing", nil, nil)
		return false
	}
	k := a.namespace + probeKey
	if err := a.backend.Set(k, []byte("1")); err != nil {
		a.errLog.Storage("storage probe write failed", err, map[string]any{"namespace": a.namespace})
		return false
	}
	if err := a.backend.Delete(k); err != nil {
		a.errLog.Storage("storage probe delete failed", err, map[string]any{"namespace": a.namespace})
		return false
	}
	return true
}

// Available reports whether the probe succeeded.
func (a *Adapter) Available() bool {
	return a.available
}

// Namespace returns the key prefix.
func (a *Adapter) Namespace() string {
	return a.namespace
}

// SetItem stores value under key. Strings are stored verbatim and other
// values as JSON. With obfuscate set the text is XORed and base64-encoded.
func (a *Adapter) SetItem(key string, value any, obfuscate bool) error {
	if !a.available {
		return ErrUnavailable
	}

	text, ok := value.(string)
	if !ok {
		text = errlog.SafeStringify(value, "")
		if text == "" {
			a.errLog.Storage("encode value failed", ErrEncode, map[string]any{"key": key})
			return fmt.Errorf("%w: %s", ErrEncode, key)
		}
	}
	if obfuscate {
		text = Obfuscate(text, a.key)
	}

	if err := a.backend.Set(a.namespace+key, []byte(text)); err != nil {
		a.errLog.Storage("write failed", err, map[string]any{"key": key})
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// GetItem loads key into dst and reports whether it succeeded. A *string
// dst receives the stored text; any other dst is JSON-decoded, except that a
// *any dst falls back to the raw text when it is not JSON. Missing keys,
// corrupt data and an unavailable store all return false.
func (a *Adapter) GetItem(key string, deobfuscate bool, dst any) bool {
	if !a.available || dst == nil {
		return false
	}

	data, err := a.backend.Get(a.namespace + key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		a.errLog.Storage("read failed", err, map[string]any{"key": key})
		return false
	}

	text := string(data)
	if deobfuscate {
		text, err = Deobfuscate(text, a.key)
		if err != nil {
			slog.Debug("stored value is not obfuscated", "key", key, "error", err)
			return false
		}
	}

	switch d := dst.(type) {
	case *string:
		*d = text
		return true
	case *any:
		var v any
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			*d = text
			return true
		}
		*d = v
		return true
	}

	if err := json.Unmarshal([]byte(text), dst); err != nil {
		slog.Debug("stored value is not valid JSON", "key", key, "error", err)
		return false
	}
	return true
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (a *Adapter) RemoveItem(key string) error {
	if !a.available {
		return ErrUnavailable
	}
	if err := a.backend.Delete(a.namespace + key); err != nil && !errors.Is(err, ErrNotFound) {
		a.errLog.Storage("delete failed", err, map[string]any{"key": key})
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys under the namespace, without the prefix.
func (a *Adapter) Keys() ([]string, error) {
	if !a.available {
		return nil, ErrUnavailable
	}
	full, err := a.backend.Keys(a.namespace)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	out := make([]string, 0, len(full))
	for _, k := range full {
		out = append(out, strings.TrimPrefix(k, a.namespace))
	}
	return out, nil
}

// Clear deletes every key under the namespace and nothing else.
func (a *Adapter) Clear() error {
	if !a.available {
		return ErrUnavailable
	}
	keys, err := a.backend.Keys(a.namespace)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	for _, k := range keys {
		if err := a.backend.Delete(k); err != nil && !errors.Is(err, ErrNotFound) {
			a.errLog.Storage("clear failed", err, map[string]any{"key": k})
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}

// Close closes the backend.
func (a *Adapter) Close() error {
	if a.backend == nil {
		return nil
	}
	return a.backend.Close()
}
