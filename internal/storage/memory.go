package storage

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrReadOnly is returned by MemoryBackend writes while read-only.
var ErrReadOnly = errors.New("store is read-only")

// MemoryBackend is a map-backed Backend for tests and the "memory" driver.
type MemoryBackend struct {
	mu       sync.RWMutex
	data     map[string][]byte
	readOnly bool
}

// NewMemory returns an empty, writable MemoryBackend.
func NewMemory() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// SetReadOnly makes every write fail with ErrReadOnly.
func (m *MemoryBackend) SetReadOnly(readOnly bool) {
	m.mu.Lock()
	m.readOnly = readOnly
	m.mu.Unlock()
}

func (m *MemoryBackend) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryBackend) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readOnly {
		return ErrReadOnly
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readOnly {
		return ErrReadOnly
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryBackend) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryBackend) Close() error { return nil }
