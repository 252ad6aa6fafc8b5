package storage

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/scorelog/internal/errlog"
)

func newBadger(t *testing.T) *BadgerBackend {
	t.Helper()
	b, err := OpenBadger("", InMemory())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func backends(t *testing.T) map[string]Backend {
	return map[string]Backend{
		"memory": NewMemory(),
		"badger": newBadger(t),
	}
}

func TestAdapter_GetItemMissing(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a := New(b, "test_")
			if !a.Available() {
				t.Fatal("Available() = false")
			}
			var v any
			if a.GetItem("never-written", false, &v) {
				t.Errorf("GetItem(missing) = true, value %v", v)
			}
			if v != nil {
				t.Errorf("dst modified on miss: %v", v)
			}
		})
	}
}

func TestAdapter_RoundTripObject(t *testing.T) {
	for name, b := range backends(t) {
		for _, obfuscate := range []bool{false, true} {
			t.Run(name, func(t *testing.T) {
				a := New(b, "test_")
				if err := a.SetItem("obj", map[string]any{"a": 1}, obfuscate); err != nil {
					t.Fatalf("SetItem() error = %v", err)
				}

				var got map[string]any
				if !a.GetItem("obj", obfuscate, &got) {
					t.Fatal("GetItem() = false")
				}
				if want := map[string]any{"a": 1.0}; !reflect.DeepEqual(got, want) {
					t.Errorf("GetItem() = %v, want %v", got, want)
				}
			})
		}
	}
}

func TestAdapter_StringsStoredVerbatim(t *testing.T) {
	mem := NewMemory()
	a := New(mem, "ns_")

	if err := a.SetItem("language", "de", false); err != nil {
		t.Fatal(err)
	}
	raw, _ := mem.Get("ns_language")
	if string(raw) != "de" {
		t.Errorf("stored %q, want verbatim string", raw)
	}

	var s string
	if !a.GetItem("language", false, &s) || s != "de" {
		t.Errorf("GetItem(*string) = %q", s)
	}
	var v any
	if !a.GetItem("language", false, &v) || v != "de" {
		t.Errorf("GetItem(*any) = %v, want raw text fallback", v)
	}
}

func TestAdapter_ObfuscatedValueNotPlain(t *testing.T) {
	mem := NewMemory()
	a := New(mem, "ns_")

	if err := a.SetItem("entries", []string{"secret note"}, true); err != nil {
		t.Fatal(err)
	}
	raw, _ := mem.Get("ns_entries")
	if strings.Contains(string(raw), "secret") {
		t.Errorf("obfuscated value readable: %q", raw)
	}

	var plain []string
	if a.GetItem("entries", false, &plain) {
		t.Error("obfuscated value decoded without deobfuscation")
	}
}

func TestAdapter_CustomKey(t *testing.T) {
	mem := NewMemory()
	if err := New(mem, "ns_", WithObfuscationKey("k1")).SetItem("x", "hello", true); err != nil {
		t.Fatal(err)
	}

	var s string
	New(mem, "ns_", WithObfuscationKey("k2")).GetItem("x", true, &s)
	if s == "hello" {
		t.Error("different key decoded the value")
	}
	if !New(mem, "ns_", WithObfuscationKey("k1")).GetItem("x", true, &s) || s != "hello" {
		t.Errorf("GetItem() = %q, want hello", s)
	}
}

func TestAdapter_CorruptData(t *testing.T) {
	mem := NewMemory()
	a := New(mem, "ns_")
	mem.Set("ns_bad", []byte("{not json"))

	var m map[string]any
	if a.GetItem("bad", false, &m) {
		t.Error("GetItem(corrupt) = true")
	}
	if a.GetItem("bad", true, &m) {
		t.Error("GetItem(corrupt, deobfuscate) = true")
	}
}

func TestAdapter_EncodeFailure(t *testing.T) {
	log := errlog.New(10)
	a := New(NewMemory(), "ns_", WithErrorLog(log))

	if err := a.SetItem("bad", math.Inf(1), false); !errors.Is(err, ErrEncode) {
		t.Errorf("SetItem(+Inf) error = %v, want ErrEncode", err)
	}
	if log.Stats().ByCategory[errlog.CategoryStorage] != 1 {
		t.Error("encode failure not logged")
	}
}

func TestAdapter_NamespaceIsolation(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			mine := New(b, "mine_")
			other := New(b, "other_")

			mine.SetItem("a", "1", false)
			mine.SetItem("b", "2", false)
			other.SetItem("a", "x", false)
			b.Set("unrelated", []byte("keep"))

			keys, err := mine.Keys()
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(keys, []string{"a", "b"}) {
				t.Errorf("Keys() = %v, want [a b]", keys)
			}

			if err := mine.Clear(); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			if keys, _ := mine.Keys(); len(keys) != 0 {
				t.Errorf("Keys() after Clear = %v", keys)
			}

			var s string
			if !other.GetItem("a", false, &s) || s != "x" {
				t.Error("Clear removed another namespace's key")
			}
			if v, err := b.Get("unrelated"); err != nil || string(v) != "keep" {
				t.Error("Clear removed an unprefixed key")
			}

			if err := other.RemoveItem("a"); err != nil {
				t.Fatal(err)
			}
			if other.GetItem("a", false, &s) {
				t.Error("RemoveItem did not delete")
			}
			if err := other.RemoveItem("a"); err != nil {
				t.Errorf("RemoveItem(missing) error = %v", err)
			}
		})
	}
}

func TestAdapter_Unavailable(t *testing.T) {
	mem := NewMemory()
	mem.Set("ns_x", []byte(`"stored"`))
	mem.SetReadOnly(true)

	log := errlog.New(10)
	a := New(mem, "ns_", WithErrorLog(log))

	if a.Available() {
		t.Fatal("Available() = true for read-only store")
	}
	if err := a.SetItem("x", "y", false); !errors.Is(err, ErrUnavailable) {
		t.Errorf("SetItem() error = %v, want ErrUnavailable", err)
	}
	if err := a.RemoveItem("x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("RemoveItem() error = %v, want ErrUnavailable", err)
	}
	if err := a.Clear(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Clear() error = %v, want ErrUnavailable", err)
	}
	var s string
	if a.GetItem("x", false, &s) {
		t.Error("GetItem() = true on unavailable store")
	}
	if log.Stats().ByCategory[errlog.CategoryStorage] == 0 {
		t.Error("probe failure not logged")
	}
	if _, err := mem.Get("ns___probe__"); !errors.Is(err, ErrNotFound) {
		t.Error("probe key left behind")
	}
}

func TestAdapter_NilBackend(t *testing.T) {
	a := New(nil, "ns_")
	if a.Available() {
		t.Error("nil backend reported available")
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestObfuscate(t *testing.T) {
	tests := []struct{ text, key string }{
		{"", "k"},
		{`[{"id":"1","note":"ünïcode"}]`, DefaultObfuscationKey},
		{"plain", ""},
	}
	for _, tt := range tests {
		enc := Obfuscate(tt.text, tt.key)
		got, err := Deobfuscate(enc, tt.key)
		if err != nil {
			t.Fatalf("Deobfuscate() error = %v", err)
		}
		if got != tt.text {
			t.Errorf("round trip = %q, want %q", got, tt.text)
		}
	}

	if _, err := Deobfuscate("%%%not-base64", "k"); err == nil {
		t.Error("Deobfuscate accepted invalid base64")
	}
}
