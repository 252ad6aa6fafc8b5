//go:build cgo

package storage

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSQLiteBackend(t *testing.T) {
	b, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer b.Close()

	if _, err := b.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	b.Set("a_1", []byte("one"))
	b.Set("a_1", []byte("uno"))
	b.Set("ab2", []byte("two"))
	b.Set("b_1", []byte("three"))

	v, err := b.Get("a_1")
	if err != nil || string(v) != "uno" {
		t.Errorf("Get(a_1) = %q, %v; want upserted value", v, err)
	}

	// "_" must not act as a wildcard.
	keys, err := b.Keys("a_")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(keys, []string{"a_1"}) {
		t.Errorf("Keys(a_) = %v, want [a_1]", keys)
	}

	if err := b.Delete("a_1"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Get("a_1"); !errors.Is(err, ErrNotFound) {
		t.Error("Delete did not remove key")
	}
}

func TestSQLiteBackend_WithAdapter(t *testing.T) {
	b, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	a := New(b, "scorelog_")
	defer a.Close()

	if err := a.SetItem("obj", map[string]any{"a": 1}, true); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if !a.GetItem("obj", true, &got) || got["a"] != 1.0 {
		t.Errorf("GetItem() = %v", got)
	}
}
