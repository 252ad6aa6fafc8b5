package entry

import (
	"fmt"
	"slices"
	"strings"
)

// Collection is an ordered set of entries with pairwise distinct IDs.
// It is not safe for concurrent mutation; callers clone before mutating a
// shared collection.
type Collection struct {
	items []LogEntry
	index map[string]int
}

// NewCollection builds a collection from entries. When IDs repeat, the first
// occurrence wins and the count of dropped entries is returned.
func NewCollection(entries []LogEntry) (*Collection, int) {
	c := &Collection{
		items: make([]LogEntry, 0, len(entries)),
		index: make(map[string]int, len(entries)),
	}
	dropped := 0
	for _, e := range entries {
		if err := c.Add(e); err != nil {
			dropped++
		}
	}
	return c, dropped
}

// Add appends e. It fails if e has no ID or its ID is already present.
func (c *Collection) Add(e LogEntry) error {
	if e.ID == "" {
		return ErrEmptyID
	}
	if _, exists := c.index[e.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
	}
	c.index[e.ID] = len(c.items)
	c.items = append(c.items, e)
	return nil
}

// Remove deletes the entry with the given ID and reports whether it existed.
func (c *Collection) Remove(id string) bool {
	pos, ok := c.index[id]
	if !ok {
		return false
	}
	c.items = slices.Delete(c.items, pos, pos+1)
	delete(c.index, id)
	for i := pos; i < len(c.items); i++ {
		c.index[c.items[i].ID] = i
	}
	return true
}

// Reset removes every entry.
func (c *Collection) Reset() {
	c.items = c.items[:0]
	clear(c.index)
}

// Has reports whether an entry with id exists.
func (c *Collection) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Get returns the entry with id.
func (c *Collection) Get(id string) (LogEntry, bool) {
	pos, ok := c.index[id]
	if !ok {
		return LogEntry{}, false
	}
	return c.items[pos], true
}

// Len returns the number of entries.
func (c *Collection) Len() int {
	return len(c.items)
}

// Entries returns a copy of the entries in insertion order.
func (c *Collection) Entries() []LogEntry {
	return slices.Clone(c.items)
}

// Clone returns an independent copy of the collection.
func (c *Collection) Clone() *Collection {
	out := &Collection{
		items: slices.Clone(c.items),
		index: make(map[string]int, len(c.index)),
	}
	for k, v := range c.index {
		out.index[k] = v
	}
	return out
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortConfig selects the display order of a listing.
type SortConfig struct {
	Column    Field
	Direction Direction
}

// DefaultSort orders newest dates first.
var DefaultSort = SortConfig{Column: FieldDate, Direction: Desc}

// Sorted returns the entries ordered by cfg. Ties keep insertion order.
func (c *Collection) Sorted(cfg SortConfig) []LogEntry {
	out := c.Entries()
	cmp := compareBy(cfg.Column)
	slices.SortStableFunc(out, func(a, b LogEntry) int {
		if cfg.Direction == Desc {
			return cmp(b, a)
		}
		return cmp(a, b)
	})
	return out
}

func compareBy(f Field) func(a, b LogEntry) int {
	switch f {
	case FieldScore:
		return func(a, b LogEntry) int {
			switch {
			case a.Score < b.Score:
				return -1
			case a.Score > b.Score:
				return 1
			}
			return 0
		}
	case FieldID:
		return func(a, b LogEntry) int { return strings.Compare(a.ID, b.ID) }
	case FieldDomainKey:
		return func(a, b LogEntry) int { return strings.Compare(a.DomainKey, b.DomainKey) }
	case FieldNote:
		return func(a, b LogEntry) int { return strings.Compare(a.Note, b.Note) }
	default:
		// ISO dates order lexically.
		return func(a, b LogEntry) int { return strings.Compare(a.Date, b.Date) }
	}
}
