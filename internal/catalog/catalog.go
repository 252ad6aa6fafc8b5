// Package catalog describes the assessment instruments an entry can refer to.
//
// A Catalog is a lookup table from domain key to display name and advisory
// score range. The built-in catalog covers common public-domain screening
// questionnaires; a JSON file can replace it.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

var (
	// ErrDuplicateKey is returned when two domains share a key.
	ErrDuplicateKey = errors.New("duplicate domain key")

	// ErrInvalidRange is returned when a domain's minimum exceeds its maximum.
	ErrInvalidRange = errors.New("invalid score range")
)

// Domain is one assessment instrument.
type Domain struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	MinScore float64 `json:"minScore"`
	MaxScore float64 `json:"maxScore"`
}

// InRange reports whether score falls inside the advisory range (inclusive).
func (d Domain) InRange(score float64) bool {
	return score >= d.MinScore && score <= d.MaxScore
}

// Provider is the catalog interface consumed by validation and import.
type Provider interface {
	Lookup(key string) (Domain, bool)
	Keys() []string
}

// Catalog is an immutable Provider backed by a map.
type Catalog struct {
	domains map[string]Domain
	keys    []string
}

// New builds a catalog, rejecting duplicate keys, empty keys and inverted ranges.
func New(domains ...Domain) (*Catalog, error) {
	c := &Catalog{domains: make(map[string]Domain, len(domains))}
	for _, d := range domains {
		d.Key = strings.TrimSpace(d.Key)
		if d.Key == "" {
			return nil, fmt.Errorf("domain %q: empty key", d.Name)
		}
		if _, exists := c.domains[d.Key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, d.Key)
		}
		if d.MinScore > d.MaxScore {
			return nil, fmt.Errorf("%w: %s (%g > %g)", ErrInvalidRange, d.Key, d.MinScore, d.MaxScore)
		}
		c.domains[d.Key] = d
		c.keys = append(c.keys, d.Key)
	}
	sort.Strings(c.keys)
	return c, nil
}

// Lookup returns the domain registered under key.
func (c *Catalog) Lookup(key string) (Domain, bool) {
	d, ok := c.domains[key]
	return d, ok
}

// Keys returns all domain keys, sorted.
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Domains returns all domains sorted by key.
func (c *Catalog) Domains() []Domain {
	out := make([]Domain, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.domains[k])
	}
	return out
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(
		Domain{Key: "phq-9", Name: "Patient Health Questionnaire-9", MinScore: 0, MaxScore: 27},
		Domain{Key: "gad-7", Name: "Generalized Anxiety Disorder-7", MinScore: 0, MaxScore: 21},
		Domain{Key: "pss-10", Name: "Perceived Stress Scale-10", MinScore: 0, MaxScore: 40},
		Domain{Key: "who-5", Name: "WHO-5 Well-Being Index", MinScore: 0, MaxScore: 25},
		Domain{Key: "k-10", Name: "Kessler Psychological Distress Scale", MinScore: 10, MaxScore: 50},
		Domain{Key: "isi", Name: "Insomnia Severity Index", MinScore: 0, MaxScore: 28},
		Domain{Key: "pcl-5", Name: "PTSD Checklist for DSM-5", MinScore: 0, MaxScore: 80},
	)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
	return c
}

// LoadFile reads a JSON array of domains from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var domains []Domain
	if err := json.Unmarshal(data, &domains); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("catalog %s has no domains", path)
	}
	return New(domains...)
}
