// Package geo holds the static location table used to place events on a map.
package geo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one known location.
type Entry struct {
	Country string  `json:"country" yaml:"country"`
	Lat     float64 `json:"lat" yaml:"lat"`
	Lng     float64 `json:"lng" yaml:"lng"`
}

// Table maps a location key to its coordinates. The fallback key is always present.
type Table struct {
	entries  map[string]Entry
	fallback string
}

// New builds a Table from entries and registers the fallback location.
func New(entries map[string]Entry, fallback string, fallbackEntry Entry) *Table {
	m := make(map[string]Entry, len(entries)+1)
	for k, v := range entries {
		m[k] = v
	}
	if fallbackEntry.Country == "" {
		fallbackEntry.Country = fallback
	}
	m[fallback] = fallbackEntry
	return &Table{entries: m, fallback: fallback}
}

// Load reads a JSON or YAML location file (chosen by extension) in the
// {"Name": {"country": ..., "lat": ..., "lng": ...}} shape.
func Load(path, fallback string, fallbackEntry Entry) (*Table, error) {
	entries := map[string]Entry{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read geo table: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &entries)
		default:
			err = json.Unmarshal(data, &entries)
		}
		if err != nil {
			return nil, fmt.Errorf("parse geo table %s: %w", path, err)
		}
	}
	return New(entries, fallback, fallbackEntry), nil
}

// Lookup returns the entry for key.
func (t *Table) Lookup(key string) (Entry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

// Resolve returns key if known, otherwise the fallback location.
func (t *Table) Resolve(key string) (string, Entry) {
	if key != "" {
		if e, ok := t.entries[key]; ok {
			return key, e
		}
	}
	return t.fallback, t.entries[t.fallback]
}

// Fallback returns the default location key.
func (t *Table) Fallback() string {
	return t.fallback
}

// Len returns the number of known locations, fallback included.
func (t *Table) Len() int {
	return len(t.entries)
}
