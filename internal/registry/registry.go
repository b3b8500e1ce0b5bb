package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrRegistryUnavailable is returned when no listing can be produced
var ErrRegistryUnavailable = errors.New("package registry unavailable")

// Entry is one published package as listed by search.json
type Entry struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
	License string `json:"license"`
	Version string `json:"version"`
}

// Source produces the registry listing in registry order
type Source interface {
	Entries(ctx context.Context) ([]Entry, error)
}

// Search returns entries whose name or summary contains query, ignoring
// case, in registry order. Entries for which exclude reports true are
// dropped; a nil exclude keeps everything.
func Search(entries []Entry, query string, exclude func(name string) bool) []Entry {
	needle := strings.ToLower(query)
	results := make([]Entry, 0)
	for _, e := range entries {
		if exclude != nil && exclude(e.Name) {
			continue
		}
		if strings.Contains(strings.ToLower(e.Name), needle) ||
			strings.Contains(strings.ToLower(e.Summary), needle) {
			results = append(results, e)
		}
	}
	return results
}

// Decode parses a search.json document
func Decode(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: invalid search.json: %v", ErrRegistryUnavailable, err)
	}
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", ErrRegistryUnavailable, i)
		}
	}
	return entries, nil
}
