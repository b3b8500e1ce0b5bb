package registry

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/caseyWebb/elm-package-mcp-server/internal/fetch"
)

// Static serves a fixed listing
type Static []Entry

// Entries returns a copy of the listing
func (s Static) Entries(ctx context.Context) ([]Entry, error) {
	out := make([]Entry, len(s))
	copy(out, s)
	return out, nil
}

// File reads a local search.json on every call
type File struct {
	Path string
}

// Entries decodes the file
func (f File) Entries(ctx context.Context) ([]Entry, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	return Decode(data)
}

// HTTP downloads search.json from a package site
type HTTP struct {
	client *fetch.Client
	url    string
}

// NewHTTP creates a source for <baseURL>/search.json
func NewHTTP(client *fetch.Client, baseURL string) *HTTP {
	if baseURL == "" {
		baseURL = fetch.DefaultBaseURL
	}
	return &HTTP{client: client, url: baseURL + "/search.json"}
}

// URL is the listing address, also used as the cache key
func (h *HTTP) URL() string {
	return h.url
}

// Entries downloads and decodes the listing
func (h *HTTP) Entries(ctx context.Context) ([]Entry, error) {
	data, err := h.client.Get(ctx, h.url)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	return Decode(data)
}
