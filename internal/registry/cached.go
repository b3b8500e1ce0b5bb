package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/caseyWebb/elm-package-mcp-server/internal/logging"
	"github.com/caseyWebb/elm-package-mcp-server/internal/storage"
)

const (
	// DefaultTTL is how long a fetched listing is served before refreshing
	DefaultTTL = 24 * time.Hour

	// staleRetryInterval spaces upstream retries while serving a stale snapshot
	staleRetryInterval = time.Minute
)

// Cached keeps the upstream listing in memory and in a SQLite snapshot.
// A snapshot older than the TTL is refreshed; if the refresh fails the
// stale snapshot is served instead of an error.
type Cached struct {
	upstream Source
	store    storage.Storage // nil keeps the cache in memory only
	key      string
	ttl      time.Duration
	now      func() time.Time
	logger   *log.Logger

	group singleflight.Group

	mu      sync.RWMutex
	entries []Entry
	expires time.Time
}

// CachedOption configures a Cached source
type CachedOption func(*Cached)

// WithTTL sets the refresh interval
func WithTTL(ttl time.Duration) CachedOption {
	return func(c *Cached) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) CachedOption {
	return func(c *Cached) { c.now = now }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) CachedOption {
	return func(c *Cached) { c.logger = l }
}

// NewCached wraps upstream. key names the snapshot in store, normally the
// upstream URL.
func NewCached(upstream Source, store storage.Storage, key string, opts ...CachedOption) *Cached {
	c := &Cached{
		upstream: upstream,
		store:    store,
		key:      key,
		ttl:      DefaultTTL,
		now:      time.Now,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Entries returns the cached listing, refreshing it when expired
func (c *Cached) Entries(ctx context.Context) ([]Entry, error) {
	if entries, ok := c.fresh(); ok {
		return entries, nil
	}

	v, err, _ := c.group.Do(c.key, func() (interface{}, error) {
		return c.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return copyEntries(v.([]Entry)), nil
}

func (c *Cached) fresh() ([]Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entries == nil || !c.now().Before(c.expires) {
		return nil, false
	}
	return copyEntries(c.entries), true
}

func (c *Cached) remember(entries []Entry, expires time.Time) {
	c.mu.Lock()
	c.entries = entries
	c.expires = expires
	c.mu.Unlock()
}

func (c *Cached) load(ctx context.Context) ([]Entry, error) {
	// Another caller may have finished a load while this one waited
	if entries, ok := c.fresh(); ok {
		return entries, nil
	}
	now := c.now()

	var stale *storage.Snapshot
	if c.store != nil {
		snapshot, err := c.store.LoadSnapshot(ctx, c.key)
		switch {
		case err == nil:
			if now.Sub(snapshot.FetchedAt) < c.ttl {
				entries := fromStorage(snapshot.Entries)
				c.remember(entries, snapshot.FetchedAt.Add(c.ttl))
				c.logger.Debug("registry snapshot loaded", "source", c.key, "entries", len(entries))
				return entries, nil
			}
			stale = snapshot
		case errors.Is(err, storage.ErrNotFound):
		default:
			c.logger.Warn("failed to read registry snapshot", "source", c.key, "err", err)
		}
	}

	entries, err := c.upstream.Entries(ctx)
	if err == nil {
		c.remember(entries, now.Add(c.ttl))
		c.save(ctx, entries, now)
		return entries, nil
	}

	if stale == nil {
		c.mu.RLock()
		inMemory := c.entries
		c.mu.RUnlock()
		if inMemory != nil {
			c.logger.Warn("registry refresh failed, serving previous listing", "source", c.key, "err", err)
			c.remember(inMemory, now.Add(staleRetryInterval))
			return inMemory, nil
		}
		if errors.Is(err, ErrRegistryUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	c.logger.Warn("registry refresh failed, serving stale snapshot",
		"source", c.key, "age", now.Sub(stale.FetchedAt).Round(time.Second), "err", err)
	entries = fromStorage(stale.Entries)
	c.remember(entries, now.Add(staleRetryInterval))
	return entries, nil
}

func (c *Cached) save(ctx context.Context, entries []Entry, fetchedAt time.Time) {
	if c.store == nil {
		return
	}
	snapshot := &storage.Snapshot{
		Source:    c.key,
		FetchedAt: fetchedAt,
		Entries:   toStorage(entries),
	}
	if err := c.store.SaveSnapshot(ctx, snapshot); err != nil {
		c.logger.Warn("failed to save registry snapshot", "source", c.key, "err", err)
		return
	}
	c.logger.Info("registry snapshot refreshed", "source", c.key, "entries", len(entries))
}

func toStorage(entries []Entry) []storage.RegistryEntry {
	out := make([]storage.RegistryEntry, len(entries))
	for i, e := range entries {
		out[i] = storage.RegistryEntry{
			Position: i,
			Name:     e.Name,
			Summary:  e.Summary,
			License:  e.License,
			Version:  e.Version,
		}
	}
	return out
}

func fromStorage(rows []storage.RegistryEntry) []Entry {
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = Entry{Name: r.Name, Summary: r.Summary, License: r.License, Version: r.Version}
	}
	return out
}

func copyEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
