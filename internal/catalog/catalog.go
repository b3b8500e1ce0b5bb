package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/caseyWebb/elm-package-mcp-server/internal/docs"
	"github.com/caseyWebb/elm-package-mcp-server/internal/logging"
	"github.com/caseyWebb/elm-package-mcp-server/internal/manifest"
	"github.com/caseyWebb/elm-package-mcp-server/internal/registry"
	"github.com/caseyWebb/elm-package-mcp-server/pkg/types"
)

var (
	// ErrPackageDocsNotFound is returned when no docs.json exists for the exact version
	ErrPackageDocsNotFound = errors.New("package documentation not found")
	// ErrReadmeNotFound is returned when no README.md exists for the exact version
	ErrReadmeNotFound = errors.New("package readme not found")
	// ErrEmptyQuery is returned by Search for a blank query
	ErrEmptyQuery = errors.New("search query must not be empty")
)

// DefaultWarmConcurrency bounds parallel loads during Warm
const DefaultWarmConcurrency = 4

// Catalog answers package questions by combining the project manifest, the
// documentation artifacts and the registry listing.
type Catalog struct {
	manifest     *manifest.Manifest
	manifestErr  error
	manifestPath string
	artifacts   ArtifactSource
	local       *ElmHome
	registry    registry.Source
	cache       *docsCache
	loads       singleflight.Group
	logger      *log.Logger
	concurrency int
}

// Option configures a Catalog
type Option func(*Catalog)

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// WithCacheSize sets how many parsed indices are kept
func WithCacheSize(n int) Option {
	return func(c *Catalog) { c.cache = newDocsCache(n) }
}

// WithElmHome enables the local_docs flag of Installed
func WithElmHome(h *ElmHome) Option {
	return func(c *Catalog) { c.local = h }
}

// WithManifestError records why no manifest is available. Manifest
// dependent operations report it instead of ErrManifestNotFound.
func WithManifestError(err error) Option {
	return func(c *Catalog) { c.manifestErr = err }
}

// WithManifestPath records where elm.json was found, so ManifestFile can
// serve it even when it failed validation.
func WithManifestPath(path string) Option {
	return func(c *Catalog) { c.manifestPath = path }
}

// WithWarmConcurrency bounds parallel loads during Warm
func WithWarmConcurrency(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New creates a catalog. m may be nil when the manifest failed to load;
// documentation and search keep working in that case.
func New(m *manifest.Manifest, artifacts ArtifactSource, reg registry.Source, opts ...Option) *Catalog {
	c := &Catalog{
		manifest:    m,
		artifacts:   artifacts,
		registry:    reg,
		cache:       newDocsCache(DefaultCacheSize),
		logger:      logging.Discard(),
		concurrency: DefaultWarmConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Manifest returns the loaded manifest or the reason it is missing
func (c *Catalog) Manifest() (*manifest.Manifest, error) {
	if c.manifest != nil {
		return c.manifest, nil
	}
	if c.manifestErr != nil {
		return nil, c.manifestErr
	}
	return nil, manifest.ErrManifestNotFound
}

// ManifestFile returns elm.json as written. A loaded manifest answers from
// memory; otherwise the file is read from disk as is, so a file that failed
// validation is still readable.
func (c *Catalog) ManifestFile() ([]byte, error) {
	if c.manifest != nil {
		return c.manifest.Raw(), nil
	}
	if c.manifestPath == "" {
		_, err := c.Manifest()
		return nil, err
	}

	data, err := os.ReadFile(c.manifestPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", manifest.ErrManifestNotFound, c.manifestPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.manifestPath, err)
	}
	return data, nil
}

// InstalledPackage is a listing entry plus local cache state
type InstalledPackage struct {
	manifest.Entry
	LocalDocs bool `json:"local_docs"`
}

// InstalledListing is the result of Installed
type InstalledListing struct {
	Packages      []InstalledPackage `json:"packages"`
	DirectCount   int                `json:"direct_count"`
	IndirectCount int                `json:"indirect_count"`
	Total         int                `json:"total"`
}

// Installed lists the project's packages
func (c *Catalog) Installed(includeIndirect bool) (*InstalledListing, error) {
	m, err := c.Manifest()
	if err != nil {
		return nil, err
	}

	listing := m.List(includeIndirect)
	out := &InstalledListing{
		Packages:      make([]InstalledPackage, 0, len(listing.Packages)),
		DirectCount:   listing.DirectCount,
		IndirectCount: listing.IndirectCount,
		Total:         listing.Total,
	}
	for _, e := range listing.Packages {
		entry := InstalledPackage{Entry: e}
		if c.local != nil {
			pkg := types.Package{ID: types.PackageID{Author: e.Author, Name: e.Name}, Version: e.Version}
			entry.LocalDocs = c.local.Has(pkg, KindDocs)
		}
		out.Packages = append(out.Packages, entry)
	}
	return out, nil
}

// Docs returns the parsed documentation index of pkg
func (c *Catalog) Docs(ctx context.Context, pkg types.Package) (*docs.Index, error) {
	key := pkg.Key()
	if idx, ok := c.cache.Get(key); ok {
		return idx, nil
	}

	v, err, shared := c.loads.Do(key, func() (interface{}, error) {
		if idx, ok := c.cache.Get(key); ok {
			return idx, nil
		}
		start := time.Now()
		data, err := c.artifacts.Fetch(ctx, pkg, KindDocs)
		if errors.Is(err, ErrArtifactNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPackageDocsNotFound, pkg)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load docs for %s: %w", pkg, err)
		}
		idx, err := docs.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pkg, err)
		}
		c.cache.Set(key, idx)
		c.logger.Debug("loaded package docs", "package", key, "modules", idx.Len(), "duration", time.Since(start))
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("shared docs load", "package", key)
	}
	return v.(*docs.Index), nil
}

// Readme returns the package README verbatim
func (c *Catalog) Readme(ctx context.Context, pkg types.Package) (string, error) {
	data, err := c.artifacts.Fetch(ctx, pkg, KindReadme)
	if errors.Is(err, ErrArtifactNotFound) {
		return "", fmt.Errorf("%w: %s", ErrReadmeNotFound, pkg)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load README for %s: %w", pkg, err)
	}
	return string(data), nil
}

// PackageExports is the comment-free export listing of a package
type PackageExports struct {
	Author  string               `json:"author"`
	Name    string               `json:"name"`
	Version string               `json:"version"`
	Modules []docs.ModuleExports `json:"modules"`
}

// Exports lists exports of one module, or of every module when module is empty
func (c *Catalog) Exports(ctx context.Context, pkg types.Package, module string) (*PackageExports, error) {
	idx, err := c.Docs(ctx, pkg)
	if err != nil {
		return nil, err
	}
	listing, err := idx.Exports(module)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pkg, err)
	}
	return &PackageExports{
		Author:  pkg.ID.Author,
		Name:    pkg.ID.Name,
		Version: pkg.Version,
		Modules: listing.Modules,
	}, nil
}

// PackageExport is the full documentation of one export
type PackageExport struct {
	Author  string `json:"author"`
	Name    string `json:"name"`
	Version string `json:"version"`
	docs.Export
}

// ExportDoc returns one export with its signature and comment
func (c *Catalog) ExportDoc(ctx context.Context, pkg types.Package, module, exportName string) (*PackageExport, error) {
	idx, err := c.Docs(ctx, pkg)
	if err != nil {
		return nil, err
	}
	export, err := idx.ExportDoc(module, exportName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pkg, err)
	}
	return &PackageExport{
		Author:  pkg.ID.Author,
		Name:    pkg.ID.Name,
		Version: pkg.Version,
		Export:  *export,
	}, nil
}

// SearchResults is the result of Search
type SearchResults struct {
	Query   string           `json:"query"`
	Results []registry.Entry `json:"results"`
	Count   int              `json:"count"`
}

// Search finds registry packages whose name or summary contains query.
// Unless alreadyIncluded is set, every installed package, direct or
// indirect, is left out.
func (c *Catalog) Search(ctx context.Context, query string, alreadyIncluded bool) (*SearchResults, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	var exclude func(string) bool
	if !alreadyIncluded {
		m, err := c.Manifest()
		if err != nil {
			return nil, err
		}
		exclude = m.IsInstalled
	}

	if c.registry == nil {
		return nil, fmt.Errorf("%w: no registry configured", registry.ErrRegistryUnavailable)
	}
	entries, err := c.registry.Entries(ctx)
	if err != nil {
		return nil, err
	}

	results := registry.Search(entries, query, exclude)
	return &SearchResults{Query: query, Results: results, Count: len(results)}, nil
}

// WarmStats summarizes a Warm run
type WarmStats struct {
	Loaded int
	Failed int
}

// Warm loads the docs of installed packages in the background of startup.
// Failures for single packages are logged and skipped.
func (c *Catalog) Warm(ctx context.Context, includeIndirect bool) (*WarmStats, error) {
	m, err := c.Manifest()
	if err != nil {
		return nil, err
	}

	var loaded, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, pkg := range m.Packages(includeIndirect) {
		g.Go(func() error {
			if _, err := c.Docs(gctx, pkg); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				c.logger.Warn("failed to preload docs", "package", pkg.Key(), "err", err)
				return nil
			}
			loaded.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &WarmStats{Loaded: int(loaded.Load()), Failed: int(failed.Load())}
	c.logger.Info("docs preloaded", "loaded", stats.Loaded, "failed", stats.Failed)
	return stats, nil
}

// CacheLen reports how many parsed indices are cached
func (c *Catalog) CacheLen() int {
	return c.cache.Len()
}
