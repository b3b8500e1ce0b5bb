package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/caseyWebb/elm-package-mcp-server/internal/fetch"
	"github.com/caseyWebb/elm-package-mcp-server/internal/logging"
	"github.com/caseyWebb/elm-package-mcp-server/internal/storage"
	"github.com/caseyWebb/elm-package-mcp-server/pkg/types"
)

// Kind names a file published with every package version
type Kind string

const (
	KindDocs   Kind = "docs.json"
	KindReadme Kind = "README.md"
)

// DefaultElmVersion is the compiler version whose package cache is read
const DefaultElmVersion = "0.19.1"

// ErrArtifactNotFound is returned when a source has no such file
var ErrArtifactNotFound = errors.New("artifact not found")

// ArtifactSource fetches published package files
type ArtifactSource interface {
	Fetch(ctx context.Context, pkg types.Package, kind Kind) ([]byte, error)
}

// ElmHome reads the compiler's own package cache:
// <Root>/<ElmVersion>/packages/<author>/<name>/<version>/<kind>
type ElmHome struct {
	Root       string
	ElmVersion string
}

// NewElmHome returns a source rooted at root, defaulting the compiler version
func NewElmHome(root, elmVersion string) *ElmHome {
	if elmVersion == "" {
		elmVersion = DefaultElmVersion
	}
	return &ElmHome{Root: root, ElmVersion: elmVersion}
}

// Path returns where kind would live for pkg
func (h *ElmHome) Path(pkg types.Package, kind Kind) string {
	return filepath.Join(h.Root, h.ElmVersion, "packages", pkg.ID.Author, pkg.ID.Name, pkg.Version, string(kind))
}

// Has reports whether the file is present on disk
func (h *ElmHome) Has(pkg types.Package, kind Kind) bool {
	info, err := os.Stat(h.Path(pkg, kind))
	return err == nil && !info.IsDir()
}

// Fetch reads the file from disk
func (h *ElmHome) Fetch(ctx context.Context, pkg types.Package, kind Kind) ([]byte, error) {
	data, err := os.ReadFile(h.Path(pkg, kind))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s %s in ELM_HOME", ErrArtifactNotFound, pkg, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s for %s: %w", kind, pkg, err)
	}
	return data, nil
}

// Remote downloads files from a package site, optionally keeping a copy in
// the SQLite cache. Published versions are immutable so cached copies are
// served without revalidation.
type Remote struct {
	client  *fetch.Client
	baseURL string
	store   storage.Storage
	logger  *log.Logger
}

// NewRemote creates a remote source. store may be nil.
func NewRemote(client *fetch.Client, baseURL string, store storage.Storage, logger *log.Logger) *Remote {
	if baseURL == "" {
		baseURL = fetch.DefaultBaseURL
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Remote{client: client, baseURL: baseURL, store: store, logger: logger}
}

// URL returns the download address of kind for pkg
func (r *Remote) URL(pkg types.Package, kind Kind) string {
	return fmt.Sprintf("%s/packages/%s/%s/%s/%s", r.baseURL, pkg.ID.Author, pkg.ID.Name, pkg.Version, kind)
}

// Fetch returns the cached copy or downloads it
func (r *Remote) Fetch(ctx context.Context, pkg types.Package, kind Kind) ([]byte, error) {
	key := storage.ArtifactKey{Author: pkg.ID.Author, Name: pkg.ID.Name, Version: pkg.Version, Kind: string(kind)}

	if r.store != nil {
		artifact, err := r.store.GetArtifact(ctx, key)
		if err == nil {
			return artifact.Content, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("artifact cache read failed", "package", pkg.Key(), "kind", kind, "err", err)
		}
	}

	url := r.URL(pkg, kind)
	data, err := r.client.Get(ctx, url)
	if errors.Is(err, fetch.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, url)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("downloaded artifact", "url", url, "bytes", len(data))

	if r.store != nil {
		if err := r.store.PutArtifact(ctx, &storage.Artifact{ArtifactKey: key, Content: data}); err != nil {
			r.logger.Warn("artifact cache write failed", "package", pkg.Key(), "kind", kind, "err", err)
		}
	}
	return data, nil
}

// Chain tries each source in order. Only ErrArtifactNotFound falls
// through; any other failure is returned as is.
type Chain []ArtifactSource

// Fetch returns the first source's copy
func (c Chain) Fetch(ctx context.Context, pkg types.Package, kind Kind) ([]byte, error) {
	for _, src := range c {
		data, err := src.Fetch(ctx, pkg, kind)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrArtifactNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s %s", ErrArtifactNotFound, pkg, kind)
}
