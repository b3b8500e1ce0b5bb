package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseyWebb/elm-package-mcp-server/internal/docs"
	"github.com/caseyWebb/elm-package-mcp-server/internal/fetch"
	"github.com/caseyWebb/elm-package-mcp-server/internal/manifest"
	"github.com/caseyWebb/elm-package-mcp-server/internal/registry"
	"github.com/caseyWebb/elm-package-mcp-server/internal/storage"
	"github.com/caseyWebb/elm-package-mcp-server/pkg/types"
)

const appManifest = `{
    "type": "application",
    "source-directories": ["src"],
    "elm-version": "0.19.1",
    "dependencies": {
        "direct": {
            "elm/core": "1.0.5",
            "elm/json": "1.1.3"
        },
        "indirect": {
            "elm/time": "1.0.0"
        }
    },
    "test-dependencies": {"direct": {}, "indirect": {}}
}`

var registryEntries = registry.Static{
	{Name: "elm/core", Summary: "Elm's standard libraries", License: "BSD-3-Clause", Version: "1.0.5"},
	{Name: "elm/json", Summary: "Encode and decode JSON values", License: "BSD-3-Clause", Version: "1.1.3"},
	{Name: "elm/time", Summary: "Work with POSIX times, time zones, years, months, days", License: "BSD-3-Clause", Version: "1.0.0"},
	{Name: "NoRedInk/elm-json-decode-pipeline", Summary: "Use pipelines to build JSON Decoders", License: "BSD-3-Clause", Version: "1.0.1"},
	{Name: "justinmimbs/time-extra", Summary: "Extra functions for working with Posix times", License: "BSD-3-Clause", Version: "1.2.0"},
}

func coreDocs(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../docs/testdata/core-docs.json")
	require.NoError(t, err)
	return data
}

func mustPackage(t *testing.T, author, name, version string) types.Package {
	t.Helper()
	pkg, err := types.NewPackage(author, name, version)
	require.NoError(t, err)
	return pkg
}

func mustManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(appManifest))
	require.NoError(t, err)
	return m
}

// writeElmHome lays out an ELM_HOME with elm/core docs and README
func writeElmHome(t *testing.T) *ElmHome {
	t.Helper()
	home := NewElmHome(t.TempDir(), "")
	core := mustPackage(t, "elm", "core", "1.0.5")

	dir := filepath.Dir(home.Path(core, KindDocs))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(home.Path(core, KindDocs), coreDocs(t), 0o644))
	require.NoError(t, os.WriteFile(home.Path(core, KindReadme), []byte("# Core Libraries\n\nEvery Elm project needs this package.\n"), 0o644))
	return home
}

// memorySource serves artifacts from a map and counts fetches
type memorySource struct {
	files map[string][]byte
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (s *memorySource) Fetch(ctx context.Context, pkg types.Package, kind Kind) ([]byte, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	data, ok := s.files[pkg.Key()+"/"+string(kind)]
	if !ok {
		return nil, ErrArtifactNotFound
	}
	return data, nil
}

func TestElmHome(t *testing.T) {
	home := writeElmHome(t)
	core := mustPackage(t, "elm", "core", "1.0.5")

	assert.Equal(t,
		filepath.Join(home.Root, "0.19.1", "packages", "elm", "core", "1.0.5", "docs.json"),
		home.Path(core, KindDocs))
	assert.True(t, home.Has(core, KindDocs))

	data, err := home.Fetch(context.Background(), core, KindReadme)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Core Libraries")

	other := mustPackage(t, "elm", "core", "1.0.4")
	assert.False(t, home.Has(other, KindDocs))
	_, err = home.Fetch(context.Background(), other, KindDocs)
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestRemote(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/packages/elm/json/1.1.3/README.md" {
			_, _ = w.Write([]byte("# JSON in Elm"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer store.Close()

	remote := NewRemote(fetch.NewClient(time.Second), srv.URL, store, nil)
	pkg := mustPackage(t, "elm", "json", "1.1.3")
	assert.Equal(t, srv.URL+"/packages/elm/json/1.1.3/README.md", remote.URL(pkg, KindReadme))

	data, err := remote.Fetch(context.Background(), pkg, KindReadme)
	require.NoError(t, err)
	assert.Equal(t, "# JSON in Elm", string(data))

	// Second fetch is served from the artifact cache
	data, err = remote.Fetch(context.Background(), pkg, KindReadme)
	require.NoError(t, err)
	assert.Equal(t, "# JSON in Elm", string(data))
	assert.Equal(t, int32(1), calls.Load())

	_, err = remote.Fetch(context.Background(), pkg, KindDocs)
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestChain(t *testing.T) {
	pkg := mustPackage(t, "elm", "json", "1.1.3")
	empty := &memorySource{files: map[string][]byte{}}
	full := &memorySource{files: map[string][]byte{pkg.Key() + "/README.md": []byte("readme")}}

	data, err := Chain{empty, full}.Fetch(context.Background(), pkg, KindReadme)
	require.NoError(t, err)
	assert.Equal(t, "readme", string(data))

	_, err = Chain{empty, empty}.Fetch(context.Background(), pkg, KindReadme)
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	broken := &memorySource{err: errors.New("disk on fire")}
	_, err = Chain{broken, full}.Fetch(context.Background(), pkg, KindReadme)
	assert.EqualError(t, err, "disk on fire")
	assert.Equal(t, int32(1), full.calls.Load(), "a hard failure stops the chain")
}

func TestInstalled(t *testing.T) {
	home := writeElmHome(t)
	cat := New(mustManifest(t), home, registryEntries, WithElmHome(home))

	listing, err := cat.Installed(false)
	require.NoError(t, err)
	assert.Equal(t, 2, listing.DirectCount)
	assert.Equal(t, 1, listing.IndirectCount)
	assert.Equal(t, 2, listing.Total)
	require.Len(t, listing.Packages, 2)

	assert.Equal(t, "core", listing.Packages[0].Name)
	assert.True(t, listing.Packages[0].LocalDocs)
	assert.Equal(t, "json", listing.Packages[1].Name)
	assert.False(t, listing.Packages[1].LocalDocs)

	all, err := cat.Installed(true)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, all.DirectCount+all.IndirectCount, all.Total)
	assert.Equal(t, types.SourceIndirect, all.Packages[2].Source)
}

func TestInstalled_ManifestMissing(t *testing.T) {
	cat := New(nil, &memorySource{}, registryEntries)
	_, err := cat.Installed(false)
	assert.ErrorIs(t, err, manifest.ErrManifestNotFound)

	cat = New(nil, &memorySource{}, registryEntries, WithManifestError(manifest.ErrManifestSchema))
	_, err = cat.Installed(true)
	assert.ErrorIs(t, err, manifest.ErrManifestSchema)
}

func TestManifestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "elm.json")
	invalid := []byte(`{"type": "application", "elm-version": "0.19.1", "dependencies": {"direct": {}}}`)
	require.NoError(t, os.WriteFile(path, invalid, 0o644))

	cat := New(nil, &memorySource{}, registryEntries,
		WithManifestError(manifest.ErrManifestSchema), WithManifestPath(path))
	raw, err := cat.ManifestFile()
	require.NoError(t, err)
	assert.Equal(t, invalid, raw)

	_, err = cat.Installed(false)
	assert.ErrorIs(t, err, manifest.ErrManifestSchema)

	require.NoError(t, os.Remove(path))
	_, err = cat.ManifestFile()
	assert.ErrorIs(t, err, manifest.ErrManifestNotFound)

	_, err = New(nil, &memorySource{}, nil).ManifestFile()
	assert.ErrorIs(t, err, manifest.ErrManifestNotFound)
}

func TestDocs_Cached(t *testing.T) {
	pkg := mustPackage(t, "elm", "core", "1.0.5")
	src := &memorySource{files: map[string][]byte{pkg.Key() + "/docs.json": coreDocs(t)}}
	cat := New(nil, src, nil)

	first, err := cat.Docs(context.Background(), pkg)
	require.NoError(t, err)
	second, err := cat.Docs(context.Background(), pkg)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 1, cat.CacheLen())
}

func TestDocs_ConcurrentLoadsCollapse(t *testing.T) {
	pkg := mustPackage(t, "elm", "core", "1.0.5")
	src := &memorySource{files: map[string][]byte{pkg.Key() + "/docs.json": coreDocs(t)}, delay: 50 * time.Millisecond}
	cat := New(nil, src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx, err := cat.Docs(context.Background(), pkg)
			assert.NoError(t, err)
			assert.Equal(t, 4, idx.Len())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestDocs_Errors(t *testing.T) {
	good := mustPackage(t, "elm", "core", "1.0.5")
	bad := mustPackage(t, "elm", "broken", "1.0.0")
	src := &memorySource{files: map[string][]byte{bad.Key() + "/docs.json": []byte(`{"oops": true}`)}}
	cat := New(nil, src, nil)

	_, err := cat.Docs(context.Background(), good)
	assert.ErrorIs(t, err, ErrPackageDocsNotFound)

	_, err = cat.Docs(context.Background(), bad)
	assert.ErrorIs(t, err, docs.ErrDocsParse)
	assert.Equal(t, 0, cat.CacheLen(), "failed loads are not cached")
}

func TestReadme(t *testing.T) {
	home := writeElmHome(t)
	cat := New(nil, home, nil)

	readme, err := cat.Readme(context.Background(), mustPackage(t, "elm", "core", "1.0.5"))
	require.NoError(t, err)
	assert.Equal(t, "# Core Libraries\n\nEvery Elm project needs this package.\n", readme)

	_, err = cat.Readme(context.Background(), mustPackage(t, "elm", "json", "1.1.3"))
	assert.ErrorIs(t, err, ErrReadmeNotFound)
}

func TestExports(t *testing.T) {
	home := writeElmHome(t)
	cat := New(nil, home, nil)
	core := mustPackage(t, "elm", "core", "1.0.5")

	all, err := cat.Exports(context.Background(), core, "")
	require.NoError(t, err)
	assert.Equal(t, "elm", all.Author)
	assert.Equal(t, "core", all.Name)
	assert.Equal(t, "1.0.5", all.Version)
	assert.Len(t, all.Modules, 4)

	list, err := cat.Exports(context.Background(), core, "List")
	require.NoError(t, err)
	require.Len(t, list.Modules, 1)
	assert.Equal(t, "List", list.Modules[0].Name)

	_, err = cat.Exports(context.Background(), core, "Array")
	assert.ErrorIs(t, err, docs.ErrModuleNotFound)
}

func TestExportDoc(t *testing.T) {
	home := writeElmHome(t)
	cat := New(nil, home, nil)
	core := mustPackage(t, "elm", "core", "1.0.5")

	export, err := cat.ExportDoc(context.Background(), core, "List", "map")
	require.NoError(t, err)
	assert.Equal(t, "elm", export.Author)
	assert.Equal(t, "List", export.Module)
	assert.Equal(t, "map", export.ExportName)
	assert.Equal(t, docs.CategoryValue, export.Category)
	assert.Equal(t, "map : (a -> b) -> List.List a -> List.List b", export.TypeSignature)
	assert.Contains(t, export.Comment, "Apply a function to every element")

	_, err = cat.ExportDoc(context.Background(), core, "List", "nonExistentFunction")
	assert.ErrorIs(t, err, docs.ErrExportNotFound)
}

func TestSearch(t *testing.T) {
	cat := New(mustManifest(t), &memorySource{}, registryEntries)

	results, err := cat.Search(context.Background(), "json", true)
	require.NoError(t, err)
	assert.Equal(t, "json", results.Query)
	assert.Equal(t, 2, results.Count)
	assert.Equal(t, "elm/json", results.Results[0].Name)
	assert.Equal(t, "NoRedInk/elm-json-decode-pipeline", results.Results[1].Name)
}

func TestSearch_ExcludesFullInstalledSet(t *testing.T) {
	cat := New(mustManifest(t), &memorySource{}, registryEntries)

	results, err := cat.Search(context.Background(), "time", false)
	require.NoError(t, err)

	// elm/time is only an indirect dependency and must still be excluded
	require.Len(t, results.Results, 1)
	assert.Equal(t, "justinmimbs/time-extra", results.Results[0].Name)

	installed := mustManifest(t).Installed()
	for _, r := range results.Results {
		assert.NotContains(t, installed, r.Name)
	}
}

func TestSearch_Errors(t *testing.T) {
	cat := New(nil, &memorySource{}, registryEntries)

	_, err := cat.Search(context.Background(), "  ", true)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = cat.Search(context.Background(), "json", false)
	assert.ErrorIs(t, err, manifest.ErrManifestNotFound, "exclusion needs the installed set")

	results, err := cat.Search(context.Background(), "json", true)
	require.NoError(t, err)
	assert.Equal(t, 2, results.Count)

	noRegistry := New(nil, &memorySource{}, nil)
	_, err = noRegistry.Search(context.Background(), "json", true)
	assert.ErrorIs(t, err, registry.ErrRegistryUnavailable)
}

func TestWarm(t *testing.T) {
	home := writeElmHome(t)
	cat := New(mustManifest(t), home, registryEntries, WithWarmConcurrency(2))

	stats, err := cat.Warm(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Loaded, "only elm/core has docs on disk")
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 1, cat.CacheLen())
}

func TestWarm_NoManifest(t *testing.T) {
	cat := New(nil, &memorySource{}, nil)
	_, err := cat.Warm(context.Background(), false)
	assert.ErrorIs(t, err, manifest.ErrManifestNotFound)
}
