package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseyWebb/elm-package-mcp-server/internal/config"
	"github.com/caseyWebb/elm-package-mcp-server/internal/storage"
)

// seedCache stores a registry snapshot and one artifact in a fresh database
func seedCache(t *testing.T) (dbPath, registryFile string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "cache", "registry.db")
	registryFile = filepath.Join(dir, "search.json")
	t.Setenv(config.EnvCacheDB, dbPath)
	t.Setenv(config.EnvRegistryFile, registryFile)

	store, err := openStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.SaveSnapshot(ctx, &storage.Snapshot{
		Source:    "file://" + registryFile,
		FetchedAt: time.UnixMilli(1_700_000_000_000),
		Entries: []storage.RegistryEntry{
			{Name: "elm/core", Summary: "Elm's standard libraries", License: "BSD-3-Clause", Version: "1.0.5"},
			{Name: "elm/json", Summary: "Encode and decode JSON values", License: "BSD-3-Clause", Version: "1.1.3"},
		},
	}))
	require.NoError(t, store.PutArtifact(ctx, &storage.Artifact{
		ArtifactKey: storage.ArtifactKey{Author: "elm", Name: "core", Version: "1.0.5", Kind: "README.md"},
		Content:     []byte("# core"),
		FetchedAt:   time.UnixMilli(1_700_000_000_000),
	}))
	return dbPath, registryFile
}

func runCache(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(append([]string{"cache"}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())
	return buf.String()
}

func cacheStatus(t *testing.T, dbPath string) *storage.Status {
	t.Helper()
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer store.Close()
	status, err := store.GetStatus(context.Background())
	require.NoError(t, err)
	return status
}

func TestCacheStatusCommand(t *testing.T) {
	dbPath, _ := seedCache(t)

	out := runCache(t, "status")
	assert.Contains(t, out, "Cache: "+dbPath)
	assert.Contains(t, out, "Schema Version: "+storage.CurrentSchemaVersion)
	assert.Contains(t, out, "Registry Snapshots: 1 (2 packages)")
	assert.Contains(t, out, "Artifacts: 1 (6 bytes)")
}

func TestCacheClearCommand(t *testing.T) {
	dbPath, registryFile := seedCache(t)

	out := runCache(t, "clear")
	assert.Contains(t, out, "Cleared registry listing file://"+registryFile)

	status := cacheStatus(t, dbPath)
	assert.Equal(t, 0, status.Snapshots)
	assert.Equal(t, 1, status.Artifacts, "downloaded files survive a clear")

	out = runCache(t, "clear")
	assert.Contains(t, out, "No registry listing stored")
}

func TestCacheResetCommand(t *testing.T) {
	dbPath, _ := seedCache(t)

	out := runCache(t, "reset")
	assert.Contains(t, out, "Reset cache "+dbPath)

	status := cacheStatus(t, dbPath)
	assert.Equal(t, 0, status.Snapshots)
	assert.Equal(t, 0, status.Artifacts)
	assert.Equal(t, storage.CurrentSchemaVersion, status.SchemaVersion)
}

func TestCacheCommand_Disabled(t *testing.T) {
	t.Setenv(config.EnvCacheDB, config.CacheDisabled)

	rootCmd.SetArgs([]string{"cache", "status"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistent cache is disabled")
}
