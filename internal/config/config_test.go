package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, wd, cfg.ProjectDir)
	assert.Empty(t, cfg.ManifestPath)
	assert.Equal(t, filepath.Join(xdg.Home, ".elm"), cfg.ElmHome)
	assert.Equal(t, DefaultElmVersion, cfg.ElmVersion)
	assert.Equal(t, DefaultPackageURL, cfg.PackageURL)
	assert.Equal(t, filepath.Join(xdg.CacheHome, AppName, "registry.db"), cfg.CacheDB)
	assert.Equal(t, DefaultRegistryTTL, cfg.RegistryTTL)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.False(t, cfg.Offline)
	assert.False(t, cfg.Warm)
	assert.Equal(t, DefaultDocsCacheSize, cfg.DocsCacheSize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		EnvProjectDir:    "/work/app",
		EnvManifest:      "/work/app/elm.json",
		EnvElmHome:       "/opt/elm",
		EnvPackageURL:    "http://localhost:8000/",
		EnvRegistryFile:  "/tmp/search.json",
		EnvCacheDB:       "off",
		EnvRegistryTTL:   "90m",
		EnvHTTPTimeout:   "2s",
		EnvOffline:       "true",
		EnvDocsCacheSize: "8",
		EnvWarm:          "1",
		EnvLogLevel:      "DEBUG",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/work/app", cfg.ProjectDir)
	assert.Equal(t, "/work/app/elm.json", cfg.ManifestPath)
	assert.Equal(t, "/opt/elm", cfg.ElmHome)
	assert.Equal(t, "http://localhost:8000", cfg.PackageURL)
	assert.Equal(t, "/tmp/search.json", cfg.RegistryFile)
	assert.Empty(t, cfg.CacheDB)
	assert.Equal(t, 90*time.Minute, cfg.RegistryTTL)
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.Offline)
	assert.True(t, cfg.Warm)
	assert.Equal(t, 8, cfg.DocsCacheSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFromLookup_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad ttl", env: map[string]string{EnvRegistryTTL: "tomorrow"}},
		{name: "negative timeout", env: map[string]string{EnvHTTPTimeout: "-1s"}},
		{name: "bad offline flag", env: map[string]string{EnvOffline: "maybe"}},
		{name: "zero cache size", env: map[string]string{EnvDocsCacheSize: "0"}},
		{name: "non-numeric cache size", env: map[string]string{EnvDocsCacheSize: "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLookup(lookupFrom(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ELM_MCP_ELM_VERSION=0.19.0\n"), 0o644))

	t.Chdir(dir)
	t.Cleanup(func() { _ = os.Unsetenv(EnvElmVersion) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.19.0", cfg.ElmVersion)
}
