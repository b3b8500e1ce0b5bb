// Package config resolves server settings from the environment. A .env
// file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// AppName names the cache directory
const AppName = "elm-package-mcp"

// Environment variables
const (
	EnvProjectDir    = "ELM_MCP_PROJECT_DIR"
	EnvManifest      = "ELM_MCP_MANIFEST"
	EnvElmHome       = "ELM_HOME"
	EnvElmVersion    = "ELM_MCP_ELM_VERSION"
	EnvPackageURL    = "ELM_MCP_PACKAGE_URL"
	EnvRegistryFile  = "ELM_MCP_REGISTRY_FILE"
	EnvCacheDB       = "ELM_MCP_CACHE_DB"
	EnvRegistryTTL   = "ELM_MCP_REGISTRY_TTL"
	EnvHTTPTimeout   = "ELM_MCP_HTTP_TIMEOUT"
	EnvOffline       = "ELM_MCP_OFFLINE"
	EnvDocsCacheSize = "ELM_MCP_DOCS_CACHE_SIZE"
	EnvWarm          = "ELM_MCP_WARM"
	EnvLogLevel      = "ELM_MCP_LOG_LEVEL"
	EnvLogFile       = "ELM_MCP_LOG_FILE"
)

// Defaults
const (
	DefaultElmVersion    = "0.19.1"
	DefaultPackageURL    = "https://package.elm-lang.org"
	DefaultRegistryTTL   = 24 * time.Hour
	DefaultHTTPTimeout   = 15 * time.Second
	DefaultDocsCacheSize = 64
	DefaultLogLevel      = "info"

	// CacheDisabled as ELM_MCP_CACHE_DB keeps every cache in memory
	CacheDisabled = "off"
)

// Config is the resolved server configuration
type Config struct {
	ProjectDir    string
	ManifestPath  string // explicit elm.json; empty means search upward from ProjectDir
	ElmHome       string
	ElmVersion    string
	PackageURL    string
	RegistryFile  string
	CacheDB       string // empty when the persistent cache is disabled
	RegistryTTL   time.Duration
	HTTPTimeout   time.Duration
	Offline       bool
	DocsCacheSize int
	Warm          bool
	LogLevel      string
	LogFile       string
}

// Load reads .env (if any) and then the process environment
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup resolves the configuration through lookup
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := &Config{
		ProjectDir:   get(EnvProjectDir),
		ManifestPath: get(EnvManifest),
		ElmHome:      firstNonEmpty(get(EnvElmHome), filepath.Join(xdg.Home, ".elm")),
		ElmVersion:   firstNonEmpty(get(EnvElmVersion), DefaultElmVersion),
		PackageURL:   strings.TrimRight(firstNonEmpty(get(EnvPackageURL), DefaultPackageURL), "/"),
		RegistryFile: get(EnvRegistryFile),
		LogLevel:     strings.ToLower(firstNonEmpty(get(EnvLogLevel), DefaultLogLevel)),
		LogFile:      get(EnvLogFile),
	}

	if cfg.ProjectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg.ProjectDir = wd
	}

	switch db := get(EnvCacheDB); {
	case strings.EqualFold(db, CacheDisabled):
		cfg.CacheDB = ""
	case db != "":
		cfg.CacheDB = db
	default:
		cfg.CacheDB = filepath.Join(xdg.CacheHome, AppName, "registry.db")
	}

	var err error
	if cfg.RegistryTTL, err = parseDuration(get(EnvRegistryTTL), DefaultRegistryTTL); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvRegistryTTL, err)
	}
	if cfg.HTTPTimeout, err = parseDuration(get(EnvHTTPTimeout), DefaultHTTPTimeout); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvHTTPTimeout, err)
	}
	if cfg.Offline, err = parseBool(get(EnvOffline), false); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvOffline, err)
	}
	if cfg.Warm, err = parseBool(get(EnvWarm), false); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvWarm, err)
	}
	if cfg.DocsCacheSize, err = parsePositiveInt(get(EnvDocsCacheSize), DefaultDocsCacheSize); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvDocsCacheSize, err)
	}

	return cfg, nil
}

func parseDuration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", raw)
	}
	return d, nil
}

func parseBool(raw string, def bool) (bool, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.ParseBool(raw)
}

func parsePositiveInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
