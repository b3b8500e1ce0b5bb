package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/caseyWebb/elm-package-mcp-server/internal/catalog"
	"github.com/caseyWebb/elm-package-mcp-server/internal/config"
	"github.com/caseyWebb/elm-package-mcp-server/internal/fetch"
	"github.com/caseyWebb/elm-package-mcp-server/internal/logging"
	"github.com/caseyWebb/elm-package-mcp-server/internal/manifest"
	"github.com/caseyWebb/elm-package-mcp-server/internal/mcp"
	"github.com/caseyWebb/elm-package-mcp-server/internal/registry"
	"github.com/caseyWebb/elm-package-mcp-server/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	flagMCP         bool
	flagTools       bool
	flagPrompts     bool
	flagResources   bool
	flagJSON        bool
	flagShowVersion bool
)

var rootCmd = &cobra.Command{
	Use:   "elm-package-mcp",
	Short: "MCP server for Elm package documentation",
	Long: `elm-package-mcp lets an AI assistant read the dependencies declared in
elm.json, browse package exports and documentation, and search the Elm
package registry.

Run with --mcp to serve the Model Context Protocol on stdin/stdout.
Without --mcp it prints the tools, prompts and resources it offers.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch {
		case flagShowVersion:
			printVersion(out)
			return nil
		case flagMCP:
			return serve(cmd.Context(), cmd.InOrStdin(), out)
		default:
			return printCatalog(out, catalogSelection{
				Tools:     flagTools,
				Prompts:   flagPrompts,
				Resources: flagResources,
			}, flagJSON)
		}
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVar(&flagMCP, "mcp", false, "serve MCP over stdio")
	flags.BoolVar(&flagTools, "tools", false, "list the available tools")
	flags.BoolVar(&flagPrompts, "prompts", false, "list the available prompts")
	flags.BoolVar(&flagResources, "resources", false, "list the available resources")
	flags.BoolVar(&flagJSON, "json", false, "print listings as JSON")
	flags.BoolVar(&flagShowVersion, "version", false, "print version information")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Elm Package MCP Server\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Build Mode: %s\n", storage.BuildMode)
	fmt.Fprintf(w, "SQLite Driver: %s\n", storage.DriverName)
}

// serve wires the server from the environment and blocks until stdin
// closes or ctx is cancelled.
func serve(ctx context.Context, in io.Reader, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Info("starting", "version", version, "build_mode", storage.BuildMode, "driver", storage.DriverName)

	manifestPath, m, manifestErr := loadManifest(cfg)
	if manifestErr != nil {
		logger.Warn("elm.json unavailable; package listing is disabled", "err", manifestErr)
	} else {
		logger.Info("loaded elm.json", "path", m.Path(), "direct", len(m.Direct()), "indirect", len(m.Indirect()))
	}

	var store storage.Storage
	if cfg.CacheDB != "" {
		sqlStore, err := openStore(cfg.CacheDB)
		if err != nil {
			logger.Warn("persistent cache disabled", "path", cfg.CacheDB, "err", err)
		} else {
			store = sqlStore
			defer sqlStore.Close()
			if status, err := sqlStore.GetStatus(ctx); err == nil {
				logger.Info("opened cache", "path", cfg.CacheDB, "schema", status.SchemaVersion,
					"snapshots", status.Snapshots, "artifacts", status.Artifacts)
			}
		}
	}

	client := fetch.NewClient(cfg.HTTPTimeout,
		fetch.WithLogger(logger),
		fetch.WithUserAgent(fmt.Sprintf("%s/%s", mcp.ServerName, version)))

	elmVersion := cfg.ElmVersion
	if m != nil {
		if v, ok := m.CompilerVersion(); ok {
			elmVersion = v
		}
	}
	home := catalog.NewElmHome(cfg.ElmHome, elmVersion)
	artifacts := catalog.Chain{home}
	if !cfg.Offline {
		artifacts = append(artifacts, catalog.NewRemote(client, cfg.PackageURL, store, logger))
	}

	cat := catalog.New(m, artifacts, registrySource(cfg, client, store, logger),
		catalog.WithLogger(logger),
		catalog.WithElmHome(home),
		catalog.WithCacheSize(cfg.DocsCacheSize),
		catalog.WithManifestPath(manifestPath),
		catalog.WithManifestError(manifestErr))

	if cfg.Warm && m != nil {
		warmCtx, cancelWarm := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats, err := cat.Warm(warmCtx, true)
			if err != nil {
				logger.Warn("warming docs cache stopped", "err", err)
				return
			}
			logger.Info("warmed docs cache", "loaded", stats.Loaded, "failed", stats.Failed, "cached", cat.CacheLen())
		}()
		// Runs before the store is closed
		defer func() {
			cancelWarm()
			wg.Wait()
		}()
	}

	server := mcp.NewServer(cat, mcp.WithLogger(logger), mcp.WithVersion(version))
	if err := server.Serve(ctx, in, out); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// loadManifest returns the resolved elm.json path even when loading fails,
// so the raw file can still be served.
func loadManifest(cfg *config.Config) (string, *manifest.Manifest, error) {
	path := cfg.ManifestPath
	if path == "" {
		found, err := manifest.Find(cfg.ProjectDir)
		if err != nil {
			return "", nil, err
		}
		path = found
	}
	m, err := manifest.Load(path)
	return path, m, err
}

func openStore(path string) (*storage.SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return storage.NewSQLiteStorage(path)
}

// registrySource picks the search listing: a local file when configured,
// otherwise the package site. Both are cached when a store is available.
func registrySource(cfg *config.Config, client *fetch.Client, store storage.Storage, logger *log.Logger) registry.Source {
	opts := []registry.CachedOption{registry.WithTTL(cfg.RegistryTTL), registry.WithLogger(logger)}
	key := registryKey(cfg)

	switch {
	case cfg.RegistryFile != "":
		return registry.NewCached(registry.File{Path: cfg.RegistryFile}, store, key, opts...)
	case cfg.Offline:
		return registry.NewCached(offlineRegistry{}, store, key, opts...)
	default:
		return registry.NewCached(registry.NewHTTP(client, cfg.PackageURL), store, key, opts...)
	}
}

// registryKey names the stored snapshot of the configured listing
func registryKey(cfg *config.Config) string {
	if cfg.RegistryFile != "" {
		return "file://" + cfg.RegistryFile
	}
	return registry.NewHTTP(nil, cfg.PackageURL).URL()
}

// offlineRegistry never reaches the network; the cache in front of it
// falls back to the last persisted listing.
type offlineRegistry struct{}

func (offlineRegistry) Entries(ctx context.Context) ([]registry.Entry, error) {
	return nil, fmt.Errorf("%w: offline and no registry file configured", registry.ErrRegistryUnavailable)
}
