package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/caseyWebb/elm-package-mcp-server/internal/config"
	"github.com/caseyWebb/elm-package-mcp-server/internal/storage"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the persistent package cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the cache holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, store *storage.SQLiteStorage) error {
			return printCacheStatus(ctx, cmd.OutOrStdout(), cfg.CacheDB, store)
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the stored registry listing so the next search refetches it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, store *storage.SQLiteStorage) error {
			key := registryKey(cfg)
			cleared, err := clearSnapshot(ctx, store, key)
			if err != nil {
				return err
			}
			if cleared {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared registry listing %s\n", key)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "No registry listing stored for %s\n", key)
			}
			return nil
		})
	},
}

var cacheResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Empty the cache, including downloaded docs and READMEs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, store *storage.SQLiteStorage) error {
			if err := store.Reset(ctx); err != nil {
				return fmt.Errorf("failed to reset cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset cache %s\n", cfg.CacheDB)
			return nil
		})
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd, cacheClearCmd, cacheResetCmd)
	rootCmd.AddCommand(cacheCmd)
}

// withStore opens the configured cache database for the duration of fn
func withStore(ctx context.Context, fn func(context.Context, *config.Config, *storage.SQLiteStorage) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.CacheDB == "" {
		return fmt.Errorf("persistent cache is disabled (%s is empty)", config.EnvCacheDB)
	}

	store, err := openStore(cfg.CacheDB)
	if err != nil {
		return fmt.Errorf("failed to open cache %s: %w", cfg.CacheDB, err)
	}
	defer store.Close()
	return fn(ctx, cfg, store)
}

func printCacheStatus(ctx context.Context, w io.Writer, path string, store storage.Storage) error {
	status, err := store.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read cache status: %w", err)
	}
	fmt.Fprintf(w, "Cache: %s\n", path)
	fmt.Fprintf(w, "Schema Version: %s\n", status.SchemaVersion)
	fmt.Fprintf(w, "Registry Snapshots: %d (%d packages)\n", status.Snapshots, status.RegistryRows)
	fmt.Fprintf(w, "Artifacts: %d (%d bytes)\n", status.Artifacts, status.ArtifactBytes)
	return nil
}

// clearSnapshot deletes the stored listing for key in one transaction.
// cleared is false when nothing was stored.
func clearSnapshot(ctx context.Context, store storage.Storage, key string) (cleared bool, err error) {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.DeleteSnapshot(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, tx.Commit()
	}
	if err != nil {
		return false, fmt.Errorf("failed to clear %s: %w", key, err)
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return true, nil
}
