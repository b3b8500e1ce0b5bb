package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidSnapshot is returned when a snapshot cannot be stored
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Reset rolls every migration back and applies them again, leaving an
// empty cache at the current schema version.
func (s *SQLiteStorage) Reset(ctx context.Context) error {
	for {
		version, err := SchemaVersion(ctx, s.db)
		if err != nil {
			return err
		}
		if version == "0.0.0" {
			break
		}
		if err := RollbackMigration(ctx, s.db); err != nil {
			return err
		}
	}
	return ApplyMigrations(ctx, s.db)
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// Registry snapshot operations

// SaveSnapshot replaces the stored snapshot for snapshot.Source atomically
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := saveSnapshot(ctx, tx, snapshot); err != nil {
		return err
	}
	return tx.Commit()
}

func saveSnapshot(ctx context.Context, q querier, snapshot *Snapshot) error {
	if snapshot == nil || snapshot.Source == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidSnapshot)
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM registry_entries WHERE source = ?", snapshot.Source); err != nil {
		return fmt.Errorf("failed to clear registry entries: %w", err)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM registry_snapshots WHERE source = ?", snapshot.Source); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	fetchedAt := snapshot.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	_, err := q.ExecContext(ctx,
		"INSERT INTO registry_snapshots (source, fetched_at, entry_count) VALUES (?, ?, ?)",
		snapshot.Source, fetchedAt.UnixMilli(), len(snapshot.Entries))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	query := `
		INSERT INTO registry_entries (source, position, name, summary, license, version)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for i, e := range snapshot.Entries {
		if e.Name == "" {
			return fmt.Errorf("%w: entry %d has no name", ErrInvalidSnapshot, i)
		}
		if _, err := q.ExecContext(ctx, query, snapshot.Source, i, e.Name, e.Summary, e.License, e.Version); err != nil {
			return fmt.Errorf("failed to insert registry entry %s: %w", e.Name, err)
		}
	}
	return nil
}

// LoadSnapshot returns the stored snapshot in registry order, or ErrNotFound
func (s *SQLiteStorage) LoadSnapshot(ctx context.Context, source string) (*Snapshot, error) {
	return loadSnapshot(ctx, s.db, source)
}

func loadSnapshot(ctx context.Context, q querier, source string) (*Snapshot, error) {
	var fetchedAt int64
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT fetched_at, entry_count FROM registry_snapshots WHERE source = ?", source).
		Scan(&fetchedAt, &count)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT position, name, summary, license, version
		FROM registry_entries
		WHERE source = ?
		ORDER BY position
	`, source)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := &Snapshot{
		Source:    source,
		FetchedAt: time.UnixMilli(fetchedAt),
		Entries:   make([]RegistryEntry, 0, count),
	}
	for rows.Next() {
		var e RegistryEntry
		if err := rows.Scan(&e.Position, &e.Name, &e.Summary, &e.License, &e.Version); err != nil {
			return nil, err
		}
		snapshot.Entries = append(snapshot.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// DeleteSnapshot removes a snapshot and its entries
func (s *SQLiteStorage) DeleteSnapshot(ctx context.Context, source string) error {
	return deleteSnapshot(ctx, s.db, source)
}

func deleteSnapshot(ctx context.Context, q querier, source string) error {
	result, err := q.ExecContext(ctx, "DELETE FROM registry_snapshots WHERE source = ?", source)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Artifact operations

// PutArtifact stores or replaces a published file
func (s *SQLiteStorage) PutArtifact(ctx context.Context, artifact *Artifact) error {
	return putArtifact(ctx, s.db, artifact)
}

func putArtifact(ctx context.Context, q querier, artifact *Artifact) error {
	fetchedAt := artifact.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO artifacts (author, name, version, kind, content, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(author, name, version, kind) DO UPDATE SET
			content = excluded.content,
			fetched_at = excluded.fetched_at
	`, artifact.Author, artifact.Name, artifact.Version, artifact.Kind, artifact.Content, fetchedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}
	return nil
}

// GetArtifact returns a stored file, or ErrNotFound
func (s *SQLiteStorage) GetArtifact(ctx context.Context, key ArtifactKey) (*Artifact, error) {
	return getArtifact(ctx, s.db, key)
}

func getArtifact(ctx context.Context, q querier, key ArtifactKey) (*Artifact, error) {
	artifact := &Artifact{ArtifactKey: key}
	var fetchedAt int64
	err := q.QueryRowContext(ctx, `
		SELECT content, fetched_at FROM artifacts
		WHERE author = ? AND name = ? AND version = ? AND kind = ?
	`, key.Author, key.Name, key.Version, key.Kind).Scan(&artifact.Content, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	artifact.FetchedAt = time.UnixMilli(fetchedAt)
	return artifact, nil
}

// Status operations

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	return getStatus(ctx, s.db)
}

func getStatus(ctx context.Context, q querier) (*Status, error) {
	status := &Status{}

	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM registry_snapshots").Scan(&status.Snapshots)
	if err != nil {
		return nil, err
	}
	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM registry_entries").Scan(&status.RegistryRows)
	if err != nil {
		return nil, err
	}
	err = q.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(LENGTH(content)), 0) FROM artifacts").
		Scan(&status.Artifacts, &status.ArtifactBytes)
	if err != nil {
		return nil, err
	}

	version, err := currentVersion(ctx, q)
	if err != nil {
		return nil, err
	}
	status.SchemaVersion = version.String()

	return status, nil
}

// Transaction wrappers

func (t *sqliteTx) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	return saveSnapshot(ctx, t.tx, snapshot)
}

func (t *sqliteTx) LoadSnapshot(ctx context.Context, source string) (*Snapshot, error) {
	return loadSnapshot(ctx, t.tx, source)
}

func (t *sqliteTx) DeleteSnapshot(ctx context.Context, source string) error {
	return deleteSnapshot(ctx, t.tx, source)
}

func (t *sqliteTx) PutArtifact(ctx context.Context, artifact *Artifact) error {
	return putArtifact(ctx, t.tx, artifact)
}

func (t *sqliteTx) GetArtifact(ctx context.Context, key ArtifactKey) (*Artifact, error) {
	return getArtifact(ctx, t.tx, key)
}

func (t *sqliteTx) GetStatus(ctx context.Context) (*Status, error) {
	return getStatus(ctx, t.tx)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}
