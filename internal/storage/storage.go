package storage

import (
	"context"
	"time"
)

// Storage persists data fetched from package.elm-lang.org so that later
// runs can answer without the network.
type Storage interface {
	// Registry snapshot operations
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
	LoadSnapshot(ctx context.Context, source string) (*Snapshot, error)
	DeleteSnapshot(ctx context.Context, source string) error

	// Artifact operations
	PutArtifact(ctx context.Context, artifact *Artifact) error
	GetArtifact(ctx context.Context, key ArtifactKey) (*Artifact, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

// Snapshot is one complete copy of a registry listing
type Snapshot struct {
	Source    string // URL or path the listing came from
	FetchedAt time.Time
	Entries   []RegistryEntry
}

// RegistryEntry is one row of a snapshot; Position keeps registry order
type RegistryEntry struct {
	Position int
	Name     string
	Summary  string
	License  string
	Version  string
}

// ArtifactKey identifies a published file of one package version
type ArtifactKey struct {
	Author  string
	Name    string
	Version string
	Kind    string // docs.json or README.md
}

// Artifact is a cached published file. Published versions are immutable,
// so artifacts never expire.
type Artifact struct {
	ArtifactKey
	Content   []byte
	FetchedAt time.Time
}

// Status summarizes what the cache holds
type Status struct {
	Snapshots     int
	RegistryRows  int
	Artifacts     int
	ArtifactBytes int64
	SchemaVersion string
}
