// Package storage provides the SQLite cache behind the package registry
// and remote documentation sources.
//
// The cache holds two kinds of data:
//   - Registry snapshots: complete copies of a search.json listing, one per
//     source URL, with the time they were fetched
//   - Artifacts: docs.json and README.md files of exact package versions
//
// Published package versions never change, so artifacts are kept forever.
// Snapshots are refreshed by the registry package once they pass their TTL.
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage(path)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	err = db.SaveSnapshot(ctx, &storage.Snapshot{
//	    Source:    "https://package.elm-lang.org/search.json",
//	    FetchedAt: time.Now(),
//	    Entries:   entries,
//	})
//
//	snapshot, err := db.LoadSnapshot(ctx, source)
//	if errors.Is(err, storage.ErrNotFound) {
//	    // nothing cached yet
//	}
//
// # Build Tags
//
// The default build uses modernc.org/sqlite, a pure Go driver:
//
//	CGO_ENABLED=0 go build ./...
//
// Building with the sqlite_cgo tag switches to github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags sqlite_cgo ./...
package storage
