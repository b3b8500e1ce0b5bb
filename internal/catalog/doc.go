// Package catalog is the package-level view the server tools are built on.
//
// It resolves installed packages from the project manifest, loads each
// version's docs.json and README.md through an ArtifactSource, caches the
// parsed indices, and searches the registry listing.
//
// Artifacts are looked up in the Elm compiler's own cache first:
//
//	src := catalog.Chain{
//	    catalog.NewElmHome(elmHome, "0.19.1"),
//	    catalog.NewRemote(client, fetch.DefaultBaseURL, store, logger),
//	}
//	cat := catalog.New(m, src, reg, catalog.WithLogger(logger))
//
// Docs for the same version are parsed once; concurrent requests share the
// load and later requests hit an LRU cache.
package catalog
