// Package manifest loads an Elm project's elm.json into an immutable
// dependency model.
//
// Application manifests partition their dependencies into direct and indirect
// sets, each a map from "author/name" to an exact version:
//
//	{
//	  "type": "application",
//	  "dependencies": {
//	    "direct":   {"elm/core": "1.0.5"},
//	    "indirect": {"elm/json": "1.1.3"}
//	  }
//	}
//
// Package manifests list version constraints instead; their lower bounds are
// treated as direct dependencies and the indirect set is empty.
//
// A Manifest is loaded once at startup and never mutated. Listings are sorted
// by identity so that repeated calls serialize identically.
package manifest
