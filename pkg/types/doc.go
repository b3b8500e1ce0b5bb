// Package types provides shared type definitions for the Elm package MCP server.
//
// This package defines the identities used across the manifest, documentation
// and catalog components: a package identity (author/name), an installed
// package (identity plus semantic version) and the dependency source tag.
//
// # Package Identity
//
// PackageID is the globally unique registry identity of an Elm package:
//
//	id, err := types.ParsePackageID("elm/core")
//	// id.Author == "elm", id.Name == "core", id.String() == "elm/core"
//
// Package pairs an identity with the exact installed version:
//
//	pkg := types.Package{ID: id, Version: "1.0.5"}
//	if err := pkg.Validate(); err != nil {
//	    return err
//	}
//
// # Versions
//
// Elm package versions are always three-component semantic versions with no
// prefix or pre-release suffix ("1.0.5"). ValidateVersion enforces that shape.
//
// # Dependency Source
//
// Installed packages are tagged with the manifest partition they came from:
//
//	types.SourceDirect   // declared by the project
//	types.SourceIndirect // pulled in transitively
package types
