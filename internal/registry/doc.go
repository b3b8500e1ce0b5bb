// Package registry lists the packages published on package.elm-lang.org
// and filters them for search_packages.
//
// Listings come from a Source. Static and File serve fixed data, HTTP
// downloads search.json, and Cached puts a TTL'd SQLite snapshot in front
// of any other source so the listing survives restarts and outages.
package registry
