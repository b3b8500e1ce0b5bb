package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/caseyWebb/elm-package-mcp-server/pkg/types"
)

// FileName is the name of the Elm project manifest
const FileName = "elm.json"

// Project kinds declared in the "type" field of elm.json
const (
	KindApplication = "application"
	KindPackage     = "package"
)

var (
	// ErrManifestNotFound is returned when no elm.json exists at the given location
	ErrManifestNotFound = errors.New("elm.json not found")
	// ErrManifestParse is returned when elm.json is not well-formed JSON
	ErrManifestParse = errors.New("failed to parse elm.json")
	// ErrManifestSchema is returned when the dependencies section has the wrong shape
	ErrManifestSchema = errors.New("invalid elm.json dependencies")
)

// Manifest is the immutable, load-once view of a project's elm.json
type Manifest struct {
	path       string
	raw        []byte
	kind       string
	elmVersion string
	direct     []types.Package
	indirect   []types.Package
	installed  map[string]Installed
}

// Installed describes where an installed identity came from
type Installed struct {
	Package types.Package
	Source  types.DependencySource
}

// Entry is one row of a package listing
type Entry struct {
	Author  string                 `json:"author"`
	Name    string                 `json:"name"`
	Version string                 `json:"version"`
	Source  types.DependencySource `json:"source"`
}

// Listing is the result of List
type Listing struct {
	Packages      []Entry `json:"packages"`
	DirectCount   int     `json:"direct_count"`
	IndirectCount int     `json:"indirect_count"`
	Total         int     `json:"total"`
}

type rawManifest struct {
	Type         string          `json:"type"`
	ElmVersion   string          `json:"elm-version"`
	Dependencies json.RawMessage `json:"dependencies"`
}

type rawApplicationDeps struct {
	Direct   json.RawMessage `json:"direct"`
	Indirect json.RawMessage `json:"indirect"`
}

// Find walks from startDir up to the filesystem root looking for elm.json
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w in %s or any parent directory", ErrManifestNotFound, startDir)
		}
		dir = parent
	}
}

// Load reads and validates the manifest at path
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	m.path = path
	return m, nil
}

// Parse builds a Manifest from raw elm.json content
func Parse(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestParse, err)
	}

	if isAbsent(raw.Dependencies) {
		return nil, fmt.Errorf("%w: missing \"dependencies\"", ErrManifestSchema)
	}

	m := &Manifest{
		raw:        append([]byte(nil), data...),
		kind:       raw.Type,
		elmVersion: raw.ElmVersion,
		installed:  make(map[string]Installed),
	}
	if m.kind == "" {
		m.kind = KindApplication
	}

	var err error
	switch m.kind {
	case KindPackage:
		m.direct, err = parseConstraints(raw.Dependencies)
	case KindApplication:
		m.direct, m.indirect, err = parseApplicationDeps(raw.Dependencies)
	default:
		err = fmt.Errorf("%w: unknown project type %q", ErrManifestSchema, m.kind)
	}
	if err != nil {
		return nil, err
	}

	for _, pkg := range m.direct {
		m.installed[pkg.ID.String()] = Installed{Package: pkg, Source: types.SourceDirect}
	}
	for _, pkg := range m.indirect {
		name := pkg.ID.String()
		if _, dup := m.installed[name]; dup {
			return nil, fmt.Errorf("%w: %s listed as both direct and indirect", ErrManifestSchema, name)
		}
		m.installed[name] = Installed{Package: pkg, Source: types.SourceIndirect}
	}

	return m, nil
}

func parseApplicationDeps(data json.RawMessage) (direct, indirect []types.Package, err error) {
	var deps rawApplicationDeps
	if err := json.Unmarshal(data, &deps); err != nil {
		return nil, nil, fmt.Errorf("%w: \"dependencies\" must be an object: %v", ErrManifestSchema, err)
	}
	if isAbsent(deps.Direct) {
		return nil, nil, fmt.Errorf("%w: missing \"dependencies.direct\"", ErrManifestSchema)
	}
	if isAbsent(deps.Indirect) {
		return nil, nil, fmt.Errorf("%w: missing \"dependencies.indirect\"", ErrManifestSchema)
	}

	direct, err = parseVersionMap("dependencies.direct", deps.Direct)
	if err != nil {
		return nil, nil, err
	}
	indirect, err = parseVersionMap("dependencies.indirect", deps.Indirect)
	if err != nil {
		return nil, nil, err
	}
	return direct, indirect, nil
}

func parseVersionMap(field string, data json.RawMessage) ([]types.Package, error) {
	var versions map[string]string
	if err := json.Unmarshal(data, &versions); err != nil {
		return nil, fmt.Errorf("%w: %q must map \"author/name\" to a version string", ErrManifestSchema, field)
	}

	packages := make([]types.Package, 0, len(versions))
	for fullName, version := range versions {
		pkg, err := newPackage(fullName, version)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrManifestSchema, field, err)
		}
		packages = append(packages, pkg)
	}
	sortPackages(packages)
	return packages, nil
}

// parseConstraints handles package projects, whose dependencies are version
// ranges like "1.0.0 <= v < 2.0.0". The lower bound stands in for the version.
func parseConstraints(data json.RawMessage) ([]types.Package, error) {
	var constraints map[string]string
	if err := json.Unmarshal(data, &constraints); err != nil {
		return nil, fmt.Errorf("%w: \"dependencies\" must map \"author/name\" to a constraint", ErrManifestSchema)
	}

	packages := make([]types.Package, 0, len(constraints))
	for fullName, constraint := range constraints {
		lower, err := lowerBound(constraint)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrManifestSchema, fullName, err)
		}
		pkg, err := newPackage(fullName, lower)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrManifestSchema, err)
		}
		packages = append(packages, pkg)
	}
	sortPackages(packages)
	return packages, nil
}

func lowerBound(constraint string) (string, error) {
	fields := strings.Fields(constraint)
	if len(fields) == 0 {
		return "", fmt.Errorf("empty constraint")
	}
	v, err := semver.StrictNewVersion(fields[0])
	if err != nil {
		return "", fmt.Errorf("invalid constraint %q", constraint)
	}
	return v.String(), nil
}

func newPackage(fullName, version string) (types.Package, error) {
	id, err := types.ParsePackageID(fullName)
	if err != nil {
		return types.Package{}, err
	}
	pkg := types.Package{ID: id, Version: version}
	if err := pkg.Validate(); err != nil {
		return types.Package{}, fmt.Errorf("%s: %w", fullName, err)
	}
	return pkg, nil
}

func sortPackages(packages []types.Package) {
	sort.Slice(packages, func(i, j int) bool {
		return packages[i].ID.String() < packages[j].ID.String()
	})
}

func isAbsent(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Path returns the file the manifest was loaded from, empty for Parse
func (m *Manifest) Path() string {
	return m.path
}

// Raw returns a copy of the verbatim file content
func (m *Manifest) Raw() []byte {
	return append([]byte(nil), m.raw...)
}

// Kind returns "application" or "package"
func (m *Manifest) Kind() string {
	return m.kind
}

// ElmVersion returns the elm-version field as written
func (m *Manifest) ElmVersion() string {
	return m.elmVersion
}

// CompilerVersion returns the exact compiler version of an application
// project. Package projects declare a range instead, so ok is false.
func (m *Manifest) CompilerVersion() (version string, ok bool) {
	if m.kind != KindApplication || types.ValidateVersion(m.elmVersion) != nil {
		return "", false
	}
	return m.elmVersion, true
}

// Direct returns the direct dependencies sorted by identity
func (m *Manifest) Direct() []types.Package {
	return append([]types.Package(nil), m.direct...)
}

// Indirect returns the indirect dependencies sorted by identity
func (m *Manifest) Indirect() []types.Package {
	return append([]types.Package(nil), m.indirect...)
}

// Packages returns direct dependencies, followed by indirect ones when requested
func (m *Manifest) Packages(includeIndirect bool) []types.Package {
	out := m.Direct()
	if includeIndirect {
		out = append(out, m.indirect...)
	}
	return out
}

// List builds the package listing. Counts always describe both partitions;
// Total only counts what Packages contains.
func (m *Manifest) List(includeIndirect bool) Listing {
	listing := Listing{
		Packages:      make([]Entry, 0, len(m.direct)+len(m.indirect)),
		DirectCount:   len(m.direct),
		IndirectCount: len(m.indirect),
	}

	for _, pkg := range m.direct {
		listing.Packages = append(listing.Packages, newEntry(pkg, types.SourceDirect))
	}
	if includeIndirect {
		for _, pkg := range m.indirect {
			listing.Packages = append(listing.Packages, newEntry(pkg, types.SourceIndirect))
		}
	}

	listing.Total = len(listing.Packages)
	return listing
}

func newEntry(pkg types.Package, source types.DependencySource) Entry {
	return Entry{
		Author:  pkg.ID.Author,
		Name:    pkg.ID.Name,
		Version: pkg.Version,
		Source:  source,
	}
}

// Installed returns the full direct and indirect set keyed by "author/name"
func (m *Manifest) Installed() map[string]Installed {
	out := make(map[string]Installed, len(m.installed))
	for k, v := range m.installed {
		out[k] = v
	}
	return out
}

// IsInstalled reports whether the identity is in either partition
func (m *Manifest) IsInstalled(fullName string) bool {
	_, ok := m.installed[fullName]
	return ok
}

// Lookup returns the installed version and partition of an identity
func (m *Manifest) Lookup(id types.PackageID) (Installed, bool) {
	inst, ok := m.installed[id.String()]
	return inst, ok
}
