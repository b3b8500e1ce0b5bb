package types

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// DependencySource tags which manifest partition an installed package came from
type DependencySource string

const (
	SourceDirect   DependencySource = "direct"
	SourceIndirect DependencySource = "indirect"
)

// PackageID identifies a package in the Elm registry
type PackageID struct {
	Author string
	Name   string
}

// ParsePackageID parses the "author/name" form used by elm.json and the registry
func ParsePackageID(fullName string) (PackageID, error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 {
		return PackageID{}, fmt.Errorf("%w: %q", ErrInvalidPackageID, fullName)
	}
	id := PackageID{Author: parts[0], Name: parts[1]}
	if err := id.Validate(); err != nil {
		return PackageID{}, fmt.Errorf("%w: %q", err, fullName)
	}
	return id, nil
}

// String returns the "author/name" form
func (id PackageID) String() string {
	return id.Author + "/" + id.Name
}

// Validate checks that both halves of the identity are present and are
// single path segments
func (id PackageID) Validate() error {
	if strings.TrimSpace(id.Author) == "" {
		return ErrEmptyAuthor
	}
	if strings.TrimSpace(id.Name) == "" {
		return ErrEmptyName
	}
	if strings.ContainsAny(id.Author+id.Name, "/\\") {
		return ErrInvalidPackageID
	}
	if isDotSegment(id.Author) {
		return ErrInvalidAuthor
	}
	if isDotSegment(id.Name) {
		return ErrInvalidName
	}
	return nil
}

func isDotSegment(s string) bool {
	return s == "." || s == ".."
}

// Package is an installed artifact: identity plus exact version
type Package struct {
	ID      PackageID
	Version string
}

// NewPackage builds and validates a Package from its three parts
func NewPackage(author, name, version string) (Package, error) {
	pkg := Package{ID: PackageID{Author: author, Name: name}, Version: version}
	if err := pkg.Validate(); err != nil {
		return Package{}, err
	}
	return pkg, nil
}

// Validate checks the identity and the version
func (p Package) Validate() error {
	if err := p.ID.Validate(); err != nil {
		return err
	}
	return ValidateVersion(p.Version)
}

// Key returns "author/name@version", unique per installed artifact
func (p Package) Key() string {
	return p.ID.String() + "@" + p.Version
}

// String implements fmt.Stringer
func (p Package) String() string {
	return p.ID.String() + " " + p.Version
}

// ValidateVersion accepts only plain major.minor.patch versions
func ValidateVersion(version string) error {
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	return nil
}
