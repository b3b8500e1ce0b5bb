package types

import (
	"errors"
	"fmt"
)

// Domain errors for identity validation
var (
	ErrInvalidPackageID = errors.New("package must be in format 'author/name'")
	ErrEmptyAuthor      = errors.New("package author cannot be empty")
	ErrEmptyName        = errors.New("package name cannot be empty")
	ErrInvalidVersion   = errors.New("version must be a semantic version like 1.0.5")

	// Both halves become directory names under ELM_HOME
	ErrInvalidAuthor = fmt.Errorf("%w: author cannot be '.' or '..'", ErrInvalidPackageID)
	ErrInvalidName   = fmt.Errorf("%w: name cannot be '.' or '..'", ErrInvalidPackageID)
)
