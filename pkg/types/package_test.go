package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackageID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    PackageID
		wantErr error
	}{
		{name: "valid", input: "elm/core", want: PackageID{Author: "elm", Name: "core"}},
		{name: "hyphenated", input: "NoRedInk/elm-json-decode-pipeline", want: PackageID{Author: "NoRedInk", Name: "elm-json-decode-pipeline"}},
		{name: "missing slash", input: "core", wantErr: ErrInvalidPackageID},
		{name: "too many parts", input: "a/b/c", wantErr: ErrInvalidPackageID},
		{name: "empty author", input: "/core", wantErr: ErrEmptyAuthor},
		{name: "empty name", input: "elm/", wantErr: ErrEmptyName},
		{name: "parent author", input: "../core", wantErr: ErrInvalidAuthor},
		{name: "current author", input: "./core", wantErr: ErrInvalidAuthor},
		{name: "parent name", input: "elm/..", wantErr: ErrInvalidName},
		{name: "dotted name", input: "elm/elm..core", want: PackageID{Author: "elm", Name: "elm..core"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePackageID(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestValidateVersion(t *testing.T) {
	valid := []string{"1.0.0", "1.0.5", "10.20.30"}
	for _, v := range valid {
		assert.NoError(t, ValidateVersion(v), v)
	}

	invalid := []string{"", "1", "1.0", "v1.0.0", "1.0.0-beta", "1.0.0+meta", "latest"}
	for _, v := range invalid {
		assert.ErrorIs(t, ValidateVersion(v), ErrInvalidVersion, v)
	}
}

func TestNewPackage(t *testing.T) {
	pkg, err := NewPackage("elm", "core", "1.0.5")
	require.NoError(t, err)
	assert.Equal(t, "elm/core@1.0.5", pkg.Key())
	assert.Equal(t, "elm/core 1.0.5", pkg.String())

	_, err = NewPackage("elm", "core", "one")
	assert.ErrorIs(t, err, ErrInvalidVersion)

	_, err = NewPackage("", "core", "1.0.5")
	assert.ErrorIs(t, err, ErrEmptyAuthor)

	_, err = NewPackage("..", "core", "1.0.5")
	assert.ErrorIs(t, err, ErrInvalidAuthor)
	assert.ErrorIs(t, err, ErrInvalidPackageID)

	_, err = NewPackage("elm", ".", "1.0.5")
	assert.ErrorIs(t, err, ErrInvalidName)
}
