package docs

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *Index {
	t.Helper()
	data, err := os.ReadFile("testdata/core-docs.json")
	require.NoError(t, err)
	idx, err := Parse(data)
	require.NoError(t, err)
	return idx
}

func TestParse(t *testing.T) {
	idx := loadFixture(t)

	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, []string{"Basics", "List", "Maybe", "Json.Decode"}, idx.ModuleNames())

	maybe, err := idx.Module("Maybe")
	require.NoError(t, err)
	require.Len(t, maybe.Unions, 1)
	assert.Equal(t, []UnionCase{
		{Name: "Just", Args: []string{"a"}},
		{Name: "Nothing", Args: []string{}},
	}, maybe.Unions[0].Cases)

	decode, err := idx.Module("Json.Decode")
	require.NoError(t, err)
	assert.Empty(t, decode.Comment, "an empty comment array decodes to an empty string")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: `not json`},
		{name: "object instead of array", content: `{"name": "List"}`},
		{name: "module without name", content: `[{"values": []}]`},
		{name: "comment wrong type", content: `[{"name": "List", "comment": 42}]`},
		{name: "non-empty comment array", content: `[{"name": "List", "comment": ["x"]}]`},
		{name: "bad union case", content: `[{"name": "M", "unions": [{"name": "T", "cases": ["A"]}]}]`},
		{name: "case args not strings", content: `[{"name": "M", "unions": [{"name": "T", "cases": [["A", [1]]]}]}]`},
		{name: "duplicate module", content: `[{"name": "List"}, {"name": "List"}]`},
		{name: "value without name", content: `[{"name": "M", "values": [{"type": "Int"}]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			assert.ErrorIs(t, err, ErrDocsParse)
		})
	}
}

func TestExports_AllModules(t *testing.T) {
	idx := loadFixture(t)

	listing, err := idx.Exports("")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(listing.Modules), 2)
	assert.Equal(t, "Basics", listing.Modules[0].Name, "modules keep declared order")
	assert.Equal(t, "Json.Decode", listing.Modules[3].Name)
}

func TestExports_SingleModule(t *testing.T) {
	idx := loadFixture(t)

	listing, err := idx.Exports("List")
	require.NoError(t, err)
	require.Len(t, listing.Modules, 1)

	list := listing.Modules[0]
	assert.Equal(t, "List", list.Name)
	require.Len(t, list.Values, 2)
	assert.Equal(t, ValueExport{Name: "map", Type: "(a -> b) -> List.List a -> List.List b"}, list.Values[0])
	require.Len(t, list.Binops, 1)
	assert.Equal(t, 5, list.Binops[0].Precedence)
	assert.NotNil(t, list.Unions, "empty categories serialize as arrays")
	assert.NotNil(t, list.Aliases)
}

func TestExports_ModuleNotFound(t *testing.T) {
	idx := loadFixture(t)

	_, err := idx.Exports("Array")
	assert.ErrorIs(t, err, ErrModuleNotFound)
	assert.EqualError(t, err, "module not found: Array (available: Basics, List, Maybe, Json.Decode)")
}

func TestExports_NeverCarryComments(t *testing.T) {
	idx := loadFixture(t)

	listing, err := idx.Exports("")
	require.NoError(t, err)

	data, err := json.Marshal(listing)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"comment"`)

	var generic struct {
		Modules []map[string]json.RawMessage `json:"modules"`
	}
	require.NoError(t, json.Unmarshal(data, &generic))
	for _, m := range generic.Modules {
		assert.NotContains(t, m, "comment")
		for _, category := range []string{"values", "unions", "aliases", "binops"} {
			var entries []map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(m[category], &entries))
			for _, e := range entries {
				assert.NotContains(t, e, "comment")
			}
		}
	}
}

func TestExportDoc(t *testing.T) {
	idx := loadFixture(t)

	tests := []struct {
		name          string
		module        string
		export        string
		wantCategory  Category
		wantSignature string
	}{
		{name: "value", module: "List", export: "map", wantCategory: CategoryValue, wantSignature: "map : (a -> b) -> List.List a -> List.List b"},
		{name: "union", module: "Maybe", export: "Maybe", wantCategory: CategoryUnion, wantSignature: "type Maybe a = Just a | Nothing"},
		{name: "opaque union", module: "Basics", export: "Int", wantCategory: CategoryUnion, wantSignature: "type Int"},
		{name: "union with compound args", module: "Json.Decode", export: "Error", wantCategory: CategoryUnion, wantSignature: "type Error = Field String.String Json.Decode.Error | Failure String.String Json.Decode.Value"},
		{name: "binop", module: "Basics", export: "|>", wantCategory: CategoryBinop, wantSignature: "(|>) : a -> (a -> b) -> b"},
		{name: "values win over aliases", module: "Json.Decode", export: "Value", wantCategory: CategoryValue, wantSignature: "Value : Json.Decode.Decoder Json.Decode.Value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			export, err := idx.ExportDoc(tt.module, tt.export)
			require.NoError(t, err)
			assert.Equal(t, tt.module, export.Module)
			assert.Equal(t, tt.export, export.ExportName)
			assert.Equal(t, tt.wantCategory, export.Category)
			assert.Equal(t, tt.wantSignature, export.TypeSignature)
			assert.NotEmpty(t, export.Comment)
		})
	}
}

func TestExportDoc_CommentIsVerbatim(t *testing.T) {
	idx := loadFixture(t)

	list, err := idx.Module("List")
	require.NoError(t, err)

	for _, v := range list.Values {
		export, err := idx.ExportDoc("List", v.Name)
		require.NoError(t, err)
		assert.Equal(t, v.Comment, export.Comment)
	}

	export, err := idx.ExportDoc("List", "map")
	require.NoError(t, err)
	assert.True(t, strings.Contains(export.Comment, "Apply a function"))
}

func TestExportDoc_NotFound(t *testing.T) {
	idx := loadFixture(t)

	export, err := idx.ExportDoc("List", "nonExistentFunction")
	assert.ErrorIs(t, err, ErrExportNotFound)
	assert.Nil(t, export)

	export, err = idx.ExportDoc("Array", "map")
	assert.ErrorIs(t, err, ErrModuleNotFound)
	assert.Nil(t, export)
}

func TestAliasSignature(t *testing.T) {
	a := Alias{Name: "Pair", Args: []string{"a", "b"}, Type: "( a, b )"}
	assert.Equal(t, "type alias Pair a b = ( a, b )", a.Signature())

	u := Union{Name: "Tree", Args: []string{"a"}, Cases: []UnionCase{
		{Name: "Leaf"},
		{Name: "Node", Args: []string{"Tree a", "{ value : a }", "(Tree a)"}},
	}}
	assert.Equal(t, "type Tree a = Leaf | Node (Tree a) { value : a } (Tree a)", u.Signature())
}
