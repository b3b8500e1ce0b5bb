package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintCatalog_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printCatalog(&buf, catalogSelection{}, false))

	out := buf.String()
	assert.Contains(t, out, "Tools:\n")
	assert.Contains(t, out, "  get_elm_package_export_docs\n")
	assert.Contains(t, out, "      - export_name (string, required)\n")
	assert.Contains(t, out, "      - include_indirect (boolean, optional)\n")
	assert.Contains(t, out, "Prompts:\n")
	assert.Contains(t, out, "  explore-package\n")
	assert.Contains(t, out, "      - package (required)\n")
	assert.Contains(t, out, "Resources:\n  elm://elm.json (application/json)\n")
}

func TestPrintCatalog_Selection(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printCatalog(&buf, catalogSelection{Prompts: true}, false))

	out := buf.String()
	assert.Contains(t, out, "Prompts:")
	assert.NotContains(t, out, "Tools:")
	assert.NotContains(t, out, "Resources:")
}

func TestPrintCatalog_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printCatalog(&buf, catalogSelection{Tools: true, Resources: true}, true))

	var out map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Len(t, out["tools"], 5)
	assert.Len(t, out["resources"], 1)
	assert.NotContains(t, out, "prompts")
	assert.Equal(t, "list_installed_packages", out["tools"][0]["name"])
}

func TestRootCommand_Version(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--version"})
	t.Cleanup(func() {
		flagShowVersion = false
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "Elm Package MCP Server")
	assert.Contains(t, buf.String(), "SQLite Driver:")
}
