package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/caseyWebb/elm-package-mcp-server/pkg/types"
)

type toolHandler func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error)

func (s *Server) registerTools() {
	s.toolDefs = Tools()
	s.tools = map[ToolName]toolHandler{
		ToolListInstalledPackages: s.handleListInstalledPackages,
		ToolGetReadme:             s.handleGetReadme,
		ToolGetExports:            s.handleGetExports,
		ToolGetExportDocs:         s.handleGetExportDocs,
		ToolSearchPackages:        s.handleSearchPackages,
	}
}

func (s *Server) toolDef(name ToolName) (mcp.Tool, bool) {
	for _, def := range s.toolDefs {
		if def.Name == string(name) {
			return def, true
		}
	}
	return mcp.Tool{}, false
}

func (s *Server) handleToolsList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	tools := make([]mcp.Tool, len(s.toolDefs))
	copy(tools, s.toolDefs)
	return &mcp.ListToolsResult{Tools: tools}, nil
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p callToolParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, invalidParam("name", "missing or empty")
	}

	name := ToolName(p.Name)
	handler, ok := s.tools[name]
	if !ok {
		return nil, newError(ErrorCodeUnknownTool, fmt.Sprintf("unknown tool: %s", p.Name),
			map[string]interface{}{"tool": p.Name})
	}
	def, _ := s.toolDef(name)

	args, err := decodeArguments(p.Arguments)
	if err != nil {
		return nil, err
	}
	if err := validateArguments(def.InputSchema, args); err != nil {
		return nil, err
	}

	s.logger.Debug("calling tool", "tool", p.Name)
	return handler(ctx, args)
}

func decodeArguments(raw json.RawMessage) (map[string]interface{}, error) {
	args := map[string]interface{}{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullID) {
		return args, nil
	}
	if trimmed[0] != '{' {
		return nil, invalidParam("arguments", "must be an object")
	}
	if err := json.Unmarshal(trimmed, &args); err != nil {
		return nil, invalidParam("arguments", err.Error())
	}
	return args, nil
}

// validateArguments checks args against the declared input schema
func validateArguments(schema mcp.ToolInputSchema, args map[string]interface{}) error {
	for _, name := range schema.Required {
		value, ok := args[name]
		if !ok || value == nil {
			return invalidParam(name, "required parameter is missing")
		}
	}

	for name, value := range args {
		prop, ok := schema.Properties[name].(map[string]interface{})
		if !ok {
			continue
		}
		declared, _ := prop["type"].(string)
		if value == nil {
			continue
		}
		if !matchesType(declared, value) {
			return invalidParam(name, fmt.Sprintf("expected %s, got %s", declared, jsonType(value)))
		}
	}

	for _, name := range schema.Required {
		if str, ok := args[name].(string); ok && strings.TrimSpace(str) == "" {
			return invalidParam(name, "must not be empty")
		}
	}
	return nil
}

func matchesType(declared string, value interface{}) bool {
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "integer":
		f, ok := value.(float64)
		return ok && f == float64(int64(f))
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	}
	return true
}

func jsonType(value interface{}) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	}
	return "null"
}

func getString(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func getBoolDefault(args map[string]interface{}, key string, defaultVal bool) bool {
	if b, ok := args[key].(bool); ok {
		return b
	}
	return defaultVal
}

// packageArg builds the package coordinates shared by the docs tools
func packageArg(args map[string]interface{}) (types.Package, error) {
	author := getString(args, "author")
	name := getString(args, "name")
	version := getString(args, "version")

	if err := types.ValidateVersion(version); err != nil {
		return types.Package{}, invalidParam("version", err.Error())
	}
	pkg, err := types.NewPackage(author, name, version)
	if err != nil {
		param := "name"
		if errors.Is(err, types.ErrEmptyAuthor) || errors.Is(err, types.ErrInvalidAuthor) {
			param = "author"
		}
		return types.Package{}, invalidParam(param, err.Error())
	}
	return pkg, nil
}

// formatJSON renders a tool payload as indented JSON
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(data), nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	text, err := formatJSON(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(text), nil
}

// handleListInstalledPackages implements the list_installed_packages tool
func (s *Server) handleListInstalledPackages(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	listing, err := s.catalog.Installed(getBoolDefault(args, "include_indirect", false))
	if err != nil {
		return nil, err
	}
	return jsonResult(listing)
}

// handleGetReadme implements the get_elm_package_readme tool
func (s *Server) handleGetReadme(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	pkg, err := packageArg(args)
	if err != nil {
		return nil, err
	}
	readme, err := s.catalog.Readme(ctx, pkg)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(readme), nil
}

// handleGetExports implements the get_elm_package_exports tool
func (s *Server) handleGetExports(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	pkg, err := packageArg(args)
	if err != nil {
		return nil, err
	}
	exports, err := s.catalog.Exports(ctx, pkg, getString(args, "module"))
	if err != nil {
		return nil, err
	}
	return jsonResult(exports)
}

// handleGetExportDocs implements the get_elm_package_export_docs tool
func (s *Server) handleGetExportDocs(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	pkg, err := packageArg(args)
	if err != nil {
		return nil, err
	}
	export, err := s.catalog.ExportDoc(ctx, pkg, getString(args, "module"), getString(args, "export_name"))
	if err != nil {
		return nil, err
	}
	return jsonResult(export)
}

// handleSearchPackages implements the search_packages tool
func (s *Server) handleSearchPackages(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	results, err := s.catalog.Search(ctx, getString(args, "query"), getBoolDefault(args, "already_included", true))
	if err != nil {
		return nil, err
	}
	return jsonResult(results)
}
