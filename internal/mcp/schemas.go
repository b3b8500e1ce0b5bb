package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolName identifies a tool exposed through tools/call
type ToolName string

const (
	ToolListInstalledPackages ToolName = "list_installed_packages"
	ToolGetReadme             ToolName = "get_elm_package_readme"
	ToolGetExports            ToolName = "get_elm_package_exports"
	ToolGetExportDocs         ToolName = "get_elm_package_export_docs"
	ToolSearchPackages        ToolName = "search_packages"
)

// Tools returns the tool descriptors in the order tools/list reports them
func Tools() []mcp.Tool {
	return []mcp.Tool{
		listInstalledPackagesTool(),
		readmeTool(),
		exportsTool(),
		exportDocsTool(),
		searchPackagesTool(),
	}
}

func packageParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("author",
			mcp.Required(),
			mcp.Description("Package author, e.g. 'elm' in elm/core"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Package name, e.g. 'core' in elm/core"),
		),
		mcp.WithString("version",
			mcp.Required(),
			mcp.Description("Exact package version, e.g. '1.0.5'. Use list_installed_packages to find it"),
		),
	}
}

// listInstalledPackagesTool returns the tool definition for list_installed_packages
func listInstalledPackagesTool() mcp.Tool {
	return mcp.NewTool(string(ToolListInstalledPackages),
		mcp.WithDescription("List the Elm packages declared in the project's elm.json with their exact versions. "+
			"Direct dependencies are always listed; indirect ones only on request"),
		mcp.WithBoolean("include_indirect",
			mcp.Description("If true, include indirect dependencies"),
			mcp.DefaultBool(false),
		),
	)
}

// readmeTool returns the tool definition for get_elm_package_readme
func readmeTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Get the README of an Elm package version"),
	}, packageParams()...)
	return mcp.NewTool(string(ToolGetReadme), opts...)
}

// exportsTool returns the tool definition for get_elm_package_exports
func exportsTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("List the exposed modules of an Elm package version and their values, types, aliases and operators with type signatures. " +
			"Doc comments are omitted; use get_elm_package_export_docs for those"),
	}, packageParams()...)
	opts = append(opts, mcp.WithString("module",
		mcp.Description("Only list this module, e.g. 'Json.Decode'. Omit to list every module"),
	))
	return mcp.NewTool(string(ToolGetExports), opts...)
}

// exportDocsTool returns the tool definition for get_elm_package_export_docs
func exportDocsTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Get the full documentation comment and signature of one export of an Elm module"),
	}, packageParams()...)
	opts = append(opts,
		mcp.WithString("module",
			mcp.Required(),
			mcp.Description("Module name, e.g. 'List'"),
		),
		mcp.WithString("export_name",
			mcp.Required(),
			mcp.Description("Name of the value, type, alias or operator, e.g. 'map' or '|>'"),
		),
	)
	return mcp.NewTool(string(ToolGetExportDocs), opts...)
}

// searchPackagesTool returns the tool definition for search_packages
func searchPackagesTool() mcp.Tool {
	return mcp.NewTool(string(ToolSearchPackages),
		mcp.WithDescription("Search the Elm package registry by name and summary. Matching is case-insensitive"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms"),
		),
		mcp.WithBoolean("already_included",
			mcp.Description("If true, include packages already in elm.json. Set to false to only see packages not yet installed"),
			mcp.DefaultBool(true),
		),
	)
}
