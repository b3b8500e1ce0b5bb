// Package prompts holds the compiled-in prompt templates. Each template
// names the server tools an assistant should call, in order, to answer a
// common question about Elm packages.
package prompts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/caseyWebb/elm-package-mcp-server/pkg/types"
)

var (
	// ErrPromptNotFound is returned for a name outside the catalog
	ErrPromptNotFound = errors.New("prompt not found")
	// ErrMissingArgument is returned when a required argument is absent or empty
	ErrMissingArgument = errors.New("missing required argument")
	// ErrInvalidArgument is returned when an argument has the wrong shape
	ErrInvalidArgument = errors.New("invalid argument")
)

// Name identifies a prompt template
type Name string

const (
	AnalyzeDependencies Name = "analyze-dependencies"
	ExplorePackage      Name = "explore-package"
	FindFunction        Name = "find-function"
	DebugImport         Name = "debug-import"
	DiscoverPackages    Name = "discover-packages"
	PackageComparison   Name = "package-comparison"
	MigrateToSkills     Name = "migrate-to-skills"
)

// Argument describes one template parameter
type Argument struct {
	Name        string
	Description string
	Required    bool
	// validate, when set, checks a supplied value
	validate func(string) error
}

// Template is a prompt definition plus its renderer
type Template struct {
	Name        Name
	Description string
	Arguments   []Argument
	summary     func(args map[string]string) string
	text        func(args map[string]string) string
}

// Prompt converts the template into its protocol descriptor
func (t Template) Prompt() mcp.Prompt {
	opts := []mcp.PromptOption{mcp.WithPromptDescription(t.Description)}
	for _, arg := range t.Arguments {
		argOpts := []mcp.ArgumentOption{mcp.ArgumentDescription(arg.Description)}
		if arg.Required {
			argOpts = append(argOpts, mcp.RequiredArgument())
		}
		opts = append(opts, mcp.WithArgument(arg.Name, argOpts...))
	}
	return mcp.NewPrompt(string(t.Name), opts...)
}

// catalog lists templates in presentation order
var catalog = []Template{
	{
		Name:        AnalyzeDependencies,
		Description: "Analyze your Elm project's dependencies, explaining what each package does and suggesting optimizations. Proactively use when user asks about their elm.json or project structure.",
		summary: func(map[string]string) string {
			return "Analyze Elm project dependencies and provide insights"
		},
		text: func(map[string]string) string {
			return "Please analyze my Elm project's dependencies. First, list all packages from elm.json, " +
				"then for each direct dependency, fetch its README to understand what it does. " +
				"Provide a summary of: 1) What packages are used, 2) What each package's main purpose is, " +
				"3) Any potential concerns or suggestions."
		},
	},
	{
		Name:        ExplorePackage,
		Description: "Explore the capabilities of a specific Elm package by examining its exports, modules, and key functions. Use when user mentions a package name or asks 'what can I do with X package'.",
		Arguments: []Argument{
			{Name: "package", Description: "Package name in format 'author/name' (e.g., 'elm/core')", Required: true, validate: validatePackageName},
		},
		summary: func(args map[string]string) string {
			return fmt.Sprintf("Explore the %s package", args["package"])
		},
		text: func(args map[string]string) string {
			return fmt.Sprintf("Please explore the '%s' package. First, check if it's in my elm.json dependencies "+
				"using list_installed_packages. If not found there, try searching with search_packages to verify "+
				"the package exists. Then fetch its README and exports. Provide: 1) Overview of what the package "+
				"does, 2) Key modules and their purposes, 3) Most commonly used functions with examples.",
				args["package"])
		},
	},
	{
		Name:        FindFunction,
		Description: "Search for functions across your Elm dependencies that match a specific capability or use case. Proactively use when user asks 'how do I do X' in Elm.",
		Arguments: []Argument{
			{Name: "capability", Description: "What the user wants to accomplish (e.g., 'parse JSON', 'map over a list', 'handle HTTP errors')", Required: true},
		},
		summary: func(args map[string]string) string {
			return fmt.Sprintf("Find functions for: %s", args["capability"])
		},
		text: func(args map[string]string) string {
			return fmt.Sprintf("I need to '%s' in Elm. First, search the package registry using search_packages "+
				"to find relevant packages. Then check which are already in my project with list_installed_packages. "+
				"For promising packages, explore them with get_elm_package_exports to find specific functions. "+
				"Provide function names, type signatures, and usage examples. If no existing packages help, "+
				"suggest searching for alternatives.",
				args["capability"])
		},
	},
	{
		Name:        DebugImport,
		Description: "Explain what functions and types are available from a specific Elm module import. Use when user has import errors or asks about available functions from an import.",
		Arguments: []Argument{
			{Name: "module_path", Description: "Full module path (e.g., 'List', 'Html.Attributes', 'Json.Decode')", Required: true},
		},
		summary: func(args map[string]string) string {
			return fmt.Sprintf("Debug import for module: %s", args["module_path"])
		},
		text: func(args map[string]string) string {
			return fmt.Sprintf("I'm trying to use the '%s' module in Elm. Please help me understand what's available. "+
				"First, determine which package provides this module by checking my dependencies. Then fetch the "+
				"exports for this specific module and explain: 1) All available functions with their type signatures, "+
				"2) Common usage patterns, 3) What I can import from this module.",
				args["module_path"])
		},
	},
	{
		Name:        DiscoverPackages,
		Description: "Discover new Elm packages for a specific need or use case. Proactively use when user describes a problem that might need a new package, or asks 'what packages are available for X'.",
		Arguments: []Argument{
			{Name: "need", Description: "What the user needs to accomplish (e.g., 'parsing CSV', 'working with dates', 'making HTTP requests')", Required: true},
		},
		summary: func(args map[string]string) string {
			return fmt.Sprintf("Discover packages for: %s", args["need"])
		},
		text: func(args map[string]string) string {
			return fmt.Sprintf("I need to '%s' in Elm and I'm looking for packages to help. Please use search_packages "+
				"to find relevant packages in the Elm ecosystem. Then for the top 3-5 most relevant results: "+
				"1) Fetch their READMEs to understand what they do, 2) Check if any are already installed in my "+
				"project using list_installed_packages, 3) Compare their approaches and recommend which to use, "+
				"with pros/cons for each.",
				args["need"])
		},
	},
	{
		Name:        PackageComparison,
		Description: "Compare two Elm packages to help choose the best one for a specific use case. Use when user is deciding between alternatives.",
		Arguments: []Argument{
			{Name: "package1", Description: "First package in format 'author/name'", Required: true},
			{Name: "package2", Description: "Second package in format 'author/name'", Required: true},
		},
		summary: func(args map[string]string) string {
			return fmt.Sprintf("Compare %s vs %s", args["package1"], args["package2"])
		},
		text: func(args map[string]string) string {
			return fmt.Sprintf("Please compare the '%s' and '%s' packages. First, verify both exist using "+
				"search_packages. Then for each package, fetch the README and exports. Check if either is already "+
				"installed using list_installed_packages. Provide a comparison covering: 1) Main purpose and use "+
				"cases, 2) API differences and complexity, 3) Community adoption (check version numbers), "+
				"4) Which one I should choose and why.",
				args["package1"], args["package2"])
		},
	},
	{
		Name:        MigrateToSkills,
		Description: "Step-by-step instructions for replacing this server with the Elm skills plugin. Use when the user asks how to migrate or why tool responses mention a deprecation.",
		Arguments: []Argument{
			{Name: "editor", Description: "The assistant or editor being configured (e.g., 'Claude Code', 'Cursor')"},
		},
		summary: func(args map[string]string) string {
			if editor := args["editor"]; editor != "" {
				return fmt.Sprintf("Migrate %s to the Elm skills plugin", editor)
			}
			return "Migrate to the Elm skills plugin"
		},
		text: func(args map[string]string) string {
			target := "my assistant"
			if editor := args["editor"]; editor != "" {
				target = editor
			}
			return fmt.Sprintf("Help me move %s from the elm-package MCP server to the Elm skills plugin. "+
				"First, call list_installed_packages so we know which packages the project depends on. "+
				"Then walk me through: 1) Installing the plugin with '/plugin marketplace add caseyWebb/elm-claude-plugin', "+
				"2) Removing the elm-package server entry from the MCP configuration, "+
				"3) Checking that package READMEs and exports are still reachable for the dependencies listed above.",
				target)
		},
	},
}

// List returns the prompt descriptors in catalog order
func List() []mcp.Prompt {
	out := make([]mcp.Prompt, 0, len(catalog))
	for _, t := range catalog {
		out = append(out, t.Prompt())
	}
	return out
}

// Lookup returns the template with the given name
func Lookup(name string) (Template, error) {
	for _, t := range catalog {
		if string(t.Name) == name {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %s", ErrPromptNotFound, name)
}

// Render fills in a template. Every supplied argument value appears in the
// text exactly as given.
func Render(name string, args map[string]string) (*mcp.GetPromptResult, error) {
	t, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]string{}
	}

	for _, arg := range t.Arguments {
		value, ok := args[arg.Name]
		if arg.Required && (!ok || strings.TrimSpace(value) == "") {
			return nil, fmt.Errorf("%w: '%s' for prompt %s", ErrMissingArgument, arg.Name, t.Name)
		}
		if ok && arg.validate != nil {
			if err := arg.validate(value); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, arg.Name, err)
			}
		}
	}

	message := mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(t.text(args)))
	return mcp.NewGetPromptResult(t.summary(args), []mcp.PromptMessage{message}), nil
}

func validatePackageName(value string) error {
	if _, err := types.ParsePackageID(value); err != nil {
		return fmt.Errorf("package must be in format 'author/name': %w", err)
	}
	return nil
}
