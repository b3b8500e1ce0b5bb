package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/caseyWebb/elm-package-mcp-server/internal/mcp"
	"github.com/caseyWebb/elm-package-mcp-server/internal/prompts"
)

// catalogSelection picks the sections to print; none selected means all
type catalogSelection struct {
	Tools     bool
	Prompts   bool
	Resources bool
}

func (s catalogSelection) all() bool {
	return !s.Tools && !s.Prompts && !s.Resources
}

func printCatalog(w io.Writer, sel catalogSelection, asJSON bool) error {
	if asJSON {
		out := map[string]interface{}{}
		if sel.all() || sel.Tools {
			out["tools"] = mcp.Tools()
		}
		if sel.all() || sel.Prompts {
			out["prompts"] = prompts.List()
		}
		if sel.all() || sel.Resources {
			out["resources"] = mcp.Resources()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode catalog: %w", err)
		}
		return nil
	}

	var b strings.Builder
	if sel.all() || sel.Tools {
		b.WriteString("Tools:\n")
		for _, tool := range mcp.Tools() {
			fmt.Fprintf(&b, "  %s\n      %s\n", tool.Name, tool.Description)
			required := make(map[string]bool, len(tool.InputSchema.Required))
			for _, name := range tool.InputSchema.Required {
				required[name] = true
			}
			names := make([]string, 0, len(tool.InputSchema.Properties))
			for name := range tool.InputSchema.Properties {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				kind := ""
				if prop, ok := tool.InputSchema.Properties[name].(map[string]interface{}); ok {
					kind, _ = prop["type"].(string)
				}
				fmt.Fprintf(&b, "      - %s (%s, %s)\n", name, kind, requiredLabel(required[name]))
			}
		}
		b.WriteString("\n")
	}
	if sel.all() || sel.Prompts {
		b.WriteString("Prompts:\n")
		for _, p := range prompts.List() {
			fmt.Fprintf(&b, "  %s\n      %s\n", p.Name, p.Description)
			for _, arg := range p.Arguments {
				fmt.Fprintf(&b, "      - %s (%s)\n", arg.Name, requiredLabel(arg.Required))
			}
		}
		b.WriteString("\n")
	}
	if sel.all() || sel.Resources {
		b.WriteString("Resources:\n")
		for _, r := range mcp.Resources() {
			fmt.Fprintf(&b, "  %s (%s)\n      %s\n", r.URI, r.MIMEType, r.Description)
		}
	}

	_, err := io.WriteString(w, strings.TrimRight(b.String(), "\n")+"\n")
	return err
}

func requiredLabel(required bool) string {
	if required {
		return "required"
	}
	return "optional"
}
