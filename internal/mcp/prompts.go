package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/caseyWebb/elm-package-mcp-server/internal/prompts"
)

func (s *Server) handlePromptsList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return &mcp.ListPromptsResult{Prompts: prompts.List()}, nil
}

type getPromptParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

func (s *Server) handlePromptsGet(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p getPromptParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, invalidParam("name", "missing or empty")
	}
	if _, err := prompts.Lookup(p.Name); err != nil {
		return nil, err
	}

	args := make(map[string]string, len(p.Arguments))
	for k, v := range p.Arguments {
		str, ok := v.(string)
		if !ok {
			return nil, invalidParam(k, fmt.Sprintf("prompt arguments must be strings, got %s", jsonType(v)))
		}
		args[k] = str
	}

	return prompts.Render(p.Name, args)
}
