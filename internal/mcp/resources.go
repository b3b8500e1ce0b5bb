package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	// ManifestURI addresses the project's elm.json
	ManifestURI      = "elm://elm.json"
	manifestMIMEType = "application/json"
)

// Resources returns the resource descriptors. The manifest is listed even
// when it failed to load; reading it then reports why.
func Resources() []mcp.Resource {
	return []mcp.Resource{
		mcp.NewResource(ManifestURI, "elm.json",
			mcp.WithResourceDescription("The project's Elm manifest with its package dependencies"),
			mcp.WithMIMEType(manifestMIMEType),
		),
	}
}

func (s *Server) handleResourcesList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return &mcp.ListResourcesResult{Resources: Resources()}, nil
}

func (s *Server) handleResourcesRead(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		URI string `json:"uri"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.URI == "" {
		return nil, invalidParam("uri", "missing or empty")
	}
	if p.URI != ManifestURI {
		return nil, newError(ErrorCodeResourceNotFound, fmt.Sprintf("resource not found: %s", p.URI),
			map[string]interface{}{"uri": p.URI})
	}

	raw, err := s.catalog.ManifestFile()
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ManifestURI,
				MIMEType: manifestMIMEType,
				Text:     string(raw),
			},
		},
	}, nil
}
