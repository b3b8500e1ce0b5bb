package mcp

import (
	"errors"
	"fmt"

	"github.com/caseyWebb/elm-package-mcp-server/internal/catalog"
	"github.com/caseyWebb/elm-package-mcp-server/internal/docs"
	"github.com/caseyWebb/elm-package-mcp-server/internal/manifest"
	"github.com/caseyWebb/elm-package-mcp-server/internal/prompts"
	"github.com/caseyWebb/elm-package-mcp-server/internal/registry"
	"github.com/caseyWebb/elm-package-mcp-server/pkg/types"
)

// JSON-RPC and server error codes. The values are stable; clients branch on them.
const (
	ErrorCodeParseError          = -32700 // Request line is not valid JSON
	ErrorCodeInvalidRequest      = -32600 // Not a JSON-RPC 2.0 request object
	ErrorCodeMethodNotFound      = -32601 // Unknown method
	ErrorCodeInvalidParams       = -32602 // Parameters do not match the declared schema
	ErrorCodeInternalError       = -32603 // Unexpected failure
	ErrorCodeManifestNotFound    = -32001 // No elm.json for the project
	ErrorCodeResourceNotFound    = -32002 // Unknown resource URI
	ErrorCodePackageDocsNotFound = -32003 // No docs.json for the exact package version
	ErrorCodeModuleNotFound      = -32004 // Package does not expose the module
	ErrorCodeExportNotFound      = -32005 // Module has no such export
	ErrorCodeReadmeNotFound      = -32006 // No README.md for the exact package version
	ErrorCodePromptNotFound      = -32007 // Unknown prompt name
	ErrorCodeUnknownTool         = -32008 // Unknown tool name
	ErrorCodeMissingParameter    = -32009 // Required prompt argument absent
	ErrorCodeParseFailure        = -32010 // elm.json or docs.json is malformed
	ErrorCodeManifestSchema      = -32011 // elm.json dependencies have the wrong shape
	ErrorCodeRegistryUnavailable = -32012 // Package registry could not be read
)

// errorCodes maps sentinel errors to codes; the first match wins
var errorCodes = []struct {
	target error
	code   int
}{
	{manifest.ErrManifestNotFound, ErrorCodeManifestNotFound},
	{manifest.ErrManifestParse, ErrorCodeParseFailure},
	{manifest.ErrManifestSchema, ErrorCodeManifestSchema},
	{catalog.ErrPackageDocsNotFound, ErrorCodePackageDocsNotFound},
	{catalog.ErrReadmeNotFound, ErrorCodeReadmeNotFound},
	{docs.ErrModuleNotFound, ErrorCodeModuleNotFound},
	{docs.ErrExportNotFound, ErrorCodeExportNotFound},
	{docs.ErrDocsParse, ErrorCodeParseFailure},
	{prompts.ErrPromptNotFound, ErrorCodePromptNotFound},
	{prompts.ErrMissingArgument, ErrorCodeMissingParameter},
	{prompts.ErrInvalidArgument, ErrorCodeInvalidParams},
	{registry.ErrRegistryUnavailable, ErrorCodeRegistryUnavailable},
	{catalog.ErrEmptyQuery, ErrorCodeInvalidParams},
	{types.ErrInvalidPackageID, ErrorCodeInvalidParams},
	{types.ErrEmptyAuthor, ErrorCodeInvalidParams},
	{types.ErrEmptyName, ErrorCodeInvalidParams},
	{types.ErrInvalidVersion, ErrorCodeInvalidParams},
}

// Error is a JSON-RPC error object
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// newError creates a protocol error
func newError(code int, message string, data interface{}) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// invalidParam reports a parameter that failed validation
func invalidParam(param, reason string) error {
	return newError(ErrorCodeInvalidParams, fmt.Sprintf("invalid parameter '%s': %s", param, reason), map[string]interface{}{
		"param":  param,
		"reason": reason,
	})
}

// codeFor classifies err
func codeFor(err error) int {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.target) {
			return ec.code
		}
	}
	return ErrorCodeInternalError
}

// toError converts any handler failure into exactly one protocol error
func toError(err error) *Error {
	var protoErr *Error
	if errors.As(err, &protoErr) {
		return protoErr
	}
	return newError(codeFor(err), err.Error(), nil)
}
