package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/caseyWebb/elm-package-mcp-server/internal/catalog"
	"github.com/caseyWebb/elm-package-mcp-server/internal/logging"
)

const (
	// ServerName is the MCP server name
	ServerName = "elm-package-mcp"
	// ServerVersion is the default version reported by initialize
	ServerVersion = "1.0.0"
)

// Instructions is returned by initialize to tell the client how the tools fit together
const Instructions = `This server answers questions about the Elm packages a project depends on.
Start with list_installed_packages to see the exact versions from elm.json.
Use get_elm_package_exports to browse a package's modules, then
get_elm_package_export_docs for the full documentation of one function or type.
get_elm_package_readme returns the package README, and search_packages finds
packages in the public registry.`

// Method is a JSON-RPC method the server answers
type Method string

const (
	MethodInitialize      Method = "initialize"
	MethodPing            Method = "ping"
	MethodToolsList       Method = "tools/list"
	MethodToolsCall       Method = "tools/call"
	MethodResourcesList   Method = "resources/list"
	MethodResourcesRead   Method = "resources/read"
	MethodPromptsList     Method = "prompts/list"
	MethodPromptsGet      Method = "prompts/get"
	MethodRootsList       Method = "roots/list"
	MethodLoggingSetLevel Method = "logging/setLevel"
)

// Notifications accepted from the client
const (
	NotificationInitialized = "notifications/initialized"
	NotificationCancelled   = "notifications/cancelled"
)

// supportedProtocolVersions lists the versions echoed back when requested
var supportedProtocolVersions = []string{
	mcp.LATEST_PROTOCOL_VERSION,
	"2025-03-26",
	"2024-11-05",
}

type methodHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Server dispatches MCP requests to the package catalog. All state it
// reads is immutable after NewServer, except the log level.
type Server struct {
	catalog  *catalog.Catalog
	logger   *log.Logger
	version  string
	methods  map[Method]methodHandler
	tools    map[ToolName]toolHandler
	toolDefs []mcp.Tool
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the version reported by initialize
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// NewServer creates a new MCP server instance
func NewServer(cat *catalog.Catalog, opts ...Option) *Server {
	s := &Server{
		catalog: cat,
		logger:  logging.Discard(),
		version: ServerVersion,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.methods = map[Method]methodHandler{
		MethodInitialize:      s.handleInitialize,
		MethodPing:            s.handlePing,
		MethodToolsList:       s.handleToolsList,
		MethodToolsCall:       s.handleToolsCall,
		MethodResourcesList:   s.handleResourcesList,
		MethodResourcesRead:   s.handleResourcesRead,
		MethodPromptsList:     s.handlePromptsList,
		MethodPromptsGet:      s.handlePromptsGet,
		MethodRootsList:       s.handleRootsList,
		MethodLoggingSetLevel: s.handleSetLevel,
	}
	s.registerTools()

	return s
}

// HandleMessage processes one JSON-RPC line and returns the encoded
// response, or nil for notifications.
func (s *Server) HandleMessage(ctx context.Context, line []byte) []byte {
	req, protoErr := decodeRequest(line)
	if protoErr != nil {
		id := nullID
		if req != nil && len(req.ID) > 0 && validID(req.ID) {
			id = req.ID
		}
		return s.encode(errorResponse(id, protoErr))
	}

	if req.IsNotification() {
		s.handleNotification(req)
		return nil
	}

	return s.encode(s.dispatch(ctx, req))
}

func (s *Server) handleNotification(req *Request) {
	switch req.Method {
	case NotificationInitialized:
		s.logger.Info("client initialized")
	case NotificationCancelled:
		s.logger.Debug("client cancelled a request", "params", string(req.Params))
	default:
		s.logger.Debug("ignoring notification", "method", req.Method)
	}
}

func (s *Server) dispatch(ctx context.Context, req *Request) (resp *Response) {
	start := time.Now()
	method := Method(req.Method)

	handler, ok := s.methods[method]
	if !ok {
		s.logger.Debug("unknown method", "method", req.Method)
		return errorResponse(req.ID, newError(ErrorCodeMethodNotFound,
			fmt.Sprintf("method not found: %s", req.Method),
			map[string]interface{}{"method": req.Method}))
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic", "method", req.Method, "panic", r, "stack", string(debug.Stack()))
			resp = errorResponse(req.ID, newError(ErrorCodeInternalError, fmt.Sprintf("internal error: %v", r), nil))
		}
	}()

	result, err := handler(ctx, req.Params)
	if err != nil {
		protoErr := toError(err)
		s.logger.Debug("request failed", "method", req.Method, "code", protoErr.Code, "err", protoErr.Message)
		return errorResponse(req.ID, protoErr)
	}

	s.logger.Debug("request handled", "method", req.Method, "duration", time.Since(start))
	return resultResponse(req.ID, result)
}

func (s *Server) encode(resp *Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response", "err", err)
		fallback := errorResponse(resp.ID, newError(ErrorCodeInternalError, "failed to encode response", nil))
		data, _ = json.Marshal(fallback)
	}
	return data
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type listChanged struct {
	ListChanged bool `json:"listChanged"`
}

type resourceCapability struct {
	Subscribe   bool `json:"subscribe"`
	ListChanged bool `json:"listChanged"`
}

type serverCapabilities struct {
	Tools     listChanged        `json:"tools"`
	Resources resourceCapability `json:"resources"`
	Prompts   listChanged        `json:"prompts"`
	Logging   struct{}           `json:"logging"`
}

type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    serverCapabilities `json:"capabilities"`
	ServerInfo      serverInfo         `json:"serverInfo"`
	Instructions    string             `json:"instructions"`
}

func (s *Server) handleInitialize(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p initializeParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	version := mcp.LATEST_PROTOCOL_VERSION
	for _, v := range supportedProtocolVersions {
		if v == p.ProtocolVersion {
			version = v
			break
		}
	}

	s.logger.Info("initialize", "client", p.ClientInfo.Name, "client_version", p.ClientInfo.Version, "protocol", version)

	return &initializeResult{
		ProtocolVersion: version,
		ServerInfo:      serverInfo{Name: ServerName, Version: s.version},
		Instructions:    Instructions,
	}, nil
}

func (s *Server) handlePing(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return struct{}{}, nil
}

func (s *Server) handleRootsList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return map[string]interface{}{"roots": []interface{}{}}, nil
}

func (s *Server) handleSetLevel(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p struct {
		Level string `json:"level"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Level == "" {
		return nil, invalidParam("level", "missing or empty")
	}
	level, err := logging.ParseProtocolLevel(p.Level)
	if err != nil {
		return nil, invalidParam("level", err.Error())
	}
	s.logger.SetLevel(level)
	return struct{}{}, nil
}
