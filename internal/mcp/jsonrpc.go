package mcp

import (
	"bytes"
	"encoding/json"
)

const jsonrpcVersion = "2.0"

// Request is an incoming JSON-RPC message. A message without an id is a
// notification and gets no response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the message carries no id
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is an outgoing JSON-RPC message carrying a result xor an error
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

var nullID = json.RawMessage("null")

func resultResponse(id json.RawMessage, result interface{}) *Response {
	if result == nil {
		result = struct{}{}
	}
	return &Response{JSONRPC: jsonrpcVersion, ID: id, Result: result}
}

func errorResponse(id json.RawMessage, err *Error) *Response {
	if len(id) == 0 {
		id = nullID
	}
	return &Response{JSONRPC: jsonrpcVersion, ID: id, Error: err}
}

// decodeRequest parses one line. The returned error is already a protocol error.
func decodeRequest(line []byte) (*Request, *Error) {
	if !json.Valid(line) {
		return nil, newError(ErrorCodeParseError, "parse error: invalid JSON", nil)
	}

	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, newError(ErrorCodeInvalidRequest, "invalid request: expected a JSON object", nil)
	}

	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, newError(ErrorCodeInvalidRequest, "invalid request: "+err.Error(), nil)
	}
	if req.JSONRPC != jsonrpcVersion {
		return &req, newError(ErrorCodeInvalidRequest, "invalid request: jsonrpc must be \"2.0\"", nil)
	}
	if req.Method == "" {
		return &req, newError(ErrorCodeInvalidRequest, "invalid request: method is required", nil)
	}
	if !validID(req.ID) {
		return &req, newError(ErrorCodeInvalidRequest, "invalid request: id must be a string, number or null", nil)
	}
	return &req, nil
}

func validID(id json.RawMessage) bool {
	if len(id) == 0 {
		return true
	}
	switch id[0] {
	case '"', 'n', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	}
	return false
}

// decodeParams unmarshals params into v; absent params leave v untouched
func decodeParams(params json.RawMessage, v interface{}) error {
	if len(params) == 0 || bytes.Equal(params, nullID) {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return newError(ErrorCodeInvalidParams, "invalid params: "+err.Error(), nil)
	}
	return nil
}
