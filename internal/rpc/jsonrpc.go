// Package rpc implements the JSON-RPC 2.0 envelope, the tool/resource
// registry and the dispatcher shared by the stdio and HTTP transports.
package rpc

import (
	"encoding/json"
	"fmt"
)

// Version is the only protocol version accepted in request envelopes.
const Version = "2.0"

// Request is a decoded JSON-RPC 2.0 request. Resource is a legacy alias:
// older clients address resource reads with a "resource" field instead of
// putting the URI in "method".
type Request struct {
	JSONRPC  string          `json:"jsonrpc"`
	Method   string          `json:"method,omitempty"`
	Resource string          `json:"resource,omitempty"`
	Params   json.RawMessage `json:"params,omitempty"`
	ID       json.RawMessage `json:"id,omitempty"`
}

// Response is a JSON-RPC 2.0 response. Exactly one of Result and Error is
// set. A nil ID marshals as null, which is only produced when the request
// id could not be parsed at all.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// JSON-RPC 2.0 error codes, plus the implementation-defined auth code used
// by the HTTP transport.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeUnauthorized   = -32001
)

// Error is a JSON-RPC error object. It implements error so handlers can
// return it directly.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

func NewParseError(msg string) *Error {
	return &Error{Code: CodeParseError, Message: "parse error: " + msg}
}

func NewInvalidRequest(msg string) *Error {
	return &Error{Code: CodeInvalidRequest, Message: "invalid request: " + msg}
}

func NewMethodNotFound(name string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", name)}
}

func NewInvalidParams(msg string) *Error {
	return &Error{Code: CodeInvalidParams, Message: "invalid params: " + msg}
}

// NewInternalError builds a sanitized internal error. Callers log the
// underlying cause; the wire message never carries paths or stack detail.
func NewInternalError() *Error {
	return &Error{Code: CodeInternalError, Message: "internal error"}
}

func NewUnauthorized() *Error {
	return &Error{Code: CodeUnauthorized, Message: "unauthorized: missing or invalid API key"}
}

// NewResponse builds a success response for the given request id.
func NewResponse(id json.RawMessage, result any) Response {
	return Response{JSONRPC: Version, Result: result, ID: id}
}

// NewErrorResponse builds an error response for the given request id.
func NewErrorResponse(id json.RawMessage, err *Error) Response {
	return Response{JSONRPC: Version, Error: err, ID: id}
}
