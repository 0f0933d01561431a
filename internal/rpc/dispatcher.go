package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	applog "accounting/internal/log"
)

// Dispatcher routes decoded requests through the registry and builds
// responses. It is shared by both transports and safe for concurrent use:
// the registry is read-only and handlers own their synchronization.
type Dispatcher struct {
	registry *Registry
	logger   *applog.Logger
}

func NewDispatcher(registry *Registry, logger *applog.Logger) *Dispatcher {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentRPC)
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// HandleRaw processes one wire message, which may be a single request or a
// batch array, and returns the encoded response document. It always returns
// a response: protocol failures are encoded as JSON-RPC error objects.
func (d *Dispatcher) HandleRaw(ctx context.Context, raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return mustMarshal(NewErrorResponse(nil, NewParseError("empty request")))
	}

	if raw[0] == '[' {
		var reqs []json.RawMessage
		if err := json.Unmarshal(raw, &reqs); err != nil {
			return mustMarshal(NewErrorResponse(nil, NewParseError(err.Error())))
		}
		if len(reqs) == 0 {
			return mustMarshal(NewErrorResponse(nil, NewInvalidRequest("empty batch")))
		}
		responses := make([]Response, 0, len(reqs))
		for _, r := range reqs {
			responses = append(responses, d.handleRawSingle(ctx, r))
		}
		return mustMarshal(responses)
	}

	return mustMarshal(d.handleRawSingle(ctx, raw))
}

func (d *Dispatcher) handleRawSingle(ctx context.Context, raw []byte) Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(nil, NewParseError(err.Error()))
	}
	return d.Handle(ctx, req)
}

// Handle runs a single decoded request through route and execute, turning
// every failure into a JSON-RPC error response.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	if req.JSONRPC != Version {
		return NewErrorResponse(req.ID, NewInvalidRequest(`jsonrpc must be "2.0"`))
	}

	// Every request is expected to carry an id; notifications are not part
	// of this server's contract.
	if len(req.ID) == 0 || bytes.Equal(req.ID, []byte("null")) {
		return NewErrorResponse(req.ID, NewInvalidRequest("missing request id"))
	}

	name := req.Method
	if name == "" {
		name = req.Resource
	}
	if name == "" {
		return NewErrorResponse(req.ID, NewInvalidRequest("missing method"))
	}

	if IsResourceURI(name) {
		return d.readResource(ctx, req.ID, name)
	}
	return d.callTool(ctx, req, name)
}

func (d *Dispatcher) callTool(ctx context.Context, req Request, name string) Response {
	tool, ok := d.registry.Tool(name)
	if !ok {
		return NewErrorResponse(req.ID, NewMethodNotFound(name))
	}

	result, err := d.execute(ctx, name, func(ctx context.Context) (any, error) {
		return tool.Handler(ctx, req.Params)
	})
	if err != nil {
		return NewErrorResponse(req.ID, err)
	}
	return NewResponse(req.ID, result)
}

func (d *Dispatcher) readResource(ctx context.Context, id json.RawMessage, uri string) Response {
	provider, ok := d.registry.Resource(uri)
	if !ok {
		return NewErrorResponse(id, NewMethodNotFound(uri))
	}

	result, err := d.execute(ctx, uri, func(ctx context.Context) (any, error) {
		return provider(ctx)
	})
	if err != nil {
		return NewErrorResponse(id, err)
	}
	return NewResponse(id, result)
}

// execute invokes a handler, converting failures to *Error. Non-protocol
// errors are logged with their cause and sanitized on the wire.
func (d *Dispatcher) execute(ctx context.Context, name string, fn func(context.Context) (any, error)) (result any, rpcErr *Error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "Handler panicked",
				applog.FieldMethod, name,
				applog.FieldError, r)
			result, rpcErr = nil, NewInternalError()
		}
	}()

	result, err := fn(ctx)
	if err == nil {
		return result, nil
	}
	var e *Error
	if errors.As(err, &e) {
		return nil, e
	}

	d.logger.ErrorContext(ctx, "Handler failed",
		applog.FieldMethod, name,
		applog.FieldError, err.Error())
	return nil, NewInternalError()
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Responses are built from marshalable values only; reaching this
		// means a handler returned something unencodable.
		fallback, _ := json.Marshal(NewErrorResponse(nil, NewInternalError()))
		return fallback
	}
	return data
}
