package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// HandlerFunc executes a tool call. Validation failures are reported as
// *Error with CodeInvalidParams; any other error is treated as internal.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// ResourceFunc serves a read-only resource URI. Resources take no params.
type ResourceFunc func(ctx context.Context) (any, error)

// Tool couples a method name with its handler. Mutating distinguishes
// write tools from read-only ones in logs and tests.
type Tool struct {
	Name     string
	Mutating bool
	Handler  HandlerFunc
}

// Registry is the static method and resource table. It is populated once at
// process start and read-only afterwards; registration after Seal panics,
// as does a duplicate name, both being wiring mistakes.
type Registry struct {
	tools     map[string]Tool
	resources map[string]ResourceFunc
	sealed    bool
}

func NewRegistry() *Registry {
	return &Registry{
		tools:     make(map[string]Tool),
		resources: make(map[string]ResourceFunc),
	}
}

func (r *Registry) RegisterTool(t Tool) {
	if r.sealed {
		panic("rpc: RegisterTool after Seal")
	}
	if t.Name == "" || t.Handler == nil {
		panic("rpc: tool needs a name and a handler")
	}
	if _, dup := r.tools[t.Name]; dup {
		panic(fmt.Sprintf("rpc: duplicate tool %q", t.Name))
	}
	r.tools[t.Name] = t
}

func (r *Registry) RegisterResource(uri string, f ResourceFunc) {
	if r.sealed {
		panic("rpc: RegisterResource after Seal")
	}
	if !IsResourceURI(uri) || f == nil {
		panic(fmt.Sprintf("rpc: invalid resource registration %q", uri))
	}
	if _, dup := r.resources[uri]; dup {
		panic(fmt.Sprintf("rpc: duplicate resource %q", uri))
	}
	r.resources[uri] = f
}

// Seal freezes the registry. Called once after startup registration.
func (r *Registry) Seal() {
	r.sealed = true
}

func (r *Registry) Tool(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) Resource(uri string) (ResourceFunc, bool) {
	f, ok := r.resources[uri]
	return f, ok
}

// ToolNames returns the registered method names, sorted.
func (r *Registry) ToolNames() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResourceURIs returns the registered resource URIs, sorted.
func (r *Registry) ResourceURIs() []string {
	uris := make([]string, 0, len(r.resources))
	for uri := range r.resources {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// IsResourceURI reports whether a method name addresses a resource read.
func IsResourceURI(name string) bool {
	return strings.Contains(name, "://")
}
