// Package toolreg is the Tool Registry & Dispatcher: a declarative table of
// callable tools, validated and dispatched before any tool body runs.
package toolreg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopagent/runtime/internal/rpcerr"
)

// Handler executes one tool call against validated args, returning a value
// that will be JSON-encoded into the result's text content.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Definition declares one tool: its schema and the handler that serves it.
type Definition struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
	Required    []string
	Handler     Handler
}

// Registry is the ordered, name-unique set of registered tools.
type Registry struct {
	order []string
	defs  map[string]Definition
}

// New builds a Registry from defs, rejecting duplicate tool names.
func New(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if _, exists := r.defs[d.Name]; exists {
			return nil, fmt.Errorf("toolreg: duplicate tool name %q", d.Name)
		}
		r.defs[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// List returns the registered tools in registration order, as mcp.Tool
// values suitable for a tools/list response.
func (r *Registry) List() []*mcp.Tool {
	out := make([]*mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		d := r.defs[name]
		out = append(out, &mcp.Tool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.Schema,
		})
	}
	return out
}

// Call validates args against the tool's required fields and dispatches to
// its handler, wrapping the returned value as a text content block.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	d, ok := r.defs[name]
	if !ok {
		return nil, &rpcerr.UnknownTool{Name: name}
	}

	var missing []string
	for _, field := range d.Required {
		v, present := args[field]
		if !present || isEmptyValue(v) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &rpcerr.BadInput{Missing: missing}
	}

	result, err := d.Handler(ctx, args)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		}, nil
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, &rpcerr.Generic{Cause: err}
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}, nil
}

// isEmptyValue reports whether a present arg value still counts as missing:
// null, an empty string, or an empty array.
func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
