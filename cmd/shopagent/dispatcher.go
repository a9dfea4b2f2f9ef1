package main

import (
	"context"
	"encoding/json"

	"github.com/shopagent/runtime/internal/mcptransport"
	"github.com/shopagent/runtime/internal/obs"
	"github.com/shopagent/runtime/internal/rpcerr"
	"github.com/shopagent/runtime/internal/toolreg"
)

type toolsListResult struct {
	Tools []*toolEntry `json:"tools"`
}

// toolEntry mirrors the subset of mcp.Tool the wire format needs; re-typing
// it here keeps this file decoupled from the SDK's own JSON tags.
type toolEntry struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"inputSchema,omitempty"`
}

type toolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// newDispatcher routes the two JSON-RPC methods an MCP client issues against
// the tool surface through registry, auditing every tools/call.
func newDispatcher(registry *toolreg.Registry, auditLog *obs.Log) mcptransport.Dispatch {
	return func(ctx context.Context, method string, params json.RawMessage) (any, error) {
		switch method {
		case "tools/list":
			return listTools(registry), nil
		case "tools/call":
			return callTool(ctx, registry, auditLog, params)
		case "initialize":
			return map[string]any{
				"protocolVersion": "2024-11-05",
				"serverInfo":      map[string]string{"name": "shopagent", "version": "0.1.0"},
				"capabilities":    map[string]any{"tools": map[string]any{}},
			}, nil
		case "ping":
			return map[string]any{}, nil
		default:
			return nil, &rpcerr.UnknownTool{Name: method}
		}
	}
}

func listTools(registry *toolreg.Registry) toolsListResult {
	entries := make([]*toolEntry, 0, len(registry.Names()))
	for _, t := range registry.List() {
		entries = append(entries, &toolEntry{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return toolsListResult{Tools: entries}
}

func callTool(ctx context.Context, registry *toolreg.Registry, auditLog *obs.Log, params json.RawMessage) (any, error) {
	var p toolsCallParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &rpcerr.BadInput{Reason: "tools/call params must be {name, arguments}"}
	}
	if p.Name == "" {
		return nil, &rpcerr.BadInput{Reason: "tools/call requires a name"}
	}

	result, err := registry.Call(ctx, p.Name, p.Arguments)

	ok := err == nil && (result == nil || !result.IsError)
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	auditLog.LogEvent(ctx, obs.AuditEvent{Kind: "tool_call", Tool: p.Name, Detail: detail, OK: ok})

	if err != nil {
		return nil, err
	}
	return result, nil
}
