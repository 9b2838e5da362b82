package core

import (
	"context"
	"encoding/json"
)

// ToolResult is the uniform result envelope returned by every tool.
// Error is populated exactly when Success is false.
type ToolResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK wraps data in a successful result.
func OK(data any) *ToolResult {
	return &ToolResult{Success: true, Data: data}
}

// Fail wraps an error message in a failed result.
func Fail(msg string) *ToolResult {
	return &ToolResult{Success: false, Error: msg}
}

// Tool is a capability the agent can invoke.
// Implementations live in the tools package; the engine only sees this
// interface and the registry it is registered in.
type Tool interface {
	// Name is the identifier the model calls the tool by.
	Name() string

	// Description tells the model what the tool does.
	Description() string

	// InputSchema returns the JSON Schema for the tool's arguments.
	InputSchema() map[string]any

	// Execute runs the tool with raw JSON arguments. It never panics and
	// never returns nil; failures are reported through ToolResult.Error.
	Execute(ctx context.Context, input json.RawMessage) *ToolResult
}

// OutputText extracts a text-serializable output from a tool result for
// memory recording. Structured data is JSON-encoded.
func (r *ToolResult) OutputText() string {
	if r == nil {
		return ""
	}
	if !r.Success {
		return r.Error
	}
	switch v := r.Data.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
