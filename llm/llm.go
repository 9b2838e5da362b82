// Package llm defines the narrow contract the agent has with a language
// model: ordered role/content messages and optional tool specs in, text
// and optional tool calls out. The memory system's only obligation toward
// this interface is producing the context string included in the user
// message.
package llm

import (
	"context"
	"encoding/json"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one record in the conversation passed to the model.
type Message struct {
	Role    Role
	Content string

	// ToolCalls is set on assistant messages that requested tools.
	ToolCalls []ToolCall

	// ToolCallID links a RoleTool message to the call it answers.
	ToolCallID string

	// IsError marks a RoleTool message as a failed execution.
	IsError bool
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolSpec describes one tool offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Response is the model's reply. ToolCalls is empty when the model
// answered with text only.
type Response struct {
	Content    string
	ToolCalls  []ToolCall
	StopReason string
}

// Client is the language-model collaborator, consumed as a black-box
// request/response function.
type Client interface {
	Generate(ctx context.Context, messages []Message, tools []ToolSpec) (*Response, error)
}
