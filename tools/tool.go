// Package tools provides the agent's capability providers: shell
// execution, file management, application launching and system
// monitoring. Each tool returns the uniform core.ToolResult envelope; the
// memory core consumes only the success flag and a text-serializable
// output.
package tools

import (
	"context"
	"encoding/json"

	"github.com/agentos-dev/agentos-go/core"
)

// funcTool adapts a plain function to the core.Tool interface. All tools
// in this package are built this way.
type funcTool struct {
	name        string
	description string
	schema      map[string]any
	run         func(ctx context.Context, input json.RawMessage) *core.ToolResult
}

func (t *funcTool) Name() string                { return t.name }
func (t *funcTool) Description() string         { return t.description }
func (t *funcTool) InputSchema() map[string]any { return t.schema }

func (t *funcTool) Execute(ctx context.Context, input json.RawMessage) *core.ToolResult {
	res := t.run(ctx, input)
	if res == nil {
		return core.Fail("tool returned no result")
	}
	return res
}

// decode unmarshals tool arguments, treating empty input as an empty
// object.
func decode(input json.RawMessage, v any) error {
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	return json.Unmarshal(input, v)
}
