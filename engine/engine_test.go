package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/agentos-dev/agentos-go/core"
	"github.com/agentos-dev/agentos-go/engine"
	"github.com/agentos-dev/agentos-go/llm"
	"github.com/agentos-dev/agentos-go/memory"
	"github.com/agentos-dev/agentos-go/memory/embedder/mock"
)

// scriptedClient replays canned responses and records every Generate call.
type scriptedClient struct {
	responses []*llm.Response
	calls     [][]llm.Message
	err       error
}

func (c *scriptedClient) Generate(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (*llm.Response, error) {
	snapshot := make([]llm.Message, len(messages))
	copy(snapshot, messages)
	c.calls = append(c.calls, snapshot)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.responses) == 0 {
		return &llm.Response{Content: "done", StopReason: "end_turn"}, nil
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

// echoTool returns its raw input as output, or fails on demand.
type echoTool struct {
	name     string
	fail     bool
	executed int
}

func (e *echoTool) Name() string                { return e.name }
func (e *echoTool) Description() string         { return "echoes input" }
func (e *echoTool) InputSchema() map[string]any { return map[string]any{"type": "object"} }

func (e *echoTool) Execute(ctx context.Context, input json.RawMessage) *core.ToolResult {
	e.executed++
	if e.fail {
		return core.Fail("tool exploded")
	}
	return core.OK(map[string]any{"echo": string(input)})
}

func newTestMemory(t *testing.T) *memory.Manager {
	t.Helper()
	long, err := memory.OpenLongTerm(filepath.Join(t.TempDir(), "agentos.db"))
	if err != nil {
		t.Fatalf("OpenLongTerm: %v", err)
	}
	t.Cleanup(func() { long.Close() })
	sem, err := memory.OpenSemantic("", mock.New())
	if err != nil {
		t.Fatalf("OpenSemantic: %v", err)
	}
	return memory.NewManager(memory.NewShortTerm(50), long, sem)
}

func TestRunTextOnlyResponse(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		{Content: "Hello, I can help with that.", StopReason: "end_turn"},
	}}
	eng := engine.NewEngine(client, engine.NewToolRegistry())

	out, err := eng.Run(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Text != "Hello, I can help with that." {
		t.Errorf("Text = %q", out.Text)
	}
	if len(out.ToolsUsed) != 0 {
		t.Errorf("ToolsUsed = %v, want none", out.ToolsUsed)
	}
	if len(client.calls) != 1 {
		t.Fatalf("Generate called %d times, want 1", len(client.calls))
	}
	first := client.calls[0]
	if first[0].Role != llm.RoleSystem {
		t.Error("first message is not the system prompt")
	}
	if first[1].Role != llm.RoleUser || first[1].Content != "hi" {
		t.Errorf("user message = %+v", first[1])
	}
}

func TestRunToolCallLoop(t *testing.T) {
	tool := &echoTool{name: "echo"}
	client := &scriptedClient{responses: []*llm.Response{
		{
			Content: "Let me check.",
			ToolCalls: []llm.ToolCall{
				{ID: "call_1", Name: "echo", Arguments: json.RawMessage(`{"text":"hi"}`)},
			},
			StopReason: "tool_use",
		},
		{Content: "It said hi back.", StopReason: "end_turn"},
	}}
	registry := engine.NewToolRegistry()
	registry.Register(tool)
	eng := engine.NewEngine(client, registry)

	out, err := eng.Run(context.Background(), "use the echo tool")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tool.executed != 1 {
		t.Errorf("tool executed %d times, want 1", tool.executed)
	}
	if out.Text != "It said hi back." {
		t.Errorf("Text = %q", out.Text)
	}
	if len(out.ToolsUsed) != 1 || out.ToolsUsed[0].Tool != "echo" || !out.ToolsUsed[0].Success {
		t.Errorf("ToolsUsed = %+v", out.ToolsUsed)
	}

	// Second Generate call must see the assistant turn and the tool result.
	second := client.calls[1]
	last := second[len(second)-1]
	if last.Role != llm.RoleTool || last.ToolCallID != "call_1" || last.IsError {
		t.Errorf("tool result message = %+v", last)
	}
	if !strings.Contains(last.Content, `hi`) {
		t.Errorf("tool result content = %q", last.Content)
	}
	prev := second[len(second)-2]
	if prev.Role != llm.RoleAssistant || len(prev.ToolCalls) != 1 {
		t.Errorf("assistant message = %+v", prev)
	}
}

func TestRunToolFailureFedBack(t *testing.T) {
	tool := &echoTool{name: "echo", fail: true}
	client := &scriptedClient{responses: []*llm.Response{
		{
			ToolCalls:  []llm.ToolCall{{ID: "c1", Name: "echo", Arguments: json.RawMessage(`{}`)}},
			StopReason: "tool_use",
		},
		{Content: "The tool failed.", StopReason: "end_turn"},
	}}
	registry := engine.NewToolRegistry()
	registry.Register(tool)
	eng := engine.NewEngine(client, registry)

	out, err := eng.Run(context.Background(), "try it")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.ToolsUsed[0].Success || out.ToolsUsed[0].Error != "tool exploded" {
		t.Errorf("ToolsUsed[0] = %+v", out.ToolsUsed[0])
	}
	last := client.calls[1][len(client.calls[1])-1]
	if !last.IsError || last.Content != "tool exploded" {
		t.Errorf("failure message = %+v", last)
	}
}

func TestRunUnknownTool(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{
		{
			ToolCalls:  []llm.ToolCall{{ID: "c1", Name: "nope", Arguments: json.RawMessage(`{}`)}},
			StopReason: "tool_use",
		},
		{Content: "ok", StopReason: "end_turn"},
	}}
	eng := engine.NewEngine(client, engine.NewToolRegistry())

	out, err := eng.Run(context.Background(), "try it")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.ToolsUsed[0].Success {
		t.Error("unknown tool reported success")
	}
	last := client.calls[1][len(client.calls[1])-1]
	if !last.IsError || !strings.Contains(last.Content, "unknown tool") {
		t.Errorf("unknown-tool message = %+v", last)
	}
}

func TestRunMaxTurnsExceeded(t *testing.T) {
	tool := &echoTool{name: "echo"}
	// Every response asks for another tool call; the loop must bail out.
	loop := &llm.Response{
		ToolCalls:  []llm.ToolCall{{ID: "c", Name: "echo", Arguments: json.RawMessage(`{}`)}},
		StopReason: "tool_use",
	}
	client := &scriptedClient{responses: []*llm.Response{loop, loop, loop, loop}}
	registry := engine.NewToolRegistry()
	registry.Register(tool)
	eng := engine.NewEngine(client, registry, engine.WithMaxTurns(3))

	_, err := eng.Run(context.Background(), "loop forever")
	if err == nil || !strings.Contains(err.Error(), "maximum turns") {
		t.Fatalf("err = %v, want maximum turns error", err)
	}
	if tool.executed != 3 {
		t.Errorf("tool executed %d times, want 3", tool.executed)
	}
}

func TestRunModelError(t *testing.T) {
	client := &scriptedClient{err: errors.New("rate limited")}
	eng := engine.NewEngine(client, engine.NewToolRegistry())

	_, err := eng.Run(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("err = %v, want wrapped model error", err)
	}
}

func TestRunWithMemoryPrependsContext(t *testing.T) {
	mgr := newTestMemory(t)
	client := &scriptedClient{responses: []*llm.Response{
		{Content: "ok", StopReason: "end_turn"},
	}}
	eng := engine.NewEngine(client, engine.NewToolRegistry(), engine.WithMemory(mgr))

	if _, err := eng.Run(context.Background(), "hello"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	user := client.calls[0][1]
	if !strings.Contains(user.Content, "=== Session Context ===") {
		t.Error("memory context block missing from user message")
	}
	if !strings.HasSuffix(user.Content, "User Request: hello") {
		t.Errorf("user message does not end with the request: %q", user.Content)
	}
}

func TestRunRecordsToolExecutions(t *testing.T) {
	mgr := newTestMemory(t)
	tool := &echoTool{name: "echo"}
	client := &scriptedClient{responses: []*llm.Response{
		{
			ToolCalls:  []llm.ToolCall{{ID: "c1", Name: "echo", Arguments: json.RawMessage(`{"a":1}`)}},
			StopReason: "tool_use",
		},
		{Content: "done", StopReason: "end_turn"},
	}}
	registry := engine.NewToolRegistry()
	registry.Register(tool)
	eng := engine.NewEngine(client, registry, engine.WithMemory(mgr))

	if _, err := eng.Run(context.Background(), "echo something"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	ctx := context.Background()
	records, err := mgr.LongTerm().CommandHistory(ctx, 10, false)
	if err != nil {
		t.Fatalf("CommandHistory: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d command rows, want 1", len(records))
	}
	if !strings.HasPrefix(records[0].Command, "echo(") {
		t.Errorf("recorded command = %q", records[0].Command)
	}
	if records[0].Metadata["tool"] != "echo" {
		t.Errorf("recorded metadata = %v", records[0].Metadata)
	}

	// A request that used tools is also recorded as a task.
	tasks, err := mgr.LongTerm().SimilarTasks(ctx, "echo something", 5)
	if err != nil {
		t.Fatalf("SimilarTasks: %v", err)
	}
	if len(tasks) != 1 || len(tasks[0].Steps) != 1 || tasks[0].Steps[0] != "echo" {
		t.Errorf("recorded tasks = %+v", tasks)
	}
}

// wideTool returns more multibyte output than the recording bound allows.
type wideTool struct{}

func (wideTool) Name() string                { return "wide" }
func (wideTool) Description() string         { return "produces wide output" }
func (wideTool) InputSchema() map[string]any { return map[string]any{"type": "object"} }

func (wideTool) Execute(ctx context.Context, input json.RawMessage) *core.ToolResult {
	return core.OK(strings.Repeat("あ", 300))
}

func TestRunRecordedOutputValidUTF8(t *testing.T) {
	mgr := newTestMemory(t)
	client := &scriptedClient{responses: []*llm.Response{
		{
			ToolCalls:  []llm.ToolCall{{ID: "c1", Name: "wide", Arguments: json.RawMessage(`{}`)}},
			StopReason: "tool_use",
		},
		{Content: "done", StopReason: "end_turn"},
	}}
	registry := engine.NewToolRegistry()
	registry.Register(wideTool{})
	eng := engine.NewEngine(client, registry, engine.WithMemory(mgr))

	if _, err := eng.Run(context.Background(), "make noise"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	records, err := mgr.LongTerm().CommandHistory(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("CommandHistory: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d rows, want 1", len(records))
	}
	if !utf8.ValidString(records[0].Output) {
		t.Error("recorded tool output contains invalid UTF-8 after truncation")
	}
}

// confirmAllChecker flags every command as needing confirmation.
type confirmAllChecker struct{}

func (confirmAllChecker) CheckCommand(string) (bool, string) { return true, "" }
func (confirmAllChecker) RequiresConfirmation(string) bool   { return true }

func (confirmAllChecker) CheckFileOperation(string, string) (bool, string) {
	return true, ""
}

func TestRunConfirmationDeclined(t *testing.T) {
	tool := &echoTool{name: "echo"}
	client := &scriptedClient{responses: []*llm.Response{
		{
			ToolCalls:  []llm.ToolCall{{ID: "c1", Name: "echo", Arguments: json.RawMessage(`{}`)}},
			StopReason: "tool_use",
		},
		{Content: "understood", StopReason: "end_turn"},
	}}
	registry := engine.NewToolRegistry()
	registry.Register(tool)
	eng := engine.NewEngine(client, registry,
		engine.WithSafety(confirmAllChecker{}, func(string) bool { return false }))

	out, err := eng.Run(context.Background(), "do it")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tool.executed != 0 {
		t.Errorf("declined tool still executed %d times", tool.executed)
	}
	if out.ToolsUsed[0].Success || !strings.Contains(out.ToolsUsed[0].Error, "declined") {
		t.Errorf("ToolsUsed[0] = %+v", out.ToolsUsed[0])
	}
	last := client.calls[1][len(client.calls[1])-1]
	if !last.IsError || !strings.Contains(last.Content, "declined") {
		t.Errorf("decline message = %+v", last)
	}
}

func TestRunConfirmationApproved(t *testing.T) {
	tool := &echoTool{name: "echo"}
	client := &scriptedClient{responses: []*llm.Response{
		{
			ToolCalls:  []llm.ToolCall{{ID: "c1", Name: "echo", Arguments: json.RawMessage(`{}`)}},
			StopReason: "tool_use",
		},
		{Content: "done", StopReason: "end_turn"},
	}}
	registry := engine.NewToolRegistry()
	registry.Register(tool)

	var asked string
	eng := engine.NewEngine(client, registry,
		engine.WithSafety(confirmAllChecker{}, func(desc string) bool {
			asked = desc
			return true
		}))

	if _, err := eng.Run(context.Background(), "do it"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tool.executed != 1 {
		t.Errorf("approved tool executed %d times, want 1", tool.executed)
	}
	if !strings.HasPrefix(asked, "echo(") {
		t.Errorf("confirmation prompt = %q", asked)
	}
}

func TestRegistrySpecsOrder(t *testing.T) {
	registry := engine.NewToolRegistry()
	registry.Register(&echoTool{name: "b"})
	registry.Register(&echoTool{name: "a"})
	registry.Register(&echoTool{name: "b"}) // re-register keeps position

	specs := registry.Specs()
	if len(specs) != 2 || specs[0].Name != "b" || specs[1].Name != "a" {
		t.Errorf("Specs() = %+v, want b then a", specs)
	}
	if registry.Len() != 2 {
		t.Errorf("Len() = %d, want 2", registry.Len())
	}
}
