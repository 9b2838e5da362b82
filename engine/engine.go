// Package engine runs the agent loop: build memory context, call the
// model, dispatch tool calls, and fan results back out to memory.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/agentos-dev/agentos-go/llm"
	"github.com/agentos-dev/agentos-go/memory"
	"github.com/agentos-dev/agentos-go/safety"
)

// defaultMaxTurns caps how many model round trips one request may take.
const defaultMaxTurns = 20

// recordedOutputLimit bounds how much tool output is written to memory.
const recordedOutputLimit = 500

// Engine drives one request at a time: a request runs to completion,
// including all tool calls and memory fan-out, before the next is
// accepted. Tool executions within a request are sequential, so recorded
// ordering in short-term memory always matches execution order.
type Engine struct {
	client       llm.Client
	registry     *ToolRegistry
	memory       *memory.Manager
	checker      safety.Checker
	confirm      ConfirmFunc
	maxTurns     int
	systemPrompt string
}

// ConfirmFunc asks the user to approve a pending tool invocation. It is
// called with a short description of the call and returns whether to
// proceed.
type ConfirmFunc func(description string) bool

// Option configures the engine.
type Option func(*Engine)

// WithMemory attaches the memory manager. Without one the engine runs
// stateless.
func WithMemory(m *memory.Manager) Option {
	return func(e *Engine) { e.memory = m }
}

// WithSafety gates destructive tool calls behind user confirmation.
// Checker decides which calls need confirming; confirm asks. With a nil
// confirm the gate is skipped, matching non-interactive use.
func WithSafety(checker safety.Checker, confirm ConfirmFunc) Option {
	return func(e *Engine) {
		e.checker = checker
		e.confirm = confirm
	}
}

// WithMaxTurns overrides the model round-trip cap.
func WithMaxTurns(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxTurns = n
		}
	}
}

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) { e.systemPrompt = prompt }
}

// NewEngine creates an engine over the given model client and tool
// registry.
func NewEngine(client llm.Client, registry *ToolRegistry, opts ...Option) *Engine {
	e := &Engine{
		client:       client,
		registry:     registry,
		maxTurns:     defaultMaxTurns,
		systemPrompt: DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ToolExecution records one tool invocation during a run.
type ToolExecution struct {
	Tool       string
	Input      json.RawMessage
	Success    bool
	DurationMs int64
	Error      string
}

// Output is the result of one processed request.
type Output struct {
	Text      string
	ToolsUsed []ToolExecution
}

// Run processes one user request to completion. Memory context is
// retrieved once up front and prepended to the user message; every tool
// execution is recorded synchronously before the next one starts. Only
// durable-tier storage failures abort the run.
func (e *Engine) Run(ctx context.Context, userMessage string) (*Output, error) {
	requestID := uuid.New().String()
	started := time.Now()
	log.Printf("[ENGINE] Processing request %s: %.80s", requestID, userMessage)

	userContent := userMessage
	if e.memory != nil {
		qc := e.memory.ContextForQuery(ctx, userMessage)
		if block := e.memory.FormatForLLM(qc); block != "" {
			userContent = block + "\n\nUser Request: " + userMessage
		}
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: e.systemPrompt},
		{Role: llm.RoleUser, Content: userContent},
	}
	specs := e.registry.Specs()

	var toolsUsed []ToolExecution
	for turn := 0; turn < e.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("request %s canceled: %w", requestID, err)
		}

		resp, err := e.client.Generate(ctx, messages, specs)
		if err != nil {
			return nil, fmt.Errorf("model call: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			if err := e.recordTask(ctx, userMessage, toolsUsed, resp.Content, started); err != nil {
				return nil, err
			}
			log.Printf("[ENGINE] Request %s complete: %d tools, %d turns",
				requestID, len(toolsUsed), turn+1)
			return &Output{Text: resp.Content, ToolsUsed: toolsUsed}, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			exec, result := e.dispatch(ctx, call)
			toolsUsed = append(toolsUsed, exec)

			if e.memory != nil {
				command := fmt.Sprintf("%s(%s)", call.Name, string(call.Arguments))
				output := truncate(result.content, recordedOutputLimit)
				err := e.memory.RecordCommand(ctx, command, output, exec.Success,
					map[string]any{"tool": call.Name})
				if err != nil {
					return nil, fmt.Errorf("record tool execution: %w", err)
				}
			}

			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result.content,
				ToolCallID: call.ID,
				IsError:    !exec.Success,
			})
		}
	}

	return nil, fmt.Errorf("request %s exceeded maximum turns (%d)", requestID, e.maxTurns)
}

// dispatchResult carries the text fed back to the model.
type dispatchResult struct {
	content string
}

// dispatch executes one tool call and formats its result.
func (e *Engine) dispatch(ctx context.Context, call llm.ToolCall) (ToolExecution, dispatchResult) {
	exec := ToolExecution{Tool: call.Name, Input: call.Arguments}

	tool, ok := e.registry.Get(call.Name)
	if !ok {
		exec.Error = "unknown tool: " + call.Name
		log.Printf("[ENGINE] %s", exec.Error)
		return exec, dispatchResult{content: exec.Error}
	}

	desc := fmt.Sprintf("%s(%s)", call.Name, string(call.Arguments))
	if e.checker != nil && e.confirm != nil && e.checker.RequiresConfirmation(desc) {
		if !e.confirm(desc) {
			exec.Error = "execution declined by user"
			log.Printf("[ENGINE] Declined: %.80s", desc)
			return exec, dispatchResult{content: exec.Error}
		}
	}

	start := time.Now()
	result := tool.Execute(ctx, call.Arguments)
	exec.DurationMs = time.Since(start).Milliseconds()
	exec.Success = result.Success

	if !result.Success {
		exec.Error = result.Error
		log.Printf("[ENGINE] Tool %s failed in %dms: %s", call.Name, exec.DurationMs, result.Error)
		return exec, dispatchResult{content: result.Error}
	}

	log.Printf("[ENGINE] Tool %s succeeded in %dms", call.Name, exec.DurationMs)
	return exec, dispatchResult{content: result.OutputText()}
}

// recordTask stores a completed multi-tool request as a task so future
// sessions can retrieve how it was done.
func (e *Engine) recordTask(ctx context.Context, request string, toolsUsed []ToolExecution, outcome string, started time.Time) error {
	if e.memory == nil || len(toolsUsed) == 0 {
		return nil
	}
	steps := make([]string, 0, len(toolsUsed))
	for _, t := range toolsUsed {
		steps = append(steps, t.Tool)
	}
	duration := int(time.Since(started).Seconds())
	if err := e.memory.RecordTask(ctx, request, steps, truncate(outcome, 200), duration); err != nil {
		return fmt.Errorf("record task: %w", err)
	}
	return nil
}

// truncate bounds s to max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// DefaultSystemPrompt is the default system prompt for the agent.
const DefaultSystemPrompt = `You are AgentOS, an intelligent computer automation assistant.

You can control the user's computer through various tools:
- execute_shell_command: Run shell commands
- read_file/write_file: File operations
- list_directory/search_files: Navigate filesystem
- open_application/open_url/open_file: Launch apps and websites
- get_system_info/get_memory_info/get_disk_info/list_processes: Monitor system

GUIDELINES:
1. Always explain what you're about to do
2. Use the most appropriate tool for each task
3. Handle errors gracefully
4. Remember context from previous commands
5. Ask for confirmation for destructive operations

SAFETY:
- Validate all file paths
- Avoid dangerous commands
- Check command safety before execution`
