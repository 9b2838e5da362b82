package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Bounds used when assembling query context. The semantic corpus is
// consulted more aggressively for commands than tasks because command
// recall is the common case in an automation session.
const (
	recentActionCount   = 10
	similarCommandCount = 3
	similarTaskCount    = 2
	recordedOutputLen   = 200
	similarPreviewLen   = 150
)

// Action is a short-term item projected for context assembly.
type Action struct {
	Type      string
	Content   string
	Timestamp time.Time
}

// QueryContext is the merged view of all three memory tiers for one query.
// All fields are always present; empty memory yields empty slices and a nil
// CurrentTask.
type QueryContext struct {
	RecentActions   []Action
	CurrentTask     map[string]any
	SimilarCommands []SearchResult
	SimilarTasks    []SearchResult
	Summary         string
}

// Manager orchestrates the three memory tiers: fan-out writes on every
// recorded action, fan-in reads when building context for a new request.
// It holds references to the tiers and mutates them only through their
// public operations.
//
// The fan-out is not transactional across tiers. A caller that times out
// mid-record may observe a short-term write without the durable row; each
// tier remains individually consistent. Only durable-tier failures
// propagate as errors; the semantic tier degrades silently.
type Manager struct {
	short    *ShortTerm
	long     *LongTerm
	semantic *Semantic
}

// NewManager wires the three tiers together.
func NewManager(short *ShortTerm, long *LongTerm, semantic *Semantic) *Manager {
	return &Manager{short: short, long: long, semantic: semantic}
}

// ShortTerm returns the session tier.
func (m *Manager) ShortTerm() *ShortTerm { return m.short }

// LongTerm returns the durable tier.
func (m *Manager) LongTerm() *LongTerm { return m.long }

// Semantic returns the embedding tier.
func (m *Manager) Semantic() *Semantic { return m.semantic }

// RecordCommand records one tool/command execution across the tiers:
// a short-term item and a durable row always, a semantic document only
// when the command succeeded. The success gate biases semantic retrieval
// toward commands that worked.
func (m *Manager) RecordCommand(ctx context.Context, command, output string, success bool, metadata map[string]any) error {
	md := map[string]any{"success": success}
	for k, v := range metadata {
		md[k] = v
	}
	m.short.Add(
		fmt.Sprintf("Command: %s\nOutput: %s", command, clip(output, recordedOutputLen)),
		ItemCommand,
		md,
	)

	if err := m.long.AddCommand(ctx, command, output, success, metadata); err != nil {
		return err
	}

	if success {
		m.semantic.AddCommand(ctx, command, output, metadata)
	}

	log.Printf("[MEMORY] Recorded command (success=%t): %s", success, clip(command, 50))
	return nil
}

// RecordTask records one completed task across all three tiers. The
// semantic write is unconditional; the outcome text itself may encode
// failure.
func (m *Manager) RecordTask(ctx context.Context, description string, steps []string, outcome string, durationSeconds int) error {
	m.short.Add(
		fmt.Sprintf("Task: %s\nOutcome: %s", description, outcome),
		ItemTask,
		nil,
	)

	if err := m.long.AddTask(ctx, description, steps, outcome, durationSeconds); err != nil {
		return err
	}

	m.semantic.AddTask(ctx, description, steps, outcome, nil)

	log.Printf("[MEMORY] Recorded task: %s", clip(description, 50))
	return nil
}

// ContextForQuery assembles the merged context for query. It is a pure
// read: no tier is written, and empty memory produces a usable (empty)
// context rather than an error.
func (m *Manager) ContextForQuery(ctx context.Context, query string) *QueryContext {
	qc := &QueryContext{
		RecentActions:   []Action{},
		SimilarCommands: []SearchResult{},
		SimilarTasks:    []SearchResult{},
	}

	for _, it := range m.short.Recent(recentActionCount, "") {
		qc.RecentActions = append(qc.RecentActions, Action{
			Type:      it.Type,
			Content:   it.Content,
			Timestamp: it.Timestamp,
		})
	}

	qc.CurrentTask = m.short.TaskContext()
	qc.SimilarCommands = m.semantic.SearchCommands(ctx, query, similarCommandCount)
	qc.SimilarTasks = m.semantic.SearchTasks(ctx, query, similarTaskCount)
	qc.Summary = m.short.ContextSummary()

	log.Printf("[MEMORY] Built context: %d recent, %d similar commands, %d similar tasks",
		len(qc.RecentActions), len(qc.SimilarCommands), len(qc.SimilarTasks))
	return qc
}

// FormatForLLM renders a query context into the single text block passed
// to the model. Sections appear in fixed order and empty sections are
// omitted.
func (m *Manager) FormatForLLM(qc *QueryContext) string {
	var sections []string

	if qc.Summary != "" {
		sections = append(sections, "=== Session Context ===\n"+qc.Summary)
	}

	if qc.CurrentTask != nil {
		name, ok := qc.CurrentTask["name"].(string)
		if !ok {
			name = "N/A"
		}
		sections = append(sections, "=== Active Task ===\nTask: "+name)
	}

	if len(qc.SimilarCommands) > 0 {
		lines := []string{"=== Similar Past Commands ==="}
		for i, r := range qc.SimilarCommands {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, preview(r.Document)))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(qc.SimilarTasks) > 0 {
		lines := []string{"=== Similar Past Tasks ==="}
		for i, r := range qc.SimilarTasks {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, preview(r.Document)))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	return strings.Join(sections, "\n\n")
}

// ClearSession clears short-term memory only. The durable and semantic
// tiers are cross-session by design and stay untouched.
func (m *Manager) ClearSession() {
	m.short.Clear()
	log.Printf("[MEMORY] Session cleared")
}

// preview truncates a document for prompt inclusion.
func preview(doc string) string {
	doc = strings.ReplaceAll(doc, "\n", " ")
	if len(doc) <= similarPreviewLen {
		return doc
	}
	return clip(doc, similarPreviewLen) + "..."
}
