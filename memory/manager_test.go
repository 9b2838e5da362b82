package memory_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/agentos-dev/agentos-go/memory"
	"github.com/agentos-dev/agentos-go/memory/embedder/mock"
)

func newTestManager(t *testing.T) *memory.Manager {
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

func TestRecordCommandFanOutOnSuccess(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	if err := m.RecordCommand(ctx, "ls /tmp", "total 0", true, map[string]any{"tool": "shell"}); err != nil {
		t.Fatalf("RecordCommand: %v", err)
	}

	if got := m.ShortTerm().Recent(1, memory.ItemCommand); len(got) != 1 {
		t.Error("short-term tier missing the command item")
	} else if !strings.Contains(got[0].Content, "Command: ls /tmp") {
		t.Errorf("short-term content = %q", got[0].Content)
	}

	records, err := m.LongTerm().CommandHistory(ctx, 10, false)
	if err != nil {
		t.Fatalf("CommandHistory: %v", err)
	}
	if len(records) != 1 || records[0].Command != "ls /tmp" {
		t.Errorf("durable tier rows = %v", records)
	}

	if got := m.Semantic().SearchCommands(ctx, "ls /tmp", 5); len(got) != 1 {
		t.Errorf("semantic tier has %d docs, want 1", len(got))
	}
}

func TestRecordCommandFailureSkipsSemantic(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	if err := m.RecordCommand(ctx, "rm missing", "no such file", false, nil); err != nil {
		t.Fatalf("RecordCommand: %v", err)
	}

	// Failures still reach the short-term and durable tiers.
	if got := m.ShortTerm().Recent(1, ""); len(got) != 1 {
		t.Error("short-term tier missing the failed command")
	}
	records, err := m.LongTerm().CommandHistory(ctx, 10, false)
	if err != nil {
		t.Fatalf("CommandHistory: %v", err)
	}
	if len(records) != 1 || records[0].Success {
		t.Errorf("durable rows = %v", records)
	}

	// But never the semantic index.
	if got := m.Semantic().SearchCommands(ctx, "rm missing", 5); len(got) != 0 {
		t.Errorf("failed command indexed semantically: %v", got)
	}
}

func TestRecordTaskFanOut(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	err := m.RecordTask(ctx, "set up project", []string{"mkdir", "git init"}, "failed: no git", 3)
	if err != nil {
		t.Fatalf("RecordTask: %v", err)
	}

	if got := m.ShortTerm().Recent(1, memory.ItemTask); len(got) != 1 {
		t.Error("short-term tier missing the task item")
	}
	tasks, err := m.LongTerm().SimilarTasks(ctx, "set up project", 5)
	if err != nil {
		t.Fatalf("SimilarTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("durable task rows = %v", tasks)
	}
	// Task indexing ignores the outcome; failed tasks are searchable too.
	if got := m.Semantic().SearchTasks(ctx, "set up project", 5); len(got) != 1 {
		t.Errorf("semantic task docs = %v", got)
	}
}

func TestContextForQueryEmptyMemory(t *testing.T) {
	m := newTestManager(t)
	qc := m.ContextForQuery(context.Background(), "anything")

	if qc.RecentActions == nil || qc.SimilarCommands == nil || qc.SimilarTasks == nil {
		t.Error("empty context should have initialized slices, not nil")
	}
	if len(qc.RecentActions)+len(qc.SimilarCommands)+len(qc.SimilarTasks) != 0 {
		t.Errorf("empty memory produced non-empty context: %+v", qc)
	}
	if qc.CurrentTask != nil {
		t.Errorf("CurrentTask = %v, want nil", qc.CurrentTask)
	}
	if !strings.Contains(qc.Summary, "Session started:") {
		t.Error("summary missing even on empty memory")
	}
}

func TestContextForQueryMerged(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	m.RecordCommand(ctx, "df -h", "ok", true, nil)
	m.ShortTerm().SetTaskContext("check disks", nil)

	qc := m.ContextForQuery(ctx, "df -h")
	if len(qc.RecentActions) != 1 {
		t.Errorf("RecentActions = %v", qc.RecentActions)
	}
	if qc.CurrentTask == nil || qc.CurrentTask["name"] != "check disks" {
		t.Errorf("CurrentTask = %v", qc.CurrentTask)
	}
	if len(qc.SimilarCommands) != 1 {
		t.Errorf("SimilarCommands = %v", qc.SimilarCommands)
	}
}

func TestFormatForLLMOmitsEmptySections(t *testing.T) {
	m := newTestManager(t)
	qc := m.ContextForQuery(context.Background(), "anything")

	out := m.FormatForLLM(qc)
	if !strings.Contains(out, "=== Session Context ===") {
		t.Error("session context section missing")
	}
	for _, header := range []string{"=== Active Task ===", "=== Similar Past Commands ===", "=== Similar Past Tasks ==="} {
		if strings.Contains(out, header) {
			t.Errorf("empty section %q rendered", header)
		}
	}
}

func TestFormatForLLMSectionOrder(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	m.RecordCommand(ctx, "ls", "ok", true, nil)
	m.RecordTask(ctx, "list files", []string{"ls"}, "done", 1)
	m.ShortTerm().SetTaskContext("housekeeping", nil)

	out := m.FormatForLLM(m.ContextForQuery(ctx, "ls"))

	order := []string{
		"=== Session Context ===",
		"=== Active Task ===",
		"=== Similar Past Commands ===",
		"=== Similar Past Tasks ===",
	}
	last := -1
	for _, header := range order {
		idx := strings.Index(out, header)
		if idx < 0 {
			t.Fatalf("section %q missing from:\n%s", header, out)
		}
		if idx < last {
			t.Errorf("section %q out of order", header)
		}
		last = idx
	}
	if !strings.Contains(out, "Task: housekeeping") {
		t.Error("active task name missing")
	}
}

func TestFormatForLLMPreviewTruncation(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	longOutput := strings.Repeat("y", 400)
	m.RecordCommand(ctx, "generate", longOutput, true, nil)

	out := m.FormatForLLM(m.ContextForQuery(ctx, "generate"))
	if !strings.Contains(out, "...") {
		t.Error("long similar-command document not truncated with ellipsis")
	}
	if strings.Contains(out, strings.Repeat("y", 200)) {
		t.Error("similar-command preview exceeds its bound")
	}
}

func TestFormatForLLMMultibytePreview(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	// Enough 3-byte runes that the preview cut lands mid-rune unless it
	// backs up to a boundary.
	m.RecordCommand(ctx, "cat notes", strings.Repeat("あ", 120), true, nil)

	out := m.FormatForLLM(m.ContextForQuery(ctx, "cat notes"))
	if !utf8.ValidString(out) {
		t.Error("formatted context contains invalid UTF-8")
	}
	if !strings.Contains(out, "...") {
		t.Error("long multibyte document not truncated")
	}
}

func TestFormatForLLMTaskNameFallback(t *testing.T) {
	m := newTestManager(t)

	// A caller-supplied context field can overwrite the task name with a
	// non-string; the section falls back rather than rendering blank.
	m.ShortTerm().SetTaskContext("deploy", map[string]any{"name": 42})

	out := m.FormatForLLM(m.ContextForQuery(context.Background(), "anything"))
	if !strings.Contains(out, "Task: N/A") {
		t.Errorf("missing task-name fallback in:\n%s", out)
	}
}

func TestClearSessionKeepsDurableTiers(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	m.RecordCommand(ctx, "ls", "ok", true, nil)
	m.ClearSession()

	if m.ShortTerm().Len() != 0 {
		t.Error("short-term memory survived ClearSession")
	}
	records, err := m.LongTerm().CommandHistory(ctx, 10, false)
	if err != nil {
		t.Fatalf("CommandHistory: %v", err)
	}
	if len(records) != 1 {
		t.Error("durable tier lost rows on ClearSession")
	}
	if got := m.Semantic().SearchCommands(ctx, "ls", 5); len(got) != 1 {
		t.Error("semantic tier lost docs on ClearSession")
	}
}
