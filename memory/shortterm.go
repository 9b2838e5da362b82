package memory

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Item is one observation in short-term memory. Items are immutable once
// created and leave the buffer only through ring eviction or Clear.
type Item struct {
	Content   string
	Timestamp time.Time
	Type      string
	Metadata  map[string]any
}

// Item types used by the Manager. The vocabulary is open; types are used
// for filtering only, never for dispatch.
const (
	ItemCommand = "command"
	ItemTask    = "task"
	ItemGeneral = "general"
)

// summaryPreviewLen caps per-item content previews in ContextSummary.
const summaryPreviewLen = 100

// ShortTerm is the session-scoped working memory: a bounded ring of recent
// items plus a single mutable task-context slot. Every operation is a
// total function over its input domain; there are no error paths.
type ShortTerm struct {
	buf          *Ring[Item]
	taskContext  map[string]any
	sessionStart time.Time
}

// NewShortTerm creates a short-term memory with the given ring capacity.
func NewShortTerm(capacity int) *ShortTerm {
	return &ShortTerm{
		buf:          NewRing[Item](capacity),
		sessionStart: time.Now(),
	}
}

// Add appends a new item with the current timestamp.
func (s *ShortTerm) Add(content, itemType string, metadata map[string]any) {
	if itemType == "" {
		itemType = ItemGeneral
	}
	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	s.buf.Append(Item{
		Content:   content,
		Timestamp: time.Now(),
		Type:      itemType,
		Metadata:  md,
	})
}

// Recent returns up to the last n items in chronological order. A non-empty
// itemType filters by exact type equality before the count is applied; if
// fewer than n items match, all matches are returned.
func (s *ShortTerm) Recent(n int, itemType string) []Item {
	if n <= 0 {
		return []Item{}
	}
	items := s.buf.Items()
	if itemType != "" {
		filtered := items[:0]
		for _, it := range items {
			if it.Type == itemType {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	if n > len(items) {
		n = len(items)
	}
	return items[len(items)-n:]
}

// ContextSummary renders a deterministic text block describing the session:
// start time, the 10 most recent items with bounded content previews, and
// the active task when one is set.
func (s *ShortTerm) ContextSummary() string {
	recent := s.Recent(10, "")

	parts := []string{
		fmt.Sprintf("Session started: %s", s.sessionStart.Format("2006-01-02 15:04")),
		fmt.Sprintf("Recent actions (%d):", len(recent)),
	}
	for _, it := range recent {
		parts = append(parts, fmt.Sprintf("  [%s] %s", it.Type, clip(it.Content, summaryPreviewLen)))
	}
	if s.taskContext != nil {
		name, _ := s.taskContext["name"].(string)
		parts = append(parts, fmt.Sprintf("Active task: %s", name))
	}
	return strings.Join(parts, "\n")
}

// SetTaskContext replaces the task slot wholesale. No keys from a previous
// task survive. The stored record gets "name" and "started" alongside the
// caller-supplied fields.
func (s *ShortTerm) SetTaskContext(name string, context map[string]any) {
	tc := map[string]any{
		"name":    name,
		"started": time.Now(),
	}
	for k, v := range context {
		tc[k] = v
	}
	s.taskContext = tc
}

// ClearTaskContext empties the task slot.
func (s *ShortTerm) ClearTaskContext() {
	s.taskContext = nil
}

// TaskContext returns a copy of the task slot, or nil when no task is set.
// Mutating the returned map does not affect internal state.
func (s *ShortTerm) TaskContext() map[string]any {
	if s.taskContext == nil {
		return nil
	}
	out := make(map[string]any, len(s.taskContext))
	for k, v := range s.taskContext {
		out[k] = v
	}
	return out
}

// Clear empties the buffer and the task slot. The session start time is
// kept; clearing memory does not begin a new session.
func (s *ShortTerm) Clear() {
	s.buf.Clear()
	s.taskContext = nil
}

// Len returns the number of buffered items.
func (s *ShortTerm) Len() int {
	return s.buf.Len()
}

// clip truncates s to at most max bytes, backing up to a rune boundary so
// the result is always valid UTF-8.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
