package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is the fixed-width UTC format used for all durable timestamps.
// Fixed width keeps lexicographic order equal to chronological order, which
// the retention cleanup and history ordering rely on.
const timeLayout = "2006-01-02 15:04:05.000000000"

// similarTaskScanLimit bounds how many recent tasks the keyword ranking
// considers.
const similarTaskScanLimit = 100

// CommandRecord is one row of durable command history. Rows are append-only
// and leave the table only through retention cleanup.
type CommandRecord struct {
	ID        int64
	Command   string
	Output    string
	Success   bool
	Timestamp time.Time
	Metadata  map[string]any
}

// TaskRecord is one row of durable task history.
type TaskRecord struct {
	ID              int64
	Description     string
	Steps           []string
	Outcome         string
	DurationSeconds int
	Timestamp       time.Time
}

// LongTerm is the durable memory tier: an embedded SQLite store of command
// history, task history and preferences that persists across restarts.
// Writes commit synchronously before returning. Concurrent access from
// multiple processes is serialized by SQLite itself; no extra locking is
// added here.
type LongTerm struct {
	db   *sql.DB
	path string
}

// OpenLongTerm opens or creates the durable store at dbPath and applies the
// schema idempotently. Opening the same path twice, sequentially or from a
// new process, yields the same schema.
func OpenLongTerm(dbPath string) (*LongTerm, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storageErr("create db dir", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, storageErr("open db", err)
	}

	l := &LongTerm{db: db, path: dbPath}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, storageErr("migrate", err)
	}
	return l, nil
}

func (l *LongTerm) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS command_history (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		command   TEXT NOT NULL,
		output    TEXT,
		success   BOOLEAN,
		timestamp TEXT NOT NULL,
		metadata  TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_command_history_ts ON command_history(timestamp DESC);

	CREATE TABLE IF NOT EXISTS task_history (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		task_description TEXT NOT NULL,
		steps            TEXT,
		outcome          TEXT,
		duration_seconds INTEGER,
		timestamp        TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_task_history_ts ON task_history(timestamp DESC);

	CREATE TABLE IF NOT EXISTS preferences (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS learned_patterns (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		pattern_type TEXT NOT NULL,
		pattern_data TEXT NOT NULL,
		confidence   REAL,
		usage_count  INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL DEFAULT (datetime('now'))
	);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (l *LongTerm) Close() error {
	return l.db.Close()
}

// Path returns the configured database file path.
func (l *LongTerm) Path() string {
	return l.path
}

// AddCommand appends one command-history row and commits before returning.
func (l *LongTerm) AddCommand(ctx context.Context, command, output string, success bool, metadata map[string]any) error {
	md, err := json.Marshal(orEmpty(metadata))
	if err != nil {
		return storageErr("marshal metadata", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO command_history (command, output, success, timestamp, metadata) VALUES (?, ?, ?, ?, ?)`,
		command, output, success, now(), string(md))
	return storageErr("insert command", err)
}

// CommandHistory returns up to limit rows, most recent first. successOnly
// restricts the result to rows recorded with success=true. An empty result
// is valid.
func (l *LongTerm) CommandHistory(ctx context.Context, limit int, successOnly bool) ([]CommandRecord, error) {
	query := `SELECT id, command, output, success, timestamp, metadata FROM command_history`
	if successOnly {
		query += ` WHERE success = 1`
	}
	query += ` ORDER BY timestamp DESC, id DESC LIMIT ?`

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, storageErr("query command history", err)
	}
	defer rows.Close()

	var out []CommandRecord
	for rows.Next() {
		var (
			rec    CommandRecord
			output sql.NullString
			ts     string
			md     sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Command, &output, &rec.Success, &ts, &md); err != nil {
			return nil, storageErr("scan command row", err)
		}
		rec.Output = output.String
		rec.Timestamp = parseTime(ts)
		rec.Metadata = parseMetadata(md.String)
		out = append(out, rec)
	}
	return out, storageErr("iterate command history", rows.Err())
}

// AddTask appends one task-history row. Steps are stored as a JSON array
// and read back in their original order.
func (l *LongTerm) AddTask(ctx context.Context, description string, steps []string, outcome string, durationSeconds int) error {
	if steps == nil {
		steps = []string{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return storageErr("marshal steps", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO task_history (task_description, steps, outcome, duration_seconds, timestamp) VALUES (?, ?, ?, ?, ?)`,
		description, string(stepsJSON), outcome, durationSeconds, now())
	return storageErr("insert task", err)
}

// SimilarTasks ranks recent tasks by keyword overlap with description:
// both sides are lowercased and whitespace-split into sets, the score is
// the intersection size, and only tasks with score > 0 are returned. Ties
// keep the most-recent-first scan order. This is a placeholder heuristic;
// the semantic tier layers embedding search on top of it.
func (l *LongTerm) SimilarTasks(ctx context.Context, description string, limit int) ([]TaskRecord, error) {
	keywords := tokenSet(description)

	rows, err := l.db.QueryContext(ctx,
		`SELECT id, task_description, steps, outcome, duration_seconds, timestamp
		 FROM task_history ORDER BY timestamp DESC, id DESC LIMIT ?`, similarTaskScanLimit)
	if err != nil {
		return nil, storageErr("query task history", err)
	}
	defer rows.Close()

	type scored struct {
		score int
		rec   TaskRecord
	}
	var candidates []scored
	for rows.Next() {
		var (
			rec   TaskRecord
			steps sql.NullString
			ts    string
		)
		if err := rows.Scan(&rec.ID, &rec.Description, &steps, &rec.Outcome, &rec.DurationSeconds, &ts); err != nil {
			return nil, storageErr("scan task row", err)
		}
		rec.Timestamp = parseTime(ts)
		if steps.Valid && steps.String != "" {
			if err := json.Unmarshal([]byte(steps.String), &rec.Steps); err != nil {
				log.Printf("[MEMORY] Skipping malformed steps for task %d: %v", rec.ID, err)
			}
		}
		if score := overlap(keywords, tokenSet(rec.Description)); score > 0 {
			candidates = append(candidates, scored{score: score, rec: rec})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate task history", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if limit > len(candidates) {
		limit = len(candidates)
	}
	out := make([]TaskRecord, 0, limit)
	for _, c := range candidates[:limit] {
		out = append(out, c.rec)
	}
	return out, nil
}

// SetPreference stores a JSON-serialized value under key with last-write-wins
// upsert semantics. At most one row exists per key.
func (l *LongTerm) SetPreference(ctx context.Context, key string, value any) error {
	v, err := json.Marshal(value)
	if err != nil {
		return storageErr("marshal preference", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(v), now())
	return storageErr("upsert preference", err)
}

// GetPreference returns the stored value for key, or def when the key is
// absent. A missing key is not an error.
func (l *LongTerm) GetPreference(ctx context.Context, key string, def any) (any, error) {
	var raw string
	err := l.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		return def, nil
	case err != nil:
		return nil, storageErr("query preference", err)
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, storageErr("unmarshal preference", err)
	}
	return value, nil
}

// CleanupOldData deletes command and task rows older than days. days=0
// deletes every row with a timestamp strictly before the call time, which
// is effectively all existing rows; this is the documented way to purge
// everything. Returns the number of deleted rows.
func (l *LongTerm) CleanupOldData(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour).Format(timeLayout)

	var deleted int64
	for _, table := range []string{"command_history", "task_history"} {
		res, err := l.db.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE timestamp < ?`, table), cutoff)
		if err != nil {
			return deleted, storageErr("cleanup "+table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			deleted += n
		}
	}
	log.Printf("[MEMORY] Cleaned up %d rows older than %s", deleted, cutoff)
	return deleted, nil
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseMetadata(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var md map[string]any
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return map[string]any{}
	}
	return md
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}
