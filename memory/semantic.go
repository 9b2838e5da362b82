package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

// Collection names of the semantic index. Each is append-only and owns its
// own sequential id space.
const (
	commandsCollection = "commands"
	tasksCollection    = "tasks"
)

// SearchResult is one nearest-neighbor hit from the semantic index.
// Distance is 1 - cosine similarity; results are ordered ascending, the
// closest document first.
type SearchResult struct {
	ID       string
	Document string
	Metadata map[string]any
	Distance float32
}

// Semantic is the embedding-indexed tier: two chromem-go collections of
// past commands and past tasks, queried by free-text nearest neighbor.
//
// All failures at this boundary degrade instead of propagating: adds are
// logged and dropped, searches return empty results. A failed semantic
// insert must never abort the caller's broader recording flow.
type Semantic struct {
	db       *chromem.DB
	commands *chromem.Collection
	tasks    *chromem.Collection
}

// OpenSemantic opens or creates the semantic index at path using embedder
// for document and query embeddings. An empty path selects a purely
// in-memory index, which the tests use.
func OpenSemantic(path string, embedder Embedder) (*Semantic, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open semantic index: %w", err)
		}
	}

	embed := chromem.EmbeddingFunc(embedder.Embed)

	commands, err := db.GetOrCreateCollection(commandsCollection,
		map[string]string{"description": "Command execution history"}, embed)
	if err != nil {
		return nil, fmt.Errorf("create commands collection: %w", err)
	}
	tasks, err := db.GetOrCreateCollection(tasksCollection,
		map[string]string{"description": "Task completion history"}, embed)
	if err != nil {
		return nil, fmt.Errorf("create tasks collection: %w", err)
	}

	return &Semantic{db: db, commands: commands, tasks: tasks}, nil
}

// AddCommand indexes one executed command as the document
// "{command}\n{output}". Embedding or storage failures are logged and
// swallowed.
func (s *Semantic) AddCommand(ctx context.Context, command, output string, metadata map[string]any) {
	doc := command + "\n" + output
	s.addDocument(ctx, s.commands, "cmd", doc, metadata)
}

// AddTask indexes one completed task as the document
// "{description}\nSteps: {steps '; '-joined}\nOutcome: {outcome}".
func (s *Semantic) AddTask(ctx context.Context, description string, steps []string, outcome string, metadata map[string]any) {
	doc := fmt.Sprintf("%s\nSteps: %s\nOutcome: %s", description, strings.Join(steps, "; "), outcome)
	s.addDocument(ctx, s.tasks, "task", doc, metadata)
}

// SearchCommands returns up to n nearest command documents for query,
// closest first. An empty index or any failure yields an empty result.
func (s *Semantic) SearchCommands(ctx context.Context, query string, n int) []SearchResult {
	return s.search(ctx, s.commands, query, n)
}

// SearchTasks is SearchCommands against the tasks collection.
func (s *Semantic) SearchTasks(ctx context.Context, query string, n int) []SearchResult {
	return s.search(ctx, s.tasks, query, n)
}

// addDocument inserts one document with a sequential per-collection id.
// Sequential ids read the collection size before insert, which is safe
// under the single-writer-per-session model; concurrent writers would need
// an atomic reservation instead.
func (s *Semantic) addDocument(ctx context.Context, col *chromem.Collection, prefix, doc string, metadata map[string]any) {
	id := fmt.Sprintf("%s_%d", prefix, col.Count())

	err := col.AddDocument(ctx, chromem.Document{
		ID:       id,
		Content:  doc,
		Metadata: encodeMetadata(metadata),
	})
	if err != nil {
		log.Printf("[SEMANTIC] Failed to add %s document: %v", prefix, err)
		return
	}
	log.Printf("[SEMANTIC] Indexed %s (%d bytes)", id, len(doc))
}

func (s *Semantic) search(ctx context.Context, col *chromem.Collection, query string, n int) []SearchResult {
	if n <= 0 {
		return []SearchResult{}
	}
	// chromem rejects nResults greater than the collection size.
	if count := col.Count(); count == 0 {
		return []SearchResult{}
	} else if n > count {
		n = count
	}

	results, err := col.Query(ctx, query, n, nil, nil)
	if err != nil {
		log.Printf("[SEMANTIC] Search failed: %v", err)
		return []SearchResult{}
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, SearchResult{
			ID:       r.ID,
			Document: r.Content,
			Metadata: decodeMetadata(r.Metadata),
			Distance: 1 - r.Similarity,
		})
	}
	return out
}

// encodeMetadata flattens arbitrary metadata values to the string map
// chromem stores: strings pass through, everything else is JSON-encoded.
func encodeMetadata(metadata map[string]any) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			continue
		}
		out[k] = string(b)
	}
	return out
}

// decodeMetadata reverses encodeMetadata: values that parse as JSON are
// restored, everything else stays a string.
func decodeMetadata(metadata map[string]string) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, raw := range metadata {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			out[k] = v
			continue
		}
		out[k] = raw
	}
	return out
}
