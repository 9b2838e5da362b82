// Package memory implements the three-tier memory system that supplies
// context to each model call.
//
// Tiers:
//   - ShortTerm: session-scoped ring buffer of recent items plus the
//     active task slot. Volatile, bounded, zero error paths.
//   - LongTerm: durable SQLite log of command history, task history and
//     preferences. Outlives the process.
//   - Semantic: embedding-indexed corpus of past commands and tasks
//     backed by chromem-go, queried by nearest neighbor.
//
// The Manager fans writes out to all three tiers on every recorded action
// and fans reads back in when building context for a new request. The
// fan-out is deliberately not transactional across tiers: each tier is
// individually consistent, and a broken semantic index never blocks an
// otherwise-servable request.
package memory

import "context"

// Embedder converts text to vector embeddings for the semantic tier.
// Implementations: embedder/mock (deterministic, offline),
// embedder/cached (ristretto wrapper), embedder/onnx (all-MiniLM-L6-v2,
// build tag "onnx").
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}
