// Package agent runs the tool-calling LLM loop that drafts replies,
// grounded by knowledge search, past-case search and URL summarization.
package agent

import (
	"context"
	"encoding/json"

	"github.com/fswinf/deskdraft/internal/ingest"
)

// Tool is a capability the agent can invoke mid-generation. Invoke never
// returns an error: failures become descriptive strings, because the loop
// treats tool output as a textual observation, not control flow.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Invoke(ctx context.Context, args json.RawMessage) string
}

// VectorSearcher is the retrieval surface the search tools depend on.
// The concrete store satisfies it; tests substitute fakes.
type VectorSearcher interface {
	Search(ctx context.Context, collection string, vector []float32, k int) ([]ingest.Document, error)
}

// Embedder turns a query into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Chatter produces a completion for a single prompt. The URL tool uses it
// to summarize fetched content.
type Chatter interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// searchArgs is the argument shape shared by both search tools.
type searchArgs struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
