package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fswinf/deskdraft/internal/ingest"
	"github.com/fswinf/deskdraft/internal/store"
)

// KnowledgeSearchTool searches the scraped knowledge base. With no store
// configured it degrades to a labeled dev-mode placeholder so the rest of
// the pipeline keeps working without a populated vector database.
type KnowledgeSearchTool struct {
	store    VectorSearcher
	embedder Embedder
	logger   *slog.Logger
}

// NewKnowledgeSearchTool creates the knowledge search tool. A nil store
// selects dev mode.
func NewKnowledgeSearchTool(s VectorSearcher, e Embedder, logger *slog.Logger) *KnowledgeSearchTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &KnowledgeSearchTool{store: s, embedder: e, logger: logger}
}

func (t *KnowledgeSearchTool) Name() string { return "search_knowledge_base" }

func (t *KnowledgeSearchTool) Description() string {
	return "Search the knowledge base (TU Wien, HTU and FSWinf web content and documents) " +
		"for relevant information using semantic search."
}

func (t *KnowledgeSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query to find relevant documents",
			},
			"k": map[string]any{
				"type":        "integer",
				"description": "Number of documents to retrieve (default 5, max 10)",
			},
		},
		"required": []string{"query"},
	}
}

func (t *KnowledgeSearchTool) Invoke(ctx context.Context, args json.RawMessage) string {
	var in searchArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return fmt.Sprintf("Error: invalid search arguments: %v", err)
	}
	if in.K == 0 {
		in.K = 5
	}
	k := clamp(in.K, 1, 10)

	if t.store == nil {
		return fmt.Sprintf("[DEV MODE] Vector database not available. Would search for: %q (k=%d)", in.Query, k)
	}

	t.logger.Info("searching knowledge base", "query", in.Query, "k", k)
	docs, err := searchByQuery(ctx, t.store, t.embedder, store.KnowledgeCollection, in.Query, k)
	if err != nil {
		return fmt.Sprintf("Error searching knowledge base: %v", err)
	}
	if len(docs) == 0 {
		return fmt.Sprintf("No relevant documents found for query: %q", in.Query)
	}

	var parts []string
	for i, doc := range docs {
		result := fmt.Sprintf("Document %d:\n%s", i+1, strings.TrimSpace(doc.Content))
		if url := doc.Metadata[ingest.MetaSourceURL]; url != "" {
			result += "\nURL: " + url
		}
		parts = append(parts, result)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// PastCaseSearchTool searches the repository of past email cases.
type PastCaseSearchTool struct {
	store    VectorSearcher
	embedder Embedder
	logger   *slog.Logger
}

// NewPastCaseSearchTool creates the past-case search tool. A nil store
// selects dev mode.
func NewPastCaseSearchTool(s VectorSearcher, e Embedder, logger *slog.Logger) *PastCaseSearchTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &PastCaseSearchTool{store: s, embedder: e, logger: logger}
}

func (t *PastCaseSearchTool) Name() string { return "search_past_cases" }

func (t *PastCaseSearchTool) Description() string {
	return "Search through past email cases to find similar situations and how they were handled."
}

func (t *PastCaseSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query to find similar past cases",
			},
			"k": map[string]any{
				"type":        "integer",
				"description": "Number of past cases to retrieve (default 3, max 8)",
			},
		},
		"required": []string{"query"},
	}
}

func (t *PastCaseSearchTool) Invoke(ctx context.Context, args json.RawMessage) string {
	var in searchArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return fmt.Sprintf("Error: invalid search arguments: %v", err)
	}
	if in.K == 0 {
		in.K = 3
	}
	k := clamp(in.K, 1, 8)

	if t.store == nil {
		return fmt.Sprintf("[DEV MODE] Email repository not available. Would search past cases for: %q (k=%d)", in.Query, k)
	}

	t.logger.Info("searching past cases", "query", in.Query, "k", k)
	docs, err := searchByQuery(ctx, t.store, t.embedder, store.PastCasesCollection, in.Query, k)
	if err != nil {
		return fmt.Sprintf("Error searching past cases: %v", err)
	}
	if len(docs) == 0 {
		return fmt.Sprintf("No similar past cases found for query: %q", in.Query)
	}

	var parts []string
	for i, doc := range docs {
		meta := doc.Metadata
		part := fmt.Sprintf("Past Case %d - %s\nSubject: %s\nDate: %s\nSource: %s\nEmail Exchange:\n%s",
			i+1,
			valueOr(meta[ingest.MetaCaseType], "General"),
			valueOr(meta[ingest.MetaEmailSubject], "No subject"),
			valueOr(meta[ingest.MetaEmailDate], "Unknown date"),
			valueOr(meta[ingest.MetaSource], "Unknown"),
			strings.TrimSpace(doc.Content))
		parts = append(parts, part)
	}
	return strings.Join(parts, "\n\n"+strings.Repeat("=", 50)+"\n\n")
}

func searchByQuery(ctx context.Context, s VectorSearcher, e Embedder, collection, query string, k int) ([]ingest.Document, error) {
	vectors, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}
	return s.Search(ctx, collection, vectors[0], k)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
