package ingest

import (
	"context"
	"fmt"
	"log/slog"
)

// BatchSize is the number of chunks embedded and inserted per call.
// Embedding requests are the bottleneck and may rate-limit, so batches are
// kept small to bound memory and API burst size.
const BatchSize = 5

// EmbeddedChunk pairs a chunk with its embedding vector for insertion.
type EmbeddedChunk struct {
	Document
	Vector []float32
}

// VectorStore is the persistence surface the generator writes to.
type VectorStore interface {
	EnsureCollection(ctx context.Context, collection string) error
	RecreateCollection(ctx context.Context, collection string) error
	ExistingSources(ctx context.Context, collection string) map[string]struct{}
	UpsertChunks(ctx context.Context, collection string, chunks []EmbeddedChunk) error
}

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// GenerateResult reports what a Generate run did.
type GenerateResult struct {
	TotalChunks int
	Skipped     int
	Inserted    int
}

// Generator writes processed chunks into a vector store collection,
// deduplicating against sources already present.
type Generator struct {
	store    VectorStore
	embedder Embedder
	logger   *slog.Logger
}

// NewGenerator creates a generator. A nil logger selects slog.Default().
func NewGenerator(store VectorStore, embedder Embedder, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{store: store, embedder: embedder, logger: logger}
}

// Generate inserts chunks into the named collection. With force the
// collection is dropped and rebuilt from scratch; otherwise chunks whose
// source is already present are filtered out first. Deduplication is by
// origin source only, never per chunk: re-ingesting a known source is a
// no-op, and replacing one requires a force rebuild. An empty input or a
// fully deduplicated batch is success with nothing to do.
func (g *Generator) Generate(ctx context.Context, collection string, chunks []Document, force bool) (*GenerateResult, error) {
	result := &GenerateResult{TotalChunks: len(chunks)}
	if len(chunks) == 0 {
		g.logger.Info("no chunks to process", "collection", collection)
		return result, nil
	}

	if force {
		g.logger.Info("force rebuild, clearing collection", "collection", collection)
		if err := g.store.RecreateCollection(ctx, collection); err != nil {
			return nil, fmt.Errorf("recreate collection %s: %w", collection, err)
		}
	} else {
		if err := g.store.EnsureCollection(ctx, collection); err != nil {
			return nil, fmt.Errorf("ensure collection %s: %w", collection, err)
		}
		existing := g.store.ExistingSources(ctx, collection)
		if len(existing) > 0 {
			g.logger.Info("found existing sources", "collection", collection, "count", len(existing))
			chunks = filterNew(chunks, existing)
			result.Skipped = result.TotalChunks - len(chunks)
			if result.Skipped > 0 {
				g.logger.Info("skipping chunks from already-ingested sources",
					"collection", collection, "skipped", result.Skipped)
			}
		}
	}

	if len(chunks) == 0 {
		g.logger.Info("no new chunks to insert", "collection", collection)
		return result, nil
	}

	for start := 0; start < len(chunks); start += BatchSize {
		end := min(start+BatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vectors, err := g.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
		}

		embedded := make([]EmbeddedChunk, len(batch))
		for i, c := range batch {
			embedded[i] = EmbeddedChunk{Document: c, Vector: vectors[i]}
		}
		if err := g.store.UpsertChunks(ctx, collection, embedded); err != nil {
			return nil, fmt.Errorf("insert batch %d-%d: %w", start, end, err)
		}

		result.Inserted += len(batch)
		g.logger.Info("inserted batch", "collection", collection,
			"processed", result.Inserted, "total", len(chunks))
	}

	return result, nil
}

// filterNew drops chunks whose source is already in the store.
func filterNew(chunks []Document, existing map[string]struct{}) []Document {
	out := make([]Document, 0, len(chunks))
	for _, c := range chunks {
		if _, ok := existing[c.Source()]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}
