// Package store persists embedded chunks in Qdrant, one collection per
// corpus, and serves similarity search over them.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/fswinf/deskdraft/internal/ingest"
)

// Collection names, one per corpus.
const (
	KnowledgeCollection = "rag"
	PastCasesCollection = "email_repository"
)

// payloadContent is the payload key holding the chunk text; metadata keys
// are stored alongside it, flattened.
const payloadContent = "content"

// Store wraps the Qdrant client with collection management, deduplication
// queries and batched upserts.
type Store struct {
	client    *qdrant.Client
	dimension int
	logger    *slog.Logger
}

// NewStore creates a Qdrant client and verifies the server is reachable,
// retrying with exponential backoff before giving up.
func NewStore(host string, port, dimension int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	s := &Store{client: client, dimension: dimension, logger: logger}

	if err := s.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return s, nil
}

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(newBackoff(), ctx))
}

// Health performs a single health check against Qdrant.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// Close closes the underlying client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// HasCollection reports whether the named collection exists.
func (s *Store) HasCollection(ctx context.Context, collection string) (bool, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	for _, name := range names {
		if name == collection {
			return true, nil
		}
	}
	return false, nil
}

// EnsureCollection creates the collection if it does not exist, configured
// with cosine distance and a keyword index on the source payload field so
// deduplication queries stay fast. Idempotent.
func (s *Store) EnsureCollection(ctx context.Context, collection string) error {
	exists, err := s.HasCollection(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", collection, err)
	}

	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: collection,
		FieldName:      ingest.MetaSource,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("create source index on %s: %w", collection, err)
	}

	return nil
}

// RecreateCollection drops the collection and builds it fresh. This is the
// only path that removes persisted chunks; there is no per-document delete.
func (s *Store) RecreateCollection(ctx context.Context, collection string) error {
	if err := s.client.DeleteCollection(ctx, collection); err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	return s.EnsureCollection(ctx, collection)
}

// ExistingSources returns the distinct source values already present in the
// collection. This is best effort: a missing collection, a scroll failure or
// malformed payloads all degrade to an empty set rather than an error, so a
// corrupted prior table causes reingestion instead of a crash.
func (s *Store) ExistingSources(ctx context.Context, collection string) map[string]struct{} {
	sources := make(map[string]struct{})

	exists, err := s.HasCollection(ctx, collection)
	if err != nil || !exists {
		return sources
	}

	var offset *qdrant.PointId
	batch := uint32(256)
	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: collection,
			Limit:          qdrant.PtrOf(batch),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude(ingest.MetaSource),
		})
		if err != nil {
			s.logger.Warn("could not scan existing sources", "collection", collection, "error", err)
			return sources
		}

		for _, point := range results {
			if src := point.Payload[ingest.MetaSource].GetStringValue(); src != "" {
				sources[src] = struct{}{}
			}
		}

		if uint32(len(results)) < batch {
			break
		}
		offset = results[len(results)-1].Id
	}

	return sources
}

// UpsertChunks inserts embedded chunks into the collection. Metadata is
// flattened into the payload next to the content field; each point gets a
// fresh UUID, so chunks are never updated in place.
func (s *Store) UpsertChunks(ctx context.Context, collection string, chunks []ingest.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		if len(chunk.Vector) != s.dimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Vector), s.dimension)
		}

		payload := map[string]any{payloadContent: chunk.Content}
		for k, v := range chunk.Metadata {
			payload[k] = v
		}

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.New().String()),
			Vectors: qdrant.NewVectors(chunk.Vector...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
		})
		return err
	}
	if err := backoff.Retry(operation, backoff.WithContext(newBackoff(), ctx)); err != nil {
		return fmt.Errorf("upsert %d chunks into %s: %w", len(points), collection, err)
	}
	return nil
}

// Search performs vector similarity search and returns the matching chunks
// as documents, payload metadata restored.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, k int) ([]ingest.Document, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}

	docs := make([]ingest.Document, 0, len(results))
	for _, result := range results {
		doc := ingest.Document{Metadata: make(map[string]string)}
		for key, value := range result.Payload {
			if key == payloadContent {
				doc.Content = value.GetStringValue()
				continue
			}
			if str := value.GetStringValue(); str != "" {
				doc.Metadata[key] = str
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
