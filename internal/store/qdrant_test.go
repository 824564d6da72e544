//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fswinf/deskdraft/internal/ingest"
)

const testDimension = 4

// setupTestStore connects to a local Qdrant and prepares a scratch
// collection. Skips when Qdrant is not running.
func setupTestStore(t *testing.T, collection string) *Store {
	t.Helper()

	s, err := NewStore("localhost", 6334, testDimension, nil)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.RecreateCollection(context.Background(), collection))
	return s
}

func testChunk(content, source string, vector []float32) ingest.EmbeddedChunk {
	return ingest.EmbeddedChunk{
		Document: ingest.Document{
			Content:  content,
			Metadata: map[string]string{ingest.MetaSource: source},
		},
		Vector: vector,
	}
}

func TestUpsertAndSearch(t *testing.T) {
	const collection = "deskdraft_test_search"
	s := setupTestStore(t, collection)
	ctx := context.Background()

	chunks := []ingest.EmbeddedChunk{
		testChunk("Anrechnung von ECTS", "kb/anrechnung.md", []float32{1, 0, 0, 0}),
		testChunk("Mensa Öffnungszeiten", "kb/mensa.md", []float32{0, 1, 0, 0}),
	}
	require.NoError(t, s.UpsertChunks(ctx, collection, chunks))

	docs, err := s.Search(ctx, collection, []float32{1, 0, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Anrechnung von ECTS", docs[0].Content)
	assert.Equal(t, "kb/anrechnung.md", docs[0].Metadata[ingest.MetaSource])
}

func TestExistingSources(t *testing.T) {
	const collection = "deskdraft_test_sources"
	s := setupTestStore(t, collection)
	ctx := context.Background()

	require.NoError(t, s.UpsertChunks(ctx, collection, []ingest.EmbeddedChunk{
		testChunk("a", "kb/a.md", []float32{1, 0, 0, 0}),
		testChunk("a2", "kb/a.md", []float32{0.9, 0.1, 0, 0}),
		testChunk("b", "kb/b.md", []float32{0, 1, 0, 0}),
	}))

	sources := s.ExistingSources(ctx, collection)
	assert.Len(t, sources, 2, "sources are distinct, not per chunk")
	assert.Contains(t, sources, "kb/a.md")
	assert.Contains(t, sources, "kb/b.md")
}

func TestExistingSourcesMissingCollection(t *testing.T) {
	s := setupTestStore(t, "deskdraft_test_scratch")

	sources := s.ExistingSources(context.Background(), "deskdraft_never_created")
	assert.Empty(t, sources, "a missing collection degrades to an empty set")
}

func TestUpsertDimensionMismatch(t *testing.T) {
	const collection = "deskdraft_test_dims"
	s := setupTestStore(t, collection)

	err := s.UpsertChunks(context.Background(), collection, []ingest.EmbeddedChunk{
		testChunk("wrong", "kb/w.md", []float32{1, 0}),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestRecreateCollectionClears(t *testing.T) {
	const collection = "deskdraft_test_recreate"
	s := setupTestStore(t, collection)
	ctx := context.Background()

	require.NoError(t, s.UpsertChunks(ctx, collection, []ingest.EmbeddedChunk{
		testChunk("x", "kb/x.md", []float32{1, 0, 0, 0}),
	}))
	require.NoError(t, s.RecreateCollection(ctx, collection))

	assert.Empty(t, s.ExistingSources(ctx, collection), "recreate must drop all points")
}
