package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKnowledgeReadsMarkdown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.md"), []byte("# Page\n\nContent."), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "nested.md"), []byte("nested"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("nope"), 0o644))

	docs, err := NewLoader(nil).LoadKnowledge(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	sources := []string{docs[0].Source(), docs[1].Source()}
	assert.Contains(t, sources, filepath.Join(dir, "page.md"))
	assert.Contains(t, sources, filepath.Join(dir, "sub", "nested.md"))
}

func TestLoadEmailChainsMissingDir(t *testing.T) {
	docs, err := NewLoader(nil).LoadEmailChains(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err, "a missing email chains directory is not an error")
	assert.Empty(t, docs)
}

func TestLoadEmailChainsOnlyMarkdown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "case.md"), []byte("Subject: x\n---\nbody"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "export.csv"), []byte("a,b"), 0o644))

	docs, err := NewLoader(nil).LoadEmailChains(dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, filepath.Join(dir, "case.md"), docs[0].Source())
}
