package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so ambient environment can't
// leak into the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FREESCOUT_BASE_URL", "FREESCOUT_API_KEY", "AI_USER_ID",
		"EMBEDDINGS_PROVIDER", "CHAT_PROVIDER", "LLM_PROVIDER",
		"OPENAI_BASE_URL", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_EMBEDDING_MODEL",
		"OLLAMA_BASE_URL", "OLLAMA_MODEL", "OLLAMA_EMBEDDING_MODEL",
		"AQUEDUCT_API_KEY", "QDRANT_HOST", "QDRANT_PORT", "EMBEDDING_DIMENSION",
		"DRAFT_TRACKER_DB_PATH", "KNOWLEDGE_BASE_DIR", "EMAIL_CHAINS_DIR",
		"SERVER_HOST", "SERVER_PORT",
	} {
		t.Setenv(key, "")
	}
}

func setValidOllamaEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FREESCOUT_BASE_URL", "https://support.winf.at")
	t.Setenv("FREESCOUT_API_KEY", "secret")
	t.Setenv("AI_USER_ID", "99")
	t.Setenv("OLLAMA_BASE_URL", "http://localhost:11434")
	t.Setenv("OLLAMA_MODEL", "qwen3:8b")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, ProviderOllama, cfg.EmbeddingsProvider)
	assert.Equal(t, ProviderOllama, cfg.ChatProvider)
	assert.Equal(t, "localhost", cfg.QdrantHost)
	assert.Equal(t, 6334, cfg.QdrantPort)
	assert.Equal(t, 1536, cfg.EmbeddingDimension)
	assert.Equal(t, "draft_tracker.sqlite", cfg.DraftDBPath)
	assert.Equal(t, 5001, cfg.ServerPort)
}

func TestValidateNamesAllMissingVars(t *testing.T) {
	clearEnv(t)

	err := Load().Validate()
	require.Error(t, err)

	for _, name := range []string{
		"FREESCOUT_BASE_URL", "FREESCOUT_API_KEY", "AI_USER_ID",
		"OLLAMA_BASE_URL", "OLLAMA_MODEL",
	} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestValidateOllamaComplete(t *testing.T) {
	clearEnv(t)
	setValidOllamaEnv(t)

	require.NoError(t, Load().Validate())
}

func TestValidateOpenAIRequiresKey(t *testing.T) {
	clearEnv(t)
	setValidOllamaEnv(t)
	t.Setenv("CHAT_PROVIDER", "openai")
	t.Setenv("OPENAI_BASE_URL", "https://api.openai.com/v1")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestAqueductKeyFallback(t *testing.T) {
	clearEnv(t)
	setValidOllamaEnv(t)
	t.Setenv("CHAT_PROVIDER", "openai")
	t.Setenv("OPENAI_BASE_URL", "https://aqueduct.example.org/v1")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("AQUEDUCT_API_KEY", "legacy-key")

	cfg := Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "legacy-key", cfg.Chat.APIKey)
}

func TestLegacyLLMProviderFallback(t *testing.T) {
	clearEnv(t)
	setValidOllamaEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_BASE_URL", "https://api.openai.com/v1")
	t.Setenv("OPENAI_API_KEY", "key")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg := Load()
	assert.Equal(t, ProviderOpenAI, cfg.EmbeddingsProvider)
	assert.Equal(t, ProviderOpenAI, cfg.ChatProvider)
}

func TestProvidersSelectedIndependently(t *testing.T) {
	clearEnv(t)
	setValidOllamaEnv(t)
	t.Setenv("EMBEDDINGS_PROVIDER", "openai")
	t.Setenv("OPENAI_BASE_URL", "https://api.openai.com/v1")
	t.Setenv("OPENAI_API_KEY", "key")
	t.Setenv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ProviderOpenAI, cfg.EmbeddingsProvider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	assert.Equal(t, ProviderOllama, cfg.ChatProvider)
	assert.Equal(t, "qwen3:8b", cfg.Chat.Model)
}
