// Package config builds the process configuration from the environment.
// The Config struct is constructed once at startup and passed into each
// component constructor; nothing reads the environment after Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Provider selects which API style an LLM endpoint speaks.
// "ollama" endpoints are reached through their OpenAI-compatible /v1 surface,
// so both providers end up on the same client; the distinction matters only
// for which environment variables are required.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// ProviderConfig holds the connection settings for one LLM endpoint.
type ProviderConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// Config is the immutable process configuration.
type Config struct {
	// FreeScout helpdesk
	FreeScoutBaseURL string
	FreeScoutAPIKey  string
	AIUserID         int

	// Providers, selected independently for embeddings and chat
	EmbeddingsProvider string
	ChatProvider       string
	Embeddings         ProviderConfig
	Chat               ProviderConfig

	// Vector store
	QdrantHost         string
	QdrantPort         int
	EmbeddingDimension int

	// Local state and corpora
	DraftDBPath    string
	KnowledgeDir   string
	EmailChainsDir string

	// Webhook server defaults (overridable by CLI flags)
	ServerHost string
	ServerPort int
}

// Load reads the configuration from the environment.
// It does not validate; call Validate before using the result.
func Load() *Config {
	cfg := &Config{
		FreeScoutBaseURL:   os.Getenv("FREESCOUT_BASE_URL"),
		FreeScoutAPIKey:    os.Getenv("FREESCOUT_API_KEY"),
		EmbeddingsProvider: getEnv("EMBEDDINGS_PROVIDER", getEnv("LLM_PROVIDER", ProviderOllama)),
		ChatProvider:       getEnv("CHAT_PROVIDER", getEnv("LLM_PROVIDER", ProviderOllama)),
		QdrantHost:         getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:         getEnvInt("QDRANT_PORT", 6334),
		EmbeddingDimension: getEnvInt("EMBEDDING_DIMENSION", 1536),
		DraftDBPath:        getEnv("DRAFT_TRACKER_DB_PATH", "draft_tracker.sqlite"),
		KnowledgeDir:       getEnv("KNOWLEDGE_BASE_DIR", "./knowledge_base"),
		EmailChainsDir:     getEnv("EMAIL_CHAINS_DIR", "./email_chains"),
		ServerHost:         getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:         getEnvInt("SERVER_PORT", 5001),
	}

	cfg.AIUserID = getEnvInt("AI_USER_ID", 0)

	// AQUEDUCT_API_KEY is the historical name for the hosted key; keep
	// honoring it so existing deployments don't break.
	openaiKey := os.Getenv("AQUEDUCT_API_KEY")
	if openaiKey == "" {
		openaiKey = os.Getenv("OPENAI_API_KEY")
	}

	openaiModel := os.Getenv("OPENAI_MODEL")
	ollamaModel := os.Getenv("OLLAMA_MODEL")

	cfg.Embeddings = providerConfig(cfg.EmbeddingsProvider, ProviderConfig{
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   getEnv("OPENAI_EMBEDDING_MODEL", openaiModel),
		APIKey:  openaiKey,
	}, ProviderConfig{
		BaseURL: os.Getenv("OLLAMA_BASE_URL"),
		Model:   getEnv("OLLAMA_EMBEDDING_MODEL", ollamaModel),
	})

	cfg.Chat = providerConfig(cfg.ChatProvider, ProviderConfig{
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   openaiModel,
		APIKey:  openaiKey,
	}, ProviderConfig{
		BaseURL: os.Getenv("OLLAMA_BASE_URL"),
		Model:   ollamaModel,
	})

	return cfg
}

func providerConfig(provider string, openai, ollama ProviderConfig) ProviderConfig {
	if provider == ProviderOpenAI {
		return openai
	}
	return ollama
}

// Validate checks that every required setting is present.
// The returned error names each missing variable so the operator can fix
// the .env file in one pass.
func (c *Config) Validate() error {
	var missing []string

	if c.FreeScoutBaseURL == "" {
		missing = append(missing, "FREESCOUT_BASE_URL")
	}
	if c.FreeScoutAPIKey == "" {
		missing = append(missing, "FREESCOUT_API_KEY")
	}
	if c.AIUserID == 0 {
		missing = append(missing, "AI_USER_ID")
	}

	missing = append(missing, missingProviderVars(c.EmbeddingsProvider, c.Embeddings, "EMBEDDING_")...)
	missing = append(missing, missingProviderVars(c.ChatProvider, c.Chat, "")...)

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}

	if c.EmbeddingsProvider != ProviderOpenAI && c.EmbeddingsProvider != ProviderOllama {
		return errors.New("EMBEDDINGS_PROVIDER must be \"openai\" or \"ollama\"")
	}
	if c.ChatProvider != ProviderOpenAI && c.ChatProvider != ProviderOllama {
		return errors.New("CHAT_PROVIDER must be \"openai\" or \"ollama\"")
	}

	return nil
}

func missingProviderVars(provider string, pc ProviderConfig, modelPrefix string) []string {
	var missing []string
	switch provider {
	case ProviderOpenAI:
		if pc.BaseURL == "" {
			missing = append(missing, "OPENAI_BASE_URL")
		}
		if pc.APIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
		if pc.Model == "" {
			missing = append(missing, "OPENAI_"+modelPrefix+"MODEL")
		}
	default:
		if pc.BaseURL == "" {
			missing = append(missing, "OLLAMA_BASE_URL")
		}
		if pc.Model == "" {
			missing = append(missing, "OLLAMA_"+modelPrefix+"MODEL")
		}
	}
	return missing
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}
