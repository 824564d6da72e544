// Package llm talks to the configured embeddings and chat endpoints.
// Both the hosted provider and the local Ollama-style provider expose an
// OpenAI-compatible API, so a single SDK client serves either; the provider
// key only decides URL normalization and which settings are required.
package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/fswinf/deskdraft/internal/config"
)

// embedBatchSize bounds texts per embedding request. Callers usually pass
// far fewer; this is a safety cap against tokens-per-minute pressure.
const embedBatchSize = 500

// Client wraps one OpenAI-compatible endpoint for embeddings or chat.
type Client struct {
	api   openai.Client
	model string
}

// New creates a client for the given provider. Ollama serves its
// OpenAI-compatible API under /v1, which is appended when missing.
func New(provider string, pc config.ProviderConfig) *Client {
	baseURL := strings.TrimRight(pc.BaseURL, "/")
	if provider == config.ProviderOllama && !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}

	opts := []option.RequestOption{option.WithBaseURL(baseURL)}
	if pc.APIKey != "" {
		opts = append(opts, option.WithAPIKey(pc.APIKey))
	}

	return &Client{
		api:   openai.NewClient(opts...),
		model: pc.Model,
	}
}

// API exposes the underlying SDK client for the agent's tool-calling loop.
func (c *Client) API() *openai.Client {
	return &c.api
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Embed generates embeddings for the given texts, batched, retrying with
// exponential backoff on rate limit errors.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var all [][]float32
	for i := 0; i < len(texts); i += embedBatchSize {
		end := min(i+embedBatchSize, len(texts))
		vectors, err := c.embedBatchWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", i, end, err)
		}
		all = append(all, vectors...)
	}
	return all, nil
}

func (c *Client) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(c.model),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		vectors = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			vectors[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return vectors, err
}

// Chat runs a single prompt completion and returns the response text with
// any thinking spans removed.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(c.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return StripThinkTags(resp.Choices[0].Message.Content), nil
}

var thinkTagRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinkTags removes <think>...</think> spans some local models emit
// before their answer.
func StripThinkTags(s string) string {
	return strings.TrimSpace(thinkTagRe.ReplaceAllString(s, ""))
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
