package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"

	"github.com/fswinf/deskdraft/internal/llm"
)

// maxIterations bounds the tool-calling loop. A draft rarely needs more
// than a handful of searches; past that the model is looping.
const maxIterations = 8

// Agent drives the chat model through tool calls until it produces a
// final reply suggestion.
type Agent struct {
	chat   *llm.Client
	tools  []Tool
	logger *slog.Logger
}

// New creates an agent over the given chat client and tools.
func New(chat *llm.Client, tools []Tool, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{chat: chat, tools: tools, logger: logger}
}

// GenerateSuggestion runs the tool-calling loop for one conversation and
// returns the drafted reply in markdown.
func (a *Agent) GenerateSuggestion(ctx context.Context, subject, conversationText string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.chat.Model()),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(buildSystemPrompt(time.Now())),
			openai.UserMessage(buildQuestion(subject, conversationText)),
		},
		Tools: a.toolParams(),
	}

	api := a.chat.API()
	for i := 0; i < maxIterations; i++ {
		resp, err := api.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("chat completion returned no choices")
		}

		message := resp.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			return llm.StripThinkTags(message.Content), nil
		}

		params.Messages = append(params.Messages, message.ToParam())
		for _, call := range message.ToolCalls {
			observation := a.invokeTool(ctx, call.Function.Name, call.Function.Arguments)
			params.Messages = append(params.Messages, openai.ToolMessage(observation, call.ID))
		}
	}

	return "", fmt.Errorf("no final answer after %d tool-calling iterations", maxIterations)
}

// invokeTool dispatches a tool call by name. Unknown tools and tool
// failures both come back as textual observations for the model.
func (a *Agent) invokeTool(ctx context.Context, name, arguments string) string {
	for _, tool := range a.tools {
		if tool.Name() != name {
			continue
		}
		a.logger.Info("tool call", "tool", name)
		return tool.Invoke(ctx, json.RawMessage(arguments))
	}
	return fmt.Sprintf("Error: unknown tool %q", name)
}

func (a *Agent) toolParams() []openai.ChatCompletionToolParam {
	params := make([]openai.ChatCompletionToolParam, len(a.tools))
	for i, tool := range a.tools {
		params[i] = openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name(),
				Description: openai.String(tool.Description()),
				Parameters:  openai.FunctionParameters(tool.Parameters()),
			},
		}
	}
	return params
}
