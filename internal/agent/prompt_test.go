package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPromptIncludesDate(t *testing.T) {
	now := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)

	prompt := buildSystemPrompt(now)
	assert.Contains(t, prompt, "Aktuelles Datum: 5. March 2026")
	assert.Contains(t, prompt, "FSWinf")
	assert.Contains(t, prompt, "search_knowledge_base")
	assert.Contains(t, prompt, "search_past_cases")
	assert.Contains(t, prompt, "fetch_and_summarize_url")
}

func TestBuildQuestion(t *testing.T) {
	q := buildQuestion("Anrechnung", "Wie geht das?")
	assert.Equal(t, "Betreff: Anrechnung\n\nAnfrage:\nWie geht das?", q)
}

func TestBuildQuestionEmptySubject(t *testing.T) {
	q := buildQuestion("", "Hallo")
	assert.Contains(t, q, "Betreff: No Subject")
}

type echoTool struct{ name string }

func (e echoTool) Name() string               { return e.name }
func (e echoTool) Description() string        { return "echo" }
func (e echoTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (e echoTool) Invoke(ctx context.Context, args json.RawMessage) string {
	return "echo:" + string(args)
}

func TestInvokeToolDispatchesByName(t *testing.T) {
	a := New(nil, []Tool{echoTool{name: "first"}, echoTool{name: "second"}}, nil)

	out := a.invokeTool(context.Background(), "second", `{"x":1}`)
	assert.Equal(t, `echo:{"x":1}`, out)
}

func TestInvokeToolUnknownName(t *testing.T) {
	a := New(nil, []Tool{echoTool{name: "first"}}, nil)

	out := a.invokeTool(context.Background(), "nope", "{}")
	assert.Contains(t, out, `unknown tool "nope"`)
}
