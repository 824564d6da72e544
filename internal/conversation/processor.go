// Package conversation orchestrates one draft-generation run: fetch the
// conversation, decide whether a draft is warranted, extract the customer
// text, generate a suggestion and write it back as a note.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fswinf/deskdraft/internal/freescout"
	"github.com/fswinf/deskdraft/internal/textproc"
)

// Outcome classifies how a processing run ended. Only true failures are
// errors; skips and empty conversations are successful no-ops.
type Outcome int

const (
	// OutcomeDrafted means a suggestion was generated and written back.
	OutcomeDrafted Outcome = iota
	// OutcomeStreamOnly means a suggestion was generated but write-back
	// was intentionally skipped.
	OutcomeStreamOnly
	// OutcomeSkipped means the skip rules decided no draft is needed.
	OutcomeSkipped
	// OutcomeNothingToDo means the conversation had no processable content.
	OutcomeNothingToDo
)

// Result reports what a processing run did.
type Result struct {
	Outcome    Outcome
	Suggestion string
}

// Helpdesk is the external conversation store.
type Helpdesk interface {
	GetConversation(ctx context.Context, id int) (*freescout.Conversation, error)
	CreateNote(ctx context.Context, conversationID int, html string) error
}

// Generator produces a reply suggestion for a conversation.
type Generator interface {
	GenerateSuggestion(ctx context.Context, subject, conversationText string) (string, error)
}

// Tracker decides draft freshness and records created drafts.
type Tracker interface {
	ShouldCreateDraft(conversationID int, threads []freescout.Thread, aiUserID int) (bool, error)
	RecordDraftCreated(conversationID int, createdAt string) error
}

// Processor runs the draft-generation pipeline.
type Processor struct {
	helpdesk Helpdesk
	agent    Generator
	tracker  Tracker
	aiUserID int
	logger   *slog.Logger
}

// NewProcessor wires the pipeline. aiUserID identifies the helpdesk user
// whose notes are the AI's own output.
func NewProcessor(helpdesk Helpdesk, agent Generator, tracker Tracker, aiUserID int, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		helpdesk: helpdesk,
		agent:    agent,
		tracker:  tracker,
		aiUserID: aiUserID,
		logger:   logger,
	}
}

// Process handles one conversation. The stages run strictly in order and
// the first failure aborts the run. force bypasses the skip rules;
// streamOnly generates without writing back or recording a draft.
func (p *Processor) Process(ctx context.Context, conversationID int, force, streamOnly bool) (*Result, error) {
	conv, err := p.helpdesk.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("fetch conversation %d: %w", conversationID, err)
	}

	// The API returns threads newest first; keep that view for the
	// freshness check and an oldest-first view for text assembly.
	newestFirst := filterThreads(conv.Embedded.Threads)
	if len(newestFirst) == 0 {
		p.logger.Info("conversation has no threads", "conversation", conversationID)
		return &Result{Outcome: OutcomeNothingToDo}, nil
	}
	oldestFirst := reversed(newestFirst)

	if !force {
		if skip, reason := p.shouldSkip(newestFirst); skip {
			p.logger.Info("skipping conversation", "conversation", conversationID, "reason", reason)
			return &Result{Outcome: OutcomeSkipped}, nil
		}
		ok, err := p.tracker.ShouldCreateDraft(conversationID, newestFirst, p.aiUserID)
		if err != nil {
			return nil, fmt.Errorf("draft freshness check for conversation %d: %w", conversationID, err)
		}
		if !ok {
			p.logger.Info("skipping conversation", "conversation", conversationID,
				"reason", "no new activity since last draft")
			return &Result{Outcome: OutcomeSkipped}, nil
		}
	}

	// When forcing past a trailing agent reply, the operator wants that
	// reply re-answered, not summarized as part of the context. The
	// asymmetry with the non-forced skip check is deliberate.
	if force && oldestFirst[len(oldestFirst)-1].Type == freescout.ThreadMessage {
		oldestFirst = oldestFirst[:len(oldestFirst)-1]
	}

	text := p.extractText(oldestFirst)
	if strings.TrimSpace(text) == "" {
		p.logger.Info("no customer messages to process", "conversation", conversationID)
		return &Result{Outcome: OutcomeNothingToDo}, nil
	}

	suggestion, err := p.agent.GenerateSuggestion(ctx, conv.Subject, text)
	if err != nil {
		return nil, fmt.Errorf("generate suggestion for conversation %d: %w", conversationID, err)
	}
	if strings.TrimSpace(suggestion) == "" {
		return nil, fmt.Errorf("generated empty suggestion for conversation %d", conversationID)
	}

	if streamOnly {
		p.logger.Info("stream-only mode, skipping note creation", "conversation", conversationID)
		return &Result{Outcome: OutcomeStreamOnly, Suggestion: suggestion}, nil
	}

	if err := p.writeBack(ctx, conversationID, suggestion); err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeDrafted, Suggestion: suggestion}, nil
}

// shouldSkip applies the non-forced skip rules against the newest thread.
func (p *Processor) shouldSkip(newestFirst []freescout.Thread) (bool, string) {
	newest := newestFirst[0]
	if newest.Type == freescout.ThreadNote && newest.CreatedBy.ID == p.aiUserID {
		return true, "newest thread is already an AI note"
	}
	if newest.Type == freescout.ThreadMessage {
		return true, "newest thread is an agent reply"
	}
	return false, ""
}

// extractText concatenates customer and agent message bodies, converted to
// markdown, oldest first.
func (p *Processor) extractText(oldestFirst []freescout.Thread) string {
	var b strings.Builder
	for _, thread := range oldestFirst {
		if thread.Type != freescout.ThreadCustomer && thread.Type != freescout.ThreadMessage {
			continue
		}
		body, err := textproc.HTMLToMarkdown(thread.Body)
		if err != nil {
			p.logger.Warn("could not convert thread body", "error", err)
			continue
		}
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	return b.String()
}

// writeBack converts the suggestion to sanitized HTML, posts it as a note
// and records the draft timestamp.
func (p *Processor) writeBack(ctx context.Context, conversationID int, suggestion string) error {
	html, err := textproc.MarkdownToHTML(suggestion)
	if err != nil {
		return fmt.Errorf("render suggestion for conversation %d: %w", conversationID, err)
	}
	note := fmt.Sprintf("<div>🤖 <b>KI-Vorschlag</b><br> %s</div>", textproc.SanitizeHTML(html))

	if err := p.helpdesk.CreateNote(ctx, conversationID, note); err != nil {
		return fmt.Errorf("create note for conversation %d: %w", conversationID, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := p.tracker.RecordDraftCreated(conversationID, now); err != nil {
		return fmt.Errorf("record draft for conversation %d: %w", conversationID, err)
	}

	p.logger.Info("draft created", "conversation", conversationID)
	return nil
}

// filterThreads keeps customer, message and note threads, dropping
// lineitem audit entries.
func filterThreads(threads []freescout.Thread) []freescout.Thread {
	out := make([]freescout.Thread, 0, len(threads))
	for _, t := range threads {
		switch t.Type {
		case freescout.ThreadCustomer, freescout.ThreadMessage, freescout.ThreadNote:
			out = append(out, t)
		}
	}
	return out
}

func reversed(threads []freescout.Thread) []freescout.Thread {
	out := make([]freescout.Thread, len(threads))
	for i, t := range threads {
		out[len(threads)-1-i] = t
	}
	return out
}
