// Package draft tracks when an AI draft was last created per conversation
// and decides whether new activity warrants another one.
package draft

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/fswinf/deskdraft/internal/freescout"
)

// Tracker persists one row per conversation: the timestamp of the last AI
// draft and when the row was last touched. Rows are overwritten, never
// appended, and never deleted.
type Tracker struct {
	db *sql.DB
}

// NewTracker opens (and if needed creates) the tracker database at path.
func NewTracker(path string) (*Tracker, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open draft tracker db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS conversation_drafts (
			conversation_id INTEGER PRIMARY KEY,
			last_draft_created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init draft tracker schema: %w", err)
	}

	return &Tracker{db: db}, nil
}

// Close closes the underlying database.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// RecordDraftCreated upserts the last-draft timestamp for a conversation
// and bumps updated_at to now. Atomicity comes from the single statement;
// there is exactly one processing worker, so no further locking is needed.
func (t *Tracker) RecordDraftCreated(conversationID int, createdAt string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := t.db.Exec(`
		INSERT INTO conversation_drafts (conversation_id, last_draft_created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			last_draft_created_at = excluded.last_draft_created_at,
			updated_at = excluded.updated_at`,
		conversationID, createdAt, now)
	if err != nil {
		return fmt.Errorf("record draft for conversation %d: %w", conversationID, err)
	}
	return nil
}

// LastDraftTime returns the stored timestamp for a conversation, or ""
// when no draft has been recorded.
func (t *Tracker) LastDraftTime(conversationID int) (string, error) {
	var ts string
	err := t.db.QueryRow(`
		SELECT last_draft_created_at FROM conversation_drafts
		WHERE conversation_id = ?`, conversationID).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query last draft for conversation %d: %w", conversationID, err)
	}
	return ts, nil
}

// ShouldCreateDraft reports whether new non-AI activity has happened since
// the last draft. Threads must be newest first, as the helpdesk API returns
// them. A conversation with no recorded draft always gets one.
func (t *Tracker) ShouldCreateDraft(conversationID int, threads []freescout.Thread, aiUserID int) (bool, error) {
	lastDraft, err := t.LastDraftTime(conversationID)
	if err != nil {
		return false, err
	}
	if lastDraft == "" {
		return true, nil
	}

	for _, thread := range threads {
		// AI-authored notes don't count as activity.
		if thread.Type == freescout.ThreadNote && thread.CreatedBy.ID == aiUserID {
			continue
		}
		if thread.CreatedAt != "" && timestampAfter(thread.CreatedAt, lastDraft) {
			return true, nil
		}
	}
	return false, nil
}

// timestampAfter reports whether a is strictly later than b. Both sides are
// parsed as RFC 3339 when possible; if either fails to parse, the comparison
// falls back to lexicographic order, which is correct for the zero-padded
// UTC strings the helpdesk emits.
func timestampAfter(a, b string) bool {
	ta, errA := time.Parse(time.RFC3339, a)
	tb, errB := time.Parse(time.RFC3339, b)
	if errA == nil && errB == nil {
		return ta.After(tb)
	}
	return a > b
}
