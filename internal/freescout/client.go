// Package freescout is a minimal client for the FreeScout helpdesk API.
package freescout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Thread types as FreeScout reports them. "customer" threads come from the
// customer, "message" threads are agent replies, "note" threads are internal
// notes (including the AI's drafts), "lineitem" threads are audit events.
const (
	ThreadCustomer = "customer"
	ThreadMessage  = "message"
	ThreadNote     = "note"
	ThreadLineItem = "lineitem"
)

// Creator identifies who authored a thread.
type Creator struct {
	ID int `json:"id"`
}

// Thread is one entry in a conversation. CreatedAt stays a string; the API
// emits zero-padded UTC ISO-8601 timestamps.
type Thread struct {
	Type      string  `json:"type"`
	Body      string  `json:"body"`
	CreatedAt string  `json:"createdAt"`
	CreatedBy Creator `json:"createdBy"`
}

// Conversation is the API payload for a single conversation.
// Threads are ordered newest first.
type Conversation struct {
	Subject  string `json:"subject"`
	Embedded struct {
		Threads []Thread `json:"threads"`
	} `json:"_embedded"`
}

// Client calls the FreeScout REST API.
type Client struct {
	baseURL  string
	apiKey   string
	aiUserID int
	http     *http.Client
}

// NewClient creates a FreeScout API client. aiUserID is the helpdesk user
// the AI posts notes as.
func NewClient(baseURL, apiKey string, aiUserID int) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		aiUserID: aiUserID,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// AIUserID returns the configured AI author id.
func (c *Client) AIUserID() int {
	return c.aiUserID
}

// GetConversation fetches a conversation with its embedded threads.
func (c *Client) GetConversation(ctx context.Context, id int) (*Conversation, error) {
	url := fmt.Sprintf("%s/api/conversations/%d", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-FreeScout-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch conversation %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch conversation %d: status %d: %s", id, resp.StatusCode, body)
	}

	var conv Conversation
	if err := json.NewDecoder(resp.Body).Decode(&conv); err != nil {
		return nil, fmt.Errorf("decode conversation %d: %w", id, err)
	}
	return &conv, nil
}

// CreateNote posts an internal note authored by the AI user. The note body
// is HTML. FreeScout treats notes as drafts for the human agent to review.
func (c *Client) CreateNote(ctx context.Context, conversationID int, html string) error {
	url := fmt.Sprintf("%s/api/conversations/%d/threads", c.baseURL, conversationID)

	payload := map[string]any{
		"type":     ThreadNote,
		"text":     html,
		"user":     c.aiUserID,
		"imported": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode note payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-FreeScout-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("create note in conversation %d: %w", conversationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("create note in conversation %d: status %d: %s",
			conversationID, resp.StatusCode, respBody)
	}
	return nil
}
