package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer builds a server without starting the worker, so queued
// conversations stay queued and the handlers can be observed directly.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(nil, nil)
}

func postWebhook(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestWebhookQueuesConversation(t *testing.T) {
	s := newTestServer(t)

	rec := postWebhook(t, s, `{"id": 123}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp["status"])
	assert.Equal(t, float64(123), resp["conversation_id"])

	require.Len(t, s.queue, 1)
	assert.Equal(t, 123, <-s.queue)
}

func TestWebhookRejectsInvalidJSON(t *testing.T) {
	s := newTestServer(t)

	rec := postWebhook(t, s, "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON")
	assert.Empty(t, s.queue)
}

func TestWebhookRejectsMissingID(t *testing.T) {
	s := newTestServer(t)

	rec := postWebhook(t, s, `{"event": "convo.updated"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing conversation id")
	assert.Empty(t, s.queue)
}

func TestWebhookRequiresPost(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhookShedsLoadWhenQueueFull(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < queueCapacity; i++ {
		s.queue <- i
	}

	rec := postWebhook(t, s, `{"id": 7}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthReportsQueueSize(t *testing.T) {
	s := newTestServer(t)
	s.queue <- 1
	s.queue <- 2

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, float64(2), resp["queue_size"])
}
