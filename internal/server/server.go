// Package server exposes the webhook endpoint that FreeScout calls when a
// conversation changes. Requests are acknowledged immediately and handed to
// a single background worker, so webhook deliveries never block on LLM
// latency and conversations are processed strictly one at a time.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fswinf/deskdraft/internal/conversation"
)

// queueCapacity bounds the webhook backlog. FreeScout retries failed
// deliveries, so shedding load under a burst is safe.
const queueCapacity = 100

// webhookPayload is the subset of the FreeScout webhook body we care about.
type webhookPayload struct {
	ID int `json:"id"`
}

// Server is the webhook HTTP server with its processing worker.
type Server struct {
	processor *conversation.Processor
	queue     chan int
	logger    *slog.Logger
	router    *mux.Router
}

// New creates the server and registers its routes.
func New(processor *conversation.Processor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		processor: processor,
		queue:     make(chan int, queueCapacity),
		logger:    logger,
		router:    mux.NewRouter(),
	}
	s.router.HandleFunc("/webhook", s.handleWebhook).Methods(http.MethodPost)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run starts the worker and serves HTTP until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.worker(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("webhook server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// worker drains the queue one conversation at a time. Processing failures
// are logged and dropped; the next webhook for the conversation will retry.
func (s *Server) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-s.queue:
			s.logger.Info("processing queued conversation", "conversation", id)
			if _, err := s.processor.Process(ctx, id, false, false); err != nil {
				s.logger.Error("conversation processing failed", "conversation", id, "error", err)
			}
		}
	}
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}
	if payload.ID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing conversation id"})
		return
	}

	select {
	case s.queue <- payload.ID:
		s.logger.Info("conversation queued", "conversation", payload.ID, "queue_size", len(s.queue))
		writeJSON(w, http.StatusOK, map[string]any{
			"status":          "queued",
			"conversation_id": payload.ID,
		})
	default:
		s.logger.Warn("webhook queue full, dropping", "conversation", payload.ID)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "queue full"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"queue_size": len(s.queue),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
