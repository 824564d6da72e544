// Package main provides the deskdraft CLI: AI reply drafting for the
// FSWinf FreeScout helpdesk.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fswinf/deskdraft/internal/agent"
	"github.com/fswinf/deskdraft/internal/config"
	"github.com/fswinf/deskdraft/internal/conversation"
	"github.com/fswinf/deskdraft/internal/draft"
	"github.com/fswinf/deskdraft/internal/freescout"
	"github.com/fswinf/deskdraft/internal/ingest"
	"github.com/fswinf/deskdraft/internal/llm"
	"github.com/fswinf/deskdraft/internal/server"
	"github.com/fswinf/deskdraft/internal/store"
)

var (
	processForce      bool
	processStreamOnly bool
	generateForce     bool
	serverHost        string
	serverPort        int
	serverDebug       bool
)

var rootCmd = &cobra.Command{
	Use:   "deskdraft",
	Short: "AI reply drafting for the FSWinf helpdesk",
	Long: `deskdraft generates reply suggestions for FreeScout conversations,
grounded in a Qdrant knowledge base of TU Wien / HTU / FSWinf content
and a repository of past support cases.`,
	SilenceUsage: true,
}

var processCmd = &cobra.Command{
	Use:   "process <conversation-id>",
	Short: "Generate a draft reply for one conversation",
	Long: `Fetches the conversation from FreeScout, decides whether a draft is
warranted, generates a suggestion with the LLM agent and posts it back
as an internal note.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

var generateDBCmd = &cobra.Command{
	Use:   "generate-db",
	Short: "Build the vector database from the local corpora",
	Long: `Loads the knowledge base and email chain directories, chunks and
embeds their documents and inserts them into Qdrant. Sources already
present are skipped; --force drops and rebuilds both collections.

Environment variables:
  QDRANT_HOST         Qdrant hostname (default: localhost)
  QDRANT_PORT         Qdrant gRPC port (default: 6334)
  KNOWLEDGE_BASE_DIR  Knowledge base directory (default: ./knowledge_base)
  EMAIL_CHAINS_DIR    Email chains directory (default: ./email_chains)`,
	RunE: runGenerateDB,
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the webhook server",
	Long: `Serves the FreeScout webhook endpoint and processes incoming
conversations one at a time in the background.`,
	RunE: runServer,
}

func init() {
	processCmd.Flags().BoolVar(&processForce, "force", false,
		"bypass the skip rules and generate a draft regardless")
	processCmd.Flags().BoolVar(&processStreamOnly, "stream-only", false,
		"print the suggestion without posting a note or recording the draft")

	generateDBCmd.Flags().BoolVar(&generateForce, "force", false,
		"drop and rebuild both collections from scratch")

	serverCmd.Flags().StringVar(&serverHost, "host", "", "bind address (default from SERVER_HOST)")
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "listen port (default from SERVER_PORT)")
	serverCmd.Flags().BoolVar(&serverDebug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(processCmd, generateDBCmd, serverCmd)
}

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildProcessor wires the full draft pipeline. Qdrant being down or a
// collection missing is not fatal: the search tools degrade to dev-mode
// placeholders so drafting still works, just ungrounded.
func buildProcessor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*conversation.Processor, func(), error) {
	embeddings := llm.New(cfg.EmbeddingsProvider, cfg.Embeddings)
	chat := llm.New(cfg.ChatProvider, cfg.Chat)

	var searcher agent.VectorSearcher
	cleanup := func() {}

	qdrant, err := store.NewStore(cfg.QdrantHost, cfg.QdrantPort, cfg.EmbeddingDimension, logger)
	if err != nil {
		logger.Warn("vector database unavailable, search tools run in dev mode", "error", err)
	} else {
		hasKnowledge, err := qdrant.HasCollection(ctx, store.KnowledgeCollection)
		if err != nil || !hasKnowledge {
			logger.Warn("knowledge collection missing, search tools run in dev mode",
				"collection", store.KnowledgeCollection)
			qdrant.Close()
		} else {
			searcher = qdrant
			cleanup = func() { qdrant.Close() }
		}
	}

	tools := []agent.Tool{
		agent.NewKnowledgeSearchTool(searcher, embeddings, logger),
		agent.NewPastCaseSearchTool(searcher, embeddings, logger),
		agent.NewURLSummarizeTool(chat, logger),
	}
	replyAgent := agent.New(chat, tools, logger)

	tracker, err := draft.NewTracker(cfg.DraftDBPath)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closeAll := func() {
		tracker.Close()
		cleanup()
	}

	helpdesk := freescout.NewClient(cfg.FreeScoutBaseURL, cfg.FreeScoutAPIKey, cfg.AIUserID)
	processor := conversation.NewProcessor(helpdesk, replyAgent, tracker, cfg.AIUserID, logger)
	return processor, closeAll, nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	logger := newLogger(false)

	var conversationID int
	if _, err := fmt.Sscanf(args[0], "%d", &conversationID); err != nil || conversationID <= 0 {
		return fmt.Errorf("invalid conversation id %q", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	processor, cleanup, err := buildProcessor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := processor.Process(ctx, conversationID, processForce, processStreamOnly)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case conversation.OutcomeDrafted:
		fmt.Printf("Draft created for conversation %d\n", conversationID)
	case conversation.OutcomeStreamOnly:
		fmt.Println(result.Suggestion)
	case conversation.OutcomeSkipped:
		fmt.Printf("Conversation %d skipped\n", conversationID)
	case conversation.OutcomeNothingToDo:
		fmt.Printf("Conversation %d has nothing to process\n", conversationID)
	}
	return nil
}

func runGenerateDB(cmd *cobra.Command, args []string) error {
	logger := newLogger(false)
	start := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.QdrantHost, cfg.QdrantPort)
	qdrant, err := store.NewStore(cfg.QdrantHost, cfg.QdrantPort, cfg.EmbeddingDimension, logger)
	if err != nil {
		return fmt.Errorf("connect to Qdrant: %w", err)
	}
	defer qdrant.Close()
	fmt.Println("Qdrant healthy")

	embeddings := llm.New(cfg.EmbeddingsProvider, cfg.Embeddings)
	loader := ingest.NewLoader(logger)
	generator := ingest.NewGenerator(qdrant, embeddings, logger)

	corpora := []struct {
		name       string
		collection string
		kind       ingest.Kind
		load       func() ([]ingest.Document, error)
	}{
		{"knowledge base", store.KnowledgeCollection, ingest.Knowledge,
			func() ([]ingest.Document, error) { return loader.LoadKnowledge(cfg.KnowledgeDir) }},
		{"email chains", store.PastCasesCollection, ingest.EmailChain,
			func() ([]ingest.Document, error) { return loader.LoadEmailChains(cfg.EmailChainsDir) }},
	}

	for _, corpus := range corpora {
		fmt.Println()
		fmt.Printf("Ingesting %s into %q...\n", corpus.name, corpus.collection)

		docs, err := corpus.load()
		if err != nil {
			return fmt.Errorf("load %s: %w", corpus.name, err)
		}

		chunks := ingest.NewProcessor(corpus.kind).Process(docs)
		result, err := generator.Generate(ctx, corpus.collection, chunks, generateForce)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", corpus.name, err)
		}

		fmt.Printf("  Documents: %d\n", len(docs))
		fmt.Printf("  Chunks: %d (inserted %d, skipped %d)\n",
			result.TotalChunks, result.Inserted, result.Skipped)
	}

	fmt.Println()
	fmt.Printf("Done in %s\n", time.Since(start).Round(time.Second))
	return nil
}

func runServer(cmd *cobra.Command, args []string) error {
	logger := newLogger(serverDebug)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	host := cfg.ServerHost
	if serverHost != "" {
		host = serverHost
	}
	port := cfg.ServerPort
	if serverPort != 0 {
		port = serverPort
	}

	ctx := context.Background()
	processor, cleanup, err := buildProcessor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(processor, logger)
	return srv.Run(ctx, fmt.Sprintf("%s:%d", host, port))
}
