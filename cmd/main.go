package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"policy-rag/internal/chunker"
	"policy-rag/internal/config"
	"policy-rag/internal/embedding"
	"policy-rag/internal/ingest"
	"policy-rag/internal/parser"
	"policy-rag/internal/rag"
	"policy-rag/internal/server"
	"policy-rag/internal/vectorstore"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	runIngest := flag.Bool("ingest", false, "Ingest the documents directory into the vector store")
	query := flag.String("query", "", "Ask a one-off question against the ingested documents")
	serve := flag.Bool("serve", false, "Run the chat HTTP server")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	store, err := vectorstore.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector store")
	}

	embedder, err := embedding.NewOpenAIEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	switch {
	case *runIngest:
		runIngestion(context.Background(), cfg, store, embedder)
	case *query != "":
		runQuery(context.Background(), cfg, store, embedder, *query)
	case *serve:
		runServer(cfg, store, embedder)
	default:
		flag.Usage()
	}
}

func runIngestion(ctx context.Context, cfg *config.Config, store vectorstore.Store, embedder embedding.Embedder) {
	splitter := chunker.NewRecursiveSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	ingestor := ingest.New(cfg.DocsDir, parser.DefaultExtensions, &cfg.RAG, parser.ExtractText, splitter, embedder, store)

	report, err := ingestor.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Int("chunks", report.Chunks).Msg("Ingestion failed")
	}
	log.Info().
		Int("files", report.Files).
		Int("skipped", report.Skipped).
		Int("chunks", report.Chunks).
		Msg("Ingestion complete")
}

func runQuery(ctx context.Context, cfg *config.Config, store vectorstore.Store, embedder embedding.Embedder, query string) {
	if err := store.EnsureReady(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error connecting to vector store")
	}

	r := rag.NewRAG(store, embedder, &cfg.ChatLLM, cfg.RAG.TopK)
	response, err := r.Query(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	fmt.Printf("Query: %s\n\n", response.Query)
	fmt.Printf("Sources: %s\n\n", response.Source)
	fmt.Printf("%s\n", response.Content)
}

func runServer(cfg *config.Config, store vectorstore.Store, embedder embedding.Embedder) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.EnsureReady(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error connecting to vector store")
	}

	r := rag.NewRAG(store, embedder, &cfg.ChatLLM, cfg.RAG.TopK)
	srv := server.NewServer(&cfg.Server, r)

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error shutting down server")
		}
		cancel()
	}()

	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}
