package vectorstore

import (
	"context"
	"fmt"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

// Store persists chunk records and answers similarity searches. Upsert must
// overwrite by record id so re-ingesting a file replaces its prior records.
type Store interface {
	// EnsureReady verifies connectivity and bootstraps the collection.
	// Ingestion aborts if this fails.
	EnsureReady(ctx context.Context) error
	Upsert(ctx context.Context, records []models.Record) error
	Search(ctx context.Context, vector []float32, topK int) ([]models.SearchResult, error)
}

// New builds the store selected by cfg.Vector.Backend.
func New(cfg *config.Config) (Store, error) {
	switch cfg.Vector.Backend {
	case "qdrant":
		return NewQdrantStore(&cfg.Vector), nil
	case "chromem":
		return NewChromemStore(&cfg.Vector)
	case "postgres":
		return NewPostgresStore(cfg)
	default:
		return nil, fmt.Errorf("unknown vector store backend: %s", cfg.Vector.Backend)
	}
}
