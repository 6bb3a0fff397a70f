package vectorstore

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

const chromemCompress = false

// ChromemStore is an embedded vector store backed by chromem-go. Records are
// kept by id, so adding a document with an existing id overwrites it.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

// NewChromemStore opens (or creates) the database. An empty path selects the
// in-memory variant, which the tests use.
func NewChromemStore(cfg *config.VectorConfig) (*ChromemStore, error) {
	var db *chromem.DB
	var err error
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, chromemCompress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}
	return &ChromemStore{db: db, name: cfg.Collection}, nil
}

func (s *ChromemStore) EnsureReady(ctx context.Context) error {
	c, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	s.collection = c
	return nil
}

func (s *ChromemStore) Upsert(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(records))
	for i, rec := range records {
		docs[i] = chromem.Document{
			ID:        rec.ID,
			Content:   rec.Content,
			Metadata:  rec.Metadata,
			Embedding: rec.Embedding,
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

func (s *ChromemStore) Search(ctx context.Context, vector []float32, topK int) ([]models.SearchResult, error) {
	// chromem rejects queries asking for more results than stored docs.
	if count := s.collection.Count(); topK > count {
		topK = count
	}
	if topK <= 0 {
		return nil, nil
	}

	hits, err := s.collection.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	results := make([]models.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, models.SearchResult{
			Record: models.Record{
				ID:       h.ID,
				Content:  h.Content,
				Metadata: h.Metadata,
			},
			Score: h.Similarity,
		})
	}
	return results, nil
}
