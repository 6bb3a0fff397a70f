package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"policy-rag/internal/config"
	"policy-rag/internal/helper"
	"policy-rag/internal/models"
)

// QdrantStore is a minimal REST client to Qdrant. It assumes cosine distance
// and creates the collection on EnsureReady if missing.
type QdrantStore struct {
	url        string
	collection string
	dimension  int
	client     *http.Client
}

func NewQdrantStore(cfg *config.VectorConfig) *QdrantStore {
	return &QdrantStore{
		url:        cfg.URL,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *QdrantStore) EnsureReady(ctx context.Context) error {
	// Existing collection: nothing to do.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s", s.url, s.collection), nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("vector store unreachable at %s: %w", s.url, err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body)
}

func (s *QdrantStore) Upsert(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]any, len(records))
	for i, rec := range records {
		points[i] = map[string]any{
			// Qdrant only accepts UUID or integer point ids, so the
			// external id lives in the payload.
			"id":     helper.PointUUID(rec.ID),
			"vector": rec.Embedding,
			"payload": map[string]any{
				"record_id":          rec.ID,
				"text":               rec.Content,
				models.MetaSourceKey: rec.Metadata[models.MetaSourceKey],
				models.MetaChunkKey:  rec.Metadata[models.MetaChunkKey],
			},
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		rec := models.Record{Metadata: map[string]string{}}
		if v, ok := r.Payload["record_id"].(string); ok {
			rec.ID = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			rec.Content = v
		}
		if v, ok := r.Payload[models.MetaSourceKey].(string); ok {
			rec.Metadata[models.MetaSourceKey] = v
		}
		if v, ok := r.Payload[models.MetaChunkKey].(string); ok {
			rec.Metadata[models.MetaChunkKey] = v
		}
		results = append(results, models.SearchResult{Record: rec, Score: r.Score})
	}
	return results, nil
}

func (s *QdrantStore) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *QdrantStore) postJSON(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
