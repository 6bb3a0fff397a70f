package rag

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

type fakeStore struct {
	hits []models.SearchResult
}

func (fakeStore) EnsureReady(ctx context.Context) error { return nil }

func (fakeStore) Upsert(ctx context.Context, records []models.Record) error { return nil }

func (s fakeStore) Search(ctx context.Context, vector []float32, topK int) ([]models.SearchResult, error) {
	return s.hits, nil
}

func hit(id, content, source string) models.SearchResult {
	return models.SearchResult{Record: models.Record{
		ID:       id,
		Content:  content,
		Metadata: map[string]string{models.MetaSourceKey: source},
	}}
}

func newTestRAG(hits []models.SearchResult) *RAG {
	return NewRAG(fakeStore{hits: hits}, fakeEmbedder{}, &config.LLMConfig{Model: "test"}, 5)
}

func TestQueryBuildsContextFromHits(t *testing.T) {
	r := newTestRAG([]models.SearchResult{
		hit("policy.pdf-0", "leave accrues monthly", "policy.pdf"),
		hit("policy.pdf-3", "unused leave carries over", "policy.pdf"),
		hit("travel.pdf-1", "flights need pre-approval", "travel.pdf"),
	})

	var captured []llms.MessageContent
	r.generate = func(ctx context.Context, cfg *config.LLMConfig, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
		captured = messages
		return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "an answer"}}}, nil
	}

	resp, err := r.Query(context.Background(), "how much leave do I get?")
	require.NoError(t, err)
	assert.Equal(t, "an answer", resp.Content)
	assert.Equal(t, "policy.pdf, travel.pdf", resp.Source, "sources must be deduplicated in hit order")

	require.Len(t, captured, 2)
	user := captured[1].Parts[0].(llms.TextContent).Text
	assert.Contains(t, user, "leave accrues monthly")
	assert.Contains(t, user, "flights need pre-approval")
	assert.Contains(t, user, "how much leave do I get?")
}

func TestStreamWritesDeltas(t *testing.T) {
	r := newTestRAG(nil)
	r.generate = func(ctx context.Context, cfg *config.LLMConfig, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
		co := llms.CallOptions{}
		for _, opt := range opts {
			opt(&co)
		}
		require.NotNil(t, co.StreamingFunc)
		require.NoError(t, co.StreamingFunc(ctx, []byte("first ")))
		require.NoError(t, co.StreamingFunc(ctx, []byte("second")))
		return &llms.ContentResponse{}, nil
	}

	var buf bytes.Buffer
	require.NoError(t, r.Stream(context.Background(), "anything", &buf))
	assert.Equal(t, "first second", buf.String())
}
