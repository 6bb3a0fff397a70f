package rag

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"policy-rag/internal/config"
	"policy-rag/internal/embedding"
	"policy-rag/internal/llmservice"
	"policy-rag/internal/models"
	"policy-rag/internal/vectorstore"
)

type RAG struct {
	store    vectorstore.Store
	embedder embedding.Embedder
	chatCfg  *config.LLMConfig
	topK     int

	generate func(ctx context.Context, cfg *config.LLMConfig, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error)
}

func NewRAG(store vectorstore.Store, embedder embedding.Embedder, chatCfg *config.LLMConfig, topK int) *RAG {
	return &RAG{
		store:    store,
		embedder: embedder,
		chatCfg:  chatCfg,
		topK:     topK,
		generate: llmservice.GenerateContent,
	}
}

// Query answers a question in one shot and reports which source files the
// context came from.
func (r *RAG) Query(ctx context.Context, query string) (*models.PromptResponse, error) {
	messages, sources, err := r.buildPrompt(ctx, query)
	if err != nil {
		return nil, err
	}

	res, err := r.generate(ctx, r.chatCfg, messages)
	if err != nil {
		return nil, err
	}
	if len(res.Choices) == 0 {
		return nil, fmt.Errorf("chat model returned no choices")
	}

	return &models.PromptResponse{
		Query:   query,
		Source:  strings.Join(sources, ", "),
		Content: res.Choices[0].Content,
	}, nil
}

// Stream answers a question and writes generation deltas to w as they
// arrive. The caller owns flushing.
func (r *RAG) Stream(ctx context.Context, query string, w io.Writer) error {
	messages, _, err := r.buildPrompt(ctx, query)
	if err != nil {
		return err
	}

	_, err = r.generate(ctx, r.chatCfg, messages, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		_, werr := w.Write(chunk)
		return werr
	}))
	return err
}

// buildPrompt embeds the query, retrieves the top-K similar chunks and
// assembles the chat messages around them.
func (r *RAG) buildPrompt(ctx context.Context, query string) ([]llms.MessageContent, []string, error) {
	vectors, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil, fmt.Errorf("embedding query: no vector returned")
	}

	hits, err := r.store.Search(ctx, vectors[0], r.topK)
	if err != nil {
		return nil, nil, fmt.Errorf("searching store: %w", err)
	}

	var contextBlock strings.Builder
	var sources []string
	seen := map[string]bool{}
	for _, hit := range hits {
		contextBlock.WriteString(hit.Record.Content)
		contextBlock.WriteString(models.ContextSeparator)
		if src := hit.Record.Metadata[models.MetaSourceKey]; src != "" && !seen[src] {
			seen[src] = true
			sources = append(sources, src)
		}
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: models.SystemPromptTemplate}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: fmt.Sprintf(models.UserPromptTemplate, contextBlock.String(), query)}},
		},
	}
	return messages, sources, nil
}
