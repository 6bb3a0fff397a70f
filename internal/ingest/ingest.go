package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"policy-rag/internal/chunker"
	"policy-rag/internal/config"
	"policy-rag/internal/embedding"
	"policy-rag/internal/helper"
	"policy-rag/internal/models"
	"policy-rag/internal/parser"
	"policy-rag/internal/vectorstore"
)

var (
	// ErrNoDocuments is returned when the documents directory holds no
	// files with a matching extension. The run fails with chunk count 0.
	ErrNoDocuments = errors.New("no documents found")

	// ErrCountMismatch signals that the embedding service returned a
	// different number of vectors than chunks submitted. Upserting in
	// that state would associate vectors with the wrong chunks.
	ErrCountMismatch = errors.New("chunk/vector count mismatch")
)

// ExtractFunc converts one document file to plain text.
type ExtractFunc func(path string) (string, error)

// Report summarises a completed (or aborted) ingestion run.
type Report struct {
	Files   int // files ingested
	Skipped int // files skipped for content reasons
	Chunks  int // total chunks upserted
}

// Ingestor walks the documents directory and persists one record per chunk.
// All collaborators are injected so tests can substitute fakes.
type Ingestor struct {
	docsDir  string
	exts     []string
	cfg      *config.RAGConfig
	extract  ExtractFunc
	splitter chunker.Splitter
	embedder embedding.Embedder
	store    vectorstore.Store
}

func New(docsDir string, exts []string, cfg *config.RAGConfig, extract ExtractFunc, splitter chunker.Splitter, embedder embedding.Embedder, store vectorstore.Store) *Ingestor {
	if extract == nil {
		extract = parser.ExtractText
	}
	return &Ingestor{
		docsDir:  docsDir,
		exts:     exts,
		cfg:      cfg,
		extract:  extract,
		splitter: splitter,
		embedder: embedder,
		store:    store,
	}
}

// Run processes every matching file sequentially: extract, chunk, embed in
// batches, upsert. Content errors skip the file; anything else aborts the
// run. The returned report reflects whatever completed before the abort.
func (i *Ingestor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if err := i.store.EnsureReady(ctx); err != nil {
		return report, fmt.Errorf("vector store: %w", err)
	}

	paths, err := parser.ListDocuments(i.docsDir, i.exts)
	if err != nil {
		return report, err
	}
	if len(paths) == 0 {
		return report, fmt.Errorf("%w: no files matching %v in %s", ErrNoDocuments, i.exts, i.docsDir)
	}

	for _, path := range paths {
		filename := filepath.Base(path)

		text, err := i.extract(path)
		if err != nil {
			log.Warn().Err(err).Str("file", filename).Msg("Skipping unparseable file")
			report.Skipped++
			continue
		}
		if strings.TrimSpace(text) == "" {
			log.Warn().Str("file", filename).Msg("Skipping file with no extractable text")
			report.Skipped++
			continue
		}

		chunks, err := i.splitter.Split(text, filename)
		if err != nil {
			return report, fmt.Errorf("chunking %s: %w", filename, err)
		}
		if len(chunks) == 0 {
			log.Warn().Str("file", filename).Msg("Skipping file that produced no chunks")
			report.Skipped++
			continue
		}

		vectors, err := i.embedChunks(ctx, chunks)
		if err != nil {
			return report, fmt.Errorf("embedding %s: %w", filename, err)
		}
		if len(vectors) != len(chunks) {
			return report, fmt.Errorf("%w: %s produced %d chunks but %d vectors", ErrCountMismatch, filename, len(chunks), len(vectors))
		}

		records := make([]models.Record, len(chunks))
		for j, chunk := range chunks {
			records[j] = models.Record{
				ID:        helper.RecordID(filename, chunk.Index),
				Content:   chunk.Content,
				Embedding: vectors[j],
				Metadata: map[string]string{
					models.MetaSourceKey: filename,
					models.MetaChunkKey:  strconv.Itoa(chunk.Index),
				},
			}
		}

		if err := i.store.Upsert(ctx, records); err != nil {
			return report, fmt.Errorf("upserting %s: %w", filename, err)
		}

		report.Files++
		report.Chunks += len(chunks)
		log.Info().Str("file", filename).Int("chunks", len(chunks)).Msg("Ingested file")
	}

	return report, nil
}

// embedChunks submits the chunk texts in batches of cfg.BatchSize. A batch
// that still fails after cfg.MaxRetries retries aborts the run; there is no
// partial-batch recovery.
func (i *Ingestor) embedChunks(ctx context.Context, chunks []models.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for j, c := range chunks {
		texts[j] = c.Content
	}

	batchSize := i.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = len(texts)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := i.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch starting at chunk %d: %w", start, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (i *Ingestor) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= i.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().Err(lastErr).Int("attempt", attempt).Msg("Retrying embedding batch")
		}
		vectors, err := i.embedder.EmbedTexts(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
