package chunker

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"policy-rag/internal/models"
)

// Splitter turns extracted text into indexed chunks for one source file.
type Splitter interface {
	Split(text, sourceFile string) ([]models.Chunk, error)
}

// RecursiveSplitter delegates to langchaingo's recursive character splitter,
// which breaks on paragraph and sentence separators before falling back to
// hard cuts.
type RecursiveSplitter struct {
	splitter textsplitter.RecursiveCharacter
}

func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	return &RecursiveSplitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// Split returns the chunks of text in document order. Indices are zero-based
// and dense; they feed the stable record id scheme.
func (s *RecursiveSplitter) Split(text, sourceFile string) ([]models.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	parts, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting %s: %w", sourceFile, err)
	}

	var chunks []models.Chunk
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Content:    part,
			SourceFile: sourceFile,
			Index:      len(chunks),
		})
	}
	return chunks, nil
}
