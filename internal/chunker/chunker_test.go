package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyText(t *testing.T) {
	s := NewRecursiveSplitter(1000, 200)

	chunks, err := s.Split("", "policy.pdf")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = s.Split("  \n\t ", "policy.pdf")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitShortText(t *testing.T) {
	s := NewRecursiveSplitter(1000, 200)

	chunks, err := s.Split("Employees accrue leave monthly.", "policy.pdf")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "policy.pdf", chunks[0].SourceFile)
	assert.Contains(t, chunks[0].Content, "accrue leave")
}

func TestSplitLongText(t *testing.T) {
	s := NewRecursiveSplitter(100, 20)

	var b strings.Builder
	for i := 0; i < 120; i++ {
		b.WriteString("All employees must follow the security policy. ")
	}

	chunks, err := s.Split(b.String(), "handbook.pdf")
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index, "indices must be dense and zero-based")
		assert.Equal(t, "handbook.pdf", c.SourceFile)
		assert.NotEmpty(t, strings.TrimSpace(c.Content))
		assert.LessOrEqual(t, len(c.Content), 100, "chunk exceeds configured size")
	}
}
