package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestListDocumentsDefaultFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "handbook.pdf", "x")
	writeFile(t, dir, "HANDBOOK2.PDF", "x")
	writeFile(t, dir, "notes.txt", "x")
	writeFile(t, dir, "readme.md", "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.pdf"), 0o755))

	paths, err := ListDocuments(dir, nil)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.Contains(t, []string{"handbook.pdf", "HANDBOOK2.PDF"}, filepath.Base(p))
	}
}

func TestListDocumentsCustomFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "x")
	writeFile(t, dir, "handbook.pdf", "x")

	paths, err := ListDocuments(dir, []string{".txt"})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "notes.txt", filepath.Base(paths[0]))
}

func TestListDocumentsMissingDir(t *testing.T) {
	_, err := ListDocuments(filepath.Join(t.TempDir(), "nope"), nil)
	require.Error(t, err)
}

func TestExtractTextPlain(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "  Remote work requires manager approval.\n")

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "Remote work requires manager approval.", text)
}

func TestExtractTextMarkdown(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "policy.md", "# Leave Policy\n\nEmployees accrue **20 days** per year.\n\n- carry over allowed\n")

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Leave Policy")
	assert.Contains(t, text, "20 days")
	assert.Contains(t, text, "carry over allowed")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "**")
}

func TestExtractTextUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "image.png", "x")

	_, err := ExtractText(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestExtractTextCorruptPDF(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.pdf", "not a pdf at all")

	_, err := ExtractText(path)
	require.Error(t, err)
}
