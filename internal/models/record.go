package models

// Chunk is one bounded-length slice of a document's extracted text,
// overlapping its neighbours by a fixed number of characters.
type Chunk struct {
	Content    string
	SourceFile string
	Index      int
}

// Record is the persisted unit in the vector store.
type Record struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// SearchResult is one similarity-search hit.
type SearchResult struct {
	Record Record
	Score  float32
}

type PromptResponse struct {
	Query   string
	Source  string
	Content string
}
