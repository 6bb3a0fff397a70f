package models

const (
	// MetaSourceKey and MetaChunkKey are the metadata field names stored
	// alongside every record in the vector store.
	MetaSourceKey = "source"
	MetaChunkKey  = "chunk"

	ContextSeparator = "\n---\n"
)

var (
	SystemPromptTemplate = `You are a helpful assistant answering questions about company policy documents. Use only the provided context to answer the query. If the context does not contain the answer, say so.`

	UserPromptTemplate = `Context:
%s
Query: %s`
)
