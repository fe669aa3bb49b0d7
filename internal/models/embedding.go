package models

// Chunk represents a semantic chunk of a document with metadata
type Chunk struct {
	Content       string
	ChunkID       int
	Source        string
	TokenCount    int
	SentenceCount int
}

// ChunkEmbedding is a chunk together with the vector stored for it
type ChunkEmbedding struct {
	Chunk
	Embedding []float32
}

type PromptResponse struct {
	Query   string
	Source  string
	Content string
}
