package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"agentic-rag/internal/models"
)

var (
	// ErrDimensionMismatch is returned when a vector does not have the
	// dimension the collection was created with.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrZeroVector is returned for vectors without a direction, which cosine
	// similarity cannot rank.
	ErrZeroVector = errors.New("embedding is a zero vector")
)

// VectorDBManager owns one in-memory chromem collection. Every manager gets
// its own database, so building a new one always starts from an empty index.
type VectorDBManager struct {
	db         *chromem.DB
	collection *chromem.Collection
	dimensions int
	embed      chromem.EmbeddingFunc
}

// NewVectorDBManager creates an empty collection whose vectors must have
// exactly dimensions entries. Query texts are embedded with embedder.
func NewVectorDBManager(collectionName string, dimensions int, embedder embeddings.Embedder) (*VectorDBManager, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("invalid embedding dimensions %d", dimensions)
	}
	m := &VectorDBManager{
		db:         chromem.NewDB(),
		dimensions: dimensions,
	}

	m.embed = m.embeddingFunc(embedder)

	c, err := m.db.CreateCollection(collectionName, nil, m.embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	m.collection = c
	return m, nil
}

// AddChunks stores one document per chunk. The ID is the chunk id and the
// source file is kept in the metadata. Nothing is stored if any vector is
// rejected.
func (m *VectorDBManager) AddChunks(ctx context.Context, chunks []models.ChunkEmbedding) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, chunk := range chunks {
		if err := m.checkVector(chunk.Embedding); err != nil {
			return fmt.Errorf("chunk %d: %w", chunk.ChunkID, err)
		}
		docs = append(docs, chromem.Document{
			ID:        strconv.Itoa(chunk.ChunkID),
			Content:   chunk.Content,
			Metadata:  map[string]string{models.MetadataSource: chunk.Source},
			Embedding: chunk.Embedding,
		})
	}

	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	log.Debug().Str("collection", m.collection.Name).Int("documents", m.collection.Count()).Msg("Indexed chunks")
	return nil
}

// Query returns the topK documents closest to queryEmbedding, most similar
// first. It returns fewer when the collection holds fewer documents.
func (m *VectorDBManager) Query(ctx context.Context, queryEmbedding []float32, topK int) ([]chromem.Result, error) {
	if err := m.checkVector(queryEmbedding); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	n := m.clamp(topK)
	if n == 0 {
		return nil, nil
	}
	results, err := m.collection.QueryEmbedding(ctx, queryEmbedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	return results, nil
}

// QueryText embeds text with the collection's embedder and returns the topK
// closest documents.
func (m *VectorDBManager) QueryText(ctx context.Context, text string, topK int) ([]chromem.Result, error) {
	if m.clamp(topK) == 0 {
		return nil, nil
	}
	v, err := m.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return m.Query(ctx, v, topK)
}

func (m *VectorDBManager) Count() int {
	return m.collection.Count()
}

func (m *VectorDBManager) Dimensions() int {
	return m.dimensions
}

// DeleteCollection drops the collection and its documents.
func (m *VectorDBManager) DeleteCollection() error {
	if err := m.db.DeleteCollection(m.collection.Name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

func (m *VectorDBManager) clamp(topK int) int {
	n := m.collection.Count()
	if topK < n {
		n = topK
	}
	if n < 0 {
		return 0
	}
	return n
}

func (m *VectorDBManager) checkVector(v []float32) error {
	if len(v) != m.dimensions {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), m.dimensions)
	}
	for _, x := range v {
		if x != 0 {
			return nil
		}
	}
	return ErrZeroVector
}

func (m *VectorDBManager) embeddingFunc(embedder embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		if embedder == nil {
			return nil, errors.New("no embedder configured for text queries")
		}
		v, err := embedder.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		if err := m.checkVector(v); err != nil {
			return nil, err
		}
		return v, nil
	}
}
