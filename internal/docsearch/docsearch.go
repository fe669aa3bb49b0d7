// Package docsearch turns a single document into a searchable tool. The
// document is extracted, chunked, embedded and indexed once, when the tool
// is built.
package docsearch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/tools"

	"agentic-rag/internal/chromemdb"
	"agentic-rag/internal/chunker"
	"agentic-rag/internal/config"
	"agentic-rag/internal/embedding"
	"agentic-rag/internal/models"
	"agentic-rag/internal/parser"
)

var _ tools.Tool = (*Tool)(nil)

type Tool struct {
	filePath string
	topK     int
	chunks   []models.Chunk
	index    *chromemdb.VectorDBManager
}

type options struct {
	rag        config.RAGConfig
	dimensions int
	chunkerOps []chunker.Option
}

type Option func(*options)

// WithRAGConfig sets the chunking and retrieval parameters.
func WithRAGConfig(cfg config.RAGConfig) Option {
	return func(o *options) { o.rag = cfg }
}

// WithDimensions sets the vector dimension every embedding must have.
func WithDimensions(dims int) Option {
	return func(o *options) { o.dimensions = dims }
}

// WithChunkerOptions passes options through to the chunker.
func WithChunkerOptions(opts ...chunker.Option) Option {
	return func(o *options) { o.chunkerOps = append(o.chunkerOps, opts...) }
}

// New builds the index for the document at filePath. Errors from reading the
// file wrap parser.ErrUnreadable or parser.ErrUnsupportedFormat; embedding
// failures and dimension mismatches abort construction with no index left
// behind.
func New(ctx context.Context, filePath string, embedder embeddings.Embedder, opts ...Option) (*Tool, error) {
	defaults := config.Default()
	o := options{rag: defaults.RAG, dimensions: defaults.EmbedLLM.Dimensions}
	for _, opt := range opts {
		opt(&o)
	}
	o.rag = o.rag.WithDefaults()
	if o.rag.TopK < 1 || o.rag.TopK > config.MaxTopK {
		o.rag.TopK = config.MaxTopK
	}

	text, err := parser.ExtractText(filePath)
	if err != nil {
		return nil, err
	}

	source := filepath.Base(filePath)
	chunks, err := chunker.New(embedder, o.rag, o.chunkerOps...).Chunk(ctx, text, source)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk %s: %w", source, err)
	}

	chunkEmbeddings, err := embedding.EmbedChunks(ctx, embedder, chunks)
	if err != nil {
		return nil, err
	}

	index, err := chromemdb.NewVectorDBManager(o.rag.CollectionName, o.dimensions, embedder)
	if err != nil {
		return nil, err
	}
	if err := index.AddChunks(ctx, chunkEmbeddings); err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", source, err)
	}

	log.Info().Str("file", source).Int("chunks", len(chunks)).Msg("Document indexed")
	return &Tool{
		filePath: filePath,
		topK:     o.rag.TopK,
		chunks:   chunks,
		index:    index,
	}, nil
}

func (t *Tool) Name() string {
	return models.DocumentToolName
}

func (t *Tool) Description() string {
	return models.DocumentToolDescription
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	return t.Search(ctx, input)
}

// Search returns the texts of the chunks closest to query, best match first,
// joined by models.ResultSeparator. An empty index yields "".
func (t *Tool) Search(ctx context.Context, query string) (string, error) {
	results, err := t.index.QueryText(ctx, strings.TrimSpace(query), t.topK)
	if err != nil {
		return "", fmt.Errorf("failed to search document: %w", err)
	}

	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Content)
	}
	log.Debug().Str("query", query).Int("results", len(texts)).Msg("Document search")
	return strings.Join(texts, models.ResultSeparator), nil
}

// Chunks returns the chunks the index was built from, in ingestion order.
func (t *Tool) Chunks() []models.Chunk {
	return t.chunks
}

func (t *Tool) FilePath() string {
	return t.filePath
}

// Close drops the index.
func (t *Tool) Close() error {
	return t.index.DeleteCollection()
}
