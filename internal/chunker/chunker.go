// Package chunker splits document text into semantic chunks. Neighbouring
// sentences are kept together while their embeddings stay similar and the
// chunk still fits the size limit.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/textsplitter"

	"agentic-rag/internal/config"
	"agentic-rag/internal/embedding"
	"agentic-rag/internal/models"
)

// TokenCounter measures the size of a piece of text in the unit chunk sizes
// are expressed in.
type TokenCounter func(string) int

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

type Chunker struct {
	embedder         embeddings.Embedder
	threshold        float64
	chunkSize        int
	minSentences     int
	minSentenceChars int
	count            TokenCounter
}

type Option func(*Chunker)

// WithTokenCounter replaces the default word counter.
func WithTokenCounter(counter TokenCounter) Option {
	return func(c *Chunker) {
		if counter != nil {
			c.count = counter
		}
	}
}

func New(embedder embeddings.Embedder, cfg config.RAGConfig, opts ...Option) *Chunker {
	c := &Chunker{
		embedder:         embedder,
		threshold:        cfg.SimilarityThreshold,
		chunkSize:        cfg.ChunkSize,
		minSentences:     cfg.MinSentences,
		minSentenceChars: cfg.MinSentenceChars,
		count:            WordCount,
	}
	if c.chunkSize <= 0 {
		c.chunkSize = 512
	}
	if c.minSentences <= 0 {
		c.minSentences = 1
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits text into chunks tagged with source. Every chunk holds at
// least one sentence and at most chunkSize tokens; a sentence longer than
// the limit is cut into pieces that are treated as sentences of their own.
func (c *Chunker) Chunk(ctx context.Context, text, source string) ([]models.Chunk, error) {
	units, err := c.sentenceUnits(text)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, nil
	}

	// EmbedDocuments may rewrite its input in place
	batch := make([]string, len(units))
	copy(batch, units)
	vectors, err := c.embedder.EmbedDocuments(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to embed sentences: %w", err)
	}
	if len(vectors) != len(units) {
		return nil, fmt.Errorf("failed to embed sentences: got %d vectors for %d sentences", len(vectors), len(units))
	}

	var chunks []models.Chunk
	current := []string{units[0]}
	flush := func() {
		content := strings.Join(current, " ")
		chunks = append(chunks, models.Chunk{
			Content:       content,
			ChunkID:       len(chunks),
			Source:        source,
			TokenCount:    c.count(content),
			SentenceCount: len(current),
		})
	}

	for i := 1; i < len(units); i++ {
		similar := embedding.CosineSimilarity(vectors[i-1], vectors[i]) >= c.threshold
		candidate := strings.Join(current, " ") + " " + units[i]
		if (similar || len(current) < c.minSentences) && c.count(candidate) <= c.chunkSize {
			current = append(current, units[i])
			continue
		}
		flush()
		current = []string{units[i]}
	}
	flush()

	log.Debug().Str("source", source).Int("sentences", len(units)).Int("chunks", len(chunks)).Msg("Chunked document")
	return chunks, nil
}

// sentenceUnits returns the sentences of text with oversized ones split to
// fit the chunk size.
func (c *Chunker) sentenceUnits(text string) ([]string, error) {
	sentences := SplitSentences(text, c.minSentenceChars)

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.chunkSize),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithLenFunc(c.count),
	)

	units := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if c.count(s) <= c.chunkSize {
			units = append(units, s)
			continue
		}
		if c.chunkSize < 2 {
			// the recursive splitter would fall back to single characters
			units = append(units, c.splitWords(s)...)
			continue
		}
		pieces, err := splitter.SplitText(s)
		if err != nil {
			return nil, fmt.Errorf("failed to split sentence: %w", err)
		}
		for _, piece := range pieces {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			if c.count(piece) > c.chunkSize {
				units = append(units, c.splitWords(piece)...)
				continue
			}
			units = append(units, piece)
		}
	}
	return units, nil
}

// splitWords cuts s into runs of words that each fit the chunk size.
func (c *Chunker) splitWords(s string) []string {
	var out []string
	var run []string
	for _, word := range strings.Fields(s) {
		candidate := strings.Join(append(run, word), " ")
		if len(run) > 0 && c.count(candidate) > c.chunkSize {
			out = append(out, strings.Join(run, " "))
			run = run[:0]
		}
		run = append(run, word)
	}
	if len(run) > 0 {
		out = append(out, strings.Join(run, " "))
	}
	return out
}
