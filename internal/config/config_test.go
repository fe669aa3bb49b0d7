package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	t.Setenv(EnvFirecrawlKey, "")
	path := writeConfig(t, "log:\n  level: debug\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0.5, cfg.RAG.SimilarityThreshold)
	assert.Equal(t, 512, cfg.RAG.ChunkSize)
	assert.Equal(t, 1, cfg.RAG.MinSentences)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, "demo_collection", cfg.RAG.CollectionName)
	assert.Equal(t, 256, cfg.EmbedLLM.Dimensions)
	assert.Equal(t, 5, cfg.WebSearch.Limit)
	assert.Equal(t, 1000, cfg.WebSearch.MaxContentChars)
	assert.Empty(t, cfg.WebSearch.APIKey)
	assert.Contains(t, cfg.Crew.RetrievalTask.Description, "{query}")
	assert.Equal(t, 5, cfg.Crew.MaxIterations)
}

func TestLoadConfigKeepsFileValues(t *testing.T) {
	path := writeConfig(t, `
rag:
  similarity_threshold: 0.7
  chunk_size: 128
  top_k: 3
embed_llm:
  provider: hashing
  dimensions: 64
crew:
  retriever_agent:
    role: Librarian
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.RAG.SimilarityThreshold)
	assert.Equal(t, 128, cfg.RAG.ChunkSize)
	assert.Equal(t, 3, cfg.RAG.TopK)
	assert.Equal(t, "hashing", cfg.EmbedLLM.Provider)
	assert.Equal(t, 64, cfg.EmbedLLM.Dimensions)
	assert.Equal(t, "Librarian", cfg.Crew.Retriever.Role)
	assert.NotEmpty(t, cfg.Crew.Retriever.Goal)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	t.Setenv(EnvFirecrawlKey, "fc-env")
	t.Setenv(EnvLLMKey, "llm-env")
	path := writeConfig(t, "web_search:\n  api_key: fc-file\ninference_llm:\n  key: llm-file\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "fc-env", cfg.WebSearch.APIKey)
	assert.Equal(t, "llm-env", cfg.InferenceLLM.Key)
}

func TestLoadConfigRejectsBadThreshold(t *testing.T) {
	path := writeConfig(t, "rag:\n  similarity_threshold: 1.5\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "similarity_threshold")
}

func TestLoadConfigRejectsTooManyResults(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"web limit", "web_search:\n  limit: 8\n", "web_search.limit"},
		{"top k", "rag:\n  top_k: 9\n", "rag.top_k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestRAGConfigWithDefaults(t *testing.T) {
	r := RAGConfig{SimilarityThreshold: 0.7, ChunkSize: 64, CollectionName: "c"}.WithDefaults()

	assert.Equal(t, 0.7, r.SimilarityThreshold)
	assert.Equal(t, 64, r.ChunkSize)
	assert.Equal(t, "c", r.CollectionName)
	assert.Equal(t, 5, r.TopK)
	assert.Equal(t, 1, r.MinSentences)
	assert.Equal(t, 12, r.MinSentenceChars)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "rag: [unterminated\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.EmbedLLM.Dimensions)
	assert.Equal(t, "Response synthesizer", cfg.Crew.Synthesizer.Role)
}
