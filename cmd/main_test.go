package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentic-rag/internal/config"
	"agentic-rag/internal/models"
)

func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv(config.EnvFirecrawlKey, "")
	cfg := config.Default()
	cfg.EmbedLLM.Provider = "hashing"
	return cfg
}

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Volcanoes erupt when magma reaches the surface.\n\nGlaciers carve deep valleys."), 0o600))
	return path
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	// tests run in cmd/, where ./configs/config.yaml does not exist
	cfg, err := loadConfig(defaultConfigPath)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, 256, cfg.EmbedLLM.Dimensions)
}

func TestLoadConfigExplicitPath(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cfg, err := loadConfig(filepath.Join("..", "configs", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"":      zerolog.InfoLevel,
		"loud":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestRunWebModeWithoutKey(t *testing.T) {
	cfg := offlineConfig(t)

	resp, err := run(context.Background(), cfg, modeWeb, "", "what is go")
	require.NoError(t, err)
	assert.Equal(t, "what is go", resp.Query)
	assert.Equal(t, models.WebSearchUnavailable, resp.Content)
}

func TestRunDocumentMode(t *testing.T) {
	cfg := offlineConfig(t)

	resp, err := run(context.Background(), cfg, modeDocument, writeDoc(t), "how do glaciers shape valleys")
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "Glaciers carve deep valleys.")

	_, err = run(context.Background(), cfg, modeDocument, "", "anything")
	assert.ErrorContains(t, err, "-file")
}

func TestRunCrewModeBadProvider(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.InferenceLLM.Provider = "carrier-pigeon"

	_, err := run(context.Background(), cfg, modeCrew, "", "q")
	assert.ErrorContains(t, err, "unknown llm provider")
}

func TestRunUnknownMode(t *testing.T) {
	_, err := run(context.Background(), offlineConfig(t), "telepathy", "", "q")
	assert.ErrorContains(t, err, "unknown mode")
}

func TestDryRunChunks(t *testing.T) {
	chunks, err := dryRunChunks(context.Background(), offlineConfig(t), writeDoc(t))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, "notes.txt", c.Source)
	}
}
