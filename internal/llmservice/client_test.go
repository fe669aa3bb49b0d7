package llmservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"agentic-rag/internal/config"
)

func TestNewOpenAI(t *testing.T) {
	llm, err := New(config.LLMConfig{
		Provider: "openai",
		BaseURL:  "https://openrouter.ai/api/v1",
		Key:      "Bearer sk-test",
		Model:    "deepseek/deepseek-r1",
	})
	require.NoError(t, err)
	assert.IsType(t, &openai.LLM{}, llm)
}

func TestNewOpenAIMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New(config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini"})
	assert.Error(t, err)
}

func TestNewOllama(t *testing.T) {
	llm, err := New(config.LLMConfig{Provider: "Ollama", BaseURL: "http://localhost:11434", Model: "llama3.2"})
	require.NoError(t, err)
	assert.IsType(t, &ollama.LLM{}, llm)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(config.LLMConfig{Provider: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unknown llm provider")
}
