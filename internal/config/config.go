package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvFirecrawlKey = "FIRECRAWL_API_KEY"
	EnvLLMKey       = "AGENTIC_RAG_LLM_KEY"
	EnvEmbedKey     = "AGENTIC_RAG_EMBED_KEY"
)

type Config struct {
	EmbedLLM     LLMConfig       `yaml:"embed_llm"`
	InferenceLLM LLMConfig       `yaml:"inference_llm"`
	RAG          RAGConfig       `yaml:"rag"`
	WebSearch    WebSearchConfig `yaml:"web_search"`
	Crew         CrewConfig      `yaml:"crew"`
	Log          LogConfig       `yaml:"log"`
}

type LLMConfig struct {
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url"`
	Key        string `yaml:"key"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

type RAGConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	ChunkSize           int     `yaml:"chunk_size"`
	MinSentences        int     `yaml:"min_sentences"`
	MinSentenceChars    int     `yaml:"min_sentence_chars"`
	TopK                int     `yaml:"top_k"`
	CollectionName      string  `yaml:"collection_name"`
}

type WebSearchConfig struct {
	APIKey            string `yaml:"api_key"`
	BaseURL           string `yaml:"base_url"`
	Limit             int    `yaml:"limit"`
	MaxContentChars   int    `yaml:"max_content_chars"`
	TimeoutSeconds    int    `yaml:"timeout"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	BreakerFailures   uint32 `yaml:"breaker_failures"`
	BreakerTimeout    int    `yaml:"breaker_timeout"`
}

type AgentConfig struct {
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
}

type TaskConfig struct {
	Description    string `yaml:"description"`
	ExpectedOutput string `yaml:"expected_output"`
}

type CrewConfig struct {
	Retriever     AgentConfig `yaml:"retriever_agent"`
	Synthesizer   AgentConfig `yaml:"response_synthesizer_agent"`
	RetrievalTask TaskConfig  `yaml:"retrieval_task"`
	ResponseTask  TaskConfig  `yaml:"response_task"`
	MaxIterations int         `yaml:"max_iterations"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// LoadConfig reads the yaml file at path, applies defaults for every
// missing value and then lets the environment override secrets.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyDefaults()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads a .env file from the working directory if there is one.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// Default returns a configuration that works without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.ApplyEnv()
	return cfg
}

func (c *Config) ApplyDefaults() {
	if c.EmbedLLM.Provider == "" {
		c.EmbedLLM.Provider = defaultEmbedProvider
	}
	if c.EmbedLLM.Dimensions == 0 {
		c.EmbedLLM.Dimensions = defaultDimensions
	}
	if c.InferenceLLM.Provider == "" {
		c.InferenceLLM.Provider = defaultInferenceProvider
	}

	c.RAG = c.RAG.WithDefaults()

	if c.WebSearch.BaseURL == "" {
		c.WebSearch.BaseURL = defaultFirecrawlURL
	}
	if c.WebSearch.Limit == 0 {
		c.WebSearch.Limit = defaultWebLimit
	}
	if c.WebSearch.MaxContentChars == 0 {
		c.WebSearch.MaxContentChars = defaultMaxContentChars
	}
	if c.WebSearch.TimeoutSeconds == 0 {
		c.WebSearch.TimeoutSeconds = defaultWebTimeout
	}
	if c.WebSearch.BreakerFailures == 0 {
		c.WebSearch.BreakerFailures = defaultBreakerFailures
	}
	if c.WebSearch.BreakerTimeout == 0 {
		c.WebSearch.BreakerTimeout = defaultBreakerTimeout
	}

	c.Crew.applyDefaults()

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// WithDefaults fills the zero fields of r.
func (r RAGConfig) WithDefaults() RAGConfig {
	if r.SimilarityThreshold == 0 {
		r.SimilarityThreshold = defaultSimilarityThreshold
	}
	if r.ChunkSize == 0 {
		r.ChunkSize = defaultChunkSize
	}
	if r.MinSentences == 0 {
		r.MinSentences = defaultMinSentences
	}
	if r.MinSentenceChars == 0 {
		r.MinSentenceChars = defaultMinSentenceChars
	}
	if r.TopK == 0 {
		r.TopK = defaultTopK
	}
	if r.CollectionName == "" {
		r.CollectionName = defaultCollectionName
	}
	return r
}

// ApplyEnv overrides keys with environment variables when they are set.
func (c *Config) ApplyEnv() {
	if key := os.Getenv(EnvFirecrawlKey); key != "" {
		c.WebSearch.APIKey = key
	}
	if key := os.Getenv(EnvLLMKey); key != "" {
		c.InferenceLLM.Key = key
	}
	if key := os.Getenv(EnvEmbedKey); key != "" {
		c.EmbedLLM.Key = key
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.RAG.SimilarityThreshold <= 0 || c.RAG.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("rag.similarity_threshold must be in (0, 1], got %v", c.RAG.SimilarityThreshold))
	}
	if c.RAG.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize))
	}
	if c.RAG.MinSentences < 0 {
		errs = append(errs, fmt.Errorf("rag.min_sentences must be positive, got %d", c.RAG.MinSentences))
	}
	if c.RAG.TopK < 0 || c.RAG.TopK > MaxTopK {
		errs = append(errs, fmt.Errorf("rag.top_k must be between 1 and %d, got %d", MaxTopK, c.RAG.TopK))
	}
	if c.EmbedLLM.Dimensions < 0 {
		errs = append(errs, fmt.Errorf("embed_llm.dimensions must be positive, got %d", c.EmbedLLM.Dimensions))
	}
	if c.WebSearch.Limit < 0 || c.WebSearch.Limit > MaxWebResults {
		errs = append(errs, fmt.Errorf("web_search.limit must be between 1 and %d, got %d", MaxWebResults, c.WebSearch.Limit))
	}
	if c.WebSearch.MaxContentChars < 0 {
		errs = append(errs, errors.New("web_search.max_content_chars must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
