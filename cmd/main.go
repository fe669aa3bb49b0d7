package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/tools"

	"agentic-rag/internal/config"
	"agentic-rag/internal/docsearch"
	"agentic-rag/internal/embedding"
	"agentic-rag/internal/helper"
	"agentic-rag/internal/llmservice"
	"agentic-rag/internal/models"
	"agentic-rag/internal/rag"
	"agentic-rag/internal/websearch"
)

const (
	defaultConfigPath = "./configs/config.yaml"

	modeCrew     = "crew"
	modeDocument = "document"
	modeWeb      = "web"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	query := flag.String("query", "", "Query to be answered")
	filePath := flag.String("file", "", "Path to the document to search (pdf, docx, pptx, xlsx, md, txt)")
	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	mode := flag.String("mode", modeCrew, "crew | document | web")
	dryRun := flag.Bool("dry-run", false, "Print the chunks of -file and exit")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("Error loading .env")
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	zerolog.SetGlobalLevel(parseLevel(cfg.Log.Level))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *dryRun {
		chunks, err := dryRunChunks(ctx, cfg, *filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Error chunking document")
		}
		helper.PrettyPrint(os.Stdout, chunks)
		return
	}

	if *query == "" {
		log.Fatal().Msg("Please provide a query using the -query flag")
	}

	response, err := run(ctx, cfg, *mode, *filePath, *query)
	if err != nil {
		log.Fatal().Err(err).Str("mode", *mode).Msg("Error querying")
	}
	printResponse(response)
}

// loadConfig falls back to the built in defaults when the default config
// file is missing. An explicitly given file must exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err == nil {
		log.Debug().Str("path", path).Msg("Loaded config")
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		log.Warn().Str("path", path).Msg("Config file not found, using defaults")
		return config.Default(), nil
	}
	return nil, err
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		log.Warn().Str("level", level).Msg("Invalid log level, using info")
		return zerolog.InfoLevel
	}
	return lvl
}

// run answers query in the given mode.
func run(ctx context.Context, cfg *config.Config, mode, filePath, query string) (*models.PromptResponse, error) {
	switch mode {
	case modeDocument:
		return searchDocument(ctx, cfg, filePath, query)
	case modeWeb:
		return searchWeb(ctx, cfg, query), nil
	case modeCrew:
		return runCrew(ctx, cfg, filePath, query)
	default:
		return nil, fmt.Errorf("unknown mode %q, want %s, %s or %s", mode, modeCrew, modeDocument, modeWeb)
	}
}

func buildDocumentTool(ctx context.Context, cfg *config.Config, filePath string) (*docsearch.Tool, error) {
	if filePath == "" {
		return nil, errors.New("please provide a document file using the -file flag")
	}
	embedder, err := embedding.New(cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	docTool, err := docsearch.New(ctx, filePath, embedder,
		docsearch.WithRAGConfig(cfg.RAG),
		docsearch.WithDimensions(cfg.EmbedLLM.Dimensions),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build document index: %w", err)
	}
	return docTool, nil
}

func dryRunChunks(ctx context.Context, cfg *config.Config, filePath string) ([]models.Chunk, error) {
	docTool, err := buildDocumentTool(ctx, cfg, filePath)
	if err != nil {
		return nil, err
	}
	defer docTool.Close()
	return docTool.Chunks(), nil
}

func searchDocument(ctx context.Context, cfg *config.Config, filePath, query string) (*models.PromptResponse, error) {
	docTool, err := buildDocumentTool(ctx, cfg, filePath)
	if err != nil {
		return nil, err
	}
	defer docTool.Close()

	result, err := docTool.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return &models.PromptResponse{Query: query, Source: docTool.FilePath(), Content: result}, nil
}

func searchWeb(ctx context.Context, cfg *config.Config, query string) *models.PromptResponse {
	webTool := websearch.New(cfg.WebSearch.APIKey, websearch.WithConfig(cfg.WebSearch))
	return &models.PromptResponse{Query: query, Source: models.WebToolName, Content: webTool.Search(ctx, query)}
}

func runCrew(ctx context.Context, cfg *config.Config, filePath, query string) (*models.PromptResponse, error) {
	toolset := []tools.Tool{}
	if filePath != "" {
		docTool, err := buildDocumentTool(ctx, cfg, filePath)
		if err != nil {
			return nil, err
		}
		defer docTool.Close()
		toolset = append(toolset, docTool)
	} else {
		log.Info().Msg("No document given, the crew will only search the web")
	}
	toolset = append(toolset, websearch.New(cfg.WebSearch.APIKey, websearch.WithConfig(cfg.WebSearch)))

	llm, err := llmservice.New(cfg.InferenceLLM)
	if err != nil {
		return nil, err
	}

	crew, err := rag.NewCrew(llm, toolset, cfg.Crew)
	if err != nil {
		return nil, err
	}
	return crew.Kickoff(ctx, query)
}

func printResponse(response *models.PromptResponse) {
	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Source)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)
}
