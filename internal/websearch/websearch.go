// Package websearch is a tool that answers queries with Firecrawl web search
// results. Failures are reported in the returned text, never as errors, so
// an agent turn is not aborted by a flaky search backend.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/tmc/langchaingo/tools"
	"golang.org/x/time/rate"

	"agentic-rag/internal/config"
	"agentic-rag/internal/models"
)

var _ tools.Tool = (*Tool)(nil)

type Tool struct {
	apiKey          string
	baseURL         string
	limit           int
	maxContentChars int
	client          *http.Client
	breaker         *gobreaker.CircuitBreaker
	limiter         *rate.Limiter
}

type Option func(*Tool)

// WithConfig applies the web_search section of the config file. The API key
// in cfg is not used; pass it to New instead.
func WithConfig(cfg config.WebSearchConfig) Option {
	return func(t *Tool) {
		if cfg.BaseURL != "" {
			t.baseURL = cfg.BaseURL
		}
		if cfg.Limit > 0 {
			t.limit = min(cfg.Limit, config.MaxWebResults)
		}
		if cfg.MaxContentChars > 0 {
			t.maxContentChars = cfg.MaxContentChars
		}
		if cfg.TimeoutSeconds > 0 {
			t.client.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
		if cfg.RequestsPerMinute > 0 {
			t.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
		}
		t.breaker = newBreaker(cfg.BreakerFailures, time.Duration(cfg.BreakerTimeout)*time.Second)
	}
}

// WithBaseURL points the tool at another Firecrawl deployment.
func WithBaseURL(baseURL string) Option {
	return func(t *Tool) { t.baseURL = baseURL }
}

func WithHTTPClient(client *http.Client) Option {
	return func(t *Tool) {
		if client != nil {
			t.client = client
		}
	}
}

// New creates the tool. An empty apiKey falls back to FIRECRAWL_API_KEY;
// without any key the tool stays disabled and only reports that.
func New(apiKey string, opts ...Option) *Tool {
	if apiKey == "" {
		apiKey = os.Getenv(config.EnvFirecrawlKey)
	}
	defaults := config.Default().WebSearch
	t := &Tool{
		apiKey:          apiKey,
		baseURL:         defaults.BaseURL,
		limit:           defaults.Limit,
		maxContentChars: defaults.MaxContentChars,
		client:          &http.Client{Timeout: time.Duration(defaults.TimeoutSeconds) * time.Second},
		breaker:         newBreaker(defaults.BreakerFailures, time.Duration(defaults.BreakerTimeout)*time.Second),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.apiKey == "" {
		log.Warn().Msg("FIRECRAWL_API_KEY is not set, web search disabled")
	}
	return t
}

func (t *Tool) Name() string {
	return models.WebToolName
}

func (t *Tool) Description() string {
	return models.WebToolDescription
}

// Call never returns an error; see Search.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	return t.Search(ctx, input), nil
}

func (t *Tool) Enabled() bool {
	return t.apiKey != ""
}

// Search formats up to limit results (never more than five) as title, URL
// and truncated content, separated by blank lines. A response without data
// yields models.WebSearchNoResults, an empty result list yields "". Any
// failure is returned as text prefixed with models.WebSearchErrorPrefix.
func (t *Tool) Search(ctx context.Context, query string) string {
	if !t.Enabled() {
		return models.WebSearchUnavailable
	}

	resp, err := t.search(ctx, query)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Web search failed")
		return models.WebSearchErrorPrefix + err.Error()
	}
	if resp.Warning != "" {
		log.Warn().Str("query", query).Msg(resp.Warning)
	}
	if resp.Data == nil {
		return models.WebSearchNoResults
	}

	results := *resp.Data
	if limit := min(t.limit, config.MaxWebResults); len(results) > limit {
		results = results[:limit]
	}
	formatted := make([]string, 0, len(results))
	for _, r := range results {
		formatted = append(formatted, fmt.Sprintf("Title: %s\nURL: %s\nContent: %s",
			orNA(r.Title), orNA(r.URL), truncate(orNA(r.Markdown), t.maxContentChars)))
	}
	log.Debug().Str("query", query).Int("results", len(formatted)).Msg("Web search")
	return strings.Join(formatted, models.WebResultSeparator)
}

func (t *Tool) search(ctx context.Context, query string) (*searchResponse, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	result, err := t.breaker.Execute(func() (interface{}, error) {
		return t.post(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return result.(*searchResponse), nil
}

func (t *Tool) post(ctx context.Context, query string) (*searchResponse, error) {
	body, err := json.Marshal(searchRequest{
		Query: query,
		Limit: t.limit,
		ScrapeOptions: scrapeOptions{
			Formats:         []string{"markdown"},
			OnlyMainContent: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(t.baseURL, "/")+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	res, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", res.StatusCode, strings.TrimSpace(truncate(string(data), 200)))
	}

	var parsed searchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !parsed.Success && parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func newBreaker(failures uint32, timeout time.Duration) *gobreaker.CircuitBreaker {
	if failures == 0 {
		failures = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "FirecrawlSearch",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	})
}

func orNA(s string) string {
	if s == "" {
		return models.NotAvailable
	}
	return s
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
