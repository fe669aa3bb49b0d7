package rag

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/tools"

	"agentic-rag/internal/config"
	"agentic-rag/internal/helper"
	"agentic-rag/internal/models"
)

var (
	thinkTagRe = regexp.MustCompile(models.ThinkTag)

	templateEscaper = strings.NewReplacer("{{", `{{"{{"}}`, "}}", `{{"}}"}}`)
)

// Crew answers a query in two sequential steps. A retriever agent picks and
// calls the tools to gather context, then a synthesizer turns that context
// into the final answer.
type Crew struct {
	tools       []tools.Tool
	cfg         config.CrewConfig
	retriever   *agents.Executor
	synthesizer *chains.LLMChain
}

// NewCrew wires the agents around llm. Nil entries in toolset are skipped so
// callers can pass an optional document tool as is.
func NewCrew(llm llms.Model, toolset []tools.Tool, cfg config.CrewConfig) (*Crew, error) {
	if llm == nil {
		return nil, errors.New("crew needs a language model")
	}

	usable := make([]tools.Tool, 0, len(toolset))
	for _, t := range toolset {
		if isNil(t) {
			continue
		}
		usable = append(usable, t)
	}

	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 5
	}

	agent := agents.NewOneShotAgent(llm, usable,
		agents.WithPromptPrefix(retrieverPrefix(cfg.Retriever)),
	)
	retriever := agents.NewExecutor(agent,
		agents.WithMaxIterations(maxIterations),
		agents.WithReturnIntermediateSteps(),
		agents.WithParserErrorHandler(agents.NewParserErrorHandler(nil)),
	)

	synthesizer := chains.NewLLMChain(llm, prompts.NewPromptTemplate(
		synthesizerTemplate(cfg.Synthesizer, cfg.ResponseTask),
		[]string{"query", "context"},
	))

	names := make([]string, 0, len(usable))
	for _, t := range usable {
		names = append(names, t.Name())
	}
	log.Debug().Strs("tools", names).Int("max_iterations", maxIterations).Msg("Crew assembled")

	return &Crew{
		tools:       usable,
		cfg:         cfg,
		retriever:   retriever,
		synthesizer: synthesizer,
	}, nil
}

// Tools returns the tools the retriever can use.
func (c *Crew) Tools() []tools.Tool {
	return c.tools
}

// Kickoff runs the retrieval task and then the response task for query.
func (c *Crew) Kickoff(ctx context.Context, query string) (*models.PromptResponse, error) {
	runID, err := helper.GenerateUUID()
	if err != nil {
		return nil, fmt.Errorf("failed to create run id: %w", err)
	}
	logger := log.With().Str("run_id", runID).Logger()
	logger.Info().Str("query", query).Msg("Crew kickoff")

	retrieved, err := c.retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval task failed: %w", err)
	}
	logger.Debug().Int("chars", len(retrieved)).Msg("Retrieval task done")

	answer, err := chains.Predict(ctx, c.synthesizer, map[string]any{
		"query":   query,
		"context": retrieved,
	})
	if err != nil {
		return nil, fmt.Errorf("response task failed: %w", err)
	}
	answer = CleanAnswer(answer)
	logger.Info().Int("chars", len(answer)).Msg("Response task done")

	return &models.PromptResponse{
		Query:   query,
		Source:  retrieved,
		Content: answer,
	}, nil
}

// retrieve runs the retriever agent. When it runs out of iterations the
// tool observations gathered so far are used as the context.
func (c *Crew) retrieve(ctx context.Context, query string) (string, error) {
	outputs, err := chains.Call(ctx, c.retriever, map[string]any{
		"input": taskInput(c.cfg.RetrievalTask, query),
		"query": query,
	})
	if errors.Is(err, agents.ErrNotFinished) {
		log.Warn().Msg("Retriever did not finish, using tool observations")
		return CleanAnswer(observations(outputs)), nil
	}
	if err != nil {
		return "", err
	}

	out, _ := outputs["output"].(string)
	return CleanAnswer(out), nil
}

func observations(outputs map[string]any) string {
	steps, _ := outputs["intermediateSteps"].([]schema.AgentStep)
	var parts []string
	for _, step := range steps {
		if step.Action.Tool == "" || strings.TrimSpace(step.Observation) == "" {
			continue
		}
		parts = append(parts, step.Observation)
	}
	return strings.Join(parts, models.WebResultSeparator)
}

// CleanAnswer drops reasoning blocks some models emit and trims whitespace.
func CleanAnswer(s string) string {
	return strings.TrimSpace(thinkTagRe.ReplaceAllString(s, ""))
}

func taskInput(task config.TaskConfig, query string) string {
	description := strings.ReplaceAll(task.Description, models.QueryPlaceholder, query)
	if task.ExpectedOutput == "" {
		return description
	}
	return description + "\n\nExpected output: " + strings.ReplaceAll(task.ExpectedOutput, models.QueryPlaceholder, query)
}

// retrieverPrefix renders the agent persona as a prompt prefix. The persona
// sees the bare query; the task text arrives as the executor input.
func retrieverPrefix(agent config.AgentConfig) string {
	return fmt.Sprintf(`Today is {{.today}}.
You are the %s.
Your goal: %s
%s

You have access to the following tools:

{{.tool_descriptions}}`,
		promptText(agent.Role, "{{.query}}"),
		promptText(agent.Goal, "{{.query}}"),
		promptText(agent.Backstory, "{{.query}}"),
	)
}

func synthesizerTemplate(agent config.AgentConfig, task config.TaskConfig) string {
	return fmt.Sprintf(`You are the %s.
Your goal: %s
%s

Task: %s
Expected output: %s

Retrieved information:
{{.context}}

Answer:`,
		promptText(agent.Role, "{{.query}}"),
		promptText(agent.Goal, "{{.query}}"),
		promptText(agent.Backstory, "{{.query}}"),
		promptText(task.Description, "{{.query}}"),
		promptText(task.ExpectedOutput, "{{.query}}"),
	)
}

// promptText escapes template delimiters in configured text and points the
// query placeholder at the template variable.
func promptText(s, queryVar string) string {
	return strings.ReplaceAll(templateEscaper.Replace(s), models.QueryPlaceholder, queryVar)
}

// isNil also catches typed nil pointers, e.g. a *docsearch.Tool that was
// never built because no file was given.
func isNil(t tools.Tool) bool {
	if t == nil {
		return true
	}
	v := reflect.ValueOf(t)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
