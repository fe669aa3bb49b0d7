package config

// Upper bounds on the number of results a single search returns.
const (
	MaxTopK       = 5
	MaxWebResults = 5
)

const (
	defaultEmbedProvider     = "ollama"
	defaultInferenceProvider = "openai"
	defaultDimensions        = 256

	defaultSimilarityThreshold = 0.5
	defaultChunkSize           = 512
	defaultMinSentences        = 1
	defaultMinSentenceChars    = 12
	defaultTopK                = 5
	defaultCollectionName      = "demo_collection"

	defaultFirecrawlURL    = "https://api.firecrawl.dev"
	defaultWebLimit        = 5
	defaultMaxContentChars = 1000
	defaultWebTimeout      = 30 // seconds
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 60 // seconds

	defaultMaxIterations = 5
)

var (
	defaultRetriever = AgentConfig{
		Role: "Retriever of relevant information",
		Goal: "Retrieve the most relevant information from the available sources for the user query: {query}. " +
			"Use the document search tool first when it is available; fall back to web search when the document " +
			"does not cover the question.",
		Backstory: "You are a meticulous analyst with a keen eye for detail. You understand the user query and " +
			"route it to the right source before gathering the passages that answer it.",
	}

	defaultSynthesizer = AgentConfig{
		Role:      "Response synthesizer",
		Goal:      "Synthesize the retrieved information into a concise and coherent answer to the user query: {query}.",
		Backstory: "You are a skilled communicator who turns raw search results into clear, accurate answers.",
	}

	defaultRetrievalTask = TaskConfig{
		Description: "Retrieve the most relevant information from the available sources for the user query: {query}",
		ExpectedOutput: "The most relevant information, as raw text, taken from the document or the web. " +
			"If nothing relevant was found, say so.",
	}

	defaultResponseTask = TaskConfig{
		Description: "Synthesize the final response for the user query: {query}",
		ExpectedOutput: "A concise and coherent response based on the retrieved information. " +
			"If the information does not answer the query, reply \"I'm sorry, I couldn't find the information you're looking for.\"",
	}
)

func (c *CrewConfig) applyDefaults() {
	c.Retriever = c.Retriever.withDefaults(defaultRetriever)
	c.Synthesizer = c.Synthesizer.withDefaults(defaultSynthesizer)
	c.RetrievalTask = c.RetrievalTask.withDefaults(defaultRetrievalTask)
	c.ResponseTask = c.ResponseTask.withDefaults(defaultResponseTask)
	if c.MaxIterations == 0 {
		c.MaxIterations = defaultMaxIterations
	}
}

func (a AgentConfig) withDefaults(d AgentConfig) AgentConfig {
	if a.Role == "" {
		a.Role = d.Role
	}
	if a.Goal == "" {
		a.Goal = d.Goal
	}
	if a.Backstory == "" {
		a.Backstory = d.Backstory
	}
	return a
}

func (t TaskConfig) withDefaults(d TaskConfig) TaskConfig {
	if t.Description == "" {
		t.Description = d.Description
	}
	if t.ExpectedOutput == "" {
		t.ExpectedOutput = d.ExpectedOutput
	}
	return t
}
