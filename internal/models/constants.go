package models

const (
	ResultSeparator    = "\n___\n"
	WebResultSeparator = "\n\n"
	MetadataSource     = "source"
	ThinkTag           = `(?s)<think>.*?</think>`
	QueryPlaceholder   = "{query}"
)

const (
	DocumentToolName        = "DocumentSearchTool"
	DocumentToolDescription = "Search the document for the given query."
	WebToolName             = "FireCrawlWebSearchTool"
	WebToolDescription      = "Search the web using FireCrawl for the given query."

	WebSearchUnavailable = "Web search is not available. FIRECRAWL_API_KEY is not set."
	WebSearchNoResults   = "No results found"
	WebSearchErrorPrefix = "Error searching web: "
	NotAvailable         = "N/A"
)
