package websearch

type searchRequest struct {
	Query         string        `json:"query"`
	Limit         int           `json:"limit,omitempty"`
	ScrapeOptions scrapeOptions `json:"scrapeOptions"`
}

type scrapeOptions struct {
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type searchResponse struct {
	Success bool           `json:"success"`
	Data    *[]searchResult `json:"data"`
	Warning string         `json:"warning,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type searchResult struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Markdown string `json:"markdown"`
}
