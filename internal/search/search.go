package search

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/scholar/config"
	"github.com/mohammad-safakhou/scholar/internal/telemetry"
)

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher is the web search collaborator. Implementations are stateless;
// each call is independent and may fail on its own.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// NewSearcher creates a web searcher based on configuration. When
// search.fetch_content is enabled the searcher is wrapped so each hit's
// snippet is replaced by readable page text where extraction succeeds.
func NewSearcher(cfg config.SearchConfig, tele *telemetry.Telemetry) (Searcher, error) {
	max := cfg.MaxResults
	if max <= 0 {
		max = 5
	}
	var s Searcher
	switch cfg.Provider {
	case "serper", "":
		s = &SerperClient{APIKey: cfg.SerperAPIKey, MaxResults: max, tele: tele}
	case "brave":
		s = &BraveClient{APIKey: cfg.BraveAPIKey, MaxResults: max, tele: tele}
	default:
		return nil, fmt.Errorf("unsupported search provider: %s", cfg.Provider)
	}
	if cfg.FetchContent {
		s = NewContentFetcher(s, cfg.FetchTimeout)
	}
	return s, nil
}
