package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mohammad-safakhou/scholar/internal/telemetry"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// BraveClient implements Searcher using the Brave web search API.
type BraveClient struct {
	APIKey     string
	MaxResults int
	Endpoint   string // overridable for tests
	HTTP       *http.Client
	tele       *telemetry.Telemetry
}

func (b *BraveClient) Search(ctx context.Context, query string) ([]Result, error) {
	// https://api.search.brave.com/app/documentation/web-search
	endpoint := b.Endpoint
	if endpoint == "" {
		endpoint = braveEndpoint
	}
	u := fmt.Sprintf("%s?q=%s&count=%d", endpoint, url.QueryEscape(query), b.MaxResults)
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)

	client := b.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		b.tele.RecordSearch("brave", err)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("brave status %d", resp.StatusCode)
		b.tele.RecordSearch("brave", err)
		return nil, err
	}

	var raw struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		b.tele.RecordSearch("brave", err)
		return nil, err
	}

	var out []Result
	for i, r := range raw.Web.Results {
		if i >= b.MaxResults {
			break
		}
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	b.tele.RecordSearch("brave", nil)
	return out, nil
}
