package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mohammad-safakhou/scholar/internal/telemetry"
)

const serperEndpoint = "https://google.serper.dev/search"

// SerperClient implements Searcher using serper.dev.
type SerperClient struct {
	APIKey     string
	MaxResults int
	Endpoint   string // overridable for tests
	HTTP       *http.Client
	tele       *telemetry.Telemetry
}

func (s *SerperClient) Search(ctx context.Context, query string) ([]Result, error) {
	// https://serper.dev/ docs
	payload, _ := json.Marshal(map[string]any{"q": query, "num": s.MaxResults})
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = serperEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := s.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		s.tele.RecordSearch("serper", err)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("serper status %d", resp.StatusCode)
		s.tele.RecordSearch("serper", err)
		return nil, err
	}

	var raw struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		s.tele.RecordSearch("serper", err)
		return nil, err
	}

	var out []Result
	for i, item := range raw.Organic {
		if i >= s.MaxResults {
			break
		}
		out = append(out, Result{Title: item.Title, URL: item.Link, Snippet: item.Snippet})
	}
	s.tele.RecordSearch("serper", nil)
	return out, nil
}
