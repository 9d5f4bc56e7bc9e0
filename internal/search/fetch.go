package search

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const fetchMaxBodyBytes = 2 << 20 // 2 MiB per page is plenty for extraction

// ContentFetcher wraps a Searcher and replaces each hit's snippet with the
// readable text of the page. Extraction is best effort: any fetch or parse
// failure keeps the snippet the provider returned.
type ContentFetcher struct {
	inner    Searcher
	http     *http.Client
	maxChars int
	logger   *log.Logger
}

// NewContentFetcher wraps inner with page-content extraction.
func NewContentFetcher(inner Searcher, timeout time.Duration) *ContentFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ContentFetcher{
		inner:    inner,
		http:     &http.Client{Timeout: timeout},
		maxChars: 8000,
		logger:   log.New(log.Writer(), "[FETCH] ", log.LstdFlags),
	}
}

func (f *ContentFetcher) Search(ctx context.Context, query string) ([]Result, error) {
	results, err := f.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	for i := range results {
		text, err := f.extract(ctx, results[i].URL)
		if err != nil {
			f.logger.Printf("content extraction failed for %s, keeping snippet: %v", results[i].URL, err)
			continue
		}
		if text != "" {
			results[i].Snippet = text
		}
	}
	return results, nil
}

func (f *ContentFetcher) extract(ctx context.Context, link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "GET", link, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "scholar/1.0")

	resp, err := f.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, fetchMaxBodyBytes), u)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	if len(text) > f.maxChars {
		text = text[:f.maxChars]
	}
	return text, nil
}
