// Package websearch queries the search worker and crawls each result's
// page through the openlink worker.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/arman-dogru/baklava-bot/internal/logging"
)

// Client talks to the search and page-fetch workers
type Client struct {
	searchURL string
	fetchURL  string
	client    *http.Client
}

// NewClient creates a web search client. Both URLs point at GET endpoints:
// searchURL takes ?query= and returns a JSON array of results, fetchURL
// takes ?url= and returns cleaned plain text for the page.
func NewClient(searchURL, fetchURL string) *Client {
	return &Client{
		searchURL: searchURL,
		fetchURL:  fetchURL,
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// searchItem is the search worker's response format
type searchItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// Result is one search hit with its crawled page content merged in
type Result struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	CombinedText string `json:"combinedText"`
}

// Search runs the query and crawls each result's link. A failed crawl
// degrades that one result to an empty page body; it never drops the
// result or fails the search.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	items, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(items))
	for _, item := range items {
		content, err := c.fetchPage(ctx, item.Link)
		if err != nil {
			logging.Debug("websearch", "crawl failed for %s: %v", item.Link, err)
			content = ""
		}
		results = append(results, Result{
			Title:        item.Title,
			URL:          item.Link,
			CombinedText: fmt.Sprintf("Snippet: %s\nCrawled Content: %s", item.Snippet, content),
		})
	}

	return results, nil
}

// search calls the search worker
func (c *Client) search(ctx context.Context, query string) ([]searchItem, error) {
	u := fmt.Sprintf("%s?query=%s", c.searchURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed: %s", resp.Status)
	}

	var items []searchItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	return items, nil
}

// fetchPage calls the openlink worker for a single result's page text
func (c *Client) fetchPage(ctx context.Context, pageURL string) (string, error) {
	u := fmt.Sprintf("%s?url=%s", c.fetchURL, url.QueryEscape(pageURL))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return "", fmt.Errorf("create crawl request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("crawl request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("crawl request failed: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read crawl response: %w", err)
	}

	return string(body), nil
}
