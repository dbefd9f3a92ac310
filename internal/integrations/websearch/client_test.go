package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newWorkers(t *testing.T, items []searchItem, failFetchFor string) (*httptest.Server, *httptest.Server) {
	t.Helper()

	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got == "" {
			t.Errorf("search worker called without query param")
		}
		json.NewEncoder(w).Encode(items)
	}))
	t.Cleanup(search.Close)

	fetch := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := r.URL.Query().Get("url")
		if u == failFetchFor {
			http.Error(w, "crawl failed", http.StatusBadGateway)
			return
		}
		fmt.Fprintf(w, "page text for %s", u)
	}))
	t.Cleanup(fetch.Close)

	return search, fetch
}

func TestSearchMergesSnippetAndCrawledContent(t *testing.T) {
	items := []searchItem{
		{Title: "One", Snippet: "first snippet", Link: "https://a.example"},
	}
	search, fetch := newWorkers(t, items, "")
	c := NewClient(search.URL, fetch.URL)

	results, err := c.Search(context.Background(), "baklava")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	r := results[0]
	if r.Title != "One" || r.URL != "https://a.example" {
		t.Errorf("result = %+v", r)
	}
	if !strings.Contains(r.CombinedText, "Snippet: first snippet") {
		t.Errorf("combined text missing snippet: %q", r.CombinedText)
	}
	if !strings.Contains(r.CombinedText, "Crawled Content: page text for https://a.example") {
		t.Errorf("combined text missing crawled content: %q", r.CombinedText)
	}
}

func TestFailedCrawlDegradesToEmptyContent(t *testing.T) {
	items := []searchItem{
		{Title: "One", Snippet: "s1", Link: "https://a.example"},
		{Title: "Two", Snippet: "s2", Link: "https://b.example"},
		{Title: "Three", Snippet: "s3", Link: "https://c.example"},
	}
	search, fetch := newWorkers(t, items, "https://b.example")
	c := NewClient(search.URL, fetch.URL)

	results, err := c.Search(context.Background(), "pistachios")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 (failed crawl must not drop its result)", len(results))
	}

	if results[1].CombinedText != "Snippet: s2\nCrawled Content: " {
		t.Errorf("failed crawl combined text = %q, want empty crawled content", results[1].CombinedText)
	}
	if !strings.Contains(results[0].CombinedText, "page text for https://a.example") {
		t.Errorf("healthy result 0 missing content: %q", results[0].CombinedText)
	}
	if !strings.Contains(results[2].CombinedText, "page text for https://c.example") {
		t.Errorf("healthy result 2 missing content: %q", results[2].CombinedText)
	}
}

func TestSearchWorkerFailurePropagates(t *testing.T) {
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "worker down", http.StatusInternalServerError)
	}))
	defer search.Close()

	c := NewClient(search.URL, search.URL)
	if _, err := c.Search(context.Background(), "anything"); err == nil {
		t.Error("Search succeeded against a failing worker, want error")
	}
}
