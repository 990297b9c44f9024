package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const samplePayload = `{
	"Abstract": "Go is a statically typed programming language.",
	"AbstractURL": "https://en.wikipedia.org/wiki/Go_(programming_language)",
	"Answer": "",
	"Results": [
		{"Text": "The Go Programming Language", "FirstURL": "https://go.dev"}
	],
	"RelatedTopics": [
		{"Text": "Goroutine - lightweight thread", "FirstURL": "https://go.dev/tour"},
		{"Topics": [
			{"Text": "Channels - typed conduits", "FirstURL": "https://go.dev/doc"}
		]}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *DuckDuckGo {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestSearchParsesAllSections(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(samplePayload))
	})

	snippets, err := client.Search(context.Background(), "golang concurrency", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "golang concurrency" {
		t.Errorf("query sent = %q", gotQuery)
	}

	if len(snippets) != 4 {
		t.Fatalf("got %d snippets, want 4: %+v", len(snippets), snippets)
	}
	// Abstract first, then results, then related topics (nested included).
	if snippets[0].Text != "Go is a statically typed programming language." {
		t.Errorf("first snippet = %q, want the abstract", snippets[0].Text)
	}
	if snippets[3].Path != "https://go.dev/doc" {
		t.Errorf("nested topic url = %q", snippets[3].Path)
	}
	for _, s := range snippets {
		if s.Origin != "web" {
			t.Errorf("snippet origin = %q, want web", s.Origin)
		}
	}
}

func TestSearchHonorsMaxResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePayload))
	})

	snippets, err := client.Search(context.Background(), "golang", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(snippets) != 2 {
		t.Errorf("got %d snippets, want 2", len(snippets))
	}
}

func TestSearchReportsServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := client.Search(context.Background(), "golang", 5); err == nil {
		t.Error("Search returned nil error on HTTP 502")
	}
}

func TestSearchEmptyPayloadYieldsNoSnippets(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	snippets, err := client.Search(context.Background(), "obscure query", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(snippets) != 0 {
		t.Errorf("got %d snippets, want 0", len(snippets))
	}
}
