// Package websearch implements the external search source for
// retrieval, backed by the DuckDuckGo Instant Answer API.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/recall-dev/recall/internal/retrieval"
)

const (
	defaultBaseURL = "https://api.duckduckgo.com/"
	defaultTimeout = 2 * time.Second
	userAgent      = "recall/1.0"
)

// DuckDuckGo queries the Instant Answer API and adapts its answer,
// abstract and related topics into retrieval snippets. It implements
// retrieval.Searcher.
type DuckDuckGo struct {
	baseURL string
	client  *http.Client
}

// Option configures a DuckDuckGo client.
type Option func(*DuckDuckGo)

// WithBaseURL overrides the API endpoint, used in tests.
func WithBaseURL(u string) Option {
	return func(d *DuckDuckGo) { d.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *DuckDuckGo) { d.client = c }
}

// New returns a DuckDuckGo search client.
func New(opts ...Option) *DuckDuckGo {
	d := &DuckDuckGo{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// apiResponse is the subset of the Instant Answer payload we read.
type apiResponse struct {
	Abstract    string  `json:"Abstract"`
	AbstractURL string  `json:"AbstractURL"`
	Answer      string  `json:"Answer"`
	Results     []topic `json:"Results"`
	Related     []topic `json:"RelatedTopics"`
}

type topic struct {
	Text     string  `json:"Text"`
	FirstURL string  `json:"FirstURL"`
	Topics   []topic `json:"Topics"`
}

// Search runs query against the API and returns up to maxResults
// snippets, most authoritative first: the answer, then the abstract,
// then direct results and related topics.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]retrieval.Snippet, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	endpoint := fmt.Sprintf("%s?q=%s&format=json&no_html=1&skip_disambig=1",
		d.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	return collectSnippets(parsed, maxResults), nil
}

func collectSnippets(parsed apiResponse, maxResults int) []retrieval.Snippet {
	var snippets []retrieval.Snippet

	add := func(text, path string) {
		if len(snippets) >= maxResults {
			return
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		snippets = append(snippets, retrieval.Snippet{
			Text:   text,
			Origin: "web",
			Path:   path,
		})
	}

	add(parsed.Answer, "")
	add(parsed.Abstract, parsed.AbstractURL)

	var walk func(topics []topic)
	walk = func(topics []topic) {
		for _, tp := range topics {
			if len(snippets) >= maxResults {
				return
			}
			if tp.Text != "" {
				add(tp.Text, tp.FirstURL)
				continue
			}
			walk(tp.Topics)
		}
	}
	walk(parsed.Results)
	walk(parsed.Related)

	return snippets
}
