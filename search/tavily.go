package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/m4xw311/searchagent/errors"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// Tavily calls the Tavily search API.
type Tavily struct {
	apiKey   string
	client   *http.Client
	endpoint string
	// depth is Tavily's search_depth parameter ("basic" or "advanced").
	depth string
}

// NewTavily constructs a Tavily search provider.
func NewTavily(apiKey, depth string, timeout time.Duration) *Tavily {
	return NewTavilyWithClient(apiKey, depth, &http.Client{Timeout: timeout}, tavilyEndpoint)
}

// NewTavilyWithClient constructs a Tavily search provider using the supplied
// HTTP client and endpoint.
func NewTavilyWithClient(apiKey, depth string, client *http.Client, endpoint string) *Tavily {
	if depth == "" {
		depth = "basic"
	}
	return &Tavily{apiKey: apiKey, depth: depth, client: client, endpoint: endpoint}
}

func (t *Tavily) Name() string { return "tavily" }

func (t *Tavily) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	count = normalizeCount(count)

	payload, err := json.Marshal(map[string]any{
		"query":        query,
		"api_key":      t.apiKey,
		"search_depth": t.depth,
		"max_results":  count,
	})
	if err != nil {
		return nil, err
	}

	resp, err := doWithBackoff(ctx, t.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "tavily request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.New("tavily http %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var response struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&response); err != nil {
		return nil, errors.Wrapf(err, "failed to parse tavily response")
	}

	results := make([]Result, 0, len(response.Results))
	for _, r := range response.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return clamp(results, count), nil
}
