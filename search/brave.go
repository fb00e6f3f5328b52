package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/m4xw311/searchagent/errors"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Brave uses the Brave Search API. An API key is required via X-Subscription-Token.
type Brave struct {
	apiKey   string
	client   *http.Client
	endpoint string
}

// NewBrave constructs a Brave search provider.
func NewBrave(apiKey string, timeout time.Duration) *Brave {
	return NewBraveWithClient(apiKey, &http.Client{Timeout: timeout}, braveEndpoint)
}

// NewBraveWithClient constructs a Brave search provider using the supplied
// HTTP client and endpoint.
func NewBraveWithClient(apiKey string, client *http.Client, endpoint string) *Brave {
	return &Brave{apiKey: apiKey, client: client, endpoint: endpoint}
}

func (b *Brave) Name() string { return "brave" }

func (b *Brave) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	count = normalizeCount(count)

	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(count))
	reqURL := b.endpoint + "?" + q.Encode()

	resp, err := doWithBackoff(ctx, b.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Subscription-Token", b.apiKey)
		return req, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "brave request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read brave response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("brave API returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var braveResp struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &braveResp); err != nil {
		return nil, errors.Wrapf(err, "failed to parse brave response")
	}

	results := make([]Result, 0, len(braveResp.Web.Results))
	for _, r := range braveResp.Web.Results {
		results = append(results, Result{
			Title:   cleanHTML(r.Title),
			URL:     r.URL,
			Snippet: cleanHTML(r.Description),
		})
	}
	return clamp(results, count), nil
}
