package search

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/m4xw311/searchagent/config"
	"github.com/m4xw311/searchagent/errors"
)

const (
	// DefaultCount is the number of results requested when the caller passes 0.
	DefaultCount = 5
	// MaxCount bounds the number of results any provider returns.
	MaxCount = config.MaxResultCount
	// maxResponseBytes bounds how much of a provider response is read.
	maxResponseBytes = 2 << 20

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Result is a single item returned by a Provider.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Provider executes a web query and returns ranked results.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, count int) ([]Result, error)
}

// Static returns the same results for every query. It backs the "mock"
// provider used for local runs without network access.
type Static struct {
	Results []Result
}

func (s *Static) Name() string { return "mock" }

func (s *Static) Search(ctx context.Context, query string, count int) ([]Result, error) {
	return clamp(s.Results, normalizeCount(count)), nil
}

func normalizeCount(count int) int {
	if count <= 0 {
		return DefaultCount
	}
	if count > MaxCount {
		return MaxCount
	}
	return count
}

func clamp(results []Result, count int) []Result {
	if len(results) > count {
		return results[:count]
	}
	return results
}

func validateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return errors.New("query is empty")
	}
	return nil
}

// doWithBackoff sends the request built by newReq, retrying on 429 with a
// doubling delay. The caller closes the returned body.
func doWithBackoff(ctx context.Context, client *http.Client, newReq func() (*http.Request, error)) (*http.Response, error) {
	const maxAttempts = 4
	delay := time.Second
	for attempt := 1; ; attempt++ {
		req, err := newReq()
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt == maxAttempts {
			return resp, nil
		}
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
