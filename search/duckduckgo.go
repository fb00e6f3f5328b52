package search

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/m4xw311/searchagent/errors"
)

const duckDuckGoEndpoint = "https://lite.duckduckgo.com/lite/"

// DuckDuckGo implements a searcher using DuckDuckGo's HTML lite interface.
// It needs no API key.
type DuckDuckGo struct {
	client   *http.Client
	endpoint string
}

// NewDuckDuckGo creates a DuckDuckGo searcher with the given request timeout.
func NewDuckDuckGo(timeout time.Duration) *DuckDuckGo {
	return NewDuckDuckGoWithClient(&http.Client{Timeout: timeout}, duckDuckGoEndpoint)
}

// NewDuckDuckGoWithClient creates a DuckDuckGo searcher posting to endpoint
// with the supplied HTTP client.
func NewDuckDuckGoWithClient(client *http.Client, endpoint string) *DuckDuckGo {
	return &DuckDuckGo{client: client, endpoint: endpoint}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Search scrapes the DuckDuckGo lite HTML page for results.
func (d *DuckDuckGo) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	count = normalizeCount(count)

	form := url.Values{}
	form.Set("q", query)
	resp, err := doWithBackoff(ctx, d.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "duckduckgo request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("duckduckgo http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read duckduckgo response")
	}
	return parseLiteResults(string(body), count), nil
}

var (
	ddgLinkRe     = regexp.MustCompile(`<a[^>]*class=['"]result-link['"][^>]*href=['"]([^'"]+)['"][^>]*>([\s\S]*?)</a>`)
	ddgLinkHrefRe = regexp.MustCompile(`<a[^>]*href=['"]([^'"]+)['"][^>]*class=['"]result-link['"][^>]*>([\s\S]*?)</a>`)
	ddgSnippetRe  = regexp.MustCompile(`(?s)<td[^>]*class=['"]result-snippet['"][^>]*>(.*?)</td>`)
	ddgAnyLinkRe  = regexp.MustCompile(`<a[^>]+href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	spaceRunRe    = regexp.MustCompile(`\s+`)
)

// parseLiteResults extracts result links and snippets from the lite page.
func parseLiteResults(page string, count int) []Result {
	matches := ddgLinkRe.FindAllStringSubmatch(page, -1)
	if len(matches) == 0 {
		matches = ddgLinkHrefRe.FindAllStringSubmatch(page, -1)
	}
	snippets := ddgSnippetRe.FindAllStringSubmatch(page, -1)

	var results []Result
	for i, m := range matches {
		link := unwrapRedirect(strings.TrimSpace(m[1]))
		title := cleanHTML(m[2])
		if link == "" || title == "" {
			continue
		}
		snippet := ""
		if i < len(snippets) {
			snippet = cleanHTML(snippets[i][1])
		}
		results = append(results, Result{Title: title, URL: link, Snippet: snippet})
		if len(results) >= count {
			break
		}
	}
	if len(results) == 0 {
		results = fallbackParse(page, count)
	}
	return results
}

// fallbackParse picks external links when the result markup is not found.
func fallbackParse(page string, count int) []Result {
	var results []Result
	seen := make(map[string]bool)
	for _, m := range ddgAnyLinkRe.FindAllStringSubmatch(page, -1) {
		link := unwrapRedirect(strings.TrimSpace(m[1]))
		title := cleanHTML(m[2])
		if strings.Contains(link, "duckduckgo.com") ||
			strings.HasPrefix(link, "/") ||
			strings.HasPrefix(link, "#") ||
			strings.HasPrefix(link, "javascript:") {
			continue
		}
		if len(title) < 5 || seen[link] {
			continue
		}
		seen[link] = true
		results = append(results, Result{Title: title, URL: link})
		if len(results) >= count {
			break
		}
	}
	return results
}

// unwrapRedirect extracts the target from DuckDuckGo's /l/?uddg= redirect links.
func unwrapRedirect(raw string) string {
	if !strings.Contains(raw, "uddg=") {
		return raw
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(html.UnescapeString(raw))
	if err != nil {
		return raw
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return raw
}

func cleanHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = spaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
