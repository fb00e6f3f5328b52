package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m4xw311/searchagent/errors"
	"github.com/m4xw311/searchagent/search"
)

const WebSearchToolName = "web_search"

// WebSearchTool exposes a search.Provider to the model.
type WebSearchTool struct {
	provider search.Provider
	count    int
	filter   *DomainFilter
}

// NewWebSearchTool returns a tool that fetches up to count results per call.
// A nil filter keeps every result.
func NewWebSearchTool(p search.Provider, count int, filter *DomainFilter) *WebSearchTool {
	if count <= 0 {
		count = search.DefaultCount
	}
	return &WebSearchTool{provider: p, count: count, filter: filter}
}

func (t *WebSearchTool) Name() string { return WebSearchToolName }

func (t *WebSearchTool) Description() string {
	return fmt.Sprintf("Performs a web search and returns up to %d results, each with a title, "+
		"source URL and snippet. Args: query (string).", t.count)
}

func (t *WebSearchTool) Parameters() map[string]Parameter {
	return map[string]Parameter{
		"query":       {Type: "string", Description: "The web search query.", Required: true},
		"max_results": {Type: "integer", Description: fmt.Sprintf("Number of results to return, at most %d.", search.MaxCount)},
	}
}

// Execute runs the search. Argument errors are plain errors the model can
// correct; provider failures are returned as search CapabilityErrors.
func (t *WebSearchTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}

	count := intArg(args, "max_results", t.count)
	if count <= 0 || count > search.MaxCount {
		count = t.count
	}

	start := time.Now()
	results, err := t.provider.Search(ctx, query, count)
	if err != nil {
		slog.WarnContext(ctx, "search.failed", "provider", t.provider.Name(), "query", query, "error", err)
		return "", errors.Capabilityf(errors.CapabilitySearch, err, "%s search for %q", t.provider.Name(), query)
	}
	kept := t.filter.Apply(results)
	slog.InfoContext(ctx, "search.request",
		"provider", t.provider.Name(),
		"query", query,
		"results", len(results),
		"kept", len(kept),
		"duration", time.Since(start),
	)
	return FormatResults(query, kept), nil
}

// FormatResults renders results as a numbered "title | url | snippet" list.
func FormatResults(query string, results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", query)
	if len(results) == 0 {
		b.WriteString("(no results returned)\n")
		return b.String()
	}
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s | %s | %s\n", i+1,
			strings.TrimSpace(r.Title), strings.TrimSpace(r.URL), strings.TrimSpace(r.Snippet))
	}
	return b.String()
}
