// Package search provides the web search backends used by the agent's
// web_search tool.
//
// Available providers:
//
//   - DuckDuckGo: free, no API key (scrapes lite.duckduckgo.com)
//   - Brave: requires BRAVE_API_KEY
//   - Tavily: requires TAVILY_API_KEY, supports basic/advanced depth
//   - MCP: forwards to a search tool of an MCP server subprocess
//
// Providers can be wrapped with NewRateLimited and NewCached. FromConfig
// assembles the stack described by the search section of the configuration:
//
//	provider, closeFn, err := search.FromConfig(ctx, &cfg.Search)
//	if err != nil {
//	    // handle error
//	}
//	defer closeFn()
//	results, err := provider.Search(ctx, "golang web frameworks", 5)
package search
