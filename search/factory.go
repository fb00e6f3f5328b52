package search

import (
	"context"

	"github.com/m4xw311/searchagent/config"
	"github.com/m4xw311/searchagent/errors"
)

// FromConfig builds the configured provider with its rate limit and cache.
// The returned close function releases subprocesses and connections.
func FromConfig(ctx context.Context, cfg *config.Search) (Provider, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var first error
		for _, c := range closers {
			if err := c(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	var p Provider
	switch cfg.Provider {
	case "duckduckgo":
		p = NewDuckDuckGo(cfg.Timeout)
	case "brave":
		p = NewBrave(cfg.APIKey, cfg.Timeout)
	case "tavily":
		p = NewTavily(cfg.APIKey, cfg.Depth, cfg.Timeout)
	case "mcp":
		name := cfg.MCP.Name
		if name == "" {
			name = "search"
		}
		m, err := NewMCP(ctx, name, cfg.MCP.Command, cfg.MCP.Args, cfg.MCP.Tool)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, m.Close)
		p = m
	case "mock":
		p = &Static{Results: []Result{
			{Title: "Example result", URL: "https://example.com", Snippet: "Static result for offline runs."},
		}}
	default:
		return nil, nil, errors.New("unknown search provider %q", cfg.Provider)
	}

	p = NewRateLimited(p, cfg.QPS)

	switch cfg.Cache.Backend {
	case "":
	case "memory":
		p = NewCached(p, NewMemoryStore(cfg.Cache.Size, cfg.Cache.TTL))
	case "redis":
		store, err := NewRedisStore(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, store.Close)
		p = NewCached(p, store)
	default:
		closeAll()
		return nil, nil, errors.New("unknown cache backend %q", cfg.Cache.Backend)
	}
	return p, closeAll, nil
}
