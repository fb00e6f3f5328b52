// Package mcpserver exposes the search agent as a Model Context Protocol
// tool over stdio, so other agents can delegate research to it.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m4xw311/searchagent/agent"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ToolName        = "web_search_summary"
	toolDescription = "Search the web for a topic and return a synthesized summary with source links. An empty query researches the default topic."
)

// Asker runs one query through the agent pipeline.
type Asker interface {
	Ask(ctx context.Context, query string) (agent.Answer, error)
}

type SearchArgs struct {
	Query string `json:"query" jsonschema:"the topic to research on the web"`
}

// New returns an MCP server offering the web_search_summary tool. Each call
// is bounded by timeout when it is positive.
func New(asker Asker, version string, timeout time.Duration) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "searchagent", Version: version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolName,
		Description: toolDescription,
	}, searchHandler(asker, timeout))
	return server
}

// Run serves MCP over stdin/stdout until ctx is done or the client hangs up.
func Run(ctx context.Context, asker Asker, version string, timeout time.Duration) error {
	return New(asker, version, timeout).Run(ctx, mcp.NewStdioTransport())
}

func searchHandler(asker Asker, timeout time.Duration) func(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[SearchArgs]) (*mcp.CallToolResultFor[any], error) {
	return func(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[SearchArgs]) (*mcp.CallToolResultFor[any], error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		answer, err := asker.Ask(ctx, params.Arguments.Query)
		if err != nil {
			slog.Error("mcp.search_failed", "query", params.Arguments.Query, "error", err)
			// Failures go back to the calling model as tool output.
			return &mcp.CallToolResultFor[any]{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("search failed: %v", err)}},
			}, nil
		}
		slog.Info("mcp.search_answered", "query", answer.Query, "steps", answer.Steps)
		return &mcp.CallToolResultFor[any]{
			Content: []mcp.Content{&mcp.TextContent{Text: answer.Text}},
		}, nil
	}
}
