package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/m4xw311/searchagent/errors"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCP delegates searches to a tool exposed by an MCP server subprocess, such
// as a SearXNG or Kagi bridge.
type MCP struct {
	name     string
	toolName string
	cmd      *exec.Cmd
	conn     *mcpsdk.ClientSession
}

// NewMCP starts the MCP server subprocess and checks that it offers toolName.
func NewMCP(ctx context.Context, name, command string, args []string, toolName string) (*MCP, error) {
	if toolName == "" {
		toolName = "search"
	}
	cmd := exec.Command(command, args...)
	cmd.Stderr = os.Stderr
	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "searchagent", Version: "v1.0.0"}, nil)
	conn, err := client.Connect(ctx, mcpsdk.NewCommandTransport(cmd))
	if err != nil {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		return nil, errors.Wrapf(err, "failed to connect to MCP server '%s'", name)
	}
	m := &MCP{name: name, toolName: toolName, cmd: cmd, conn: conn}

	found := false
	params := &mcpsdk.ListToolsParams{}
	for !found {
		list, err := conn.ListTools(ctx, params)
		if err != nil {
			m.Close()
			return nil, errors.Wrapf(err, "failed to list tools from MCP server '%s'", name)
		}
		for _, t := range list.Tools {
			if t.Name == toolName {
				found = true
				break
			}
		}
		if list.NextCursor == "" {
			break
		}
		params.Cursor = list.NextCursor
	}
	if !found {
		m.Close()
		return nil, errors.New("MCP server '%s' has no tool named '%s'", name, toolName)
	}

	slog.Info("search.mcp_connected", "server", name, "tool", toolName)
	return m, nil
}

func (m *MCP) Name() string { return "mcp:" + m.name }

// Search calls the server's search tool. A JSON array of results in the
// tool output is decoded; any other text becomes a single snippet.
func (m *MCP) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	count = normalizeCount(count)

	res, err := m.conn.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      m.toolName,
		Arguments: map[string]any{"query": query, "max_results": count},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to call tool '%s'", m.toolName)
	}

	var text strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			text.WriteString(tc.Text)
		}
	}
	if res.IsError {
		return nil, errors.New("MCP tool '%s' failed: %s", m.toolName, truncate(text.String(), 200))
	}
	return clamp(decodeToolOutput(text.String()), count), nil
}

func decodeToolOutput(out string) []Result {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}
	var results []Result
	if strings.HasPrefix(out, "[") && json.Unmarshal([]byte(out), &results) == nil {
		return results
	}
	return []Result{{Title: "MCP search result", Snippet: out}}
}

// Close terminates the MCP server subprocess.
func (m *MCP) Close() error {
	if m.conn != nil {
		m.conn.Close()
	}
	if m.cmd != nil && m.cmd.Process != nil {
		slog.Info("search.mcp_stopped", "server", m.name)
		return m.cmd.Process.Kill()
	}
	return nil
}
