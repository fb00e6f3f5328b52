package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/m4xw311/searchagent/session"
	"github.com/m4xw311/searchagent/tools"
)

// LLMClient is the interface for interacting with a Large Language Model.
// Chat returns the model's next assistant message. Tool calls are returned
// in Message.ToolCalls for the caller to execute; clients never run tools.
type LLMClient interface {
	Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error)
}

// MockLLMClient replays scripted responses. Once the script is exhausted it
// falls back to a deterministic search-then-answer behaviour, which backs the
// "mock" llm client for offline runs.
type MockLLMClient struct {
	Responses []*session.Message
	Err       error

	mu       sync.Mutex
	requests [][]session.Message
}

func (m *MockLLMClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	idx := len(m.requests)
	m.requests = append(m.requests, append([]session.Message(nil), messages...))
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if idx < len(m.Responses) {
		resp := *m.Responses[idx]
		if resp.Role == "" {
			resp.Role = session.RoleAssistant
		}
		return &resp, nil
	}
	return mockReply(idx, messages, availableTools), nil
}

// Requests returns the message histories received so far.
func (m *MockLLMClient) Requests() [][]session.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]session.Message(nil), m.requests...)
}

func mockReply(idx int, messages []session.Message, availableTools []tools.Tool) *session.Message {
	if len(messages) == 0 {
		return &session.Message{Role: session.RoleAssistant}
	}
	last := messages[len(messages)-1]
	if last.Role == session.RoleTool {
		return &session.Message{
			Role:    session.RoleAssistant,
			Content: "Summary of what the web search found:\n" + last.Content,
		}
	}
	for _, t := range availableTools {
		if t.Name() == tools.WebSearchToolName {
			return &session.Message{
				Role: session.RoleAssistant,
				ToolCalls: []session.ToolCall{{
					ToolCallID: fmt.Sprintf("mock_call_%d", idx),
					Name:       tools.WebSearchToolName,
					Args:       map[string]interface{}{"query": mockQuery(last.Content)},
				}},
			}
		}
	}
	return &session.Message{
		Role:    session.RoleAssistant,
		Content: fmt.Sprintf("I am a mock LLM. You said: '%s'.", last.Content),
	}
}

// mockQuery pulls the first non-empty line out of a task prompt, minus any
// "Label: " prefix.
func mockQuery(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		if i := strings.Index(line, ": "); i >= 0 && i+2 < len(line) {
			line = line[i+2:]
		}
		return line
	}
	return content
}
