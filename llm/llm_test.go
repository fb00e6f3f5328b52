package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/m4xw311/searchagent/config"
	"github.com/m4xw311/searchagent/errors"
	"github.com/m4xw311/searchagent/session"
	"github.com/m4xw311/searchagent/tools"
)

func searchTool() tools.Tool {
	return &MockTool{name: tools.WebSearchToolName, description: "search"}
}

func conversation() []session.Message {
	return []session.Message{
		{Role: session.RoleSystem, Content: "be brief"},
		{Role: session.RoleUser, Content: "latest iPhone release"},
		{Role: session.RoleAssistant, ToolCalls: []session.ToolCall{
			{ToolCallID: "call_1", Name: "web_search", Args: map[string]interface{}{"query": "iphone"}},
		}},
		{Role: session.RoleTool, Content: "1. iPhone 16 | https://apple.com | new",
			ToolCalls: []session.ToolCall{{ToolCallID: "call_1", Name: "web_search"}}},
	}
}

func TestMockLLMClientScript(t *testing.T) {
	m := &MockLLMClient{Responses: []*session.Message{{Content: "Apple released..."}}}
	msg, err := m.Chat(context.Background(), []session.Message{{Role: "user", Content: "q"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Role != session.RoleAssistant || msg.Content != "Apple released..." {
		t.Errorf("unexpected message %+v", msg)
	}
	if len(m.Requests()) != 1 {
		t.Errorf("requests = %d", len(m.Requests()))
	}

	failing := &MockLLMClient{Err: fmt.Errorf("quota exceeded")}
	if _, err := failing.Chat(context.Background(), nil, nil); err == nil {
		t.Error("expected scripted error")
	}
}

func TestMockLLMClientFallback(t *testing.T) {
	m := &MockLLMClient{}
	ctx := context.Background()
	msgs := []session.Message{{Role: "user", Content: "\n  find go news\nmore instructions"}}

	first, err := m.Chat(ctx, msgs, []tools.Tool{searchTool()})
	if err != nil {
		t.Fatal(err)
	}
	if len(first.ToolCalls) != 1 || first.ToolCalls[0].Args["query"] != "find go news" {
		t.Fatalf("expected a web_search call, got %+v", first)
	}

	msgs = append(msgs, *first, session.Message{Role: "tool", Content: "results"})
	second, err := m.Chat(ctx, msgs, []tools.Tool{searchTool()})
	if err != nil {
		t.Fatal(err)
	}
	if len(second.ToolCalls) != 0 || !strings.Contains(second.Content, "results") {
		t.Errorf("expected a final answer, got %+v", second)
	}

	ctxDone, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := m.Chat(ctxDone, msgs, nil); err == nil {
		t.Error("expected cancelled context error")
	}
}

func TestConvertMessagesToGeminiContent(t *testing.T) {
	contents, system := convertMessagesToGeminiContent(conversation())
	if system != "be brief" {
		t.Errorf("system = %q", system)
	}
	if len(contents) != 3 {
		t.Fatalf("got %d contents, want 3", len(contents))
	}
	if contents[1].Role != "model" {
		t.Errorf("assistant role = %q", contents[1].Role)
	}
	if _, ok := contents[1].Parts[0].(genai.FunctionCall); !ok {
		t.Errorf("expected function call part, got %T", contents[1].Parts[0])
	}
	resp, ok := contents[2].Parts[0].(genai.FunctionResponse)
	if !ok || resp.Name != "web_search" {
		t.Errorf("expected function response, got %#v", contents[2].Parts[0])
	}

	// A second tool result joins the first.
	msgs := append(conversation(), session.Message{Role: "tool", Content: "more",
		ToolCalls: []session.ToolCall{{ToolCallID: "call_2", Name: "web_search"}}})
	contents, _ = convertMessagesToGeminiContent(msgs)
	if len(contents) != 3 || len(contents[2].Parts) != 2 {
		t.Errorf("tool results not merged: %d contents", len(contents))
	}
}

func TestConvertToolsToGeminiTools(t *testing.T) {
	gt := convertToolsToGeminiTools([]tools.Tool{searchTool()})
	if len(gt) != 1 || len(gt[0].FunctionDeclarations) != 1 {
		t.Fatalf("unexpected tools %+v", gt)
	}
	params := gt[0].FunctionDeclarations[0].Parameters
	if params.Properties["query"].Type != genai.TypeString {
		t.Errorf("query type = %v", params.Properties["query"].Type)
	}
	if len(params.Required) != 1 || params.Required[0] != "query" {
		t.Errorf("required = %v", params.Required)
	}
	if convertToolsToGeminiTools(nil) != nil {
		t.Error("no tools should convert to nil")
	}
}

func TestConvertMessagesToOpenaiContent(t *testing.T) {
	msgs := convertMessagesToOpenaiContent(conversation())
	if len(msgs) != 4 {
		t.Errorf("got %d messages, want 4", len(msgs))
	}
	// A tool message without its call id is dropped.
	msgs = convertMessagesToOpenaiContent([]session.Message{{Role: "tool", Content: "x"}})
	if len(msgs) != 0 {
		t.Errorf("malformed tool message kept")
	}
}

func TestConvertMessagesToAnthropicMessages(t *testing.T) {
	msgs, system := convertMessagesToAnthropicMessages(conversation())
	if system != "be brief" {
		t.Errorf("system = %q", system)
	}
	if len(msgs) != 3 {
		t.Errorf("got %d messages, want 3", len(msgs))
	}
	ts := convertToolsToAnthropicTools([]tools.Tool{searchTool()})
	if len(ts) != 1 || ts[0].Name != tools.WebSearchToolName {
		t.Errorf("unexpected tools %+v", ts)
	}
}

func TestDecodeToolArguments(t *testing.T) {
	if args := decodeToolArguments(`{"query":"go"}`); args["query"] != "go" {
		t.Errorf("args = %v", args)
	}
	if args := decodeToolArguments(""); args == nil || len(args) != 0 {
		t.Errorf("empty arguments should decode to an empty map")
	}
	if decodeToolArguments("{broken") != nil {
		t.Error("malformed arguments should decode to nil")
	}
}

func TestLiteLLMClientChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer proxy-key" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role       string `json:"role"`
				ToolCallID string `json:"tool_call_id"`
			} `json:"messages"`
			Tools []json.RawMessage `json:"tools"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "gpt-4o-mini" || len(req.Tools) != 1 {
			t.Errorf("unexpected request %+v", req)
		}
		if last := req.Messages[len(req.Messages)-1]; last.Role != "tool" || last.ToolCallID != "call_1" {
			t.Errorf("last message = %+v", last)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,
			"message":{"role":"assistant","content":"Apple released the iPhone 16."},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	c, err := NewLiteLLMClient("proxy-key", srv.URL, "gpt-4o-mini")
	if err != nil {
		t.Fatal(err)
	}
	msg, err := c.Chat(context.Background(), conversation(), []tools.Tool{searchTool()})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if msg.Content != "Apple released the iPhone 16." {
		t.Errorf("content = %q", msg.Content)
	}
}

func TestOllamaLLMClientChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req["stream"] != false {
			t.Errorf("stream = %v", req["stream"])
		}
		w.Header().Set("Content-Type", "application/json")
		// Ollama streams newline-delimited JSON, so the reply must stay on one line.
		fmt.Fprintln(w, `{"model":"llama3.1","message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"web_search","arguments":{"query":"golang"}}}]},"done":true}`)
	}))
	defer srv.Close()

	c, err := NewOllamaLLMClient(srv.URL, "llama3.1", srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	msg, err := c.Chat(context.Background(), []session.Message{{Role: "user", Content: "go"}}, []tools.Tool{searchTool()})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].Name != "web_search" || msg.ToolCalls[0].Args["query"] != "golang" {
		t.Errorf("tool calls = %+v", msg.ToolCalls)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.LLMClient = "mock"
	c, err := FromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*MockLLMClient); !ok {
		t.Errorf("got %T", c)
	}

	cfg.LLMClient = "openai"
	cfg.Credential = ""
	if _, err := FromConfig(context.Background(), cfg); !errors.Is(err, errors.ErrMissingCredential) {
		t.Errorf("expected missing credential, got %v", err)
	}

	cfg.LLMClient = "nope"
	if _, err := FromConfig(context.Background(), cfg); err == nil {
		t.Error("expected unknown client error")
	}
}

func TestMockQuery(t *testing.T) {
	if got := mockQuery("Search the web for: latest iPhone release\n\nFollow these steps:"); got != "latest iPhone release" {
		t.Errorf("mockQuery = %q", got)
	}
	if got := mockQuery("plain"); got != "plain" {
		t.Errorf("mockQuery = %q", got)
	}
}
