package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/m4xw311/searchagent/errors"
	"github.com/m4xw311/searchagent/session"
	"github.com/m4xw311/searchagent/tools"
	ollama "github.com/ollama/ollama/api"
)

const defaultOllamaHost = "http://localhost:11434"

// OllamaLLMClient talks to a local or remote Ollama server. It needs no
// credential.
type OllamaLLMClient struct {
	client *ollama.Client
	model  string
}

// NewOllamaLLMClient creates a client for the Ollama server at host, or the
// default local address when host is empty.
func NewOllamaLLMClient(host, modelName string, httpClient *http.Client) (*OllamaLLMClient, error) {
	if host == "" {
		host = defaultOllamaHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid ollama host %q", host)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaLLMClient{client: ollama.NewClient(u, httpClient), model: modelName}, nil
}

// Chat sends a non-streaming chat request to Ollama.
func (o *OllamaLLMClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error) {
	stream := false
	req := &ollama.ChatRequest{
		Model:    o.model,
		Messages: convertMessagesToOllama(messages),
		Tools:    convertToolsToOllama(availableTools),
		Stream:   &stream,
	}

	var (
		content strings.Builder
		calls   []ollama.ToolCall
	)
	err := o.client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		calls = append(calls, resp.Message.ToolCalls...)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message to Ollama")
	}

	msg := &session.Message{Role: session.RoleAssistant, Content: content.String()}
	for i, tc := range calls {
		msg.ToolCalls = append(msg.ToolCalls, session.ToolCall{
			ToolCallID: fmt.Sprintf("call_%d_%s", i, tc.Function.Name),
			Name:       tc.Function.Name,
			Args:       map[string]interface{}(tc.Function.Arguments),
		})
	}
	return msg, nil
}

func convertMessagesToOllama(messages []session.Message) []ollama.Message {
	var out []ollama.Message
	for _, msg := range messages {
		m := ollama.Message{Role: msg.Role, Content: msg.Content}
		if msg.Role == session.RoleAssistant {
			for _, tc := range msg.ToolCalls {
				var call ollama.ToolCall
				call.Function.Name = tc.Name
				call.Function.Arguments = tc.Args
				m.ToolCalls = append(m.ToolCalls, call)
			}
		}
		out = append(out, m)
	}
	return out
}

func convertToolsToOllama(ts []tools.Tool) []ollama.Tool {
	var out []ollama.Tool
	for _, t := range ts {
		var fn ollama.ToolFunction
		fn.Name = t.Name()
		fn.Description = t.Description()
		fn.Parameters.Type = "object"
		fn.Parameters.Required = tools.RequiredParameters(t)
		fn.Parameters.Properties = make(map[string]ollama.ToolProperty)
		for name, p := range t.Parameters() {
			fn.Parameters.Properties[name] = ollama.ToolProperty{
				Type:        ollama.PropertyType{p.Type},
				Description: p.Description,
			}
		}
		out = append(out, ollama.Tool{Type: "function", Function: fn})
	}
	return out
}
