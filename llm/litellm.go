package llm

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/m4xw311/searchagent/errors"
	"github.com/m4xw311/searchagent/session"
	"github.com/m4xw311/searchagent/tools"
	goopenai "github.com/sashabaranov/go-openai"
)

const defaultLiteLLMBaseURL = "http://localhost:4000/v1"

// LiteLLMClient talks to a LiteLLM proxy or any other server exposing the
// OpenAI chat completions API.
type LiteLLMClient struct {
	client *goopenai.Client
	model  string
}

// NewLiteLLMClient creates a client for the proxy at baseURL, or the default
// local proxy address when baseURL is empty.
func NewLiteLLMClient(apiKey, baseURL, modelName string) (*LiteLLMClient, error) {
	if apiKey == "" {
		return nil, errors.Wrapf(errors.ErrMissingCredential, "litellm api key")
	}
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = defaultLiteLLMBaseURL
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &LiteLLMClient{client: goopenai.NewClientWithConfig(cfg), model: modelName}, nil
}

// Chat sends a chat completion request through the proxy.
func (l *LiteLLMClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Tool) (*session.Message, error) {
	resp, err := l.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    l.model,
		Messages: convertMessagesToLiteLLM(messages),
		Tools:    convertToolsToLiteLLM(availableTools),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message to LiteLLM")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("received an empty response from LiteLLM")
	}

	choice := resp.Choices[0].Message
	msg := &session.Message{Role: session.RoleAssistant, Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, session.ToolCall{
			ToolCallID: tc.ID,
			Name:       tc.Function.Name,
			Args:       decodeToolArguments(tc.Function.Arguments),
		})
	}
	return msg, nil
}

func convertMessagesToLiteLLM(messages []session.Message) []goopenai.ChatCompletionMessage {
	var out []goopenai.ChatCompletionMessage
	for _, msg := range messages {
		m := goopenai.ChatCompletionMessage{Content: msg.Content}
		switch msg.Role {
		case session.RoleSystem:
			m.Role = goopenai.ChatMessageRoleSystem
		case session.RoleAssistant:
			m.Role = goopenai.ChatMessageRoleAssistant
			for _, tc := range msg.ToolCalls {
				argsBytes, err := json.Marshal(tc.Args)
				if err != nil {
					slog.Warn("llm.skip_tool_call", "tool", tc.Name, "error", err)
					continue
				}
				m.ToolCalls = append(m.ToolCalls, goopenai.ToolCall{
					ID:   tc.ToolCallID,
					Type: goopenai.ToolTypeFunction,
					Function: goopenai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(argsBytes),
					},
				})
			}
		case session.RoleTool:
			if len(msg.ToolCalls) != 1 {
				slog.Warn("llm.malformed_tool_message", "tool_calls", len(msg.ToolCalls))
				continue
			}
			m.Role = goopenai.ChatMessageRoleTool
			m.ToolCallID = msg.ToolCalls[0].ToolCallID
		default:
			m.Role = goopenai.ChatMessageRoleUser
		}
		out = append(out, m)
	}
	return out
}

func convertToolsToLiteLLM(ts []tools.Tool) []goopenai.Tool {
	var out []goopenai.Tool
	for _, t := range ts {
		out = append(out, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  tools.JSONSchema(t),
			},
		})
	}
	return out
}
