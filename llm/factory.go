package llm

import (
	"context"

	"github.com/m4xw311/searchagent/config"
	"github.com/m4xw311/searchagent/errors"
)

// FromConfig builds the client selected by cfg.LLMClient. The credential is
// taken from cfg, which Resolve has already filled from the environment.
func FromConfig(ctx context.Context, cfg *config.Config) (LLMClient, error) {
	var (
		client LLMClient
		err    error
	)
	switch cfg.LLMClient {
	case "gemini":
		client, err = NewGeminiLLMClient(ctx, cfg.Credential, cfg.Model)
	case "openai":
		client, err = NewOpenAILLMClient(cfg.Credential, cfg.BaseURL, cfg.Model)
	case "anthropic":
		client, err = NewAnthropicLLMClient(cfg.Credential, cfg.BaseURL, cfg.Model)
	case "bedrock":
		client, err = NewBedrockLLMClient(ctx, cfg.Model, cfg.BaseURL)
	case "ollama":
		client, err = NewOllamaLLMClient(cfg.BaseURL, cfg.Model, nil)
	case "litellm":
		client, err = NewLiteLLMClient(cfg.Credential, cfg.BaseURL, cfg.Model)
	case "mock":
		client = &MockLLMClient{}
	default:
		return nil, errors.New("unknown llm client %q", cfg.LLMClient)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error initializing %s client", cfg.LLMClient)
	}
	return client, nil
}
