package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m4xw311/searchagent/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultQuery   = "search about smolagents web search agent what it can do"
	DefaultAddr    = ":8000"
	DefaultLLM     = "gemini"
	DefaultModel   = "gemini-2.0-flash"
	DefaultSearch  = "duckduckgo"
	MaxStepsCeil   = 50
	// MaxResultCount bounds the results any search provider returns.
	MaxResultCount = 10
	configDirName  = ".searchagent"
	configFileName = "config.yaml"
)

// AgentMode selects how AgentState is shared between requests.
type AgentMode string

const (
	// ModeShared keeps one long-lived agent whose history persists across
	// requests. Runs are serialized by the gate.
	ModeShared AgentMode = "shared"
	// ModePerRequest builds a fresh agent for every request; no gate is needed.
	ModePerRequest AgentMode = "per_request"
)

type Server struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
}

type Agent struct {
	Mode               AgentMode `yaml:"mode"`
	MaxSteps           int       `yaml:"max_steps"`
	MaxHistoryMessages int       `yaml:"max_history_messages"`
	// StateFile, when set in shared mode, persists the agent history between restarts.
	StateFile string `yaml:"state_file"`
}

type Prompt struct {
	Template     string `yaml:"template"`
	DefaultQuery string `yaml:"default_query"`
	ResultCount  int    `yaml:"result_count"`
}

type MCPServer struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Tool    string   `yaml:"tool"`
}

type Cache struct {
	Backend  string        `yaml:"backend"` // "", "memory" or "redis"
	Size     int           `yaml:"size"`
	TTL      time.Duration `yaml:"ttl"`
	RedisURL string        `yaml:"redis_url"`
}

type Search struct {
	Provider       string        `yaml:"provider"`
	APIKey         string        `yaml:"api_key"`
	Depth          string        `yaml:"depth"`
	Timeout        time.Duration `yaml:"timeout"`
	QPS            float64       `yaml:"qps"`
	BlockedDomains []string      `yaml:"blocked_domains"`
	MCP            MCPServer     `yaml:"mcp"`
	Cache          Cache         `yaml:"cache"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Telemetry struct {
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
}

type Config struct {
	LLMClient string `yaml:"llm"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	// Credential is the model provider secret. It is normally left empty in
	// files and filled from the provider's environment variable by Resolve.
	Credential string    `yaml:"credential"`
	Server     Server    `yaml:"server"`
	Agent      Agent     `yaml:"agent"`
	Prompt     Prompt    `yaml:"prompt"`
	Search     Search    `yaml:"search"`
	Log        Log       `yaml:"log"`
	Telemetry  Telemetry `yaml:"telemetry"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLMClient: DefaultLLM,
		Model:     DefaultModel,
		Server: Server{
			Addr:           DefaultAddr,
			RequestTimeout: 120 * time.Second,
			ShutdownGrace:  10 * time.Second,
		},
		Agent: Agent{
			Mode:               ModeShared,
			MaxSteps:           10,
			MaxHistoryMessages: 200,
		},
		Prompt: Prompt{
			Template:     "standard",
			DefaultQuery: DefaultQuery,
			ResultCount:  5,
		},
		Search: Search{
			Provider: DefaultSearch,
			Timeout:  15 * time.Second,
			QPS:      1,
			Cache: Cache{
				Size: 256,
				TTL:  10 * time.Minute,
			},
		},
		Log: Log{Level: "info", Format: "text"},
		Telemetry: Telemetry{
			ServiceName: "searchagent",
		},
	}
}

// LoadConfig loads configuration from the user's home directory and the current
// working directory, with the latter taking precedence. An explicit path, when
// given, is applied last. Environment overrides and credentials are then
// resolved and the result validated.
func LoadConfig(explicitPath string) (*Config, error) {
	cfg := Default()

	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, configDirName, configFileName)
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, configDirName, configFileName)
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	if explicitPath != "" {
		if err := loadFromFile(explicitPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading config %s", explicitPath)
		}
	}

	cfg.applyEnv(os.Getenv)
	if err := cfg.Resolve(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Unmarshal overwrites only the fields present in the YAML, so later
	// files override earlier ones key by key.
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Server.Addr, "SEARCHAGENT_ADDR")
	set(&c.LLMClient, "SEARCHAGENT_LLM")
	set(&c.Model, "SEARCHAGENT_MODEL")
	set(&c.Search.Provider, "SEARCHAGENT_SEARCH")
	set(&c.Log.Level, "SEARCHAGENT_LOG_LEVEL")
}

// CredentialEnv returns the environment variable holding the secret for the
// given LLM client, or "" when the client needs no API key.
func CredentialEnv(llmClient string) string {
	switch llmClient {
	case "gemini":
		return "GEMINI_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "litellm":
		return "LITELLM_API_KEY"
	}
	// bedrock uses the AWS credential chain, ollama and mock need nothing.
	return ""
}

func searchCredentialEnv(provider string) string {
	switch provider {
	case "brave":
		return "BRAVE_API_KEY"
	case "tavily":
		return "TAVILY_API_KEY"
	}
	return ""
}

// Resolve reads credentials once and validates the configuration. It is the
// only place that reads secrets from the environment.
func (c *Config) Resolve(getenv func(string) string) error {
	if key := CredentialEnv(c.LLMClient); key != "" && c.Credential == "" {
		c.Credential = strings.TrimSpace(getenv(key))
	}
	if key := searchCredentialEnv(c.Search.Provider); key != "" && c.Search.APIKey == "" {
		c.Search.APIKey = strings.TrimSpace(getenv(key))
	}
	return c.Validate()
}

// Validate reports configuration errors. A missing credential is fatal.
func (c *Config) Validate() error {
	switch c.LLMClient {
	case "gemini", "openai", "anthropic", "bedrock", "ollama", "litellm", "mock":
	default:
		return errors.New("unknown llm client %q", c.LLMClient)
	}
	if key := CredentialEnv(c.LLMClient); key != "" && c.Credential == "" {
		return errors.Wrapf(errors.ErrMissingCredential, "%s environment variable not set", key)
	}
	if c.Model == "" && c.LLMClient != "mock" {
		return errors.New("model must be set for llm client %q", c.LLMClient)
	}

	switch c.Search.Provider {
	case "duckduckgo", "mock":
	case "brave", "tavily":
		if c.Search.APIKey == "" {
			return errors.New("%s search requires %s", c.Search.Provider, searchCredentialEnv(c.Search.Provider))
		}
	case "mcp":
		if c.Search.MCP.Command == "" {
			return errors.New("mcp search requires search.mcp.command")
		}
	default:
		return errors.New("unknown search provider %q", c.Search.Provider)
	}

	switch c.Search.Cache.Backend {
	case "", "memory":
	case "redis":
		if c.Search.Cache.RedisURL == "" {
			return errors.New("redis cache requires search.cache.redis_url")
		}
	default:
		return errors.New("unknown cache backend %q", c.Search.Cache.Backend)
	}

	switch c.Agent.Mode {
	case ModeShared, ModePerRequest:
	default:
		return errors.New("unknown agent mode %q", c.Agent.Mode)
	}
	if c.Agent.MaxSteps < 1 || c.Agent.MaxSteps > MaxStepsCeil {
		return errors.New("agent.max_steps must be between 1 and %d, got %d", MaxStepsCeil, c.Agent.MaxSteps)
	}
	if c.Prompt.ResultCount < 1 || c.Prompt.ResultCount > MaxResultCount {
		return errors.New("prompt.result_count must be between 1 and %d, got %d", MaxResultCount, c.Prompt.ResultCount)
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be positive")
	}
	return nil
}
