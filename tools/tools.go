package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Parameter describes one argument of a tool. Only flat string/integer
// arguments are needed by the agent's tools.
type Parameter struct {
	Type        string // "string" or "integer"
	Description string
	Required    bool
}

// Tool defines the interface for any action the agent can take.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]Parameter
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}

// ToolRegistry holds all available tools.
type ToolRegistry struct {
	tools map[string]Tool
}

func NewToolRegistry(ts ...Tool) *ToolRegistry {
	r := &ToolRegistry{tools: make(map[string]Tool)}
	for _, t := range ts {
		r.Register(t)
	}
	return r
}

func (r *ToolRegistry) Register(t Tool) {
	r.tools[t.Name()] = t
}

func (r *ToolRegistry) GetTool(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns the registered tools ordered by name, so the declarations
// sent to the model are stable between runs.
func (r *ToolRegistry) Tools() []Tool {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// RequiredParameters lists the required argument names of t in sorted order.
func RequiredParameters(t Tool) []string {
	var required []string
	for name, p := range t.Parameters() {
		if p.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	return required
}

// JSONSchema renders the tool's parameters as a JSON-schema object, the
// format shared by the OpenAI, Anthropic and Bedrock tool APIs.
func JSONSchema(t Tool) map[string]interface{} {
	props := make(map[string]interface{})
	for name, p := range t.Parameters() {
		props[name] = map[string]interface{}{
			"type":        p.Type,
			"description": p.Description,
		}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if req := RequiredParameters(t); len(req) > 0 {
		schema["required"] = req
	}
	return schema
}

// stringArg extracts a required, non-blank string argument.
func stringArg(args map[string]interface{}, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("missing or invalid '%s' argument", name)
	}
	return v, nil
}

// intArg extracts an optional integer argument. JSON decoding yields
// float64, Gemini may yield int64 or float64.
func intArg(args map[string]interface{}, name string, def int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	}
	return def
}
