package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a tool invocation requested by the model. On a "tool" message
// it identifies which call the content answers.
type ToolCall struct {
	ToolCallID string                 `json:"tool_call_id"`
	Name       string                 `json:"name"`
	Args       map[string]interface{} `json:"args,omitempty"`
}

type Message struct {
	Role      string     `json:"role"` // "system", "user", "assistant", "tool"
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Session is the agent's conversation and tool history. It is not safe for
// concurrent use; callers serialize access.
type Session struct {
	Name     string    `json:"name"`
	Messages []Message `json:"messages"`
	path     string
}

// New creates a new in-memory session.
func New(name string) *Session {
	return &Session{
		Name:     name,
		Messages: []Message{},
	}
}

// Open loads the session stored at path, or starts an empty one bound to
// path when the file does not exist yet.
func Open(name, path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s := New(name)
		s.path = path
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read session file %s: %w", path, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("could not parse session file %s: %w", path, err)
	}
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	s.path = path
	return &s, nil
}

// Save writes the current session state to disk. Sessions without a backing
// file are not persisted.
func (s *Session) Save() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("could not create session directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// AddMessage appends a message to the session history.
func (s *Session) AddMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// Len returns the number of messages in the history.
func (s *Session) Len() int { return len(s.Messages) }

// Trim drops the oldest turns until at most max messages remain. A turn
// starts at a user message, so tool calls are never separated from their
// results. The most recent turn is always kept, even if it alone exceeds max.
func (s *Session) Trim(max int) int {
	if max <= 0 || len(s.Messages) <= max {
		return 0
	}
	cut := -1
	for i := 1; i < len(s.Messages); i++ {
		if s.Messages[i].Role != RoleUser {
			continue
		}
		cut = i
		if len(s.Messages)-i <= max {
			break
		}
	}
	if cut <= 0 {
		return 0
	}
	dropped := cut
	s.Messages = append([]Message(nil), s.Messages[cut:]...)
	return dropped
}
