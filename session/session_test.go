package session

import (
	"path/filepath"
	"testing"
)

func turn(user string, tools int) []Message {
	msgs := []Message{{Role: RoleUser, Content: user}}
	for i := 0; i < tools; i++ {
		call := ToolCall{ToolCallID: user, Name: "web_search"}
		msgs = append(msgs,
			Message{Role: RoleAssistant, ToolCalls: []ToolCall{call}},
			Message{Role: RoleTool, Content: "results", ToolCalls: []ToolCall{call}},
		)
	}
	return append(msgs, Message{Role: RoleAssistant, Content: "answer to " + user})
}

func TestTrimKeepsTurnBoundaries(t *testing.T) {
	s := New("t")
	for _, m := range turn("q1", 1) { // 4 messages
		s.AddMessage(m)
	}
	for _, m := range turn("q2", 0) { // 2 messages
		s.AddMessage(m)
	}
	for _, m := range turn("q3", 1) { // 4 messages
		s.AddMessage(m)
	}

	dropped := s.Trim(6)
	if dropped != 4 {
		t.Fatalf("dropped = %d, want 4", dropped)
	}
	if s.Messages[0].Role != RoleUser || s.Messages[0].Content != "q2" {
		t.Errorf("history should start at turn q2, got %+v", s.Messages[0])
	}
	if s.Len() != 6 {
		t.Errorf("len = %d, want 6", s.Len())
	}
}

func TestTrimKeepsLatestTurn(t *testing.T) {
	s := New("t")
	for _, m := range turn("q1", 0) {
		s.AddMessage(m)
	}
	for _, m := range turn("q2", 3) { // 8 messages
		s.AddMessage(m)
	}
	s.Trim(3)
	if s.Messages[0].Content != "q2" {
		t.Errorf("latest turn must survive, got %+v", s.Messages[0])
	}
	if s.Len() != 8 {
		t.Errorf("len = %d, want 8", s.Len())
	}
}

func TestTrimNoop(t *testing.T) {
	s := New("t")
	for _, m := range turn("q1", 1) {
		s.AddMessage(m)
	}
	if n := s.Trim(0); n != 0 {
		t.Errorf("Trim(0) dropped %d", n)
	}
	if n := s.Trim(10); n != 0 {
		t.Errorf("Trim(10) dropped %d", n)
	}
}

func TestOpenAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "agent.json")

	s, err := Open("agent", path)
	if err != nil {
		t.Fatalf("Open on missing file failed: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty session, got %d messages", s.Len())
	}
	s.AddMessage(Message{Role: RoleUser, Content: "hello"})
	s.AddMessage(Message{Role: RoleAssistant, ToolCalls: []ToolCall{{ToolCallID: "c1", Name: "web_search", Args: map[string]interface{}{"query": "go"}}}})
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Open("agent", path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("loaded %d messages, want 2", loaded.Len())
	}
	if got := loaded.Messages[1].ToolCalls[0].Args["query"]; got != "go" {
		t.Errorf("tool call args not persisted: %v", got)
	}
}

func TestSaveWithoutPathIsNoop(t *testing.T) {
	if err := New("mem").Save(); err != nil {
		t.Errorf("Save on in-memory session: %v", err)
	}
}
