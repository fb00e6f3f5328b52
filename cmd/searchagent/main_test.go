package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m4xw311/searchagent/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	// Keep the user's own ~/.searchagent out of the test.
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const mockConfig = `
llm: mock
search:
  provider: mock
  qps: 0
log:
  level: error
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAskOneShot(t *testing.T) {
	path := writeConfig(t, mockConfig)
	out, err := execute(t, "", "--config", path, "ask", "latest", "iPhone", "release")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if !strings.Contains(out, "Summary of what the web search found:") || !strings.Contains(out, "https://example.com") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, `Search results for "latest iPhone release"`) {
		t.Errorf("query not passed through to the search tool:\n%s", out)
	}
}

func TestAskInteractive(t *testing.T) {
	path := writeConfig(t, mockConfig)
	out, err := execute(t, "first topic\n/quit\n", "--config", path, "ask", "--verbose")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if !strings.Contains(out, "Query: ") || !strings.Contains(out, "[query: first topic | steps: 2 | searches: 1]") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestMissingCredentialFails(t *testing.T) {
	path := writeConfig(t, "llm: openai\nmodel: gpt-4o-mini\n")
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := execute(t, "", "--config", path, "ask", "q"); err == nil {
		t.Fatal("expected missing credential error")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil || strings.TrimSpace(out) != Version {
		t.Errorf("version output %q, err %v", out, err)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	cfg.LLMClient = "mock"
	cfg.Search.Provider = "mock"
	cfg.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runServe(ctx, cfg); err != nil {
		t.Errorf("runServe returned %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.Log{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("search.failed", "query", "q")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["msg"] != "search.failed" || entry["query"] != "q" || entry["level"] != slog.LevelWarn.String() {
		t.Errorf("unexpected entry %v", entry)
	}

	if _, err := newLogger(config.Log{Level: "loud"}, &buf); err == nil {
		t.Error("expected invalid level error")
	}
	if _, err := newLogger(config.Log{Format: "xml"}, &buf); err == nil {
		t.Error("expected invalid format error")
	}
}
