package terminal

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/m4xw311/searchagent/agent"
)

type fakeAsker struct {
	queries []string
	fail    string
}

func (f *fakeAsker) Ask(ctx context.Context, query string) (agent.Answer, error) {
	f.queries = append(f.queries, query)
	if query == f.fail {
		return agent.Answer{}, fmt.Errorf("search capability failed")
	}
	return agent.Answer{Query: query, Result: agent.Result{Text: "answer to " + query, Steps: 2, ToolCalls: 1}}, nil
}

func TestTerminalAsk(t *testing.T) {
	var out bytes.Buffer
	asker := &fakeAsker{}
	term := New(asker, strings.NewReader(""), &out, time.Second, true)

	if err := term.Ask(context.Background(), "latest iPhone release"); err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !strings.Contains(out.String(), "answer to latest iPhone release") {
		t.Errorf("unexpected output %q", out.String())
	}
	if !strings.Contains(out.String(), "steps: 2") {
		t.Errorf("verbose stats missing: %q", out.String())
	}
}

func TestTerminalRun(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		queries []string
		output  []string
	}{
		{"EOF", "first\n\nsecond\n", []string{"first", "second"}, []string{"answer to first", "answer to second"}},
		{"Quit", "first\n/quit\nsecond\n", []string{"first"}, []string{"answer to first"}},
		{"Exit", "/exit\n", nil, nil},
		{"ErrorContinues", "boom\nafter\n", []string{"boom", "after"}, []string{"Error: search capability failed", "answer to after"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			asker := &fakeAsker{fail: "boom"}
			term := New(asker, strings.NewReader(tc.input), &out, 0, false)

			if err := term.Run(context.Background()); err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if strings.Join(asker.queries, ",") != strings.Join(tc.queries, ",") {
				t.Errorf("queries = %v, want %v", asker.queries, tc.queries)
			}
			for _, want := range tc.output {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestTerminalRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	asker := &fakeAsker{}
	term := New(asker, strings.NewReader("q\n"), &bytes.Buffer{}, 0, false)
	if err := term.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(asker.queries) != 0 {
		t.Errorf("cancelled terminal asked %v", asker.queries)
	}
}
