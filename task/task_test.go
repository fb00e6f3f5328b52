package task

import (
	"strings"
	"testing"

	"github.com/m4xw311/searchagent/config"
)

func newBuilder(t *testing.T, name string) *Builder {
	t.Helper()
	b, err := New(name, config.DefaultQuery, 5)
	if err != nil {
		t.Fatalf("New(%q) failed: %v", name, err)
	}
	return b
}

func TestBuildContainsQueryVerbatim(t *testing.T) {
	queries := []string{
		"latest iPhone release",
		"what is {{.Query}}",
		`quotes "and" <tags> & ampersands`,
		"多言語のクエリ",
		"x",
	}
	for _, name := range Names() {
		b := newBuilder(t, name)
		for _, q := range queries {
			task := b.Build(q)
			if task.Text == "" {
				t.Errorf("%s: empty task for %q", name, q)
			}
			if !strings.Contains(task.Text, q) {
				t.Errorf("%s: task does not contain %q:\n%s", name, q, task.Text)
			}
			if task.Query != q {
				t.Errorf("%s: Query = %q", name, task.Query)
			}
		}
	}
}

func TestBuildExample(t *testing.T) {
	task := newBuilder(t, "standard").Build("latest iPhone release")
	for _, want := range []string{"latest iPhone release", "5", "web_search", "source"} {
		if !strings.Contains(task.Text, want) {
			t.Errorf("task missing %q:\n%s", want, task.Text)
		}
	}
}

func TestBuildDefaultsEmptyQuery(t *testing.T) {
	b := newBuilder(t, "standard")
	for _, q := range []string{"", "   ", "\n\t"} {
		task := b.Build(q)
		if task.Query != config.DefaultQuery {
			t.Errorf("Build(%q).Query = %q", q, task.Query)
		}
		if !strings.Contains(task.Text, config.DefaultQuery) {
			t.Errorf("default topic missing from task for %q", q)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	b := newBuilder(t, "bullets")
	if b.Build("go generics") != b.Build("go generics") {
		t.Error("Build is not deterministic")
	}
}

func TestResultCountIsRendered(t *testing.T) {
	b, err := New("emoji", "topic", 7)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.Build("q").Text, "top 7 results") {
		t.Error("result count not rendered")
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New("fancy", "topic", 5); err == nil {
		t.Error("expected unknown template error")
	}
	if _, err := New("standard", " ", 5); err == nil {
		t.Error("expected empty default query error")
	}
	if _, err := New("standard", "topic", 0); err == nil {
		t.Error("expected result count error")
	}
}
