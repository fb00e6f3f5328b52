// Package task renders the instruction handed to the agent for one query.
package task

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/m4xw311/searchagent/errors"
)

// Task is the rendered instruction for one run. It is a value type and is
// never modified after Build returns it.
type Task struct {
	// Query is the effective query after defaulting.
	Query string
	// Text is the full instruction given to the agent.
	Text string
}

func (t Task) String() string { return t.Text }

const standardTemplate = `Search the web for: {{.Query}}

Follow these steps:
1. Use the web_search tool to search for "{{.Query}}". Do not answer from memory.
2. Take the top {{.Count}} results and note the title and source URL of each.
3. Synthesize what they say into one or more short, readable passages.
4. Format the answer as short paragraphs. You may start a paragraph with a fitting emoji.
   Include the source links when they are available.`

const bulletsTemplate = `Search the web for: {{.Query}}

Follow these steps:
1. Use the web_search tool to search for "{{.Query}}". Do not answer from memory.
2. Take the top {{.Count}} results and note the title and source URL of each.
3. Summarize the findings as a short bulleted list, one finding per bullet.
4. End each bullet with its source link in parentheses when available.`

const emojiTemplate = `Search the web for: {{.Query}}

Follow these steps:
1. Use the web_search tool to search for "{{.Query}}". Do not answer from memory.
2. Take the top {{.Count}} results and note the title and source URL of each.
3. Write a few short paragraphs that summarize them for a casual reader.
4. Begin every paragraph with an emoji that matches its topic and finish it with
   the source link when available.`

var templates = map[string]string{
	"standard": standardTemplate,
	"bullets":  bulletsTemplate,
	"emoji":    emojiTemplate,
}

// Names lists the available template names.
func Names() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builder turns queries into Tasks using one fixed template.
type Builder struct {
	tmpl         *template.Template
	defaultQuery string
	count        int
}

// New parses the named template. An unknown name is an error; the caller
// treats it as a configuration failure.
func New(name, defaultQuery string, count int) (*Builder, error) {
	src, ok := templates[name]
	if !ok {
		return nil, errors.New("unknown prompt template %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	if strings.TrimSpace(defaultQuery) == "" {
		return nil, errors.New("default query must not be empty")
	}
	if count < 1 {
		return nil, errors.New("result count must be positive, got %d", count)
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse prompt template %q", name)
	}
	return &Builder{tmpl: tmpl, defaultQuery: defaultQuery, count: count}, nil
}

// Build renders the task for query. An empty or blank query is replaced by
// the default topic. Build never fails: text/template does not escape, so the
// query is interpolated literally.
func (b *Builder) Build(query string) Task {
	if strings.TrimSpace(query) == "" {
		query = b.defaultQuery
	}
	var sb strings.Builder
	data := struct {
		Query string
		Count int
	}{Query: query, Count: b.count}
	if err := b.tmpl.Execute(&sb, data); err != nil {
		// The templates are fixed and only reference Query and Count.
		panic(fmt.Sprintf("prompt template %s: %v", b.tmpl.Name(), err))
	}
	return Task{Query: query, Text: sb.String()}
}

// DefaultQuery returns the topic used for empty queries.
func (b *Builder) DefaultQuery() string { return b.defaultQuery }
