package tools

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/m4xw311/searchagent/search"
)

// DomainFilter drops search results whose host matches a blocked glob
// pattern such as "*.pinterest.com".
type DomainFilter struct {
	patterns []string
}

// NewDomainFilter validates the patterns. No patterns yields a nil filter
// that keeps everything.
func NewDomainFilter(patterns []string) (*DomainFilter, error) {
	var clean []string
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid blocked domain pattern '%s'", p)
		}
		clean = append(clean, p)
	}
	if len(clean) == 0 {
		return nil, nil
	}
	return &DomainFilter{patterns: clean}, nil
}

// Blocked reports whether rawURL's host matches any pattern.
func (f *DomainFilter) Blocked(rawURL string) bool {
	if f == nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, pattern := range f.patterns {
		if match, _ := doublestar.Match(pattern, host); match {
			return true
		}
	}
	return false
}

// Apply returns the results that are not blocked.
func (f *DomainFilter) Apply(results []search.Result) []search.Result {
	if f == nil {
		return results
	}
	kept := results[:0:0]
	for _, r := range results {
		if !f.Blocked(r.URL) {
			kept = append(kept, r)
		}
	}
	return kept
}
