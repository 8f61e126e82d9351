// Package search queries a web search engine for discovery and the search provider.
package search

import (
	"context"
	"strings"
)

// Result is one organic search hit.
type Result struct {
	Name    string `json:"name"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Searcher runs a web search. Implementations never fail: problems yield an
// empty slice.
type Searcher interface {
	Search(ctx context.Context, query string, num int) []Result
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, query string, num int) []Result

// Search calls f.
func (f SearcherFunc) Search(ctx context.Context, query string, num int) []Result {
	return f(ctx, query, num)
}

// Combine flattens results into one text block (title, snippet, link per hit)
// suitable for LLM extraction and signal mining.
func Combine(results []Result) string {
	var sb strings.Builder
	for _, r := range results {
		for _, part := range []string{r.Name, r.Snippet, r.Link} {
			if part = strings.TrimSpace(part); part != "" {
				sb.WriteString(part)
				sb.WriteByte('\n')
			}
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}
