package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/tool"
)

// ToolName is the name agents use to invoke the search tool.
const ToolName = "search_internet"

// DefaultMaxResults bounds the results handed to the model.
const DefaultMaxResults = 3

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"link"`
}

// Results renders as the observation text shown to the model.
type Results []Result

func (r Results) String() string {
	if len(r) == 0 {
		return "No results found."
	}
	var b strings.Builder
	for i, res := range r {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "Title: %s\nLink: %s\nSnippet: %s", res.Title, res.URL, res.Snippet)
	}
	return b.String()
}

// Backend executes a query against a search provider. limit is a hint; the
// tool enforces the cap regardless of what the backend returns.
type Backend interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, query string, limit int) ([]Result, error)

// Search calls f.
func (f BackendFunc) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	return f(ctx, query, limit)
}

// Options configures the search tool.
type Options struct {
	Name        string
	Description string
	MaxResults  int
}

// Tool exposes a Backend as a tool.Tool.
type Tool struct {
	backend Backend
	opts    Options
}

var _ tool.Tool = (*Tool)(nil)

// New creates a search tool over backend.
func New(backend Backend, optFns ...func(o *Options)) *Tool {
	opts := Options{
		Name:        ToolName,
		Description: "Search the internet for recent information about a query. Returns titles, links and snippets.",
		MaxResults:  DefaultMaxResults,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxResults < 1 {
		opts.MaxResults = DefaultMaxResults
	}
	return &Tool{backend: backend, opts: opts}
}

// Name implements tool.Tool.
func (t *Tool) Name() string { return t.opts.Name }

// Description implements tool.Tool.
func (t *Tool) Description() string { return t.opts.Description }

// MaxResults returns the result cap.
func (t *Tool) MaxResults() int { return t.opts.MaxResults }

// Parameters implements tool.Tool.
func (t *Tool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query",
			},
		},
		"required": []string{"query"},
	}
}

// Call runs one search and returns at most MaxResults hits as Results.
// Backend errors are returned unchanged; the tool performs no retries.
func (t *Tool) Call(ctx context.Context, args map[string]any) (any, error) {
	query, _ := args["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, tool.NewToolError(t.Name(), "query must be a non-empty string", tool.CodeValidation)
	}
	if t.backend == nil {
		return nil, core.NewError(core.KindToolUnavailable, t.Name(), "no search backend configured")
	}

	results, err := t.backend.Search(ctx, query, t.opts.MaxResults)
	if err != nil {
		return nil, err
	}
	if len(results) > t.opts.MaxResults {
		results = results[:t.opts.MaxResults]
	}
	return Results(results), nil
}
