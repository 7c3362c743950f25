package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenResults() []Result {
	out := make([]Result, 10)
	for i := range out {
		out[i] = Result{Title: fmt.Sprintf("title %d", i), URL: fmt.Sprintf("https://example.com/%d", i), Snippet: "snippet"}
	}
	return out
}

func TestTool_TruncatesToMaxResults(t *testing.T) {
	var gotLimit int
	backend := BackendFunc(func(_ context.Context, _ string, limit int) ([]Result, error) {
		gotLimit = limit
		return tenResults(), nil
	})

	st := New(backend)
	assert.Equal(t, ToolName, st.Name())

	out, err := st.Call(context.Background(), map[string]any{"query": "AI in healthcare"})
	require.NoError(t, err)

	results, ok := out.(Results)
	require.True(t, ok)
	require.Len(t, results, DefaultMaxResults)
	assert.Equal(t, DefaultMaxResults, gotLimit)
	// truncation keeps the backend order
	assert.Equal(t, "title 0", results[0].Title)
	assert.Equal(t, "title 2", results[2].Title)
}

func TestTool_CustomCap(t *testing.T) {
	st := New(BackendFunc(func(context.Context, string, int) ([]Result, error) {
		return tenResults(), nil
	}), func(o *Options) { o.MaxResults = 5 })

	out, err := st.Call(context.Background(), map[string]any{"query": "q"})
	require.NoError(t, err)
	assert.Len(t, out.(Results), 5)
}

func TestTool_EmptyQuery(t *testing.T) {
	st := New(BackendFunc(func(context.Context, string, int) ([]Result, error) {
		t.Fatal("backend must not be called")
		return nil, nil
	}))
	_, err := st.Call(context.Background(), map[string]any{"query": "  "})
	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, tool.CodeValidation, toolErr.Code)
}

func TestTool_DoesNotRetry(t *testing.T) {
	calls := 0
	st := New(BackendFunc(func(context.Context, string, int) ([]Result, error) {
		calls++
		return nil, core.NewError(core.KindToolUnavailable, "test", "down")
	}))
	_, err := st.Call(context.Background(), map[string]any{"query": "q"})
	assert.ErrorIs(t, err, core.ErrToolUnavailable)
	assert.Equal(t, 1, calls)
}

func TestResults_String(t *testing.T) {
	assert.Equal(t, "No results found.", Results(nil).String())
	s := Results{{Title: "A", URL: "https://a", Snippet: "sa"}, {Title: "B", URL: "https://b", Snippet: "sb"}}.String()
	assert.Contains(t, s, "Title: A\nLink: https://a\nSnippet: sa")
	assert.Contains(t, s, "\n---\nTitle: B")
}

func newSerper(t *testing.T, handler http.HandlerFunc) *Serper {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := NewSerperWithClient("serper-key", srv.Client())
	s.Endpoint = srv.URL
	return s
}

func TestSerper_Success(t *testing.T) {
	s := newSerper(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "serper-key", r.Header.Get("X-API-KEY"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "AI in healthcare", body["q"])
		assert.EqualValues(t, 3, body["num"])

		organic := make([]map[string]string, 10)
		for i := range organic {
			organic[i] = map[string]string{"title": fmt.Sprintf("t%d", i), "link": "https://x", "snippet": "s"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"organic": organic})
	})

	out, err := New(s).Call(context.Background(), map[string]any{"query": "AI in healthcare"})
	require.NoError(t, err)
	assert.Len(t, out.(Results), 3)
}

func TestSerper_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, core.ErrToolQuotaExceeded},
		{http.StatusInternalServerError, core.ErrToolUnavailable},
		{http.StatusForbidden, core.ErrToolUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			s := newSerper(t, func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			})
			_, err := s.Search(context.Background(), "q", 3)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var ce *core.Error
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.status, ce.StatusCode)
		})
	}
}

func TestSerper_MissingKey(t *testing.T) {
	_, err := NewSerper("").Search(context.Background(), "q", 3)
	assert.ErrorIs(t, err, core.ErrToolUnavailable)
}
