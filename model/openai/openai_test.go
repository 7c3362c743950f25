package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, handler http.HandlerFunc) *Model {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewModel(func(o *Options) {
		o.APIKey = "test-key"
		o.BaseURL = srv.URL + "/"
		o.Model = "test-model"
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": msg, "type": "test"}})
}

func TestGenerate_Success(t *testing.T) {
	var got map[string]any
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "test-model",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Final Answer: done"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
		}`))
	})

	resp, err := m.Generate(context.Background(), model.Request{
		System:      "You are a writer.",
		Prompt:      "Write.",
		Temperature: 0.3,
		Stop:        []string{"\nObservation:"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Final Answer: done", resp.Text)
	assert.Equal(t, 13, resp.Usage.TotalTokens)

	assert.Equal(t, "test-model", got["model"])
	assert.InDelta(t, 0.3, got["temperature"], 1e-9)
	assert.Equal(t, []any{"\nObservation:"}, got["stop"])
	assert.Len(t, got["messages"], 2)
}

func TestGenerate_ErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, core.ErrModelOverloaded},
		{http.StatusBadRequest, core.ErrPromptRejected},
		{http.StatusUnauthorized, core.ErrModelUnavailable},
		{http.StatusInternalServerError, core.ErrModelUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			calls := 0
			m := newTestModel(t, func(w http.ResponseWriter, _ *http.Request) {
				calls++
				writeError(w, tt.status, "nope")
			})

			_, err := m.Generate(context.Background(), model.Request{Prompt: "hi"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 1, calls, "adapter must not retry")

			var ce *core.Error
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.status, ce.StatusCode)
		})
	}
}

func TestGroqModel_Info(t *testing.T) {
	m := NewGroqModel("key")
	assert.Equal(t, model.Info{Name: GroqLlama33Versatile, Provider: "groq"}, m.Info())
}
