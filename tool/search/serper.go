package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/agentcrew/core"
)

// SerperEndpoint is the Serper Google search API.
const SerperEndpoint = "https://google.serper.dev/search"

const serperSource = "serper"

// Serper calls the Serper.dev search API.
type Serper struct {
	APIKey   string
	Endpoint string
	client   *http.Client
}

// NewSerper constructs a Serper backend.
func NewSerper(apiKey string) *Serper {
	return NewSerperWithClient(apiKey, &http.Client{Timeout: 10 * time.Second})
}

// NewSerperWithClient constructs a Serper backend using the supplied HTTP client.
func NewSerperWithClient(apiKey string, client *http.Client) *Serper {
	return &Serper{APIKey: apiKey, Endpoint: SerperEndpoint, client: client}
}

// Search posts a query to Serper. 429 maps to ToolQuotaExceeded; any other
// failure maps to ToolUnavailable. The HTTP status is kept on the error.
func (s *Serper) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, core.NewError(core.KindToolUnavailable, serperSource, "API key is missing")
	}

	payload, err := json.Marshal(map[string]any{"q": query, "num": limit})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, core.WrapError(core.KindToolUnavailable, serperSource, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, core.WrapError(core.KindToolQuotaExceeded, serperSource, resp.StatusCode, statusError(resp))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, core.WrapError(core.KindToolUnavailable, serperSource, resp.StatusCode, statusError(resp))
	}

	var response struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, core.WrapError(core.KindToolUnavailable, serperSource, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}

	results := make([]Result, 0, len(response.Organic))
	for _, r := range response.Organic {
		results = append(results, Result{Title: r.Title, URL: r.Link, Snippet: r.Snippet})
	}
	return results, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return errors.New(http.StatusText(resp.StatusCode))
	}
	return fmt.Errorf("http %d: %s", resp.StatusCode, msg)
}
