package model

import (
	"context"
	"errors"
	"sync"
)

// Request captures the normalized prompt sent to a model backend.
type Request struct {
	System      string   `json:"system,omitempty"` // System / persona instructions
	Prompt      string   `json:"prompt"`           // Running transcript rendered as one user turn
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"` // Stop sequences
	MaxTokens   int64    `json:"max_tokens,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completion returned by a model.
type Response struct {
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", ...
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "groq", "anthropic", "mock", ...
}

// Model is the minimal interface the agent loop needs to drive generation.
//
// Implementations must return *core.Error values (see ClassifyStatus) so the
// caller can tell retryable failures (ModelUnavailable, ModelOverloaded) from
// terminal ones (PromptRejected). Implementations must not retry internally.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight scripted Model for tests & examples. Each call
// pops the next queued step; once the queue is empty the fallback text is
// returned. Safe for concurrent use.
type MockModel struct {
	info     Info
	mu       sync.Mutex
	steps    []mockStep
	fallback string
	requests []Request
}

type mockStep struct {
	text string
	err  error
	fn   func(Request) (string, error)
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{info: Info{Name: name, Provider: "mock"}}
}

// AddResponse queues a canned completion.
func (m *MockModel) AddResponse(texts ...string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range texts {
		m.steps = append(m.steps, mockStep{text: t})
	}
	return m
}

// AddError queues a failure.
func (m *MockModel) AddError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, mockStep{err: err})
	return m
}

// AddFunc queues a step computed from the request.
func (m *MockModel) AddFunc(fn func(Request) (string, error)) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, mockStep{fn: fn})
	return m
}

// SetFallback sets the text returned when no steps remain.
func (m *MockModel) SetFallback(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = text
	return m
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var step mockStep
	if len(m.steps) > 0 {
		step = m.steps[0]
		m.steps = m.steps[1:]
	} else {
		step = mockStep{text: m.fallback}
	}
	m.mu.Unlock()

	if step.fn != nil {
		text, err := step.fn(req)
		if err != nil {
			return nil, err
		}
		return &Response{Text: text, FinishReason: "stop"}, nil
	}
	if step.err != nil {
		return nil, step.err
	}
	if step.text == "" {
		return nil, errors.New("mock model: no scripted response")
	}
	return &Response{Text: step.text, FinishReason: "stop"}, nil
}

// Calls returns how many times Generate was invoked.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a snapshot of all received requests.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
