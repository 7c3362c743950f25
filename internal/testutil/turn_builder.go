package testutil

import (
	"encoding/json"
	"strings"
)

// TurnBuilder provides a fluent helper for constructing scripted model
// replies. Example:
//
//	reply := NewTurn().Thought("I should search.").Action("search_internet", map[string]any{"query": "x"}).Build()
//
// Chain only the parts you need.
type TurnBuilder struct {
	thought  string
	action   string
	input    string
	final    string
	hasFinal bool
}

// NewTurn creates an empty builder.
func NewTurn() *TurnBuilder { return &TurnBuilder{} }

// Thought sets the reasoning line.
func (b *TurnBuilder) Thought(text string) *TurnBuilder {
	b.thought = text
	return b
}

// Action requests a tool call. Non-string inputs are JSON encoded.
func (b *TurnBuilder) Action(name string, input any) *TurnBuilder {
	b.action = name
	switch v := input.(type) {
	case string:
		b.input = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		b.input = string(data)
	}
	return b
}

// Delegate requests work from a coworker.
func (b *TurnBuilder) Delegate(coworker, task, context string) *TurnBuilder {
	return b.Action("Delegate work to coworker", map[string]string{
		"coworker": coworker,
		"task":     task,
		"context":  context,
	})
}

// Final sets the final answer.
func (b *TurnBuilder) Final(text string) *TurnBuilder {
	b.final = text
	b.hasFinal = true
	return b
}

// Build renders the reply text.
func (b *TurnBuilder) Build() string {
	var sb strings.Builder
	if b.thought != "" {
		sb.WriteString("Thought: ")
		sb.WriteString(b.thought)
		sb.WriteString("\n")
	}
	if b.action != "" {
		sb.WriteString("Action: ")
		sb.WriteString(b.action)
		sb.WriteString("\nAction Input: ")
		sb.WriteString(b.input)
		sb.WriteString("\n")
	}
	if b.hasFinal {
		sb.WriteString("Final Answer: ")
		sb.WriteString(b.final)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FinalAnswer is shorthand for NewTurn().Final(text).Build().
func FinalAnswer(text string) string { return NewTurn().Final(text).Build() }
