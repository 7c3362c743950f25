package core

import (
	"fmt"
	"strings"
	"time"
)

// ActionKind identifies what an agent did in a turn.
type ActionKind int

const (
	// ActionNone is recorded when a turn failed before an action was chosen.
	ActionNone ActionKind = iota
	// ActionToolCall is a tool invocation.
	ActionToolCall
	// ActionDelegate is a delegation to a peer agent.
	ActionDelegate
	// ActionFinal is a final answer.
	ActionFinal
)

// String returns a short lowercase label for logs and metrics.
func (a ActionKind) String() string {
	switch a {
	case ActionToolCall:
		return "tool_call"
	case ActionDelegate:
		return "delegate"
	case ActionFinal:
		return "final"
	default:
		return "none"
	}
}

// TurnRecord is one (thought, action, observation) entry of an agent loop.
type TurnRecord struct {
	Index       int           `json:"index"`
	Thought     string        `json:"thought,omitempty"`
	Action      ActionKind    `json:"action"`
	Target      string        `json:"target,omitempty"` // tool or peer name
	Input       string        `json:"input,omitempty"`
	Observation string        `json:"observation,omitempty"`
	Error       string        `json:"error,omitempty"`
	Attempts    int           `json:"attempts"` // model calls made for this turn
	Duration    time.Duration `json:"duration"`
}

// Transcript is the ordered list of turns for one task execution. It is owned
// by a single loop instance and discarded once the task completes.
type Transcript []TurnRecord

// Append adds a record and returns the extended transcript.
func (t Transcript) Append(r TurnRecord) Transcript { return append(t, r) }

// Len returns the number of recorded turns.
func (t Transcript) Len() int { return len(t) }

// Last returns the most recent record, if any.
func (t Transcript) Last() (TurnRecord, bool) {
	if len(t) == 0 {
		return TurnRecord{}, false
	}
	return t[len(t)-1], true
}

// String renders the transcript for diagnostics.
func (t Transcript) String() string {
	var b strings.Builder
	for _, r := range t {
		fmt.Fprintf(&b, "turn %d [%s", r.Index, r.Action)
		if r.Target != "" {
			fmt.Fprintf(&b, " %s", r.Target)
		}
		b.WriteString("]")
		if r.Thought != "" {
			fmt.Fprintf(&b, " thought=%q", r.Thought)
		}
		if r.Input != "" {
			fmt.Fprintf(&b, " input=%q", r.Input)
		}
		if r.Observation != "" {
			fmt.Fprintf(&b, " observation=%q", r.Observation)
		}
		if r.Error != "" {
			fmt.Fprintf(&b, " error=%q", r.Error)
		}
		b.WriteString("\n")
	}
	return b.String()
}
