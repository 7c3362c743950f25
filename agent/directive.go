package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/hupe1980/agentcrew/core"
)

// Directive is the parsed decision of one model response: a *ToolCall, a
// *Delegate or a *Final.
type Directive interface {
	Kind() core.ActionKind
	Reasoning() string
}

// ToolCall asks the loop to invoke a tool.
type ToolCall struct {
	Thought string
	Name    string
	// Input holds the decoded JSON object, or nil when the model sent plain text.
	Input    map[string]any
	RawInput string
}

// Delegate asks a peer agent to handle a sub-question.
type Delegate struct {
	Thought  string
	Peer     string
	Question string
	Context  string
}

// Final ends the task.
type Final struct {
	Thought string
	Text    string
	// Malformed is set when the response did not follow the protocol and Text
	// is the verbatim response.
	Malformed bool
}

func (*ToolCall) Kind() core.ActionKind { return core.ActionToolCall }
func (*Delegate) Kind() core.ActionKind { return core.ActionDelegate }
func (*Final) Kind() core.ActionKind    { return core.ActionFinal }

func (d *ToolCall) Reasoning() string { return d.Thought }
func (d *Delegate) Reasoning() string { return d.Thought }
func (d *Final) Reasoning() string    { return d.Thought }

// Delegation action names accepted in "Action:" lines.
const (
	DelegateWorkAction = "Delegate work to coworker"
	AskQuestionAction  = "Ask question to coworker"
)

var (
	thoughtRe     = regexp.MustCompile(`(?ism)^\s*(?:thought\s*:)?\s*(.*?)\s*(?:^\s*(?:action|final\s+answer|delegate\s+to)\s*:|\z)`)
	actionRe      = regexp.MustCompile(`(?im)^\s*action\s*:[ \t]*(.*)$`)
	actionInputRe = regexp.MustCompile(`(?ism)^\s*action\s+input\s*:[ \t]*(.*?)\s*(?:^\s*(?:observation|final\s+answer|thought)\s*:|\z)`)
	finalRe       = regexp.MustCompile(`(?ism)^\s*final\s+answer\s*:[ \t]*(.*)$`)
	delegateToRe  = regexp.MustCompile(`(?im)^\s*delegate\s+to\s*:[ \t]*(.+)$`)
	questionRe    = regexp.MustCompile(`(?ism)^\s*question\s*:[ \t]*(.*?)\s*(?:^\s*context\s*:|\z)`)
	contextRe     = regexp.MustCompile(`(?ism)^\s*context\s*:[ \t]*(.*)$`)
)

// ParseDirective interprets a model response. A tool call wins over a final
// answer in the same response. Responses that match no form, or match one
// only partially, become a malformed *Final carrying the trimmed text.
func ParseDirective(text string) Directive {
	trimmed := strings.TrimSpace(text)
	thought := parseThought(trimmed)

	if m := actionRe.FindStringSubmatchIndex(trimmed); m != nil {
		name := strings.TrimSpace(trimmed[m[2]:m[3]])
		rest := trimmed[m[1]:]
		if d := parseAction(thought, name, rest); d != nil {
			return d
		}
		return &Final{Thought: thought, Text: trimmed, Malformed: true}
	}

	if m := delegateToRe.FindStringSubmatchIndex(trimmed); m != nil {
		peer := strings.TrimSpace(trimmed[m[2]:m[3]])
		rest := trimmed[m[1]:]
		q := questionRe.FindStringSubmatch(rest)
		if peer == "" || q == nil || strings.TrimSpace(q[1]) == "" {
			return &Final{Thought: thought, Text: trimmed, Malformed: true}
		}
		d := &Delegate{Thought: thought, Peer: peer, Question: strings.TrimSpace(q[1])}
		if c := contextRe.FindStringSubmatch(rest); c != nil {
			d.Context = strings.TrimSpace(c[1])
		}
		return d
	}

	if m := finalRe.FindStringSubmatch(trimmed); m != nil {
		return &Final{Thought: thought, Text: strings.TrimSpace(m[1])}
	}

	return &Final{Thought: thought, Text: trimmed, Malformed: true}
}

func parseThought(text string) string {
	m := thoughtRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// parseAction returns nil when the action block is incomplete.
func parseAction(thought, name, rest string) Directive {
	name = strings.Trim(name, "`*\"' ")
	if name == "" {
		return nil
	}

	m := actionInputRe.FindStringSubmatch(rest)
	if m == nil {
		return nil
	}
	raw := stripCodeFence(m[1])

	if isDelegationAction(name) {
		var in struct {
			Coworker string `json:"coworker"`
			Task     string `json:"task"`
			Question string `json:"question"`
			Context  string `json:"context"`
		}
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			return nil
		}
		question := in.Task
		if question == "" {
			question = in.Question
		}
		if strings.TrimSpace(in.Coworker) == "" || strings.TrimSpace(question) == "" {
			return nil
		}
		return &Delegate{
			Thought:  thought,
			Peer:     strings.TrimSpace(in.Coworker),
			Question: strings.TrimSpace(question),
			Context:  strings.TrimSpace(in.Context),
		}
	}

	call := &ToolCall{Thought: thought, Name: name, RawInput: raw}
	if strings.HasPrefix(raw, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err == nil {
			call.Input = obj
		}
	}
	return call
}

func isDelegationAction(name string) bool {
	return strings.EqualFold(name, DelegateWorkAction) || strings.EqualFold(name, AskQuestionAction)
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.HasPrefix(strings.TrimSpace(s[:i]), "{") {
		s = s[i+1:] // language tag
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
