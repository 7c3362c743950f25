package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/util"
	"github.com/hupe1980/agentcrew/tool"
)

// ObservationStop is sent as a stop sequence so the model hands control back
// after naming an action instead of inventing its result.
const ObservationStop = "\nObservation:"

const lastTurnHint = "This is your last available turn. Respond with a Final Answer now."

// promptInput is everything one turn's prompt is built from.
type promptInput struct {
	role           string
	goal           string
	backstory      string
	tools          *tool.Set
	peers          []string
	description    string
	expectedOutput string
	context        []string
	transcript     core.Transcript
	lastTurn       bool
}

func buildSystemPrompt(in promptInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.", in.role)
	if in.backstory != "" {
		b.WriteString(" ")
		b.WriteString(in.backstory)
	}
	if in.goal != "" {
		fmt.Fprintf(&b, "\nYour personal goal is: %s", in.goal)
	}
	b.WriteString("\n")

	actions := in.tools.Names()
	if len(in.peers) > 0 {
		actions = append(actions, DelegateWorkAction, AskQuestionAction)
	}

	if len(actions) == 0 {
		b.WriteString(`
Respond using exactly this format:

Thought: I now can give a great answer
Final Answer: <your complete final answer, meeting the expected criteria>
`)
		return b.String()
	}

	b.WriteString("\nYou can only use the following tools. Never make up tools that are not listed here:\n\n")
	for _, t := range in.tools.Tools() {
		fmt.Fprintf(&b, "- %s: %s Arguments: %s\n", t.Name(), t.Description(), util.DescribeParameters(t.Parameters()))
	}
	if len(in.peers) > 0 {
		fmt.Fprintf(&b, "- %s: Hand a specific task to one coworker. Arguments: coworker (string, required); task (string, required); context (string): everything the coworker needs to know\n", DelegateWorkAction)
		fmt.Fprintf(&b, "- %s: Ask one coworker a specific question. Arguments: coworker (string, required); question (string, required); context (string)\n", AskQuestionAction)
		fmt.Fprintf(&b, "\nYour coworkers are: %s\n", strings.Join(in.peers, ", "))
	}

	fmt.Fprintf(&b, `
To use a tool, respond using exactly this format:

Thought: what you should do next and why
Action: the tool to use, exactly one of [%s]
Action Input: the arguments as a JSON object

You will then receive:
Observation: the result of the action

When you have everything you need, respond using exactly this format:

Thought: I now know the final answer
Final Answer: <your complete final answer, meeting the expected criteria>
`, strings.Join(actions, ", "))

	return b.String()
}

func buildTaskPrompt(in promptInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current Task: %s\n", in.description)
	if in.expectedOutput != "" {
		fmt.Fprintf(&b, "\nThis is the expected criteria for your final answer: %s\n", in.expectedOutput)
		b.WriteString("You MUST return the actual complete content as the final answer, not a summary.\n")
	}
	if len(in.context) > 0 {
		b.WriteString("\nThis is the context you're working with:\n")
		b.WriteString(strings.Join(in.context, "\n\n"))
		b.WriteString("\n")
	}

	b.WriteString("\nBegin!\n")
	for _, r := range in.transcript {
		b.WriteString(renderTurn(r))
	}
	if in.lastTurn {
		b.WriteString("\n")
		b.WriteString(lastTurnHint)
		b.WriteString("\n")
	}
	b.WriteString("\nThought:")
	return b.String()
}

// renderTurn replays an earlier turn so the model sees its own scratchpad.
func renderTurn(r core.TurnRecord) string {
	var b strings.Builder
	b.WriteString("\n")
	if r.Thought != "" {
		fmt.Fprintf(&b, "Thought: %s\n", r.Thought)
	}
	if r.Target != "" {
		fmt.Fprintf(&b, "Action: %s\n", r.Target)
		fmt.Fprintf(&b, "Action Input: %s\n", r.Input)
	}
	fmt.Fprintf(&b, "Observation: %s\n", r.Observation)
	return b.String()
}

// formatObservation renders a tool result for the model.
func formatObservation(v any) string {
	switch val := v.(type) {
	case nil:
		return "(no output)"
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case []byte:
		return string(val)
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}
