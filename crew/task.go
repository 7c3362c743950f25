package crew

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/tool"
)

// TaskOptions configures a Task.
type TaskOptions struct {
	Description    string
	ExpectedOutput string
	// Tools restricts the agent to these tools for this task. Nil means the
	// agent's full set; an empty non-nil slice disables tools.
	Tools []tool.Tool
	// Context lists earlier tasks whose outputs this task reads.
	Context []*Task
	// Async must be false; only sequential execution is supported.
	Async      bool
	OutputPath string
}

// Task is an immutable unit of work bound to one agent.
type Task struct {
	id             string
	description    core.Template
	expectedOutput core.Template
	agent          *agent.Agent
	tools          []tool.Tool
	context        []*Task
	async          bool
	outputPath     string
}

// NewTask creates a task. Description is required.
func NewTask(id string, a *agent.Agent, optFns ...func(o *TaskOptions)) (*Task, error) {
	var opts TaskOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	var errs []error
	id = strings.TrimSpace(id)
	if id == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if a == nil {
		errs = append(errs, errors.New("agent must not be nil"))
	}
	if strings.TrimSpace(opts.Description) == "" {
		errs = append(errs, errors.New("description must not be empty"))
	}
	for i, c := range opts.Context {
		if c == nil {
			errs = append(errs, fmt.Errorf("context[%d] is nil", i))
		}
	}
	desc, err := core.NewTemplate(opts.Description)
	if err != nil {
		errs = append(errs, fmt.Errorf("description: %w", err))
	}
	expected, err := core.NewTemplate(opts.ExpectedOutput)
	if err != nil {
		errs = append(errs, fmt.Errorf("expected output: %w", err))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("task %q: %w", id, errors.Join(errs...))
	}

	t := &Task{
		id:             id,
		description:    desc,
		expectedOutput: expected,
		agent:          a,
		context:        append([]*Task(nil), opts.Context...),
		async:          opts.Async,
		outputPath:     opts.OutputPath,
	}
	if opts.Tools != nil {
		t.tools = append([]tool.Tool{}, opts.Tools...)
	}
	return t, nil
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// Agent returns the bound agent.
func (t *Task) Agent() *agent.Agent { return t.agent }

// Description returns the description template.
func (t *Task) Description() core.Template { return t.description }

// ExpectedOutput returns the expected output template.
func (t *Task) ExpectedOutput() core.Template { return t.expectedOutput }

// Context returns the predecessor tasks this task reads.
func (t *Task) Context() []*Task { return append([]*Task(nil), t.context...) }

// OutputPath returns the persistence target, or "".
func (t *Task) OutputPath() string { return t.outputPath }

// toolSet resolves the task's tool restriction against its agent.
func (t *Task) toolSet() (*tool.Set, error) {
	if t.tools == nil {
		return nil, nil
	}
	names := make([]string, 0, len(t.tools))
	for _, tl := range t.tools {
		names = append(names, tl.Name())
	}
	return t.agent.Tools().Subset(names...)
}
