package crew

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/artifact"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/metrics"
	"github.com/hupe1980/agentcrew/tool"
)

// Process selects how tasks are scheduled.
type Process int

const (
	// ProcessSequential runs tasks one at a time in declaration order.
	ProcessSequential Process = iota
	// ProcessHierarchical is recognized but not supported.
	ProcessHierarchical
)

func (p Process) String() string {
	if p == ProcessHierarchical {
		return "hierarchical"
	}
	return "sequential"
}

// InputTopic is the default run input.
const InputTopic = "topic"

// Options configures a Crew.
type Options struct {
	Process Process
	// Inputs are the placeholder names templates may use. Defaults to topic.
	Inputs  []string
	Store   artifact.Store
	Logger  *logging.CrewLogger
	Metrics metrics.Recorder
}

// Crew is a validated, immutable pipeline.
type Crew struct {
	agents  []*agent.Agent
	tasks   []*Task
	toolSet map[string]*tool.Set
	inputs  []string
	store   artifact.Store
	logger  *logging.CrewLogger
	metrics metrics.Recorder
}

// Output is the result of one run.
type Output struct {
	RunID    string
	Raw      string
	Status   core.ResultStatus
	Tasks    []core.TaskOutput
	Duration time.Duration
}

// Final returns the output of the last task.
func (o *Output) Final() core.TaskOutput {
	if len(o.Tasks) == 0 {
		return core.TaskOutput{}
	}
	return o.Tasks[len(o.Tasks)-1]
}

// IsPartial reports whether any task ended without a final answer.
func (o *Output) IsPartial() bool { return o.Status == core.StatusPartial }

// New validates agents and tasks and builds a Crew.
func New(agents []*agent.Agent, tasks []*Task, optFns ...func(o *Options)) (*Crew, error) {
	opts := Options{Process: ProcessSequential, Inputs: []string{InputTopic}}
	for _, fn := range optFns {
		fn(&opts)
	}

	var errs []error
	if opts.Process != ProcessSequential {
		errs = append(errs, fmt.Errorf("process %s is not supported", opts.Process))
	}
	if len(agents) == 0 {
		errs = append(errs, errors.New("at least one agent is required"))
	}
	if len(tasks) == 0 {
		errs = append(errs, errors.New("at least one task is required"))
	}

	members := make(map[*agent.Agent]bool, len(agents))
	roles := make(map[string]bool, len(agents))
	for _, a := range agents {
		if a == nil {
			errs = append(errs, errors.New("nil agent"))
			continue
		}
		role := strings.ToLower(a.Role())
		if roles[role] {
			errs = append(errs, fmt.Errorf("duplicate agent role %q", a.Role()))
		}
		roles[role] = true
		members[a] = true
		if err := a.Goal().Validate(opts.Inputs...); err != nil {
			errs = append(errs, fmt.Errorf("agent %q goal: %w", a.Role(), err))
		}
		if err := a.Backstory().Validate(opts.Inputs...); err != nil {
			errs = append(errs, fmt.Errorf("agent %q backstory: %w", a.Role(), err))
		}
	}

	seen := make(map[*Task]bool, len(tasks))
	ids := make(map[string]bool, len(tasks))
	toolSets := make(map[string]*tool.Set, len(tasks))
	for _, t := range tasks {
		if t == nil {
			errs = append(errs, errors.New("nil task"))
			continue
		}
		if ids[t.id] {
			errs = append(errs, fmt.Errorf("duplicate task id %q", t.id))
		}
		ids[t.id] = true

		if !members[t.agent] {
			errs = append(errs, fmt.Errorf("task %q: agent %q is not a crew member", t.id, t.agent.Role()))
		}
		if t.async {
			errs = append(errs, fmt.Errorf("task %q: async execution is not supported", t.id))
		}
		for _, c := range t.context {
			if !seen[c] {
				errs = append(errs, fmt.Errorf("task %q: context task %q must be declared earlier in the same crew", t.id, c.id))
			}
		}
		if err := t.description.Validate(opts.Inputs...); err != nil {
			errs = append(errs, fmt.Errorf("task %q description: %w", t.id, err))
		}
		if err := t.expectedOutput.Validate(opts.Inputs...); err != nil {
			errs = append(errs, fmt.Errorf("task %q expected output: %w", t.id, err))
		}
		set, err := t.toolSet()
		if err != nil {
			errs = append(errs, fmt.Errorf("task %q: %w", t.id, err))
		}
		toolSets[t.id] = set
		seen[t] = true
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("crew: %w", errors.Join(errs...))
	}

	store := opts.Store
	if store == nil {
		store = artifact.NewFileStore("")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Crew{
		agents:  append([]*agent.Agent(nil), agents...),
		tasks:   append([]*Task(nil), tasks...),
		toolSet: toolSets,
		inputs:  append([]string(nil), opts.Inputs...),
		store:   store,
		logger:  logger.WithComponent("crew"),
		metrics: opts.Metrics,
	}, nil
}

// Tasks returns the tasks in execution order.
func (c *Crew) Tasks() []*Task { return append([]*Task(nil), c.tasks...) }

// Run executes the pipeline for one topic.
func (c *Crew) Run(ctx context.Context, topic string) (*Output, error) {
	return c.Kickoff(ctx, map[string]string{InputTopic: topic})
}

// Kickoff executes the pipeline with the given inputs.
//
// A *core.TaskExecutionFailedError aborts the pipeline; later tasks are never
// started. Cancellation returns an error matching core.ErrCancelled. In both
// cases nothing is persisted. Once persistence has begun, every output is
// written even if ctx is cancelled meanwhile.
func (c *Crew) Kickoff(ctx context.Context, inputs map[string]string) (*Output, error) {
	for _, name := range c.inputs {
		if strings.TrimSpace(inputs[name]) == "" {
			return nil, fmt.Errorf("crew: input %q must not be empty", name)
		}
	}

	start := time.Now()
	runID := uuid.NewString()
	logger := c.logger.WithRun(runID)
	logger.Info("crew.run.started", "tasks", len(c.tasks), "inputs", inputs)

	out := &Output{RunID: runID, Status: core.StatusComplete}
	results := make(map[*Task]*core.TaskOutput, len(c.tasks))

	for _, t := range c.tasks {
		if err := ctx.Err(); err != nil {
			logger.Warn("crew.run.cancelled", "before_task", t.id)
			return nil, core.Cancelled(err)
		}

		res, err := c.runTask(ctx, t, inputs, results, logger)
		if err != nil {
			if errors.Is(err, core.ErrCancelled) {
				logger.Warn("crew.run.cancelled", "task_id", t.id)
			} else {
				logger.Error("crew.run.aborted", "task_id", t.id, "error", err.Error())
			}
			return nil, err
		}

		results[t] = res
		out.Tasks = append(out.Tasks, *res)
		if res.IsPartial() {
			out.Status = core.StatusPartial
		}
	}

	if err := c.persist(ctx, results, logger); err != nil {
		return nil, err
	}

	out.Raw = out.Final().Raw
	out.Duration = time.Since(start)
	logger.Info("crew.run.completed", "status", out.Status.String(), "duration", out.Duration)
	return out, nil
}

func (c *Crew) runTask(ctx context.Context, t *Task, inputs map[string]string, results map[*Task]*core.TaskOutput, logger *logging.CrewLogger) (*core.TaskOutput, error) {
	description, err := t.description.Render(inputs)
	if err != nil {
		return nil, &core.TaskExecutionFailedError{TaskID: t.id, Agent: t.agent.Role(), Err: err}
	}
	expected, err := t.expectedOutput.Render(inputs)
	if err != nil {
		return nil, &core.TaskExecutionFailedError{TaskID: t.id, Agent: t.agent.Role(), Err: err}
	}

	var taskContext []string
	for _, dep := range t.context {
		res, ok := results[dep]
		if !ok {
			return nil, &core.TaskExecutionFailedError{TaskID: t.id, Agent: t.agent.Role(), Err: fmt.Errorf("context task %q has no result", dep.id)}
		}
		taskContext = append(taskContext, res.Raw)
	}

	taskLogger := logger.WithTask(t.id)
	taskLogger.Info("crew.task.started", "agent", t.agent.Role(), "context_tasks", len(t.context))

	return t.agent.Execute(ctx, agent.Execution{
		TaskID:         t.id,
		Description:    description,
		ExpectedOutput: expected,
		Context:        taskContext,
		Tools:          c.toolSet[t.id],
		Vars:           inputs,
		Peers:          c.agents,
		Logger:         taskLogger,
		Metrics:        c.metrics,
	})
}

// persist writes every task output that has an OutputPath. Cancellation is
// checked once up front; after that all files are written so a run never
// leaves only some of its outputs behind.
func (c *Crew) persist(ctx context.Context, results map[*Task]*core.TaskOutput, logger *logging.CrewLogger) error {
	if err := ctx.Err(); err != nil {
		return core.Cancelled(err)
	}
	saveCtx := context.WithoutCancel(ctx)

	for _, t := range c.tasks {
		if t.outputPath == "" {
			continue
		}
		if err := c.store.Save(saveCtx, t.outputPath, []byte(results[t].Raw)); err != nil {
			return fmt.Errorf("crew: persist task %q to %s: %w", t.id, t.outputPath, err)
		}
		logger.Info("crew.task.persisted", "task_id", t.id, "path", t.outputPath, "bytes", len(results[t].Raw))
	}
	return nil
}
