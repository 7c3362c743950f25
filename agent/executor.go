package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/metrics"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/tool"
)

// Execution is the input of one task run.
type Execution struct {
	TaskID         string
	Description    string
	ExpectedOutput string
	// Context holds predecessor outputs, injected verbatim in order.
	Context []string
	// Tools restricts the agent to a subset of its tools; nil means all.
	Tools *tool.Set
	// Vars resolves {placeholders} in goal and backstory.
	Vars map[string]string
	// Peers are the agents this one may delegate to.
	Peers []*Agent

	// Logger and Metrics override the agent's own sinks when set.
	Logger  *logging.CrewLogger
	Metrics metrics.Recorder
}

// loop holds the state of one bounded reasoning loop.
type loop struct {
	agent      *Agent
	exec       Execution
	depth      int
	tools      *tool.Set
	peers      []*Agent
	logger     *logging.CrewLogger
	metrics    metrics.Recorder
	budget     *core.IterationBudget
	transcript core.Transcript
	system     string
	prompt     promptInput

	delegations int
	lastThought string
}

// Execute runs the reasoning loop for one task.
//
// It returns a complete output when the model gives a final answer, a partial
// output when the iteration budget runs out first, a *core.TaskExecutionFailedError
// for unrecoverable failures, and an error matching core.ErrCancelled when
// ctx is cancelled.
func (a *Agent) Execute(ctx context.Context, exec Execution) (*core.TaskOutput, error) {
	return a.execute(ctx, exec, 0)
}

func (a *Agent) execute(ctx context.Context, exec Execution, depth int) (*core.TaskOutput, error) {
	l, err := a.newLoop(exec, depth)
	if err != nil {
		return nil, &core.TaskExecutionFailedError{TaskID: exec.TaskID, Agent: a.role, Err: err}
	}
	return l.run(ctx)
}

func (a *Agent) newLoop(exec Execution, depth int) (*loop, error) {
	budget, err := core.NewIterationBudget(a.maxIterations)
	if err != nil {
		return nil, err
	}

	goal, err := a.goal.Render(exec.Vars)
	if err != nil {
		return nil, fmt.Errorf("render goal: %w", err)
	}
	backstory, err := a.backstory.Render(exec.Vars)
	if err != nil {
		return nil, fmt.Errorf("render backstory: %w", err)
	}

	tools := exec.Tools
	if tools == nil {
		tools = a.tools
	}

	// Delegation is offered only at the top level.
	var peers []*Agent
	if depth == 0 && a.allowDelegation {
		for _, p := range exec.Peers {
			if p != nil && p != a {
				peers = append(peers, p)
			}
		}
	}

	logger := a.logger
	if exec.Logger != nil {
		logger = exec.Logger.WithComponent("agent")
	}
	rec := a.metrics
	if exec.Metrics != nil {
		rec = exec.Metrics
	}

	l := &loop{
		agent:   a,
		exec:    exec,
		depth:   depth,
		tools:   tools,
		peers:   peers,
		logger:  logger,
		metrics: rec,
		budget:  budget,
		prompt: promptInput{
			role:           a.role,
			goal:           goal,
			backstory:      backstory,
			tools:          tools,
			peers:          peerNames(peers),
			description:    exec.Description,
			expectedOutput: exec.ExpectedOutput,
			context:        exec.Context,
		},
	}
	l.system = buildSystemPrompt(l.prompt)
	return l, nil
}

func (l *loop) run(ctx context.Context) (*core.TaskOutput, error) {
	start := time.Now()
	a := l.agent

	for !l.budget.Exhausted() {
		if err := ctx.Err(); err != nil {
			return nil, core.Cancelled(err)
		}

		turnStart := time.Now()
		index := l.budget.Used() + 1

		resp, attempts, err := l.generate(ctx)
		if err != nil {
			if errors.Is(err, core.ErrCancelled) {
				return nil, err
			}
			return nil, l.fail(index, core.TurnRecord{Index: index, Attempts: attempts, Error: err.Error()}, err, start)
		}

		directive := ParseDirective(resp.Text)
		record := core.TurnRecord{
			Index:    index,
			Thought:  directive.Reasoning(),
			Action:   directive.Kind(),
			Attempts: attempts,
		}
		if record.Thought != "" {
			l.lastThought = record.Thought
		}

		if final, ok := directive.(*Final); ok {
			if err := l.budget.Consume(); err != nil {
				return nil, l.fail(index, record, err, start)
			}
			record.Observation = final.Text
			record.Duration = time.Since(turnStart)
			l.transcript = l.transcript.Append(record)
			l.logTurn(record)
			if final.Malformed {
				l.logger.Warn("agent.response.unstructured", "agent", a.role, "turn", index)
			}
			return l.output(final.Text, core.StatusComplete, start), nil
		}

		switch d := directive.(type) {
		case *ToolCall:
			record.Target = d.Name
			record.Input = d.RawInput
			record.Observation, err = l.callTool(ctx, d)
		case *Delegate:
			record.Target = DelegateWorkAction
			record.Input = d.encode()
			record.Observation, err = l.delegate(ctx, d)
		}
		if err != nil {
			if errors.Is(err, core.ErrCancelled) {
				return nil, err
			}
			record.Error = err.Error()
			return nil, l.fail(index, record, err, start)
		}

		if err := l.budget.Consume(); err != nil {
			return nil, l.fail(index, record, err, start)
		}
		record.Duration = time.Since(turnStart)
		l.transcript = l.transcript.Append(record)
		l.logTurn(record)
	}

	raw := l.lastThought
	if raw == "" {
		raw = core.IncompleteMarker
	}
	l.logger.Warn("agent.budget.exhausted", "agent", a.role, "task_id", l.exec.TaskID, "max_iterations", l.budget.Max())
	return l.output(raw, core.StatusPartial, start), nil
}

func (l *loop) output(raw string, status core.ResultStatus, start time.Time) *core.TaskOutput {
	dur := time.Since(start)
	l.metrics.TaskCompleted(l.agent.role, status.String(), dur)
	l.logger.LogTaskExecution(l.agent.role, l.budget.Used(), status.String(), dur, nil)
	return &core.TaskOutput{
		TaskID:         l.exec.TaskID,
		Agent:          l.agent.role,
		Description:    l.exec.Description,
		ExpectedOutput: l.exec.ExpectedOutput,
		Raw:            raw,
		Status:         status,
		Turns:          l.budget.Used(),
		Delegations:    l.delegations,
		Duration:       dur,
	}
}

func (l *loop) fail(turn int, record core.TurnRecord, err error, start time.Time) error {
	l.transcript = l.transcript.Append(record)
	dur := time.Since(start)
	l.metrics.TaskCompleted(l.agent.role, "failed", dur)
	l.logger.LogTaskExecution(l.agent.role, turn, "failed", dur, err)
	return &core.TaskExecutionFailedError{
		TaskID:     l.exec.TaskID,
		Agent:      l.agent.role,
		Turn:       turn,
		Transcript: l.transcript,
		Err:        err,
	}
}

func (l *loop) logTurn(r core.TurnRecord) {
	l.metrics.TurnCompleted(l.agent.role, r.Action.String())
	args := []any{"agent", l.agent.role, "turn", r.Index, "action", r.Action.String(), "attempts", r.Attempts, "duration", r.Duration}
	if r.Target != "" {
		args = append(args, "target", r.Target)
	}
	if l.agent.verbose {
		l.logger.Info("agent.turn.completed", append(args, "thought", r.Thought)...)
		return
	}
	l.logger.Debug("agent.turn.completed", args...)
}

// generate performs one model call for the current turn, retrying retryable
// failures.
func (l *loop) generate(ctx context.Context) (*model.Response, int, error) {
	a := l.agent
	in := l.prompt
	in.transcript = l.transcript
	in.lastTurn = l.budget.Remaining() == 1 && l.budget.Max() > 1

	req := model.Request{
		System:      l.system,
		Prompt:      buildTaskPrompt(in),
		Temperature: a.temperature,
		Stop:        []string{ObservationStop},
	}
	info := a.llm.Info()

	var resp *model.Response
	attempts, err := a.retry.do(ctx, func(ctx context.Context) error {
		callStart := time.Now()
		err := callWithTimeout(ctx, a.callTimeout, core.KindModelUnavailable, info.Provider, func(ctx context.Context) error {
			r, err := a.llm.Generate(ctx, req)
			if err != nil {
				return err
			}
			if r == nil {
				return core.WrapError(core.KindModelUnavailable, info.Provider, 0, errors.New("empty response"))
			}
			resp = r
			return nil
		})
		dur := time.Since(callStart)

		tokens := 0
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		} else if resp.Usage != nil {
			tokens = resp.Usage.TotalTokens
		}
		l.metrics.ModelCalled(info.Provider, outcome, dur)
		l.logger.LogModelCall(info.Name, tokens, dur, err)
		return err
	}, l.onRetry("model.generate"))
	if err != nil {
		return nil, attempts, err
	}
	return resp, attempts, nil
}

func (l *loop) onRetry(op string) retryHook {
	return func(attempt int, delay time.Duration, err error) {
		kind, _ := core.KindOf(err)
		l.metrics.Retried(kind.String())
		l.logger.LogRetry(op, attempt, delay, err)
	}
}

// callTool runs a tool call and returns the observation. Errors the model can
// act on become observations; the returned error aborts the task.
func (l *loop) callTool(ctx context.Context, d *ToolCall) (string, error) {
	a := l.agent

	t, ok := l.tools.Get(d.Name)
	if !ok {
		return observeError(tool.NotFound(d.Name, l.tools.Names())), nil
	}

	args, toolErr := coerceArgs(t, d)
	if toolErr != nil {
		return observeError(toolErr), nil
	}

	var result any
	_, err := a.retry.do(ctx, func(ctx context.Context) error {
		callStart := time.Now()
		err := callWithTimeout(ctx, a.callTimeout, core.KindToolUnavailable, t.Name(), func(ctx context.Context) error {
			r, err := t.Call(ctx, args)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
		dur := time.Since(callStart)

		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		l.metrics.ToolCalled(t.Name(), outcome, dur)
		l.logger.LogToolCall(t.Name(), resultCount(result), dur, err)

		if err != nil && handledToolError(err) {
			// Returned to the model below; never retried.
			return &handledError{err: err}
		}
		return err
	}, l.onRetry("tool."+t.Name()))

	var handled *handledError
	if errors.As(err, &handled) {
		return observeError(handled.err), nil
	}
	if err != nil {
		return "", err
	}
	return formatObservation(result), nil
}

// handledError marks a tool failure that is reported to the model.
type handledError struct{ err error }

func (e *handledError) Error() string { return e.err.Error() }
func (e *handledError) Unwrap() error { return e.err }

func handledToolError(err error) bool {
	var te *tool.ToolError
	if errors.As(err, &te) {
		return true
	}
	kind, ok := core.KindOf(err)
	return ok && kind == core.KindToolQuotaExceeded
}

func observeError(err error) string {
	var te *tool.ToolError
	if errors.As(err, &te) {
		return "Error: " + te.Message
	}
	return "Error: " + err.Error()
}

// coerceArgs turns the model's Action Input into tool arguments. Plain text
// is accepted for tools with exactly one required string argument.
func coerceArgs(t tool.Tool, d *ToolCall) (map[string]any, *tool.ToolError) {
	if d.Input != nil {
		return d.Input, nil
	}
	raw := strings.TrimSpace(d.RawInput)

	schema := t.Parameters()
	props, _ := schema["properties"].(map[string]any)
	if raw == "" {
		if len(props) == 0 {
			return map[string]any{}, nil
		}
		return nil, tool.NewToolError(t.Name(), "Action Input is empty; provide the arguments as a JSON object", tool.CodeValidation)
	}

	var required []string
	switch r := schema["required"].(type) {
	case []string:
		required = r
	case []any:
		for _, v := range r {
			if s, ok := v.(string); ok {
				required = append(required, s)
			}
		}
	}
	if len(required) == 1 {
		if prop, _ := props[required[0]].(map[string]any); prop["type"] == "string" {
			return map[string]any{required[0]: strings.Trim(raw, `"`)}, nil
		}
	}
	return nil, tool.NewToolError(t.Name(), "Action Input must be a JSON object", tool.CodeValidation)
}

func resultCount(v any) int {
	switch r := v.(type) {
	case nil:
		return 0
	case interface{ Len() int }:
		return r.Len()
	}
	if b, err := json.Marshal(v); err == nil {
		var arr []any
		if json.Unmarshal(b, &arr) == nil {
			return len(arr)
		}
	}
	return 1
}

// delegate hands a question to a peer and returns its answer as the
// observation. The peer runs its own bounded loop without peers.
func (l *loop) delegate(ctx context.Context, d *Delegate) (string, error) {
	a := l.agent

	switch {
	case !a.allowDelegation:
		return "Error: delegation is not allowed for " + a.role + ". Complete the task yourself.", nil
	case l.depth > 0:
		return "Error: delegated work cannot be delegated again. Complete the task yourself.", nil
	case len(l.peers) == 0:
		return "Error: there are no coworkers to delegate to. Complete the task yourself.", nil
	}

	peer := l.findPeer(d.Peer)
	if peer == nil {
		return fmt.Sprintf("Error: no coworker named %q. Available coworkers: %s", d.Peer, strings.Join(peerNames(l.peers), ", ")), nil
	}

	l.delegations++
	l.metrics.Delegated(a.role)
	l.logger.Info("agent.delegation.started", "agent", a.role, "peer", peer.role)

	exec := Execution{
		TaskID:         fmt.Sprintf("%s/delegation-%d", l.exec.TaskID, l.delegations),
		Description:    d.Question,
		ExpectedOutput: "Your best answer to your coworker asking you this, accounting for the context shared.",
		Vars:           l.exec.Vars,
		Logger:         l.exec.Logger,
		Metrics:        l.exec.Metrics,
	}
	if d.Context != "" {
		exec.Context = []string{d.Context}
	}

	out, err := peer.execute(ctx, exec, l.depth+1)
	if err != nil {
		return "", err
	}
	return out.Raw, nil
}

func (l *loop) findPeer(name string) *Agent {
	name = strings.TrimSpace(name)
	for _, p := range l.peers {
		if strings.EqualFold(p.role, name) {
			return p
		}
	}
	return nil
}

func peerNames(peers []*Agent) []string {
	names := make([]string, 0, len(peers))
	for _, p := range peers {
		names = append(names, p.role)
	}
	return names
}

func (d *Delegate) encode() string {
	b, _ := json.Marshal(map[string]string{"coworker": d.Peer, "task": d.Question, "context": d.Context})
	return string(b)
}
