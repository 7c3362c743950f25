package agent

import (
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

// DefaultMaxIterations bounds the reasoning turns of a task.
const DefaultMaxIterations = 3

// DefaultCallTimeout bounds a single model or tool call.
const DefaultCallTimeout = 2 * time.Minute

// Options configures an Agent.
//
// Use functional options with New to override defaults.
type Options struct {
	// Goal and Backstory may reference run inputs such as {topic}.
	Goal      string
	Backstory string

	Tools           []tool.Tool
	MaxIterations   int
	AllowDelegation bool
	// Verbose promotes per-turn logs from debug to info.
	Verbose bool
	// Temperature overrides the model default when > 0.
	Temperature float64
	CallTimeout time.Duration
	Retry       RetryPolicy

	Logger  *logging.CrewLogger
	Metrics metrics.Recorder
}

// Agent is a crew member. It is immutable after New and safe to share
// between tasks of the same run.
type Agent struct {
	role            string
	goal            core.Template
	backstory       core.Template
	llm             model.Model
	tools           *tool.Set
	maxIterations   int
	allowDelegation bool
	verbose         bool
	temperature     float64
	callTimeout     time.Duration
	retry           RetryPolicy
	logger          *logging.CrewLogger
	metrics         metrics.Recorder
}

// New creates an agent with the given role backed by llm.
//
// Defaults: DefaultMaxIterations turns, DefaultCallTimeout per call,
// DefaultRetryPolicy, delegation disabled, logs discarded.
func New(role string, llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		MaxIterations: DefaultMaxIterations,
		CallTimeout:   DefaultCallTimeout,
		Retry:         DefaultRetryPolicy(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var errs []error
	role = strings.TrimSpace(role)
	if role == "" {
		errs = append(errs, errors.New("role must not be empty"))
	}
	if llm == nil {
		errs = append(errs, errors.New("model must not be nil"))
	}
	if opts.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("max iterations must be >= 1, got %d", opts.MaxIterations))
	}
	if err := opts.Retry.validate(); err != nil {
		errs = append(errs, err)
	}
	goal, err := core.NewTemplate(opts.Goal)
	if err != nil {
		errs = append(errs, fmt.Errorf("goal: %w", err))
	}
	backstory, err := core.NewTemplate(opts.Backstory)
	if err != nil {
		errs = append(errs, fmt.Errorf("backstory: %w", err))
	}
	tools, err := tool.NewSet(opts.Tools...)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("agent %q: %w", role, errors.Join(errs...))
	}

	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Agent{
		role:            role,
		goal:            goal,
		backstory:       backstory,
		llm:             llm,
		tools:           tools,
		maxIterations:   opts.MaxIterations,
		allowDelegation: opts.AllowDelegation,
		verbose:         opts.Verbose,
		temperature:     opts.Temperature,
		callTimeout:     opts.CallTimeout,
		retry:           opts.Retry,
		logger:          logger.WithComponent("agent"),
		metrics:         metrics.OrNoOp(opts.Metrics),
	}, nil
}

// Role returns the agent's role, which doubles as its name.
func (a *Agent) Role() string { return a.role }

// Goal returns the goal template.
func (a *Agent) Goal() core.Template { return a.goal }

// Backstory returns the backstory template.
func (a *Agent) Backstory() core.Template { return a.backstory }

// Tools returns the agent's full tool set.
func (a *Agent) Tools() *tool.Set { return a.tools }

// Model returns the backing model.
func (a *Agent) Model() model.Model { return a.llm }

// MaxIterations returns the per-task turn budget.
func (a *Agent) MaxIterations() int { return a.maxIterations }

// AllowDelegation reports whether the agent may delegate to peers.
func (a *Agent) AllowDelegation() bool { return a.allowDelegation }
