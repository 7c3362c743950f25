// Package metrics records crew run metrics. Recorder is the narrow interface
// the agent loop and crew talk to; Prometheus backs it with client_golang
// collectors and NoOp discards everything.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder receives run events.
type Recorder interface {
	TaskCompleted(agent, status string, dur time.Duration)
	TurnCompleted(agent, action string)
	ToolCalled(tool, outcome string, dur time.Duration)
	ModelCalled(provider, outcome string, dur time.Duration)
	Retried(kind string)
	Delegated(agent string)
}

// NoOp implements Recorder and records nothing.
type NoOp struct{}

func (NoOp) TaskCompleted(string, string, time.Duration) {}
func (NoOp) TurnCompleted(string, string)                {}
func (NoOp) ToolCalled(string, string, time.Duration)    {}
func (NoOp) ModelCalled(string, string, time.Duration)   {}
func (NoOp) Retried(string)                              {}
func (NoOp) Delegated(string)                            {}

// OrNoOp returns r, or NoOp when r is nil.
func OrNoOp(r Recorder) Recorder {
	if r == nil {
		return NoOp{}
	}
	return r
}

// Prometheus implements Recorder with client_golang collectors.
type Prometheus struct {
	taskExecutions *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
	turns          *prometheus.CounterVec
	toolCalls      *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec
	modelCalls     *prometheus.CounterVec
	modelDuration  *prometheus.HistogramVec
	retries        *prometheus.CounterVec
	delegations    *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		taskExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcrew_task_executions_total",
			Help: "Total task executions by agent and result status.",
		}, []string{"agent", "status"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentcrew_task_duration_seconds",
			Help:    "Task execution duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"agent"}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcrew_turns_total",
			Help: "Total reasoning turns by agent and action.",
		}, []string{"agent", "action"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcrew_tool_calls_total",
			Help: "Total tool calls by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentcrew_tool_duration_seconds",
			Help:    "Tool call duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcrew_model_calls_total",
			Help: "Total model calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		modelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentcrew_model_duration_seconds",
			Help:    "Model call duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"provider"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcrew_retries_total",
			Help: "Total turn-level retries by error kind.",
		}, []string{"kind"}),
		delegations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcrew_delegations_total",
			Help: "Total delegation requests by delegating agent.",
		}, []string{"agent"}),
	}

	for _, c := range []prometheus.Collector{
		p.taskExecutions, p.taskDuration, p.turns, p.toolCalls, p.toolDuration,
		p.modelCalls, p.modelDuration, p.retries, p.delegations,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register collector: %w", err)
		}
	}
	return p, nil
}

func (p *Prometheus) TaskCompleted(agent, status string, dur time.Duration) {
	p.taskExecutions.WithLabelValues(agent, status).Inc()
	p.taskDuration.WithLabelValues(agent).Observe(dur.Seconds())
}

func (p *Prometheus) TurnCompleted(agent, action string) {
	p.turns.WithLabelValues(agent, action).Inc()
}

func (p *Prometheus) ToolCalled(tool, outcome string, dur time.Duration) {
	p.toolCalls.WithLabelValues(tool, outcome).Inc()
	p.toolDuration.WithLabelValues(tool).Observe(dur.Seconds())
}

func (p *Prometheus) ModelCalled(provider, outcome string, dur time.Duration) {
	p.modelCalls.WithLabelValues(provider, outcome).Inc()
	p.modelDuration.WithLabelValues(provider).Observe(dur.Seconds())
}

func (p *Prometheus) Retried(kind string) { p.retries.WithLabelValues(kind).Inc() }

func (p *Prometheus) Delegated(agent string) { p.delegations.WithLabelValues(agent).Inc() }
