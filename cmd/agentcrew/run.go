package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/agentcrew"
	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/artifact"
	"github.com/hupe1980/agentcrew/config"
	"github.com/hupe1980/agentcrew/evaluation"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/metrics"
	"github.com/hupe1980/agentcrew/model"
	anthropicmodel "github.com/hupe1980/agentcrew/model/anthropic"
	openaimodel "github.com/hupe1980/agentcrew/model/openai"
	"github.com/hupe1980/agentcrew/tool/search"
	"github.com/prometheus/client_golang/prometheus"
)

// RunCmd runs the pipeline once.
type RunCmd struct {
	Topic       string `help:"Topic to research." placeholder:"TOPIC"`
	Config      string `short:"c" help:"Path to a YAML config file." type:"path"`
	Output      string `short:"o" help:"Where to write the blog post." placeholder:"PATH"`
	Provider    string `help:"Model provider (groq, openai, anthropic)."`
	Model       string `help:"Model name."`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this file after the run." type:"path"`
	LogLevel    string `help:"Log level (debug, info, warn, error)."`
	LogFormat   string `help:"Log format (text, json)."`
}

// Run loads the configuration, runs the crew and prints the blog post.
func (c *RunCmd) Run(ctx context.Context) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Logging.Format,
		Output:    os.Stderr,
		Component: "cli",
	})

	reg := prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheus(reg)
	if err != nil {
		return err
	}

	llm, err := newModel(cfg.Model)
	if err != nil {
		return err
	}

	serper := search.NewSerper(cfg.Search.APIKey)
	if cfg.Search.Endpoint != "" {
		serper.Endpoint = cfg.Search.Endpoint
	}
	searchTool := search.New(serper, func(o *search.Options) {
		o.MaxResults = cfg.Search.MaxResults
	})

	news, err := agentcrew.NewNewsCrew(llm, searchTool, func(o *agentcrew.Options) {
		o.MaxIterations = cfg.Agents.MaxIterations
		o.AllowDelegation = cfg.Agents.AllowDelegation
		o.Verbose = cfg.Agents.Verbose
		o.CallTimeout = cfg.Agents.CallTimeout
		o.Retry = retryPolicy(cfg.Retry)
		o.OutputPath = cfg.OutputPath
		o.Store = artifact.NewFileStore("")
		o.Logger = logger
		o.Metrics = recorder
	})
	if err != nil {
		return err
	}

	logger.Info("starting crew", "topic", cfg.Topic, "provider", cfg.Model.Provider, "model", cfg.Model.Name)
	out, runErr := news.Run(ctx, cfg.Topic)

	if c.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(c.MetricsFile, reg); err != nil {
			logger.Warn("failed to write metrics", "path", c.MetricsFile, "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	fmt.Println(out.Raw)

	for _, r := range evaluation.Failed(news.Evaluate(out)) {
		logger.Warn("output check failed", "task_id", r.TaskID, "check", r.Name, "details", r.Details)
	}

	if out.IsPartial() {
		logger.Warn("crew finished without a final answer", "run_id", out.RunID, "path", cfg.OutputPath)
		return &exitError{code: 2, err: fmt.Errorf("run %s ended with a partial result", out.RunID)}
	}
	logger.Info("crew finished", "run_id", out.RunID, "path", cfg.OutputPath, "duration", out.Duration)
	return nil
}

// loadConfig resolves flags over file over defaults.
func (c *RunCmd) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if c.Config != "" {
		loaded, err := config.Load(c.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.Topic != "" {
		cfg.Topic = c.Topic
	}
	if c.Output != "" {
		cfg.OutputPath = c.Output
	}
	if c.Provider != "" && c.Provider != cfg.Model.Provider {
		cfg.Model.Provider = c.Provider
		cfg.Model.APIKey = ""
		cfg.Model.BaseURL = ""
		if c.Model == "" {
			cfg.Model.Name = defaultModelName(c.Provider)
		}
	}
	if c.Model != "" {
		cfg.Model.Name = c.Model
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Logging.Format = c.LogFormat
	}
	cfg.ApplyEnv()

	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("topic must not be empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// retryPolicy overrides the agent defaults with the configured values.
func retryPolicy(cfg config.RetryConfig) agent.RetryPolicy {
	p := agent.DefaultRetryPolicy()
	p.MaxRetries = cfg.MaxRetries
	p.InitialBackoff = cfg.InitialBackoff
	p.MaxBackoff = cfg.MaxBackoff
	if cfg.Multiplier > 0 {
		p.Multiplier = cfg.Multiplier
	}
	return p
}

func defaultModelName(provider string) string {
	switch provider {
	case config.ProviderOpenAI:
		return "gpt-4o-mini"
	case config.ProviderAnthropic:
		return string(anthropic.ModelClaude3_5Sonnet20241022)
	default:
		return openaimodel.GroqLlama33Versatile
	}
}

func newModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderGroq:
		return openaimodel.NewGroqModel(cfg.APIKey, func(o *openaimodel.Options) {
			o.Model = cfg.Name
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = cfg.MaxTokens
			if cfg.BaseURL != "" {
				o.BaseURL = cfg.BaseURL
			}
		}), nil
	case config.ProviderOpenAI:
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.APIKey = cfg.APIKey
			o.Model = cfg.Name
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = cfg.MaxTokens
			o.BaseURL = cfg.BaseURL
		}), nil
	case config.ProviderAnthropic:
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.APIKey = cfg.APIKey
			o.Model = anthropic.Model(cfg.Name)
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
			o.BaseURL = cfg.BaseURL
		}), nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}
}
