// Package config loads the crew configuration from YAML with environment
// variable expansion and fills in credentials from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Model providers.
const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Search providers.
const SearchSerper = "serper"

// Config is the full run configuration.
type Config struct {
	Topic      string        `yaml:"topic"`
	OutputPath string        `yaml:"output_path"`
	Model      ModelConfig   `yaml:"model"`
	Search     SearchConfig  `yaml:"search"`
	Agents     AgentsConfig  `yaml:"agents"`
	Retry      RetryConfig   `yaml:"retry"`
	Logging    LoggingConfig `yaml:"logging"`
}

// ModelConfig selects and tunes the language model.
type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
	APIKey      string  `yaml:"api_key"`
}

// SearchConfig selects the search backend.
type SearchConfig struct {
	Provider   string `yaml:"provider"`
	Endpoint   string `yaml:"endpoint"`
	MaxResults int    `yaml:"max_results"`
	APIKey     string `yaml:"api_key"`
}

// AgentsConfig holds settings shared by all crew agents.
type AgentsConfig struct {
	MaxIterations   int           `yaml:"max_iterations"`
	AllowDelegation bool          `yaml:"allow_delegation"`
	Verbose         bool          `yaml:"verbose"`
	CallTimeout     time.Duration `yaml:"call_timeout"`
}

// RetryConfig controls turn-level retries.
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration of the news crew deployment.
func Default() *Config {
	return &Config{
		Topic:      "AI in healthcare",
		OutputPath: "new-blog-post.md",
		Model: ModelConfig{
			Provider:    ProviderGroq,
			Name:        "llama-3.3-70b-versatile",
			Temperature: 0.3,
			MaxTokens:   4096,
		},
		Search: SearchConfig{
			Provider:   SearchSerper,
			Endpoint:   "https://google.serper.dev/search",
			MaxResults: 3,
		},
		Agents: AgentsConfig{
			MaxIterations:   3,
			AllowDelegation: true,
			CallTimeout:     2 * time.Minute,
		},
		Retry: RetryConfig{
			MaxRetries:     2,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			Multiplier:     2,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file over the defaults. ${VAR} references are expanded
// before parsing and missing credentials are taken from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv fills empty API keys from the provider's conventional variable.
func (c *Config) ApplyEnv() {
	if c.Model.APIKey == "" {
		c.Model.APIKey = ProviderAPIKey(c.Model.Provider)
	}
	if c.Search.APIKey == "" {
		c.Search.APIKey = ProviderAPIKey(c.Search.Provider)
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	switch c.Model.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("model.provider %q is not supported", c.Model.Provider))
	}
	if strings.TrimSpace(c.Model.Name) == "" {
		errs = append(errs, errors.New("model.name is required"))
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = append(errs, fmt.Errorf("model.temperature must be within [0, 2], got %v", c.Model.Temperature))
	}
	if c.Model.APIKey == "" {
		errs = append(errs, fmt.Errorf("model.api_key is required for provider %q", c.Model.Provider))
	}

	if c.Search.Provider != SearchSerper {
		errs = append(errs, fmt.Errorf("search.provider %q is not supported", c.Search.Provider))
	}
	if c.Search.MaxResults < 1 {
		errs = append(errs, fmt.Errorf("search.max_results must be >= 1, got %d", c.Search.MaxResults))
	}
	if c.Search.APIKey == "" {
		errs = append(errs, errors.New("search.api_key is required"))
	}

	if c.Agents.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("agents.max_iterations must be >= 1, got %d", c.Agents.MaxIterations))
	}
	if c.Agents.CallTimeout <= 0 {
		errs = append(errs, errors.New("agents.call_timeout must be positive"))
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("retry.max_retries must be >= 0, got %d", c.Retry.MaxRetries))
	}
	if c.Retry.InitialBackoff < 0 || c.Retry.MaxBackoff < 0 {
		errs = append(errs, errors.New("retry backoff must not be negative"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, fmt.Errorf("retry.multiplier must be >= 1, got %v", c.Retry.Multiplier))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}

	return errors.Join(errs...)
}
