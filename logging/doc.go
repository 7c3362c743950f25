// Package logging provides a minimal logging interface and adapters for agentcrew.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the crew, agents and tools use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - CrewLogger with run / task scoping and domain helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "json"})
//	researcher, _ := agent.New("Senior News Researcher", llm, func(o *agent.Options) { o.Logger = logger })
package logging
