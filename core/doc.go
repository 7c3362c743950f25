// Package core provides the foundational domain types shared by every layer
// of agentcrew. It defines:
//
//   - Template (prompt text with {name} placeholders, validated up front)
//   - the error taxonomy (ErrorKind, Error, TaskExecutionFailedError)
//   - TurnRecord / Transcript (per-task reasoning trace)
//   - TaskOutput / ResultStatus (complete vs. partial results)
//   - IterationBudget (monotonic turn counter for the agent loop)
//
// The package has no dependencies on models, tools or agents so that those
// packages can depend on it without cycles.
package core
