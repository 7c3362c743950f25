// Package agent implements the bounded reasoning loop run by each crew member.
//
// An Agent is an immutable persona (role, goal, backstory) bound to a model,
// a tool set and an iteration budget. Execute runs one task: every turn asks
// the model for the next step in a small text protocol,
//
//	Thought: <reasoning>
//	Action: <tool name>
//	Action Input: <JSON object>
//
// or
//
//	Thought: <reasoning>
//	Final Answer: <result>
//
// performs the requested tool call or delegation, and feeds the observation
// back into the next prompt. The loop ends with a final answer, or with a
// partial result once MaxIterations turns have been spent.
//
// Transient model and tool failures are retried within the same turn according
// to RetryPolicy. Tool errors the model can react to (bad arguments, unknown
// tool, exhausted quota) are returned to it as observations. Everything else
// aborts the task with a *core.TaskExecutionFailedError carrying the
// transcript.
package agent
