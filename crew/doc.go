// Package crew runs an ordered list of tasks, each bound to one agent, as a
// single pipeline.
//
// Tasks execute strictly one at a time in declaration order. A task can read
// the outputs of earlier tasks through its context list; those outputs are
// injected verbatim into its prompt. When every task has finished, outputs
// with an OutputPath are written through the configured artifact.Store. A
// failed or cancelled run writes nothing.
package crew
