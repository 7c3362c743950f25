// Package testutil contains helper builders used across tests to script model
// replies in the Thought/Action/Final Answer text protocol. Not intended for
// production usage.
package testutil
