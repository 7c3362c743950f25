// Package tool implements the capabilities an agent can invoke from its
// reasoning loop. Tools are named, carry a minimal JSON schema for their
// arguments and report failures as *ToolError so the loop can turn them into
// observations.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentcrew/internal/util"
)

// Tool is a capability an agent may call during a task.
//
// Implementations must be safe for concurrent use; a single tool value can be
// shared by several agents of the same crew.
type Tool interface {
	// Name returns the identifier the model uses in "Action:" directives.
	Name() string

	// Description is rendered into the agent prompt.
	Description() string

	// Parameters returns a JSON schema describing the accepted arguments.
	Parameters() map[string]any

	// Call executes the tool. Errors that should be shown to the model are
	// returned as *ToolError; infrastructure failures are returned as
	// *core.Error values with a tool kind.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes carried by ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeNotFound   = "NOT_FOUND"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// NotFound reports a call to a tool the agent does not have.
func NotFound(name string, available []string) *ToolError {
	return &ToolError{
		Tool:    name,
		Message: fmt.Sprintf("unknown tool %q, available tools: %v", name, available),
		Code:    CodeNotFound,
	}
}
