package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies failures crossing the model, tool and task boundaries.
type ErrorKind int

const (
	// KindToolUnavailable signals an unreachable tool backend or transport error.
	KindToolUnavailable ErrorKind = iota + 1
	// KindToolQuotaExceeded signals that the tool backend is rate limiting.
	KindToolQuotaExceeded
	// KindModelUnavailable signals a network, auth or server failure of the model backend.
	KindModelUnavailable
	// KindModelOverloaded signals that the model backend is rate limiting.
	KindModelOverloaded
	// KindPromptRejected signals a content policy or length rejection. Never retried.
	KindPromptRejected
	// KindTaskExecutionFailed signals that an agent loop aborted.
	KindTaskExecutionFailed
	// KindCancelled signals that the caller cancelled the run.
	KindCancelled
)

// String returns the taxonomy name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindToolUnavailable:
		return "ToolUnavailable"
	case KindToolQuotaExceeded:
		return "ToolQuotaExceeded"
	case KindModelUnavailable:
		return "ModelUnavailable"
	case KindModelOverloaded:
		return "ModelOverloaded"
	case KindPromptRejected:
		return "PromptRejected"
	case KindTaskExecutionFailed:
		return "TaskExecutionFailed"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Retryable reports whether the kind may be retried at the turn level.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindToolUnavailable, KindModelUnavailable, KindModelOverloaded:
		return true
	default:
		return false
	}
}

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrToolUnavailable     = errors.New("tool unavailable")
	ErrToolQuotaExceeded   = errors.New("tool quota exceeded")
	ErrModelUnavailable    = errors.New("model unavailable")
	ErrModelOverloaded     = errors.New("model overloaded")
	ErrPromptRejected      = errors.New("prompt rejected")
	ErrTaskExecutionFailed = errors.New("task execution failed")
	ErrCancelled           = errors.New("cancelled")
)

func sentinelFor(k ErrorKind) error {
	switch k {
	case KindToolUnavailable:
		return ErrToolUnavailable
	case KindToolQuotaExceeded:
		return ErrToolQuotaExceeded
	case KindModelUnavailable:
		return ErrModelUnavailable
	case KindModelOverloaded:
		return ErrModelOverloaded
	case KindPromptRejected:
		return ErrPromptRejected
	case KindTaskExecutionFailed:
		return ErrTaskExecutionFailed
	case KindCancelled:
		return ErrCancelled
	default:
		return nil
	}
}

// Error is the structured error surfaced by model clients and tool adapters.
// StatusCode carries the backend status (0 for transport failures) so callers
// can decide on retries without string matching.
type Error struct {
	Kind       ErrorKind `json:"kind"`
	Source     string    `json:"source"`                // provider or tool name
	StatusCode int       `json:"status_code,omitempty"` // backend status, if any
	Message    string    `json:"message"`
	Err        error     `json:"-"`
}

// NewError creates an Error without an underlying cause.
func NewError(kind ErrorKind, source, message string) *Error {
	return &Error{Kind: kind, Source: source, Message: message}
}

// WrapError creates an Error around cause.
func WrapError(kind ErrorKind, source string, status int, cause error) *Error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: kind, Source: source, StatusCode: status, Message: msg, Err: cause}
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s [%s, status %d]: %s", e.Kind, e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Source, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel error of the same kind.
func (e *Error) Is(target error) bool {
	s := sentinelFor(e.Kind)
	return s != nil && target == s
}

// Retryable reports whether the error may be retried at the turn level.
func (e *Error) Retryable() bool { return e.Kind.Retryable() }

// KindOf extracts the ErrorKind of err. Context errors map to KindCancelled.
func KindOf(err error) (ErrorKind, bool) {
	if err == nil {
		return 0, false
	}
	var te *TaskExecutionFailedError
	if errors.As(err, &te) {
		return KindTaskExecutionFailed, true
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled, true
	}
	return 0, false
}

// IsRetryable reports whether err carries a retryable kind.
func IsRetryable(err error) bool {
	k, ok := KindOf(err)
	return ok && k.Retryable()
}

// Cancelled wraps a context error as a KindCancelled Error. The result still
// matches context.Canceled / context.DeadlineExceeded through errors.Is.
func Cancelled(cause error) error {
	if cause == nil {
		cause = context.Canceled
	}
	var ce *Error
	if errors.As(cause, &ce) && ce.Kind == KindCancelled {
		return cause
	}
	return WrapError(KindCancelled, "run", 0, cause)
}

// TaskExecutionFailedError reports an aborted agent loop together with the
// transcript of the turns that ran before the failure.
type TaskExecutionFailedError struct {
	TaskID     string
	Agent      string
	Turn       int
	Transcript Transcript
	Err        error
}

func (e *TaskExecutionFailedError) Error() string {
	return fmt.Sprintf("task %q (agent %q) failed at turn %d: %v", e.TaskID, e.Agent, e.Turn, e.Err)
}

// Unwrap returns the originating cause.
func (e *TaskExecutionFailedError) Unwrap() error { return e.Err }

// Is matches ErrTaskExecutionFailed.
func (e *TaskExecutionFailedError) Is(target error) bool { return target == ErrTaskExecutionFailed }
