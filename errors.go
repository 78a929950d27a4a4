package agent

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes a failure for surfacing and retry decisions. These
// mirror the runtime's error taxonomy; RateLimited, ServiceUnavailable,
// Network, and Communication are the only kinds retried before surfacing.
type ErrorKind string

const (
	KindConfiguration        ErrorKind = "configuration"
	KindAuthentication       ErrorKind = "authentication"
	KindRateLimited          ErrorKind = "rate_limited"
	KindServiceUnavailable   ErrorKind = "service_unavailable"
	KindNetwork              ErrorKind = "network"
	KindCommunication        ErrorKind = "communication"
	KindModel                ErrorKind = "model"
	KindTool                 ErrorKind = "tool"
	KindPermission           ErrorKind = "permission"
	KindContext              ErrorKind = "context"
	KindUnexpectedStopReason ErrorKind = "unexpected_stop_reason"
)

// Error is the runtime's single error type, carrying a Kind for callers
// that branch on error category rather than matching sentinel values.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("[%s]", e.Kind)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// NewError constructs an Error of the given kind wrapping cause.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Sentinel errors for the terminal stop-reason branches in Run's loop
// (EndTurn with empty text, MaxTokens, ContentFiltered), plus the builder
// and authorization sentinels. A stop reason the loop does not recognize
// is reported as *UnexpectedStopReasonError instead.
var (
	// ErrNoResponse is returned when the model stops at EndTurn with no
	// extractable text.
	ErrNoResponse = NewError(KindModel, "model produced no response text", nil)

	// ErrMaxTokensExceeded is returned when the model stops because it hit
	// its output token limit before reaching a natural end of turn.
	ErrMaxTokensExceeded = NewError(KindModel, "model call exceeded its maximum output tokens", nil)

	// ErrContentFiltered is returned when the model stops because its
	// response was filtered by provider-side content safety.
	ErrContentFiltered = NewError(KindModel, "model response was filtered", nil)

	// ErrNoProvider is returned by Build when no ModelProvider was configured.
	ErrNoProvider = errors.New("agent: no model provider configured")

	// ErrProposalNotFound describes a proposal id that refers to a decision
	// that is no longer pending. Agent.RespondToAuthorization reports that
	// case by returning false rather than this error.
	ErrProposalNotFound = errors.New("agent: no pending proposal with that id")
)

// UnexpectedStopReasonError reports a stop reason the loop has no defined
// branch for (spec: fatal, not retried).
type UnexpectedStopReasonError struct {
	StopReason string
}

// Error implements error.
func (e *UnexpectedStopReasonError) Error() string {
	return fmt.Sprintf("[%s] unexpected stop reason: %s", KindUnexpectedStopReason, e.StopReason)
}

// ToolExecutionError wraps a tool failure surfaced as an error ToolResult.
// Dispatch never lets a tool error fail the run; this type exists for
// callers that inspect a run's recorded tool results after the fact.
type ToolExecutionError struct {
	ToolName  string
	ToolUseID string
	Message   string
	Cause     error
}

// Error implements error.
func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("[%s] tool %s (%s): %s", KindTool, e.ToolName, e.ToolUseID, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ToolExecutionError) Unwrap() error { return e.Cause }

// PermissionError reports a failure in the authorization subsystem itself
// (not a denial, which is a normal outcome handled by dispatch) — a
// request-not-found, a closed response channel, or a grant store write
// failure.
type PermissionError struct {
	Message string
	Cause   error
}

// Error implements error.
func (e *PermissionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", KindPermission, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", KindPermission, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PermissionError) Unwrap() error { return e.Cause }

// ContextError reports a failure resolving a context-file source configured
// on the builder.
type ContextError struct {
	Source string
	Cause  error
}

// Error implements error.
func (e *ContextError) Error() string {
	return fmt.Sprintf("[%s] resolving context source %q: %v", KindContext, e.Source, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ContextError) Unwrap() error { return e.Cause }
