package models

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of lifecycle event published on the event
// bus. internal/dispatch's Dispatcher publishes the Tool* and Permission*
// events of a single tool call in a fixed order.
type EventType string

const (
	EventRunStarted         EventType = "run.started"
	EventRunCompleted       EventType = "run.completed"
	EventRunFailed          EventType = "run.failed"
	EventModelCallStarted   EventType = "model_call.started"
	EventModelCallStreaming EventType = "model_call.streaming"
	EventModelCallCompleted EventType = "model_call.completed"
	EventToolRequested      EventType = "tool.requested"
	EventToolExecuting      EventType = "tool.executing"
	EventToolCompleted      EventType = "tool.completed"
	EventToolFailed         EventType = "tool.failed"
	EventPermissionRequired EventType = "permission.required"
	EventPermissionGranted  EventType = "permission.granted"
	EventPermissionDenied   EventType = "permission.denied"
	EventSessionResumed     EventType = "session.resumed"
	EventSessionSaved       EventType = "session.saved"
)

// Event is the single type published on the hook bus. Exactly one of the
// payload fields matching Type carries data; the rest are zero values.
// A single discriminated struct (rather than an interface per event kind)
// keeps publication, ordering, and hook dispatch uniform and keeps the
// bus free of type switches on the publishing side.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Run        *RunEventData        `json:"run,omitempty"`
	ModelCall  *ModelCallEventData  `json:"model_call,omitempty"`
	Tool       *ToolEventData       `json:"tool,omitempty"`
	Permission *PermissionEventData `json:"permission,omitempty"`
	Session    *SessionEventData    `json:"session,omitempty"`
}

// RunEventData carries RunStarted/RunCompleted/RunFailed payloads.
type RunEventData struct {
	Input      string        `json:"input,omitempty"`
	Text       string        `json:"text,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	ModelCalls int           `json:"model_calls,omitempty"`
	Err        error         `json:"-"`
}

// ModelCallEventData carries ModelCallStarted/Streaming/Completed payloads.
type ModelCallEventData struct {
	MessageCount    int            `json:"message_count,omitempty"`
	ToolCount       int            `json:"tool_count,omitempty"`
	Delta           string         `json:"delta,omitempty"`
	AccumulatedLen  int            `json:"accumulated_length,omitempty"`
	ResponseContent []ContentBlock `json:"response_content,omitempty"`
	InputTokens     int            `json:"input_tokens,omitempty"`
	OutputTokens    int            `json:"output_tokens,omitempty"`
	Duration        time.Duration  `json:"duration,omitempty"`
	StopReason      StopReason     `json:"stop_reason,omitempty"`
}

// ToolEventData carries the four Tool* event payloads.
type ToolEventData struct {
	ToolUseID string            `json:"tool_use_id"`
	Name      string            `json:"name"`
	Input     json.RawMessage   `json:"input,omitempty"`
	Output    ToolResultContent `json:"output,omitempty"`
	Error     string            `json:"error,omitempty"`
	Duration  time.Duration     `json:"duration,omitempty"`
}

// PermissionEventData carries the three Permission* event payloads.
type PermissionEventData struct {
	ProposalID string          `json:"proposal_id"`
	ToolName   string          `json:"tool_name"`
	Params     json.RawMessage `json:"params,omitempty"`
	ParamsHash string          `json:"params_hash,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

// SessionEventData carries SessionResumed/SessionSaved payloads.
type SessionEventData struct {
	SessionID string `json:"session_id"`
}
