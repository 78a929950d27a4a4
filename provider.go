package agent

import "github.com/agentcore/runtime/pkg/toolapi"

// ModelProvider is the capability interface a model backend implements.
type ModelProvider = toolapi.ModelProvider

// ToolDefinition is the provider-facing description of a registered Tool.
type ToolDefinition = toolapi.ToolDefinition

// ModelResponse is the complete result of one model call.
type ModelResponse = toolapi.ModelResponse

// StreamEventKind discriminates StreamEvent.
type StreamEventKind = toolapi.StreamEventKind

const (
	StreamTextDelta = toolapi.StreamTextDelta
	StreamToolUse   = toolapi.StreamToolUse
	StreamStop      = toolapi.StreamStop
)

// StreamEvent is one increment of a streamed model response.
type StreamEvent = toolapi.StreamEvent

// DefaultStreamer synthesizes a three-event stream from a single Generate
// call for providers that cannot stream natively.
type DefaultStreamer = toolapi.DefaultStreamer
