package toolapi

import (
	"context"

	"github.com/agentcore/runtime/pkg/models"
)

// ModelProvider is the capability interface a model backend implements.
// Implementations must be safe for concurrent use.
type ModelProvider interface {
	// Name identifies the provider, e.g. "anthropic".
	Name() string
	// MaxContextTokens is the provider's total context window.
	MaxContextTokens() int
	// MaxOutputTokens is the provider's maximum response length.
	MaxOutputTokens() int
	// EstimateTokenCount estimates the token cost of a raw string,
	// ideally with a tokenizer-accurate count.
	EstimateTokenCount(text string) int
	// EstimateMessageTokens estimates the token cost of a message slice.
	EstimateMessageTokens(messages []models.Message) int
	// Generate sends messages (plus optional tools and system prompt) and
	// returns the complete response in one call.
	Generate(ctx context.Context, messages []models.Message, tools []ToolDefinition, systemPrompt string) (ModelResponse, error)
	// Stream is the streaming variant of Generate. Implementations that
	// cannot stream natively should embed DefaultStreamer to synthesize
	// one from Generate.
	Stream(ctx context.Context, messages []models.Message, tools []ToolDefinition, systemPrompt string) (<-chan StreamEvent, error)
}

// ToolDefinition is the provider-facing description of a registered Tool:
// name, description, and input schema, without the Execute behavior.
type ToolDefinition struct {
	Name        string
	Description string
	Schema      []byte
}

// ModelResponse is the complete result of one model call.
type ModelResponse struct {
	Message      models.Message
	StopReason   models.StopReason
	InputTokens  int
	OutputTokens int
}

// StreamEventKind discriminates StreamEvent.
type StreamEventKind string

const (
	StreamTextDelta StreamEventKind = "text_delta"
	StreamToolUse   StreamEventKind = "tool_use"
	StreamStop      StreamEventKind = "stop"
)

// StreamEvent is one increment of a streamed model response.
type StreamEvent struct {
	Kind StreamEventKind

	// TextDelta is populated when Kind == StreamTextDelta.
	TextDelta string
	// ToolUse is populated when Kind == StreamToolUse.
	ToolUse *models.ContentBlock
	// Stop fields are populated when Kind == StreamStop.
	StopReason   models.StopReason
	InputTokens  int
	OutputTokens int

	// Err, if non-nil, terminates the stream.
	Err error
}

// DefaultStreamer synthesizes a three-event stream (optional TextDelta,
// zero or more ToolUse, then Stop) from a single Generate call. Embed it
// in a ModelProvider that cannot stream natively and delegate Stream to
// its Synthesize method.
type DefaultStreamer struct {
	Generate func(ctx context.Context, messages []models.Message, tools []ToolDefinition, systemPrompt string) (ModelResponse, error)
}

// Synthesize implements the fallback streaming behavior described in
// ModelProvider.Stream's contract.
func (d DefaultStreamer) Synthesize(ctx context.Context, messages []models.Message, tools []ToolDefinition, systemPrompt string) (<-chan StreamEvent, error) {
	events := make(chan StreamEvent, 4)
	go func() {
		defer close(events)
		resp, err := d.Generate(ctx, messages, tools, systemPrompt)
		if err != nil {
			events <- StreamEvent{Kind: StreamStop, Err: err}
			return
		}
		if text := resp.Message.Text(); text != "" {
			events <- StreamEvent{Kind: StreamTextDelta, TextDelta: text}
		}
		for _, use := range resp.Message.ToolUses() {
			block := use
			events <- StreamEvent{Kind: StreamToolUse, ToolUse: &block}
		}
		events <- StreamEvent{
			Kind:         StreamStop,
			StopReason:   resp.StopReason,
			InputTokens:  resp.InputTokens,
			OutputTokens: resp.OutputTokens,
		}
	}()
	return events, nil
}
