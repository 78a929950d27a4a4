package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/agentcore/runtime/pkg/models"
	"github.com/agentcore/runtime/pkg/toolapi"
)

// convertMessages translates the runtime's role/content-block messages into
// Anthropic's MessageParam shape. A tool-role message becomes a user
// message carrying tool_result blocks, matching Anthropic's wire protocol.
func convertMessages(messages []models.Message) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		var blocks []anthropic.ContentBlockParamUnion
		for _, b := range m.Content {
			block, err := convertContentBlock(b)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
		}

		if m.Role == models.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out, nil
}

func convertContentBlock(b models.ContentBlock) (anthropic.ContentBlockParamUnion, error) {
	switch b.Kind {
	case models.BlockText:
		return anthropic.NewTextBlock(b.Text), nil
	case models.BlockToolUse:
		var input map[string]any
		if len(b.ToolInput) > 0 {
			if err := json.Unmarshal(b.ToolInput, &input); err != nil {
				return anthropic.ContentBlockParamUnion{}, fmt.Errorf("tool_use %s: invalid input json: %w", b.ToolUseID, err)
			}
		}
		return anthropic.NewToolUseBlock(b.ToolUseID, input, b.ToolName), nil
	case models.BlockToolResult:
		return convertToolResultBlock(b), nil
	default:
		return anthropic.ContentBlockParamUnion{}, fmt.Errorf("unsupported content block kind %q", b.Kind)
	}
}

func convertToolResultBlock(b models.ContentBlock) anthropic.ContentBlockParamUnion {
	isError := b.ToolStatus == models.ToolResultError
	switch b.ToolResult.Kind {
	case models.ToolResultJSON:
		return anthropic.NewToolResultBlock(b.ToolResultForID, string(b.ToolResult.JSON), isError)
	default:
		// Image and document payloads are summarized as text; Anthropic's
		// tool_result content supports richer media blocks, but nothing in
		// this runtime's tool surface currently emits them over the wire.
		text := b.ToolResult.Text
		if text == "" && b.ToolResult.Name != "" {
			text = fmt.Sprintf("[%s attached: %s]", b.ToolResult.Kind, b.ToolResult.Name)
		}
		return anthropic.NewToolResultBlock(b.ToolResultForID, text, isError)
	}
}

// convertTools translates tool definitions (name, description, JSON
// schema) into Anthropic's tool parameter format.
func convertTools(tools []toolapi.ToolDefinition) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(t.Schema, &schema); err != nil {
			return nil, fmt.Errorf("invalid schema for tool %s: %w", t.Name, err)
		}
		param := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if param.OfTool == nil {
			return nil, fmt.Errorf("invalid schema for tool %s: missing tool definition", t.Name)
		}
		param.OfTool.Description = anthropic.String(t.Description)
		out = append(out, param)
	}
	return out, nil
}

// convertStopReason maps Anthropic's stop reason vocabulary onto the
// runtime's. pause_turn is Anthropic's server-tool continuation signal;
// everything not recognized maps to unknown rather than guessing.
func convertStopReason(r anthropic.StopReason) models.StopReason {
	switch r {
	case anthropic.StopReasonEndTurn:
		return models.StopEndTurn
	case anthropic.StopReasonToolUse:
		return models.StopToolUse
	case anthropic.StopReasonMaxTokens:
		return models.StopMaxTokens
	case anthropic.StopReasonStopSequence:
		return models.StopSequence
	case anthropic.StopReasonPauseTurn:
		return models.StopPauseTurn
	case anthropic.StopReasonRefusal:
		return models.StopContentFilter
	default:
		return models.StopUnknown
	}
}

// convertResponseMessage flattens an Anthropic message's content blocks
// into the runtime's ContentBlock slice, in order.
func convertResponseMessage(msg *anthropic.Message) models.Message {
	out := models.Message{Role: models.RoleAssistant}
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Content = append(out.Content, models.NewText(variant.Text))
		case anthropic.ThinkingBlock:
			out.Content = append(out.Content, models.NewThinking(variant.Thinking))
		case anthropic.ToolUseBlock:
			input, _ := json.Marshal(variant.Input)
			out.Content = append(out.Content, models.NewToolUse(variant.ID, variant.Name, input))
		}
	}
	return out
}

// maxConsecutiveEmptyEvents bounds how many uninformative SSE events this
// provider tolerates before treating the stream as malformed.
const maxConsecutiveEmptyEvents = 300

func (p *Provider) consumeStream(stream *ssestream.Stream[anthropic.MessageStreamEventUnion], events chan<- toolapi.StreamEvent) {
	defer close(events)

	var inputTokens, outputTokens int
	stopReason := models.StopUnknown
	var pendingToolUse *models.ContentBlock
	var pendingToolInput strings.Builder
	emptyStreak := 0

	for stream.Next() {
		event := stream.Current()
		handled := true

		switch event.Type {
		case "message_start":
			start := event.AsMessageStart()
			if start.Message.Usage.InputTokens > 0 {
				inputTokens = int(start.Message.Usage.InputTokens)
			}

		case "content_block_start":
			blockStart := event.AsContentBlockStart()
			if use, ok := blockStart.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
				block := models.NewToolUse(use.ID, use.Name, nil)
				pendingToolUse = &block
				pendingToolInput.Reset()
			} else {
				handled = false
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch variant := delta.AsAny().(type) {
			case anthropic.TextDelta:
				if variant.Text != "" {
					events <- toolapi.StreamEvent{Kind: toolapi.StreamTextDelta, TextDelta: variant.Text}
				} else {
					handled = false
				}
			case anthropic.InputJSONDelta:
				if variant.PartialJSON != "" {
					pendingToolInput.WriteString(variant.PartialJSON)
				} else {
					handled = false
				}
			default:
				handled = false
			}

		case "content_block_stop":
			if pendingToolUse != nil {
				pendingToolUse.ToolInput = json.RawMessage(pendingToolInput.String())
				events <- toolapi.StreamEvent{Kind: toolapi.StreamToolUse, ToolUse: pendingToolUse}
				pendingToolUse = nil
			} else {
				handled = false
			}

		case "message_delta":
			delta := event.AsMessageDelta()
			if delta.Usage.OutputTokens > 0 {
				outputTokens = int(delta.Usage.OutputTokens)
			}
			if delta.Delta.StopReason != "" {
				stopReason = convertStopReason(delta.Delta.StopReason)
			}

		case "message_stop":
			events <- toolapi.StreamEvent{
				Kind:         toolapi.StreamStop,
				StopReason:   stopReason,
				InputTokens:  inputTokens,
				OutputTokens: outputTokens,
			}
			return

		default:
			handled = false
		}

		if handled {
			emptyStreak = 0
		} else {
			emptyStreak++
			if emptyStreak >= maxConsecutiveEmptyEvents {
				events <- toolapi.StreamEvent{Kind: toolapi.StreamStop, Err: fmt.Errorf("anthropic: stream appears malformed after %d empty events", emptyStreak)}
				return
			}
		}
	}

	if err := stream.Err(); err != nil {
		events <- toolapi.StreamEvent{Kind: toolapi.StreamStop, Err: p.wrapError(err)}
	}
}
