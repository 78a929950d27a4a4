// Package models defines the wire-independent conversation schema shared by
// every component of the agent runtime: messages, content blocks, tool
// calls and results, grants, and lifecycle events. Nothing in this package
// depends on a specific model provider or tool implementation.
package models

import (
	"encoding/json"
	"time"
)

// Role identifies who produced a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of the conversation. Content is an ordered sequence
// of ContentBlocks; ordering is semantically significant (tool-use blocks
// precede the text rationale that follows them in assistant output, and
// tool-result blocks appear in a tool-role message in the same order the
// corresponding tool-use blocks were dispatched).
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// Text returns the concatenation of every Text block in the message, in
// order. Used to extract the final response text on a terminal stop reason.
func (m Message) Text() string {
	var out string
	for _, b := range m.Content {
		if b.Kind == BlockText {
			out += b.Text
		}
	}
	return out
}

// ToolUses returns every ToolUse block in the message, in order.
func (m Message) ToolUses() []ContentBlock {
	var out []ContentBlock
	for _, b := range m.Content {
		if b.Kind == BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}

// BlockKind discriminates the ContentBlock tagged union.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
	BlockThinking   BlockKind = "thinking"
)

// ContentBlock is a tagged variant. Exactly one of the payload fields
// matching Kind is meaningful; the rest are zero values. This mirrors the
// single-discriminator/optional-payload shape used throughout this
// codebase's event types rather than a Go sum-type emulation with
// interfaces, which would make JSON round-tripping and exhaustive
// switches harder to get right.
type ContentBlock struct {
	Kind BlockKind `json:"kind"`

	// Text is populated when Kind == BlockText or BlockThinking.
	Text string `json:"text,omitempty"`

	// ToolUse fields, populated when Kind == BlockToolUse.
	ToolUseID string          `json:"tool_use_id,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	ToolInput json.RawMessage `json:"tool_input,omitempty"`

	// ToolResult fields, populated when Kind == BlockToolResult.
	ToolResultForID string            `json:"tool_result_for_id,omitempty"`
	ToolResult      ToolResultContent `json:"tool_result,omitempty"`
	ToolStatus      ToolResultStatus  `json:"tool_status,omitempty"`
}

// NewText builds a Text content block.
func NewText(text string) ContentBlock {
	return ContentBlock{Kind: BlockText, Text: text}
}

// NewThinking builds an opaque Thinking content block. The core never
// interprets the contents; they are carried through unchanged.
func NewThinking(text string) ContentBlock {
	return ContentBlock{Kind: BlockThinking, Text: text}
}

// NewToolUse builds a ToolUse content block requesting invocation of a
// tool. The caller is responsible for ensuring id is unique within the
// message; providers assign it, the core never generates one itself.
func NewToolUse(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Kind: BlockToolUse, ToolUseID: id, ToolName: name, ToolInput: input}
}

// NewToolResult builds a ToolResult content block paired with a prior
// ToolUse by id.
func NewToolResult(toolUseID string, content ToolResultContent, status ToolResultStatus) ContentBlock {
	return ContentBlock{
		Kind:            BlockToolResult,
		ToolResultForID: toolUseID,
		ToolResult:      content,
		ToolStatus:      status,
	}
}

// ToolResultStatus is the outcome of a single tool invocation.
type ToolResultStatus string

const (
	ToolResultSuccess ToolResultStatus = "success"
	ToolResultError   ToolResultStatus = "error"
)

// ToolResultKind discriminates ToolResultContent.
type ToolResultKind string

const (
	ToolResultText     ToolResultKind = "text"
	ToolResultJSON     ToolResultKind = "json"
	ToolResultImage    ToolResultKind = "image"
	ToolResultDocument ToolResultKind = "document"
)

// ToolResultContent is a tagged variant carrying the payload of a tool
// result. The core never interprets Image or Document payloads; it passes
// them through and accounts for their token cost (see internal/convo).
type ToolResultContent struct {
	Kind ToolResultKind `json:"kind"`

	Text string          `json:"text,omitempty"`
	JSON json.RawMessage `json:"json,omitempty"`

	Format string `json:"format,omitempty"` // image/document mime or extension
	Bytes  []byte `json:"bytes,omitempty"`
	Name   string `json:"name,omitempty"` // document filename, optional
}

// TextResult builds a plain-text tool result payload.
func TextResult(text string) ToolResultContent {
	return ToolResultContent{Kind: ToolResultText, Text: text}
}

// JSONResult builds a JSON tool result payload.
func JSONResult(raw json.RawMessage) ToolResultContent {
	return ToolResultContent{Kind: ToolResultJSON, JSON: raw}
}

// ImageResult builds an image tool result payload.
func ImageResult(format string, bytes []byte) ToolResultContent {
	return ToolResultContent{Kind: ToolResultImage, Format: format, Bytes: bytes}
}

// DocumentResult builds a document tool result payload.
func DocumentResult(format, name string, bytes []byte) ToolResultContent {
	return ToolResultContent{Kind: ToolResultDocument, Format: format, Name: name, Bytes: bytes}
}

// StopReason is the model's signal for why a response ended.
type StopReason string

const (
	StopEndTurn       StopReason = "end_turn"
	StopToolUse       StopReason = "tool_use"
	StopMaxTokens     StopReason = "max_tokens"
	StopContentFilter StopReason = "content_filtered"
	StopSequence      StopReason = "stop_sequence"
	StopPauseTurn     StopReason = "pause_turn"
	StopUnknown       StopReason = "unknown"
)

// ContinuesLoop reports whether the agentic loop should keep iterating
// after seeing this stop reason (spec: only ToolUse and PauseTurn do).
func (s StopReason) ContinuesLoop() bool {
	return s == StopToolUse || s == StopPauseTurn
}

// IsTerminalSuccess reports whether this stop reason ends the run
// successfully once any pending tool dispatch and text extraction is done.
func (s StopReason) IsTerminalSuccess() bool {
	return s == StopEndTurn || s == StopSequence
}

// Session identifies a single persisted conversation for session-store
// capable runs. The core only requires an id, a directory key, a creation
// timestamp, and a message history it can round-trip; everything else is
// opaque to the core.
type Session struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}
