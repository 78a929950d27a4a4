// Package toolapi defines the capability interfaces shared by the public
// agent package and the internal tool dispatcher, so neither needs to
// import the other: Tool and ModelProvider live at this lower layer, and
// both the root package and internal/dispatch depend on it downward.
package toolapi

import (
	"context"
	"encoding/json"

	"github.com/agentcore/runtime/pkg/models"
)

// Tool is the capability interface every tool registered with an Agent
// must implement. Implementations must be safe for concurrent use: the
// dispatcher invokes Execute from multiple goroutines within a single
// turn.
type Tool interface {
	// Name is the identifier the model uses to request this tool. Must be
	// stable and unique within a registry.
	Name() string
	// Description is shown to the model alongside Schema.
	Description() string
	// Schema is the tool's JSON Schema for its input, used both to inform
	// the model and to validate incoming tool-use input before execution.
	Schema() json.RawMessage
	// Execute runs the tool against validated input and returns its
	// result content. A returned error is treated as an execution
	// failure and converted to an error ToolResult by the dispatcher.
	Execute(ctx context.Context, input json.RawMessage) (ToolOutput, error)
}

// ToolOutput is what a Tool returns on success. Content carries the
// payload delivered to the model; Artifacts are out-of-band byproducts
// (e.g. generated files) the caller of Run may surface separately.
type ToolOutput struct {
	Content   models.ToolResultContent
	Artifacts []Artifact
}

// Artifact is an out-of-band byproduct of a tool call that is not part of
// the content returned to the model but may be useful to the caller.
type Artifact struct {
	Name   string
	Format string
	Bytes  []byte
}
