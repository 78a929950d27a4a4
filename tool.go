package agent

import "github.com/agentcore/runtime/pkg/toolapi"

// Tool is the capability interface every tool registered with an Agent
// must implement. Implementations must be safe for concurrent use: the
// dispatcher invokes Execute from multiple goroutines within a single
// turn.
type Tool = toolapi.Tool

// ToolOutput is what a Tool returns on success.
type ToolOutput = toolapi.ToolOutput

// Artifact is an out-of-band byproduct of a tool call.
type Artifact = toolapi.Artifact
