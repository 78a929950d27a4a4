// Package dispatch executes the ToolUse blocks of a single assistant turn
// concurrently, gates each call through the authorization engine, and
// re-pairs results with their originating calls in input order.
package dispatch

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/agentcore/runtime/pkg/toolapi"
)

const (
	// MaxToolNameLength bounds a tool-use name to prevent resource abuse
	// from a misbehaving or malicious provider response.
	MaxToolNameLength = 256
	// MaxToolInputSize bounds a tool-use input payload.
	MaxToolInputSize = 10 << 20
)

// Registry is a thread-safe collection of tools keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]toolapi.Tool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]toolapi.Tool)}
}

// Register adds a tool, replacing any existing tool of the same name.
func (r *Registry) Register(tool toolapi.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (toolapi.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns every registered tool's provider-facing definition,
// for inclusion in a model request.
func (r *Registry) Definitions() []toolapi.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]toolapi.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, toolapi.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Schema:      t.Schema(),
		})
	}
	return out
}

// validateInput reports an error if name or input violate the registry's
// resource limits, or if input is not a JSON object.
func validateInput(name string, input json.RawMessage) error {
	if len(name) > MaxToolNameLength {
		return fmt.Errorf("tool name exceeds maximum length of %d characters", MaxToolNameLength)
	}
	if len(input) > MaxToolInputSize {
		return fmt.Errorf("tool input exceeds maximum size of %d bytes", MaxToolInputSize)
	}
	trimmed := skipWhitespace(input)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("tool input must be a JSON object")
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(input, &probe); err != nil {
		return fmt.Errorf("tool input must be a JSON object: %w", err)
	}
	return nil
}

func skipWhitespace(b []byte) []byte {
	i := 0
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return b[i:]
		}
	}
	return b[i:]
}
