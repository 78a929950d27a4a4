// Package schema validates tool inputs against their declared JSON Schema
// before a call reaches Execute, so a malformed call fails with a
// descriptive error instead of panicking or silently misbehaving inside
// the tool.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator compiles and caches tool schemas by their raw bytes, so a tool
// invoked many times over a run's lifetime only pays the compile cost once.
type Validator struct {
	mu     sync.Mutex
	cached map[string]*jsonschema.Schema
}

// NewValidator constructs an empty Validator.
func NewValidator() *Validator {
	return &Validator{cached: make(map[string]*jsonschema.Schema)}
}

// Validate checks input against the tool's schema, compiling and caching
// the schema by its exact bytes on first use. toolName is used only for
// error messages and as part of the schema's resource URL.
func (v *Validator) Validate(toolName string, rawSchema, input json.RawMessage) error {
	compiled, err := v.compile(toolName, rawSchema)
	if err != nil {
		return fmt.Errorf("tool %s: invalid schema: %w", toolName, err)
	}

	var decoded any
	if err := json.Unmarshal(input, &decoded); err != nil {
		return fmt.Errorf("tool %s: input is not valid JSON: %w", toolName, err)
	}

	if err := compiled.Validate(decoded); err != nil {
		return fmt.Errorf("tool %s: input does not match schema: %w", toolName, err)
	}
	return nil
}

func (v *Validator) compile(toolName string, rawSchema json.RawMessage) (*jsonschema.Schema, error) {
	key := string(rawSchema)

	v.mu.Lock()
	if compiled, ok := v.cached[key]; ok {
		v.mu.Unlock()
		return compiled, nil
	}
	v.mu.Unlock()

	compiled, err := jsonschema.CompileString(toolName+".schema.json", key)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.cached[key] = compiled
	v.mu.Unlock()
	return compiled, nil
}
