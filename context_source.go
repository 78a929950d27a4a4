package agent

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ContextSource supplies additional system-prompt material resolved once
// when the Agent is built, e.g. a project's CLAUDE.md-style instructions
// file or a fixed string assembled by the caller.
type ContextSource interface {
	// Resolve returns the text this source contributes to the system
	// prompt, or an error if it cannot be resolved.
	Resolve(ctx context.Context) (string, error)
}

// FileContextSource reads a file from disk as a context source.
type FileContextSource struct {
	Path string
}

// NewFileContextSource constructs a ContextSource backed by a file path.
func NewFileContextSource(path string) FileContextSource {
	return FileContextSource{Path: path}
}

// Resolve implements ContextSource.
func (f FileContextSource) Resolve(_ context.Context) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("reading context file %s: %w", f.Path, err)
	}
	return string(data), nil
}

// StringContextSource wraps a literal string as a ContextSource, useful for
// composing context from in-memory sources rather than files.
type StringContextSource string

// Resolve implements ContextSource.
func (s StringContextSource) Resolve(_ context.Context) (string, error) {
	return string(s), nil
}

// resolveContextSources resolves every source in order and joins them with
// the base system prompt, separated by blank lines. A failure on any source
// is returned wrapped as a *ContextError identifying which source failed.
func resolveContextSources(ctx context.Context, systemPrompt string, sources []ContextSource) (string, error) {
	parts := make([]string, 0, len(sources)+1)
	if trimmed := strings.TrimSpace(systemPrompt); trimmed != "" {
		parts = append(parts, trimmed)
	}
	for i, src := range sources {
		text, err := src.Resolve(ctx)
		if err != nil {
			return "", &ContextError{Source: fmt.Sprintf("source[%d]", i), Cause: err}
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
