package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/agentcore/runtime/pkg/models"
	"github.com/agentcore/runtime/pkg/toolapi"
)

// scriptedResponse is one entry in a fakeProvider's canned call sequence.
type scriptedResponse struct {
	message      models.Message
	stopReason   models.StopReason
	inputTokens  int
	outputTokens int
	err          error
}

// fakeProvider replays a fixed sequence of responses, one per Generate
// call, for deterministic loop tests. It streams via toolapi.DefaultStreamer
// rather than implementing a native SSE-style stream, per the package's
// documented fallback for providers that cannot stream natively.
type fakeProvider struct {
	toolapi.DefaultStreamer

	mu        sync.Mutex
	responses []scriptedResponse
	calls     int
}

func newFakeProvider(responses ...scriptedResponse) *fakeProvider {
	fp := &fakeProvider{responses: responses}
	fp.DefaultStreamer = toolapi.DefaultStreamer{Generate: fp.Generate}
	return fp
}

func (f *fakeProvider) Name() string             { return "fake" }
func (f *fakeProvider) MaxContextTokens() int    { return 200000 }
func (f *fakeProvider) MaxOutputTokens() int     { return 4096 }
func (f *fakeProvider) EstimateTokenCount(s string) int {
	return len(s) / 4
}
func (f *fakeProvider) EstimateMessageTokens(messages []models.Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Text()) / 4
	}
	return total
}

func (f *fakeProvider) Generate(_ context.Context, _ []models.Message, _ []toolapi.ToolDefinition, _ string) (toolapi.ModelResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls >= len(f.responses) {
		return toolapi.ModelResponse{}, errors.New("fakeProvider: no more scripted responses")
	}
	r := f.responses[f.calls]
	f.calls++
	if r.err != nil {
		return toolapi.ModelResponse{}, r.err
	}
	return toolapi.ModelResponse{
		Message:      r.message,
		StopReason:   r.stopReason,
		InputTokens:  r.inputTokens,
		OutputTokens: r.outputTokens,
	}, nil
}

func (f *fakeProvider) Stream(ctx context.Context, messages []models.Message, tools []toolapi.ToolDefinition, systemPrompt string) (<-chan toolapi.StreamEvent, error) {
	return f.DefaultStreamer.Synthesize(ctx, messages, tools, systemPrompt)
}

// fakeTool is a minimal toolapi.Tool whose Execute is scripted per call.
type fakeTool struct {
	name   string
	schema json.RawMessage
	exec   func(ctx context.Context, input json.RawMessage) (toolapi.ToolOutput, error)
}

func (t *fakeTool) Name() string               { return t.name }
func (t *fakeTool) Description() string        { return "test tool" }
func (t *fakeTool) Schema() json.RawMessage {
	if t.schema != nil {
		return t.schema
	}
	return json.RawMessage(`{}`)
}
func (t *fakeTool) Execute(ctx context.Context, input json.RawMessage) (toolapi.ToolOutput, error) {
	return t.exec(ctx, input)
}

func assistantText(text string) models.Message {
	return models.Message{Role: models.RoleAssistant, Content: []models.ContentBlock{models.NewText(text)}}
}

func assistantToolUse(id, name string, input json.RawMessage) models.Message {
	return models.Message{Role: models.RoleAssistant, Content: []models.ContentBlock{models.NewToolUse(id, name, input)}}
}

// collectingHook records every event published on an Agent for assertions.
type collectingHook struct {
	mu     sync.Mutex
	events []models.Event
}

func (c *collectingHook) record(e models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collectingHook) ofType(t models.EventType) []models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
