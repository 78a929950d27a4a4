package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/agentcore/runtime/internal/authz"
	"github.com/agentcore/runtime/internal/grantstore"
	"github.com/agentcore/runtime/pkg/models"
	"github.com/agentcore/runtime/pkg/toolapi"
)

type fakeTool struct {
	name   string
	result models.ToolResultContent
	err    error
	calls  *int32
}

func (f *fakeTool) Name() string               { return f.name }
func (f *fakeTool) Description() string        { return "fake" }
func (f *fakeTool) Schema() json.RawMessage    { return json.RawMessage(`{}`) }
func (f *fakeTool) Execute(ctx context.Context, input json.RawMessage) (toolapi.ToolOutput, error) {
	if f.calls != nil {
		*f.calls++
	}
	if f.err != nil {
		return toolapi.ToolOutput{}, f.err
	}
	return toolapi.ToolOutput{Content: f.result}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(e models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) typesFor(toolUseID string) []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.EventType
	for _, e := range p.events {
		if e.Tool != nil && e.Tool.ToolUseID == toolUseID {
			out = append(out, e.Type)
		}
		if e.Permission != nil && e.Permission.ProposalID == toolUseID {
			out = append(out, e.Type)
		}
	}
	return out
}

func toolUse(id, name string) models.ContentBlock {
	return models.NewToolUse(id, name, json.RawMessage(`{}`))
}

func TestDispatch_SuccessfulCall_EventOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeTool{name: "calc", result: models.TextResult("4")})
	engine := authz.NewEngine(grantstore.NewMemoryStore(), &authz.Policy{Mode: authz.AutoDeny, Allowlist: []string{"calc"}})
	pub := &recordingPublisher{}
	d := New(registry, engine, pub, 4)

	results := d.Dispatch(context.Background(), []models.ContentBlock{toolUse("t1", "calc")})
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].ToolStatus != models.ToolResultSuccess {
		t.Fatalf("ToolStatus = %v, want success", results[0].ToolStatus)
	}
	if results[0].ToolResult.Text != "4" {
		t.Errorf("ToolResult.Text = %q, want 4", results[0].ToolResult.Text)
	}

	types := pub.typesFor("t1")
	want := []models.EventType{models.EventToolRequested, models.EventToolExecuting, models.EventToolCompleted}
	if len(types) != len(want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, types[i], want[i])
		}
	}
}

func TestDispatch_ToolNotFound(t *testing.T) {
	registry := NewRegistry()
	engine := authz.NewEngine(grantstore.NewMemoryStore(), authz.DefaultPolicy())
	d := New(registry, engine, nil, 4)

	results := d.Dispatch(context.Background(), []models.ContentBlock{toolUse("t1", "missing")})
	if results[0].ToolStatus != models.ToolResultError {
		t.Fatalf("ToolStatus = %v, want error", results[0].ToolStatus)
	}
}

func TestDispatch_DeniedByAutoDeny(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&fakeTool{name: "calc", result: models.TextResult("4")})
	engine := authz.NewEngine(grantstore.NewMemoryStore(), authz.DefaultPolicy())
	pub := &recordingPublisher{}
	d := New(registry, engine, pub, 4)

	results := d.Dispatch(context.Background(), []models.ContentBlock{toolUse("t1", "calc")})
	if results[0].ToolStatus != models.ToolResultError {
		t.Fatalf("ToolStatus = %v, want error", results[0].ToolStatus)
	}
	types := pub.typesFor("t1")
	foundExecuting := false
	for _, ty := range types {
		if ty == models.EventToolExecuting {
			foundExecuting = true
		}
	}
	if foundExecuting {
		t.Errorf("ToolExecuting should not be published for a denied call")
	}
}

func TestDispatch_PreservesInputOrder(t *testing.T) {
	registry := NewRegistry()
	for _, n := range []string{"a", "b", "c"} {
		registry.Register(&fakeTool{name: n, result: models.TextResult(n)})
	}
	engine := authz.NewEngine(grantstore.NewMemoryStore(), &authz.Policy{Mode: authz.AutoDeny, Allowlist: []string{"*"}})
	d := New(registry, engine, nil, 1) // force serialization to stress ordering logic

	calls := []models.ContentBlock{toolUse("1", "c"), toolUse("2", "a"), toolUse("3", "b")}
	results := d.Dispatch(context.Background(), calls)

	for i, call := range calls {
		if results[i].ToolResultForID != call.ToolUseID {
			t.Errorf("results[%d].ToolResultForID = %q, want %q", i, results[i].ToolResultForID, call.ToolUseID)
		}
	}
}

func TestDispatch_ConcurrentCallsAllComplete(t *testing.T) {
	registry := NewRegistry()
	var calls int32
	for i := 0; i < 20; i++ {
		registry.Register(&fakeTool{name: fmt.Sprintf("t%d", i), result: models.TextResult("ok"), calls: &calls})
	}
	engine := authz.NewEngine(grantstore.NewMemoryStore(), &authz.Policy{Mode: authz.AutoDeny, Allowlist: []string{"*"}})
	d := New(registry, engine, nil, 4)

	var toolCalls []models.ContentBlock
	for i := 0; i < 20; i++ {
		toolCalls = append(toolCalls, toolUse(fmt.Sprintf("id%d", i), fmt.Sprintf("t%d", i)))
	}
	results := d.Dispatch(context.Background(), toolCalls)
	if len(results) != 20 {
		t.Fatalf("len(results) = %d, want 20", len(results))
	}
	for _, r := range results {
		if r.ToolStatus != models.ToolResultSuccess {
			t.Errorf("ToolStatus = %v, want success", r.ToolStatus)
		}
	}
}
