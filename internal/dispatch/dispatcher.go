package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/agentcore/runtime/internal/authz"
	"github.com/agentcore/runtime/internal/schema"
	"github.com/agentcore/runtime/pkg/models"
)

// DefaultConcurrency bounds how many tool calls run simultaneously within
// a single turn when a Dispatcher is constructed without an explicit
// override.
const DefaultConcurrency = 12

// Publisher receives lifecycle events. The event bus (package agent)
// satisfies this interface structurally; this package never imports it,
// keeping the dependency pointed one way.
type Publisher interface {
	Publish(models.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(models.Event) {}

// Authorizer is the subset of the authorization engine the dispatcher
// needs: a synchronous check, plus the ability to block for an
// interactive decision when the check comes back pending.
type Authorizer interface {
	Check(toolName string, params json.RawMessage) (authz.Decision, error)
	AwaitApproval(ctx context.Context, proposalID string) (models.AuthResponse, error)
}

// Dispatcher executes the ToolUse blocks of a single assistant turn
// concurrently, with bounded parallelism, gating each call through an
// Authorizer and publishing per-call lifecycle events.
type Dispatcher struct {
	registry    *Registry
	authorizer  Authorizer
	publisher   Publisher
	concurrency int64
	validator   *schema.Validator
}

// New constructs a Dispatcher. A nil publisher discards events. A
// concurrency <= 0 uses DefaultConcurrency. Schema validation of tool
// input against each tool's declared schema is enabled by default; call
// WithSchemaValidation(nil) to disable it.
func New(registry *Registry, authorizer Authorizer, publisher Publisher, concurrency int) *Dispatcher {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Dispatcher{
		registry:    registry,
		authorizer:  authorizer,
		publisher:   publisher,
		concurrency: int64(concurrency),
		validator:   schema.NewValidator(),
	}
}

// WithSchemaValidation overrides the Dispatcher's schema validator. Pass
// nil to skip schema validation of tool input entirely.
func (d *Dispatcher) WithSchemaValidation(v *schema.Validator) *Dispatcher {
	d.validator = v
	return d
}

// Dispatch runs every ToolUse block in calls concurrently (bounded by the
// dispatcher's configured concurrency) and returns one ToolResult block
// per call, in the same order as calls, paired by tool_use_id.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []models.ContentBlock) []models.ContentBlock {
	results := make([]models.ContentBlock, len(calls))
	if len(calls) == 0 {
		return results
	}

	sem := semaphore.NewWeighted(d.concurrency)
	var wg sync.WaitGroup

	for i, call := range calls {
		i, call := i, call
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = errorResult(call, ctx.Err().Error())
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = d.dispatchOne(ctx, call)
		}()
	}

	wg.Wait()
	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, call models.ContentBlock) models.ContentBlock {
	d.publisher.Publish(models.Event{
		Type: models.EventToolRequested,
		Tool: &models.ToolEventData{ToolUseID: call.ToolUseID, Name: call.ToolName, Input: call.ToolInput},
	})

	if err := validateInput(call.ToolName, call.ToolInput); err != nil {
		return d.fail(call, err.Error())
	}

	tool, ok := d.registry.Get(call.ToolName)
	if !ok {
		return d.fail(call, "tool not found: "+call.ToolName)
	}

	if d.validator != nil {
		if err := d.validator.Validate(call.ToolName, tool.Schema(), call.ToolInput); err != nil {
			return d.fail(call, err.Error())
		}
	}

	decision, err := d.authorizer.Check(call.ToolName, call.ToolInput)
	if err != nil {
		return d.fail(call, "authorization check failed: "+err.Error())
	}

	switch decision.Kind {
	case authz.DecisionDenied:
		d.publisher.Publish(models.Event{
			Type:       models.EventPermissionDenied,
			Permission: &models.PermissionEventData{ToolName: call.ToolName, Reason: decision.Reason},
		})
		return d.fail(call, decision.Reason)
	case authz.DecisionPendingApproval:
		d.publisher.Publish(models.Event{
			Type: models.EventPermissionRequired,
			Permission: &models.PermissionEventData{
				ProposalID: call.ToolUseID,
				ToolName:   call.ToolName,
				Params:     call.ToolInput,
				ParamsHash: decision.ParamsHash,
			},
		})
		resp, err := d.authorizer.AwaitApproval(ctx, call.ToolUseID)
		// A Trust response stays approved even when saving its grant failed.
		if resp.Kind == models.RespondDeny || (err != nil && resp.Kind != models.RespondTrust) {
			reason := resp.Reason
			if reason == "" && err != nil {
				reason = err.Error()
			}
			d.publisher.Publish(models.Event{
				Type:       models.EventPermissionDenied,
				Permission: &models.PermissionEventData{ProposalID: call.ToolUseID, ToolName: call.ToolName, Reason: reason},
			})
			return d.fail(call, reason)
		}
		d.publisher.Publish(models.Event{
			Type:       models.EventPermissionGranted,
			Permission: &models.PermissionEventData{ProposalID: call.ToolUseID, ToolName: call.ToolName},
		})
	case authz.DecisionGranted:
		// fall through to execution
	}

	d.publisher.Publish(models.Event{
		Type: models.EventToolExecuting,
		Tool: &models.ToolEventData{ToolUseID: call.ToolUseID, Name: call.ToolName},
	})

	start := time.Now()
	output, err := tool.Execute(ctx, call.ToolInput)
	duration := time.Since(start)
	if err != nil {
		d.publisher.Publish(models.Event{
			Type: models.EventToolFailed,
			Tool: &models.ToolEventData{ToolUseID: call.ToolUseID, Name: call.ToolName, Error: err.Error(), Duration: duration},
		})
		return models.NewToolResult(call.ToolUseID, models.TextResult(err.Error()), models.ToolResultError)
	}

	d.publisher.Publish(models.Event{
		Type: models.EventToolCompleted,
		Tool: &models.ToolEventData{ToolUseID: call.ToolUseID, Name: call.ToolName, Output: output.Content, Duration: duration},
	})
	return models.NewToolResult(call.ToolUseID, output.Content, models.ToolResultSuccess)
}

func (d *Dispatcher) fail(call models.ContentBlock, reason string) models.ContentBlock {
	d.publisher.Publish(models.Event{
		Type: models.EventToolFailed,
		Tool: &models.ToolEventData{ToolUseID: call.ToolUseID, Name: call.ToolName, Error: reason},
	})
	return models.NewToolResult(call.ToolUseID, models.TextResult(reason), models.ToolResultError)
}

func errorResult(call models.ContentBlock, reason string) models.ContentBlock {
	return models.NewToolResult(call.ToolUseID, models.TextResult(fmt.Sprintf("dispatch canceled: %s", reason)), models.ToolResultError)
}
