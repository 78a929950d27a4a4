// Package agent implements a provider-agnostic agentic loop: it sends a
// conversation to a model, dispatches any tools the model requests under an
// authorization engine, feeds the results back, and repeats until the model
// produces a final response or the loop hits a terminal failure.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agentcore/runtime/internal/authz"
	"github.com/agentcore/runtime/internal/convo"
	"github.com/agentcore/runtime/internal/dispatch"
	"github.com/agentcore/runtime/internal/grantstore"
	"github.com/agentcore/runtime/internal/retry"
	"github.com/agentcore/runtime/internal/sessionstore"
	"github.com/agentcore/runtime/pkg/models"
	"github.com/agentcore/runtime/pkg/toolapi"
)

// DefaultSessionKey is the session-store key used by Run when the caller
// does not select one via WithSessionKey.
const DefaultSessionKey = "default"

// Agent is a configured agentic loop: a model provider, a tool registry and
// dispatcher, an authorization engine, and the conversation state shared
// across calls to Run. Construct one with NewBuilder().Build().
type Agent struct {
	provider     toolapi.ModelProvider
	systemPrompt string
	registry     *dispatch.Registry
	dispatcher   *dispatch.Dispatcher
	engine       *authz.Engine
	grantStore   grantstore.Store
	sessionStore sessionstore.Store
	convo        *convo.Manager
	bus          *hookBus
	logger       *slog.Logger

	backoff         retry.BackoffPolicy
	maxRetryAttempt int
	retryObserver   retry.Observer
	rateLimiter     *retry.Limiter

	limits convo.Limits

	mu         sync.Mutex
	hydrated   bool
	session    models.Session
	sessionKey string
}

// AgentResponse is the result of a completed Run.
type AgentResponse struct {
	Text       string
	ToolCalls  []ToolCallRecord
	TokenUsage TokenUsage
	Duration   time.Duration
	ModelCalls int
}

// ToolCallRecord is one tool invocation made during a Run, paired with its
// result.
type ToolCallRecord struct {
	ToolUseID string
	ToolName  string
	Input     json.RawMessage
	Output    models.ToolResultContent
	Status    models.ToolResultStatus
}

// TokenUsage totals the input/output tokens billed across every model call
// in a single Run.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// AddHook registers fn to receive every lifecycle event this Agent
// publishes. The returned HookID is accepted by RemoveHook.
func (a *Agent) AddHook(fn HookFunc) HookID {
	return a.bus.AddHook(fn)
}

// RemoveHook unregisters a previously added hook.
func (a *Agent) RemoveHook(id HookID) {
	a.bus.RemoveHook(id)
}

// RespondToAuthorization delivers a human decision for a pending
// permission.required proposal. Reports false if no proposal with that id
// is currently awaiting a response.
func (a *Agent) RespondToAuthorization(proposalID string, resp models.AuthResponse) bool {
	return a.engine.RespondToAuthorization(proposalID, resp)
}

// AuthorizeOnce approves a single pending call without persisting a grant.
func (a *Agent) AuthorizeOnce(proposalID string) bool {
	return a.RespondToAuthorization(proposalID, models.Once())
}

// DenyAuthorization declines a pending call with an optional reason.
func (a *Agent) DenyAuthorization(proposalID string, reason string) bool {
	return a.RespondToAuthorization(proposalID, models.Deny(reason))
}

// GrantToolPermission stores a tool-wide grant directly, bypassing the
// interactive approval flow.
func (a *Agent) GrantToolPermission(toolName string, scope models.GrantScope) error {
	return a.engine.GrantToolPermission(toolName, scope)
}

// GrantParamsPermission stores an exact-match grant for a specific
// invocation's canonical parameters.
func (a *Agent) GrantParamsPermission(toolName string, params json.RawMessage, scope models.GrantScope) error {
	return a.engine.GrantParamsPermission(toolName, params, scope)
}

// WithSessionKey selects which session-store key Run hydrates from and
// saves to. Calling this after the first Run has no effect on history
// already hydrated; it is intended to be set once before the first call.
func (a *Agent) WithSessionKey(key string) *Agent {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessionKey = key
	return a
}

// Run sends input as a new user turn and drives the agentic loop to
// completion: dispatching any tool calls the model requests, feeding
// results back, and returning once the model produces a final response or
// the loop hits a terminal failure.
func (a *Agent) Run(ctx context.Context, input string) (AgentResponse, error) {
	start := time.Now()

	a.bus.Publish(models.Event{Type: models.EventRunStarted, Run: &models.RunEventData{Input: input}})

	if err := a.hydrateSession(ctx); err != nil {
		return AgentResponse{}, err
	}

	a.convo.AddMessage(models.Message{Role: models.RoleUser, Content: []models.ContentBlock{models.NewText(input)}})

	var usage TokenUsage
	var toolCalls []ToolCallRecord
	modelCalls := 0

	for {
		tools := a.registry.Definitions()
		contextMessages := a.convo.MessagesForContext(a.limits)

		a.bus.Publish(models.Event{
			Type:      models.EventModelCallStarted,
			ModelCall: &models.ModelCallEventData{MessageCount: len(contextMessages), ToolCount: len(tools)},
		})

		callStart := time.Now()
		message, stopReason, inputTokens, outputTokens, err := a.callModel(ctx, contextMessages, tools)
		callDuration := time.Since(callStart)
		modelCalls++

		if err != nil {
			runErr := a.toAgentError(err)
			a.publishRunFailed(input, start, runErr)
			return AgentResponse{}, runErr
		}

		usage.InputTokens += inputTokens
		usage.OutputTokens += outputTokens

		a.bus.Publish(models.Event{
			Type: models.EventModelCallCompleted,
			ModelCall: &models.ModelCallEventData{
				ResponseContent: message.Content,
				InputTokens:     inputTokens,
				OutputTokens:    outputTokens,
				Duration:        callDuration,
				StopReason:      stopReason,
			},
		})

		a.convo.AddMessage(message)

		switch stopReason {
		case models.StopToolUse:
			calls := message.ToolUses()
			results := a.dispatcher.Dispatch(ctx, calls)
			for i, call := range calls {
				var result models.ContentBlock
				if i < len(results) {
					result = results[i]
				}
				toolCalls = append(toolCalls, ToolCallRecord{
					ToolUseID: call.ToolUseID,
					ToolName:  call.ToolName,
					Input:     call.ToolInput,
					Output:    result.ToolResult,
					Status:    result.ToolStatus,
				})
			}
			a.convo.AddMessage(models.Message{Role: models.RoleTool, Content: results})
			continue

		case models.StopPauseTurn:
			continue

		case models.StopEndTurn, models.StopSequence:
			text := message.Text()
			if stopReason == models.StopEndTurn && text == "" {
				a.publishRunFailed(input, start, ErrNoResponse)
				return AgentResponse{}, ErrNoResponse
			}
			response := AgentResponse{
				Text:       text,
				ToolCalls:  toolCalls,
				TokenUsage: usage,
				Duration:   time.Since(start),
				ModelCalls: modelCalls,
			}
			a.finalize(ctx, input, response)
			return response, nil

		case models.StopMaxTokens:
			a.publishRunFailed(input, start, ErrMaxTokensExceeded)
			return AgentResponse{}, ErrMaxTokensExceeded

		case models.StopContentFilter:
			a.publishRunFailed(input, start, ErrContentFiltered)
			return AgentResponse{}, ErrContentFiltered

		default:
			unexpected := &UnexpectedStopReasonError{StopReason: string(stopReason)}
			a.publishRunFailed(input, start, unexpected)
			return AgentResponse{}, unexpected
		}
	}
}

// callModel invokes the provider, retrying transient failures with
// exponential backoff, and consumes a streamed response into a single
// Message plus its stop reason and token counts.
func (a *Agent) callModel(ctx context.Context, messages []models.Message, tools []toolapi.ToolDefinition) (models.Message, models.StopReason, int, int, error) {
	result, err := retry.RetryWithBackoff(ctx, a.backoff, a.maxRetryAttempt, a.retryObserver, func(int) (streamAccumulator, error) {
		if err := a.rateLimiter.Wait(ctx); err != nil {
			return streamAccumulator{}, err
		}
		events, streamErr := a.provider.Stream(ctx, messages, tools, a.systemPrompt)
		if streamErr != nil {
			return streamAccumulator{}, streamErr
		}
		return a.consumeStream(events)
	})
	if err != nil {
		return models.Message{}, "", 0, 0, err
	}
	return result.Value.message, result.Value.stopReason, result.Value.inputTokens, result.Value.outputTokens, nil
}

type streamAccumulator struct {
	message      models.Message
	stopReason   models.StopReason
	inputTokens  int
	outputTokens int
}

func (a *Agent) consumeStream(events <-chan toolapi.StreamEvent) (streamAccumulator, error) {
	var acc streamAccumulator
	var text string

	for event := range events {
		switch event.Kind {
		case toolapi.StreamTextDelta:
			text += event.TextDelta
			a.bus.Publish(models.Event{
				Type:      models.EventModelCallStreaming,
				ModelCall: &models.ModelCallEventData{Delta: event.TextDelta, AccumulatedLen: len(text)},
			})
		case toolapi.StreamToolUse:
			if event.ToolUse != nil {
				acc.message.Content = append(acc.message.Content, *event.ToolUse)
			}
		case toolapi.StreamStop:
			if event.Err != nil {
				return streamAccumulator{}, event.Err
			}
			acc.stopReason = event.StopReason
			acc.inputTokens = event.InputTokens
			acc.outputTokens = event.OutputTokens
		}
	}

	if text != "" {
		acc.message.Content = append(acc.message.Content, models.NewText(text))
	}
	acc.message.Role = models.RoleAssistant
	return acc, nil
}

func (a *Agent) publishRunFailed(input string, start time.Time, err error) {
	a.bus.Publish(models.Event{
		Type: models.EventRunFailed,
		Run: &models.RunEventData{
			Input:    input,
			Duration: time.Since(start),
			Err:      err,
		},
	})
}

func (a *Agent) toAgentError(err error) error {
	return NewError(retryKindToAgentKind(retry.ClassifyError(err)), err.Error(), err)
}

func retryKindToAgentKind(k retry.ErrorKind) ErrorKind {
	switch k {
	case retry.KindConfiguration:
		return KindConfiguration
	case retry.KindAuthentication:
		return KindAuthentication
	case retry.KindRateLimited:
		return KindRateLimited
	case retry.KindServiceUnavailable:
		return KindServiceUnavailable
	case retry.KindNetwork:
		return KindNetwork
	case retry.KindModel:
		return KindModel
	default:
		return KindCommunication
	}
}

func (a *Agent) hydrateSession(ctx context.Context) error {
	if a.sessionStore == nil {
		return nil
	}
	a.mu.Lock()
	if a.hydrated {
		a.mu.Unlock()
		return nil
	}
	key := a.sessionKey
	if key == "" {
		key = DefaultSessionKey
	}
	a.mu.Unlock()

	snapshot, err := a.sessionStore.GetOrCreateSession(ctx, key)
	if err != nil {
		return NewError(KindContext, fmt.Sprintf("hydrating session %q", key), err)
	}

	a.mu.Lock()
	a.hydrated = true
	a.session = snapshot.Session
	a.sessionKey = key
	a.mu.Unlock()

	if len(snapshot.Messages) > 0 {
		a.convo.Hydrate(snapshot.Messages)
		a.bus.Publish(models.Event{
			Type:    models.EventSessionResumed,
			Session: &models.SessionEventData{SessionID: snapshot.Session.ID},
		})
	}
	return nil
}

func (a *Agent) finalize(ctx context.Context, input string, response AgentResponse) {
	a.bus.Publish(models.Event{
		Type: models.EventRunCompleted,
		Run: &models.RunEventData{
			Input:      input,
			Text:       response.Text,
			Duration:   response.Duration,
			ModelCalls: response.ModelCalls,
		},
	})

	if a.sessionStore == nil {
		return
	}

	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session.ID == "" {
		return
	}

	snapshot := sessionstore.Snapshot{
		Session:  session,
		Messages: a.convo.AllMessages(),
	}
	if err := a.sessionStore.SaveSession(ctx, snapshot); err != nil {
		a.logger.Error("agent: failed to save session", "session_id", session.ID, "error", err)
		return
	}
	a.bus.Publish(models.Event{
		Type:    models.EventSessionSaved,
		Session: &models.SessionEventData{SessionID: session.ID},
	})
}
