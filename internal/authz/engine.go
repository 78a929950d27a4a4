package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/agentcore/runtime/internal/grantstore"
	"github.com/agentcore/runtime/pkg/models"
)

// DecisionKind discriminates a Check result.
type DecisionKind string

const (
	DecisionGranted         DecisionKind = "granted"
	DecisionDenied          DecisionKind = "denied"
	DecisionPendingApproval DecisionKind = "pending_approval"
)

// Decision is the outcome of Check.
type Decision struct {
	Kind DecisionKind

	// Grant is set when Kind == DecisionGranted.
	Grant models.Grant
	// Reason is set when Kind == DecisionDenied.
	Reason string
	// ParamsHash is set when Kind == DecisionPendingApproval.
	ParamsHash string
}

// Engine is the authorization engine: it decides whether a proposed tool
// call may proceed, consulting the grant store first and then the
// configured Policy.
type Engine struct {
	store  grantstore.Store
	policy *Policy

	mu      sync.Mutex
	pending map[string]chan models.AuthResponse // proposal id -> one-shot channel
}

// NewEngine constructs an Engine backed by store. A nil policy uses
// DefaultPolicy.
func NewEngine(store grantstore.Store, policy *Policy) *Engine {
	return &Engine{
		store:   store,
		policy:  sanitizePolicy(policy),
		pending: make(map[string]chan models.AuthResponse),
	}
}

// Check evaluates a proposed tool call against the allow/deny pattern
// lists, then the grant store, then the configured policy.
func (e *Engine) Check(toolName string, params json.RawMessage) (Decision, error) {
	if matchesPattern(e.policy.Denylist, toolName) {
		return Decision{Kind: DecisionDenied, Reason: fmt.Sprintf("tool %q is in the denylist", toolName)}, nil
	}
	if matchesPattern(e.policy.Allowlist, toolName) {
		return Decision{Kind: DecisionGranted, Grant: models.ToolWideGrant(toolName, models.ScopeSession)}, nil
	}

	hash, err := CanonicalHash(params)
	if err != nil {
		return Decision{}, fmt.Errorf("hashing params: %w", err)
	}

	grants, err := e.store.Load(toolName)
	if err != nil {
		return Decision{}, fmt.Errorf("loading grants for %q: %w", toolName, err)
	}
	for _, g := range grants {
		if g.Matches(hash) {
			return Decision{Kind: DecisionGranted, Grant: g}, nil
		}
	}

	switch e.policy.Mode {
	case Interactive:
		return Decision{Kind: DecisionPendingApproval, ParamsHash: hash}, nil
	default:
		return Decision{Kind: DecisionDenied, Reason: fmt.Sprintf("No grant configured for tool %q", toolName)}, nil
	}
}

// AwaitApproval registers a pending approval keyed by proposalID and
// blocks until RespondToAuthorization is called with the same id, ctx is
// canceled, or the policy's approval timeout elapses. On timeout it
// returns Deny("Timeout"). On Trust, the grant is saved to the store
// before returning; a save failure is reported via err but the response
// itself is still honored (the call is approved, per the "approved call
// is never blocked by a store-write failure" contract).
func (e *Engine) AwaitApproval(ctx context.Context, proposalID string) (models.AuthResponse, error) {
	ch := make(chan models.AuthResponse, 1)
	e.mu.Lock()
	e.pending[proposalID] = ch
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.pending, proposalID)
		e.mu.Unlock()
	}()

	timeout := time.Duration(e.policy.ApprovalTimeoutSecs) * time.Second
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		var saveErr error
		if resp.Kind == models.RespondTrust {
			saveErr = e.store.Save(resp.Grant)
		}
		return resp, saveErr
	case <-timer.C:
		return models.Deny("Timeout"), nil
	case <-ctx.Done():
		return models.Deny(ctx.Err().Error()), ctx.Err()
	}
}

// RespondToAuthorization delivers a human decision for a pending
// proposal. Reports false if no proposal with that id is currently
// awaiting a response (it may have already timed out or been answered).
func (e *Engine) RespondToAuthorization(proposalID string, resp models.AuthResponse) bool {
	e.mu.Lock()
	ch, ok := e.pending[proposalID]
	e.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- resp:
		return true
	default:
		return false
	}
}

// GrantToolPermission stores a tool-wide grant directly, bypassing the
// interactive flow (used by callers that pre-authorize a tool out of
// band, e.g. CLI flags).
func (e *Engine) GrantToolPermission(toolName string, scope models.GrantScope) error {
	return e.store.Save(models.ToolWideGrant(toolName, scope))
}

// GrantParamsPermission stores an exact-match grant for a specific
// canonical params hash.
func (e *Engine) GrantParamsPermission(toolName string, params json.RawMessage, scope models.GrantScope) error {
	hash, err := CanonicalHash(params)
	if err != nil {
		return err
	}
	return e.store.Save(models.ExactGrant(toolName, hash, scope))
}
