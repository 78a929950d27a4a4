package agent

import (
	"context"
	"log/slog"
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

// DefaultMaxConcurrentTools bounds parallel tool dispatch within a single
// turn when a Builder does not override it.
const DefaultMaxConcurrentTools = dispatch.DefaultConcurrency

// DefaultAuthorizationTimeout bounds how long an interactive approval
// proposal waits for a human decision before it is denied with reason
// "Timeout".
const DefaultAuthorizationTimeout = 5 * time.Minute

// DefaultMaxRetryAttempts bounds retried model calls (the total number of
// attempts, counting the initial one) when a Builder does not override it.
const DefaultMaxRetryAttempts = 8

// Builder assembles an Agent from its required provider and optional
// collaborators. Construct one with NewBuilder and finish with Build.
type Builder struct {
	provider        toolapi.ModelProvider
	systemPrompt    string
	contextSources  []ContextSource
	tools           []toolapi.Tool
	maxConcurrent   int
	authTimeout     time.Duration
	policy          *authz.Policy
	interactive     bool
	grantStore      grantstore.Store
	sessionStore    sessionstore.Store
	convoManager    *convo.Manager
	logger          *slog.Logger
	backoff         retry.BackoffPolicy
	maxRetryAttempt int
	retryObserver   retry.Observer
	rateLimiter     *retry.Limiter
}

// NewBuilder starts a Builder. Spec name: Agent::builder().
func NewBuilder() *Builder {
	return &Builder{
		maxConcurrent:   DefaultMaxConcurrentTools,
		authTimeout:     DefaultAuthorizationTimeout,
		backoff:         retry.DefaultBackoffPolicy(),
		maxRetryAttempt: DefaultMaxRetryAttempts,
	}
}

// WithProvider sets the model backend. Required.
func (b *Builder) WithProvider(p toolapi.ModelProvider) *Builder {
	b.provider = p
	return b
}

// WithSystemPrompt sets the base system prompt, prepended before any
// resolved context sources.
func (b *Builder) WithSystemPrompt(prompt string) *Builder {
	b.systemPrompt = prompt
	return b
}

// WithContextSource appends one context-file source, resolved once at
// Build and appended to the system prompt in the order added.
func (b *Builder) WithContextSource(src ContextSource) *Builder {
	b.contextSources = append(b.contextSources, src)
	return b
}

// WithContextSources appends multiple context sources in order.
func (b *Builder) WithContextSources(sources ...ContextSource) *Builder {
	b.contextSources = append(b.contextSources, sources...)
	return b
}

// WithTool registers a single tool.
func (b *Builder) WithTool(t toolapi.Tool) *Builder {
	b.tools = append(b.tools, t)
	return b
}

// WithTools registers multiple tools at once.
func (b *Builder) WithTools(tools ...toolapi.Tool) *Builder {
	b.tools = append(b.tools, tools...)
	return b
}

// WithMaxConcurrentTools caps how many tool calls from a single turn run
// simultaneously. Values <= 0 fall back to DefaultMaxConcurrentTools.
func (b *Builder) WithMaxConcurrentTools(n int) *Builder {
	b.maxConcurrent = n
	return b
}

// WithAuthorizationTimeout bounds how long an interactive approval waits
// for a human decision.
func (b *Builder) WithAuthorizationTimeout(d time.Duration) *Builder {
	b.authTimeout = d
	return b
}

// WithPolicy sets the full authorization policy (mode, allow/deny lists,
// approval timeout) directly, overriding WithInteractive and
// WithAuthorizationTimeout. Use authz.LoadPolicyYAML to load one from disk.
func (b *Builder) WithPolicy(policy *authz.Policy) *Builder {
	b.policy = policy
	return b
}

// WithInteractive selects Interactive mode (pending calls await a human
// decision) over the default AutoDeny mode (unmatched calls are denied
// outright). Ignored if WithPolicy was also called.
func (b *Builder) WithInteractive(interactive bool) *Builder {
	b.interactive = interactive
	return b
}

// WithGrantStore overrides the default in-memory grant store.
func (b *Builder) WithGrantStore(store grantstore.Store) *Builder {
	b.grantStore = store
	return b
}

// WithSessionStore enables session persistence. Without one, Run never
// hydrates or saves conversation history across process lifetimes.
func (b *Builder) WithSessionStore(store sessionstore.Store) *Builder {
	b.sessionStore = store
	return b
}

// WithConversationManager overrides the default conversation manager (a
// sliding window sized from the provider's context window).
func (b *Builder) WithConversationManager(m *convo.Manager) *Builder {
	b.convoManager = m
	return b
}

// WithLogger overrides the default logger (slog.Default()).
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithBackoffPolicy overrides the default exponential backoff policy used
// to retry transient model-call errors.
func (b *Builder) WithBackoffPolicy(policy retry.BackoffPolicy) *Builder {
	b.backoff = policy
	return b
}

// WithMaxRetryAttempts overrides the default retry attempt ceiling.
func (b *Builder) WithMaxRetryAttempts(n int) *Builder {
	b.maxRetryAttempt = n
	return b
}

// WithRetryObserver installs a callback invoked before each retry sleep
// during a model call, useful for metrics or tests that assert on retry
// behavior directly.
func (b *Builder) WithRetryObserver(observer retry.Observer) *Builder {
	b.retryObserver = observer
	return b
}

// WithRateLimiter paces outbound model calls to ratePerSecond requests per
// second (with the given burst), in addition to the retry backoff. Useful
// when a provider's rate limit is known ahead of time and proactive pacing
// reduces how often calls fail with a retryable 429 in the first place.
// Without this, calls are only throttled reactively by backoff after a
// rate-limit error.
func (b *Builder) WithRateLimiter(ratePerSecond float64, burst int) *Builder {
	b.rateLimiter = retry.NewLimiter(ratePerSecond, burst)
	return b
}

// Build validates the configuration and constructs an Agent. The provider
// is the only required field; every other collaborator has a safe default.
func (b *Builder) Build() (*Agent, error) {
	if b.provider == nil {
		return nil, ErrNoProvider
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	resolvedPrompt, err := resolveContextSources(context.Background(), b.systemPrompt, b.contextSources)
	if err != nil {
		return nil, err
	}

	grantStore := b.grantStore
	if grantStore == nil {
		grantStore = grantstore.NewMemoryStore()
	}

	policy := b.policy
	if policy == nil {
		policy = authz.DefaultPolicy()
		if b.interactive {
			policy.Mode = authz.Interactive
		}
		if b.authTimeout > 0 {
			policy.ApprovalTimeoutSecs = int(b.authTimeout.Seconds())
		}
	}
	engine := authz.NewEngine(grantStore, policy)
	bus := newHookBus(logger)

	registry := dispatch.NewRegistry()
	for _, t := range b.tools {
		registry.Register(t)
	}
	dispatcher := dispatch.New(registry, engine, bus, b.maxConcurrent)

	manager := b.convoManager
	if manager == nil {
		manager = convo.NewManager(convo.SlidingWindow{}, providerEstimator(b.provider))
	}

	return &Agent{
		provider:        b.provider,
		systemPrompt:    resolvedPrompt,
		registry:        registry,
		dispatcher:      dispatcher,
		engine:          engine,
		grantStore:      grantStore,
		sessionStore:    b.sessionStore,
		convo:           manager,
		bus:             bus,
		logger:          logger,
		backoff:         b.backoff,
		maxRetryAttempt: b.maxRetryAttempt,
		retryObserver:   b.retryObserver,
		rateLimiter:     b.rateLimiter,
		limits:          convo.DefaultLimits(b.provider.MaxContextTokens()),
	}, nil
}

// providerEstimator adapts a ModelProvider's own token estimate into a
// convo.TokenEstimator, so context-window accounting uses the provider's
// real estimate rather than the package-default character heuristic.
func providerEstimator(provider toolapi.ModelProvider) convo.TokenEstimator {
	return func(messages []models.Message) int {
		return provider.EstimateMessageTokens(messages)
	}
}
