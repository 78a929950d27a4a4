package convo

import (
	"sync"

	"github.com/agentcore/runtime/pkg/models"
)

// Limits bounds how much of the provider's context window a strategy may
// fill on a single call to MessagesForContext.
type Limits struct {
	// MaxContextTokens is the provider's total context window.
	MaxContextTokens int
	// SystemReserveFraction reserves a fraction of MaxContextTokens for the
	// system prompt. Clamped to [0.0, 0.5].
	SystemReserveFraction float64
	// ResponseReserveFraction reserves a fraction of MaxContextTokens for
	// the model's response. Clamped to [0.0, 0.5].
	ResponseReserveFraction float64
}

// DefaultLimits returns the sliding-window default reservations.
func DefaultLimits(maxContextTokens int) Limits {
	return Limits{
		MaxContextTokens:        maxContextTokens,
		SystemReserveFraction:   0.10,
		ResponseReserveFraction: 0.20,
	}
}

func (l Limits) availableBudget() int {
	sysFrac := clampFraction(l.SystemReserveFraction)
	respFrac := clampFraction(l.ResponseReserveFraction)
	reserved := float64(l.MaxContextTokens) * (sysFrac + respFrac)
	available := float64(l.MaxContextTokens) - reserved
	if available < 0 {
		return 0
	}
	return int(available)
}

func clampFraction(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 0.5 {
		return 0.5
	}
	return f
}

// Strategy selects which messages from the full history are sent to the
// model on a given call. Implementations must not mutate messages.
type Strategy interface {
	MessagesForContext(messages []models.Message, limits Limits, estimate TokenEstimator) []models.Message
}

// SlidingWindow walks history from newest to oldest, greedily including
// messages that fit the available budget, and stops at the first message
// that would not. It never fails on overflow.
type SlidingWindow struct{}

// MessagesForContext implements Strategy.
func (SlidingWindow) MessagesForContext(messages []models.Message, limits Limits, estimate TokenEstimator) []models.Message {
	if len(messages) == 0 {
		return nil
	}
	budget := limits.availableBudget()
	selected := make([]models.Message, 0, len(messages))
	used := 0
	for i := len(messages) - 1; i >= 0; i-- {
		cost := estimate([]models.Message{messages[i]})
		if used+cost > budget {
			break
		}
		used += cost
		selected = append(selected, messages[i])
	}
	for i, j := 0, len(selected)-1; i < j; i, j = i+1, j-1 {
		selected[i], selected[j] = selected[j], selected[i]
	}
	return selected
}

// SimpleCount retains the last N messages unconditionally, regardless of
// their token cost.
type SimpleCount struct {
	N int
}

// MessagesForContext implements Strategy.
func (s SimpleCount) MessagesForContext(messages []models.Message, _ Limits, _ TokenEstimator) []models.Message {
	if s.N <= 0 || len(messages) == 0 {
		return nil
	}
	if len(messages) <= s.N {
		out := make([]models.Message, len(messages))
		copy(out, messages)
		return out
	}
	out := make([]models.Message, s.N)
	copy(out, messages[len(messages)-s.N:])
	return out
}

// NoOp returns the full history unconditionally. Intended for short,
// controlled conversations where overflow is the caller's responsibility.
type NoOp struct{}

// MessagesForContext implements Strategy.
func (NoOp) MessagesForContext(messages []models.Message, _ Limits, _ TokenEstimator) []models.Message {
	out := make([]models.Message, len(messages))
	copy(out, messages)
	return out
}

// Usage reports how much of the context window the current history would
// occupy if sent in full, alongside what a context slice actually used.
type Usage struct {
	TotalMessages    int
	ContextMessages  int
	ContextTokens    int
	MaxContextTokens int
	UsagePercentage  float64
}

// Manager owns the full append-only message history for a single run and
// exposes a token-budgeted slice of it for each model call. The full
// history is append-only during a run; reads and writes are guarded by a
// reader/writer lock so a Manager may be shared by concurrent runs on the
// same agent instance.
type Manager struct {
	mu       sync.RWMutex
	messages []models.Message
	strategy Strategy
	estimate TokenEstimator
}

// NewManager constructs a Manager using the given strategy and estimator.
// A nil strategy defaults to SlidingWindow{}; a nil estimator defaults to
// DefaultEstimator.
func NewManager(strategy Strategy, estimate TokenEstimator) *Manager {
	if strategy == nil {
		strategy = SlidingWindow{}
	}
	if estimate == nil {
		estimate = DefaultEstimator
	}
	return &Manager{strategy: strategy, estimate: estimate}
}

// AddMessage appends a message to the full history.
func (m *Manager) AddMessage(msg models.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// MessagesForContext returns the strategy's selected context slice under
// limits. The returned slice is a copy; callers may not mutate the
// manager's history through it.
func (m *Manager) MessagesForContext(limits Limits) []models.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.strategy.MessagesForContext(m.messages, limits, m.estimate)
}

// AllMessages returns a copy of the full history in chronological order.
func (m *Manager) AllMessages() []models.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Hydrate replaces the full history, e.g. when resuming a persisted
// session. Any messages previously added are discarded.
func (m *Manager) Hydrate(messages []models.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = make([]models.Message, len(messages))
	copy(m.messages, messages)
}

// Clear discards the full history.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}

// ContextUsage reports usage statistics for the given limits without
// mutating any state.
func (m *Manager) ContextUsage(limits Limits) Usage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	slice := m.strategy.MessagesForContext(m.messages, limits, m.estimate)
	tokens := m.estimate(slice)
	usage := Usage{
		TotalMessages:    len(m.messages),
		ContextMessages:  len(slice),
		ContextTokens:    tokens,
		MaxContextTokens: limits.MaxContextTokens,
	}
	if limits.MaxContextTokens > 0 {
		usage.UsagePercentage = float64(tokens) / float64(limits.MaxContextTokens) * 100
	}
	return usage
}
