package agent

import (
	"sync"
	"time"

	"github.com/agentcore/runtime/pkg/models"
)

// HookID identifies a registered hook for later removal.
type HookID uint64

// HookFunc receives every event published on an Agent's bus, in the order
// Publish was called. A hook must not block for long; it runs synchronously
// on the publishing goroutine.
type HookFunc func(models.Event)

// hookBus is a synchronous, in-order, panic-isolated event bus. A Dispatcher
// depends only on the structural Publish(models.Event) method, so hookBus
// satisfies dispatch.Publisher without either package importing the other.
type hookBus struct {
	mu     sync.Mutex
	nextID HookID
	hooks  map[HookID]HookFunc
	order  []HookID
	logger loggerLike
}

// loggerLike is the subset of *slog.Logger a recovered hook panic is logged
// through, kept narrow so hookBus has no hard dependency beyond options.go.
type loggerLike interface {
	Error(msg string, args ...any)
}

func newHookBus(logger loggerLike) *hookBus {
	return &hookBus{hooks: make(map[HookID]HookFunc), logger: logger}
}

// AddHook registers fn to receive every subsequently published event and
// returns an id that RemoveHook accepts.
func (b *hookBus) AddHook(fn HookFunc) HookID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.hooks[id] = fn
	b.order = append(b.order, id)
	return id
}

// RemoveHook unregisters a hook by id. Removing an id that was already
// removed, or was never registered, is a no-op.
func (b *hookBus) RemoveHook(id HookID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.hooks[id]; !ok {
		return
	}
	delete(b.hooks, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Publish delivers event to every registered hook, in registration order, on
// the calling goroutine. A panic inside one hook is recovered and logged;
// it never stops delivery to the remaining hooks or propagates to the
// caller.
func (b *hookBus) Publish(event models.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.Lock()
	ids := make([]HookID, len(b.order))
	copy(ids, b.order)
	b.mu.Unlock()

	for _, id := range ids {
		b.mu.Lock()
		fn, ok := b.hooks[id]
		b.mu.Unlock()
		if !ok {
			continue
		}
		b.invoke(fn, event)
	}
}

func (b *hookBus) invoke(fn HookFunc, event models.Event) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.Error("agent: hook panicked", "panic", r, "event_type", event.Type)
		}
	}()
	fn(event)
}
