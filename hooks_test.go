package agent

import (
	"sync"
	"testing"

	"github.com/agentcore/runtime/pkg/models"
)

func TestHookBus_PublishDeliversInRegistrationOrder(t *testing.T) {
	b := newHookBus(nil)
	var mu sync.Mutex
	var order []string

	b.AddHook(func(models.Event) {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
	})
	b.AddHook(func(models.Event) {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
	})

	b.Publish(models.Event{Type: models.EventRunStarted})

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("order = %v, want [first second]", order)
	}
}

func TestHookBus_RemoveHookStopsDelivery(t *testing.T) {
	b := newHookBus(nil)
	calls := 0
	id := b.AddHook(func(models.Event) { calls++ })

	b.Publish(models.Event{Type: models.EventRunStarted})
	b.RemoveHook(id)
	b.Publish(models.Event{Type: models.EventRunStarted})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestHookBus_RemoveUnknownHookIsNoop(t *testing.T) {
	b := newHookBus(nil)
	b.RemoveHook(HookID(999))
}

func TestHookBus_PanicInHookDoesNotStopOtherHooks(t *testing.T) {
	b := newHookBus(nil)
	secondCalled := false
	b.AddHook(func(models.Event) { panic("boom") })
	b.AddHook(func(models.Event) { secondCalled = true })

	b.Publish(models.Event{Type: models.EventRunStarted})

	if !secondCalled {
		t.Errorf("second hook was not called after first hook panicked")
	}
}

func TestHookBus_PublishStampsTimestampWhenZero(t *testing.T) {
	b := newHookBus(nil)
	var got models.Event
	b.AddHook(func(e models.Event) { got = e })
	b.Publish(models.Event{Type: models.EventRunStarted})
	if got.Timestamp.IsZero() {
		t.Errorf("Timestamp was not stamped")
	}
}
