package convo

import (
	"strings"
	"testing"

	"github.com/agentcore/runtime/pkg/models"
)

func textMsg(role models.Role, text string) models.Message {
	return models.Message{Role: role, Content: []models.ContentBlock{models.NewText(text)}}
}

func TestSlidingWindow_EmptyHistory(t *testing.T) {
	mgr := NewManager(SlidingWindow{}, DefaultEstimator)
	usage := mgr.ContextUsage(DefaultLimits(1000))
	if usage.UsagePercentage != 0 {
		t.Errorf("UsagePercentage = %v, want 0", usage.UsagePercentage)
	}
	if got := mgr.MessagesForContext(DefaultLimits(1000)); len(got) != 0 {
		t.Errorf("MessagesForContext() len = %d, want 0", len(got))
	}
}

func TestSlidingWindow_RespectsBudgetAndOrder(t *testing.T) {
	mgr := NewManager(SlidingWindow{}, DefaultEstimator)
	// Each message is ~100 chars of text, well over the per-message overhead.
	big := strings.Repeat("x", 100)
	for i := 0; i < 10; i++ {
		mgr.AddMessage(textMsg(models.RoleUser, big))
	}

	limits := DefaultLimits(100) // tiny window forces truncation
	got := mgr.MessagesForContext(limits)

	budget := limits.availableBudget()
	total := DefaultEstimator(got)
	if total > budget {
		t.Errorf("selected messages cost %d tokens, exceeds budget %d", total, budget)
	}

	all := mgr.AllMessages()
	if len(got) > 0 {
		// The selection must be a suffix of the full history.
		suffix := all[len(all)-len(got):]
		for i := range got {
			if got[i].Text() != suffix[i].Text() {
				t.Fatalf("selection is not a suffix of history at index %d", i)
			}
		}
	}
}

func TestSlidingWindow_NeverFailsOnOverflow(t *testing.T) {
	mgr := NewManager(SlidingWindow{}, DefaultEstimator)
	mgr.AddMessage(textMsg(models.RoleUser, strings.Repeat("x", 10000)))

	limits := DefaultLimits(1) // budget effectively zero
	got := mgr.MessagesForContext(limits)
	if len(got) != 0 {
		t.Errorf("MessagesForContext() len = %d, want 0 when nothing fits", len(got))
	}
}

func TestSimpleCount_RetainsLastN(t *testing.T) {
	mgr := NewManager(SimpleCount{N: 2}, DefaultEstimator)
	mgr.AddMessage(textMsg(models.RoleUser, "one"))
	mgr.AddMessage(textMsg(models.RoleAssistant, "two"))
	mgr.AddMessage(textMsg(models.RoleUser, "three"))

	got := mgr.MessagesForContext(Limits{})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Text() != "two" || got[1].Text() != "three" {
		t.Errorf("got %q, %q; want two, three", got[0].Text(), got[1].Text())
	}
}

func TestSimpleCount_FewerThanN(t *testing.T) {
	mgr := NewManager(SimpleCount{N: 5}, DefaultEstimator)
	mgr.AddMessage(textMsg(models.RoleUser, "one"))
	got := mgr.MessagesForContext(Limits{})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

func TestNoOp_ReturnsFullHistory(t *testing.T) {
	mgr := NewManager(NoOp{}, DefaultEstimator)
	for i := 0; i < 5; i++ {
		mgr.AddMessage(textMsg(models.RoleUser, "msg"))
	}
	got := mgr.MessagesForContext(Limits{})
	if len(got) != 5 {
		t.Errorf("len = %d, want 5", len(got))
	}
}

func TestManager_HydrateReplacesHistory(t *testing.T) {
	mgr := NewManager(NoOp{}, DefaultEstimator)
	mgr.AddMessage(textMsg(models.RoleUser, "stale"))
	mgr.Hydrate([]models.Message{textMsg(models.RoleUser, "fresh")})

	all := mgr.AllMessages()
	if len(all) != 1 || all[0].Text() != "fresh" {
		t.Fatalf("AllMessages() = %+v, want single fresh message", all)
	}
}

func TestManager_Clear(t *testing.T) {
	mgr := NewManager(NoOp{}, DefaultEstimator)
	mgr.AddMessage(textMsg(models.RoleUser, "x"))
	mgr.Clear()
	if len(mgr.AllMessages()) != 0 {
		t.Errorf("AllMessages() not empty after Clear()")
	}
}

func TestLimits_FractionsClamped(t *testing.T) {
	l := Limits{MaxContextTokens: 1000, SystemReserveFraction: 0.9, ResponseReserveFraction: -1}
	// Both fractions clamp into [0, 0.5]; system clamps to 0.5, response to 0.
	if got := l.availableBudget(); got != 500 {
		t.Errorf("availableBudget() = %d, want 500", got)
	}
}
