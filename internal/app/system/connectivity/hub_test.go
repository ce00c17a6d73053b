package connectivity

import (
	"testing"

	"go.uber.org/zap"
)

func TestHub_StartsOnline(t *testing.T) {
	h := NewHub(zap.NewNop())
	if got := h.Status(); got != Online {
		t.Errorf("Status: got %q, want %q", got, Online)
	}
}

func TestHub_NotifiesOnTransition(t *testing.T) {
	h := NewHub(zap.NewNop())

	var seen []Status
	h.Subscribe(func(s Status) { seen = append(seen, s) })

	h.Set(Offline)
	h.Set(Online)

	if len(seen) != 2 || seen[0] != Offline || seen[1] != Online {
		t.Errorf("transitions: got %v, want [offline online]", seen)
	}
}

func TestHub_SameStatusIsNoOp(t *testing.T) {
	h := NewHub(zap.NewNop())

	calls := 0
	h.Subscribe(func(Status) { calls++ })

	h.Set(Offline)
	h.Set(Offline)
	h.Set(Offline)

	if calls != 1 {
		t.Errorf("listener calls: got %d, want 1", calls)
	}
}

func TestHub_CancelStopsNotifications(t *testing.T) {
	h := NewHub(zap.NewNop())

	calls := 0
	cancel := h.Subscribe(func(Status) { calls++ })

	h.Set(Offline)
	cancel()
	cancel() // second cancel must be safe
	h.Set(Online)

	if calls != 1 {
		t.Errorf("listener calls after cancel: got %d, want 1", calls)
	}
}

func TestHub_IndependentInstances(t *testing.T) {
	h1 := NewHub(zap.NewNop())
	h2 := NewHub(zap.NewNop())

	h1.Set(Offline)

	if got := h2.Status(); got != Online {
		t.Errorf("second hub status: got %q, want %q", got, Online)
	}
}
