// internal/app/system/connectivity/hub.go
package connectivity

import (
	"sync"

	"go.uber.org/zap"
)

// Status is the process-wide view of backend reachability.
type Status string

const (
	Online  Status = "online"
	Offline Status = "offline"
)

// Hub fans connectivity transitions out to registered listeners. It is owned
// by the composition root and injected into anything that needs it; tests
// construct their own independent hubs.
type Hub struct {
	log *zap.Logger

	mu        sync.Mutex
	status    Status
	nextID    int
	listeners map[int]func(Status)
}

// NewHub returns a hub that starts out Online.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		log:       logger,
		status:    Online,
		listeners: make(map[int]func(Status)),
	}
}

// Status returns the current connectivity status.
func (h *Hub) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Set updates the status and notifies listeners. Setting the same status
// twice is a no-op; listeners only see transitions.
func (h *Hub) Set(s Status) {
	h.mu.Lock()
	if h.status == s {
		h.mu.Unlock()
		return
	}
	h.status = s
	fns := make([]func(Status), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	h.log.Info("connectivity changed", zap.String("status", string(s)))
	for _, fn := range fns {
		fn(s)
	}
}

// Subscribe registers a listener and returns a cancel func. Cancel is
// idempotent. The listener is not called with the current status, only with
// transitions after registration.
func (h *Hub) Subscribe(fn func(Status)) (cancel func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}
