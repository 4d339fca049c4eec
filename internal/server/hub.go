package server

import (
	"sync"

	"github.com/machtimer/machtimer/common"
)

// subscriberBuffer is the per-subscriber event queue depth. A consumer
// that falls further behind than this loses events rather than stalling
// the broadcast path.
const subscriberBuffer = 16

// Hub fans fire events out to every connected event-stream subscriber.
type Hub struct {
	mu   sync.Mutex
	subs map[chan common.FireEvent]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan common.FireEvent]struct{})}
}

// Subscribe registers a new consumer. The returned cancel function
// unregisters it and closes the channel; it is safe to call twice.
func (h *Hub) Subscribe() (<-chan common.FireEvent, func()) {
	ch := make(chan common.FireEvent, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Broadcast delivers ev to every subscriber without blocking.
func (h *Hub) Broadcast(ev common.FireEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
