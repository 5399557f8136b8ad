// Package channel owns the bidirectional event channel to the platform:
// outbound intents (subscriptions, locks, chat) and inbound events fanned
// out to in-process subscribers. Reconnection belongs to the transport
// owner; consumers only observe connect and disconnect transitions.
package channel

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

const defaultChannelBuffer = 64

// Event is one inbound channel event.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Filter specifies which events a subscriber wants to receive.
type Filter struct {
	Names []string
}

// subscriber holds a channel and filter for a single subscriber.
type subscriber struct {
	ch     chan Event
	filter Filter
}

// Hub fans inbound events out to subscribers. Publishing never blocks; a
// slow subscriber drops events rather than stalling the read loop.
type Hub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*subscriber
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]*subscriber)}
}

// Publish sends an event to all matching subscribers.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if !matchFilter(sub.filter, event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// backpressure: drop event for slow subscriber
		}
	}
	return nil
}

// Subscribe registers a new subscription. Returns a receive-only channel and
// a cancel function that detaches it.
func (h *Hub) Subscribe(ctx context.Context, filter Filter) (<-chan Event, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	id := uuid.New()
	ch := make(chan Event, defaultChannelBuffer)

	h.mu.Lock()
	h.subs[id] = &subscriber{ch: ch, filter: filter}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}

	return ch, cancel, nil
}

func matchFilter(f Filter, e Event) bool {
	if len(f.Names) == 0 {
		return true
	}
	for _, name := range f.Names {
		if name == e.Name {
			return true
		}
	}
	return false
}
