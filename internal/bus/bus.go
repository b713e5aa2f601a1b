// Package bus implements the process-wide session event bus: a typed
// observer registry with explicit unsubscribe handles. It decouples
// whatever detects a dead session (idle timer, HTTP interceptor, guard)
// from the single subscriber that acts on it.
package bus

import (
	"sync"

	"github.com/BrightonDube/bizpilot-session/internal/domain"
)

type Handler func(domain.Event)

type Bus struct {
	mu   sync.RWMutex
	subs map[domain.Topic]map[int]Handler
	next int
}

func New() *Bus {
	return &Bus{subs: make(map[domain.Topic]map[int]Handler)}
}

// Subscribe registers a handler for a topic and returns its unsubscribe
// handle. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(topic domain.Topic, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	id := b.next
	b.next++
	b.subs[topic][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Publish delivers the event to every subscriber of its topic,
// synchronously on the caller's goroutine. Handlers registered during
// delivery are not invoked for the in-flight event.
func (b *Bus) Publish(evt domain.Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[evt.Topic]))
	for _, fn := range b.subs[evt.Topic] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(evt)
	}
}

// SubscriberCount reports how many handlers a topic currently has.
func (b *Bus) SubscriberCount(topic domain.Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
