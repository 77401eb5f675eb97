// Package bridge implements the typed publish/subscribe channel connecting
// platform adapters to downstream consumers. Publishing is synchronous
// fire-and-forget: every subscriber registered at publish time receives the
// event, in registration order, and a misbehaving subscriber cannot affect
// the others. There is no buffering or replay.
package bridge

import (
	"io"
	"log/slog"
	"sync"

	"github.com/polygate-bot/polygate/internal/domain"
)

// Handler receives published events for one event type.
type Handler func(event domain.BotEvent)

type subscription struct {
	id      uint64
	handler Handler
}

// Bridge is safe for concurrent use; multiple adapters publish into one
// bridge without coordinating with each other.
type Bridge struct {
	logger *slog.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   map[domain.EventType][]subscription
}

// New creates an empty bridge. A nil logger is replaced with a discard
// logger so the bridge can be used bare in tests.
func New(logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bridge{
		logger: logger.With("component", "bridge"),
		subs:   make(map[domain.EventType][]subscription),
	}
}

// Subscribe registers handler for events of the given type and returns a
// function that removes the registration. A subscriber registered after an
// event was published never sees that event.
func (b *Bridge) Subscribe(eventType domain.EventType, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[eventType] = append(b.subs[eventType], subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[eventType]
		for i, s := range subs {
			if s.id == id {
				b.subs[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers event to all current subscribers of event.Type in
// registration order. A panicking subscriber is recovered and logged;
// delivery continues with the next subscriber.
func (b *Bridge) Publish(event domain.BotEvent) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs[event.Type]))
	copy(subs, b.subs[event.Type])
	b.mu.RUnlock()

	for _, s := range subs {
		b.dispatch(s, event)
	}
}

func (b *Bridge) dispatch(s subscription, event domain.BotEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("subscriber panicked",
				"event_type", event.Type,
				"platform", event.Platform,
				"panic", r)
		}
	}()
	s.handler(event)
}
