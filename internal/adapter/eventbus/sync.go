// Package eventbus provides implementations of the EventBus interface.
// This package contains the synchronous event bus implementation.
package eventbus

import (
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

// ErrBusClosed is returned by Close when the bus was already closed.
var ErrBusClosed = errors.New("event bus already closed")

// wildcard marks subscriptions that receive every event type.
const wildcard domain.EventType = "*"

// SyncEventBus delivers events synchronously on the publisher's goroutine.
// Handlers run in subscription order; wildcard handlers run after typed ones.
//
// Thread-safety: Publish, Subscribe and Unsubscribe may be called concurrently.
// Handlers are invoked without any bus lock held, so a handler may itself
// publish or (un)subscribe.
type SyncEventBus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	closed bool
}

type subscription struct {
	id        domain.SubscriptionID
	eventType domain.EventType
	handler   domain.EventHandler
}

// NewSyncEventBus creates a new synchronous event bus.
func NewSyncEventBus(logger *slog.Logger) *SyncEventBus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SyncEventBus{
		logger: logger.With(slog.String("component", "eventbus")),
	}
}

// Publish delivers event to every matching subscriber.
// Panics in handlers are recovered and logged; remaining handlers still run.
// Publishing on a closed bus is a no-op.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	handlers := bus.matching(event.Type())
	for _, h := range handlers {
		bus.dispatch(h, event)
	}
}

// matching snapshots the handlers for eventType, typed subscribers first.
func (bus *SyncEventBus) matching(eventType domain.EventType) []domain.EventHandler {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	if bus.closed {
		return nil
	}

	var typed, all []domain.EventHandler
	for _, s := range bus.subs {
		switch s.eventType {
		case eventType:
			typed = append(typed, s.handler)
		case wildcard:
			all = append(all, s.handler)
		}
	}
	return append(typed, all...)
}

func (bus *SyncEventBus) dispatch(handler domain.EventHandler, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())))
		}
	}()

	bus.logger.Debug("event published", slog.String("event_type", string(event.Type())))
	handler(event)
}

// Subscribe registers a handler for events of the specified type.
// Panics if handler is nil or the bus is closed.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(eventType, "sub-", handler)
}

// SubscribeAll registers a handler that receives all events regardless of type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add(wildcard, "sub-all-", handler)
}

func (bus *SyncEventBus) add(eventType domain.EventType, prefix string, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	bus.nextID++
	id := domain.SubscriptionID(prefix + strconv.FormatUint(bus.nextID, 10))
	bus.subs = append(bus.subs, subscription{id: id, eventType: eventType, handler: handler})
	return id
}

// Unsubscribe removes a previously registered handler. Unknown IDs are ignored.
// Order of the remaining subscriptions is preserved.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for i, s := range bus.subs {
		if s.id == id {
			bus.subs = append(bus.subs[:i:i], bus.subs[i+1:]...)
			return
		}
	}
}

// HasSubscribers reports whether publishing eventType would reach any handler.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, s := range bus.subs {
		if s.eventType == eventType || s.eventType == wildcard {
			return true
		}
	}
	return false
}

// Close drops every subscription. Subsequent publishes are ignored.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrBusClosed
	}
	bus.closed = true
	bus.subs = nil
	return nil
}

// SubscriberCount returns the number of active subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subs)
}

// Verify that SyncEventBus implements the EventBus interface
var _ ports.EventBus = (*SyncEventBus)(nil)
