package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans auth events out to subscribers in process.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe returns a func that removes the handler again.
	Subscribe(eventType EventType, handler EventHandler) (unsubscribe func())
}

type subscription struct {
	id      uint64
	handler EventHandler
}

type bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[EventType][]subscription
}

// NewInMemoryDispatcher returns a synchronous dispatcher. Handlers run on
// the publishing goroutine in subscription order.
func NewInMemoryDispatcher() Dispatcher {
	return &bus{subs: make(map[EventType][]subscription)}
}

// Publish runs every handler of the event's type. A failing or panicking
// handler does not stop the rest; a cancelled ctx does.
func (b *bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[event.Type]...)
	b.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := deliver(ctx, sub.handler, event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("dispatch %s: %w", event.Type, errors.Join(errs...))
}

func deliver(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(ctx, event)
}

func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[eventType] = append(b.subs[eventType], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(eventType, id) })
	}
}

func (b *bus) remove(eventType EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[eventType]
	for i, sub := range subs {
		if sub.id == id {
			b.subs[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[eventType]) == 0 {
		delete(b.subs, eventType)
	}
}
