package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event is a published notification.
type Event struct {
	// Topic is the concrete topic the event was published on.
	Topic Topic

	// Payload contains the event-specific data.
	Payload any

	// Metadata contains standard event information.
	Metadata Metadata
}

// Metadata contains standard information attached to every event.
type Metadata struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source identifies the component that published the event.
	Source string
}

// PayloadAs returns the payload of ev as T.
func PayloadAs[T any](ev Event) (T, bool) {
	v, ok := ev.Payload.(T)
	return v, ok
}

// Handler processes a delivered event.
type Handler func(ctx context.Context, ev Event) error

// Subscription is a registered handler.
type Subscription struct {
	id      string
	pattern Topic
	handler Handler
	active  atomic.Bool
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Pattern returns the subscribed topic pattern.
func (s *Subscription) Pattern() Topic {
	return s.pattern
}

// Active reports whether the subscription still receives events.
func (s *Subscription) Active() bool {
	return s.active.Load()
}

// PanicHandler is called when a handler panics.
type PanicHandler func(ev Event, sub *Subscription, recovered any)

// Option configures a Bus.
type Option func(*Bus)

// WithPanicHandler sets the function called when a handler panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(b *Bus) {
		b.panicHandler = h
	}
}

// Stats contains bus counters.
type Stats struct {
	Subscriptions   int
	EventsPublished uint64
	EventsDelivered uint64
	HandlerErrors   uint64
	HandlerPanics   uint64
}

// Bus delivers events to subscribers synchronously. It is safe for
// concurrent use; handlers may subscribe or unsubscribe during delivery.
type Bus struct {
	mu   sync.RWMutex
	subs []*Subscription

	panicHandler PanicHandler

	eventsPublished atomic.Uint64
	eventsDelivered atomic.Uint64
	handlerErrors   atomic.Uint64
	handlerPanics   atomic.Uint64
}

// NewBus creates an event bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for every topic matching pattern.
func (b *Bus) Subscribe(pattern Topic, h Handler) (*Subscription, error) {
	if !pattern.ValidPattern() {
		return nil, fmt.Errorf("subscribe %q: %w", pattern, ErrInvalidTopic)
	}
	if h == nil {
		return nil, ErrNilHandler
	}
	sub := &Subscription{id: uuid.NewString(), pattern: pattern, handler: h}
	sub.active.Store(true)

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub, nil
}

// Unsubscribe removes sub. Events already being delivered may still reach it.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s == sub {
			sub.active.Store(false)
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Publish delivers payload to every subscriber whose pattern matches t and
// returns the joined handler errors. Delivery stops early if ctx is done.
func (b *Bus) Publish(ctx context.Context, t Topic, payload any, source string) error {
	if !t.Valid() {
		return fmt.Errorf("publish %q: %w", t, ErrInvalidTopic)
	}
	ev := Event{
		Topic:   t,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}

	b.mu.RLock()
	var targets []*Subscription
	for _, s := range b.subs {
		if s.pattern.Matches(t) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	b.eventsPublished.Add(1)
	var errs []error
	for _, sub := range targets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if !sub.Active() {
			continue
		}
		if err := b.deliver(ctx, ev, sub); err != nil {
			errs = append(errs, &HandlerError{SubscriptionID: sub.id, Topic: t, Err: err})
			continue
		}
		b.eventsDelivered.Add(1)
	}
	return errors.Join(errs...)
}

func (b *Bus) deliver(ctx context.Context, ev Event, sub *Subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			if b.panicHandler != nil {
				b.panicHandler(ev, sub, r)
			}
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	if err := sub.handler(ctx, ev); err != nil {
		b.handlerErrors.Add(1)
		return err
	}
	return nil
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()
	return Stats{
		Subscriptions:   n,
		EventsPublished: b.eventsPublished.Load(),
		EventsDelivered: b.eventsDelivered.Load(),
		HandlerErrors:   b.handlerErrors.Load(),
		HandlerPanics:   b.handlerPanics.Load(),
	}
}
