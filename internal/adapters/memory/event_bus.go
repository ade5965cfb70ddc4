// Package memory provides in-process adapters for tests.
package memory

import (
	"context"
	"errors"
	"sync"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/ports"
)

const defaultBuffer = 16

// EventBus is an in-process AuthEventBus. Slow subscribers drop events rather
// than block publishers.
type EventBus struct {
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	all    map[*subscription]struct{}
	buffer int
}

// NewEventBus creates an empty in-process bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subs:   make(map[string]map[*subscription]struct{}),
		all:    make(map[*subscription]struct{}),
		buffer: defaultBuffer,
	}
}

var (
	_ ports.AuthEventBus  = (*EventBus)(nil)
	_ ports.AuthEventFeed = (*EventBus)(nil)
)

func (b *EventBus) Publish(_ context.Context, ev domainauth.Event) error {
	if ev.UserID == "" {
		return errors.New("event user ID is required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs[ev.UserID] {
		s.deliver(ev)
	}
	for s := range b.all {
		s.deliver(ev)
	}
	return nil
}

func (b *EventBus) Subscribe(ctx context.Context, userID string) (ports.Subscription, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}
	s := &subscription{bus: b, userID: userID, events: make(chan domainauth.Event, b.buffer)}

	b.mu.Lock()
	set, ok := b.subs[userID]
	if !ok {
		set = make(map[*subscription]struct{})
		b.subs[userID] = set
	}
	set[s] = struct{}{}
	b.mu.Unlock()

	b.watch(ctx, s)
	return s, nil
}

// SubscribeAll registers a subscription that receives every published event.
func (b *EventBus) SubscribeAll(ctx context.Context) (ports.Subscription, error) {
	s := &subscription{bus: b, events: make(chan domainauth.Event, b.buffer)}

	b.mu.Lock()
	b.all[s] = struct{}{}
	b.mu.Unlock()

	b.watch(ctx, s)
	return s, nil
}

func (b *EventBus) watch(ctx context.Context, s *subscription) {
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	b.mu.Lock()
	s.stop = stop
	b.mu.Unlock()
}

// Subscribers returns the number of open subscriptions for userID.
func (b *EventBus) Subscribers(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}

func (b *EventBus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.userID == "" {
		if _, ok := b.all[s]; !ok {
			return
		}
		delete(b.all, s)
		close(s.events)
		return
	}
	set := b.subs[s.userID]
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(b.subs, s.userID)
	}
	close(s.events)
}

// subscription with an empty userID is registered through SubscribeAll.
type subscription struct {
	bus    *EventBus
	userID string
	events chan domainauth.Event
	stop   func() bool
	once   sync.Once
}

// deliver is called with bus.mu held.
func (s *subscription) deliver(ev domainauth.Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *subscription) Events() <-chan domainauth.Event { return s.events }

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		stop := s.stop
		s.bus.mu.Unlock()
		if stop != nil {
			stop()
		}
		s.bus.remove(s)
	})
	return nil
}
