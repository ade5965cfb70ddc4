package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/ports"
)

const defaultEventBuffer = 16

// EventBus publishes auth events over Redis Pub/Sub, one channel per user.
type EventBus struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// EventBusOptions configures NewEventBus.
type EventBusOptions struct {
	Client redis.UniversalClient
	Prefix string
	Logger *slog.Logger
}

// NewEventBus creates a Redis Pub/Sub backed event bus.
func NewEventBus(opts EventBusOptions) *EventBus {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "auth:events:"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{client: opts.Client, prefix: prefix, logger: logger.With("component", "auth_event_bus")}
}

var (
	_ ports.AuthEventBus  = (*EventBus)(nil)
	_ ports.AuthEventFeed = (*EventBus)(nil)
)

func (b *EventBus) channel(userID string) string { return b.prefix + userID }

// Publish sends ev to subscribers of ev.UserID.
func (b *EventBus) Publish(ctx context.Context, ev domainauth.Event) error {
	if ev.UserID == "" {
		return errors.New("event user ID is required")
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(ev.UserID), data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe opens a subscription for events about userID.
func (b *EventBus) Subscribe(ctx context.Context, userID string) (ports.Subscription, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}
	return b.open(ctx, b.client.Subscribe(ctx, b.channel(userID)))
}

// SubscribeAll opens a pattern subscription over every user's channel.
func (b *EventBus) SubscribeAll(ctx context.Context) (ports.Subscription, error) {
	return b.open(ctx, b.client.PSubscribe(ctx, b.prefix+"*"))
}

func (b *EventBus) open(ctx context.Context, ps *redis.PubSub) (ports.Subscription, error) {
	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	sub := &subscription{
		pubsub: ps,
		events: make(chan domainauth.Event, defaultEventBuffer),
		done:   make(chan struct{}),
	}
	go sub.pump(ctx, b.logger)
	return sub, nil
}

type subscription struct {
	pubsub *redis.PubSub
	events chan domainauth.Event
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func (s *subscription) Events() <-chan domainauth.Event { return s.events }

func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.pubsub.Close()
	})
	return s.closeErr
}

func (s *subscription) pump(ctx context.Context, logger *slog.Logger) {
	defer close(s.events)
	msgs := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev domainauth.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.WarnContext(ctx, "dropping malformed auth event", "channel", msg.Channel, "error", err)
				continue
			}
			select {
			case s.events <- ev:
			case <-s.done:
				return
			case <-ctx.Done():
				_ = s.Close()
				return
			}
		}
	}
}
