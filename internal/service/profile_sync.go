package service

import (
	"context"
	"log/slog"
	"time"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/ports"
)

const defaultResubscribeDelay = 2 * time.Second

// Forgetter drops whatever a process holds about a user's profile. *RoleResolver implements it.
type Forgetter interface {
	Forget(userID string)
}

// ProfileSyncOptions groups dependencies for ProfileSync.
type ProfileSyncOptions struct {
	Feed     ports.AuthEventFeed // Required
	Resolver Forgetter           // Required
	// ResubscribeDelay is the pause after a failed or dropped subscription. Defaults to 2s.
	ResubscribeDelay time.Duration
	Logger           *slog.Logger
}

// ProfileSync keeps a server-wide profile cache in step with auth events from
// every user, including users with no open tracker.
type ProfileSync struct {
	feed     ports.AuthEventFeed
	resolver Forgetter
	delay    time.Duration
	logger   *slog.Logger
}

// NewProfileSync constructs a ProfileSync.
func NewProfileSync(opts ProfileSyncOptions) *ProfileSync {
	if opts.Feed == nil {
		//nolint:forbidigo // Service construction must fail fast during wiring when dependencies are missing
		panic("AuthEventFeed is required")
	}
	if opts.Resolver == nil {
		//nolint:forbidigo // Service construction must fail fast during wiring when dependencies are missing
		panic("Forgetter is required")
	}
	delay := opts.ResubscribeDelay
	if delay <= 0 {
		delay = defaultResubscribeDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileSync{
		feed:     opts.Feed,
		resolver: opts.Resolver,
		delay:    delay,
		logger:   logger.With("component", "profile_sync"),
	}
}

// Run applies events until ctx is done, resubscribing after failures. It
// returns nil on cancellation; a lost feed never stops the server.
func (s *ProfileSync) Run(ctx context.Context) error {
	for {
		if err := s.consume(ctx); err != nil {
			s.logger.WarnContext(ctx, "auth event feed unavailable", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.delay):
		}
	}
}

func (s *ProfileSync) consume(ctx context.Context) error {
	sub, err := s.feed.SubscribeAll(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Close() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				if ctx.Err() == nil {
					s.logger.WarnContext(ctx, "auth event feed closed")
				}
				return nil
			}
			s.apply(ev)
		}
	}
}

func (s *ProfileSync) apply(ev domainauth.Event) {
	switch ev.Kind {
	case domainauth.EventUserUpdated, domainauth.EventSignedOut:
		if ev.UserID != "" {
			s.resolver.Forget(ev.UserID)
		}
	}
}
