package ports

import (
	"context"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
)

// ProfileStore looks up role-carrying profiles. Both methods return
// domainauth.ErrProfileNotFound when the user has no record.
type ProfileStore interface {
	FindAdminProfile(ctx context.Context, userID string) (domainauth.AdminProfile, error)
	FindTenantProfile(ctx context.Context, userID string) (domainauth.TenantProfile, error)
}

// ProfileAdmin provisions and retires profiles.
type ProfileAdmin interface {
	CreateAdminProfile(ctx context.Context, p domainauth.AdminProfile) (domainauth.AdminProfile, error)
	CreateTenantProfile(ctx context.Context, p domainauth.TenantProfile) (domainauth.TenantProfile, error)
	DeactivateAdminProfile(ctx context.Context, userID string) error
}

// AuthEventBus fans out auth-state changes to subscribers across processes.
type AuthEventBus interface {
	Publish(ctx context.Context, ev domainauth.Event) error
	// Subscribe registers for events about userID. The subscription stays open
	// until Close is called or ctx is cancelled.
	Subscribe(ctx context.Context, userID string) (Subscription, error)
}

// AuthEventFeed delivers the auth events of every user to one subscriber.
// Server-wide caches use it to drop state that an event makes stale.
type AuthEventFeed interface {
	SubscribeAll(ctx context.Context) (Subscription, error)
}

// Subscription is an open registration on an AuthEventBus.
type Subscription interface {
	Events() <-chan domainauth.Event
	// Close releases the subscription. Calling it more than once is a no-op.
	Close() error
}
