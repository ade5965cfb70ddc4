package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/rentdesk/internal/adapters/memory"
	"github.com/target/rentdesk/internal/adapters/profilecache"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
	mockauth "github.com/target/rentdesk/internal/mocks/auth"
	"github.com/target/rentdesk/internal/ports"
)

type recordingForgetter struct {
	mu    sync.Mutex
	users []string
}

func (f *recordingForgetter) Forget(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
}

func (f *recordingForgetter) forgotten() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.users)
}

// failingFeed fails the first SubscribeAll calls before delegating.
type failingFeed struct {
	ports.AuthEventFeed
	failures atomic.Int32
	calls    atomic.Int32
}

func (f *failingFeed) SubscribeAll(ctx context.Context) (ports.Subscription, error) {
	f.calls.Add(1)
	if f.failures.Add(-1) >= 0 {
		return nil, errors.New("feed down")
	}
	return f.AuthEventFeed.SubscribeAll(ctx)
}

func runSync(t *testing.T, s *ProfileSync) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func TestProfileSync_UserUpdatedDropsCachedProfile(t *testing.T) {
	ctx := context.Background()
	inner := mockauth.NewMemoryProfileStore()
	_, err := inner.CreateAdminProfile(ctx, domainauth.AdminProfile{UserID: "admin-1", Role: domainauth.RoleManager, IsActive: true})
	require.NoError(t, err)

	resolver := NewRoleResolver(RoleResolverOptions{Store: profilecache.New(inner, profilecache.Options{TTL: time.Hour})})
	bus := memory.NewEventBus()
	runSync(t, NewProfileSync(ProfileSyncOptions{Feed: bus, Resolver: resolver}))

	require.Equal(t, domainauth.RoleManager, resolver.Resolve(ctx, "admin-1").Role)
	require.NoError(t, inner.DeactivateAdminProfile(ctx, "admin-1"))
	assert.Equal(t, domainauth.RoleManager, resolver.Resolve(ctx, "admin-1").Role, "cached until an event arrives")

	assert.Eventually(t, func() bool {
		_ = bus.Publish(ctx, domainauth.Event{Kind: domainauth.EventUserUpdated, UserID: "admin-1"})
		return resolver.Resolve(ctx, "admin-1").Role.IsNone()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProfileSync_SignOutForgetsRefreshIgnored(t *testing.T) {
	ctx := context.Background()
	bus := memory.NewEventBus()
	forgetter := &recordingForgetter{}
	runSync(t, NewProfileSync(ProfileSyncOptions{Feed: bus, Resolver: forgetter}))

	assert.Eventually(t, func() bool {
		_ = bus.Publish(ctx, domainauth.Event{Kind: domainauth.EventTokenRefreshed, UserID: "u3"})
		_ = bus.Publish(ctx, domainauth.Event{Kind: domainauth.EventSignedIn, UserID: "u3"})
		_ = bus.Publish(ctx, domainauth.Event{Kind: domainauth.EventSignedOut, UserID: "u2"})
		return slices.Contains(forgetter.forgotten(), "u2")
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotContains(t, forgetter.forgotten(), "u3")
}

func TestProfileSync_ResubscribesAfterFailure(t *testing.T) {
	ctx := context.Background()
	bus := memory.NewEventBus()
	feed := &failingFeed{AuthEventFeed: bus}
	feed.failures.Store(2)
	forgetter := &recordingForgetter{}
	runSync(t, NewProfileSync(ProfileSyncOptions{Feed: feed, Resolver: forgetter, ResubscribeDelay: 5 * time.Millisecond}))

	assert.Eventually(t, func() bool {
		_ = bus.Publish(ctx, domainauth.Event{Kind: domainauth.EventUserUpdated, UserID: "u1"})
		return slices.Contains(forgetter.forgotten(), "u1")
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, feed.calls.Load(), int32(3))
}

func TestProfileSync_RunStopsOnCancel(t *testing.T) {
	bus := memory.NewEventBus()
	cancel, done := runSync(t, NewProfileSync(ProfileSyncOptions{Feed: bus, Resolver: &recordingForgetter{}}))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewProfileSync_PanicsWithoutDeps(t *testing.T) {
	assert.Panics(t, func() { NewProfileSync(ProfileSyncOptions{Resolver: &recordingForgetter{}}) })
	assert.Panics(t, func() { NewProfileSync(ProfileSyncOptions{Feed: memory.NewEventBus()}) })
}
