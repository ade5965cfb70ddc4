package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
)

func TestEventBus_DeliversToUserOnly(t *testing.T) {
	bus := NewEventBus()
	ctx := context.Background()

	a, err := bus.Subscribe(ctx, "a")
	require.NoError(t, err)
	b, err := bus.Subscribe(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, domainauth.Event{Kind: domainauth.EventUserUpdated, UserID: "a"}))

	select {
	case ev := <-a.Events():
		assert.Equal(t, domainauth.EventUserUpdated, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
	assert.Empty(t, b.Events())
}

func TestEventBus_CloseReleasesOnce(t *testing.T) {
	bus := NewEventBus()
	sub, err := bus.Subscribe(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, 1, bus.Subscribers("u"))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 0, bus.Subscribers("u"))

	_, ok := <-sub.Events()
	assert.False(t, ok)

	require.NoError(t, bus.Publish(context.Background(), domainauth.Event{Kind: domainauth.EventSignedOut, UserID: "u"}))
}

func TestEventBus_ContextCancelCloses(t *testing.T) {
	bus := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx, "u")
	require.NoError(t, err)

	cancel()
	assert.Eventually(t, func() bool { return bus.Subscribers("u") == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-sub.Events()
	assert.False(t, ok)
}

func TestEventBus_SlowSubscriberDrops(t *testing.T) {
	bus := NewEventBus()
	sub, err := bus.Subscribe(context.Background(), "u")
	require.NoError(t, err)
	defer sub.Close()

	for range defaultBuffer + 5 {
		require.NoError(t, bus.Publish(context.Background(), domainauth.Event{Kind: domainauth.EventTokenRefreshed, UserID: "u"}))
	}
	assert.Len(t, sub.Events(), defaultBuffer)
}

func TestEventBus_RequiresUser(t *testing.T) {
	bus := NewEventBus()
	assert.Error(t, bus.Publish(context.Background(), domainauth.Event{}))
	_, err := bus.Subscribe(context.Background(), "")
	assert.Error(t, err)
}

func TestEventBus_SubscribeAllReceivesEveryUser(t *testing.T) {
	bus := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	all, err := bus.SubscribeAll(ctx)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, domainauth.Event{Kind: domainauth.EventUserUpdated, UserID: "a"}))
	require.NoError(t, bus.Publish(ctx, domainauth.Event{Kind: domainauth.EventSignedOut, UserID: "b"}))

	first := <-all.Events()
	second := <-all.Events()
	assert.Equal(t, "a", first.UserID)
	assert.Equal(t, "b", second.UserID)

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-all.Events()
		return !ok
	}, time.Second, 5*time.Millisecond)
}
