package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/domain/guard"
)

// readStateEvents decodes the data lines of an auth_state event stream.
func readStateEvents(body io.Reader) <-chan guard.Snapshot {
	ch := make(chan guard.Snapshot, 64)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(body)
		for sc.Scan() {
			data, ok := strings.CutPrefix(sc.Text(), "data: ")
			if !ok {
				continue
			}
			var snap guard.Snapshot
			if err := json.Unmarshal([]byte(data), &snap); err == nil {
				ch <- snap
			}
		}
	}()
	return ch
}

func waitForState(t *testing.T, events <-chan guard.Snapshot, want guard.State) guard.Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-events:
			require.True(t, ok, "stream ended before state %s", want)
			if snap.State == want {
				return snap
			}
		case <-timeout:
			t.Fatalf("no %s snapshot received", want)
			return guard.Snapshot{}
		}
	}
}

func openStateStream(t *testing.T, srv *httptest.Server, sessionID string) (*http.Response, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/auth/state/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp, cancel
}

func TestStateStream_FollowsSignOut(t *testing.T) {
	f := newPortalFixture(t)
	f.seedTenant(t, "s-tenant", "u-tenant", true)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	resp, cancel := openStateStream(t, srv, "s-tenant")
	defer cancel()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	events := readStateEvents(resp.Body)
	snap := waitForState(t, events, guard.StateAuthenticatedWithRole)
	assert.Equal(t, domainauth.RoleTenant, snap.Role)
	require.NotNil(t, snap.Identity)
	assert.Equal(t, "u-tenant", snap.Identity.UserID)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.ActiveStateStreams), 0)
	assert.Equal(t, 1, f.bus.Subscribers("u-tenant"))

	require.NoError(t, f.svc.SignOut(context.Background(), "s-tenant"))

	after := waitForState(t, events, guard.StateUnauthenticated)
	assert.False(t, after.IsAuthenticated)
	assert.Greater(t, after.Seq, snap.Seq)

	cancel()
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.ActiveStateStreams) == 0 && f.bus.Subscribers("u-tenant") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStateStream_FollowsProfileChanges(t *testing.T) {
	f := newPortalFixture(t)
	f.seedSession(t, "s-new", "u-new", true)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	resp, cancel := openStateStream(t, srv, "s-new")
	defer cancel()
	events := readStateEvents(resp.Body)
	waitForState(t, events, guard.StateAuthenticatedNoProfile)

	f.seedTenantProfile(t, "u-new")
	require.NoError(t, f.bus.Publish(context.Background(), domainauth.Event{
		Kind:   domainauth.EventUserUpdated,
		UserID: "u-new",
		At:     time.Now(),
	}))

	snap := waitForState(t, events, guard.StateAuthenticatedWithRole)
	assert.Equal(t, domainauth.RoleTenant, snap.Role)
}

func TestStateStream_Anonymous(t *testing.T) {
	f := newPortalFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	resp, cancel := openStateStream(t, srv, "")
	defer cancel()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	snap := waitForState(t, readStateEvents(resp.Body), guard.StateUnauthenticated)
	assert.Nil(t, snap.Identity)
	assert.False(t, snap.IsLoading)
}

func TestWriteStateEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, writeStateEvent(rec, guard.Snapshot{State: guard.StateLoading, IsLoading: true, Seq: 7}))

	out := rec.Body.String()
	assert.True(t, strings.HasPrefix(out, "id: 7\nevent: auth_state\ndata: {"))
	assert.True(t, strings.HasSuffix(out, "}\n\n"))
	assert.Contains(t, out, `"state":"loading"`)
}
