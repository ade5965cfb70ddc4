package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/rentdesk/config"
	"github.com/target/rentdesk/internal/adapters/memory"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/domain/guard"
	mocks "github.com/target/rentdesk/internal/mocks/auth"
)

const testTokenSecret = "bootstrap-test-secret-0123456789abcdef"

func loadTestConfig(t *testing.T) config.AppConfig {
	t.Helper()
	t.Setenv("AUTH_TOKEN_SECRET", testTokenSecret)
	t.Setenv("AUTH_BCRYPT_COST", "4")
	t.Setenv("APP_BASE_URL", "https://portal.example.com/")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	return cfg
}

type testStack struct {
	cfg      config.AppConfig
	sessions *mocks.MemorySessionStore
	profiles *mocks.MemoryProfileStore
	events   *memory.EventBus
	registry *prometheus.Registry
	services *ServiceContainer
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	s := &testStack{
		cfg:      loadTestConfig(t),
		sessions: mocks.NewMemorySessionStore(),
		profiles: mocks.NewMemoryProfileStore(),
		events:   memory.NewEventBus(),
		registry: prometheus.NewRegistry(),
	}
	var err error
	s.services, err = NewServices(ServiceDeps{
		Config: &s.cfg,
		Stores: Stores{
			Sessions: s.sessions,
			Accounts: mocks.NewMemoryAccountStore(),
			Profiles: s.profiles,
			Events:   s.events,
			Notifier: &mocks.RecordingNotifier{},
		},
		Registry: s.registry,
	})
	require.NoError(t, err)
	return s
}

func (s *testStack) seedManager(t *testing.T, sessionID, userID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.sessions.Save(ctx, domainauth.Session{
		ID:             sessionID,
		UserID:         userID,
		Email:          userID + "@example.com",
		EmailConfirmed: true,
		Provider:       domainauth.ProviderPassword,
		ExpiresAt:      time.Now().Add(time.Hour),
	}))
	_, err := s.profiles.CreateAdminProfile(ctx, domainauth.AdminProfile{
		UserID:   userID,
		Role:     domainauth.RoleManager,
		IsActive: true,
		FullName: "Morgan Manager",
	})
	require.NoError(t, err)
}

func TestLoadConfig(t *testing.T) {
	cfg := loadTestConfig(t)
	assert.Equal(t, "https://portal.example.com", cfg.HTTP.BaseURL)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
	assert.Equal(t, config.AuthModePassword, cfg.Auth.Mode)
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	t.Setenv("AUTH_TOKEN_SECRET", "too-short")
	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_TOKEN_SECRET")
}

func TestConfigureLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureLogger(config.ObservabilityLoggingConfig{Level: "warn", Format: "text"}, &buf)
	t.Cleanup(func() { InitLogger() })

	logger.Info("hidden")
	logger.Warn("shown", "user_id", "u-1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "service=rentdesk")
}

func TestNewServices_ResolvesRolesThroughCache(t *testing.T) {
	s := newTestStack(t)
	s.seedManager(t, "s-1", "u-1")
	ctx := context.Background()

	for range 2 {
		tracker := s.services.States.ForSession("s-1")
		snap := tracker.Refresh(ctx)
		require.NoError(t, tracker.Close())
		assert.Equal(t, guard.StateAuthenticatedWithRole, snap.State)
		assert.Equal(t, domainauth.RoleManager, snap.Role)
	}

	assert.Equal(t, 1, s.profiles.AdminCalls)
	assert.InDelta(t, 1, testutil.ToFloat64(s.services.Metrics.ProfileCache.WithLabelValues("admin", "hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(s.services.Metrics.ProfileCache.WithLabelValues("admin", "miss")), 0)
}

func TestNewServices_RequiresStores(t *testing.T) {
	cfg := loadTestConfig(t)
	_, err := NewServices(ServiceDeps{Config: &cfg})
	assert.Error(t, err)

	_, err = NewServices(ServiceDeps{Stores: Stores{Sessions: mocks.NewMemorySessionStore()}})
	assert.Error(t, err)
}

func TestNewServices_RejectsShortTokenSecret(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Auth.TokenSecret = "short"
	_, err := NewServices(ServiceDeps{
		Config: &cfg,
		Stores: Stores{Sessions: mocks.NewMemorySessionStore(), Profiles: mocks.NewMemoryProfileStore()},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token issuer")
}

func TestBuildHTTPHandler(t *testing.T) {
	s := newTestStack(t)
	s.seedManager(t, "s-1", "u-1")
	handler, err := BuildHTTPHandler(HTTPHandlerConfig{Config: &s.cfg, Services: s.services, Gatherer: s.registry})
	require.NoError(t, err)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("health", func(t *testing.T) {
		rec := serve(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("anonymous dashboard redirects to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("Accept", "text/html")
		rec := serve(req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/auth/login"))
	})

	t.Run("manager reaches dashboard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("Accept", "text/html")
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "s-1"})
		rec := serve(req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("csrf cookie issued", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		req.Header.Set("Accept", "text/html")
		rec := serve(req)
		require.Equal(t, http.StatusOK, rec.Code)
		var found bool
		for _, c := range rec.Result().Cookies() {
			found = found || (c.Name == "csrf_token" && c.Value != "")
		}
		assert.True(t, found, "csrf cookie not set")
	})

	t.Run("metrics", func(t *testing.T) {
		rec := serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "rentdesk_guard_decisions_total")
	})
}

func TestBuildHTTPHandler_MetricsDisabled(t *testing.T) {
	s := newTestStack(t)
	s.cfg.Observability.Metrics.Enabled = false
	handler, err := BuildHTTPHandler(HTTPHandlerConfig{Config: &s.cfg, Services: s.services, Gatherer: s.registry})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept", "application/json")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err = BuildHTTPHandler(HTTPHandlerConfig{})
	assert.Error(t, err)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewHTTPServer(ln.Addr().String(), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ServeConfig{Server: srv, Listener: ln, ShutdownTimeout: time.Second}) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServe_BackgroundSyncDropsDeactivatedAdmin(t *testing.T) {
	s := newTestStack(t)
	s.seedManager(t, "s-1", "u-1")
	require.NotNil(t, s.services.Sync)

	handler, err := BuildHTTPHandler(HTTPHandlerConfig{Config: &s.cfg, Services: s.services})
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ServeConfig{
			Server:          NewHTTPServer(ln.Addr().String(), handler),
			Listener:        ln,
			ShutdownTimeout: time.Second,
			Background:      s.services.Background(),
		})
	}()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	dashboard := func() int {
		req, err := http.NewRequest(http.MethodGet, "http://"+ln.Addr().String()+"/dashboard", nil)
		if err != nil {
			return 0
		}
		req.Header.Set("Accept", "text/html")
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "s-1"})
		resp, err := client.Do(req)
		if err != nil {
			return 0
		}
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	require.Eventually(t, func() bool { return dashboard() == http.StatusOK }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.profiles.DeactivateAdminProfile(context.Background(), "u-1"))
	require.Equal(t, http.StatusOK, dashboard(), "profile is served from cache before any event")

	assert.Eventually(t, func() bool {
		_ = s.events.Publish(context.Background(), domainauth.Event{Kind: domainauth.EventUserUpdated, UserID: "u-1"})
		return dashboard() != http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServe_BackgroundErrorStopsServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	failed := errors.New("background failed")
	err = Serve(context.Background(), ServeConfig{
		Server:          NewHTTPServer(ln.Addr().String(), http.NotFoundHandler()),
		Listener:        ln,
		ShutdownTimeout: time.Second,
		Background:      []func(context.Context) error{func(context.Context) error { return failed }},
	})
	assert.ErrorIs(t, err, failed)
}

func TestServe_RequiresServer(t *testing.T) {
	assert.Error(t, Serve(context.Background(), ServeConfig{}))
}

func TestNewHTTPServer_DefaultAddr(t *testing.T) {
	srv := NewHTTPServer("", http.NotFoundHandler())
	assert.Equal(t, ":8080", srv.Addr)
	assert.Zero(t, srv.WriteTimeout)
}
