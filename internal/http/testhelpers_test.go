package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/target/rentdesk/internal/adapters/memory"
	"github.com/target/rentdesk/internal/adapters/tokens"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/observability/metrics"
	mocks "github.com/target/rentdesk/internal/mocks/auth"
	"github.com/target/rentdesk/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// RequireTemplateRenderer creates a template renderer for tests, skipping if templates are not available.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); err != nil {
		t.Skipf("templates not available: %v", err)
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: os.DirFS(TemplatePathFromTest)})
	require.NoError(t, err)
	return tr
}

type portalFixture struct {
	svc      *service.AuthService
	sessions *mocks.MemorySessionStore
	accounts *mocks.MemoryAccountStore
	profiles *mocks.MemoryProfileStore
	notifier *mocks.RecordingNotifier
	provider *mocks.MockAuthProvider
	bus      *memory.EventBus
	states   *service.AuthStateFactory
	metrics  *metrics.Metrics
	handler  http.Handler
}

// newPortalFixture wires the real auth service, role resolver, and state
// factory over in-memory stores. CSRF is off unless a test turns it on.
func newPortalFixture(t *testing.T, opts ...func(*RouterServices)) *portalFixture {
	t.Helper()
	f := &portalFixture{
		sessions: mocks.NewMemorySessionStore(),
		accounts: mocks.NewMemoryAccountStore(),
		profiles: mocks.NewMemoryProfileStore(),
		notifier: &mocks.RecordingNotifier{},
		provider: mocks.NewMockAuthProvider(),
		bus:      memory.NewEventBus(),
		metrics:  metrics.New(prometheus.NewRegistry()),
	}

	issuer, err := tokens.NewJWTIssuer(tokens.Options{SigningKey: "test-signing-key-0123456789abcdef"})
	require.NoError(t, err)

	f.svc, err = service.NewAuthService(service.AuthServiceOptions{
		Stores: service.AuthStores{Sessions: f.sessions, Accounts: f.accounts, Events: f.bus},
		Flows:  service.AuthFlows{Provider: f.provider, Tokens: issuer, Notifier: f.notifier},
		Config: service.AuthServiceConfig{
			BcryptCost: bcrypt.MinCost,
			BaseURL:    "https://portal.example.com",
			Metrics:    f.metrics,
		},
	})
	require.NoError(t, err)

	resolver := service.NewRoleResolver(service.RoleResolverOptions{Store: f.profiles, Metrics: f.metrics})
	f.states = service.NewAuthStateFactory(service.AuthStateTrackerOptions{
		Sessions: f.svc,
		Resolver: resolver,
		Config:   service.AuthStateConfig{Events: f.bus, Metrics: f.metrics},
	})

	services := RouterServices{
		Auth:     f.svc,
		States:   f.states,
		Renderer: RequireTemplateRenderer(t),
		Metrics:  f.metrics,
	}
	for _, opt := range opts {
		opt(&services)
	}
	f.handler = NewRouter(services)
	return f
}

func (f *portalFixture) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// seedSession stores a session directly, bypassing sign-in.
func (f *portalFixture) seedSession(t *testing.T, id, userID string, confirmed bool) {
	t.Helper()
	require.NoError(t, f.sessions.Save(context.Background(), domainauth.Session{
		ID:             id,
		UserID:         userID,
		FirstName:      "Pat",
		LastName:       "Renter",
		Email:          userID + "@example.com",
		EmailConfirmed: confirmed,
		Provider:       domainauth.ProviderOIDC,
		ExpiresAt:      time.Now().Add(time.Hour),
	}))
}

func (f *portalFixture) seedAdmin(t *testing.T, sessionID, userID string, role domainauth.Role) {
	t.Helper()
	f.seedSession(t, sessionID, userID, true)
	_, err := f.profiles.CreateAdminProfile(context.Background(), domainauth.AdminProfile{
		UserID:    userID,
		Role:      role,
		FullName:  "Alex Admin",
		CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func (f *portalFixture) seedTenant(t *testing.T, sessionID, userID string, confirmed bool) {
	t.Helper()
	f.seedSession(t, sessionID, userID, confirmed)
	f.seedTenantProfile(t, userID)
}

func (f *portalFixture) seedTenantProfile(t *testing.T, userID string) {
	t.Helper()
	_, err := f.profiles.CreateTenantProfile(context.Background(), domainauth.TenantProfile{
		UserID:       userID,
		FullName:     "Tess Tenant",
		PropertyID:   "prop-1",
		PropertyName: "Maple Court",
		UnitID:       "unit-4b",
		UnitLabel:    "4B",
	})
	require.NoError(t, err)
}

// createAccount signs up a password account and optionally confirms its email.
func (f *portalFixture) createAccount(t *testing.T, email, password string, confirmed bool) domainauth.Account {
	t.Helper()
	acct, err := f.svc.SignUp(context.Background(), service.SignUpInput{Email: email, Password: password, FirstName: "Pat"})
	require.NoError(t, err)
	if confirmed {
		require.NoError(t, f.accounts.ConfirmEmail(context.Background(), acct.ID))
	}
	return acct
}

func (f *portalFixture) lastToken(t *testing.T, kind string) string {
	t.Helper()
	sent := f.notifier.Sent()
	for i := len(sent) - 1; i >= 0; i-- {
		if sent[i].Kind != kind {
			continue
		}
		u, err := url.Parse(sent[i].Link)
		require.NoError(t, err)
		return u.Query().Get("token")
	}
	t.Fatalf("no %s message sent", kind)
	return ""
}

func browserRequest(method, target string, body url.Values) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Accept", "application/json")
	return req
}

func withSession(req *http.Request, id string) *http.Request {
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: id})
	return req
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
