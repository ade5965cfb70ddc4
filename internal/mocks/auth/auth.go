// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider = (*MockAuthProvider)(nil)
	_ ports.SessionStore = (*MemorySessionStore)(nil)
	_ ports.AccountStore = (*MemoryAccountStore)(nil)
	_ ports.ProfileStore = (*MemoryProfileStore)(nil)
	_ ports.ProfileAdmin = (*MemoryProfileStore)(nil)
	_ ports.Notifier     = (*RecordingNotifier)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: defaultIdentity(),
	}
}

func defaultIdentity() domainauth.Identity {
	return domainauth.Identity{
		UserID:         "mock-user-1",
		FirstName:      "Mock",
		LastName:       "User",
		Email:          "mock.user@example.com",
		EmailConfirmed: true,
		ExpiresAt:      time.Now().Add(time.Hour),
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	return authURL, fmt.Sprintf("%s-%d", statePrefix, m.callCount), fmt.Sprintf("%s-%d", noncePrefix, m.callCount), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	user := m.DefaultUser
	if user.UserID == "" {
		user = defaultIdentity()
	}
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemorySessionStore) DeleteForUser(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ErrNotFound is returned by MemorySessionStore for unknown sessions.
var ErrNotFound = domainauth.ErrSessionNotFound

// MemoryAccountStore keeps accounts in a map keyed by ID.
type MemoryAccountStore struct {
	mu       sync.Mutex
	accounts map[string]domainauth.Account
	nextID   int

	// CreateErr, when set, is returned from Create.
	CreateErr error
}

// NewMemoryAccountStore creates an empty account store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[string]domainauth.Account)}
}

func (m *MemoryAccountStore) Create(_ context.Context, acct domainauth.Account) (domainauth.Account, error) {
	if m.CreateErr != nil {
		return domainauth.Account{}, m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, acct.Email) {
			return domainauth.Account{}, domainauth.ErrEmailExists
		}
	}
	if acct.ID == "" {
		m.nextID++
		acct.ID = fmt.Sprintf("acct-%d", m.nextID)
	}
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now()
	}
	m.accounts[acct.ID] = acct
	return acct, nil
}

func (m *MemoryAccountStore) GetByEmail(_ context.Context, email string) (domainauth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return domainauth.Account{}, domainauth.ErrAccountNotFound
}

func (m *MemoryAccountStore) GetByID(_ context.Context, id string) (domainauth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domainauth.Account{}, domainauth.ErrAccountNotFound
	}
	return a, nil
}

func (m *MemoryAccountStore) UpdatePassword(_ context.Context, id, hash string, changedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domainauth.ErrAccountNotFound
	}
	a.PasswordHash = hash
	a.PasswordChangedAt = changedAt
	m.accounts[id] = a
	return nil
}

func (m *MemoryAccountStore) ConfirmEmail(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domainauth.ErrAccountNotFound
	}
	a.EmailConfirmed = true
	m.accounts[id] = a
	return nil
}

// ErrDuplicate is returned by MemoryProfileStore when the user already holds a
// profile in either store.
var ErrDuplicate = errors.New("duplicate")

// MemoryProfileStore keeps admin and tenant profiles in maps. It serves both
// the lookup and the provisioning ports.
type MemoryProfileStore struct {
	mu      sync.Mutex
	admins  map[string]domainauth.AdminProfile
	tenants map[string]domainauth.TenantProfile

	// AdminErr and TenantErr, when set, are returned from the lookups.
	AdminErr  error
	TenantErr error

	AdminCalls  int
	TenantCalls int
}

// NewMemoryProfileStore creates an empty profile store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{
		admins:  make(map[string]domainauth.AdminProfile),
		tenants: make(map[string]domainauth.TenantProfile),
	}
}

func (m *MemoryProfileStore) FindAdminProfile(_ context.Context, userID string) (domainauth.AdminProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AdminCalls++
	if m.AdminErr != nil {
		return domainauth.AdminProfile{}, m.AdminErr
	}
	p, ok := m.admins[userID]
	if !ok || !p.IsActive {
		return domainauth.AdminProfile{}, domainauth.ErrProfileNotFound
	}
	return p, nil
}

func (m *MemoryProfileStore) FindTenantProfile(_ context.Context, userID string) (domainauth.TenantProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TenantCalls++
	if m.TenantErr != nil {
		return domainauth.TenantProfile{}, m.TenantErr
	}
	p, ok := m.tenants[userID]
	if !ok {
		return domainauth.TenantProfile{}, domainauth.ErrProfileNotFound
	}
	return p, nil
}

func (m *MemoryProfileStore) CreateAdminProfile(_ context.Context, p domainauth.AdminProfile) (domainauth.AdminProfile, error) {
	if err := p.Validate(); err != nil {
		return domainauth.AdminProfile{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ownedLocked(p.UserID) {
		return domainauth.AdminProfile{}, ErrDuplicate
	}
	p.IsActive = true
	m.admins[p.UserID] = p
	return p, nil
}

func (m *MemoryProfileStore) CreateTenantProfile(_ context.Context, p domainauth.TenantProfile) (domainauth.TenantProfile, error) {
	if err := p.Validate(); err != nil {
		return domainauth.TenantProfile{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ownedLocked(p.UserID) {
		return domainauth.TenantProfile{}, ErrDuplicate
	}
	m.tenants[p.UserID] = p
	return p, nil
}

// ownedLocked reports whether userID already holds a profile in either map,
// including an inactive admin profile. m.mu must be held.
func (m *MemoryProfileStore) ownedLocked(userID string) bool {
	_, admin := m.admins[userID]
	_, tenant := m.tenants[userID]
	return admin || tenant
}

func (m *MemoryProfileStore) DeactivateAdminProfile(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.admins[userID]
	if !ok {
		return domainauth.ErrProfileNotFound
	}
	p.IsActive = false
	m.admins[userID] = p
	return nil
}

// SentMessage records one RecordingNotifier delivery.
type SentMessage struct {
	Kind  string
	Email string
	Link  string
}

// RecordingNotifier captures outgoing messages instead of sending them.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []SentMessage
}

func (n *RecordingNotifier) SendVerification(_ context.Context, acct domainauth.Account, link string) error {
	n.record("verify", acct.Email, link)
	return nil
}

func (n *RecordingNotifier) SendPasswordReset(_ context.Context, acct domainauth.Account, link string) error {
	n.record("reset", acct.Email, link)
	return nil
}

func (n *RecordingNotifier) record(kind, email, link string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, SentMessage{Kind: kind, Email: email, Link: link})
}

// Sent returns a copy of the recorded messages.
func (n *RecordingNotifier) Sent() []SentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]SentMessage, len(n.sent))
	copy(out, n.sent)
	return out
}
