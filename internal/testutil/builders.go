package testutil

import (
	"time"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
)

// SessionBuilder provides a fluent interface for building sessions in tests.
type SessionBuilder struct {
	sess domainauth.Session
}

// NewSession creates a SessionBuilder for a confirmed password session expiring in an hour.
func NewSession(userID string) *SessionBuilder {
	return &SessionBuilder{sess: domainauth.Session{
		ID:             "sess-" + userID,
		UserID:         userID,
		FirstName:      "Test",
		LastName:       "User",
		Email:          userID + "@example.com",
		EmailConfirmed: true,
		Provider:       domainauth.ProviderPassword,
		ExpiresAt:      time.Now().Add(time.Hour),
	}}
}

// WithID overrides the session ID.
func (b *SessionBuilder) WithID(id string) *SessionBuilder {
	b.sess.ID = id
	return b
}

// Unconfirmed marks the session's email as unconfirmed.
func (b *SessionBuilder) Unconfirmed() *SessionBuilder {
	b.sess.EmailConfirmed = false
	return b
}

// ExpiresIn sets the expiry relative to now.
func (b *SessionBuilder) ExpiresIn(d time.Duration) *SessionBuilder {
	b.sess.ExpiresAt = time.Now().Add(d)
	return b
}

// WithProvider sets the provider.
func (b *SessionBuilder) WithProvider(p domainauth.Provider) *SessionBuilder {
	b.sess.Provider = p
	return b
}

// Build returns the session value.
func (b *SessionBuilder) Build() domainauth.Session {
	return b.sess
}

// Ptr returns a pointer to a copy of the session.
func (b *SessionBuilder) Ptr() *domainauth.Session {
	s := b.sess
	return &s
}

// AdminProfile returns an active admin-family profile for userID.
func AdminProfile(userID string, role domainauth.Role) domainauth.AdminProfile {
	return domainauth.AdminProfile{UserID: userID, Role: role, IsActive: true, FullName: "Admin " + userID, CreatedAt: TestTime()}
}

// TenantProfile returns a tenant profile for userID bound to a fixed property and unit.
func TenantProfile(userID string) domainauth.TenantProfile {
	return domainauth.TenantProfile{
		UserID:       userID,
		FullName:     "Tenant " + userID,
		PropertyID:   "prop-1",
		PropertyName: "Maple Court",
		UnitID:       "unit-1",
		UnitLabel:    "2B",
		CreatedAt:    TestTime(),
	}
}
