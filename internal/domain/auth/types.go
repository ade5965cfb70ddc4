// Package auth contains domain-level types for authentication, sessions, and profiles.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"errors"
	"time"
)

// Store sentinels shared by adapters.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailExists     = errors.New("account email already exists")
)

// Provider identifies how a session was established.
type Provider string

const (
	ProviderPassword Provider = "password"
	ProviderOIDC     Provider = "oidc"
	ProviderDev      Provider = "dev"
)

// Identity represents the authenticated principal derived from a session or returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID         string // stable user identifier (account ID or IdP subject)
	FirstName      string
	LastName       string
	Email          string
	EmailConfirmed bool
	ExpiresAt      time.Time // absolute expiry from IdP token or session TTL
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
// Role is intentionally absent: it is resolved from the profile stores on every evaluation.
type Session struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	EmailConfirmed bool      `json:"email_confirmed"`
	Provider       Provider  `json:"provider"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Identity returns the identity view of the session.
func (s Session) Identity() Identity {
	return Identity{
		UserID:         s.UserID,
		FirstName:      s.FirstName,
		LastName:       s.LastName,
		Email:          s.Email,
		EmailConfirmed: s.EmailConfirmed,
		ExpiresAt:      s.ExpiresAt,
	}
}

// Expired reports whether the session is past its expiry at the given instant.
func (s Session) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }

// Account is a password credential record owned by the account store.
type Account struct {
	ID                string    `db:"id"`
	Email             string    `db:"email"`
	FirstName         string    `db:"first_name"`
	LastName          string    `db:"last_name"`
	PasswordHash      string    `db:"password_hash"`
	EmailConfirmed    bool      `db:"email_confirmed"`
	PasswordChangedAt time.Time `db:"password_changed_at"`
	CreatedAt         time.Time `db:"created_at"`
}
