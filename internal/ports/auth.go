// Package ports defines interfaces (hexagonal ports) for auth, profile, and guard behavior.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.
package ports

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteForUser removes every session belonging to userID and returns how many were removed.
	DeleteForUser(ctx context.Context, userID string) (int, error)
}

// AccountStore persists password credentials.
type AccountStore interface {
	Create(ctx context.Context, acct domainauth.Account) (domainauth.Account, error)
	GetByEmail(ctx context.Context, email string) (domainauth.Account, error)
	GetByID(ctx context.Context, id string) (domainauth.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error
	ConfirmEmail(ctx context.Context, id string) error
}

// TokenPurpose scopes a one-time token to a single flow.
type TokenPurpose string

const (
	TokenPurposeVerifyEmail   TokenPurpose = "verify_email"
	TokenPurposePasswordReset TokenPurpose = "password_reset"
)

// TokenClaims is the verified content of a one-time token.
type TokenClaims struct {
	UserID  string
	Purpose TokenPurpose
	// PasswordVersion pins reset tokens to the password in force at issue time.
	PasswordVersion int64
	ExpiresAt       time.Time
}

// Token verification failures reported by TokenIssuer implementations.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenIssuer signs and verifies one-time tokens used in emailed links.
type TokenIssuer interface {
	Issue(claims TokenClaims) (string, error)
	Verify(token string, purpose TokenPurpose) (TokenClaims, error)
}

// Notifier delivers auth-related messages to users.
type Notifier interface {
	SendVerification(ctx context.Context, acct domainauth.Account, link string) error
	SendPasswordReset(ctx context.Context, acct domainauth.Account, link string) error
}
