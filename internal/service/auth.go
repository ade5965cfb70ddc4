package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/observability/metrics"
	"github.com/target/rentdesk/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultSessionTTL     = 12 * time.Hour
	defaultVerifyTokenTTL = 24 * time.Hour
	defaultResetTokenTTL  = time.Hour
	minPasswordLen        = 8
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordLen = 72
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Stores AuthStores
	Flows  AuthFlows
	Config AuthServiceConfig
}

// AuthStores are the persistence ports used by AuthService.
type AuthStores struct {
	Sessions ports.SessionStore // Required
	Accounts ports.AccountStore // Optional: password flows are disabled without it
	Events   ports.AuthEventBus // Optional: no auth events are published without it
}

// AuthFlows are the credential collaborators used by AuthService.
type AuthFlows struct {
	Provider ports.AuthProvider // Optional: external login is disabled without it
	Tokens   ports.TokenIssuer  // Required when Accounts is set
	Notifier ports.Notifier     // Optional: links are dropped without it
}

// AuthServiceConfig carries tunables. Zero values fall back to defaults.
type AuthServiceConfig struct {
	SessionTTL     time.Duration
	VerifyTokenTTL time.Duration
	ResetTokenTTL  time.Duration
	BcryptCost     int
	// BaseURL prefixes emailed links, e.g. "https://portal.example.com".
	BaseURL         string
	VerifyEmailPath string
	ResetPath       string
	// ExternalProvider tags sessions created by CompleteLogin.
	ExternalProvider domainauth.Provider
	Logger           *slog.Logger
	Metrics          *metrics.Metrics
	Now              func() time.Time
}

// AuthService is the auth collaborator: it owns sessions and password accounts,
// and publishes an auth event for every state change it makes.
type AuthService struct {
	sessions ports.SessionStore
	accounts ports.AccountStore
	events   ports.AuthEventBus
	provider ports.AuthProvider
	tokens   ports.TokenIssuer
	notifier ports.Notifier
	cfg      AuthServiceConfig
	logger   *slog.Logger
	// dummyHash is compared against on unknown emails so both paths cost one bcrypt run.
	dummyHash []byte
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Stores.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if opts.Stores.Accounts != nil && opts.Flows.Tokens == nil {
		return nil, errors.New("token issuer is required for password accounts")
	}

	cfg := opts.Config.withDefaults()
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare password hashing: %w", err)
	}

	return &AuthService{
		sessions:  opts.Stores.Sessions,
		accounts:  opts.Stores.Accounts,
		events:    opts.Stores.Events,
		provider:  opts.Flows.Provider,
		tokens:    opts.Flows.Tokens,
		notifier:  opts.Flows.Notifier,
		cfg:       cfg,
		logger:    cfg.Logger.With("component", "auth_service"),
		dummyHash: dummy,
	}, nil
}

// MustNewAuthService constructs a new AuthService and panics on error.
func MustNewAuthService(opts AuthServiceOptions) *AuthService {
	svc, err := NewAuthService(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return svc
}

func (c AuthServiceConfig) withDefaults() AuthServiceConfig {
	if c.SessionTTL <= 0 {
		c.SessionTTL = defaultSessionTTL
	}
	if c.VerifyTokenTTL <= 0 {
		c.VerifyTokenTTL = defaultVerifyTokenTTL
	}
	if c.ResetTokenTTL <= 0 {
		c.ResetTokenTTL = defaultResetTokenTTL
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	if c.VerifyEmailPath == "" {
		c.VerifyEmailPath = "/auth/verify-email"
	}
	if c.ResetPath == "" {
		c.ResetPath = "/auth/password/update"
	}
	if c.ExternalProvider == "" {
		c.ExternalProvider = domainauth.ProviderOIDC
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Events returns the bus auth-state changes are published on. It may be nil.
func (s *AuthService) Events() ports.AuthEventBus { return s.events }

// ExternalLoginEnabled reports whether BeginLogin and CompleteLogin are usable.
func (s *AuthService) ExternalLoginEnabled() bool { return s.provider != nil }

// PasswordLoginEnabled reports whether the password flows are usable.
func (s *AuthService) PasswordLoginEnabled() bool { return s.accounts != nil }

// GetSession retrieves a live session by ID. Expired sessions are deleted and
// reported as ErrSessionExpired. Password sessions that predate email
// confirmation are upgraded once the account is confirmed.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domainauth.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSessionFetch, err)
	}

	if session.Expired(s.cfg.Now()) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(ErrSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, ErrSessionExpired
	}

	s.syncConfirmation(ctx, &session)
	return &session, nil
}

func (s *AuthService) syncConfirmation(ctx context.Context, session *domainauth.Session) {
	if session.EmailConfirmed || session.Provider != domainauth.ProviderPassword || s.accounts == nil {
		return
	}
	acct, err := s.accounts.GetByID(ctx, session.UserID)
	if err != nil || !acct.EmailConfirmed {
		return
	}
	session.EmailConfirmed = true
	if err := s.sessions.Save(ctx, *session); err != nil {
		s.logger.WarnContext(ctx, "failed to persist confirmed session", "session_id", session.ID, "error", err)
	}
}

// SignIn verifies a password and opens a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (domainauth.Session, error) {
	if s.accounts == nil {
		return domainauth.Session{}, errors.New("password sign-in is not enabled")
	}
	email = normalizeEmail(email)

	acct, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domainauth.ErrAccountNotFound):
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.cfg.Metrics.AuthAction("sign_in", metrics.ResultDenied)
		return domainauth.Session{}, ErrSignIn
	case err != nil:
		s.cfg.Metrics.AuthAction("sign_in", metrics.ResultError)
		return domainauth.Session{}, fmt.Errorf("load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		s.cfg.Metrics.AuthAction("sign_in", metrics.ResultDenied)
		return domainauth.Session{}, ErrSignIn
	}

	session := domainauth.Session{
		ID:             generateSessionID(),
		UserID:         acct.ID,
		FirstName:      acct.FirstName,
		LastName:       acct.LastName,
		Email:          acct.Email,
		EmailConfirmed: acct.EmailConfirmed,
		Provider:       domainauth.ProviderPassword,
		ExpiresAt:      s.cfg.Now().Add(s.cfg.SessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		s.cfg.Metrics.AuthAction("sign_in", metrics.ResultError)
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}

	s.cfg.Metrics.AuthAction("sign_in", metrics.ResultSuccess)
	s.publish(ctx, domainauth.EventSignedIn, session.UserID, session.ID)
	return session, nil
}

// SignUpInput carries the fields for a new password account.
type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// SignUp creates an unconfirmed account and sends its verification link.
// It does not sign the user in.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (domainauth.Account, error) {
	if s.accounts == nil {
		return domainauth.Account{}, errors.New("password sign-up is not enabled")
	}
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return domainauth.Account{}, fmt.Errorf("%w: %w", ErrSignUp, ErrInvalidEmail)
	}
	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return domainauth.Account{}, fmt.Errorf("%w: %w", ErrSignUp, err)
	}

	acct, err := s.accounts.Create(ctx, domainauth.Account{
		Email:             email,
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		PasswordHash:      hash,
		PasswordChangedAt: s.cfg.Now(),
	})
	if err != nil {
		s.cfg.Metrics.AuthAction("sign_up", metrics.ResultError)
		if errors.Is(err, domainauth.ErrEmailExists) {
			return domainauth.Account{}, fmt.Errorf("%w: %w", ErrSignUp, ErrEmailTaken)
		}
		return domainauth.Account{}, fmt.Errorf("%w: %w", ErrSignUp, err)
	}

	s.cfg.Metrics.AuthAction("sign_up", metrics.ResultSuccess)
	if err := s.sendVerification(ctx, acct); err != nil {
		s.logger.WarnContext(ctx, "failed to send verification link", "account_id", acct.ID, "error", err)
	}
	acct.PasswordHash = ""
	return acct, nil
}

// SignOut removes a session. An empty or unknown session is not an error.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	session, getErr := s.sessions.Get(ctx, sessionID)
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if getErr == nil {
		s.publish(ctx, domainauth.EventSignedOut, session.UserID, sessionID)
	}
	return nil
}

// ResetPassword emails a reset link when the account exists. Unknown emails
// succeed silently so callers cannot discover which accounts exist.
func (s *AuthService) ResetPassword(ctx context.Context, email string) error {
	if s.accounts == nil {
		return errors.New("password reset is not enabled")
	}
	acct, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domainauth.ErrAccountNotFound) {
		s.logger.DebugContext(ctx, "password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	token, err := s.tokens.Issue(ports.TokenClaims{
		UserID:          acct.ID,
		Purpose:         ports.TokenPurposePasswordReset,
		PasswordVersion: passwordVersion(acct),
		ExpiresAt:       s.cfg.Now().Add(s.cfg.ResetTokenTTL),
	})
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	if s.notifier != nil {
		if err := s.notifier.SendPasswordReset(ctx, acct, s.link(s.cfg.ResetPath, token)); err != nil {
			return fmt.Errorf("send reset link: %w", err)
		}
	}
	s.publish(ctx, domainauth.EventPasswordRecovery, acct.ID, "")
	return nil
}

// UpdatePasswordInput authorises a password change either by a live session
// or by a reset token. Token takes precedence when both are set.
type UpdatePasswordInput struct {
	SessionID   string
	Token       string
	NewPassword string
}

// UpdatePassword sets a new password and signs out every other session of the user.
// A reset token is single-use: changing the password invalidates it.
func (s *AuthService) UpdatePassword(ctx context.Context, in UpdatePasswordInput) error {
	if s.accounts == nil {
		return errors.New("password update is not enabled")
	}
	hash, err := s.hashPassword(in.NewPassword)
	if err != nil {
		return err
	}

	var (
		acct    domainauth.Account
		current *domainauth.Session
	)
	switch {
	case in.Token != "":
		acct, err = s.accountFromResetToken(ctx, in.Token)
	case in.SessionID != "":
		current, err = s.GetSession(ctx, in.SessionID)
		if err == nil {
			acct, err = s.accounts.GetByID(ctx, current.UserID)
		}
	default:
		return errors.New("session or reset token is required")
	}
	if err != nil {
		return err
	}

	if err := s.accounts.UpdatePassword(ctx, acct.ID, hash, s.cfg.Now()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if _, err := s.sessions.DeleteForUser(ctx, acct.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke sessions after password change", "account_id", acct.ID, "error", err)
	}
	if current != nil {
		if err := s.sessions.Save(ctx, *current); err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
	}

	s.cfg.Metrics.AuthAction("update_password", metrics.ResultSuccess)
	s.publish(ctx, domainauth.EventUserUpdated, acct.ID, "")
	return nil
}

func (s *AuthService) accountFromResetToken(ctx context.Context, token string) (domainauth.Account, error) {
	claims, err := s.tokens.Verify(token, ports.TokenPurposePasswordReset)
	if err != nil {
		return domainauth.Account{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	acct, err := s.accounts.GetByID(ctx, claims.UserID)
	if errors.Is(err, domainauth.ErrAccountNotFound) {
		return domainauth.Account{}, ErrInvalidToken
	}
	if err != nil {
		return domainauth.Account{}, fmt.Errorf("load account: %w", err)
	}
	if claims.PasswordVersion != passwordVersion(acct) {
		return domainauth.Account{}, ErrInvalidToken
	}
	return acct, nil
}

// ConfirmEmail marks the token's account as confirmed.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (domainauth.Account, error) {
	if s.accounts == nil {
		return domainauth.Account{}, errors.New("email confirmation is not enabled")
	}
	claims, err := s.tokens.Verify(token, ports.TokenPurposeVerifyEmail)
	if err != nil {
		return domainauth.Account{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if err := s.accounts.ConfirmEmail(ctx, claims.UserID); err != nil {
		if errors.Is(err, domainauth.ErrAccountNotFound) {
			return domainauth.Account{}, ErrInvalidToken
		}
		return domainauth.Account{}, fmt.Errorf("confirm email: %w", err)
	}
	acct, err := s.accounts.GetByID(ctx, claims.UserID)
	if err != nil {
		return domainauth.Account{}, fmt.Errorf("load account: %w", err)
	}

	s.publish(ctx, domainauth.EventUserUpdated, acct.ID, "")
	acct.PasswordHash = ""
	return acct, nil
}

// ResendVerification sends a fresh verification link for the session's account.
// Already confirmed accounts are a no-op.
func (s *AuthService) ResendVerification(ctx context.Context, sessionID string) error {
	if s.accounts == nil {
		return errors.New("email verification is not enabled")
	}
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.EmailConfirmed {
		return nil
	}
	acct, err := s.accounts.GetByID(ctx, session.UserID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if err := s.sendVerification(ctx, acct); err != nil {
		s.cfg.Metrics.AuthAction("resend_verification", metrics.ResultError)
		return err
	}
	s.cfg.Metrics.AuthAction("resend_verification", metrics.ResultSuccess)
	return nil
}

func (s *AuthService) sendVerification(ctx context.Context, acct domainauth.Account) error {
	token, err := s.tokens.Issue(ports.TokenClaims{
		UserID:    acct.ID,
		Purpose:   ports.TokenPurposeVerifyEmail,
		ExpiresAt: s.cfg.Now().Add(s.cfg.VerifyTokenTTL),
	})
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}
	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.SendVerification(ctx, acct, s.link(s.cfg.VerifyEmailPath, token)); err != nil {
		return fmt.Errorf("send verification link: %w", err)
	}
	return nil
}

// RefreshSession extends a live session by the configured TTL.
func (s *AuthService) RefreshSession(ctx context.Context, sessionID string) (domainauth.Session, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return domainauth.Session{}, err
	}
	session.ExpiresAt = s.cfg.Now().Add(s.cfg.SessionTTL)
	if err := s.sessions.Save(ctx, *session); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}
	s.publish(ctx, domainauth.EventTokenRefreshed, session.UserID, session.ID)
	return *session, nil
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an external authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("external login is not configured")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
}

// CompleteLogin exchanges the authorization code for an identity and persists a session.
// The session carries no role; roles are resolved from the profile stores on use.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("external login is not configured")
	}
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		s.cfg.Metrics.AuthAction("external_login", metrics.ResultError)
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	expires := identity.ExpiresAt
	if maxExpiry := s.cfg.Now().Add(s.cfg.SessionTTL); expires.IsZero() || expires.After(maxExpiry) {
		expires = maxExpiry
	}
	session := domainauth.Session{
		ID:             generateSessionID(),
		UserID:         identity.UserID,
		FirstName:      identity.FirstName,
		LastName:       identity.LastName,
		Email:          identity.Email,
		EmailConfirmed: identity.EmailConfirmed,
		Provider:       s.cfg.ExternalProvider,
		ExpiresAt:      expires,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.cfg.Metrics.AuthAction("external_login", metrics.ResultSuccess)
	s.publish(ctx, domainauth.EventSignedIn, session.UserID, session.ID)
	return &CompleteLoginResult{Session: session}, nil
}

// publish emits an auth event. Failures are logged only.
func (s *AuthService) publish(ctx context.Context, kind domainauth.EventKind, userID, sessionID string) {
	if s.events == nil || userID == "" {
		return
	}
	ev := domainauth.Event{Kind: kind, UserID: userID, SessionID: sessionID, At: s.cfg.Now()}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "failed to publish auth event", "kind", kind, "user_id", userID, "error", err)
		return
	}
	s.cfg.Metrics.AuthEvent(string(kind))
}

func (s *AuthService) hashPassword(pw string) (string, error) {
	if len(pw) < minPasswordLen || len(pw) > maxPasswordLen {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) link(path, token string) string {
	return strings.TrimSuffix(s.cfg.BaseURL, "/") + path + "?token=" + url.QueryEscape(token)
}

// passwordVersion pins reset tokens to the password they were issued against.
// Microseconds match Postgres timestamp precision.
func passwordVersion(acct domainauth.Account) int64 {
	return acct.PasswordChangedAt.UnixMicro()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateSessionID creates a random, URL-safe session ID.
func generateSessionID() string {
	return uuid.NewString()
}
