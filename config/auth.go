package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"golang.org/x/crypto/bcrypt"
)

// minSigningKeyLen matches the token issuer's HMAC key requirement.
const minSigningKeyLen = 32

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModePassword offers only email/password accounts.
	AuthModePassword AuthMode = "password"
	// AuthModeOAuth adds OAuth/OIDC login next to password accounts.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock adds a mock external login (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "password", "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: password, oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"rentdesk"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"rentdesk"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`

	// Claims are JMESPath expressions locating identity fields in the ID token.
	Claims ClaimsConfig `envPrefix:"CLAIM_"`
}

// ClaimsConfig holds the JMESPath expression for each identity claim.
type ClaimsConfig struct {
	UserID        string `env:"USER_ID"        envDefault:"sub"`
	Email         string `env:"EMAIL"          envDefault:"email"`
	EmailVerified string `env:"EMAIL_VERIFIED" envDefault:"email_verified"`
	GivenName     string `env:"GIVEN_NAME"     envDefault:"given_name"`
	FamilyName    string `env:"FAMILY_NAME"    envDefault:"family_name"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID         string `env:"USER_ID"         envDefault:"dev-user"`
	Email          string `env:"EMAIL"           envDefault:"dev@example.com"`
	FirstName      string `env:"FIRST_NAME"      envDefault:"Dev"`
	LastName       string `env:"LAST_NAME"       envDefault:"User"`
	EmailConfirmed bool   `env:"EMAIL_CONFIRMED" envDefault:"true"`
	// Role seeds a profile for the dev user on startup in dev mode. Empty skips seeding.
	Role domainauth.Role `env:"ROLE" envDefault:"manager"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which external login provider, if any, is offered.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"password"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// TokenSecret signs email verification and password reset tokens.
	TokenSecret string `env:"AUTH_TOKEN_SECRET"`

	SessionTTL     time.Duration `env:"AUTH_SESSION_TTL"      envDefault:"8h"`
	VerifyTokenTTL time.Duration `env:"AUTH_VERIFY_TOKEN_TTL" envDefault:"24h"`
	ResetTokenTTL  time.Duration `env:"AUTH_RESET_TOKEN_TTL"  envDefault:"1h"`
	BcryptCost     int           `env:"AUTH_BCRYPT_COST"      envDefault:"12"`

	// RevealLinks logs emailed links in full instead of redacting their tokens.
	RevealLinks bool `env:"AUTH_REVEAL_LINKS" envDefault:"false"`
}

// Sanitize clamps auth tunables into usable ranges.
func (a *AuthConfig) Sanitize() {
	if a.BcryptCost < bcrypt.MinCost {
		a.BcryptCost = bcrypt.DefaultCost
	}
	if a.BcryptCost > bcrypt.MaxCost {
		a.BcryptCost = bcrypt.MaxCost
	}
	if a.SessionTTL <= 0 {
		a.SessionTTL = 8 * time.Hour
	}
	if a.VerifyTokenTTL <= 0 {
		a.VerifyTokenTTL = 24 * time.Hour
	}
	if a.ResetTokenTTL <= 0 {
		a.ResetTokenTTL = time.Hour
	}
	a.TokenSecret = strings.TrimSpace(a.TokenSecret)
}

// Validate checks mode-specific requirements. The mock provider is refused
// outside dev mode.
func (a *AuthConfig) Validate(isDev bool) error {
	var errs []error
	if len(a.TokenSecret) < minSigningKeyLen {
		errs = append(errs, fmt.Errorf("AUTH_TOKEN_SECRET must be at least %d bytes", minSigningKeyLen))
	}
	switch a.Mode {
	case AuthModeOAuth:
		if a.OAuth.DiscoveryURL == "" {
			errs = append(errs, errors.New("OAUTH_DISCOVERY_URL is required when AUTH_MODE=oauth"))
		}
		if a.OAuth.ClientID == "" {
			errs = append(errs, errors.New("OAUTH_CLIENT_ID is required when AUTH_MODE=oauth"))
		}
	case AuthModeMock:
		if !isDev {
			errs = append(errs, errors.New("AUTH_MODE=mock requires DEV=true"))
		}
	case AuthModePassword:
	default:
		errs = append(errs, fmt.Errorf("unsupported auth mode %q", a.Mode))
	}
	return errors.Join(errs...)
}

// ExternalLoginEnabled reports whether an external login provider is configured.
func (a *AuthConfig) ExternalLoginEnabled() bool {
	return a.Mode == AuthModeOAuth || a.Mode == AuthModeMock
}
