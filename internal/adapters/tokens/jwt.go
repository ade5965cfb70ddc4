// Package tokens signs and verifies the one-time tokens carried by email
// verification and password reset links.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/target/rentdesk/internal/ports"
)

const minKeyLen = 32

// Claims is the JWT payload of a one-time token.
type Claims struct {
	Purpose         ports.TokenPurpose `json:"purpose"`
	PasswordVersion int64              `json:"pwv,omitempty"`
	jwt.RegisteredClaims
}

// JWTIssuer implements ports.TokenIssuer with HS256 JWTs.
type JWTIssuer struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

// Options configures NewJWTIssuer.
type Options struct {
	SigningKey string
	Issuer     string
	// Now overrides the clock; used by tests.
	Now func() time.Time
}

var _ ports.TokenIssuer = (*JWTIssuer)(nil)

// NewJWTIssuer validates the key and returns an issuer.
func NewJWTIssuer(opts Options) (*JWTIssuer, error) {
	if len(opts.SigningKey) < minKeyLen {
		return nil, fmt.Errorf("token signing key must be at least %d bytes", minKeyLen)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	iss := opts.Issuer
	if iss == "" {
		iss = "rentdesk"
	}
	return &JWTIssuer{signingKey: []byte(opts.SigningKey), issuer: iss, now: now}, nil
}

// Issue signs claims. UserID, Purpose, and ExpiresAt are required.
func (s *JWTIssuer) Issue(c ports.TokenClaims) (string, error) {
	if c.UserID == "" || c.Purpose == "" || c.ExpiresAt.IsZero() {
		return "", errors.New("token user, purpose, and expiry are required")
	}
	now := s.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Purpose:         c.Purpose,
		PasswordVersion: c.PasswordVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			Issuer:    s.issuer,
			Audience:  []string{string(c.Purpose)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
			ID:        uuid.NewString(),
		},
	})
	signed, err := tok.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token and checks signature, expiry, issuer, and purpose.
func (s *JWTIssuer) Verify(token string, purpose ports.TokenPurpose) (ports.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(string(purpose)),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ports.TokenClaims{}, ports.ErrTokenExpired
		}
		return ports.TokenClaims{}, fmt.Errorf("%w: %w", ports.ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Purpose != purpose || claims.Subject == "" {
		return ports.TokenClaims{}, ports.ErrTokenInvalid
	}
	return ports.TokenClaims{
		UserID:          claims.Subject,
		Purpose:         claims.Purpose,
		PasswordVersion: claims.PasswordVersion,
		ExpiresAt:       claims.ExpiresAt.Time,
	}, nil
}
