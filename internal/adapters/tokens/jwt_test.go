package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/rentdesk/internal/ports"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newTestIssuer(t *testing.T, now func() time.Time) *JWTIssuer {
	t.Helper()
	iss, err := NewJWTIssuer(Options{SigningKey: testKey, Now: now})
	require.NoError(t, err)
	return iss
}

func TestJWTIssuer_RoundTrip(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	iss := newTestIssuer(t, func() time.Time { return now })

	tok, err := iss.Issue(ports.TokenClaims{
		UserID:          "u1",
		Purpose:         ports.TokenPurposePasswordReset,
		PasswordVersion: 1700000000,
		ExpiresAt:       now.Add(time.Hour),
	})
	require.NoError(t, err)

	claims, err := iss.Verify(tok, ports.TokenPurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, int64(1700000000), claims.PasswordVersion)
	assert.True(t, claims.ExpiresAt.Equal(now.Add(time.Hour)))
}

func TestJWTIssuer_WrongPurposeRejected(t *testing.T) {
	iss := newTestIssuer(t, nil)
	tok, err := iss.Issue(ports.TokenClaims{UserID: "u1", Purpose: ports.TokenPurposeVerifyEmail, ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	_, err = iss.Verify(tok, ports.TokenPurposePasswordReset)
	assert.ErrorIs(t, err, ports.ErrTokenInvalid)
}

func TestJWTIssuer_Expired(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, func() time.Time { return now })
	tok, err := iss.Issue(ports.TokenClaims{UserID: "u1", Purpose: ports.TokenPurposeVerifyEmail, ExpiresAt: now.Add(time.Minute)})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = iss.Verify(tok, ports.TokenPurposeVerifyEmail)
	assert.ErrorIs(t, err, ports.ErrTokenExpired)
}

func TestJWTIssuer_TamperedAndForeignKey(t *testing.T) {
	iss := newTestIssuer(t, nil)
	tok, err := iss.Issue(ports.TokenClaims{UserID: "u1", Purpose: ports.TokenPurposeVerifyEmail, ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	_, err = iss.Verify(tok+"x", ports.TokenPurposeVerifyEmail)
	assert.ErrorIs(t, err, ports.ErrTokenInvalid)

	other, err := NewJWTIssuer(Options{SigningKey: "ffffffffffffffffffffffffffffffff"})
	require.NoError(t, err)
	_, err = other.Verify(tok, ports.TokenPurposeVerifyEmail)
	assert.ErrorIs(t, err, ports.ErrTokenInvalid)
}

func TestJWTIssuer_RejectsNoneAlgorithm(t *testing.T) {
	iss := newTestIssuer(t, nil)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Purpose: ports.TokenPurposeVerifyEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "rentdesk",
			Audience:  []string{string(ports.TokenPurposeVerifyEmail)},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = iss.Verify(raw, ports.TokenPurposeVerifyEmail)
	assert.ErrorIs(t, err, ports.ErrTokenInvalid)
}

func TestNewJWTIssuer_ShortKey(t *testing.T) {
	_, err := NewJWTIssuer(Options{SigningKey: "short"})
	require.Error(t, err)
}

func TestJWTIssuer_IssueValidation(t *testing.T) {
	iss := newTestIssuer(t, nil)
	_, err := iss.Issue(ports.TokenClaims{Purpose: ports.TokenPurposeVerifyEmail, ExpiresAt: time.Now()})
	require.Error(t, err)
}
