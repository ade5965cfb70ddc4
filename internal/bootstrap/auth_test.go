package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/rentdesk/config"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
)

func TestBuildExternalLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("password mode disables external login", func(t *testing.T) {
		login, err := BuildExternalLogin(ctx, config.AuthConfig{Mode: config.AuthModePassword}, nil)
		require.NoError(t, err)
		assert.Nil(t, login.Provider)
		assert.Empty(t, login.Kind)
	})

	t.Run("mock mode", func(t *testing.T) {
		login, err := BuildExternalLogin(ctx, config.AuthConfig{
			Mode:    config.AuthModeMock,
			DevAuth: config.DevAuthConfig{UserID: "dev-user", Email: "dev@example.com", EmailConfirmed: true},
		}, nil)
		require.NoError(t, err)
		require.NotNil(t, login.Provider)
		assert.Equal(t, domainauth.ProviderDev, login.Kind)
	})

	t.Run("mock mode requires identity", func(t *testing.T) {
		_, err := BuildExternalLogin(ctx, config.AuthConfig{Mode: config.AuthModeMock}, nil)
		assert.Error(t, err)
	})

	t.Run("oauth discovery failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, err := BuildExternalLogin(ctx, config.AuthConfig{
			Mode: config.AuthModeOAuth,
			OAuth: config.OAuthConfig{
				ClientID:     "portal",
				ClientSecret: "secret",
				RedirectURL:  "https://portal.example.com/auth/callback",
				DiscoveryURL: srv.URL + "/.well-known/openid-configuration",
				Claims: config.ClaimsConfig{
					UserID: "sub", Email: "email", EmailVerified: "email_verified",
					GivenName: "given_name", FamilyName: "family_name",
				},
			},
		}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create OIDC provider")
	})
}
