package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/rentdesk/config"
	"github.com/target/rentdesk/internal/adapters/devauth"
	"github.com/target/rentdesk/internal/adapters/oidc"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/ports"
)

// ExternalLogin is the external login provider selected by the auth mode.
type ExternalLogin struct {
	Provider ports.AuthProvider
	Kind     domainauth.Provider
}

// BuildExternalLogin returns the provider for cfg.Mode. Password mode yields a
// zero ExternalLogin, which leaves external login disabled.
func BuildExternalLogin(ctx context.Context, cfg config.AuthConfig, logger *slog.Logger) (ExternalLogin, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Mode {
	case config.AuthModeOAuth:
		return buildOIDCLogin(ctx, cfg.OAuth, logger)
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:          cfg.DevAuth.UserID,
			Email:           cfg.DevAuth.Email,
			FirstName:       cfg.DevAuth.FirstName,
			LastName:        cfg.DevAuth.LastName,
			EmailConfirmed:  cfg.DevAuth.EmailConfirmed,
			SessionDuration: cfg.SessionTTL,
		})
		if err != nil {
			return ExternalLogin{}, fmt.Errorf("create dev auth provider: %w", err)
		}
		logger.WarnContext(ctx, "mock authentication enabled", "user_id", cfg.DevAuth.UserID)
		return ExternalLogin{Provider: prov, Kind: domainauth.ProviderDev}, nil
	default:
		logger.InfoContext(ctx, "external login disabled", "mode", cfg.Mode)
		return ExternalLogin{}, nil
	}
}

func buildOIDCLogin(ctx context.Context, oauth config.OAuthConfig, logger *slog.Logger) (ExternalLogin, error) {
	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
		Claims: oidc.ClaimPaths{
			UserID:        oauth.Claims.UserID,
			Email:         oauth.Claims.Email,
			EmailVerified: oauth.Claims.EmailVerified,
			GivenName:     oauth.Claims.GivenName,
			FamilyName:    oauth.Claims.FamilyName,
		},
	})
	if err != nil {
		return ExternalLogin{}, fmt.Errorf("create OIDC provider: %w", err)
	}
	logger.InfoContext(ctx, "OIDC login enabled", "discovery_url", oauth.DiscoveryURL)
	return ExternalLogin{Provider: prov, Kind: domainauth.ProviderOIDC}, nil
}
