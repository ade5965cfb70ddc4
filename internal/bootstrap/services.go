package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/target/rentdesk/config"
	"github.com/target/rentdesk/internal/adapters/profilecache"
	redisadapter "github.com/target/rentdesk/internal/adapters/redis"
	"github.com/target/rentdesk/internal/adapters/tokens"
	"github.com/target/rentdesk/internal/data"
	httpx "github.com/target/rentdesk/internal/http"
	"github.com/target/rentdesk/internal/observability/metrics"
	"github.com/target/rentdesk/internal/observability/notify"
	"github.com/target/rentdesk/internal/ports"
	"github.com/target/rentdesk/internal/service"
)

const (
	sessionKeyPrefix = "session:"
	eventKeyPrefix   = "auth:events:"
)

// Stores are the persistence ports behind the services.
type Stores struct {
	Sessions ports.SessionStore
	Accounts ports.AccountStore
	Profiles ports.ProfileStore
	Events   ports.AuthEventBus
	Notifier ports.Notifier
}

// NewStores builds the production stores: accounts and profiles in Postgres,
// sessions and auth events in Redis.
func NewStores(cfg *config.AppConfig, db *sql.DB, client redis.UniversalClient, logger *slog.Logger) Stores {
	prefix := cfg.Redis.KeyPrefix
	return Stores{
		Sessions: redisadapter.NewSessionStoreWithPrefix(client, prefix+sessionKeyPrefix),
		Accounts: data.NewAccountRepo(db),
		Profiles: data.NewProfileRepo(db),
		Events: redisadapter.NewEventBus(redisadapter.EventBusOptions{
			Client: client,
			Prefix: prefix + eventKeyPrefix,
			Logger: logger,
		}),
		Notifier: notify.NewLogNotifier(logger, cfg.Auth.RevealLinks),
	}
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config   *config.AppConfig
	Stores   Stores
	Login    ExternalLogin
	Registry prometheus.Registerer // Optional; a private registry is used when nil
	Logger   *slog.Logger
}

// ServiceContainer holds the wired application services.
type ServiceContainer struct {
	Auth     *service.AuthService
	Resolver *service.RoleResolver
	States   *service.AuthStateFactory
	Profiles *profilecache.Store
	// Sync is nil when the event bus cannot deliver events for all users.
	Sync    *service.ProfileSync
	Metrics *metrics.Metrics
}

// Background returns the tasks Serve runs beside the HTTP server.
func (c *ServiceContainer) Background() []func(context.Context) error {
	if c.Sync == nil {
		return nil
	}
	return []func(context.Context) error{c.Sync.Run}
}

// NewServices wires the auth service, the cached role resolver and the auth
// state factory over deps.Stores.
func NewServices(deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, errors.New("service deps missing AppConfig")
	}
	if deps.Stores.Sessions == nil || deps.Stores.Profiles == nil {
		return nil, errors.New("session and profile stores are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	cfg := deps.Config
	m := metrics.New(reg)

	issuer, err := tokens.NewJWTIssuer(tokens.Options{
		SigningKey: cfg.Auth.TokenSecret,
		Issuer:     cfg.HTTP.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create token issuer: %w", err)
	}

	paths := cfg.Guard.Paths()
	authSvc, err := service.NewAuthService(service.AuthServiceOptions{
		Stores: service.AuthStores{
			Sessions: deps.Stores.Sessions,
			Accounts: deps.Stores.Accounts,
			Events:   deps.Stores.Events,
		},
		Flows: service.AuthFlows{
			Provider: deps.Login.Provider,
			Tokens:   issuer,
			Notifier: deps.Stores.Notifier,
		},
		Config: service.AuthServiceConfig{
			SessionTTL:       cfg.Auth.SessionTTL,
			VerifyTokenTTL:   cfg.Auth.VerifyTokenTTL,
			ResetTokenTTL:    cfg.Auth.ResetTokenTTL,
			BcryptCost:       cfg.Auth.BcryptCost,
			BaseURL:          cfg.HTTP.BaseURL,
			VerifyEmailPath:  paths.VerifyEmail,
			ResetPath:        httpx.PasswordUpdatePath,
			ExternalProvider: deps.Login.Kind,
			Logger:           logger,
			Metrics:          m,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create auth service: %w", err)
	}

	cached := profilecache.New(deps.Stores.Profiles, profilecache.Options{
		Size:     cfg.Cache.ProfileSize,
		TTL:      cfg.Cache.ProfileTTL,
		OnLookup: m.ProfileCacheLookup,
	})
	resolver := service.NewRoleResolver(service.RoleResolverOptions{
		Store:   cached,
		Logger:  logger,
		Metrics: m,
	})
	states := service.NewAuthStateFactory(service.AuthStateTrackerOptions{
		Sessions: authSvc,
		Resolver: resolver,
		Config: service.AuthStateConfig{
			Events:  deps.Stores.Events,
			Paths:   paths,
			Logger:  logger,
			Metrics: m,
		},
	})

	var profileSync *service.ProfileSync
	if feed, ok := deps.Stores.Events.(ports.AuthEventFeed); ok {
		profileSync = service.NewProfileSync(service.ProfileSyncOptions{
			Feed:     feed,
			Resolver: resolver,
			Logger:   logger,
		})
	}

	return &ServiceContainer{
		Auth:     authSvc,
		Resolver: resolver,
		States:   states,
		Profiles: cached,
		Sync:     profileSync,
		Metrics:  m,
	}, nil
}
