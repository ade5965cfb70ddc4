package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/observability/metrics"
	"github.com/target/rentdesk/internal/ports"
	"golang.org/x/sync/singleflight"
)

const defaultLookupTimeout = 5 * time.Second

// RoleResolverOptions groups dependencies for RoleResolver.
type RoleResolverOptions struct {
	Store   ports.ProfileStore // Required
	Logger  *slog.Logger       // Optional
	Metrics *metrics.Metrics   // Optional
}

// RoleResolver derives a user's Profile from the admin and tenant profile stores.
//
// The admin store is consulted first and the tenant store only when the admin
// lookup yields nothing. Lookup errors are logged and treated as "not in this
// store", so a failing store can only ever lower the resolved privilege.
// Concurrent resolutions for the same user share one pair of lookups until
// Forget is called for that user.
type RoleResolver struct {
	store   ports.ProfileStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
	group   singleflight.Group
}

// invalidator is implemented by caching stores.
type invalidator interface {
	Invalidate(userID string)
}

// NewRoleResolver constructs a RoleResolver.
func NewRoleResolver(opts RoleResolverOptions) *RoleResolver {
	if opts.Store == nil {
		//nolint:forbidigo // Service construction must fail fast during wiring when dependencies are missing
		panic("ProfileStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleResolver{
		store:   opts.Store,
		logger:  logger.With("component", "role_resolver"),
		metrics: opts.Metrics,
		timeout: defaultLookupTimeout,
	}
}

// Resolve returns the user's profile. It never fails: an unknown user, an empty
// userID, or failing stores all yield the zero Profile (RoleNone).
func (r *RoleResolver) Resolve(ctx context.Context, userID string) domainauth.Profile {
	if userID == "" {
		return domainauth.Profile{}
	}

	// Shared callers must not be cut short by the first caller's cancellation.
	v, _, _ := r.group.Do(userID, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.resolve(lookupCtx, userID), nil
	})
	profile, _ := v.(domainauth.Profile)
	return profile
}

// Forget makes the next Resolve for userID read the stores afresh: callers
// arriving after Forget do not join a lookup already in flight, and cached
// outcomes are dropped when the store caches them.
func (r *RoleResolver) Forget(userID string) {
	r.group.Forget(userID)
	if inv, ok := r.store.(invalidator); ok {
		inv.Invalidate(userID)
	}
}

func (r *RoleResolver) resolve(ctx context.Context, userID string) domainauth.Profile {
	start := time.Now()
	profile := r.lookup(ctx, userID)
	r.metrics.RoleResolved(profile.Role.String(), time.Since(start))
	return profile
}

func (r *RoleResolver) lookup(ctx context.Context, userID string) domainauth.Profile {
	admin, err := r.store.FindAdminProfile(ctx, userID)
	switch {
	case err == nil && admin.IsActive && admin.Role.IsAdminFamily():
		return domainauth.AdminProfileOf(admin)
	case err == nil:
		r.logger.WarnContext(ctx, "ignoring unusable admin profile",
			"user_id", userID, "role", admin.Role, "is_active", admin.IsActive)
	case !errors.Is(err, domainauth.ErrProfileNotFound):
		r.lookupFailed(ctx, "admin", userID, err)
	}

	tenant, err := r.store.FindTenantProfile(ctx, userID)
	switch {
	case err == nil:
		return domainauth.TenantProfileOf(tenant)
	case !errors.Is(err, domainauth.ErrProfileNotFound):
		r.lookupFailed(ctx, "tenant", userID, err)
	}
	return domainauth.Profile{}
}

func (r *RoleResolver) lookupFailed(ctx context.Context, store, userID string, err error) {
	r.metrics.ProfileLookupFailed(store, err)
	r.logger.WarnContext(ctx, "profile lookup failed; treating as not found",
		"store", store,
		"user_id", userID,
		"error", fmt.Errorf("%w: %w", ErrProfileLookup, err))
}
