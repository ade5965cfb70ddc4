package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/target/rentdesk/internal/data"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/ports"
	"github.com/target/rentdesk/internal/service"
)

// profileBackend is what the profile commands need from data.ProfileRepo.
type profileBackend interface {
	ports.ProfileStore
	ports.ProfileAdmin
	EnsureUnit(ctx context.Context, propertyName, unitLabel string) (data.UnitRef, error)
}

// profileOps carries out the profile commands. Sessions and Events are optional.
type profileOps struct {
	Profiles profileBackend
	Sessions ports.SessionStore
	Events   ports.AuthEventBus
	Out      io.Writer
	Logger   *slog.Logger
}

type createAdminOptions struct {
	UserID string
	Role   domainauth.Role
	Name   string
}

type createTenantOptions struct {
	UserID   string
	Name     string
	Property string
	Unit     string
}

func runCreateAdmin(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateAdminFlags(args)
	if err != nil {
		return err
	}
	return withProfileOps(cmdCtx, false, func(ctx context.Context, ops *profileOps) error {
		return ops.createAdmin(ctx, opts)
	})
}

func runCreateTenant(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateTenantFlags(args)
	if err != nil {
		return err
	}
	return withProfileOps(cmdCtx, false, func(ctx context.Context, ops *profileOps) error {
		return ops.createTenant(ctx, opts)
	})
}

func runDeactivateAdmin(cmdCtx *commandContext, args []string) error {
	userID, err := parseUserFlag("deactivate-admin", args)
	if err != nil {
		return err
	}
	return withProfileOps(cmdCtx, false, func(ctx context.Context, ops *profileOps) error {
		return ops.deactivateAdmin(ctx, userID)
	})
}

func runShowProfile(cmdCtx *commandContext, args []string) error {
	userID, err := parseUserFlag("show-profile", args)
	if err != nil {
		return err
	}
	return withProfileOps(cmdCtx, false, func(ctx context.Context, ops *profileOps) error {
		return ops.showProfile(ctx, userID)
	})
}

func runRevokeSessions(cmdCtx *commandContext, args []string) error {
	userID, err := parseUserFlag("revoke-sessions", args)
	if err != nil {
		return err
	}
	return withProfileOps(cmdCtx, true, func(ctx context.Context, ops *profileOps) error {
		return ops.revokeSessions(ctx, userID)
	})
}

func (o *profileOps) createAdmin(ctx context.Context, opts createAdminOptions) error {
	p, err := o.Profiles.CreateAdminProfile(ctx, domainauth.AdminProfile{
		UserID:   opts.UserID,
		Role:     opts.Role,
		IsActive: true,
		FullName: opts.Name,
	})
	if err != nil {
		return fmt.Errorf("create admin profile: %w", err)
	}
	o.notify(ctx, opts.UserID)
	return printProfile(o.Out, opts.UserID, domainauth.AdminProfileOf(p))
}

func (o *profileOps) createTenant(ctx context.Context, opts createTenantOptions) error {
	unit, err := o.Profiles.EnsureUnit(ctx, opts.Property, opts.Unit)
	if err != nil {
		return fmt.Errorf("ensure unit: %w", err)
	}
	p, err := o.Profiles.CreateTenantProfile(ctx, domainauth.TenantProfile{
		UserID:       opts.UserID,
		FullName:     opts.Name,
		PropertyID:   unit.PropertyID,
		PropertyName: opts.Property,
		UnitID:       unit.UnitID,
		UnitLabel:    opts.Unit,
	})
	if err != nil {
		return fmt.Errorf("create tenant profile: %w", err)
	}
	o.notify(ctx, opts.UserID)
	return printProfile(o.Out, opts.UserID, domainauth.TenantProfileOf(p))
}

func (o *profileOps) deactivateAdmin(ctx context.Context, userID string) error {
	if err := o.Profiles.DeactivateAdminProfile(ctx, userID); err != nil {
		return fmt.Errorf("deactivate admin profile: %w", err)
	}
	o.notify(ctx, userID)
	return writef(o.Out, "deactivated admin profile for %s\n", userID)
}

// showProfile resolves the user exactly as the guard does: admin first, then tenant.
func (o *profileOps) showProfile(ctx context.Context, userID string) error {
	resolver := service.NewRoleResolver(service.RoleResolverOptions{Store: o.Profiles, Logger: o.Logger})
	return printProfile(o.Out, userID, resolver.Resolve(ctx, userID))
}

func (o *profileOps) revokeSessions(ctx context.Context, userID string) error {
	if o.Sessions == nil {
		return errors.New("session store is not configured")
	}
	n, err := o.Sessions.DeleteForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	o.publish(ctx, domainauth.EventSignedOut, userID)
	return writef(o.Out, "revoked %d session(s) for %s\n", n, userID)
}

// notify tells open pages of userID to re-resolve their role.
func (o *profileOps) notify(ctx context.Context, userID string) {
	o.publish(ctx, domainauth.EventUserUpdated, userID)
}

func (o *profileOps) publish(ctx context.Context, kind domainauth.EventKind, userID string) {
	if o.Events == nil {
		return
	}
	ev := domainauth.Event{Kind: kind, UserID: userID, At: time.Now().UTC()}
	if err := o.Events.Publish(ctx, ev); err != nil && o.Logger != nil {
		o.Logger.WarnContext(ctx, "publish auth event failed", "kind", kind, "user_id", userID, "error", err)
	}
}

func parseCreateAdminFlags(args []string) (createAdminOptions, error) {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts createAdminOptions
	var role string
	fs.StringVar(&opts.UserID, "user-id", "", "User ID from the identity provider (required)")
	fs.StringVar(&role, "role", string(domainauth.RoleManager), "Role: admin, landlord, manager or staff")
	fs.StringVar(&opts.Name, "name", "", "Display name")

	if err := fs.Parse(args); err != nil {
		return createAdminOptions{}, err
	}
	opts.UserID = strings.TrimSpace(opts.UserID)
	if opts.UserID == "" {
		return createAdminOptions{}, errors.New("--user-id is required")
	}
	r, err := domainauth.ParseRole(role)
	if err != nil {
		return createAdminOptions{}, err
	}
	if !r.IsAdminFamily() {
		return createAdminOptions{}, fmt.Errorf("--role must be one of admin, landlord, manager, staff; got %q", role)
	}
	opts.Role = r
	return opts, nil
}

func parseCreateTenantFlags(args []string) (createTenantOptions, error) {
	fs := flag.NewFlagSet("create-tenant", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts createTenantOptions
	fs.StringVar(&opts.UserID, "user-id", "", "User ID from the identity provider (required)")
	fs.StringVar(&opts.Name, "name", "", "Display name")
	fs.StringVar(&opts.Property, "property", "", "Property name; created when missing (required)")
	fs.StringVar(&opts.Unit, "unit", "", "Unit label within the property; created when missing (required)")

	if err := fs.Parse(args); err != nil {
		return createTenantOptions{}, err
	}
	opts.UserID = strings.TrimSpace(opts.UserID)
	opts.Property = strings.TrimSpace(opts.Property)
	opts.Unit = strings.TrimSpace(opts.Unit)
	var missing []string
	for _, f := range [][2]string{{"--user-id", opts.UserID}, {"--property", opts.Property}, {"--unit", opts.Unit}} {
		if f[1] == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return createTenantOptions{}, fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	return opts, nil
}

func parseUserFlag(name string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var userID string
	fs.StringVar(&userID, "user-id", "", "User ID (required)")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("--user-id is required")
	}
	return userID, nil
}
