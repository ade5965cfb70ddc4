// Package devseed provisions the mock-login identity in development so the
// portal can be exercised without an admin CLI session.
package devseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/target/rentdesk/internal/data"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
)

// Default demo property and unit used for a tenant dev user.
const (
	DemoProperty = "Maple Court"
	DemoUnit     = "4B"
)

// Provisioner is the subset of data.ProfileRepo the seeder uses.
type Provisioner interface {
	CreateAdminProfile(ctx context.Context, p domainauth.AdminProfile) (domainauth.AdminProfile, error)
	CreateTenantProfile(ctx context.Context, p domainauth.TenantProfile) (domainauth.TenantProfile, error)
	EnsureUnit(ctx context.Context, propertyName, unitLabel string) (data.UnitRef, error)
}

// Identity describes the dev user to provision.
type Identity struct {
	UserID    string
	FirstName string
	LastName  string
	Role      domainauth.Role
}

// Result reports what Run did.
type Result struct {
	Role    domainauth.Role
	Created bool
}

// Run gives the dev user a profile for its configured role. An existing profile
// is left untouched, so Run is safe on every startup. RoleNone seeds nothing.
func Run(ctx context.Context, p Provisioner, id Identity, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "devseed", "user_id", id.UserID)

	if id.UserID == "" {
		return Result{}, errors.New("dev seed: user ID is required")
	}

	var (
		created bool
		err     error
	)
	switch {
	case id.Role.IsNone():
		logger.InfoContext(ctx, "dev profile seeding skipped")
		return Result{}, nil
	case id.Role.IsAdminFamily():
		created, err = seedAdmin(ctx, p, id)
	case id.Role.IsTenant():
		created, err = seedTenant(ctx, p, id)
	default:
		return Result{}, fmt.Errorf("dev seed: unsupported role %q", id.Role)
	}
	if err != nil {
		return Result{}, err
	}

	msg := "dev profile already exists"
	if created {
		msg = "created dev profile"
	}
	logger.InfoContext(ctx, msg, "role", id.Role)
	return Result{Role: id.Role, Created: created}, nil
}

func seedAdmin(ctx context.Context, p Provisioner, id Identity) (bool, error) {
	_, err := p.CreateAdminProfile(ctx, domainauth.AdminProfile{
		UserID:   id.UserID,
		Role:     id.Role,
		IsActive: true,
		FullName: fullName(id),
	})
	return createdOrExists(err, "admin")
}

func seedTenant(ctx context.Context, p Provisioner, id Identity) (bool, error) {
	unit, err := p.EnsureUnit(ctx, DemoProperty, DemoUnit)
	if err != nil {
		return false, fmt.Errorf("dev seed: ensure demo unit: %w", err)
	}
	_, err = p.CreateTenantProfile(ctx, domainauth.TenantProfile{
		UserID:     id.UserID,
		FullName:   fullName(id),
		PropertyID: unit.PropertyID,
		UnitID:     unit.UnitID,
	})
	return createdOrExists(err, "tenant")
}

func createdOrExists(err error, kind string) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, data.ErrProfileExists):
		return false, nil
	default:
		return false, fmt.Errorf("dev seed: create %s profile: %w", kind, err)
	}
}

func fullName(id Identity) string {
	name := strings.TrimSpace(id.FirstName + " " + id.LastName)
	if name == "" {
		return id.UserID
	}
	return name
}
