package auth

import (
	"errors"
	"time"
)

// ErrProfileNotFound is returned by profile stores when no record exists for a user.
var ErrProfileNotFound = errors.New("profile not found")

// AdminProfile is the role-carrying record for administrative users.
type AdminProfile struct {
	UserID    string    `db:"user_id"    json:"user_id"`
	Role      Role      `db:"role"       json:"role"`
	IsActive  bool      `db:"is_active"  json:"is_active"`
	FullName  string    `db:"full_name"  json:"full_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TenantProfile is the record for tenants, joined with their property and unit.
type TenantProfile struct {
	UserID       string    `db:"user_id"       json:"user_id"`
	FullName     string    `db:"full_name"     json:"full_name"`
	PropertyID   string    `db:"property_id"   json:"property_id"`
	PropertyName string    `db:"property_name" json:"property_name"`
	UnitID       string    `db:"unit_id"       json:"unit_id"`
	UnitLabel    string    `db:"unit_label"    json:"unit_label"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}

// Profile is the resolved role view of a user. At most one of Admin and Tenant is set.
// A zero Profile means the user is unprovisioned.
type Profile struct {
	Role   Role           `json:"role"`
	Admin  *AdminProfile  `json:"admin,omitempty"`
	Tenant *TenantProfile `json:"tenant,omitempty"`
}

// AdminProfileOf wraps an admin record into a Profile.
func AdminProfileOf(p AdminProfile) Profile {
	return Profile{Role: p.Role, Admin: &p}
}

// TenantProfileOf wraps a tenant record into a Profile.
func TenantProfileOf(p TenantProfile) Profile {
	return Profile{Role: RoleTenant, Tenant: &p}
}

// Provisioned reports whether the profile carries a role.
func (p Profile) Provisioned() bool { return p.Role != RoleNone }

// Validate checks the admin profile invariants.
func (p AdminProfile) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if !p.Role.IsAdminFamily() {
		return errors.New("admin profile role must be one of admin, landlord, manager, staff")
	}
	return nil
}

// Validate checks the tenant profile invariants.
func (p TenantProfile) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.PropertyID == "" {
		return errors.New("property ID is required")
	}
	if p.UnitID == "" {
		return errors.New("unit ID is required")
	}
	return nil
}
