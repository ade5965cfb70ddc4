package auth

import (
	"fmt"
	"strings"
)

// Role represents an application's authorization role.
// The zero value RoleNone means the user has no provisioned profile.
// Keep string form for easy persistence and JSON.
type Role string

const (
	RoleNone     Role = ""
	RoleAdmin    Role = "admin"
	RoleLandlord Role = "landlord"
	RoleManager  Role = "manager"
	RoleStaff    Role = "staff"
	RoleTenant   Role = "tenant"
)

// AdminFamily lists the roles granted dashboard access, in display order.
func AdminFamily() []Role {
	return []Role{RoleAdmin, RoleLandlord, RoleManager, RoleStaff}
}

// ParseRole converts a stored or configured string into a Role.
// Empty input yields RoleNone; unknown values are rejected.
func ParseRole(s string) (Role, error) {
	v := Role(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case RoleNone, RoleAdmin, RoleLandlord, RoleManager, RoleStaff, RoleTenant:
		return v, nil
	default:
		return RoleNone, fmt.Errorf("invalid role: %q", s)
	}
}

// IsAdminFamily reports whether the role belongs to the administrative family.
func (r Role) IsAdminFamily() bool {
	switch r {
	case RoleAdmin, RoleLandlord, RoleManager, RoleStaff:
		return true
	default:
		return false
	}
}

// IsTenant reports whether the role is tenant.
func (r Role) IsTenant() bool { return r == RoleTenant }

// IsNone reports whether the role is unprovisioned.
func (r Role) IsNone() bool { return r == RoleNone }

// In reports whether r is a member of roles. RoleNone is never a member.
func (r Role) In(roles []Role) bool {
	if r == RoleNone {
		return false
	}
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}

// UnmarshalText implements encoding.TextUnmarshaler so roles can be parsed from env and JSON.
func (r *Role) UnmarshalText(text []byte) error {
	v, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
