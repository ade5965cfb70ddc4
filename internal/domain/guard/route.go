package guard

import (
	"strings"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
)

// RouteContext describes the access requirements of a single navigation.
type RouteContext struct {
	Path                     string
	RequiredAuth             bool
	AllowedRoles             []domainauth.Role
	RequireEmailVerification bool
}

// Paths configures redirect targets and the two area prefixes.
type Paths struct {
	Login        string
	VerifyEmail  string
	Unauthorized string
	AdminHome    string
	TenantHome   string
	TenantPrefix string
	AdminPrefix  string
}

// DefaultPaths returns the portal's standard redirect targets.
func DefaultPaths() Paths {
	return Paths{
		Login:        "/auth/login",
		VerifyEmail:  "/auth/verify-email",
		Unauthorized: "/unauthorized",
		AdminHome:    "/dashboard",
		TenantHome:   "/users/dashboard",
		TenantPrefix: "/users",
		AdminPrefix:  "/dashboard",
	}
}

// WithDefaults fills empty fields from DefaultPaths.
func (p Paths) WithDefaults() Paths {
	d := DefaultPaths()
	if p.Login == "" {
		p.Login = d.Login
	}
	if p.VerifyEmail == "" {
		p.VerifyEmail = d.VerifyEmail
	}
	if p.Unauthorized == "" {
		p.Unauthorized = d.Unauthorized
	}
	if p.AdminHome == "" {
		p.AdminHome = d.AdminHome
	}
	if p.TenantHome == "" {
		p.TenantHome = d.TenantHome
	}
	if p.TenantPrefix == "" {
		p.TenantPrefix = d.TenantPrefix
	}
	if p.AdminPrefix == "" {
		p.AdminPrefix = d.AdminPrefix
	}
	return p
}

// UnderPrefix reports whether path equals prefix or is nested beneath it.
// "/dashboard" covers "/dashboard" and "/dashboard/x" but not "/dashboards".
func UnderPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return false
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// RouteRule binds a path prefix to access requirements.
type RouteRule struct {
	Prefix                   string
	RequiredAuth             bool
	AllowedRoles             []domainauth.Role
	RequireEmailVerification bool
}

// RouteTable resolves a request path into a RouteContext. The longest matching prefix wins.
type RouteTable struct {
	rules []RouteRule
}

// NewRouteTable builds a table from rules.
func NewRouteTable(rules ...RouteRule) *RouteTable {
	cp := make([]RouteRule, len(rules))
	copy(cp, rules)
	return &RouteTable{rules: cp}
}

// DefaultRouteTable returns the portal route table: /auth public, the admin area
// restricted to admin-family roles, and the tenant area restricted to tenants.
func DefaultRouteTable(paths Paths, requireVerification bool) *RouteTable {
	paths = paths.WithDefaults()
	return NewRouteTable(
		RouteRule{Prefix: "/auth"},
		RouteRule{
			Prefix:                   paths.AdminPrefix,
			RequiredAuth:             true,
			AllowedRoles:             domainauth.AdminFamily(),
			RequireEmailVerification: requireVerification,
		},
		RouteRule{
			Prefix:                   paths.TenantPrefix,
			RequiredAuth:             true,
			AllowedRoles:             []domainauth.Role{domainauth.RoleTenant},
			RequireEmailVerification: requireVerification,
		},
	)
}

// Match returns the route context for path. Unmatched paths are public.
func (t *RouteTable) Match(path string) RouteContext {
	var (
		best    *RouteRule
		bestLen = -1
	)
	for i := range t.rules {
		r := &t.rules[i]
		if UnderPrefix(path, r.Prefix) && len(r.Prefix) > bestLen {
			best = r
			bestLen = len(r.Prefix)
		}
	}
	if best == nil {
		return RouteContext{Path: path}
	}
	return RouteContext{
		Path:                     path,
		RequiredAuth:             best.RequiredAuth,
		AllowedRoles:             best.AllowedRoles,
		RequireEmailVerification: best.RequireEmailVerification,
	}
}
