package guard

import (
	"net/url"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
)

// Principal is the guard's view of the current user: the live session (nil when
// signed out) and the role resolved from the profile stores.
type Principal struct {
	Session *domainauth.Session
	Role    domainauth.Role
}

// Authenticated reports whether a session is present.
func (p Principal) Authenticated() bool { return p.Session != nil }

// Evaluate applies the guard rules top to bottom; the first matching rule wins.
// It is a pure function of its inputs.
func Evaluate(p Principal, route RouteContext, paths Paths) Decision {
	paths = paths.WithDefaults()

	if route.RequiredAuth && !p.Authenticated() {
		return RedirectTo(LoginURL(paths, route.Path), ReasonUnauthenticated)
	}

	if route.RequireEmailVerification && p.Authenticated() && !p.Session.EmailConfirmed {
		return RedirectTo(paths.VerifyEmail, ReasonUnverifiedEmail)
	}

	if len(route.AllowedRoles) > 0 && !p.Role.In(route.AllowedRoles) {
		return RedirectTo(paths.Unauthorized, ReasonRoleMismatch)
	}

	if UnderPrefix(route.Path, paths.TenantPrefix) && p.Role.IsAdminFamily() {
		return RedirectTo(paths.AdminHome, ReasonAdminInTenantArea)
	}

	if UnderPrefix(route.Path, paths.AdminPrefix) && p.Role.IsTenant() {
		return RedirectTo(paths.TenantHome, ReasonTenantInAdminArea)
	}

	return Allow()
}

// LoginURL builds the login redirect carrying the originally requested path.
func LoginURL(paths Paths, requested string) string {
	paths = paths.WithDefaults()
	return paths.Login + "?redirect=" + url.QueryEscape(requested)
}
