// Package guard holds the pure route-guard rules: given a principal and a route,
// decide whether navigation is allowed or where to redirect.
package guard

// Reason explains why a navigation was redirected.
type Reason string

const (
	ReasonUnauthenticated   Reason = "unauthenticated"
	ReasonUnverifiedEmail   Reason = "unverified_email"
	ReasonRoleMismatch      Reason = "role_mismatch"
	ReasonAdminInTenantArea Reason = "admin_in_tenant_area"
	ReasonTenantInAdminArea Reason = "tenant_in_admin_area"
	reasonNone              Reason = ""
)

// Decision is the outcome of evaluating a route. The zero value is Allow.
type Decision struct {
	Target string `json:"target,omitempty"`
	Reason Reason `json:"reason,omitempty"`
}

// Allow is the decision permitting navigation.
func Allow() Decision { return Decision{} }

// RedirectTo builds a redirect decision.
func RedirectTo(target string, reason Reason) Decision {
	return Decision{Target: target, Reason: reason}
}

// Allowed reports whether the decision permits navigation.
func (d Decision) Allowed() bool { return d.Reason == reasonNone }

func (d Decision) String() string {
	if d.Allowed() {
		return "allow"
	}
	return "redirect(" + d.Target + ", " + string(d.Reason) + ")"
}
