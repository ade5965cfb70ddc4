package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/target/rentdesk/internal/domain/guard"
)

// GuardConfig holds the route guard's redirect targets and area prefixes.
// Empty values fall back to the portal defaults.
type GuardConfig struct {
	LoginPath        string `env:"LOGIN_PATH"         envDefault:"/auth/login"`
	VerifyEmailPath  string `env:"VERIFY_EMAIL_PATH"  envDefault:"/auth/verify-email"`
	UnauthorizedPath string `env:"UNAUTHORIZED_PATH"  envDefault:"/unauthorized"`
	AdminHome        string `env:"ADMIN_HOME"         envDefault:"/dashboard"`
	TenantHome       string `env:"TENANT_HOME"        envDefault:"/users/dashboard"`
	AdminPrefix      string `env:"ADMIN_PREFIX"       envDefault:"/dashboard"`
	TenantPrefix     string `env:"TENANT_PREFIX"      envDefault:"/users"`

	// RequireEmailVerification sends unconfirmed users to the verify page
	// before they can reach either protected area.
	RequireEmailVerification bool `env:"REQUIRE_EMAIL_VERIFICATION" envDefault:"true"`
}

// Sanitize trims whitespace and trailing slashes from configured paths.
func (g *GuardConfig) Sanitize() {
	for _, p := range g.fields() {
		*p = cleanPath(*p)
	}
}

// Validate requires every configured path to be site-relative.
func (g *GuardConfig) Validate() error {
	var errs []error
	for _, p := range g.fields() {
		if *p != "" && (!strings.HasPrefix(*p, "/") || strings.HasPrefix(*p, "//")) {
			errs = append(errs, fmt.Errorf("path %q must start with a single /", *p))
		}
	}
	if g.AdminPrefix != "" && g.AdminPrefix == g.TenantPrefix {
		errs = append(errs, errors.New("admin and tenant prefixes must differ"))
	}
	return errors.Join(errs...)
}

// Paths converts the configuration into guard paths, defaults filled in.
func (g GuardConfig) Paths() guard.Paths {
	return guard.Paths{
		Login:        g.LoginPath,
		VerifyEmail:  g.VerifyEmailPath,
		Unauthorized: g.UnauthorizedPath,
		AdminHome:    g.AdminHome,
		TenantHome:   g.TenantHome,
		TenantPrefix: g.TenantPrefix,
		AdminPrefix:  g.AdminPrefix,
	}.WithDefaults()
}

// RouteTable builds the portal route table for the configured paths.
func (g GuardConfig) RouteTable() *guard.RouteTable {
	return guard.DefaultRouteTable(g.Paths(), g.RequireEmailVerification)
}

func (g *GuardConfig) fields() []*string {
	return []*string{
		&g.LoginPath, &g.VerifyEmailPath, &g.UnauthorizedPath,
		&g.AdminHome, &g.TenantHome, &g.AdminPrefix, &g.TenantPrefix,
	}
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
