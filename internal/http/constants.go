package httpx

// Page identifiers used in templates and navigation.
const (
	PageLogin          = "login"
	PageVerifyEmail    = "verify-email"
	PagePasswordUpdate = "password-update"
	PageUnauthorized   = "unauthorized"
	PageDashboard      = "dashboard"
	PageTenant         = "tenant"
	PageNotFound       = "not-found"
)

// PasswordUpdatePath is where reset links land and the new password is posted.
const PasswordUpdatePath = "/auth/password/update"

// Cookie names shared by the auth handlers and the guard.
const (
	SessionCookieName       = "session_id"
	oauthStateCookie        = "oauth_state"
	oauthNonceCookie        = "oauth_nonce"
	postLoginRedirectCookie = "post_login_redirect"

	// oauthCookieMaxAge bounds how long a started external login stays valid.
	oauthCookieMaxAge = 600
)

// Template paths used for loading templates in tests and dev mode.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

//nolint:gochecknoglobals // static read-only lookup for templates; avoids per-call allocations
var contentTemplates = map[string]string{
	PageLogin:          "login-content",
	PageVerifyEmail:    "verify-email-content",
	PagePasswordUpdate: "password-update-content",
	PageUnauthorized:   "unauthorized-content",
	PageDashboard:      "dashboard-content",
	PageTenant:         "tenant-content",
	PageNotFound:       "not-found-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Unknown pages render the not-found section.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "not-found-content"
}
