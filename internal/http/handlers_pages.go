package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/target/rentdesk/internal/domain/guard"
)

// PageHandlers renders the portal's HTML pages. Every page runs behind Guard,
// so the auth snapshot is already in the request context.
type PageHandlers struct {
	Renderer *TemplateRenderer
	Auth     AuthServiceInterface
	Opts     PageOptions
}

// PageOptions carries optional settings for PageHandlers.
type PageOptions struct {
	Paths  guard.Paths
	Logger *slog.Logger
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	CurrentPage string
}

//nolint:gochecknoglobals // read-only lookup of user-facing messages
var errorMessages = map[string]string{
	"invalid_credentials":     "Invalid email or password.",
	"email_taken":             "An account with that email already exists.",
	"invalid_email":           "Enter a valid email address.",
	"weak_password":           "Passwords must be between 8 and 72 characters.",
	"invalid_token":           "That link is invalid or has expired.",
	"session_expired":         "Your session has expired. Sign in again.",
	"authentication_required": "Sign in to continue.",
	"password_login_disabled": "Password sign-in is not available.",
}

//nolint:gochecknoglobals // read-only lookup of user-facing messages
var noticeMessages = map[string]string{
	"reset_sent":       "If that email has an account, a reset link is on its way.",
	"password_updated": "Your password was updated. Sign in with the new password.",
	"signed_out":       "You have been signed out.",
}

func (h *PageHandlers) logger() *slog.Logger {
	if h.Opts.Logger != nil {
		return h.Opts.Logger
	}
	return slog.Default()
}

func (h *PageHandlers) paths() guard.Paths { return h.Opts.Paths.WithDefaults() }

// Home sends the user to the landing page for their role.
// GET /{$}.
func (h *PageHandlers) Home(w http.ResponseWriter, r *http.Request) {
	snap, _ := SnapshotFromContext(r.Context())
	http.Redirect(w, r, h.homeFor(snap), http.StatusSeeOther)
}

func (h *PageHandlers) homeFor(snap guard.Snapshot) string {
	p := h.paths()
	switch {
	case !snap.IsAuthenticated:
		return p.Login
	case snap.Role.IsAdminFamily():
		return p.AdminHome
	case snap.Role.IsTenant():
		return p.TenantHome
	default:
		return p.Unauthorized
	}
}

// Login renders the sign-in page. Users who are already signed in with a role
// go straight to their destination.
// GET /auth/login?redirect=<path>.
func (h *PageHandlers) Login(w http.ResponseWriter, r *http.Request) {
	snap, _ := SnapshotFromContext(r.Context())
	q := r.URL.Query()
	redirect := safeRedirectPath(q.Get("redirect"))
	if snap.IsAuthenticated && snap.Role != "" && q.Get("error") == "" {
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}

	data := basePageData(r, PageMeta{Title: "Sign in", CurrentPage: PageLogin})
	data["Redirect"] = redirect
	data["Error"] = userMessage(errorMessages, q.Get("error"))
	data["Notice"] = userMessage(noticeMessages, q.Get("notice"))
	data["PasswordLogin"] = h.Auth.PasswordLoginEnabled()
	data["ExternalLogin"] = h.Auth.ExternalLoginEnabled()
	h.render(w, r, View{Data: data})
}

// VerifyEmail renders the verification page. With a token it confirms the email first.
// GET /auth/verify-email?token=<token>.
func (h *PageHandlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := basePageData(r, PageMeta{Title: "Verify email", CurrentPage: PageVerifyEmail})
	data["Sent"] = q.Get("sent") != ""
	data["Error"] = userMessage(errorMessages, q.Get("error"))

	status := http.StatusOK
	if token := q.Get("token"); token != "" {
		if _, err := h.Auth.ConfirmEmail(r.Context(), token); err != nil {
			code, key := authErrorStatus(err)
			if code >= http.StatusInternalServerError {
				h.logger().ErrorContext(r.Context(), "email confirmation failed", "error", err)
			}
			status = code
			data["Error"] = userMessage(errorMessages, key)
		} else {
			data["Confirmed"] = true
		}
	} else if s := GetSessionFromContext(r.Context()); s != nil && s.EmailConfirmed {
		data["Confirmed"] = true
	}
	h.render(w, r, View{Status: status, Data: data})
}

// PasswordUpdate renders the new-password form that reset links point at.
// GET /auth/password/update?token=<token>.
func (h *PageHandlers) PasswordUpdate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := basePageData(r, PageMeta{Title: "Choose a new password", CurrentPage: PagePasswordUpdate})
	data["Token"] = q.Get("token")
	data["Error"] = userMessage(errorMessages, q.Get("error"))
	h.render(w, r, View{Data: data})
}

// Unauthorized renders the access-denied page.
// GET /unauthorized.
func (h *PageHandlers) Unauthorized(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, PageMeta{Title: "Access denied", CurrentPage: PageUnauthorized})
	h.render(w, r, View{Status: http.StatusForbidden, Data: data})
}

// Dashboard renders the admin-family profile summary.
// GET /dashboard and /dashboard/{section...}.
func (h *PageHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap, _ := SnapshotFromContext(r.Context())
	data := basePageData(r, PageMeta{Title: "Dashboard", CurrentPage: PageDashboard})
	data["Admin"] = snap.Profile.Admin
	data["Section"] = sectionOf(r, h.paths().AdminPrefix)
	h.render(w, r, View{Data: data})
}

// Tenant renders the tenant profile summary.
// GET /users/{section...}.
func (h *PageHandlers) Tenant(w http.ResponseWriter, r *http.Request) {
	snap, _ := SnapshotFromContext(r.Context())
	data := basePageData(r, PageMeta{Title: "My home", CurrentPage: PageTenant})
	data["Tenant"] = snap.Profile.Tenant
	data["Section"] = sectionOf(r, h.paths().TenantPrefix)
	h.render(w, r, View{Data: data})
}

// NotFound renders the 404 page for browsers and JSON for API clients.
func (h *PageHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "message": "not found"})
		return
	}
	data := basePageData(r, PageMeta{Title: "Not found", CurrentPage: PageNotFound})
	h.render(w, r, View{Status: http.StatusNotFound, Data: data})
}

// render writes the full page, or only the content area for htmx requests.
func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, v View) {
	var err error
	if WantsPartial(r) {
		err = h.Renderer.RenderPartial(w, r, v)
	} else {
		err = h.Renderer.RenderFull(w, r, v)
	}
	if err == nil {
		return
	}
	h.logger().ErrorContext(r.Context(), "page render failed", "path", r.URL.Path, "error", err)
	if renderErr := h.Renderer.RenderError(w, r, View{
		Status: http.StatusInternalServerError,
		Data:   map[string]any{"Title": "Something went wrong", "Message": "Please try again."},
	}); renderErr != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// basePageData builds the layout fields shared by every page.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	data := map[string]any{
		"Title":           meta.Title,
		"CurrentPage":     meta.CurrentPage,
		"CSRFToken":       GetCSRFToken(r),
		"IsAuthenticated": false,
		"RoleLabel":       "",
		"DisplayName":     "",
	}
	snap, ok := SnapshotFromContext(r.Context())
	if !ok || snap.Identity == nil {
		return data
	}
	data["IsAuthenticated"] = true
	data["DisplayName"] = displayName(snap)
	if !snap.Role.IsNone() {
		data["RoleLabel"] = snap.Role.String()
	}
	return data
}

func displayName(snap guard.Snapshot) string {
	id := snap.Identity
	if name := strings.TrimSpace(id.FirstName + " " + id.LastName); name != "" {
		return name
	}
	return id.Email
}

// sectionOf returns the path below prefix, e.g. "reports" for /dashboard/reports.
func sectionOf(r *http.Request, prefix string) string {
	rest := strings.TrimPrefix(r.URL.Path, strings.TrimSuffix(prefix, "/"))
	return strings.Trim(rest, "/")
}

func userMessage(messages map[string]string, code string) string {
	if code == "" {
		return ""
	}
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "Something went wrong. Please try again."
}
