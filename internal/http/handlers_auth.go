package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/observability/metrics"
	"github.com/target/rentdesk/internal/service"
)

// AuthServiceInterface defines the auth operations used by the HTTP layer.
// *service.AuthService implements it.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	SignIn(ctx context.Context, email, password string) (domainauth.Session, error)
	SignUp(ctx context.Context, in service.SignUpInput) (domainauth.Account, error)
	SignOut(ctx context.Context, sessionID string) error
	ResetPassword(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, in service.UpdatePasswordInput) error
	ConfirmEmail(ctx context.Context, token string) (domainauth.Account, error)
	ResendVerification(ctx context.Context, sessionID string) error
	RefreshSession(ctx context.Context, sessionID string) (domainauth.Session, error)
	ExternalLoginEnabled() bool
	PasswordLoginEnabled() bool
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc    AuthServiceInterface
	States StateSource // Required for Status and StateStream
	Opts   AuthHandlerOptions
}

// AuthHandlerOptions carries optional settings for AuthHandlers.
type AuthHandlerOptions struct {
	CookieDomain string
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Opts.Logger != nil {
		return h.Opts.Logger
	}
	return slog.Default()
}

// ExternalLogin starts the OIDC flow.
// GET /auth/oidc/login?redirect=<optional_redirect>.
func (h *AuthHandlers) ExternalLogin(w http.ResponseWriter, r *http.Request) {
	if !h.Svc.ExternalLoginEnabled() {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "external_login_disabled",
			Err:     errors.New("external login is not configured"),
		})
		return
	}

	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect"))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin external login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("could not start login"),
		})
		return
	}

	h.setOAuthCookies(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the OIDC flow.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookie)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "external login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "login_completion_failed",
			Err:     errors.New("login could not be completed"),
		})
		return
	}

	h.setSessionCookie(w, r, result.Session)
	h.clearCookie(w, r, oauthStateCookie)
	h.clearCookie(w, r, oauthNonceCookie)

	http.Redirect(w, r, h.getPostLoginRedirect(w, r), http.StatusFound)
}

// Logout ends the session.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := sessionIDFromRequest(r); sessionID != "" {
		if err := h.Svc.SignOut(r.Context(), sessionID); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	h.clearCookie(w, r, SessionCookieName)

	h.respond(w, r, actionResult{
		Body:       map[string]any{"status": "signed_out"},
		RedirectTo: h.paths().Login + "?notice=signed_out",
	})
}

// Status returns the reactive auth state for the caller's session.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	tracker := h.States.ForSession(sessionID)
	snap := tracker.Refresh(r.Context())
	_ = tracker.Close()

	if sessionID != "" && !snap.IsAuthenticated {
		// Session is invalid or expired, clear the cookie
		h.clearCookie(w, r, SessionCookieName)
	}
	WriteJSON(w, http.StatusOK, snap)
}

// actionResult describes a successful auth action for both response styles.
type actionResult struct {
	Status     int
	Body       map[string]any
	RedirectTo string
}

// respond writes JSON for API callers and redirects browsers.
func (h *AuthHandlers) respond(w http.ResponseWriter, r *http.Request, res actionResult) {
	if !wantsJSON(r) {
		if IsHTMX(r) {
			SetHXTrigger(w, "auth-changed", res.Body)
		}
		redirectBrowser(w, r, res.RedirectTo)
		return
	}
	body := res.Body
	if body == nil {
		body = map[string]any{}
	}
	if res.RedirectTo != "" {
		body["redirect_to"] = res.RedirectTo
	}
	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	WriteJSON(w, status, body)
}

// actionFailure describes a failed auth action. Browsers are sent back to Page
// with the error code in the query; Query carries extra parameters to keep.
type actionFailure struct {
	Err   error
	Page  string
	Query url.Values
}

func (h *AuthHandlers) fail(w http.ResponseWriter, r *http.Request, f actionFailure) {
	status, code := authErrorStatus(f.Err)
	message := f.Err.Error()
	if status >= http.StatusInternalServerError {
		h.logger().ErrorContext(r.Context(), "auth action failed", "path", r.URL.Path, "error", f.Err)
		message = "something went wrong, please try again"
	}

	if wantsJSON(r) {
		WriteError(w, ErrorParams{Code: status, ErrCode: code, Err: errors.New(message)})
		return
	}

	q := url.Values{}
	for k, v := range f.Query {
		if len(v) > 0 && v[0] != "" {
			q.Set(k, v[0])
		}
	}
	q.Set("error", code)
	redirectBrowser(w, r, f.Page+"?"+q.Encode())
}

// wantsJSON reports whether the caller expects a JSON response instead of a redirect.
func wantsJSON(r *http.Request) bool {
	return isJSONBody(r) || !IsBrowserRequest(r)
}

// authErrorStatus maps auth failures to a status and a stable error code.
func authErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrSignIn):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "email_taken"
	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_email"
	case errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest, "weak_password"
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusBadRequest, "invalid_token"
	case errors.Is(err, service.ErrSessionExpired), errors.Is(err, domainauth.ErrSessionNotFound):
		return http.StatusUnauthorized, "session_expired"
	case errors.Is(err, errAuthRequired):
		return http.StatusUnauthorized, "authentication_required"
	case errors.Is(err, errPasswordDisabled):
		return http.StatusNotFound, "password_login_disabled"
	}
	if status, code := appErrorStatus(err); code != "" {
		return status, code
	}
	return http.StatusInternalServerError, "internal"
}

var (
	errAuthRequired     = errors.New("authentication required")
	errPasswordDisabled = errors.New("password login is not enabled")
)

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.Opts.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// oauthCookieParams groups values needed to set OAuth cookies (≤3 params rule).
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setOAuthCookies stores OAuth state, nonce, and the post-login redirect in short-lived cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	for name, value := range map[string]string{
		oauthStateCookie:        p.State,
		oauthNonceCookie:        p.Nonce,
		postLoginRedirectCookie: p.RedirectURI,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Domain:   h.Opts.CookieDomain,
			HttpOnly: true,
			Secure:   isSecureRequest(r),
			SameSite: http.SameSiteLaxMode,
			MaxAge:   oauthCookieMaxAge,
		})
	}
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   h.Opts.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// getPostLoginRedirect returns the post-login redirect URL and clears the cookie.
func (h *AuthHandlers) getPostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := "/"
	if c, err := r.Cookie(postLoginRedirectCookie); err == nil {
		redirectURI = safeRedirectPath(c.Value)
		h.clearCookie(w, r, postLoginRedirectCookie)
	}
	return redirectURI
}

// isSecureRequest reports whether the request arrived over TLS, directly or via a proxy.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}
