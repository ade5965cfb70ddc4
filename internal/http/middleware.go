package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/target/rentdesk/internal/domain/guard"
	"github.com/target/rentdesk/internal/observability/metrics"
	"github.com/target/rentdesk/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Unwrap exposes the underlying writer to http.ResponseController (flushing for SSE).
func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// StateSource builds per-session auth state trackers. *service.AuthStateFactory implements it.
type StateSource interface {
	ForSession(sessionID string) *service.AuthStateTracker
	Paths() guard.Paths
}

// GuardConfig groups dependencies for the Guard middleware.
type GuardConfig struct {
	States  StateSource       // Required
	Routes  *guard.RouteTable // Optional; defaults to guard.DefaultRouteTable with verification required
	Metrics *metrics.Metrics  // Optional
}

// Guard evaluates every request against the route table using a fresh auth
// state for the request's session. Allowed requests continue with the session
// and snapshot in context; the rest are redirected (browsers) or rejected with
// JSON (API clients).
func Guard(cfg GuardConfig) func(http.Handler) http.Handler {
	if cfg.States == nil {
		//nolint:forbidigo // Router construction must fail fast during wiring when dependencies are missing
		panic("StateSource is required")
	}
	paths := cfg.States.Paths()
	routes := cfg.Routes
	if routes == nil {
		routes = guard.DefaultRouteTable(paths, true)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tracker := cfg.States.ForSession(sessionIDFromRequest(r))
			snap := tracker.Refresh(r.Context())
			// An unstarted tracker holds no subscription, so Close cannot fail.
			_ = tracker.Close()

			route := routes.Match(r.URL.Path)
			decision := guard.Evaluate(snap.Principal(), route, paths)
			cfg.Metrics.GuardDecision(decision.Allowed(), string(decision.Reason))

			if !decision.Allowed() {
				denyRequest(w, r, denial{Decision: decision, Paths: paths})
				return
			}

			ctx := SetSnapshotInContext(r.Context(), snap)
			ctx = SetSessionInContext(ctx, snap.Session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// denial groups a redirect decision with the paths it was evaluated against.
type denial struct {
	Decision guard.Decision
	Paths    guard.Paths
}

// denyRequest writes the response for a redirect decision.
func denyRequest(w http.ResponseWriter, r *http.Request, d denial) {
	target := d.Decision.Target
	if d.Decision.Reason == guard.ReasonUnauthenticated {
		// Keep the query string and, for htmx, the page the user is on.
		target = guard.LoginURL(d.Paths, redirectPathForRequest(r))
	}

	if !IsBrowserRequest(r) {
		status, code := http.StatusForbidden, string(d.Decision.Reason)
		if d.Decision.Reason == guard.ReasonUnauthenticated {
			status, code = http.StatusUnauthorized, "authentication_required"
		}
		WriteJSON(w, status, map[string]string{
			"error":       code,
			"message":     denialMessage(d.Decision.Reason),
			"redirect_to": target,
		})
		return
	}

	redirectBrowser(w, r, target)
}

func denialMessage(reason guard.Reason) string {
	switch reason {
	case guard.ReasonUnauthenticated:
		return "authentication required"
	case guard.ReasonUnverifiedEmail:
		return "email address is not verified"
	case guard.ReasonRoleMismatch:
		return "insufficient permissions"
	case guard.ReasonAdminInTenantArea:
		return "administrators use the dashboard"
	case guard.ReasonTenantInAdminArea:
		return "tenants use the tenant portal"
	default:
		return "access denied"
	}
}

// sessionIDFromRequest returns the session cookie value, or "".
func sessionIDFromRequest(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that detects browser requests vs API requests.
// It sets a context value that can be used by downstream handlers to determine
// whether to return HTML or JSON responses.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if isBrowser, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return isBrowser
	}
	// Fallback to direct detection if middleware wasn't used
	return isBrowserRequest(r)
}

// isBrowserRequest determines if a request is from a browser based on:
// 1. Path prefix - API routes start with /api/
// 2. HTMX requests are browser requests
// 3. Accept header - browsers accept text/html; a missing header counts as a browser.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	if IsHTMX(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}

func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
		if referer := safeRedirectFromURL(r.Header.Get("Referer")); referer != "" {
			return referer
		}
	}

	return safeRedirectPath(r.URL.RequestURI())
}

func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	// Reject scheme-relative or host-only references.
	if u.Host != "" && !u.IsAbs() {
		return ""
	}

	// For absolute URLs, use just the path/query portion to keep redirects within the app.
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}

	return safeRedirectPath(raw)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	// "/\evil.com" is treated as scheme-relative by some browsers.
	if strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return "/"
	}
	return candidate
}
