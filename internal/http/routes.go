package httpx

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	rentdesk "github.com/target/rentdesk"
	"github.com/target/rentdesk/internal/domain/guard"
	"github.com/target/rentdesk/internal/observability/metrics"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth     AuthServiceInterface // Required
	States   StateSource          // Required
	Renderer *TemplateRenderer    // Required
	// Routes overrides the guard's route table (optional).
	Routes  *guard.RouteTable
	Metrics *metrics.Metrics
	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler
	CookieDomain   string
	// CSRF enables double-submit CSRF protection on the portal routes.
	CSRF   bool
	Logger *slog.Logger
}

// NewRouter creates the HTTP router: health and metrics endpoints, and the
// portal (auth endpoints and pages) behind the route guard.
func NewRouter(services RouterServices) http.Handler {
	if services.Auth == nil || services.States == nil || services.Renderer == nil {
		//nolint:forbidigo // Router construction must fail fast during wiring when dependencies are missing
		panic("Auth, States and Renderer are required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	paths := services.States.Paths()

	authHandlers := &AuthHandlers{
		Svc:    services.Auth,
		States: services.States,
		Opts: AuthHandlerOptions{
			CookieDomain: services.CookieDomain,
			Logger:       logger,
			Metrics:      services.Metrics,
		},
	}
	pageHandlers := &PageHandlers{
		Renderer: services.Renderer,
		Auth:     services.Auth,
		Opts:     PageOptions{Paths: paths, Logger: logger},
	}

	portal := http.NewServeMux()
	registerAuthRoutes(portal, authHandlers)
	registerPageRoutes(portal, pageHandlers, paths)

	var portalHandler http.Handler = Guard(GuardConfig{
		States:  services.States,
		Routes:  services.Routes,
		Metrics: services.Metrics,
	})(portal)
	if services.CSRF {
		portalHandler = CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})(portalHandler)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	if services.MetricsHandler != nil {
		mux.Handle("GET /metrics", services.MetricsHandler)
	}
	mux.Handle("/", portalHandler)

	return BrowserDetection()(mux)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /auth/sign-in", h.SignIn)
	mux.HandleFunc("POST /auth/sign-up", h.SignUp)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("POST /auth/password/reset", h.ResetPassword)
	mux.HandleFunc("POST "+PasswordUpdatePath, h.UpdatePassword)
	mux.HandleFunc("POST /auth/verify-email/resend", h.ResendVerification)
	mux.HandleFunc("POST /auth/refresh", h.Refresh)
	mux.HandleFunc("GET /auth/oidc/login", h.ExternalLogin)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("GET /auth/status", h.Status)
	mux.HandleFunc("GET /auth/state/stream", h.StateStream)
}

func registerPageRoutes(mux *http.ServeMux, h *PageHandlers, paths guard.Paths) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET "+paths.Login, h.Login)
	mux.HandleFunc("GET "+paths.VerifyEmail, h.VerifyEmail)
	mux.HandleFunc("GET "+PasswordUpdatePath, h.PasswordUpdate)
	mux.HandleFunc("GET "+paths.Unauthorized, h.Unauthorized)
	mux.HandleFunc("GET "+paths.AdminPrefix, h.Dashboard)
	mux.HandleFunc("GET "+paths.AdminPrefix+"/{section...}", h.Dashboard)
	mux.HandleFunc("GET "+paths.TenantPrefix, h.Tenant)
	mux.HandleFunc("GET "+paths.TenantPrefix+"/{section...}", h.Tenant)
	mux.HandleFunc("/", h.NotFound)
}

// TemplateFS returns the page templates: from disk in dev mode for live edits,
// otherwise from the embedded copy.
func TemplateFS(isDev bool) (fs.FS, error) {
	if isDev {
		return os.DirFS(TemplatePathFromRoot), nil
	}
	return fs.Sub(rentdesk.TemplateFS, TemplatePathFromRoot)
}
