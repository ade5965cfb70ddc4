package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/target/rentdesk/config"
	httpx "github.com/target/rentdesk/internal/http"
	"golang.org/x/sync/errgroup"
)

// HTTPHandlerConfig contains what the portal handler is built from.
type HTTPHandlerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Gatherer prometheus.Gatherer // Optional; /metrics is not served when nil
	Logger   *slog.Logger
}

// BuildHTTPHandler assembles the router and wraps it in recovery and access logging.
// Order: Recover -> Logging -> Router.
func BuildHTTPHandler(cfg HTTPHandlerConfig) (http.Handler, error) {
	if cfg.Config == nil || cfg.Services == nil {
		return nil, errors.New("config and services are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templates, err := httpx.TemplateFS(cfg.Config.IsDev)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	renderer, err := httpx.NewTemplateRenderer(httpx.TemplateRendererConfig{TemplateFS: templates, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("create template renderer: %w", err)
	}

	var metricsHandler http.Handler
	if cfg.Gatherer != nil && cfg.Config.Observability.Metrics.IsEnabled() {
		metricsHandler = promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})
	}

	router := httpx.NewRouter(httpx.RouterServices{
		Auth:           cfg.Services.Auth,
		States:         cfg.Services.States,
		Renderer:       renderer,
		Routes:         cfg.Config.Guard.RouteTable(),
		Metrics:        cfg.Services.Metrics,
		MetricsHandler: metricsHandler,
		CookieDomain:   cfg.Config.HTTP.CookieDomain,
		CSRF:           cfg.Config.HTTP.CSRFEnabled,
		Logger:         logger,
	})

	h := httpx.Logging(logger)(router)
	h = httpx.Recover(logger)(h)
	return h, nil
}

// NewHTTPServer returns a server for handler. WriteTimeout stays zero because
// the auth state stream is long-lived.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ServeConfig contains dependencies for Serve.
type ServeConfig struct {
	Server          *http.Server
	Listener        net.Listener // Optional; the server listens on Server.Addr when nil
	ShutdownTimeout time.Duration
	// Background tasks run beside the server and receive a context that is
	// cancelled when it stops. A task error stops the server.
	Background []func(context.Context) error
	Logger     *slog.Logger
}

// Serve runs the server until ctx is cancelled, then shuts it down gracefully.
// Open state streams end when their request contexts are cancelled by Shutdown.
func Serve(ctx context.Context, cfg ServeConfig) error {
	if cfg.Server == nil {
		return errors.New("server is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "starting HTTP server", "addr", cfg.Server.Addr)
		var err error
		if cfg.Listener != nil {
			err = cfg.Server.Serve(cfg.Listener)
		} else {
			err = cfg.Server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	for _, task := range cfg.Background {
		g.Go(func() error { return task(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	})
	return g.Wait()
}
