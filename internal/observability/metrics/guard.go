// Package metrics registers the Prometheus collectors for session, role, and
// guard activity. All methods are safe on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	obserrors "github.com/target/rentdesk/internal/observability/errors"
)

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultDenied  = "denied"
)

// Metrics holds the application's collectors.
type Metrics struct {
	GuardDecisions     *prometheus.CounterVec
	RoleResolutions    *prometheus.CounterVec
	ResolveLatency     prometheus.Histogram
	ProfileLookupErrs  *prometheus.CounterVec
	ProfileCache       *prometheus.CounterVec
	AuthEvents         *prometheus.CounterVec
	AuthActions        *prometheus.CounterVec
	StaleRefreshes     prometheus.Counter
	ActiveStateStreams prometheus.Gauge
}

// New registers all collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		GuardDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentdesk_guard_decisions_total",
			Help: "Route guard decisions by outcome and redirect reason",
		}, []string{"outcome", "reason"}),

		RoleResolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentdesk_role_resolutions_total",
			Help: "Completed role resolutions by resolved role",
		}, []string{"role"}),

		ResolveLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentdesk_role_resolution_duration_seconds",
			Help:    "Duration of role resolution across both profile stores",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		ProfileLookupErrs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentdesk_profile_lookup_errors_total",
			Help: "Profile lookups that failed and were treated as not found",
		}, []string{"store", "error_class"}),

		ProfileCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentdesk_profile_cache_lookups_total",
			Help: "Profile cache lookups by store and result",
		}, []string{"store", "result"}),

		AuthEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentdesk_auth_events_total",
			Help: "Auth state change events published by kind",
		}, []string{"kind"}),

		AuthActions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rentdesk_auth_actions_total",
			Help: "Explicit auth actions by action and result",
		}, []string{"action", "result"}),

		StaleRefreshes: f.NewCounter(prometheus.CounterOpts{
			Name: "rentdesk_auth_state_stale_refreshes_total",
			Help: "Auth state refreshes discarded because a newer refresh had started",
		}),

		ActiveStateStreams: f.NewGauge(prometheus.GaugeOpts{
			Name: "rentdesk_auth_state_streams",
			Help: "Open auth state event streams",
		}),
	}
}

// GuardDecision records one evaluated navigation.
func (m *Metrics) GuardDecision(allowed bool, reason string) {
	if m == nil {
		return
	}
	outcome := "allow"
	if !allowed {
		outcome = "redirect"
	}
	m.GuardDecisions.WithLabelValues(outcome, reason).Inc()
}

// RoleResolved records a finished resolution.
func (m *Metrics) RoleResolved(role string, d time.Duration) {
	if m == nil {
		return
	}
	m.RoleResolutions.WithLabelValues(role).Inc()
	m.ResolveLatency.Observe(d.Seconds())
}

// ProfileLookupFailed records a lookup error swallowed by the resolver.
func (m *Metrics) ProfileLookupFailed(store string, err error) {
	if m == nil {
		return
	}
	m.ProfileLookupErrs.WithLabelValues(store, obserrors.Classify(err)).Inc()
}

// ProfileCacheLookup records a cache hit or miss. Its signature matches
// profilecache.Options.OnLookup.
func (m *Metrics) ProfileCacheLookup(store string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ProfileCache.WithLabelValues(store, result).Inc()
}

// AuthEvent records a published auth event.
func (m *Metrics) AuthEvent(kind string) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(kind).Inc()
}

// AuthAction records an explicit auth action outcome.
func (m *Metrics) AuthAction(action, result string) {
	if m == nil {
		return
	}
	m.AuthActions.WithLabelValues(action, result).Inc()
}

// StaleRefresh records a discarded auth state refresh.
func (m *Metrics) StaleRefresh() {
	if m == nil {
		return
	}
	m.StaleRefreshes.Inc()
}

// StreamOpened and StreamClosed track open state streams.
func (m *Metrics) StreamOpened() {
	if m != nil {
		m.ActiveStateStreams.Inc()
	}
}

func (m *Metrics) StreamClosed() {
	if m != nil {
		m.ActiveStateStreams.Dec()
	}
}
