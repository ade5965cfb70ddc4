package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/domain/guard"
	"github.com/target/rentdesk/internal/observability/metrics"
	"github.com/target/rentdesk/internal/ports"
)

// SessionSource reads the current session. *AuthService implements it.
type SessionSource interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

// ProfileResolver resolves the role-carrying profile of a user. *RoleResolver implements it.
type ProfileResolver interface {
	Resolve(ctx context.Context, userID string) domainauth.Profile
	Forget(userID string)
}

// AuthStateTrackerOptions groups dependencies for AuthStateTracker.
type AuthStateTrackerOptions struct {
	Sessions SessionSource   // Required
	Resolver ProfileResolver // Required
	Config   AuthStateConfig
}

// AuthStateConfig carries the per-tracker settings.
type AuthStateConfig struct {
	SessionID string
	// Events is optional. Without it the tracker only changes on Refresh or HandleEvent.
	Events  ports.AuthEventBus
	Paths   guard.Paths
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// AuthStateTracker owns the auth state of one browser session: the session, the
// resolved profile, and the derived guard state.
//
// Every refresh starts from Loading and recomputes everything. Each refresh takes
// the next sequence number; a refresh that finishes after a newer one has started
// is discarded, so a slow resolution can never overwrite fresher state.
type AuthStateTracker struct {
	sessions  SessionSource
	resolver  ProfileResolver
	events    ports.AuthEventBus
	sessionID string
	paths     guard.Paths
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu        sync.Mutex
	snap      guard.Snapshot
	seq       uint64
	started   bool
	closed    bool
	sub       ports.Subscription
	watchers  map[uint64]chan guard.Snapshot
	nextWatch uint64

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// NewAuthStateTracker constructs a tracker in the Uninitialized state.
func NewAuthStateTracker(opts AuthStateTrackerOptions) *AuthStateTracker {
	if opts.Sessions == nil {
		//nolint:forbidigo // Service construction must fail fast during wiring when dependencies are missing
		panic("SessionSource is required")
	}
	if opts.Resolver == nil {
		//nolint:forbidigo // Service construction must fail fast during wiring when dependencies are missing
		panic("ProfileResolver is required")
	}
	logger := opts.Config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthStateTracker{
		sessions:  opts.Sessions,
		resolver:  opts.Resolver,
		events:    opts.Config.Events,
		sessionID: opts.Config.SessionID,
		paths:     opts.Config.Paths,
		logger:    logger.With("component", "auth_state"),
		metrics:   opts.Config.Metrics,
		snap:      guard.Snapshot{State: guard.StateUninitialized},
		watchers:  make(map[uint64]chan guard.Snapshot),
		done:      make(chan struct{}),
	}
}

// Start performs the initial refresh and, when an event bus is configured and a
// session exists, subscribes to that user's auth events. Events are applied in
// delivery order until Close is called or ctx is cancelled.
func (t *AuthStateTracker) Start(ctx context.Context) error {
	t.mu.Lock()
	switch {
	case t.closed:
		t.mu.Unlock()
		return errors.New("auth state tracker is closed")
	case t.started:
		t.mu.Unlock()
		return errors.New("auth state tracker already started")
	}
	t.started = true
	t.mu.Unlock()

	snap := t.Refresh(ctx)
	if t.events == nil || snap.Identity == nil {
		return nil
	}

	sub, err := t.events.Subscribe(ctx, snap.Identity.UserID)
	if err != nil {
		return fmt.Errorf("subscribe to auth events: %w", err)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return sub.Close()
	}
	t.sub = sub
	t.wg.Add(1)
	t.mu.Unlock()

	go t.listen(ctx, sub)
	return nil
}

func (t *AuthStateTracker) listen(ctx context.Context, sub ports.Subscription) {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			t.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent applies an auth-state change: the state drops to Loading and is
// recomputed from a fresh session fetch and role resolution.
func (t *AuthStateTracker) HandleEvent(ctx context.Context, ev domainauth.Event) guard.Snapshot {
	t.logger.DebugContext(ctx, "auth event received",
		"kind", ev.Kind, "user_id", ev.UserID, "session_id", ev.SessionID)
	if ev.Kind == domainauth.EventUserUpdated && ev.UserID != "" {
		t.resolver.Forget(ev.UserID)
	}
	return t.Refresh(ctx)
}

// Refresh runs one Loading → settled cycle and returns the resulting snapshot.
// If a newer refresh started meanwhile, this result is dropped and the current
// snapshot is returned instead.
func (t *AuthStateTracker) Refresh(ctx context.Context) guard.Snapshot {
	seq := t.beginRefresh()

	session := t.fetchSession(ctx)
	var profile domainauth.Profile
	if session != nil {
		profile = t.resolver.Resolve(ctx, session.UserID)
	}

	return t.commit(seq, settledSnapshot(session, profile, seq))
}

func (t *AuthStateTracker) beginRefresh() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.snap = guard.Snapshot{State: guard.StateLoading, IsLoading: true, Seq: t.seq}
	t.broadcastLocked()
	return t.seq
}

func (t *AuthStateTracker) commit(seq uint64, next guard.Snapshot) guard.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seq != t.seq {
		t.metrics.StaleRefresh()
		t.logger.Debug("discarding stale auth state", "seq", seq, "latest", t.seq)
		return t.snap
	}
	t.snap = next
	t.broadcastLocked()
	return next
}

func (t *AuthStateTracker) fetchSession(ctx context.Context) *domainauth.Session {
	if t.sessionID == "" {
		return nil
	}
	session, err := t.sessions.GetSession(ctx, t.sessionID)
	if err == nil {
		return session
	}
	switch {
	case errors.Is(err, ErrSessionExpired), errors.Is(err, domainauth.ErrSessionNotFound):
		t.logger.InfoContext(ctx, "no active session", "reason", err.Error())
	default:
		t.logger.WarnContext(ctx, "session fetch failed; treating as signed out", "error", err)
	}
	return nil
}

func settledSnapshot(session *domainauth.Session, profile domainauth.Profile, seq uint64) guard.Snapshot {
	snap := guard.Snapshot{
		State:   guard.SettledState(session, profile),
		Role:    profile.Role,
		Profile: profile,
		Seq:     seq,
	}
	if session != nil {
		s := *session
		id := s.Identity()
		snap.Session = &s
		snap.Identity = &id
		snap.IsAuthenticated = true
	}
	return snap
}

// Snapshot returns a copy of the current state.
func (t *AuthStateTracker) Snapshot() guard.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// Evaluate decides route against the current state. While loading, the state
// carries no session, so protected routes redirect.
func (t *AuthStateTracker) Evaluate(route guard.RouteContext) guard.Decision {
	return guard.Evaluate(t.Snapshot().Principal(), route, t.paths)
}

// IsAuthorized reports whether route is allowed for the current state.
func (t *AuthStateTracker) IsAuthorized(route guard.RouteContext) bool {
	return t.Evaluate(route).Allowed()
}

// Watch returns a channel that receives the current snapshot and every later
// change. Slow readers only see the latest value. The cancel func is idempotent.
func (t *AuthStateTracker) Watch() (<-chan guard.Snapshot, func()) {
	ch := make(chan guard.Snapshot, 1)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		close(ch)
		return ch, func() {}
	}
	id := t.nextWatch
	t.nextWatch++
	t.watchers[id] = ch
	ch <- t.snap

	return ch, sync.OnceFunc(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if w, ok := t.watchers[id]; ok {
			delete(t.watchers, id)
			close(w)
		}
	})
}

// broadcastLocked sends the current snapshot to every watcher, replacing any
// unread value. t.mu must be held, which makes it the only sender.
func (t *AuthStateTracker) broadcastLocked() {
	for _, ch := range t.watchers {
		select {
		case ch <- t.snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		ch <- t.snap
	}
}

// Close releases the event subscription and closes all watch channels. It is
// safe to call more than once.
func (t *AuthStateTracker) Close() error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		sub := t.sub
		for id, ch := range t.watchers {
			delete(t.watchers, id)
			close(ch)
		}
		t.mu.Unlock()

		close(t.done)
		if sub != nil {
			if err := sub.Close(); err != nil {
				t.closeErr = fmt.Errorf("close auth event subscription: %w", err)
			}
		}
		t.wg.Wait()
	})
	return t.closeErr
}

// AuthStateFactory builds trackers that share dependencies and differ only by session.
type AuthStateFactory struct {
	opts AuthStateTrackerOptions
}

// NewAuthStateFactory validates opts once so ForSession cannot panic later.
func NewAuthStateFactory(opts AuthStateTrackerOptions) *AuthStateFactory {
	_ = NewAuthStateTracker(opts)
	return &AuthStateFactory{opts: opts}
}

// ForSession returns a new, unstarted tracker for sessionID.
func (f *AuthStateFactory) ForSession(sessionID string) *AuthStateTracker {
	opts := f.opts
	opts.Config.SessionID = sessionID
	return NewAuthStateTracker(opts)
}

// Paths returns the redirect targets trackers evaluate against, with defaults filled in.
func (f *AuthStateFactory) Paths() guard.Paths { return f.opts.Config.Paths.WithDefaults() }
