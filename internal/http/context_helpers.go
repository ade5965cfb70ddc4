package httpx

import (
	"context"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/domain/guard"
)

// Unexported context key types avoid collisions across packages.
type (
	sessionKey  struct{}
	snapshotKey struct{}
)

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetUserSessionFromContext returns the user session from context and a boolean indicating presence.
func GetUserSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// GetSessionFromContext retrieves the session from the request context, or nil.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if s, ok := GetUserSessionFromContext(ctx); ok {
		return s
	}
	return nil
}

// SetSnapshotInContext stores the auth state the guard evaluated for this request.
func SetSnapshotInContext(ctx context.Context, snap guard.Snapshot) context.Context {
	return context.WithValue(ctx, snapshotKey{}, snap)
}

// SnapshotFromContext returns the guard's auth state for this request.
func SnapshotFromContext(ctx context.Context) (guard.Snapshot, bool) {
	snap, ok := ctx.Value(snapshotKey{}).(guard.Snapshot)
	return snap, ok
}

// RoleFromContext returns the resolved role, or RoleNone when the guard did not run.
func RoleFromContext(ctx context.Context) domainauth.Role {
	if snap, ok := SnapshotFromContext(ctx); ok {
		return snap.Role
	}
	return domainauth.RoleNone
}
