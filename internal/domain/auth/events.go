package auth

import "time"

// EventKind enumerates auth-state transitions delivered to subscribers.
type EventKind string

const (
	EventSignedIn         EventKind = "signed_in"
	EventSignedOut        EventKind = "signed_out"
	EventTokenRefreshed   EventKind = "token_refreshed"
	EventUserUpdated      EventKind = "user_updated"
	EventPasswordRecovery EventKind = "password_recovery"
)

// Event is an auth-state change for a single user.
// SessionID is empty for events not tied to a session (e.g., password recovery).
type Event struct {
	Kind      EventKind `json:"kind"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	At        time.Time `json:"at"`
}
