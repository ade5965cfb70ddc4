package guard

import domainauth "github.com/target/rentdesk/internal/domain/auth"

// State is the guard's displayed auth state for one session lifetime.
type State string

const (
	StateUninitialized          State = "uninitialized"
	StateLoading                State = "loading"
	StateUnauthenticated        State = "unauthenticated"
	StateAuthenticatedNoProfile State = "authenticated_no_profile"
	StateAuthenticatedWithRole  State = "authenticated_with_role"
)

// Settled reports whether the state is one of the post-loading outcomes.
func (s State) Settled() bool {
	switch s {
	case StateUnauthenticated, StateAuthenticatedNoProfile, StateAuthenticatedWithRole:
		return true
	default:
		return false
	}
}

// Snapshot is a consistent copy of the derived auth state.
type Snapshot struct {
	State           State                `json:"state"`
	IsLoading       bool                 `json:"is_loading"`
	IsAuthenticated bool                 `json:"is_authenticated"`
	Role            domainauth.Role      `json:"role"`
	Identity        *domainauth.Identity `json:"identity,omitempty"`
	Profile         domainauth.Profile   `json:"profile"`
	Session         *domainauth.Session  `json:"-"`
	Seq             uint64               `json:"seq"`
}

// Principal returns the evaluation input for this snapshot.
func (s Snapshot) Principal() Principal {
	return Principal{Session: s.Session, Role: s.Role}
}

// SettledState derives the post-loading state from a session and a resolved profile.
func SettledState(session *domainauth.Session, profile domainauth.Profile) State {
	switch {
	case session == nil:
		return StateUnauthenticated
	case profile.Provisioned():
		return StateAuthenticatedWithRole
	default:
		return StateAuthenticatedNoProfile
	}
}
