package service

import "errors"

// Auth error taxonomy. Callers match with errors.Is; messages are safe to show users.
var (
	// ErrSessionFetch wraps failures reading the current session.
	ErrSessionFetch = errors.New("session fetch failed")
	// ErrSessionExpired is returned for sessions past their expiry.
	ErrSessionExpired = errors.New("session expired")
	// ErrProfileLookup wraps profile store failures. The resolver logs it and treats the store as empty.
	ErrProfileLookup = errors.New("profile lookup failed")
	// ErrSignIn is returned for any credential mismatch, without saying which part was wrong.
	ErrSignIn = errors.New("invalid email or password")
	// ErrSignUp wraps account creation failures.
	ErrSignUp = errors.New("sign up failed")
	// ErrEmailTaken is returned (wrapped in ErrSignUp) when the email already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidEmail is returned (wrapped in ErrSignUp) for addresses that do not parse.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidToken is returned for malformed, expired, or superseded one-time tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrWeakPassword is returned when a new password fails the length policy.
	ErrWeakPassword = errors.New("password must be between 8 and 72 bytes")
)
