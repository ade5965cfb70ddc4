package httpx

import (
	"net/http"
	"net/url"

	"github.com/target/rentdesk/internal/domain/guard"
	"github.com/target/rentdesk/internal/service"
)

// SignIn authenticates with email and password and sets the session cookie.
// POST /auth/sign-in (form or JSON: email, password, redirect).
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	in, ok := h.passwordInput(w, r, h.paths().Login)
	if !ok {
		return
	}
	redirect := safeRedirectPath(firstNonEmpty(in["redirect"], r.URL.Query().Get("redirect")))
	back := url.Values{"redirect": {redirect}}

	session, err := h.Svc.SignIn(r.Context(), in["email"], in["password"])
	if err != nil {
		h.fail(w, r, actionFailure{Err: err, Page: h.paths().Login, Query: back})
		return
	}

	h.setSessionCookie(w, r, session)
	h.respond(w, r, actionResult{
		Body: map[string]any{
			"status":          "signed_in",
			"email_confirmed": session.EmailConfirmed,
			"expires_at":      session.ExpiresAt,
		},
		RedirectTo: redirect,
	})
}

// SignUp creates an account, signs it in, and sends the verification link.
// POST /auth/sign-up (form or JSON: email, password, first_name, last_name).
func (h *AuthHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	in, ok := h.passwordInput(w, r, h.paths().Login)
	if !ok {
		return
	}

	acct, err := h.Svc.SignUp(r.Context(), service.SignUpInput{
		Email:     in["email"],
		Password:  in["password"],
		FirstName: in["first_name"],
		LastName:  in["last_name"],
	})
	if err != nil {
		h.fail(w, r, actionFailure{Err: err, Page: h.paths().Login})
		return
	}

	// The new account is unconfirmed; the guard keeps it on the verify page.
	if session, err := h.Svc.SignIn(r.Context(), in["email"], in["password"]); err == nil {
		h.setSessionCookie(w, r, session)
	} else {
		h.logger().WarnContext(r.Context(), "sign in after sign up failed", "account_id", acct.ID, "error", err)
	}

	h.respond(w, r, actionResult{
		Status:     http.StatusCreated,
		Body:       map[string]any{"status": "verification_sent", "user_id": acct.ID},
		RedirectTo: h.paths().VerifyEmail + "?sent=1",
	})
}

// ResetPassword emails a reset link. The response is identical whether or not
// the email has an account.
// POST /auth/password/reset (form or JSON: email).
func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	in, ok := h.passwordInput(w, r, h.paths().Login)
	if !ok {
		return
	}

	if err := h.Svc.ResetPassword(r.Context(), in["email"]); err != nil {
		h.fail(w, r, actionFailure{Err: err, Page: h.paths().Login})
		return
	}

	h.respond(w, r, actionResult{
		Status:     http.StatusAccepted,
		Body:       map[string]any{"status": "reset_requested"},
		RedirectTo: h.paths().Login + "?notice=reset_sent",
	})
}

// UpdatePassword sets a new password, authorised by a reset token or the session cookie.
// POST /auth/password/update (form or JSON: password, optional token).
func (h *AuthHandlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	in, ok := h.passwordInput(w, r, PasswordUpdatePath)
	if !ok {
		return
	}
	token := in["token"]
	sessionID := sessionIDFromRequest(r)
	back := url.Values{"token": {token}}
	if token == "" && sessionID == "" {
		h.fail(w, r, actionFailure{Err: errAuthRequired, Page: PasswordUpdatePath})
		return
	}

	err := h.Svc.UpdatePassword(r.Context(), service.UpdatePasswordInput{
		SessionID:   sessionID,
		Token:       token,
		NewPassword: in["password"],
	})
	if err != nil {
		h.fail(w, r, actionFailure{Err: err, Page: PasswordUpdatePath, Query: back})
		return
	}

	redirect := "/"
	if token != "" {
		// Every session of the user was revoked; sign in again with the new password.
		redirect = h.paths().Login + "?notice=password_updated"
	}
	h.respond(w, r, actionResult{
		Body:       map[string]any{"status": "password_updated"},
		RedirectTo: redirect,
	})
}

// ResendVerification sends a fresh verification link to the signed-in user.
// POST /auth/verify-email/resend.
func (h *AuthHandlers) ResendVerification(w http.ResponseWriter, r *http.Request) {
	if !h.Svc.PasswordLoginEnabled() {
		h.fail(w, r, actionFailure{Err: errPasswordDisabled, Page: h.paths().VerifyEmail})
		return
	}
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		h.fail(w, r, actionFailure{Err: errAuthRequired, Page: h.paths().Login})
		return
	}

	if err := h.Svc.ResendVerification(r.Context(), sessionID); err != nil {
		h.fail(w, r, actionFailure{Err: err, Page: h.paths().VerifyEmail})
		return
	}

	h.respond(w, r, actionResult{
		Status:     http.StatusAccepted,
		Body:       map[string]any{"status": "verification_sent"},
		RedirectTo: h.paths().VerifyEmail + "?sent=1",
	})
}

// Refresh extends the current session and re-issues the cookie.
// POST /auth/refresh.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		h.fail(w, r, actionFailure{Err: errAuthRequired, Page: h.paths().Login})
		return
	}

	session, err := h.Svc.RefreshSession(r.Context(), sessionID)
	if err != nil {
		h.clearCookie(w, r, SessionCookieName)
		h.fail(w, r, actionFailure{Err: err, Page: h.paths().Login})
		return
	}

	h.setSessionCookie(w, r, session)
	h.respond(w, r, actionResult{
		Body:       map[string]any{"status": "refreshed", "expires_at": session.ExpiresAt},
		RedirectTo: safeRedirectPath(r.URL.Query().Get("redirect")),
	})
}

// passwordInput checks that password auth is enabled and reads the request fields.
// On failure the response is already written.
func (h *AuthHandlers) passwordInput(w http.ResponseWriter, r *http.Request, page string) (map[string]string, bool) {
	if !h.Svc.PasswordLoginEnabled() {
		h.fail(w, r, actionFailure{Err: errPasswordDisabled, Page: page})
		return nil, false
	}
	in, err := formInput(w, r)
	if err != nil {
		h.fail(w, r, actionFailure{Err: err, Page: page})
		return nil, false
	}
	return in, true
}

// paths returns the configured page paths.
func (h *AuthHandlers) paths() guard.Paths {
	if h.States == nil {
		return guard.DefaultPaths()
	}
	return h.States.Paths()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
