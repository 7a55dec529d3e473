package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/bcnelson/yatube/internal/domain"
)

// LoginData holds data for the login page.
type LoginData struct {
	Username string
	Next     string
}

// handleLoginPage renders the login page.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	data := PageData{
		Title:   "Log in",
		Active:  "login",
		Content: LoginData{Next: safeNext(r.URL.Query().Get("next"))},
	}

	// Check for flash message in query params
	if msg := r.URL.Query().Get("error"); msg != "" {
		data.Flash = &FlashMessage{Type: "error", Message: msg}
	}

	s.render(w, r, http.StatusOK, "login", data)
}

// handleLogin processes the login form.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	next := safeNext(r.PostFormValue("next"))

	user, err := s.users.Authenticate(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		if !errors.Is(err, domain.ErrBadCredentials) {
			s.serverError(w, r, err)
			return
		}
		s.render(w, r, http.StatusOK, "login", PageData{
			Title:   "Log in",
			Active:  "login",
			Flash:   &FlashMessage{Type: "error", Message: "Invalid username or password."},
			Content: LoginData{Username: username, Next: next},
		})
		return
	}

	if err := s.sessions.Login(w, r, user.ID); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "user logged in", "username", user.Username)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// handleLogout clears the session and redirects to the index.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(w, r); err != nil {
		s.logger.WarnContext(r.Context(), "failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func loginError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/auth/login/?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

// handleOIDCLogin initiates the OIDC login flow.
func (s *Server) handleOIDCLogin(w http.ResponseWriter, r *http.Request) {
	if s.oidc == nil {
		s.renderError(w, r, http.StatusNotFound)
		return
	}

	stateData, err := s.sessions.GenerateState(w, r, safeNext(r.URL.Query().Get("next")))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to generate oidc state", "error", err)
		loginError(w, r, "Failed to initiate login")
		return
	}

	http.Redirect(w, r, s.oidc.AuthCodeURL(stateData.State, stateData.Nonce), http.StatusSeeOther)
}

// handleOIDCCallback completes the OIDC login and starts a session for the
// user registered with the token's email.
func (s *Server) handleOIDCCallback(w http.ResponseWriter, r *http.Request) {
	if s.oidc == nil {
		s.renderError(w, r, http.StatusNotFound)
		return
	}

	ctx := r.Context()
	q := r.URL.Query()

	// Check for error from provider
	if errParam := q.Get("error"); errParam != "" {
		errDesc := q.Get("error_description")
		if errDesc == "" {
			errDesc = errParam
		}
		s.logger.WarnContext(ctx, "oidc provider returned error", "error", errParam, "description", errDesc)
		loginError(w, r, errDesc)
		return
	}

	code := q.Get("code")
	if code == "" {
		loginError(w, r, "No authorization code received")
		return
	}

	stateData, err := s.sessions.ValidateState(w, r, q.Get("state"))
	if err != nil {
		s.logger.WarnContext(ctx, "oidc state validation failed", "error", err)
		loginError(w, r, "Invalid state parameter")
		return
	}

	claims, err := s.oidc.Exchange(ctx, code, stateData.Nonce)
	if err != nil {
		s.logger.WarnContext(ctx, "oidc token exchange failed", "error", err)
		loginError(w, r, "Failed to complete authentication")
		return
	}

	user, err := s.users.ResolveOIDCUser(ctx, claims.Email, claims.PreferredUsername)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to resolve oidc user", "email", claims.Email, "error", err)
		loginError(w, r, "Failed to create account")
		return
	}

	if err := s.sessions.Login(w, r, user.ID); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.logger.InfoContext(ctx, "user logged in via oidc", "username", user.Username)
	http.Redirect(w, r, safeNext(stateData.Next), http.StatusSeeOther)
}
