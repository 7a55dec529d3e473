package web

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bcnelson/yatube/internal/service"
)

type contextKey string

const identityContextKey contextKey = "identity"

// loadIdentity resolves the session cookie to an identity. Requests without
// a valid session carry the anonymous identity.
func (s *Server) loadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who := service.Anonymous()
		if id, ok := s.sessions.UserID(r); ok {
			who = s.users.IdentityFor(r.Context(), id)
		}
		ctx := context.WithValue(r.Context(), identityContextKey, who)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireLogin redirects anonymous visitors to the login page, returning
// them to the requested path afterwards.
func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !getIdentity(r.Context()).IsAuthenticated() {
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getIdentity retrieves the identity from context.
func getIdentity(ctx context.Context) service.Identity {
	who, _ := ctx.Value(identityContextKey).(service.Identity)
	return who
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/auth/login/?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
}
