package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/smartmarks/internal/auth"
)

// RequireSession lets a request through only with a valid session, and
// stores the user in the request context (see auth.UserFrom).
// Pages are redirected to /login; other callers get 401.
func RequireSession(s *auth.Sessions, redirect bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := s.CurrentUser(r)
			if !ok {
				if redirect {
					http.Redirect(w, r, "/login", http.StatusSeeOther)
					return
				}
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
		})
	}
}
