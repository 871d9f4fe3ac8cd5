package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/smartmarks/internal/auth"
	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmarks/internal/logger"
)

// SignIn starts the OAuth2 flow of the provider named in the path.
func SignIn(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := d.Providers.Get(chi.URLParam(r, "provider"))
		if err != nil {
			http.NotFound(w, r)
			return
		}

		state, err := auth.NewState()
		if err != nil {
			d.Logger.Error("failed to create oauth state", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		auth.SetState(w, state, d.CookieSecure)
		http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
	}
}

// Callback finishes the OAuth2 flow and issues the session cookie.
func Callback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "provider")
		p, err := d.Providers.Get(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		if !auth.CheckState(w, r, d.CookieSecure) {
			d.Logger.Warn("oauth state mismatch", logger.String("provider", name))
			http.Error(w, "invalid oauth state", http.StatusBadRequest)
			return
		}

		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			d.Logger.Info("sign-in cancelled", logger.String("provider", name), logger.String("reason", e))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		u, err := p.Exchange(r.Context(), code)
		if err != nil {
			d.Logger.Error("oauth exchange failed", logger.String("provider", name), logger.Error(err))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if err := d.Sessions.Issue(w, *u); err != nil {
			d.Logger.Error("failed to issue session", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		d.Logger.Info("user signed in", logger.String("provider", name), logger.String("user_id", u.ID))
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// Logout ends the session; the home gate then sends the browser to /login.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Sessions.SignOut(w, r)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
