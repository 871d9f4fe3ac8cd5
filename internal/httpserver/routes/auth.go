package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	limited := r.With(
		timeout(d),
		mw.RateLimit(rateLimit(d)),
	)
	limited.Get("/auth/{provider}", handlers.SignIn(d))
	limited.Get("/auth/{provider}/callback", handlers.Callback(d))
	limited.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/logout", handlers.Logout(d))
}

func rateLimit(d deps.Deps) mw.RateLimitConfig {
	return mw.RateLimitConfig{
		Burst:             d.RateBurst,
		RefillPerIPPerMin: d.RatePerMin,
		TrustProxy:        d.TrustProxy,
		Now:               d.TimeNow,
		Log:               d.Logger,
	}
}
