package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/mw"
)

func init() { Register(registerPages) }

func registerPages(r chi.Router, d deps.Deps) {
	pages := r.With(timeout(d))
	pages.With(mw.RequireSession(d.Sessions, true)).Get("/", handlers.Home(d))
	pages.Get("/login", handlers.Login(d))
}
